// Package gpu defines the rendering device the pipeline drives. The
// OpenGL implementation lives in package renderer; gputest provides a
// software device for tests.
package gpu

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// Pass selects what a frame renders.
type Pass uint8

const (
	// PassColor renders the visual appearance.
	PassColor Pass = iota
	// PassID renders each product in its encoded identification colour.
	PassID
)

func (p Pass) String() string {
	if p == PassID {
		return "id"
	}
	return "color"
}

// Mode is the colour pass rendering mode.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeGrayscale
	ModeXRay
	ModeXRayUltra
)

var modeNames = [...]string{"normal", "grayscale", "xray", "xray-ultra"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// XRay reports whether m is one of the x-ray modes.
func (m Mode) XRay() bool {
	return m == ModeXRay || m == ModeXRayUltra
}

// ParseMode converts a mode name as written by String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return ModeNormal, fmt.Errorf("unknown rendering mode %q", s)
}

// Phase restricts which products a draw submission shades.
type Phase uint8

const (
	// PhaseAll shades every non-hidden product.
	PhaseAll Phase = iota
	// PhaseOpaque shades only XRAYVISIBLE and HIGHLIGHTED products.
	PhaseOpaque
	// PhaseTranslucent shades every other product, hidden ones included,
	// with alpha blending.
	PhaseTranslucent
)

// FrameUniforms are shared by every submission of a frame.
type FrameUniforms struct {
	Projection mgl32.Mat4
	ModelView  mgl32.Mat4
	Eye        mgl32.Vec3

	// Clip planes are [a b c d]; a fragment p is discarded when
	// dot(abc, p) + d > 0.
	ClipA, ClipB     mgl32.Vec4
	ClipAOn, ClipBOn bool

	Background mgl32.Vec4
	Highlight  mgl32.Vec4
	LightA     mgl32.Vec4
	LightB     mgl32.Vec4
	Mode       Mode
}

// ModelUniforms are per-submission parameters.
type ModelUniforms struct {
	// ModelID is the high byte of every identification colour the
	// submission writes.
	ModelID   uint8
	Phase     Phase
	DepthTest bool
	// Alpha scales fragment opacity in the translucent phase.
	Alpha float32
}

// Buffers is one uploaded model.
type Buffers interface {
	// Products returns the number of products in the state texture.
	Products() int
	// Release frees all GPU resources. Buffers must not be used afterwards.
	Release()
}

// Target is an offscreen render target.
type Target interface {
	Size() (width, height int)
	// Resize reallocates the target; its content is undefined afterwards.
	Resize(width, height int)
	Destroy()
}

// Device is the GPU abstraction driven by the render pipeline. All methods
// must be called from the thread that owns the rendering context.
type Device interface {
	// Upload copies model geometry to the GPU.
	Upload(m *wexbim.Model) (Buffers, error)
	// UpdateStates replaces the packed state/style texture of b.
	UpdateStates(b Buffers, entries []uint16) error
	// UpdatePalette replaces the style palette texture.
	UpdatePalette(texels []uint8) error

	// NewTarget allocates an offscreen target.
	NewTarget(width, height int) (Target, error)
	// Size returns the default surface size.
	Size() (width, height int)

	// Begin starts a pass into target, or the default surface when target
	// is nil, and clears it.
	Begin(target Target, pass Pass, u FrameUniforms) error
	// Draw submits one model.
	Draw(b Buffers, u ModelUniforms) error
	// End finishes the current pass.
	End() error

	// ReadPixel returns the RGBA value at (x, y), origin bottom-left.
	ReadPixel(target Target, x, y int) ([4]uint8, error)
	// ReadImage returns the whole target, rows bottom-up as stored by GL.
	ReadImage(target Target) (*image.RGBA, error)
}

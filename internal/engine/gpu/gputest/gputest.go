// Package gputest provides a software gpu.Device for tests. Geometry is
// not rasterised; instead tests declare which products cover which pixels
// with Cover, and the device applies the same per-fragment rules as the
// shaders: state discard, clip discard, depth test and ID encoding.
package gputest

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/picking"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

const (
	stateHidden      = 0xFE
	stateHighlighted = 0xFD
	stateXRayVisible = 0xFC
	noStyle          = 0xFF
)

// Fragment is one product surface covering a pixel.
type Fragment struct {
	ModelID int
	Slot    int
	Point   mgl32.Vec3
	Depth   float32
}

// Call records one device operation.
type Call struct {
	Op        string
	Pass      gpu.Pass
	Target    gpu.Target
	ModelID   uint8
	Phase     gpu.Phase
	DepthTest bool
	Uniforms  gpu.FrameUniforms
}

// Buffers is an uploaded model.
type Buffers struct {
	Model    *wexbim.Model
	States   []uint16
	Released bool
}

func (b *Buffers) Products() int { return len(b.Model.Products) }
func (b *Buffers) Release()      { b.Released = true }

// Target is an offscreen surface.
type Target struct {
	img       *image.RGBA
	depth     []float32
	Destroyed bool
	Resizes   int
}

func newTarget(w, h int) *Target {
	return &Target{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float32, w*h),
	}
}

func (t *Target) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

func (t *Target) Resize(w, h int) {
	if tw, th := t.Size(); tw == w && th == h {
		return
	}
	*t = Target{
		img:     image.NewRGBA(image.Rect(0, 0, w, h)),
		depth:   make([]float32, w*h),
		Resizes: t.Resizes + 1,
	}
}

func (t *Target) Destroy() { t.Destroyed = true }

// Device is a software gpu.Device.
type Device struct {
	W, H      int
	Fragments map[image.Point][]Fragment
	Palette   []uint8
	Calls     []Call
	Uploads   int

	// BeginErr, when set, is returned by the next Begin.
	BeginErr error

	surface  *Target
	current  *Target
	pass     gpu.Pass
	uniforms gpu.FrameUniforms
}

// New creates a device with a w x h default surface.
func New(w, h int) *Device {
	return &Device{
		W:         w,
		H:         h,
		Fragments: make(map[image.Point][]Fragment),
		surface:   newTarget(w, h),
	}
}

// Cover declares that slot of modelID covers pixel (x, y), origin
// bottom-left, at world position p and depth.
func (d *Device) Cover(x, y, modelID, slot int, p mgl32.Vec3, depth float32) {
	pt := image.Pt(x, y)
	d.Fragments[pt] = append(d.Fragments[pt], Fragment{ModelID: modelID, Slot: slot, Point: p, Depth: depth})
}

// Paint writes a pixel into the pass in progress, the way a plugin draws
// its own geometry.
func (d *Device) Paint(x, y int, c [4]uint8) {
	if d.current != nil {
		d.current.img.SetRGBA(x, y, color.RGBA{c[0], c[1], c[2], c[3]})
	}
}

// Ops returns the recorded operation names.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Surface returns the default surface.
func (d *Device) Surface() *Target { return d.surface }

func (d *Device) Upload(m *wexbim.Model) (gpu.Buffers, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	d.Uploads++
	return &Buffers{Model: m}, nil
}

func (d *Device) UpdateStates(b gpu.Buffers, entries []uint16) error {
	buf, ok := b.(*Buffers)
	if !ok || buf.Released {
		return errors.New("gputest: invalid buffers")
	}
	buf.States = append(buf.States[:0], entries...)
	d.Calls = append(d.Calls, Call{Op: "states"})
	return nil
}

func (d *Device) UpdatePalette(texels []uint8) error {
	d.Palette = append(d.Palette[:0], texels...)
	d.Calls = append(d.Calls, Call{Op: "palette"})
	return nil
}

func (d *Device) NewTarget(w, h int) (gpu.Target, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gputest: invalid target size %dx%d", w, h)
	}
	return newTarget(w, h), nil
}

func (d *Device) Size() (int, int) { return d.W, d.H }

func (d *Device) resolve(t gpu.Target) *Target {
	if t == nil {
		if w, h := d.surface.Size(); w != d.W || h != d.H {
			d.surface = newTarget(d.W, d.H)
		}
		return d.surface
	}
	return t.(*Target)
}

func (d *Device) Begin(t gpu.Target, pass gpu.Pass, u gpu.FrameUniforms) error {
	if d.BeginErr != nil {
		err := d.BeginErr
		d.BeginErr = nil
		return err
	}
	if d.current != nil {
		return errors.New("gputest: Begin inside a pass")
	}
	d.current = d.resolve(t)
	d.pass = pass
	d.uniforms = u

	var clear color.RGBA
	if pass == gpu.PassColor {
		bg := u.Background
		clear = color.RGBA{uint8(bg[0] * 255), uint8(bg[1] * 255), uint8(bg[2] * 255), uint8(bg[3] * 255)}
	}
	img := d.current.img
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.SetRGBA(x, y, clear)
		}
	}
	for i := range d.current.depth {
		d.current.depth[i] = 1
	}
	d.Calls = append(d.Calls, Call{Op: "begin", Pass: pass, Target: t, Uniforms: u})
	return nil
}

func (d *Device) Draw(b gpu.Buffers, u gpu.ModelUniforms) error {
	if d.current == nil {
		return errors.New("gputest: Draw outside a pass")
	}
	buf, ok := b.(*Buffers)
	if !ok || buf.Released {
		return errors.New("gputest: draw with released buffers")
	}
	d.Calls = append(d.Calls, Call{Op: "draw", Pass: d.pass, ModelID: u.ModelID, Phase: u.Phase, DepthTest: u.DepthTest})

	w, h := d.current.Size()
	for pt, frags := range d.Fragments {
		if pt.X < 0 || pt.Y < 0 || pt.X >= w || pt.Y >= h {
			continue
		}
		for _, f := range frags {
			if f.ModelID != int(u.ModelID) || f.Slot >= len(buf.States) {
				continue
			}
			d.shade(pt, f, buf.States[f.Slot], u)
		}
	}
	return nil
}

func (d *Device) clipped(p mgl32.Vec3) bool {
	u := d.uniforms
	if u.ClipAOn && u.ClipA.Vec3().Dot(p)+u.ClipA[3] > 0 {
		return true
	}
	if u.ClipBOn && u.ClipB.Vec3().Dot(p)+u.ClipB[3] > 0 {
		return true
	}
	return false
}

func (d *Device) shade(pt image.Point, f Fragment, entry uint16, u gpu.ModelUniforms) {
	st, style := uint8(entry>>8), uint8(entry)
	if d.clipped(f.Point) {
		return
	}

	var c color.RGBA
	if d.pass == gpu.PassID {
		if st == stateHidden {
			return
		}
		id, err := picking.Encode(f.ModelID, f.Slot)
		if err != nil {
			return
		}
		px := id.RGBA()
		c = color.RGBA{px[0], px[1], px[2], px[3]}
	} else {
		emphasised := st == stateXRayVisible || st == stateHighlighted
		switch u.Phase {
		case gpu.PhaseAll:
			if st == stateHidden {
				return
			}
		case gpu.PhaseOpaque:
			if !emphasised {
				return
			}
		case gpu.PhaseTranslucent:
			if emphasised {
				return
			}
		}
		c = d.colour(st, style)
	}

	i := pt.Y*d.current.img.Bounds().Dx() + pt.X
	if u.DepthTest || d.pass == gpu.PassID {
		if f.Depth >= d.current.depth[i] {
			return
		}
		d.current.depth[i] = f.Depth
	}
	d.current.img.SetRGBA(pt.X, pt.Y, c)
}

func (d *Device) colour(st, style uint8) color.RGBA {
	c := color.RGBA{200, 200, 200, 255}
	switch {
	case st == stateHighlighted:
		h := d.uniforms.Highlight
		c = color.RGBA{uint8(h[0] * 255), uint8(h[1] * 255), uint8(h[2] * 255), uint8(h[3] * 255)}
	case style != noStyle && int(style)*4+3 < len(d.Palette):
		p := d.Palette[int(style)*4:]
		c = color.RGBA{p[0], p[1], p[2], p[3]}
	}
	if d.uniforms.Mode == gpu.ModeGrayscale {
		g := uint8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
		c = color.RGBA{g, g, g, c.A}
	}
	return c
}

func (d *Device) End() error {
	if d.current == nil {
		return errors.New("gputest: End outside a pass")
	}
	d.current = nil
	d.Calls = append(d.Calls, Call{Op: "end", Pass: d.pass})
	return nil
}

func (d *Device) ReadPixel(t gpu.Target, x, y int) ([4]uint8, error) {
	tgt := d.resolve(t)
	w, h := tgt.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return [4]uint8{}, fmt.Errorf("gputest: pixel (%d,%d) outside %dx%d", x, y, w, h)
	}
	c := tgt.img.RGBAAt(x, y)
	return [4]uint8{c.R, c.G, c.B, c.A}, nil
}

func (d *Device) ReadImage(t gpu.Target) (*image.RGBA, error) {
	src := d.resolve(t).img
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out, nil
}

var _ gpu.Device = (*Device)(nil)

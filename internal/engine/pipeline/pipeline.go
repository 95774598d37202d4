// Package pipeline drives frame rendering: the colour pass with its
// rendering modes, the identification pass used for picking, and the
// continuous draw loop.
package pipeline

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/camera"
	"github.com/Faultbox/xviewer/internal/engine/clipping"
	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/lighting"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/internal/logger"
)

// State is the draw loop state.
type State uint8

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Settings are the colour pass parameters.
type Settings struct {
	Background mgl32.Vec4
	Highlight  mgl32.Vec4
	// LightA and LightB are directional lights: xyz direction, w intensity.
	LightA    mgl32.Vec4
	LightB    mgl32.Vec4
	Mode      gpu.Mode
	XRayAlpha float32
}

// DefaultSettings returns the settings a new pipeline starts with.
func DefaultSettings() Settings {
	return Settings{
		Background: mgl32.Vec4{1, 1, 1, 1},
		Highlight:  mgl32.Vec4{1, 0.6, 0, 1},
		LightA:     lighting.Key,
		LightB:     lighting.Fill,
		Mode:       gpu.ModeNormal,
		XRayAlpha:  0.15,
	}
}

// Hooks are fired around both passes.
type Hooks interface {
	BeforeDraw(width, height int) error
	AfterDraw(width, height int) error
	BeforeDrawID() error
	AfterDrawID() error
}

// Options wire a pipeline to the viewer context.
type Options struct {
	Device   gpu.Device
	Camera   *camera.Camera
	Clipping *clipping.Planes
	Palette  *state.Palette
	Registry *handle.Registry
	Hooks    Hooks
	Bus      *events.Bus
	// Present is called after a frame drawn to the default surface.
	Present func() error
}

// Pipeline renders frames. It must only be used from the render thread.
type Pipeline struct {
	Settings Settings

	dev     gpu.Device
	cam     *camera.Camera
	clip    *clipping.Planes
	palette *state.Palette
	reg     *handle.Registry
	hooks   Hooks
	bus     *events.Bus
	present func() error

	state         State
	drawing       bool
	paletteSynced bool
	paletteAt     uint64
	frames        uint64
	log           *zap.Logger
}

// New creates a pipeline. A missing device means no rendering context
// could be acquired.
func New(o Options) (*Pipeline, error) {
	if o.Device == nil {
		return nil, fmt.Errorf("no rendering device: %w", errs.ErrUnsupportedEnvironment)
	}
	if o.Camera == nil || o.Clipping == nil || o.Palette == nil || o.Registry == nil {
		return nil, fmt.Errorf("pipeline needs camera, clipping, palette and registry: %w", errs.ErrInvalidArgument)
	}
	return &Pipeline{
		Settings: DefaultSettings(),
		dev:      o.Device,
		cam:      o.Camera,
		clip:     o.Clipping,
		palette:  o.Palette,
		reg:      o.Registry,
		hooks:    o.Hooks,
		bus:      o.Bus,
		present:  o.Present,
		log:      logger.Named("pipeline"),
	}, nil
}

// State returns the loop state.
func (p *Pipeline) State() State { return p.state }

// Busy reports whether a pass is being recorded.
func (p *Pipeline) Busy() bool { return p.drawing }

// Frames returns the number of colour frames drawn.
func (p *Pipeline) Frames() uint64 { return p.frames }

// Start enters the continuous loop.
func (p *Pipeline) Start() {
	if p.state != Running {
		p.log.Debug("loop started", zap.Stringer("from", p.state))
	}
	p.state = Running
}

// Stop pauses the loop. The last frame stays on screen.
func (p *Pipeline) Stop() {
	if p.state == Running {
		p.state = Paused
		p.log.Debug("loop paused")
	}
}

// Tick is called once per display refresh. It draws a frame when the
// loop is running and at least one model is active, and reports whether
// it drew.
func (p *Pipeline) Tick() (bool, error) {
	if p.state != Running || !p.reg.AnyActive() {
		return false, nil
	}
	p.cam.Tick()
	if err := p.Draw(nil); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Pipeline) size(target gpu.Target) (int, int) {
	if target != nil {
		return target.Size()
	}
	return p.dev.Size()
}

func (p *Pipeline) begin() error {
	if p.drawing {
		return fmt.Errorf("draw already in progress: %w", errs.ErrPreconditionViolation)
	}
	p.drawing = true
	return nil
}

func (p *Pipeline) frameUniforms() gpu.FrameUniforms {
	a, b, aOn, bOn := p.clip.Uniforms()
	s := p.Settings
	return gpu.FrameUniforms{
		Projection: p.cam.Projection(),
		ModelView:  p.cam.ModelView(),
		Eye:        p.cam.Position(),
		ClipA:      a,
		ClipB:      b,
		ClipAOn:    aOn,
		ClipBOn:    bOn,
		Background: s.Background,
		Highlight:  s.Highlight,
		LightA:     s.LightA,
		LightB:     s.LightB,
		Mode:       s.Mode,
	}
}

// sync uploads the palette and every state table that changed.
func (p *Pipeline) sync() error {
	if !p.paletteSynced || p.palette.Version() != p.paletteAt {
		if err := p.dev.UpdatePalette(p.palette.Texels()); err != nil {
			return fmt.Errorf("upload palette: %w", err)
		}
		p.paletteAt = p.palette.Version()
		p.paletteSynced = true
	}
	for _, h := range p.reg.Handles() {
		if !h.StatesDirty() {
			continue
		}
		if err := p.dev.UpdateStates(h.Buffers, h.Table.Entries()); err != nil {
			return fmt.Errorf("upload states of model %d: %w", h.ID, err)
		}
		h.MarkUploaded()
	}
	return nil
}

// Draw renders one colour frame into target, or the default surface when
// target is nil, and fires a frame event. It works in every loop state.
func (p *Pipeline) Draw(target gpu.Target) error {
	if err := p.begin(); err != nil {
		return err
	}
	err := p.drawColor(target)
	p.drawing = false
	if err != nil {
		return err
	}

	if target == nil && p.present != nil {
		if err := p.present(); err != nil {
			return fmt.Errorf("present: %w", err)
		}
	}
	p.frames++
	if p.bus != nil {
		p.bus.Fire(events.Frame{})
	}
	return nil
}

func (p *Pipeline) drawColor(target gpu.Target) error {
	w, h := p.size(target)
	p.cam.Update(w, h)
	if err := p.sync(); err != nil {
		return err
	}
	if p.hooks != nil {
		if err := p.hooks.BeforeDraw(w, h); err != nil {
			return err
		}
	}
	if err := p.dev.Begin(target, gpu.PassColor, p.frameUniforms()); err != nil {
		return fmt.Errorf("begin color pass: %w", err)
	}
	if err := p.submitColor(); err != nil {
		p.dev.End()
		return err
	}
	if p.hooks != nil {
		if err := p.hooks.AfterDraw(w, h); err != nil {
			p.dev.End()
			return err
		}
	}
	return p.dev.End()
}

func (p *Pipeline) submitColor() error {
	handles := p.reg.Handles()
	draw := func(h *handle.Handle, u gpu.ModelUniforms) error {
		u.ModelID = uint8(h.ID)
		if err := p.dev.Draw(h.Buffers, u); err != nil {
			return fmt.Errorf("draw model %d: %w", h.ID, err)
		}
		return nil
	}

	if !p.Settings.Mode.XRay() {
		for _, h := range handles {
			if !h.Active || h.Table.AllHidden() {
				continue
			}
			if err := draw(h, gpu.ModelUniforms{Phase: gpu.PhaseAll, DepthTest: true, Alpha: 1}); err != nil {
				return err
			}
		}
		return nil
	}

	// X-ray: emphasised products first with depth, then everything else
	// blended over them.
	for _, h := range handles {
		if !h.Active {
			continue
		}
		if err := draw(h, gpu.ModelUniforms{Phase: gpu.PhaseOpaque, DepthTest: true, Alpha: 1}); err != nil {
			return err
		}
	}
	depth := p.Settings.Mode != gpu.ModeXRayUltra
	for _, h := range handles {
		if !h.Active {
			continue
		}
		u := gpu.ModelUniforms{Phase: gpu.PhaseTranslucent, DepthTest: depth, Alpha: p.Settings.XRayAlpha}
		if err := draw(h, u); err != nil {
			return err
		}
	}
	return nil
}

// DrawIDs renders the identification pass into target. Only active,
// pickable models are drawn; hidden and clipped fragments are discarded
// by the shaders.
func (p *Pipeline) DrawIDs(target gpu.Target) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer func() { p.drawing = false }()

	w, h := p.size(target)
	p.cam.Update(w, h)
	if err := p.sync(); err != nil {
		return err
	}
	if p.hooks != nil {
		if err := p.hooks.BeforeDrawID(); err != nil {
			return err
		}
	}
	if err := p.dev.Begin(target, gpu.PassID, p.frameUniforms()); err != nil {
		return fmt.Errorf("begin id pass: %w", err)
	}
	for _, hd := range p.reg.Handles() {
		if !hd.Active || !hd.Pickable || hd.Table.AllHidden() {
			continue
		}
		u := gpu.ModelUniforms{ModelID: uint8(hd.ID), Phase: gpu.PhaseAll, DepthTest: true, Alpha: 1}
		if err := p.dev.Draw(hd.Buffers, u); err != nil {
			p.dev.End()
			return fmt.Errorf("draw ids of model %d: %w", hd.ID, err)
		}
	}
	if p.hooks != nil {
		if err := p.hooks.AfterDrawID(); err != nil {
			p.dev.End()
			return err
		}
	}
	return p.dev.End()
}

// Package viewer ties the engine together into the product viewer: it owns
// the rendering context and exposes model loading, product states and
// styles, camera control, clipping, picking, plugins and image export.
//
// A Viewer is single-threaded. Every method must be called from the
// thread that owns the rendering context; the only work done elsewhere is
// decoding started by LoadAsync, whose results are uploaded by Pump.
package viewer

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/config"
	"github.com/Faultbox/xviewer/internal/engine/camera"
	"github.com/Faultbox/xviewer/internal/engine/clipping"
	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/lighting"
	"github.com/Faultbox/xviewer/internal/engine/picking"
	"github.com/Faultbox/xviewer/internal/engine/pipeline"
	"github.com/Faultbox/xviewer/internal/engine/plugin"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/internal/loader"
	"github.com/Faultbox/xviewer/internal/logger"
)

// Options configure a new Viewer.
type Options struct {
	// Device is the rendering context. Without one New fails with
	// ErrUnsupportedEnvironment.
	Device gpu.Device
	// Present shows a frame drawn to the default surface, typically by
	// swapping buffers.
	Present func() error
	// Loader fetches and decodes models. Defaults to loader.New().
	Loader *loader.Loader
}

// Viewer is the product viewer.
type Viewer struct {
	// ClickPicking makes a primary click resolve the product under the
	// pointer and fire a pick event.
	ClickPicking bool

	dev     gpu.Device
	bus     *events.Bus
	reg     *handle.Registry
	palette *state.Palette
	cam     *camera.Camera
	clip    *clipping.Planes
	plugins *plugin.Host
	pipe    *pipeline.Pipeline
	pick    *picking.Engine
	loader  *loader.Loader

	mu      sync.Mutex
	pending []decoded
	decodes sync.WaitGroup

	drag drag
	log  *zap.Logger
}

var _ plugin.Viewer = (*Viewer)(nil)

// New creates a viewer on the given device.
func New(o Options) (*Viewer, error) {
	if o.Device == nil {
		return nil, fmt.Errorf("no rendering device: %w", errs.ErrUnsupportedEnvironment)
	}
	v := &Viewer{
		ClickPicking: true,
		dev:          o.Device,
		bus:          events.NewBus(),
		palette:      &state.Palette{},
		cam:          camera.New(),
		clip:         &clipping.Planes{},
		loader:       o.Loader,
		log:          logger.Named("viewer"),
	}
	if v.loader == nil {
		v.loader = loader.New()
	}
	v.reg = handle.NewRegistry(v.bus)
	v.reg.HideSpaces = true
	v.plugins = plugin.NewHost(v)

	var err error
	v.pipe, err = pipeline.New(pipeline.Options{
		Device:   v.dev,
		Camera:   v.cam,
		Clipping: v.clip,
		Palette:  v.palette,
		Registry: v.reg,
		Hooks:    v.plugins,
		Bus:      v.bus,
		Present:  o.Present,
	})
	if err != nil {
		return nil, err
	}
	v.pick = picking.New(v.dev, v.pipe, v.reg, v.plugins, v.bus)

	// Registered first so user handlers of the first load see the framed
	// camera.
	v.bus.On(events.NameLoaded, v.frameFirstModel)
	return v, nil
}

// Close unloads every model and releases the picking target.
func (v *Viewer) Close() {
	v.decodes.Wait()
	v.pipe.Stop()
	for _, h := range v.reg.Handles() {
		if err := v.reg.Unload(h.ID); err != nil {
			v.log.Warn("unload on close", zap.Int("model", h.ID), zap.Error(err))
		}
	}
	v.pick.Destroy()
}

// Device returns the rendering device.
func (v *Viewer) Device() gpu.Device { return v.dev }

// Camera returns the camera.
func (v *Viewer) Camera() *camera.Camera { return v.cam }

// Size returns the default surface size in pixels.
func (v *Viewer) Size() (int, int) { return v.dev.Size() }

// On registers an event handler.
func (v *Viewer) On(name events.Name, fn events.Handler) events.Subscription {
	return v.bus.On(name, fn)
}

// Off removes a handler registered with On.
func (v *Viewer) Off(sub events.Subscription) bool {
	return v.bus.Off(sub)
}

// AddPlugin initialises p and appends it to the plugin list.
func (v *Viewer) AddPlugin(p plugin.Plugin) error {
	return v.plugins.Add(p)
}

// RemovePlugin drops p and reports whether it was present.
func (v *Viewer) RemovePlugin(p plugin.Plugin) bool {
	return v.plugins.Remove(p)
}

// Plugins returns the plugins in insertion order.
func (v *Viewer) Plugins() []plugin.Plugin {
	return v.plugins.Plugins()
}

// HideSpaces reports whether new models start with their spaces HIDDEN.
func (v *Viewer) HideSpaces() bool { return v.reg.HideSpaces }

// RenderingMode returns the colour pass mode.
func (v *Viewer) RenderingMode() gpu.Mode { return v.pipe.Settings.Mode }

// SetRenderingMode switches the colour pass mode.
func (v *Viewer) SetRenderingMode(m gpu.Mode) {
	v.pipe.Settings.Mode = m
}

// Lights returns the key and fill lights.
func (v *Viewer) Lights() (a, b mgl32.Vec4) {
	return v.pipe.Settings.LightA, v.pipe.Settings.LightB
}

// SetLights replaces both lights.
func (v *Viewer) SetLights(a, b mgl32.Vec4) error {
	for _, l := range []mgl32.Vec4{a, b} {
		if err := lighting.Validate(l); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
		}
	}
	v.pipe.Settings.LightA, v.pipe.Settings.LightB = a, b
	return nil
}

// Frames returns the number of colour frames drawn.
func (v *Viewer) Frames() uint64 { return v.pipe.Frames() }

func rgba(c []int) mgl32.Vec4 {
	return mgl32.Vec4{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}

// Set applies a batch of settings. Nothing is changed when any value is
// invalid.
func (v *Viewer) Set(c config.ViewerConfig) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	mode, err := gpu.ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	nav, err := camera.ParseNavigation(c.Navigation)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	typ, err := camera.ParseType(c.Camera)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	lightA, lightB := mgl32.Vec4(c.LightA), mgl32.Vec4(c.LightB)
	for _, l := range []mgl32.Vec4{lightA, lightB} {
		if err := lighting.Validate(l); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
		}
	}

	s := &v.pipe.Settings
	s.Background = rgba(c.Background)
	s.Highlight = rgba(c.Highlight)
	s.LightA = lightA
	s.LightB = lightB
	s.Mode = mode
	s.XRayAlpha = c.XRayAlpha

	v.cam.Mode = nav
	v.cam.SetType(typ)
	v.cam.Perspective.FOV = c.FOV
	v.reg.HideSpaces = c.HideSpaces

	v.log.Debug("settings applied",
		zap.Stringer("mode", mode),
		zap.Stringer("navigation", nav),
		zap.Stringer("camera", typ))
	return nil
}

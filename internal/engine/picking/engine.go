package picking

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/logger"
)

// IDRenderer renders the identification pass into a target.
type IDRenderer interface {
	DrawIDs(target gpu.Target) error
}

// Resolver maps an encoded (model, slot) pair back to a product ID.
type Resolver interface {
	Resolve(modelID, slot int) (productID int32, ok bool)
}

// Hooks lets plugins claim identification values.
type Hooks interface {
	BeforeGetID(id uint32) bool
	BeforePick(id uint32) bool
}

// Engine resolves screen positions to products.
type Engine struct {
	dev      gpu.Device
	renderer IDRenderer
	resolver Resolver
	hooks    Hooks
	bus      *events.Bus
	target   gpu.Target
	log      *zap.Logger
}

// New creates a picking engine. hooks and bus may be nil.
func New(dev gpu.Device, r IDRenderer, res Resolver, hooks Hooks, bus *events.Bus) *Engine {
	return &Engine{
		dev:      dev,
		renderer: r,
		resolver: res,
		hooks:    hooks,
		bus:      bus,
		log:      logger.Named("picking"),
	}
}

// ensureTarget keeps an offscreen target matching the default surface.
func (e *Engine) ensureTarget() (gpu.Target, error) {
	w, h := e.dev.Size()
	if e.target != nil {
		if tw, th := e.target.Size(); tw != w || th != h {
			e.target.Resize(w, h)
		}
		return e.target, nil
	}
	t, err := e.dev.NewTarget(w, h)
	if err != nil {
		return nil, fmt.Errorf("create picking target: %w", err)
	}
	e.target = t
	return t, nil
}

// ReadID renders the identification pass and returns the raw value at
// (x, y), origin bottom-left. Positions outside the surface read as
// Background.
func (e *Engine) ReadID(x, y int) (ID, error) {
	t, err := e.ensureTarget()
	if err != nil {
		return Background, err
	}
	if w, h := t.Size(); x < 0 || y < 0 || x >= w || y >= h {
		return Background, nil
	}
	if err := e.renderer.DrawIDs(t); err != nil {
		return Background, err
	}
	px, err := e.dev.ReadPixel(t, x, y)
	if err != nil {
		return Background, err
	}
	return FromRGBA(px), nil
}

// GetID returns the product at (x, y), origin bottom-left, or nil for
// background, plugin-owned and unresolvable values.
func (e *Engine) GetID(x, y int) (*events.ProductRef, error) {
	id, err := e.ReadID(x, y)
	if err != nil {
		return nil, err
	}
	return e.resolve(id, false), nil
}

// IDsFromEvent converts a window-space pointer position (origin top-left)
// and delegates to GetID.
func (e *Engine) IDsFromEvent(p events.Pointer) (*events.ProductRef, error) {
	_, h := e.dev.Size()
	return e.GetID(p.X, h-1-p.Y)
}

// Pick resolves the product under p and fires a pick event with the
// result, nil included.
func (e *Engine) Pick(p events.Pointer) (*events.ProductRef, error) {
	_, h := e.dev.Size()
	id, err := e.ReadID(p.X, h-1-p.Y)
	if err != nil {
		return nil, err
	}
	hit := e.resolve(id, true)
	e.log.Debug("pick", zap.Stringer("id", id), zap.Int("x", p.X), zap.Int("y", p.Y))
	if e.bus != nil {
		e.bus.Fire(events.Pick{Hit: hit, Pointer: p})
	}
	return hit, nil
}

func (e *Engine) resolve(id ID, picking bool) *events.ProductRef {
	if id == Background {
		return nil
	}
	if e.hooks != nil {
		if picking && e.hooks.BeforePick(uint32(id)) {
			return nil
		}
		if e.hooks.BeforeGetID(uint32(id)) {
			return nil
		}
	}
	slot, ok := id.Slot()
	if !ok {
		return nil
	}
	pid, ok := e.resolver.Resolve(id.Model(), slot)
	if !ok {
		e.log.Debug("unresolved id", zap.Stringer("id", id))
		return nil
	}
	return &events.ProductRef{ProductID: pid, ModelID: id.Model()}
}

// Destroy releases the offscreen target.
func (e *Engine) Destroy() {
	if e.target != nil {
		e.target.Destroy()
		e.target = nil
	}
}

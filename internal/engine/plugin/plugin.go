// Package plugin hosts auxiliary renderers that hook into the draw and
// identification cycles.
package plugin

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/camera"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/logger"
)

// Viewer is what a plugin may use of the viewer that hosts it.
type Viewer interface {
	Device() gpu.Device
	Camera() *camera.Camera
	Size() (width, height int)
	On(name events.Name, fn events.Handler) events.Subscription
	Off(sub events.Subscription) bool
}

// Plugin is the hook set a plugin implements. Embed Base to get no-op
// defaults for hooks a plugin does not need.
type Plugin interface {
	// Init is called once when the plugin is added.
	Init(v Viewer) error
	OnBeforeDraw(width, height int) error
	OnAfterDraw(width, height int) error
	OnBeforeDrawID() error
	OnAfterDrawID() error
	// OnBeforeGetID reports whether id is owned by the plugin.
	OnBeforeGetID(id uint32) bool
	// OnBeforePick reports whether a click on id is handled by the plugin.
	OnBeforePick(id uint32) bool
}

// Base implements Plugin with no-op hooks.
type Base struct{}

func (Base) Init(Viewer) error { return nil }
func (Base) OnBeforeDraw(width, height int) error { return nil }
func (Base) OnAfterDraw(width, height int) error { return nil }
func (Base) OnBeforeDrawID() error { return nil }
func (Base) OnAfterDrawID() error { return nil }
func (Base) OnBeforeGetID(uint32) bool { return false }
func (Base) OnBeforePick(uint32) bool { return false }

// Host keeps plugins in insertion order and fires their hooks. The first
// failing hook aborts the cycle and its error is returned.
type Host struct {
	plugins []Plugin
	viewer  Viewer
	log     *zap.Logger
}

// NewHost creates a host whose plugins receive v on Init.
func NewHost(v Viewer) *Host {
	return &Host{viewer: v, log: logger.Named("plugin")}
}

// Add initialises p and appends it. A plugin whose Init fails is not added.
// Plugins are compared by identity, so pass pointers.
func (h *Host) Add(p Plugin) error {
	if p == nil {
		return fmt.Errorf("nil plugin")
	}
	if slices.Contains(h.plugins, p) {
		return fmt.Errorf("plugin %T already added", p)
	}
	if err := p.Init(h.viewer); err != nil {
		return fmt.Errorf("init plugin %T: %w", p, err)
	}
	h.plugins = append(h.plugins, p)
	h.log.Debug("plugin added", zap.String("type", fmt.Sprintf("%T", p)))
	return nil
}

// Remove drops p. It reports whether p was present.
func (h *Host) Remove(p Plugin) bool {
	i := slices.Index(h.plugins, p)
	if i < 0 {
		return false
	}
	h.plugins = slices.Delete(h.plugins, i, i+1)
	return true
}

// Plugins returns a copy of the plugin list.
func (h *Host) Plugins() []Plugin {
	return slices.Clone(h.plugins)
}

func (h *Host) each(hook string, fn func(Plugin) error) error {
	for _, p := range h.plugins {
		if err := fn(p); err != nil {
			return fmt.Errorf("%s hook of %T: %w", hook, p, err)
		}
	}
	return nil
}

// BeforeDraw fires OnBeforeDraw.
func (h *Host) BeforeDraw(width, height int) error {
	return h.each("before draw", func(p Plugin) error { return p.OnBeforeDraw(width, height) })
}

// AfterDraw fires OnAfterDraw.
func (h *Host) AfterDraw(width, height int) error {
	return h.each("after draw", func(p Plugin) error { return p.OnAfterDraw(width, height) })
}

// BeforeDrawID fires OnBeforeDrawID.
func (h *Host) BeforeDrawID() error {
	return h.each("before draw id", Plugin.OnBeforeDrawID)
}

// AfterDrawID fires OnAfterDrawID.
func (h *Host) AfterDrawID() error {
	return h.each("after draw id", Plugin.OnAfterDrawID)
}

// BeforeGetID reports whether any plugin owns id. Plugins are asked in
// insertion order and the first claim wins.
func (h *Host) BeforeGetID(id uint32) bool {
	for _, p := range h.plugins {
		if p.OnBeforeGetID(id) {
			return true
		}
	}
	return false
}

// BeforePick reports whether any plugin handles a click on id.
func (h *Host) BeforePick(id uint32) bool {
	for _, p := range h.plugins {
		if p.OnBeforePick(id) {
			return true
		}
	}
	return false
}

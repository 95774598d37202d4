// Package handle keeps the loaded models. Each model is addressed by a
// small integer ID that doubles as the model byte of the identification
// pass.
package handle

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/picking"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/internal/logger"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// All addresses every loaded model where a model ID is optional.
const All = 0

// Handle is one loaded model.
type Handle struct {
	ID            int
	Tag           any
	Region        wexbim.Region
	UnitsPerMeter float32
	Table         *state.Table
	Buffers       gpu.Buffers

	// Active handles are drawn; Pickable handles take part in the
	// identification pass.
	Active   bool
	Pickable bool

	products []wexbim.Product
	uploaded uint64
	synced   bool
}

// ProductRegion returns the bounding box of product id.
func (h *Handle) ProductRegion(id int32) (wexbim.Region, bool) {
	slot, ok := h.Table.Slot(id)
	if !ok {
		return wexbim.Region{}, false
	}
	return h.products[slot].BBox, true
}

// StatesDirty reports whether the state table changed since the last
// MarkUploaded.
func (h *Handle) StatesDirty() bool {
	return !h.synced || h.Table.Version() != h.uploaded
}

// MarkUploaded records that the current state table is on the GPU.
func (h *Handle) MarkUploaded() {
	h.uploaded = h.Table.Version()
	h.synced = true
}

// Registry owns all handles. IDs are handed out from 1 upwards; an ID
// freed by Unload is only reused once every other ID has been used.
type Registry struct {
	// HideSpaces makes new models start with their spaces HIDDEN.
	HideSpaces bool

	arena [picking.MaxModels + 1]*Handle
	order []int
	next  int
	bus   *events.Bus
	log   *zap.Logger
}

// NewRegistry creates an empty registry. bus may be nil.
func NewRegistry(bus *events.Bus) *Registry {
	return &Registry{next: 1, bus: bus, log: logger.Named("handle")}
}

// CanAdd reports whether a model with the given product count fits the
// identification encoding.
func (r *Registry) CanAdd(products int) error {
	if products > picking.MaxSlots {
		return fmt.Errorf("model has %d products, limit is %d: %w", products, picking.MaxSlots, errs.ErrInvalidArgument)
	}
	if len(r.order) >= picking.MaxModels {
		return fmt.Errorf("%d models already loaded: %w", len(r.order), errs.ErrInvalidArgument)
	}
	return nil
}

func (r *Registry) allocate() int {
	for i := 0; i < picking.MaxModels; i++ {
		id := (r.next-1+i)%picking.MaxModels + 1
		if r.arena[id] == nil {
			r.next = id%picking.MaxModels + 1
			return id
		}
	}
	return 0
}

// Add registers an uploaded model and fires a loaded event. The new handle
// is active and pickable with every product UNDEFINED, except spaces when
// HideSpaces is set.
func (r *Registry) Add(m *wexbim.Model, buf gpu.Buffers, tag any) (*Handle, error) {
	if err := r.CanAdd(len(m.Products)); err != nil {
		return nil, err
	}
	id := r.allocate()
	h := &Handle{
		ID:            id,
		Tag:           tag,
		Region:        m.Region,
		UnitsPerMeter: m.UnitsPerMeter,
		Table:         state.NewTable(m.Products),
		Buffers:       buf,
		Active:        true,
		Pickable:      true,
		products:      m.Products,
	}
	if r.HideSpaces {
		h.Table.ResetStates(true)
	}
	r.arena[id] = h
	r.order = append(r.order, id)

	r.log.Info("model added",
		zap.Int("model", id),
		zap.Int("products", len(m.Products)),
		zap.Int("vertices", m.VertexCount()))
	if r.bus != nil {
		r.bus.Fire(events.Loaded{ModelID: id, Tag: tag})
	}
	return h, nil
}

// Get returns the handle with the given ID.
func (r *Registry) Get(id int) (*Handle, error) {
	if id < 1 || id > picking.MaxModels || r.arena[id] == nil {
		return nil, fmt.Errorf("model %d: %w", id, errs.ErrNotFound)
	}
	return r.arena[id], nil
}

// Handles returns all handles in registration order.
func (r *Registry) Handles() []*Handle {
	out := make([]*Handle, len(r.order))
	for i, id := range r.order {
		out[i] = r.arena[id]
	}
	return out
}

// Len returns the number of loaded models.
func (r *Registry) Len() int { return len(r.order) }

// ForHandleOrAll applies fn to the handle modelID, or to every handle in
// registration order when modelID is All. The result is that of the last
// call; results of earlier handles are discarded.
func ForHandleOrAll[T any](r *Registry, modelID int, fn func(*Handle) T) (T, error) {
	var last T
	if modelID != All {
		h, err := r.Get(modelID)
		if err != nil {
			return last, err
		}
		return fn(h), nil
	}
	for _, h := range r.Handles() {
		last = fn(h)
	}
	return last, nil
}

// Each applies fn to modelID or every handle and stops at the first error.
func (r *Registry) Each(modelID int, fn func(*Handle) error) error {
	if modelID != All {
		h, err := r.Get(modelID)
		if err != nil {
			return err
		}
		return fn(h)
	}
	for _, h := range r.Handles() {
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

// Isolate hides every product of modelID except ids.
func (r *Registry) Isolate(ids []int32, modelID int) error {
	return r.Each(modelID, func(h *Handle) error {
		h.Table.Isolate(ids)
		return nil
	})
}

// Isolated returns the isolated products of a model.
func (r *Registry) Isolated(modelID int) ([]int32, error) {
	h, err := r.Get(modelID)
	if err != nil {
		return nil, err
	}
	return h.Table.Isolated(), nil
}

func (r *Registry) setActive(modelID int, on bool) error {
	return r.Each(modelID, func(h *Handle) error {
		h.Active = on
		return nil
	})
}

// Start activates modelID, or every model for All.
func (r *Registry) Start(modelID int) error { return r.setActive(modelID, true) }

// Stop deactivates modelID, or every model for All.
func (r *Registry) Stop(modelID int) error { return r.setActive(modelID, false) }

// StartAll activates every model.
func (r *Registry) StartAll() { r.setActive(All, true) }

// StopAll deactivates every model.
func (r *Registry) StopAll() { r.setActive(All, false) }

// AnyActive reports whether at least one model is active.
func (r *Registry) AnyActive() bool {
	for _, id := range r.order {
		if r.arena[id].Active {
			return true
		}
	}
	return false
}

func (r *Registry) setPickable(modelID int, on bool) error {
	return r.Each(modelID, func(h *Handle) error {
		h.Pickable = on
		return nil
	})
}

// StartPicking includes modelID in the identification pass.
func (r *Registry) StartPicking(modelID int) error { return r.setPickable(modelID, true) }

// StopPicking excludes modelID from the identification pass.
func (r *Registry) StopPicking(modelID int) error { return r.setPickable(modelID, false) }

// IsPickable reports whether modelID is loaded and pickable.
func (r *Registry) IsPickable(modelID int) bool {
	h, err := r.Get(modelID)
	return err == nil && h.Pickable
}

// IsModelOn reports whether modelID is loaded and active.
func (r *Registry) IsModelOn(modelID int) bool {
	h, err := r.Get(modelID)
	return err == nil && h.Active
}

// IsModelLoaded reports whether modelID is loaded.
func (r *Registry) IsModelLoaded(modelID int) bool {
	_, err := r.Get(modelID)
	return err == nil
}

// IsProductInModel reports whether productID belongs to modelID,
// regardless of its state.
func (r *Registry) IsProductInModel(productID int32, modelID int) bool {
	h, err := r.Get(modelID)
	return err == nil && h.Table.Has(productID)
}

// Resolve maps an identification (model, slot) pair to a product ID.
func (r *Registry) Resolve(modelID, slot int) (int32, bool) {
	h, err := r.Get(modelID)
	if err != nil {
		return 0, false
	}
	return h.Table.ProductID(slot)
}

// Unload releases the GPU buffers of modelID and forgets it.
func (r *Registry) Unload(modelID int) error {
	h, err := r.Get(modelID)
	if err != nil {
		return err
	}
	if h.Buffers != nil {
		h.Buffers.Release()
		h.Buffers = nil
	}
	r.arena[modelID] = nil
	r.order = slices.DeleteFunc(r.order, func(id int) bool { return id == modelID })

	r.log.Info("model unloaded", zap.Int("model", modelID))
	if r.bus != nil {
		r.bus.Fire(events.Unloaded{ModelID: modelID})
	}
	return nil
}

// BiggestHandle returns the active handle with the largest region.
func (r *Registry) BiggestHandle() *Handle {
	var best *Handle
	for _, h := range r.Handles() {
		if !h.Active || h.Region.IsEmpty() {
			continue
		}
		if best == nil || h.Region.Volume() > best.Region.Volume() {
			best = h
		}
	}
	return best
}

// MergedRegion returns the union of the active regions, or the largest
// active region when the regions do not all overlap.
func (r *Registry) MergedRegion() (wexbim.Region, bool) {
	var regions []wexbim.Region
	for _, h := range r.Handles() {
		if h.Active && !h.Region.IsEmpty() {
			regions = append(regions, h.Region)
		}
	}
	if len(regions) == 0 {
		return wexbim.EmptyRegion(), false
	}

	merged := regions[0]
	for i, a := range regions {
		for _, b := range regions[i+1:] {
			if !a.Overlaps(b) {
				return r.BiggestHandle().Region, true
			}
		}
		merged = merged.Union(a)
	}
	return merged, true
}

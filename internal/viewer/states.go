package viewer

import (
	"fmt"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// DefineStyle sets palette entry index to an RGBA colour given as four
// bytes. Alpha below 255 makes products with the style translucent.
func (v *Viewer) DefineStyle(index int, rgba []int) error {
	return v.palette.Define(index, rgba)
}

// SetState applies s to the products selected by target in modelID, or in
// every model for handle.All. Products missing from a model are skipped.
func (v *Viewer) SetState(s state.State, target state.Target, modelID int) error {
	return v.reg.Each(modelID, func(h *handle.Handle) error {
		return h.Table.SetState(s, target)
	})
}

// SetStyle overrides the colour of the selected products with a defined
// palette entry. state.Unstyled removes the override.
func (v *Viewer) SetStyle(style uint8, target state.Target, modelID int) error {
	if style != uint8(state.Unstyled) && style != state.NoStyle && !v.palette.Defined(int(style)) {
		return fmt.Errorf("style %d is not defined: %w", style, errs.ErrInvalidArgument)
	}
	return v.reg.Each(modelID, func(h *handle.Handle) error {
		return h.Table.SetStyle(style, target)
	})
}

// owner returns the table holding productID. For handle.All the most
// recently loaded model containing the product wins.
func (v *Viewer) owner(productID int32, modelID int) *state.Table {
	if modelID != handle.All {
		h, err := v.reg.Get(modelID)
		if err != nil || !h.Table.Has(productID) {
			return nil
		}
		return h.Table
	}
	hs := v.reg.Handles()
	for i := len(hs) - 1; i >= 0; i-- {
		if hs[i].Table.Has(productID) {
			return hs[i].Table
		}
	}
	return nil
}

// State returns the state of a product, or state.Undefined (0xFF) when it
// is unknown.
func (v *Viewer) State(productID int32, modelID int) state.State {
	if t := v.owner(productID, modelID); t != nil {
		return t.State(productID)
	}
	return state.State(state.Default)
}

// Style returns the style of a product, state.NoStyle when it has no
// override, or 0xFF when it is unknown.
func (v *Viewer) Style(productID int32, modelID int) uint8 {
	if t := v.owner(productID, modelID); t != nil {
		return t.Style(productID)
	}
	return state.Default
}

// ProductType returns the type of a product.
func (v *Viewer) ProductType(productID int32, modelID int) (wexbim.ProductType, bool) {
	if t := v.owner(productID, modelID); t != nil {
		return t.ProductType(productID)
	}
	return 0, false
}

// ResetStyles removes every style override.
func (v *Viewer) ResetStyles(modelID int) error {
	return v.reg.Each(modelID, func(h *handle.Handle) error {
		h.Table.ResetStyles()
		return nil
	})
}

// ResetStates makes every product UNDEFINED again. With hideSpaces the
// spaces go back to HIDDEN.
func (v *Viewer) ResetStates(hideSpaces bool, modelID int) error {
	return v.reg.Each(modelID, func(h *handle.Handle) error {
		h.Table.ResetStates(hideSpaces)
		return nil
	})
}

// ModelState captures the states and styles of one model.
func (v *Viewer) ModelState(modelID int) (state.Snapshot, error) {
	h, err := v.reg.Get(modelID)
	if err != nil {
		return state.Snapshot{}, err
	}
	return h.Table.Snapshot(), nil
}

// RestoreModelState applies a snapshot taken with ModelState.
func (v *Viewer) RestoreModelState(modelID int, snap state.Snapshot) error {
	h, err := v.reg.Get(modelID)
	if err != nil {
		return err
	}
	return h.Table.Restore(snap)
}

// MergeModelState applies the entries of a snapshot to the products the
// model has, ignoring the rest, and returns how many products changed.
func (v *Viewer) MergeModelState(modelID int, snap state.Snapshot) (int, error) {
	h, err := v.reg.Get(modelID)
	if err != nil {
		return 0, err
	}
	return h.Table.Merge(snap), nil
}

// Isolate hides every product except ids.
func (v *Viewer) Isolate(ids []int32, modelID int) error {
	return v.reg.Isolate(ids, modelID)
}

// Isolated returns the products isolated in a model that are still
// visible.
func (v *Viewer) Isolated(modelID int) ([]int32, error) {
	return v.reg.Isolated(modelID)
}

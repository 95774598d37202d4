package state

import (
	"fmt"
	"slices"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// Table is the per-model state/style store. Slots follow the product order
// of the decoded model, which is also the order the identification pass
// encodes.
type Table struct {
	ids      []int32
	types    []wexbim.ProductType
	index    map[int32]int
	entries  []uint16
	isolated []int32
	hidden   int
	version  uint64
}

// NewTable creates a table with every product UNDEFINED and unstyled.
func NewTable(products []wexbim.Product) *Table {
	t := &Table{
		ids:     make([]int32, len(products)),
		types:   make([]wexbim.ProductType, len(products)),
		index:   make(map[int32]int, len(products)),
		entries: make([]uint16, len(products)),
	}
	for i, p := range products {
		t.ids[i] = p.ID
		t.types[i] = p.Type
		t.index[p.ID] = i
		t.entries[i] = pack(Undefined, NoStyle)
	}
	return t
}

func pack(s State, style uint8) uint16 {
	return uint16(s)<<8 | uint16(style)
}

func unpack(e uint16) (State, uint8) {
	return State(e >> 8), uint8(e)
}

// Len returns the number of products.
func (t *Table) Len() int { return len(t.ids) }

// Has reports whether id is a product of this model.
func (t *Table) Has(id int32) bool {
	_, ok := t.index[id]
	return ok
}

// Slot returns the table slot of product id.
func (t *Table) Slot(id int32) (int, bool) {
	slot, ok := t.index[id]
	return slot, ok
}

// ProductID returns the product stored at slot.
func (t *Table) ProductID(slot int) (int32, bool) {
	if slot < 0 || slot >= len(t.ids) {
		return 0, false
	}
	return t.ids[slot], true
}

// ProductIDs returns all product IDs in slot order.
func (t *Table) ProductIDs() []int32 {
	return slices.Clone(t.ids)
}

// ProductType returns the type of product id, or wexbim.TypeUnknown.
func (t *Table) ProductType(id int32) (wexbim.ProductType, bool) {
	slot, ok := t.index[id]
	if !ok {
		return wexbim.TypeUnknown, false
	}
	return t.types[slot], true
}

// Version increases on every mutation.
func (t *Table) Version() uint64 { return t.version }

// HiddenCount returns the number of HIDDEN products.
func (t *Table) HiddenCount() int { return t.hidden }

// AllHidden reports whether no product is visible.
func (t *Table) AllHidden() bool { return t.hidden == len(t.ids) }

// Entries returns the packed state/style entries in slot order. The slice
// is shared and must not be modified.
func (t *Table) Entries() []uint16 { return t.entries }

func (t *Table) put(slot int, s State, style uint8) {
	old, _ := unpack(t.entries[slot])
	if old == Hidden && s != Hidden {
		t.hidden--
	} else if old != Hidden && s == Hidden {
		t.hidden++
	}
	t.entries[slot] = pack(s, style)
}

// SetState applies s to every product selected by target.
func (t *Table) SetState(s State, target Target) error {
	if !s.Valid() {
		return fmt.Errorf("state %s: %w", s, errs.ErrInvalidArgument)
	}
	target.each(t, func(slot int) {
		_, style := unpack(t.entries[slot])
		t.put(slot, s, style)
	})
	t.version++
	return nil
}

// State returns the state of product id, or Undefined when the product is
// not part of the model. Undefined is also the all-bits-set sentinel.
func (t *Table) State(id int32) State {
	slot, ok := t.index[id]
	if !ok {
		return State(Default)
	}
	s, _ := unpack(t.entries[slot])
	return s
}

// SetStyle applies a style index to every product selected by target.
// Passing Unstyled clears the override.
func (t *Table) SetStyle(style uint8, target Target) error {
	switch {
	case style == uint8(Unstyled):
		style = NoStyle
	case style == NoStyle:
	case int(style) >= MaxStyles:
		return fmt.Errorf("style index %d: %w", style, errs.ErrInvalidArgument)
	}
	target.each(t, func(slot int) {
		s, _ := unpack(t.entries[slot])
		t.entries[slot] = pack(s, style)
	})
	t.version++
	return nil
}

// Style returns the style index of product id, NoStyle when there is no
// override, or Default when the product is unknown.
func (t *Table) Style(id int32) uint8 {
	slot, ok := t.index[id]
	if !ok {
		return Default
	}
	_, style := unpack(t.entries[slot])
	return style
}

// ResetStyles clears every style override. States are untouched.
func (t *Table) ResetStyles() {
	for slot, e := range t.entries {
		s, _ := unpack(e)
		t.entries[slot] = pack(s, NoStyle)
	}
	t.version++
}

// ResetStates sets every product UNDEFINED, or HIDDEN for spaces when
// hideSpaces is set. Styles are untouched.
func (t *Table) ResetStates(hideSpaces bool) {
	for slot, e := range t.entries {
		_, style := unpack(e)
		s := Undefined
		if hideSpaces && t.types[slot] == wexbim.TypeSpace {
			s = Hidden
		}
		t.put(slot, s, style)
	}
	t.isolated = nil
	t.version++
}

// Isolate hides every product except ids. Unknown IDs are ignored.
func (t *Table) Isolate(ids []int32) {
	keep := make(map[int]bool, len(ids))
	t.isolated = t.isolated[:0]
	for _, id := range ids {
		if slot, ok := t.index[id]; ok && !keep[slot] {
			keep[slot] = true
			t.isolated = append(t.isolated, id)
		}
	}
	for slot, e := range t.entries {
		s, style := unpack(e)
		switch {
		case !keep[slot]:
			s = Hidden
		case s == Hidden:
			s = Undefined
		}
		t.put(slot, s, style)
	}
	t.version++
}

// Isolated returns the IDs passed to the last Isolate that are still not
// hidden, in ascending order. It is empty when nothing is isolated.
func (t *Table) Isolated() []int32 {
	out := make([]int32, 0, len(t.isolated))
	for _, id := range t.isolated {
		if t.State(id) != Hidden {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

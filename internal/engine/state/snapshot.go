package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// Entry is one (selector, state, style) tuple of a snapshot.
type Entry struct {
	Target Target
	State  State
	Style  uint8
}

// Snapshot is the serialised state/style map of one model. Products is
// the product count of the table it was taken from and is checked on
// restore.
type Snapshot struct {
	Products int
	Entries  []Entry
}

// Snapshot groups products by distinct (state, style) pair in slot order.
func (t *Table) Snapshot() Snapshot {
	groups := make(map[uint16]int)
	var ids [][]int32
	var keys []uint16
	for slot, e := range t.entries {
		g, ok := groups[e]
		if !ok {
			g = len(keys)
			groups[e] = g
			keys = append(keys, e)
			ids = append(ids, nil)
		}
		ids[g] = append(ids[g], t.ids[slot])
	}

	snap := Snapshot{Products: len(t.ids), Entries: make([]Entry, len(keys))}
	for g, key := range keys {
		s, style := unpack(key)
		var target Target = IDs(ids[g])
		if len(ids[g]) == 1 {
			target = ID(ids[g][0])
		}
		snap.Entries[g] = Entry{Target: target, State: s, Style: style}
	}
	return snap
}

// Restore applies a snapshot. It fails without modifying the table when
// the snapshot was taken from a table of a different size or names a
// product this table does not have.
func (t *Table) Restore(snap Snapshot) error {
	if snap.Products != len(t.ids) {
		return fmt.Errorf("snapshot of %d products restored into %d: %w", snap.Products, len(t.ids), errs.ErrInvalidArgument)
	}
	for i, e := range snap.Entries {
		if !e.State.Valid() {
			return fmt.Errorf("snapshot entry %d: state %s: %w", i, e.State, errs.ErrInvalidArgument)
		}
		if e.Style != NoStyle && int(e.Style) >= MaxStyles {
			return fmt.Errorf("snapshot entry %d: style %d: %w", i, e.Style, errs.ErrInvalidArgument)
		}
		switch target := e.Target.(type) {
		case ID:
			if !t.Has(int32(target)) {
				return fmt.Errorf("snapshot entry %d: product %d: %w", i, target, errs.ErrInvalidArgument)
			}
		case IDs:
			for _, id := range target {
				if !t.Has(id) {
					return fmt.Errorf("snapshot entry %d: product %d: %w", i, id, errs.ErrInvalidArgument)
				}
			}
		case Type:
		default:
			return fmt.Errorf("snapshot entry %d: unknown selector %T: %w", i, e.Target, errs.ErrInvalidArgument)
		}
	}

	for _, e := range snap.Entries {
		e.Target.each(t, func(slot int) {
			t.put(slot, e.State, e.Style)
		})
	}
	t.isolated = nil
	t.version++
	return nil
}

// Merge applies the entries of snap to the products this table has and
// skips the others, so states survive a model that gained or lost
// products. Malformed entries are skipped. It returns the number of
// products updated.
func (t *Table) Merge(snap Snapshot) int {
	n := 0
	for _, e := range snap.Entries {
		if !e.State.Valid() || (e.Style != NoStyle && int(e.Style) >= MaxStyles) || e.Target == nil {
			continue
		}
		e.Target.each(t, func(slot int) {
			t.put(slot, e.State, e.Style)
			n++
		})
	}
	if n > 0 {
		t.isolated = nil
		t.version++
	}
	return n
}

const snapshotFormat uint8 = 1

const (
	selectorID uint8 = iota + 1
	selectorIDs
	selectorType
)

// ErrBadSnapshot reports a malformed binary snapshot.
var ErrBadSnapshot = errors.New("malformed snapshot")

// MarshalBinary encodes the snapshot as little-endian records:
// format, product count, entry count, then per entry the selector kind,
// state, style and selector payload.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	var werr error
	w := func(v any) {
		if werr == nil {
			werr = binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	w(snapshotFormat)
	w(uint32(s.Products))
	w(uint32(len(s.Entries)))
	for _, e := range s.Entries {
		switch target := e.Target.(type) {
		case ID:
			w([3]uint8{selectorID, uint8(e.State), e.Style})
			w(int32(target))
		case IDs:
			w([3]uint8{selectorIDs, uint8(e.State), e.Style})
			w(uint32(len(target)))
			w([]int32(target))
		case Type:
			w([3]uint8{selectorType, uint8(e.State), e.Style})
			w(uint16(target))
		default:
			return nil, fmt.Errorf("unknown selector %T: %w", e.Target, errs.ErrInvalidArgument)
		}
	}
	if werr != nil {
		return nil, fmt.Errorf("encode snapshot: %w", werr)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data written by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	read := func(v any) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: truncated", ErrBadSnapshot)
			}
			return err
		}
		return nil
	}

	var format uint8
	if err := read(&format); err != nil {
		return err
	}
	if format != snapshotFormat {
		return fmt.Errorf("%w: format %d", ErrBadSnapshot, format)
	}
	var products, count uint32
	if err := read(&products); err != nil {
		return err
	}
	if err := read(&count); err != nil {
		return err
	}
	// Each entry takes at least 5 bytes.
	if int64(count)*5 > int64(r.Len()) {
		return fmt.Errorf("%w: %d entries in %d bytes", ErrBadSnapshot, count, r.Len())
	}

	out := Snapshot{Products: int(products), Entries: make([]Entry, 0, count)}
	for i := uint32(0); i < count; i++ {
		var head [3]uint8
		if err := read(&head); err != nil {
			return err
		}
		e := Entry{State: State(head[1]), Style: head[2]}
		switch head[0] {
		case selectorID:
			var id int32
			if err := read(&id); err != nil {
				return err
			}
			e.Target = ID(id)
		case selectorIDs:
			var n uint32
			if err := read(&n); err != nil {
				return err
			}
			if int64(n)*4 > int64(r.Len()) {
				return fmt.Errorf("%w: truncated id list", ErrBadSnapshot)
			}
			ids := make([]int32, n)
			if err := read(ids); err != nil {
				return err
			}
			e.Target = IDs(ids)
		case selectorType:
			var typ uint16
			if err := read(&typ); err != nil {
				return err
			}
			e.Target = Type(wexbim.ProductType(typ))
		default:
			return fmt.Errorf("%w: selector kind %d", ErrBadSnapshot, head[0])
		}
		out.Entries = append(out.Entries, e)
	}
	*s = out
	return nil
}

// Package state holds per-product visibility/highlight state and style
// overrides for a loaded model, plus the viewer-wide style palette.
//
// Each product occupies one packed uint16 entry (state in the high byte,
// style index in the low byte) so a whole table can be uploaded to the GPU
// as a two-channel texture without conversion.
package state

import (
	"fmt"

	"github.com/Faultbox/xviewer/internal/engine/errs"
)

// State is the visibility/highlight classification of a product.
type State uint8

// Product states. Values match the byte stored in the state texture and
// are read by the shaders.
const (
	Undefined   State = 0xFF
	Hidden      State = 0xFE
	Highlighted State = 0xFD
	XRayVisible State = 0xFC
	Unstyled    State = 0xE1
)

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	switch s {
	case Undefined, Hidden, Highlighted, XRayVisible, Unstyled:
		return true
	}
	return false
}

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Undefined:
		return "UNDEFINED"
	case Hidden:
		return "HIDDEN"
	case Highlighted:
		return "HIGHLIGHTED"
	case XRayVisible:
		return "XRAYVISIBLE"
	case Unstyled:
		return "UNSTYLED"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

const (
	// MaxStyles is the number of user-definable styles.
	MaxStyles = 224

	// NoStyle marks a product without a style override.
	NoStyle uint8 = 0xFF

	// Default is returned by read paths for unknown products.
	Default uint8 = 0xFF

	// PaletteTexels is the width of the palette texture in RGBA texels.
	PaletteTexels = 256
)

// Palette is the viewer-wide table of style colours.
type Palette struct {
	colors  [MaxStyles][4]uint8
	defined [MaxStyles]bool
	version uint64
}

// Define registers or overwrites the style at index.
func (p *Palette) Define(index int, rgba []int) error {
	if index < 0 || index >= MaxStyles {
		return fmt.Errorf("style index %d out of range [0,%d): %w", index, MaxStyles, errs.ErrInvalidArgument)
	}
	if len(rgba) != 4 {
		return fmt.Errorf("style colour must have 4 components, got %d: %w", len(rgba), errs.ErrInvalidArgument)
	}
	var c [4]uint8
	for i, v := range rgba {
		if v < 0 || v > 255 {
			return fmt.Errorf("style colour component %d = %d outside [0,255]: %w", i, v, errs.ErrInvalidArgument)
		}
		c[i] = uint8(v)
	}
	p.colors[index] = c
	p.defined[index] = true
	p.version++
	return nil
}

// Color returns the colour at index and whether it has been defined.
func (p *Palette) Color(index int) ([4]uint8, bool) {
	if index < 0 || index >= MaxStyles {
		return [4]uint8{}, false
	}
	return p.colors[index], p.defined[index]
}

// Defined reports whether index holds a registered style.
func (p *Palette) Defined(index int) bool {
	_, ok := p.Color(index)
	return ok
}

// Version increases every time the palette changes.
func (p *Palette) Version() uint64 {
	return p.version
}

// Texels returns the palette as PaletteTexels RGBA texels. Entries past
// MaxStyles are transparent.
func (p *Palette) Texels() []uint8 {
	out := make([]uint8, PaletteTexels*4)
	for i := 0; i < MaxStyles; i++ {
		copy(out[i*4:], p.colors[i][:])
	}
	return out
}

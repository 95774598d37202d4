// Package picking resolves screen positions to products through the
// identification pass.
//
// Every product is drawn in a 32-bit colour: the model ID in the alpha
// byte and slot+1 in the 24 RGB bits. Zero is the cleared background.
// Values whose model byte is zero but whose low bits are not belong to
// plugins (see Reserved).
package picking

import "fmt"

const (
	// MaxModels is the number of models the encoding can address.
	MaxModels = 255
	// MaxSlots is the number of products per model the encoding can address.
	MaxSlots = 1<<24 - 2

	slotMask = 1<<24 - 1
)

// ID is a decoded identification-pass value.
type ID uint32

// Background is the value of pixels no product covers.
const Background ID = 0

// Encode returns the identification value of a product slot.
func Encode(modelID, slot int) (ID, error) {
	if modelID < 1 || modelID > MaxModels {
		return 0, fmt.Errorf("model id %d outside [1,%d]", modelID, MaxModels)
	}
	if slot < 0 || slot >= MaxSlots {
		return 0, fmt.Errorf("product slot %d outside [0,%d)", slot, MaxSlots)
	}
	return ID(uint32(modelID)<<24 | uint32(slot+1)), nil
}

// Reserved returns a plugin-owned ID. n must be in [1, 2^24-1].
func Reserved(n uint32) ID {
	return ID(n & slotMask)
}

// FromRGBA assembles an ID from a read-back pixel.
func FromRGBA(c [4]uint8) ID {
	return ID(uint32(c[3])<<24 | uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2]))
}

// RGBA returns the pixel an ID is rendered as.
func (id ID) RGBA() [4]uint8 {
	return [4]uint8{uint8(id >> 16), uint8(id >> 8), uint8(id), uint8(id >> 24)}
}

// Model returns the model byte.
func (id ID) Model() int { return int(id >> 24) }

// Slot returns the product slot, or false for background and reserved IDs.
func (id ID) Slot() (int, bool) {
	if id.Model() == 0 || id&slotMask == 0 {
		return 0, false
	}
	return int(id&slotMask) - 1, true
}

// IsReserved reports whether id lies in the plugin range.
func (id ID) IsReserved() bool {
	return id.Model() == 0 && id != Background
}

func (id ID) String() string {
	switch {
	case id == Background:
		return "background"
	case id.IsReserved():
		return fmt.Sprintf("reserved(%d)", uint32(id))
	default:
		slot, _ := id.Slot()
		return fmt.Sprintf("model %d slot %d", id.Model(), slot)
	}
}

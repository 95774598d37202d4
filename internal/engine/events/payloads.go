package events

import "fmt"

// ProductRef is the global key of a product.
type ProductRef struct {
	ProductID int32
	ModelID   int
}

func (r ProductRef) String() string {
	return fmt.Sprintf("%d@%d", r.ProductID, r.ModelID)
}

// Loaded fires once a model has been uploaded.
type Loaded struct {
	ModelID int
	Tag     any
}

func (Loaded) EventName() Name { return NameLoaded }

// Unloaded fires after a model's GPU resources were released.
type Unloaded struct {
	ModelID int
}

func (Unloaded) EventName() Name { return NameUnloaded }

// Pick fires after a click was resolved. Hit is nil for background or
// plugin-owned pixels.
type Pick struct {
	Hit     *ProductRef
	Pointer Pointer
}

func (Pick) EventName() Name { return NamePick }

// ContextMenu fires on a secondary-button click.
type ContextMenu struct {
	Hit     *ProductRef
	Pointer Pointer
}

func (ContextMenu) EventName() Name { return NameContextMenu }

// Frame fires after every drawn frame.
type Frame struct{}

func (Frame) EventName() Name { return NameFrame }

// Error reports a failure that has no caller to return to, such as an
// asynchronous load.
type Error struct {
	Err error
	Tag any
}

func (Error) EventName() Name { return NameError }

// Button is a pointer button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// PointerKind distinguishes pointer event phases.
type PointerKind uint8

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
	PointerWheel
)

// Pointer is a mouse event in window coordinates, origin top-left.
// DX and DY hold motion since the previous event; Wheel holds scroll
// steps, positive away from the user.
type Pointer struct {
	Kind   PointerKind
	X, Y   int
	DX, DY int
	Button Button
	Wheel  float32
}

func (p Pointer) EventName() Name {
	switch p.Kind {
	case PointerDown:
		return NameMouseDown
	case PointerUp:
		return NameMouseUp
	case PointerWheel:
		return NameWheel
	default:
		return NameMouseMove
	}
}

// Package input turns SDL2 events into viewer pointer events and key
// presses.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/xviewer/internal/engine/events"
)

// EventType classifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventPointer
)

// Event represents a processed input event. Pointer is set for
// EventPointer, in drawable pixels.
type Event struct {
	Type    EventType
	Key     sdl.Scancode
	Width   int
	Height  int
	Pointer events.Pointer
}

// Input handles all input processing.
type Input struct {
	events []Event
	scale  float32
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		scale:  1,
	}
}

// SetScale sets the drawable pixels per window coordinate applied to
// pointer positions.
func (i *Input) SetScale(s float32) {
	if s > 0 {
		i.scale = s
	}
}

// Update polls SDL events and converts them.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		e, ok := Translate(event, i.scale)
		if !ok {
			continue
		}
		i.events = append(i.events, e)
		if e.Type == EventQuit {
			quit = true
		}
	}
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed since the last Update.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

func button(b uint8) events.Button {
	switch b {
	case sdl.BUTTON_LEFT:
		return events.ButtonLeft
	case sdl.BUTTON_MIDDLE:
		return events.ButtonMiddle
	case sdl.BUTTON_RIGHT:
		return events.ButtonRight
	}
	return events.ButtonNone
}

func heldButton(state uint32) events.Button {
	switch {
	case state&sdl.ButtonLMask() != 0:
		return events.ButtonLeft
	case state&sdl.ButtonRMask() != 0:
		return events.ButtonRight
	case state&sdl.ButtonMMask() != 0:
		return events.ButtonMiddle
	}
	return events.ButtonNone
}

// Translate converts one SDL event. scale maps window coordinates to
// drawable pixels. Events the viewer does not use report false.
func Translate(event sdl.Event, scale float32) (Event, bool) {
	px := func(v int32) int { return int(float32(v) * scale) }

	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		t := EventKeyUp
		if e.Type == sdl.KEYDOWN {
			t = EventKeyDown
		}
		return Event{Type: t, Key: e.Keysym.Scancode}, true

	case *sdl.MouseMotionEvent:
		return Event{Type: EventPointer, Pointer: events.Pointer{
			Kind:   events.PointerMove,
			X:      px(e.X),
			Y:      px(e.Y),
			DX:     px(e.XRel),
			DY:     px(e.YRel),
			Button: heldButton(e.State),
		}}, true

	case *sdl.MouseButtonEvent:
		kind := events.PointerUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			kind = events.PointerDown
		}
		return Event{Type: EventPointer, Pointer: events.Pointer{
			Kind:   kind,
			X:      px(e.X),
			Y:      px(e.Y),
			Button: button(e.Button),
		}}, true

	case *sdl.MouseWheelEvent:
		steps := float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			steps = -steps
		}
		x, y, _ := sdl.GetMouseState()
		return Event{Type: EventPointer, Pointer: events.Pointer{
			Kind:  events.PointerWheel,
			X:     px(x),
			Y:     px(y),
			Wheel: steps,
		}}, true
	}
	return Event{}, false
}

package viewer

import "github.com/Faultbox/xviewer/internal/engine/events"

// ClickTolerance is how far in pixels the pointer may travel between
// press and release for the gesture to count as a click.
const ClickTolerance = 4

type drag struct {
	button   events.Button
	moved    int
	dragging bool
}

// Draw renders one frame to the default surface regardless of the loop
// state.
func (v *Viewer) Draw() error {
	return v.pipe.Draw(nil)
}

// Tick uploads models decoded in the background and draws a frame if the
// loop is running. It reports whether a frame was drawn.
func (v *Viewer) Tick() (bool, error) {
	v.Pump()
	return v.pipe.Tick()
}

// GetID returns the product at (x, y), origin bottom-left, or nil.
func (v *Viewer) GetID(x, y int) (*events.ProductRef, error) {
	return v.pick.GetID(x, y)
}

// IDsFromEvent returns the product under a pointer event, or nil.
func (v *Viewer) IDsFromEvent(p events.Pointer) (*events.ProductRef, error) {
	return v.pick.IDsFromEvent(p)
}

// Pick resolves the product under p and fires a pick event.
func (v *Viewer) Pick(p events.Pointer) (*events.ProductRef, error) {
	return v.pick.Pick(p)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// HandlePointer feeds a pointer event through the viewer: the event is
// fired on the bus, drags navigate the camera, the wheel zooms, a primary
// click picks and a secondary click fires contextMenu.
func (v *Viewer) HandlePointer(p events.Pointer) error {
	v.bus.Fire(p)

	switch p.Kind {
	case events.PointerDown:
		v.drag = drag{button: p.Button}

	case events.PointerMove:
		if v.drag.button == events.ButtonNone {
			return nil
		}
		v.drag.moved += abs(p.DX) + abs(p.DY)
		if v.drag.moved > ClickTolerance {
			v.drag.dragging = true
		}
		if v.drag.dragging {
			v.cam.Navigate(v.cam.ButtonNavigation(v.drag.button), float32(p.DX), float32(p.DY))
		}

	case events.PointerUp:
		d := v.drag
		v.drag = drag{}
		if d.dragging || d.button != p.Button {
			return nil
		}
		return v.click(p)

	case events.PointerWheel:
		v.cam.Wheel(p.Wheel)
	}
	return nil
}

func (v *Viewer) click(p events.Pointer) error {
	switch p.Button {
	case events.ButtonLeft:
		if !v.ClickPicking {
			return nil
		}
		_, err := v.pick.Pick(p)
		return err
	case events.ButtonRight:
		hit, err := v.pick.IDsFromEvent(p)
		if err != nil {
			return err
		}
		v.bus.Fire(events.ContextMenu{Hit: hit, Pointer: p})
	}
	return nil
}

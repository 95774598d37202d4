package camera

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/internal/engine/events"
)

// Navigation is a navigation kind, also used as the navigation mode that
// decides what the primary pointer button does.
type Navigation uint8

const (
	NavOrbit Navigation = iota
	NavFreeOrbit
	NavPan
	NavZoom
	NavNone
)

var navNames = [...]string{"orbit", "free-orbit", "pan", "zoom", "none"}

func (n Navigation) String() string {
	if int(n) < len(navNames) {
		return navNames[n]
	}
	return fmt.Sprintf("Navigation(%d)", uint8(n))
}

// ParseNavigation converts a name as written by String.
func ParseNavigation(s string) (Navigation, error) {
	for i, name := range navNames {
		if strings.EqualFold(s, name) {
			return Navigation(i), nil
		}
	}
	return NavNone, fmt.Errorf("unknown navigation %q", s)
}

// ButtonNavigation maps a pointer button to the navigation it performs
// under the current mode. Mode NavNone disables every button.
func (c *Camera) ButtonNavigation(b events.Button) Navigation {
	if c.Mode == NavNone {
		return NavNone
	}
	switch b {
	case events.ButtonLeft:
		return c.Mode
	case events.ButtonRight, events.ButtonMiddle:
		return NavPan
	}
	return NavNone
}

// Navigate applies a pointer delta in pixels.
func (c *Camera) Navigate(kind Navigation, dx, dy float32) {
	switch kind {
	case NavPan:
		c.pan(dx, dy)
	case NavZoom:
		c.zoom(dy)
	case NavOrbit:
		c.orbit(-dx*c.OrbitSpeed, -dy*c.OrbitSpeed)
	case NavFreeOrbit:
		c.freeOrbit(-dx*c.OrbitSpeed, -dy*c.OrbitSpeed)
	}
}

// Wheel zooms by wheel steps unless navigation is disabled.
func (c *Camera) Wheel(steps float32) {
	if c.Mode == NavNone {
		return
	}
	c.zoom(steps)
}

// pan moves eye and pivot together in the view plane.
func (c *Camera) pan(dx, dy float32) {
	dir := c.Direction()
	right := dir.Cross(c.up).Normalize()
	up := right.Cross(dir)
	step := c.Distance() * c.PanSpeed
	delta := right.Mul(-dx * step).Add(up.Mul(dy * step))
	c.eye = c.eye.Add(delta)
	c.origin = c.origin.Add(delta)
}

// zoom moves the eye along the view direction by a fraction of the
// distance. Positive steps move closer; the eye never passes the pivot.
func (c *Camera) zoom(steps float32) {
	dist := c.Distance()
	next := dist * (1 - steps*c.ZoomSpeed)
	next = math32.Max(next, dist*0.05)
	if next < 1e-4 {
		next = 1e-4
	}
	c.eye = c.origin.Sub(c.Direction().Mul(next))

	if dist > 0 {
		r := next / dist
		o := &c.Orthogonal
		o.Left, o.Right, o.Top, o.Bottom = o.Left*r, o.Right*r, o.Top*r, o.Bottom*r
	}
}

// orbit rotates the eye around the pivot keeping world Z up: yaw turns
// about Z, pitch about the camera right axis and stops short of the poles.
func (c *Camera) orbit(yaw, pitch float32) {
	offset := c.eye.Sub(c.origin)
	offset = mgl32.QuatRotate(yaw, worldUp).Rotate(offset)

	right := offset.Mul(-1).Cross(worldUp)
	if right.Len() > 1e-6 {
		pitched := mgl32.QuatRotate(pitch, right.Normalize()).Rotate(offset)
		if n := pitched.Normalize(); math32.Abs(n.Dot(worldUp)) < 0.998 {
			offset = pitched
		}
	}
	c.eye = c.origin.Add(offset)
	c.up = worldUp
	c.fixUp()
}

// freeOrbit rotates around the camera's own axes, carrying the up vector.
func (c *Camera) freeOrbit(yaw, pitch float32) {
	offset := c.eye.Sub(c.origin)
	dir := offset.Mul(-1).Normalize()
	right := dir.Cross(c.up).Normalize()

	q := mgl32.QuatRotate(pitch, right).Mul(mgl32.QuatRotate(yaw, c.up))
	c.eye = c.origin.Add(q.Rotate(offset))
	c.up = q.Rotate(c.up).Normalize()
	c.fixUp()
}

// View is a canonical camera placement.
type View uint8

const (
	ViewDefault View = iota
	ViewTop
	ViewBottom
	ViewFront
	ViewBack
	ViewLeft
	ViewRight
)

var viewNames = [...]string{"default", "top", "bottom", "front", "back", "left", "right"}

func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("View(%d)", uint8(v))
}

// ParseView converts a name as written by String.
func ParseView(s string) (View, error) {
	for i, name := range viewNames {
		if strings.EqualFold(s, name) {
			return View(i), nil
		}
	}
	return ViewDefault, fmt.Errorf("unknown view %q", s)
}

// defaultDirection points from the pivot to the eye in the default view:
// front-left and above.
var defaultDirection = mgl32.Vec3{-1, -1, 1}.Normalize()

// Show places the eye on the given side of the pivot at the current
// distance.
func (c *Camera) Show(v View) {
	dist := c.Distance()
	if dist == 0 {
		dist = 1
	}
	dir, up := defaultDirection, worldUp
	switch v {
	case ViewTop:
		dir, up = mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}
	case ViewBottom:
		dir, up = mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}
	case ViewFront:
		dir = mgl32.Vec3{0, -1, 0}
	case ViewBack:
		dir = mgl32.Vec3{0, 1, 0}
	case ViewLeft:
		dir = mgl32.Vec3{-1, 0, 0}
	case ViewRight:
		dir = mgl32.Vec3{1, 0, 0}
	}
	c.eye = c.origin.Add(dir.Mul(dist))
	c.up = up
	c.fixUp()
}

// Package clipping holds the two global clipping planes. A plane is
// [a b c d]; a point p is clipped away when a*px + b*py + c*pz + d > 0, so
// the normal points into the removed half-space. With both planes set a
// point must survive both.
package clipping

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/internal/engine/errs"
)

// Plane is a plane equation.
type Plane = mgl32.Vec4

// FromPointNormal builds the plane through point that hides the side
// normal points to.
func FromPointNormal(point, normal mgl32.Vec3) (Plane, error) {
	if normal.Len() == 0 {
		return Plane{}, fmt.Errorf("zero clipping normal: %w", errs.ErrInvalidArgument)
	}
	return Plane{normal[0], normal[1], normal[2], -normal.Dot(point)}, nil
}

// Planes are the two clipping slots. The zero value clips nothing.
type Planes struct {
	a, b     Plane
	aOn, bOn bool
	version  uint64
}

// Set is a snapshot of the installed planes. Nil means the slot is empty.
type Set struct {
	A, B *Plane
}

// Clip installs the plane through point with the given normal in slot A.
func (p *Planes) Clip(point, normal mgl32.Vec3) error {
	pl, err := FromPointNormal(point, normal)
	if err != nil {
		return err
	}
	p.SetA(pl)
	return nil
}

// SetA installs a raw plane in slot A.
func (p *Planes) SetA(pl Plane) {
	p.a, p.aOn = pl, true
	p.version++
}

// SetB installs a raw plane in slot B.
func (p *Planes) SetB(pl Plane) {
	p.b, p.bOn = pl, true
	p.version++
}

// Unclip clears both slots.
func (p *Planes) Unclip() {
	p.a, p.b = Plane{}, Plane{}
	p.aOn, p.bOn = false, false
	p.version++
}

// Get returns copies of the installed planes.
func (p *Planes) Get() Set {
	var s Set
	if p.aOn {
		a := p.a
		s.A = &a
	}
	if p.bOn {
		b := p.b
		s.B = &b
	}
	return s
}

// Active reports whether any plane is installed.
func (p *Planes) Active() bool { return p.aOn || p.bOn }

// Uniforms returns both planes and their enabled flags in shader form.
func (p *Planes) Uniforms() (a, b Plane, aOn, bOn bool) {
	return p.a, p.b, p.aOn, p.bOn
}

// Version increases on every change.
func (p *Planes) Version() uint64 { return p.version }

// Discards reports whether point is clipped away. The shaders run the
// same test per fragment in both passes.
func (p *Planes) Discards(point mgl32.Vec3) bool {
	if p.aOn && hidden(p.a, point) {
		return true
	}
	return p.bOn && hidden(p.b, point)
}

func hidden(pl Plane, point mgl32.Vec3) bool {
	return pl.Vec3().Dot(point)+pl[3] > 0
}

// Package camera implements the viewer camera: projection, navigation
// around a pivot, canonical views and region framing. The world is Z-up.
package camera

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// Type is the projection type.
type Type uint8

const (
	Perspective Type = iota
	Orthogonal
)

func (t Type) String() string {
	if t == Orthogonal {
		return "orthogonal"
	}
	return "perspective"
}

// ParseType converts "perspective" or "orthogonal".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "perspective", "":
		return Perspective, nil
	case "orthogonal", "ortho":
		return Orthogonal, nil
	}
	return Perspective, fmt.Errorf("unknown camera type %q", s)
}

// PerspectiveParams are the perspective view-volume parameters. FOV is the
// vertical field of view in degrees.
type PerspectiveParams struct {
	FOV, Near, Far float32
}

// OrthogonalParams are the orthogonal view-volume parameters in world
// units relative to the view axis.
type OrthogonalParams struct {
	Left, Right, Top, Bottom, Near, Far float32
}

var worldUp = mgl32.Vec3{0, 0, 1}

// Camera holds eye, pivot and projection state. MV and P are recomputed
// by Update.
type Camera struct {
	Type        Type
	Perspective PerspectiveParams
	Orthogonal  OrthogonalParams

	// Mode is the navigation the primary button performs.
	Mode Navigation

	// Per-pixel navigation factors.
	OrbitSpeed float32 // radians
	PanSpeed   float32 // fraction of distance
	ZoomSpeed  float32 // fraction of distance per wheel step

	// RotationSpeed is the auto-rotation step per Tick in radians.
	RotationSpeed float32

	eye, origin, up mgl32.Vec3
	rotating        bool

	width, height int
	mv, proj      mgl32.Mat4
}

// New creates a perspective camera looking at the world origin from the
// default direction.
func New() *Camera {
	c := &Camera{
		Type:          Perspective,
		Perspective:   PerspectiveParams{FOV: 45, Near: 0.1, Far: 1000},
		Orthogonal:    OrthogonalParams{Left: -10, Right: 10, Top: 10, Bottom: -10, Near: 0.1, Far: 1000},
		Mode:          NavOrbit,
		OrbitSpeed:    0.01,
		PanSpeed:      0.002,
		ZoomSpeed:     0.1,
		RotationSpeed: 0.005,
		up:            worldUp,
		mv:            mgl32.Ident4(),
		proj:          mgl32.Ident4(),
	}
	c.eye = defaultDirection.Mul(20)
	c.fixUp()
	return c
}

// Position returns the eye position.
func (c *Camera) Position() mgl32.Vec3 { return c.eye }

// SetPosition moves the eye, keeping the pivot.
func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.eye = p
	c.fixUp()
}

// Origin returns the navigation pivot.
func (c *Camera) Origin() mgl32.Vec3 { return c.origin }

// SetOrigin moves the pivot, keeping the eye.
func (c *Camera) SetOrigin(p mgl32.Vec3) {
	c.origin = p
	if c.eye.ApproxEqual(c.origin) {
		c.eye = c.origin.Add(defaultDirection)
	}
	c.fixUp()
}

// Up returns the camera up vector.
func (c *Camera) Up() mgl32.Vec3 { return c.up }

// Distance is the eye to pivot distance.
func (c *Camera) Distance() float32 {
	return c.eye.Sub(c.origin).Len()
}

// Direction is the unit vector from eye to pivot.
func (c *Camera) Direction() mgl32.Vec3 {
	d := c.origin.Sub(c.eye)
	if d.Len() == 0 {
		return defaultDirection.Mul(-1)
	}
	return d.Normalize()
}

// SetType switches projection. Eye, pivot and both parameter sets are kept.
func (c *Camera) SetType(t Type) {
	c.Type = t
}

// fixUp keeps the up vector orthogonal to the view direction. Views along
// the world up axis fall back to +Y.
func (c *Camera) fixUp() {
	dir := c.Direction()
	up := c.up
	if math32.Abs(dir.Dot(up)) > 0.999 {
		up = worldUp
		if math32.Abs(dir.Dot(up)) > 0.999 {
			up = mgl32.Vec3{0, 1, 0}
		}
	}
	right := dir.Cross(up).Normalize()
	c.up = right.Cross(dir).Normalize()
}

// SetTarget makes the centre of region the pivot. It does nothing for an
// empty region.
func (c *Camera) SetTarget(region wexbim.Region) bool {
	if region.IsEmpty() {
		return false
	}
	c.SetOrigin(mgl32.Vec3(region.Centre()))
	return true
}

// ZoomTo makes the centre of region the pivot and moves the eye along the
// current view direction so the region's bounding sphere fills the view.
// The narrower of the two viewport axes decides the distance.
func (c *Camera) ZoomTo(region wexbim.Region) bool {
	if region.IsEmpty() {
		return false
	}
	dir := c.Direction()
	centre := mgl32.Vec3(region.Centre())
	radius := math32.Max(region.Diagonal()/2, 1e-3)
	aspect := c.aspect()

	halfY := mgl32.DegToRad(c.Perspective.FOV) / 2
	halfX := math32.Atan(math32.Tan(halfY) * aspect)
	dist := radius / math32.Sin(math32.Min(halfX, halfY))
	c.origin = centre
	c.eye = centre.Sub(dir.Mul(dist))

	halfH := radius / math32.Min(aspect, 1)
	c.Orthogonal.Top, c.Orthogonal.Bottom = halfH, -halfH
	c.Orthogonal.Left, c.Orthogonal.Right = -halfH*aspect, halfH*aspect
	c.fixUp()
	return true
}

// FitClipPlanes derives near and far planes from the scene region so
// that small and large models avoid z-fighting and premature clipping.
func (c *Camera) FitClipPlanes(region wexbim.Region, unitsPerMeter float32) {
	if region.IsEmpty() {
		return
	}
	if unitsPerMeter <= 0 {
		unitsPerMeter = 1
	}
	diag := region.Diagonal()
	far := math32.Max(diag*20, c.Distance()+diag)
	near := math32.Min(unitsPerMeter/10, far/1000)

	c.Perspective.Near, c.Perspective.Far = near, far
	c.Orthogonal.Near, c.Orthogonal.Far = -far, far
}

func (c *Camera) aspect() float32 {
	if c.width <= 0 || c.height <= 0 {
		return 1
	}
	return float32(c.width) / float32(c.height)
}

// Update recomputes the matrices for a viewport of the given size.
// Orthogonal horizontal extents follow the aspect ratio.
func (c *Camera) Update(width, height int) {
	c.width, c.height = width, height
	aspect := c.aspect()
	c.mv = mgl32.LookAtV(c.eye, c.origin, c.up)

	switch c.Type {
	case Orthogonal:
		o := &c.Orthogonal
		halfH := (o.Top - o.Bottom) / 2
		o.Left, o.Right = -halfH*aspect, halfH*aspect
		c.proj = mgl32.Ortho(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far)
	default:
		p := c.Perspective
		c.proj = mgl32.Perspective(mgl32.DegToRad(p.FOV), aspect, p.Near, p.Far)
	}
}

// ModelView returns the model-view matrix computed by the last Update.
func (c *Camera) ModelView() mgl32.Mat4 { return c.mv }

// Projection returns the projection matrix computed by the last Update.
func (c *Camera) Projection() mgl32.Mat4 { return c.proj }

// InverseViewProjection is used to unproject window coordinates.
func (c *Camera) InverseViewProjection() mgl32.Mat4 {
	return c.proj.Mul4(c.mv).Inv()
}

// Viewport returns the size passed to the last Update.
func (c *Camera) Viewport() (width, height int) { return c.width, c.height }

// StartRotation enables slow orbiting around the pivot on every Tick.
func (c *Camera) StartRotation() { c.rotating = true }

// StopRotation disables auto-rotation.
func (c *Camera) StopRotation() { c.rotating = false }

// Rotating reports whether auto-rotation is on.
func (c *Camera) Rotating() bool { return c.rotating }

// Tick advances auto-rotation and reports whether the camera moved.
func (c *Camera) Tick() bool {
	if !c.rotating {
		return false
	}
	c.orbit(c.RotationSpeed, 0)
	return true
}

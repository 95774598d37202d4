package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized
}

// ScreenToRay converts window coordinates (origin top-left) to a
// world-space ray. invViewProj is the inverse of projection * model-view.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if near[3] != 0 {
		near = near.Mul(1 / near[3])
	}
	if far[3] != 0 {
		far = far.Mul(1 / far[3])
	}

	origin := near.Vec3()
	dir := far.Vec3().Sub(origin)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: origin, Direction: dir}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectRegion tests the ray against an axis-aligned region using the
// slab method. If the ray starts inside the region the exit distance is
// returned.
func (r Ray) IntersectRegion(box wexbim.Region) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		if d == 0 {
			if o < box.Min[axis] || o > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - o) / d
		t2 := (box.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

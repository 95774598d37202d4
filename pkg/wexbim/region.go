package wexbim

import "math"

// Region is an axis-aligned bounding box in model space.
type Region struct {
	Min [3]float32
	Max [3]float32
}

// EmptyRegion returns a region that contains nothing and grows with Extend.
func EmptyRegion() Region {
	return Region{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

func regionFromArray(a [6]float32) Region {
	return Region{Min: [3]float32{a[0], a[1], a[2]}, Max: [3]float32{a[3], a[4], a[5]}}
}

func (r Region) array() [6]float32 {
	return [6]float32{r.Min[0], r.Min[1], r.Min[2], r.Max[0], r.Max[1], r.Max[2]}
}

// IsEmpty reports whether the region contains no point.
func (r Region) IsEmpty() bool {
	return r.Min[0] > r.Max[0] || r.Min[1] > r.Max[1] || r.Min[2] > r.Max[2]
}

// Centre returns the centroid of the box.
func (r Region) Centre() [3]float32 {
	return [3]float32{
		(r.Min[0] + r.Max[0]) / 2,
		(r.Min[1] + r.Max[1]) / 2,
		(r.Min[2] + r.Max[2]) / 2,
	}
}

// Size returns the box extents per axis.
func (r Region) Size() [3]float32 {
	if r.IsEmpty() {
		return [3]float32{}
	}
	return [3]float32{r.Max[0] - r.Min[0], r.Max[1] - r.Min[1], r.Max[2] - r.Min[2]}
}

// Diagonal returns the length of the box diagonal.
func (r Region) Diagonal() float32 {
	s := r.Size()
	return float32(math.Sqrt(float64(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])))
}

// Volume returns the box volume.
func (r Region) Volume() float32 {
	s := r.Size()
	return s[0] * s[1] * s[2]
}

// Extend grows the region to include p.
func (r Region) Extend(p [3]float32) Region {
	for i := 0; i < 3; i++ {
		if p[i] < r.Min[i] {
			r.Min[i] = p[i]
		}
		if p[i] > r.Max[i] {
			r.Max[i] = p[i]
		}
	}
	return r
}

// Union returns the smallest region containing both r and other.
func (r Region) Union(other Region) Region {
	if other.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return other
	}
	return r.Extend(other.Min).Extend(other.Max)
}

// Overlaps reports whether the two regions intersect.
func (r Region) Overlaps(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	for i := 0; i < 3; i++ {
		if r.Max[i] < other.Min[i] || other.Max[i] < r.Min[i] {
			return false
		}
	}
	return true
}

// Package debug provides viewer plugins for visual diagnostics: selection
// boxes, a ground grid and a frame rate counter.
package debug

import "github.com/Faultbox/xviewer/pkg/wexbim"

// BoxLineVertices is the number of vertices of a box wireframe (12 edges × 2).
const BoxLineVertices = 24

// DefaultBoxPadding is the relative padding of selection boxes, as a
// fraction of the box diagonal.
const DefaultBoxPadding = 0.02

// BoxLines creates line vertices for a wireframe box, [x, y, z] per vertex.
func BoxLines(min, max [3]float32) []float32 {
	x0, y0, z0 := min[0], min[1], min[2]
	x1, y1, z1 := max[0], max[1], max[2]
	return []float32{
		// Bottom face
		x0, y0, z0, x1, y0, z0,
		x1, y0, z0, x1, y1, z0,
		x1, y1, z0, x0, y1, z0,
		x0, y1, z0, x0, y0, z0,
		// Top face
		x0, y0, z1, x1, y0, z1,
		x1, y0, z1, x1, y1, z1,
		x1, y1, z1, x0, y1, z1,
		x0, y1, z1, x0, y0, z1,
		// Vertical edges
		x0, y0, z0, x0, y0, z1,
		x1, y0, z0, x1, y0, z1,
		x1, y1, z0, x1, y1, z1,
		x0, y1, z0, x0, y1, z1,
	}
}

// RegionLines creates the wireframe of r grown by padding times its
// diagonal on every side. An empty region has no lines.
func RegionLines(r wexbim.Region, padding float32) []float32 {
	if r.IsEmpty() {
		return nil
	}
	pad := r.Diagonal() * padding
	min, max := r.Min, r.Max
	for i := range 3 {
		min[i] -= pad
		max[i] += pad
	}
	return BoxLines(min, max)
}

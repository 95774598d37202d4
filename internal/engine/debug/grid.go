package debug

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// MaxGridLines bounds the lines per axis of a ground grid. Finer grids
// have their step doubled until they fit.
const MaxGridLines = 200

// GridStep picks the spacing of a ground grid under r: one line per unit
// (usually a metre) for building-sized models, coarser for sites.
func GridStep(r wexbim.Region, unitsPerMeter float32) float32 {
	if unitsPerMeter <= 0 {
		unitsPerMeter = 1
	}
	step := unitsPerMeter
	if r.IsEmpty() {
		return step
	}
	size := r.Size()
	span := math32.Max(size[0], size[1])
	for span/step > MaxGridLines {
		step *= 2
	}
	return step
}

// GridLines generates line vertices, [x, y, z] per point, for a grid at
// the floor of r covering its footprint with the given spacing.
func GridLines(r wexbim.Region, step float32) []float32 {
	if r.IsEmpty() || step <= 0 {
		return nil
	}
	x0 := math32.Floor(r.Min[0]/step) * step
	y0 := math32.Floor(r.Min[1]/step) * step
	x1 := math32.Ceil(r.Max[0]/step) * step
	y1 := math32.Ceil(r.Max[1]/step) * step
	z := r.Min[2]

	nx := int((x1-x0)/step+0.5) + 1
	ny := int((y1-y0)/step+0.5) + 1
	if nx > MaxGridLines+1 || ny > MaxGridLines+1 {
		return nil
	}

	vertices := make([]float32, 0, (nx+ny)*6)
	// Lines along y
	for i := range nx {
		x := x0 + float32(i)*step
		vertices = append(vertices, x, y0, z, x, y1, z)
	}
	// Lines along x
	for i := range ny {
		y := y0 + float32(i)*step
		vertices = append(vertices, x0, y, z, x1, y, z)
	}
	return vertices
}

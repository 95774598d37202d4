package main

import "github.com/Faultbox/xviewer/pkg/wexbim"

// Dimensions of generated buildings, in metres.
const (
	roomSize      = 5
	storeyHeight  = 3
	wallThickness = 0.2
	slabThickness = 0.25
)

var (
	wallColor  = [4]uint8{210, 205, 195, 255}
	slabColor  = [4]uint8{150, 150, 155, 255}
	spaceColor = [4]uint8{120, 170, 230, 80}
)

// generate builds a storeys-high block of n×n rooms. Every storey has one
// slab, a space per room and a wall on each room boundary. Product IDs
// are assigned from 1 in creation order.
func generate(n, storeys int) *wexbim.Model {
	b := wexbim.NewBuilder(1)
	var next int32
	id := func() int32 {
		next++
		return next
	}

	side := float32(n * roomSize)
	for s := range storeys {
		z0 := float32(s * storeyHeight)
		z1 := z0 + storeyHeight

		b.AddBox(id(), wexbim.TypeSlab,
			[3]float32{0, 0, z0 - slabThickness}, [3]float32{side, side, z0}, slabColor)

		for i := range n {
			for j := range n {
				x0, y0 := float32(i*roomSize), float32(j*roomSize)
				x1, y1 := x0+roomSize, y0+roomSize
				t := float32(wallThickness / 2)

				b.AddBox(id(), wexbim.TypeSpace,
					[3]float32{x0 + t, y0 + t, z0}, [3]float32{x1 - t, y1 - t, z1}, spaceColor)

				// South and west walls of every room, plus the outer north
				// and east walls.
				b.AddBox(id(), wexbim.TypeWall, [3]float32{x0 - t, y0 - t, z0}, [3]float32{x1 + t, y0 + t, z1}, wallColor)
				b.AddBox(id(), wexbim.TypeWall, [3]float32{x0 - t, y0 - t, z0}, [3]float32{x0 + t, y1 + t, z1}, wallColor)
				if j == n-1 {
					b.AddBox(id(), wexbim.TypeWall, [3]float32{x0 - t, y1 - t, z0}, [3]float32{x1 + t, y1 + t, z1}, wallColor)
				}
				if i == n-1 {
					b.AddBox(id(), wexbim.TypeWall, [3]float32{x1 - t, y0 - t, z0}, [3]float32{x1 + t, y1 + t, z1}, wallColor)
				}
			}
		}
	}
	return b.Build()
}

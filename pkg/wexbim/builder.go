package wexbim

// Builder assembles a Model from axis-aligned boxes. It is used by the
// wexbimtool generator and by tests that need real geometry.
type Builder struct {
	m     Model
	slots map[int32]uint32
}

// NewBuilder returns a builder for a model measured in the given units.
func NewBuilder(unitsPerMeter float32) *Builder {
	return &Builder{
		m: Model{
			Version:       CurrentVersion,
			UnitsPerMeter: unitsPerMeter,
			Region:        EmptyRegion(),
		},
		slots: make(map[int32]uint32),
	}
}

// boxFaces lists the outward normal and the four corners (as min/max
// selectors per axis) of each box face, counter-clockwise.
var boxFaces = [6]struct {
	normal  [3]float32
	corners [4][3]int
}{
	{[3]float32{1, 0, 0}, [4][3]int{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{[3]float32{-1, 0, 0}, [4][3]int{{0, 1, 0}, {0, 0, 0}, {0, 0, 1}, {0, 1, 1}}},
	{[3]float32{0, 1, 0}, [4][3]int{{1, 1, 0}, {0, 1, 0}, {0, 1, 1}, {1, 1, 1}}},
	{[3]float32{0, -1, 0}, [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{[3]float32{0, 0, 1}, [4][3]int{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	{[3]float32{0, 0, -1}, [4][3]int{{0, 1, 0}, {1, 1, 0}, {1, 0, 0}, {0, 0, 0}}},
}

// AddBox appends a box to product id, creating the product on first use.
func (b *Builder) AddBox(id int32, typ ProductType, min, max [3]float32, rgba [4]uint8) *Builder {
	slot, ok := b.slots[id]
	if !ok {
		slot = uint32(len(b.m.Products))
		b.slots[id] = slot
		b.m.Products = append(b.m.Products, Product{ID: id, Type: typ, BBox: EmptyRegion()})
	}
	p := &b.m.Products[slot]

	ext := [2][3]float32{min, max}
	for _, f := range boxFaces {
		base := uint32(b.m.VertexCount())
		for _, c := range f.corners {
			pos := [3]float32{ext[c[0]][0], ext[c[1]][1], ext[c[2]][2]}
			b.m.Positions = append(b.m.Positions, pos[0], pos[1], pos[2])
			b.m.Normals = append(b.m.Normals, f.normal[0], f.normal[1], f.normal[2])
			b.m.Colors = append(b.m.Colors, rgba[0], rgba[1], rgba[2], rgba[3])
			b.m.Slots = append(b.m.Slots, slot)
			p.BBox = p.BBox.Extend(pos)
			b.m.Region = b.m.Region.Extend(pos)
		}
		b.m.Indices = append(b.m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return b
}

// Build returns the assembled model. The builder must not be reused.
func (b *Builder) Build() *Model {
	m := b.m
	return &m
}

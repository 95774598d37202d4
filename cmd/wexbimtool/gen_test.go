package main

import (
	"testing"

	"github.com/Faultbox/xviewer/pkg/wexbim"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		n, storeys           int
		slabs, spaces, walls int
	}{
		{1, 1, 1, 1, 4},
		{2, 1, 1, 4, 12},
		{3, 2, 2, 18, 48},
	}
	for _, tt := range tests {
		m := generate(tt.n, tt.storeys)
		if err := m.Validate(); err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		count := make(map[wexbim.ProductType]int)
		for i, p := range m.Products {
			if p.ID != int32(i+1) {
				t.Fatalf("product %d has id %d", i, p.ID)
			}
			count[p.Type]++
		}
		if count[wexbim.TypeSlab] != tt.slabs || count[wexbim.TypeSpace] != tt.spaces || count[wexbim.TypeWall] != tt.walls {
			t.Errorf("n=%d storeys=%d: counts = %v", tt.n, tt.storeys, count)
		}
		// 24 vertices per box
		if m.VertexCount() != 24*len(m.Products) {
			t.Errorf("vertices = %d", m.VertexCount())
		}
	}
}

func TestGenerateRegion(t *testing.T) {
	m := generate(2, 3)
	r := m.Region
	if r.Min[2] != -slabThickness || r.Max[2] != 3*storeyHeight {
		t.Errorf("height = %g..%g", r.Min[2], r.Max[2])
	}
	if r.Max[0] < 2*roomSize || r.Max[1] < 2*roomSize {
		t.Errorf("footprint = %v", r.Max)
	}
}

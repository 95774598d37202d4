package wexbim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func makeHeader(magic int32, major, minor uint8) []byte {
	var buf bytes.Buffer
	h := header{Magic: magic, Major: major, Minor: minor, UnitsPerMeter: 1000}
	binary.Write(&buf, binary.LittleEndian, &h)
	return buf.Bytes()
}

func twoBoxModel() *Model {
	return NewBuilder(1000).
		AddBox(10, TypeWall, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}, [4]uint8{200, 200, 200, 255}).
		AddBox(20, TypeSpace, [3]float32{2, 0, 0}, [3]float32{4, 2, 3}, [4]uint8{0, 0, 255, 80}).
		Build()
}

func TestDecode_MagicValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty data", []byte{}, ErrTruncatedData},
		{"truncated header", []byte{1, 2, 3, 4, 5}, ErrTruncatedData},
		{"invalid magic", makeHeader(42, 1, 0), ErrInvalidMagic},
		{"valid empty model", makeHeader(Magic, 1, 0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecode_VersionSupport(t *testing.T) {
	tests := []struct {
		major, minor uint8
		wantErr      bool
	}{
		{1, 0, false},
		{1, 1, false},
		{1, 9, false},
		{0, 9, true},
		{2, 0, true},
	}

	for _, tt := range tests {
		v := Version{tt.major, tt.minor}
		t.Run(v.String(), func(t *testing.T) {
			_, err := Decode(makeHeader(Magic, tt.major, tt.minor))
			if (err != nil) != tt.wantErr {
				t.Errorf("version %s: got error=%v, wantErr=%v", v, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedVersion) {
				t.Errorf("expected ErrUnsupportedVersion, got %v", err)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	src := twoBoxModel()
	data, err := Encode(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Version != CurrentVersion {
		t.Errorf("version = %s, want %s", got.Version, CurrentVersion)
	}
	if got.UnitsPerMeter != 1000 {
		t.Errorf("units per meter = %v, want 1000", got.UnitsPerMeter)
	}
	if len(got.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(got.Products))
	}
	if got.Products[1].ID != 20 || got.Products[1].Type != TypeSpace {
		t.Errorf("product 1 = %+v", got.Products[1])
	}
	if got.Products[1].BBox.Max != [3]float32{4, 2, 3} {
		t.Errorf("product bbox max = %v", got.Products[1].BBox.Max)
	}
	if got.VertexCount() != 48 {
		t.Errorf("vertex count = %d, want 48", got.VertexCount())
	}
	if len(got.Indices) != 72 {
		t.Errorf("index count = %d, want 72", len(got.Indices))
	}
	if got.Region.Min != [3]float32{0, 0, 0} || got.Region.Max != [3]float32{4, 2, 3} {
		t.Errorf("region = %+v", got.Region)
	}
}

func TestDecode_TruncatedBuffers(t *testing.T) {
	data, err := Encode(twoBoxModel())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = Decode(data[:len(data)-10])
	if !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
	}{
		{"bad slot", func(m *Model) { m.Slots[0] = 5 }},
		{"bad index", func(m *Model) { m.Indices[0] = 1 << 20 }},
		{"duplicate id", func(m *Model) { m.Products[1].ID = m.Products[0].ID }},
		{"non-positive id", func(m *Model) { m.Products[0].ID = 0 }},
		{"short colours", func(m *Model) { m.Colors = m.Colors[:4] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := twoBoxModel()
			tt.mutate(m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidModel) {
				t.Errorf("expected ErrInvalidModel, got %v", err)
			}
		})
	}
}

func TestRegion(t *testing.T) {
	a := Region{Min: [3]float32{0, 0, 0}, Max: [3]float32{2, 2, 2}}
	b := Region{Min: [3]float32{1, 1, 1}, Max: [3]float32{5, 3, 3}}
	c := Region{Min: [3]float32{10, 10, 10}, Max: [3]float32{11, 11, 11}}

	if !a.Overlaps(b) {
		t.Error("a and b should overlap")
	}
	if a.Overlaps(c) {
		t.Error("a and c should not overlap")
	}
	u := a.Union(b)
	if u.Min != [3]float32{0, 0, 0} || u.Max != [3]float32{5, 3, 3} {
		t.Errorf("union = %+v", u)
	}
	if got := a.Centre(); got != [3]float32{1, 1, 1} {
		t.Errorf("centre = %v", got)
	}
	if !EmptyRegion().IsEmpty() {
		t.Error("EmptyRegion should be empty")
	}
	if got := EmptyRegion().Union(a); got != a {
		t.Errorf("empty union = %+v, want %+v", got, a)
	}
}

func TestProductTypeString(t *testing.T) {
	if TypeSpace.String() != "IfcSpace" {
		t.Errorf("TypeSpace = %s", TypeSpace)
	}
	if ProductType(9999).String() != "Unknown(9999)" {
		t.Errorf("unknown type = %s", ProductType(9999))
	}
}

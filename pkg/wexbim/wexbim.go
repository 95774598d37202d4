// Package wexbim reads and writes the compact binary geometry container
// consumed by the viewer. A container holds one model: its products, their
// bounding boxes and types, and flat vertex/index buffers ready for upload.
package wexbim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
)

// Magic identifies a wexbim container.
const Magic int32 = 94132117

// MaxProducts is the largest product count a single model may carry.
// Product slots are encoded in 24 bits by the identification pass and
// slot value 0 is reserved for the background.
const MaxProducts = 1<<24 - 2

// Format errors.
var (
	ErrInvalidMagic       = errors.New("invalid wexbim magic")
	ErrUnsupportedVersion = errors.New("unsupported wexbim version")
	ErrTruncatedData      = errors.New("truncated wexbim data")
	ErrInvalidModel       = errors.New("invalid wexbim model")
)

// supportedVersions is the range of container versions this package reads.
var supportedVersions = mustConstraint(">= 1.0, < 2.0")

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// Version is the container format version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Supported reports whether this package can read containers of version v.
func (v Version) Supported() bool {
	sv, err := semver.NewVersion(fmt.Sprintf("%d.%d.0", v.Major, v.Minor))
	if err != nil {
		return false
	}
	return supportedVersions.Check(sv)
}

// CurrentVersion is the version written by Encode.
var CurrentVersion = Version{Major: 1, Minor: 1}

// Model is a decoded container.
type Model struct {
	Version       Version
	UnitsPerMeter float32
	Region        Region
	Products      []Product

	// Per-vertex buffers. Positions and Normals hold 3 floats per vertex,
	// Colors 4 bytes per vertex, Slots one product slot per vertex.
	Positions []float32
	Normals   []float32
	Colors    []uint8
	Slots     []uint32

	Indices []uint32
}

// VertexCount returns the number of vertices.
func (m *Model) VertexCount() int {
	return len(m.Positions) / 3
}

// Validate checks buffer consistency.
func (m *Model) Validate() error {
	if len(m.Products) > MaxProducts {
		return fmt.Errorf("%w: %d products exceeds limit %d", ErrInvalidModel, len(m.Products), MaxProducts)
	}
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: position buffer length %d", ErrInvalidModel, len(m.Positions))
	}
	n := m.VertexCount()
	if len(m.Normals) != n*3 || len(m.Colors) != n*4 || len(m.Slots) != n {
		return fmt.Errorf("%w: vertex attribute lengths disagree with %d vertices", ErrInvalidModel, n)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidModel, len(m.Indices))
	}
	seen := make(map[int32]struct{}, len(m.Products))
	for _, p := range m.Products {
		if p.ID <= 0 {
			return fmt.Errorf("%w: product id %d is not positive", ErrInvalidModel, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product id %d", ErrInvalidModel, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for i, s := range m.Slots {
		if int(s) >= len(m.Products) {
			return fmt.Errorf("%w: vertex %d references slot %d", ErrInvalidModel, i, s)
		}
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d out of range (%d)", ErrInvalidModel, i, idx)
		}
	}
	return nil
}

// Product is one semantic element of a model.
type Product struct {
	ID   int32
	Type ProductType
	BBox Region
}

type header struct {
	Magic         int32
	Major         uint8
	Minor         uint8
	UnitsPerMeter float32
	Region        [6]float32
	ProductCount  int32
	VertexCount   int32
	IndexCount    int32
}

type productRecord struct {
	ID   int32
	Type uint16
	BBox [6]float32
}

// Read decodes a container from r.
func Read(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading wexbim: %w", err)
	}
	return Decode(data)
}

// Decode decodes a container from data.
func Decode(data []byte) (*Model, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedData
	}
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncatedData, err)
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMagic, h.Magic)
	}
	version := Version{Major: h.Major, Minor: h.Minor}
	if !version.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	if h.ProductCount < 0 || h.VertexCount < 0 || h.IndexCount < 0 {
		return nil, fmt.Errorf("%w: negative counts", ErrInvalidModel)
	}
	if int(h.ProductCount) > MaxProducts {
		return nil, fmt.Errorf("%w: %d products exceeds limit %d", ErrInvalidModel, h.ProductCount, MaxProducts)
	}

	// Reject sizes the remaining bytes cannot possibly hold before allocating.
	need := int64(h.ProductCount)*30 + int64(h.VertexCount)*(12+12+4+4) + int64(h.IndexCount)*4
	if need > int64(r.Len()) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedData, need, r.Len())
	}

	m := &Model{
		Version:       version,
		UnitsPerMeter: h.UnitsPerMeter,
		Region:        regionFromArray(h.Region),
		Products:      make([]Product, h.ProductCount),
		Positions:     make([]float32, int(h.VertexCount)*3),
		Normals:       make([]float32, int(h.VertexCount)*3),
		Colors:        make([]uint8, int(h.VertexCount)*4),
		Slots:         make([]uint32, h.VertexCount),
		Indices:       make([]uint32, h.IndexCount),
	}

	records := make([]productRecord, h.ProductCount)
	if err := binary.Read(r, binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("%w: products: %v", ErrTruncatedData, err)
	}
	for i, rec := range records {
		m.Products[i] = Product{ID: rec.ID, Type: ProductType(rec.Type), BBox: regionFromArray(rec.BBox)}
	}

	for _, buf := range []any{m.Positions, m.Normals, m.Colors, m.Slots, m.Indices} {
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("%w: buffers: %v", ErrTruncatedData, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes m as a container of CurrentVersion.
func Encode(m *Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes m to w without validating it.
func Write(w io.Writer, m *Model) error {
	h := header{
		Magic:         Magic,
		Major:         CurrentVersion.Major,
		Minor:         CurrentVersion.Minor,
		UnitsPerMeter: m.UnitsPerMeter,
		Region:        m.Region.array(),
		ProductCount:  int32(len(m.Products)),
		VertexCount:   int32(m.VertexCount()),
		IndexCount:    int32(len(m.Indices)),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	records := make([]productRecord, len(m.Products))
	for i, p := range m.Products {
		records[i] = productRecord{ID: p.ID, Type: uint16(p.Type), BBox: p.BBox.array()}
	}
	if err := binary.Write(w, binary.LittleEndian, records); err != nil {
		return fmt.Errorf("writing products: %w", err)
	}
	for _, b := range []any{m.Positions, m.Normals, m.Colors, m.Slots, m.Indices} {
		if err := binary.Write(w, binary.LittleEndian, b); err != nil {
			return fmt.Errorf("writing buffers: %w", err)
		}
	}
	return nil
}

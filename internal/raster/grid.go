package raster

import (
	"fmt"
	"math"
)

// SampleFormat records the storage type of a band so values can be written
// back out without unit conversion or spurious precision.
type SampleFormat int

const (
	SampleUint SampleFormat = iota
	SampleInt
	SampleFloat32
	SampleFloat64
)

// String returns a GDAL-like type name.
func (f SampleFormat) String() string {
	switch f {
	case SampleUint:
		return "UInt"
	case SampleInt:
		return "Int"
	case SampleFloat32:
		return "Float32"
	case SampleFloat64:
		return "Float64"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// BitSize is the float precision needed to print values of this format
// exactly: 32 for Float32, 64 otherwise.
func (f SampleFormat) BitSize() int {
	if f == SampleFloat32 {
		return 32
	}
	return 64
}

// Grid is one raster band held in memory, row-major.
type Grid struct {
	Width  int
	Height int
	Values []float64
	Format SampleFormat

	// NoData is the band's nodata marker, or nil if the file declares none.
	NoData *float64
}

// maxCells is the largest band, in samples, a reader will allocate.
const maxCells = 1 << 28

// checkDims rejects header dimensions that are empty or too large to hold in
// memory.
func checkDims(width, height int) error {
	if width <= 0 || height <= 0 || width > maxCells/height {
		return fmt.Errorf("%w: %dx%d pixels exceeds %d samples", ErrUnsupportedLayout, width, height, maxCells)
	}
	return nil
}

// NewGrid allocates a zeroed height x width grid.
func NewGrid(height, width int, format SampleFormat) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
		Format: format,
	}
}

// Dims returns (rows, columns).
func (g *Grid) Dims() (height, width int) {
	return g.Height, g.Width
}

// At returns the sample at (row, col). It panics if the index is out of range.
func (g *Grid) At(row, col int) float64 {
	return g.Values[row*g.Width+col]
}

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.Values[row*g.Width+col] = v
}

// Contains reports whether (row, col) lies inside the grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

// IsNoData reports whether v equals the grid's nodata marker.
func (g *Grid) IsNoData(v float64) bool {
	if g.NoData == nil {
		return false
	}
	return v == *g.NoData || (math.IsNaN(*g.NoData) && math.IsNaN(v))
}

// Package geo maps world coordinates onto raster pixel indices.
//
// A Transform holds the six affine coefficients of a north-up raster in the
// order GDAL reports them:
//
//	[0] origin X   (world X of the upper-left corner of pixel (0,0))
//	[1] pixel width
//	[2] row rotation (ignored)
//	[3] origin Y   (world Y of the upper-left corner of pixel (0,0))
//	[4] column rotation (ignored)
//	[5] pixel height (negative for north-up rasters)
//
// Rotation terms are carried so readers can round-trip them, but the pixel
// mapping uses only the origin and pixel size.
package geo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidGeotransform is returned when a pixel dimension is zero or not finite.
	ErrInvalidGeotransform = errors.New("invalid geotransform")

	// ErrInvalidCoordinate is returned when a world coordinate is not finite or
	// maps outside the representable pixel range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Rounding selects how a fractional pixel quotient becomes an index.
type Rounding int

const (
	// Floor rounds toward negative infinity. A coordinate half a pixel left of
	// the origin maps to column -1.
	Floor Rounding = iota

	// TruncateTowardZero drops the fractional part. It agrees with Floor for
	// non-negative quotients and maps (-1, 0) to 0.
	TruncateTowardZero
)

// String returns the config spelling of the rounding mode.
func (r Rounding) String() string {
	switch r {
	case Floor:
		return "floor"
	case TruncateTowardZero:
		return "truncate"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// ParseRounding accepts "floor" or "truncate". The empty string means Floor.
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "floor":
		return Floor, nil
	case "truncate":
		return TruncateTowardZero, nil
	default:
		return Floor, fmt.Errorf("unknown rounding mode %q (want floor or truncate)", s)
	}
}

// Transform is an affine geotransform in GDAL coefficient order.
type Transform [6]float64

// NewTransform builds a north-up transform from its origin and pixel size.
func NewTransform(originX, originY, pixelWidth, pixelHeight float64) Transform {
	return Transform{originX, pixelWidth, 0, originY, 0, pixelHeight}
}

// Identity is the transform GDAL assumes for rasters without georeferencing:
// world coordinates equal (col, row) with Y increasing downward.
var Identity = Transform{0, 1, 0, 0, 0, 1}

func (t Transform) OriginX() float64     { return t[0] }
func (t Transform) OriginY() float64     { return t[3] }
func (t Transform) PixelWidth() float64  { return t[1] }
func (t Transform) PixelHeight() float64 { return t[5] }

// Validate reports ErrInvalidGeotransform when either pixel dimension is zero
// or not finite.
func (t Transform) Validate() error {
	pw, ph := t.PixelWidth(), t.PixelHeight()
	if pw == 0 || ph == 0 {
		return fmt.Errorf("%w: zero pixel dimension (width=%g, height=%g)", ErrInvalidGeotransform, pw, ph)
	}
	if !finite(pw) || !finite(ph) || !finite(t.OriginX()) || !finite(t.OriginY()) {
		return fmt.Errorf("%w: non-finite coefficient %v", ErrInvalidGeotransform, [6]float64(t))
	}
	return nil
}

// ToPixel converts the world coordinate (x, y) into raster indices using
// floor rounding. See ToPixelWith.
func (t Transform) ToPixel(x, y float64) (row, col int, err error) {
	return t.ToPixelWith(x, y, Floor)
}

// ToPixelWith converts the world coordinate (x, y) into raster indices:
//
//	col = round((x - originX) / pixelWidth)
//	row = round((y - originY) / pixelHeight)
//
// where round is the selected Rounding. The result may lie outside the raster;
// callers decide what an out-of-bounds pixel means.
func (t Transform) ToPixelWith(x, y float64, mode Rounding) (row, col int, err error) {
	if err := t.Validate(); err != nil {
		return 0, 0, err
	}
	if !finite(x) || !finite(y) {
		return 0, 0, fmt.Errorf("%w: (%g, %g) is not finite", ErrInvalidCoordinate, x, y)
	}

	c, err := toIndex((x-t.OriginX())/t.PixelWidth(), mode)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: x=%g: %v", ErrInvalidCoordinate, x, err)
	}
	r, err := toIndex((y-t.OriginY())/t.PixelHeight(), mode)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: y=%g: %v", ErrInvalidCoordinate, y, err)
	}
	return r, c, nil
}

// ToWorld returns the world coordinate of the upper-left corner of pixel
// (row, col), applying the full affine including rotation terms.
func (t Transform) ToWorld(row, col int) (x, y float64) {
	fc, fr := float64(col), float64(row)
	x = t[0] + fc*t[1] + fr*t[2]
	y = t[3] + fc*t[4] + fr*t[5]
	return x, y
}

// ToPixel is the free-function form of Transform.ToPixel.
func ToPixel(x, y float64, t Transform) (row, col int, err error) {
	return t.ToPixel(x, y)
}

func toIndex(q float64, mode Rounding) (int, error) {
	switch mode {
	case TruncateTowardZero:
		q = math.Trunc(q)
	default:
		q = math.Floor(q)
	}
	if q < math.MinInt32 || q > math.MaxInt32 {
		return 0, fmt.Errorf("pixel offset %g out of range", q)
	}
	return int(q), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPixel_Origin(t *testing.T) {
	tr := NewTransform(320000, 4160000, 30, -30)

	row, col, err := tr.ToPixel(320000, 4160000)
	require.NoError(t, err)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}

func TestToPixel_NorthUp(t *testing.T) {
	tr := NewTransform(0, 0, 1, -1)

	tests := []struct {
		name    string
		x, y    float64
		wantRow int
		wantCol int
	}{
		{"grid center", 2, -2, 2, 2},
		{"inside first pixel", 0.5, -0.5, 0, 0},
		{"right edge of first pixel", 0.999, -0.999, 0, 0},
		{"second column", 1, 0, 0, 1},
		{"far south east", 4.2, -4.7, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col, err := tr.ToPixel(tt.x, tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRow, row, "row")
			assert.Equal(t, tt.wantCol, col, "col")
		})
	}
}

func TestToPixel_LandsatScene(t *testing.T) {
	// 30 m UTM grid; the default manual center should land inside it.
	tr := NewTransform(300000, 4200000, 30, -30)

	row, col, err := tr.ToPixel(320953, 4159672)
	require.NoError(t, err)
	assert.Equal(t, 1344, row) // (4159672-4200000)/-30 = 1344.27
	assert.Equal(t, 698, col)  // 20953/30 = 698.43
}

func TestToPixelWith_NegativeQuotient(t *testing.T) {
	tr := NewTransform(0, 0, 1, -1)

	row, col, err := tr.ToPixelWith(-0.5, 0.5, Floor)
	require.NoError(t, err)
	assert.Equal(t, -1, row)
	assert.Equal(t, -1, col)

	row, col, err = tr.ToPixelWith(-0.5, 0.5, TruncateTowardZero)
	require.NoError(t, err)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}

func TestToPixelWith_ModesAgreeForPositiveQuotients(t *testing.T) {
	tr := NewTransform(10, 100, 2.5, -2.5)

	for _, pt := range [][2]float64{{10, 100}, {11.3, 97.1}, {60.2, 12.9}, {99.99, 0.01}} {
		r1, c1, err := tr.ToPixelWith(pt[0], pt[1], Floor)
		require.NoError(t, err)
		r2, c2, err := tr.ToPixelWith(pt[0], pt[1], TruncateTowardZero)
		require.NoError(t, err)
		assert.Equal(t, r1, r2)
		assert.Equal(t, c1, c2)
	}
}

func TestToPixel_Deterministic(t *testing.T) {
	tr := NewTransform(-180, 90, 0.05, -0.05)

	r1, c1, err1 := tr.ToPixel(12.345, 45.678)
	r2, c2, err2 := tr.ToPixel(12.345, 45.678)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, c1, c2)
}

func TestToPixel_InvalidGeotransform(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
	}{
		{"zero width", NewTransform(0, 0, 0, -1)},
		{"zero height", NewTransform(0, 0, 1, 0)},
		{"both zero", Transform{}},
		{"nan width", NewTransform(0, 0, math.NaN(), -1)},
		{"inf origin", NewTransform(math.Inf(1), 0, 1, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.tr.ToPixel(1, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeotransform), "got %v", err)
		})
	}
}

func TestToPixel_InvalidCoordinate(t *testing.T) {
	tr := NewTransform(0, 0, 1, -1)

	for _, pt := range [][2]float64{
		{math.NaN(), 0},
		{0, math.NaN()},
		{math.Inf(1), 0},
		{0, math.Inf(-1)},
		{1e300, 0},
	} {
		_, _, err := tr.ToPixel(pt[0], pt[1])
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	}
}

func TestToPixel_FreeFunction(t *testing.T) {
	row, col, err := ToPixel(2, -2, NewTransform(0, 0, 1, -1))
	require.NoError(t, err)
	assert.Equal(t, 2, row)
	assert.Equal(t, 2, col)
}

func TestToWorld_InvertsToPixel(t *testing.T) {
	tr := NewTransform(300000, 4200000, 30, -30)

	x, y := tr.ToWorld(1344, 698)
	assert.Equal(t, 320940.0, x)
	assert.Equal(t, 4159680.0, y)

	row, col, err := tr.ToPixel(x+1, y-1)
	require.NoError(t, err)
	assert.Equal(t, 1344, row)
	assert.Equal(t, 698, col)
}

func TestParseRounding(t *testing.T) {
	for in, want := range map[string]Rounding{"": Floor, "floor": Floor, "truncate": TruncateTowardZero} {
		got, err := ParseRounding(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		if in != "" {
			assert.Equal(t, in, got.String())
		}
	}

	_, err := ParseRounding("round")
	assert.Error(t, err)
}

package analysis

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/uhi-profile/internal/center"
	"github.com/ironsheep/uhi-profile/internal/config"
	"github.com/ironsheep/uhi-profile/internal/geo"
	"github.com/ironsheep/uhi-profile/internal/profile"
	"github.com/ironsheep/uhi-profile/internal/raster"
)

// writeGrid writes a size x size ASCII grid whose upper-left corner is the
// world origin with 1x1 pixels, so world (c, -r) lies in pixel (r, c). Cell
// values are r*size + c.
func writeGrid(t *testing.T, size int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("ncols " + strconv.Itoa(size) + "\n")
	b.WriteString("nrows " + strconv.Itoa(size) + "\n")
	b.WriteString("xllcorner 0\n")
	b.WriteString("yllcorner " + strconv.Itoa(-size) + "\n")
	b.WriteString("cellsize 1\n")
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(r*size + c))
		}
		b.WriteByte('\n')
	}

	path := filepath.Join(t.TempDir(), "lst.asc")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func readTable(t *testing.T, path string) []profile.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	recs, err := profile.ReadCSV(f, 64)
	require.NoError(t, err)
	return recs
}

func TestExtract_FiveByFive(t *testing.T) {
	grid := writeGrid(t, 5)
	out := filepath.Join(t.TempDir(), "nested", "dir", "output.csv")

	res, err := NewExtractor(nil).Extract(context.Background(), Request{
		RasterPath: grid,
		Center:     center.Manual{X: 2, Y: -2},
		CSVPath:    out,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Row)
	assert.Equal(t, 2, res.Col)
	assert.True(t, res.InBounds)
	assert.Equal(t, "Float64", res.Format)
	assert.Equal(t, out, res.CSVPath)
	require.Len(t, res.Records, 24)

	_, err = uuid.Parse(res.ID)
	assert.NoError(t, err)

	// West from the center: (2,2)=12, (2,1)=11, (2,0)=10.
	west := res.Records[:3]
	for d, want := range []float64{12, 11, 10} {
		assert.Equal(t, profile.Record{
			Axis: profile.WestEast, SubDirection: "West", Distance: d, Value: want, Row: 2, Col: 2 - d,
		}, west[d])
	}

	got := readTable(t, out)
	if diff := cmp.Diff(res.Records, got, cmpopts.IgnoreFields(profile.Record{}, "Row", "Col")); diff != "" {
		t.Errorf("CSV differs from records (-want +got):\n%s", diff)
	}

	require.Len(t, res.Summaries, 8)
	assert.Equal(t, "West", res.Summaries[0].SubDirection)
	assert.Equal(t, 3, res.Summaries[0].Samples)
}

func TestExtract_OutOfBoundsCenterWritesHeaderOnly(t *testing.T) {
	grid := writeGrid(t, 5)
	out := filepath.Join(t.TempDir(), "empty.csv")

	res, err := NewExtractor(nil).Extract(context.Background(), Request{
		RasterPath: grid,
		Center:     center.Manual{X: 100, Y: 100},
		CSVPath:    out,
	})
	require.NoError(t, err)

	assert.False(t, res.InBounds)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Direction,Sub-Direction,Distance,LST Value\n", string(data))
}

func TestExtract_ParallelMatchesSequential(t *testing.T) {
	grid := writeGrid(t, 9)
	ex := NewExtractor(raster.NewCache())

	seq, err := ex.Extract(context.Background(), Request{RasterPath: grid, Center: center.Manual{X: 3, Y: -6}})
	require.NoError(t, err)
	par, err := ex.Extract(context.Background(), Request{RasterPath: grid, Center: center.Manual{X: 3, Y: -6}, Parallel: true})
	require.NoError(t, err)

	if diff := cmp.Diff(seq.Records, par.Records); diff != "" {
		t.Errorf("parallel differs (-seq +par):\n%s", diff)
	}
	assert.NotEqual(t, seq.ID, par.ID)
	assert.Empty(t, seq.CSVPath)
}

func TestExtract_RoundingModes(t *testing.T) {
	grid := writeGrid(t, 5)
	ex := NewExtractor(nil)
	src := center.Manual{X: -0.5, Y: -1.5}

	floor, err := ex.Extract(context.Background(), Request{RasterPath: grid, Center: src, Rounding: geo.Floor})
	require.NoError(t, err)
	assert.Equal(t, -1, floor.Col)
	assert.False(t, floor.InBounds)
	assert.Empty(t, floor.Records)

	trunc, err := ex.Extract(context.Background(), Request{RasterPath: grid, Center: src, Rounding: geo.TruncateTowardZero})
	require.NoError(t, err)
	assert.Equal(t, 1, trunc.Row)
	assert.Equal(t, 0, trunc.Col)
	assert.True(t, trunc.InBounds)
	assert.NotEmpty(t, trunc.Records)
}

func TestExtract_CustomDirections(t *testing.T) {
	grid := writeGrid(t, 5)
	dirs := []profile.Direction{{Axis: "East only", Name: "East", RowStep: 0, ColStep: 1}}

	res, err := NewExtractor(nil).Extract(context.Background(), Request{
		RasterPath: grid,
		Center:     center.Manual{X: 1, Y: -1},
		Directions: dirs,
	})
	require.NoError(t, err)

	require.Len(t, res.Records, 4)
	assert.Equal(t, 9.0, res.Records[3].Value)
}

func TestExtract_VectorCenter(t *testing.T) {
	grid := writeGrid(t, 5)
	vec := filepath.Join(t.TempDir(), "site.geojson")
	require.NoError(t, os.WriteFile(vec, []byte(`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[3.5,-0.5]}}`), 0o644))

	res, err := NewExtractor(nil).Extract(context.Background(), Request{
		RasterPath: grid,
		Center:     center.FromVectorFile{Path: vec},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Row)
	assert.Equal(t, 3, res.Col)
}

func TestExtract_Errors(t *testing.T) {
	grid := writeGrid(t, 5)

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{"unsupported raster", Request{RasterPath: "scene.png"}, raster.ErrUnsupportedFormat},
		{"unsupported vector", Request{RasterPath: grid, Center: center.FromVectorFile{Path: "site.kml"}}, center.ErrUnsupportedVectorFormat},
		{"bad direction", Request{RasterPath: grid, Directions: []profile.Direction{{Axis: "A", Name: "B"}}}, profile.ErrInvalidDirection},
		{"nan center", Request{RasterPath: grid, Center: center.Manual{X: math.NaN(), Y: -2}}, geo.ErrInvalidCoordinate},
		{"infinite center", Request{RasterPath: grid, Center: center.Manual{X: 2, Y: math.Inf(-1)}}, geo.ErrInvalidCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(nil).Extract(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}

	_, err := NewExtractor(nil).Extract(context.Background(), Request{RasterPath: filepath.Join(t.TempDir(), "missing.asc")})
	assert.Error(t, err)
}

func TestExtract_CancelledParallel(t *testing.T) {
	grid := writeGrid(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(nil).Extract(ctx, Request{RasterPath: grid, Center: center.Manual{X: 2, Y: -2}, Parallel: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_WritesArtifacts(t *testing.T) {
	grid := writeGrid(t, 12)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Center = config.CenterConfig{X: 6, Y: -6}
	cfg.Output.Dir = dir
	cfg.Output.Filename = "seoul"
	cfg.Output.ChartPNG = "profile.png"
	cfg.Output.ChartHTML = "profile.html"
	cfg.Output.PreviewPNG = filepath.Join(dir, "preview", "rays.png")

	res, err := NewExtractor(nil).Run(context.Background(), cfg, grid)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "seoul.csv"), res.CSVPath)

	for _, name := range []string{"seoul.csv", "profile.png", "profile.html", filepath.Join("preview", "rays.png")} {
		info, err := os.Stat(filepath.Join(dir, name))
		if assert.NoError(t, err, name) {
			assert.Positive(t, info.Size(), name)
		}
	}
}

func TestResult_Preview(t *testing.T) {
	grid := writeGrid(t, 8)
	res, err := NewExtractor(nil).Extract(context.Background(), Request{RasterPath: grid, Center: center.Manual{X: 4, Y: -4}})
	require.NoError(t, err)

	p, err := res.Preview(4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Width)
	assert.Equal(t, 0.5, p.Scale)

	_, err = (&Result{ID: "x"}).Preview(4)
	assert.Error(t, err)
}

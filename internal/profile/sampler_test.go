package profile

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBand is a row-major grid whose value at (r, c) is r*width + c, so every
// cell is distinct and its position can be read back from the value.
type testBand struct {
	height, width int
}

func (b testBand) Dims() (int, int)        { return b.height, b.width }
func (b testBand) At(r, c int) float64     { return float64(r*b.width + c) }
func (b testBand) pos(v float64) (int, int) { return int(v) / b.width, int(v) % b.width }

func recordsFor(recs []Record, name string) []Record {
	var out []Record
	for _, r := range recs {
		if r.SubDirection == name {
			out = append(out, r)
		}
	}
	return out
}

func TestSample_FiveByFiveCenter(t *testing.T) {
	band := testBand{5, 5}
	recs := Sample(band, 2, 2, Compass)

	// Every ray from the center of a 5x5 grid visits 3 cells.
	assert.Len(t, recs, 8*3)

	west := recordsFor(recs, "West")
	want := []Record{
		{Axis: WestEast, SubDirection: "West", Distance: 0, Value: 12, Row: 2, Col: 2},
		{Axis: WestEast, SubDirection: "West", Distance: 1, Value: 11, Row: 2, Col: 1},
		{Axis: WestEast, SubDirection: "West", Distance: 2, Value: 10, Row: 2, Col: 0},
	}
	if diff := cmp.Diff(want, west); diff != "" {
		t.Errorf("West records mismatch (-want +got):\n%s", diff)
	}

	south := recordsFor(recs, "South")
	require.Len(t, south, 3)
	for i, r := range south {
		assert.Equal(t, 2+i, r.Row)
		assert.Equal(t, 2, r.Col)
	}
}

func TestSample_RunLengths(t *testing.T) {
	band := testBand{height: 7, width: 11}

	tests := []struct {
		r0, c0 int
	}{
		{0, 0}, {6, 10}, {3, 4}, {0, 10}, {6, 0}, {2, 9},
	}

	for _, tt := range tests {
		recs := Sample(band, tt.r0, tt.c0, Compass)

		assert.Len(t, recordsFor(recs, "West"), tt.c0+1)
		assert.Len(t, recordsFor(recs, "East"), 11-tt.c0)
		assert.Len(t, recordsFor(recs, "North"), tt.r0+1)
		assert.Len(t, recordsFor(recs, "South"), 7-tt.r0)
		assert.Len(t, recordsFor(recs, "Northwest"), min(tt.r0, tt.c0)+1)
		assert.Len(t, recordsFor(recs, "Southeast"), min(7-tt.r0, 11-tt.c0))
		assert.Len(t, recordsFor(recs, "Northeast"), min(tt.r0+1, 11-tt.c0))
		assert.Len(t, recordsFor(recs, "Southwest"), min(7-tt.r0, tt.c0+1))
		assert.Len(t, recs, TotalLength(band, tt.r0, tt.c0, Compass))
	}
}

func TestSample_InBoundsAndConsistent(t *testing.T) {
	band := testBand{height: 9, width: 4}
	r0, c0 := 5, 1

	steps := make(map[string]Direction)
	for _, d := range Compass {
		steps[d.Name] = d
	}

	for _, rec := range Sample(band, r0, c0, Compass) {
		d := steps[rec.SubDirection]
		wantRow := r0 + rec.Distance*d.RowStep
		wantCol := c0 + rec.Distance*d.ColStep

		assert.Equal(t, d.Axis, rec.Axis)
		assert.Equal(t, wantRow, rec.Row)
		assert.Equal(t, wantCol, rec.Col)
		assert.True(t, wantRow >= 0 && wantRow < 9 && wantCol >= 0 && wantCol < 4, "out of bounds: %+v", rec)

		gotRow, gotCol := band.pos(rec.Value)
		assert.Equal(t, wantRow, gotRow)
		assert.Equal(t, wantCol, gotCol)
	}
}

func TestSample_Ordering(t *testing.T) {
	recs := Sample(testBand{6, 6}, 3, 2, Compass)
	require.NotEmpty(t, recs)

	dirIndex := make(map[string]int)
	for i, d := range Compass {
		dirIndex[d.Name] = i
	}

	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		pi, ci := dirIndex[prev.SubDirection], dirIndex[cur.SubDirection]
		if pi == ci {
			assert.Equal(t, prev.Distance+1, cur.Distance, "distance must increase by one within a ray")
		} else {
			assert.Equal(t, pi+1, ci, "rays must follow compass order")
			assert.Equal(t, 0, cur.Distance, "each ray starts at the center")
		}
	}
}

func TestSample_CenterRecordedPerRay(t *testing.T) {
	band := testBand{5, 5}
	recs := Sample(band, 1, 3, Compass)

	centers := 0
	for _, r := range recs {
		if r.Distance == 0 {
			centers++
			assert.Equal(t, band.At(1, 3), r.Value)
		}
	}
	assert.Equal(t, 8, centers)
}

func TestSample_OutOfBoundsCenter(t *testing.T) {
	band := testBand{5, 5}

	for _, c := range [][2]int{{-1, 2}, {2, -1}, {5, 2}, {2, 5}, {-100, 400}} {
		recs := Sample(band, c[0], c[1], Compass)
		assert.Empty(t, recs, "center %v", c)
		assert.NotNil(t, recs)
	}
}

func TestSample_SinglePixel(t *testing.T) {
	recs := Sample(testBand{1, 1}, 0, 0, Compass)
	require.Len(t, recs, 8)
	for i, r := range recs {
		assert.Equal(t, Compass[i].Name, r.SubDirection)
		assert.Equal(t, 0, r.Distance)
	}
}

func TestWalk_LazyAndRestartable(t *testing.T) {
	band := testBand{4, 4}
	seq := Walk(band, 1, 1, Compass)

	first := collect(seq)
	second := collect(seq)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}

	// Stopping early must not visit further rays.
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestWalk_ZeroStepIsBounded(t *testing.T) {
	dirs := []Direction{{Axis: "Stuck", Name: "Here", RowStep: 0, ColStep: 0}}
	recs := Sample(testBand{3, 5}, 1, 1, dirs)
	assert.Len(t, recs, 6) // max(3, 5) + 1
	assert.Equal(t, 6, RunLength(testBand{3, 5}, 1, 1, dirs[0]))
}

func TestSampleParallel_MatchesSample(t *testing.T) {
	band := testBand{height: 37, width: 53}

	for _, c := range [][2]int{{0, 0}, {18, 26}, {36, 52}, {5, 40}, {-1, 0}} {
		want := Sample(band, c[0], c[1], Compass)
		got, err := SampleParallel(context.Background(), band, c[0], c[1], Compass)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("center %v: parallel mismatch (-want +got):\n%s", c, diff)
		}
	}
}

func TestSampleParallel_WideSteps(t *testing.T) {
	band := testBand{height: 10, width: 9}
	dirs := []Direction{
		{Axis: "Knight", Name: "Down", RowStep: 2, ColStep: 1},
		{Axis: "Knight", Name: "Up", RowStep: -2, ColStep: -1},
		{Axis: "Skip", Name: "East3", RowStep: 0, ColStep: 3},
		{Axis: "Skip", Name: "West3", RowStep: 0, ColStep: -3},
	}

	for _, c := range [][2]int{{0, 0}, {4, 4}, {9, 8}, {5, 2}} {
		want := Sample(band, c[0], c[1], dirs)
		assert.Len(t, want, TotalLength(band, c[0], c[1], dirs), "center %v", c)

		got, err := SampleParallel(context.Background(), band, c[0], c[1], dirs)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("center %v: parallel mismatch (-want +got):\n%s", c, diff)
		}
	}

	// (4,4) stepping (2,1): rows 4,6,8 then row 10 is off the band.
	assert.Len(t, recordsFor(Sample(band, 4, 4, dirs), "Down"), 3)
	// (4,4) stepping 3 columns west: cols 4,1.
	assert.Len(t, recordsFor(Sample(band, 4, 4, dirs), "West3"), 2)
}

func TestSampleParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SampleParallel(ctx, testBand{100, 100}, 50, 50, Compass)
	assert.ErrorIs(t, err, context.Canceled)
}

func collect(seq func(func(Record) bool)) []Record {
	var out []Record
	seq(func(r Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

func TestRecord_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Record{Axis: WestEast, SubDirection: "West", Distance: 2, Value: 301.5, Row: 4, Col: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"direction":"West-East","sub_direction":"West","distance":2,"lst_value":301.5,"row":4,"col":1}`, string(b))

	b, err = json.Marshal([]Record{{Axis: WestEast, SubDirection: "East", Value: math.NaN()}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"direction":"West-East","sub_direction":"East","distance":0,"lst_value":null,"row":0,"col":0}]`, string(b))
}

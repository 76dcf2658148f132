package profile

import (
	"context"
	"encoding/json"
	"iter"
	"math"

	"golang.org/x/sync/errgroup"
)

// Band is a read-only 2D grid of samples addressed by (row, col).
type Band interface {
	// Dims returns the number of rows and columns.
	Dims() (height, width int)

	// At returns the sample at (row, col). Callers only pass in-bounds indices.
	At(row, col int) float64
}

// Record is one sampled pixel on a ray.
type Record struct {
	Axis         string  `json:"direction"`
	SubDirection string  `json:"sub_direction"`
	Distance     int     `json:"distance"`
	Value        float64 `json:"lst_value"`
	Row          int     `json:"row"`
	Col          int     `json:"col"`
}

// MarshalJSON writes NaN and infinite values as null, which JSON cannot
// represent otherwise.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return json.Marshal(struct {
			plain
			Value *float64 `json:"lst_value"`
		}{plain: plain(r)})
	}
	return json.Marshal(plain(r))
}

// Walk returns the records of every ray in dirs order, each ray starting at
// the center pixel (distance 0) and stepping outward until it leaves the band.
// The sequence is lazy and can be ranged over any number of times. A center
// outside the band yields nothing.
func Walk(band Band, centerRow, centerCol int, dirs []Direction) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, d := range dirs {
			if !walkRay(band, centerRow, centerCol, d, yield) {
				return
			}
		}
	}
}

// Sample materializes Walk into a slice. The slice is empty when the center
// lies outside the band.
func Sample(band Band, centerRow, centerCol int, dirs []Direction) []Record {
	out := make([]Record, 0, TotalLength(band, centerRow, centerCol, dirs))
	for rec := range Walk(band, centerRow, centerCol, dirs) {
		out = append(out, rec)
	}
	return out
}

// SampleParallel walks each ray on its own goroutine. Every ray writes into a
// segment of the output reserved up front from RunLength, so the result is
// identical to Sample for any step sizes. It returns ctx.Err() if the context is
// cancelled first.
func SampleParallel(ctx context.Context, band Band, centerRow, centerCol int, dirs []Direction) ([]Record, error) {
	offsets := make([]int, len(dirs)+1)
	for i, d := range dirs {
		offsets[i+1] = offsets[i] + RunLength(band, centerRow, centerCol, d)
	}
	out := make([]Record, offsets[len(dirs)])

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range dirs {
		seg := out[offsets[i]:offsets[i+1]]
		g.Go(func() error {
			n := 0
			walkRay(band, centerRow, centerCol, d, func(rec Record) bool {
				seg[n] = rec
				n++
				return gctx.Err() == nil
			})
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunLength returns how many records the ray d emits from (centerRow, centerCol):
// zero if the center is out of bounds, otherwise the number of in-bounds steps
// including distance 0.
func RunLength(band Band, centerRow, centerCol int, d Direction) int {
	height, width := band.Dims()
	if !inBounds(centerRow, centerCol, height, width) {
		return 0
	}
	n := maxSteps(height, width)
	if d.RowStep != 0 {
		n = min(n, stepsToEdge(centerRow, d.RowStep, height))
	}
	if d.ColStep != 0 {
		n = min(n, stepsToEdge(centerCol, d.ColStep, width))
	}
	return n
}

// TotalLength sums RunLength over dirs.
func TotalLength(band Band, centerRow, centerCol int, dirs []Direction) int {
	total := 0
	for _, d := range dirs {
		total += RunLength(band, centerRow, centerCol, d)
	}
	return total
}

// walkRay emits the records of a single ray and reports whether the consumer
// wants more. The loop is capped at max(height, width)+1 iterations so a zero
// step cannot spin forever.
func walkRay(band Band, centerRow, centerCol int, d Direction, yield func(Record) bool) bool {
	height, width := band.Dims()
	limit := maxSteps(height, width)
	r, c := centerRow, centerCol
	for dist := 0; dist < limit && inBounds(r, c, height, width); dist++ {
		rec := Record{
			Axis:         d.Axis,
			SubDirection: d.Name,
			Distance:     dist,
			Value:        band.At(r, c),
			Row:          r,
			Col:          c,
		}
		if !yield(rec) {
			return false
		}
		r += d.RowStep
		c += d.ColStep
	}
	return true
}

func inBounds(r, c, height, width int) bool {
	return r >= 0 && r < height && c >= 0 && c < width
}

func maxSteps(height, width int) int {
	return max(height, width) + 1
}

// stepsToEdge counts positions pos, pos+step, ... that stay in [0, size).
func stepsToEdge(pos, step, size int) int {
	if step > 0 {
		return (size-1-pos)/step + 1
	}
	return pos/(-step) + 1
}

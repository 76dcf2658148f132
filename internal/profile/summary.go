package profile

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds statistics for the records of one sub-direction. Samples
// equal to the nodata value, NaNs and infinities are excluded from the
// statistics but counted in Samples.
type Summary struct {
	Axis         string  `json:"direction"`
	SubDirection string  `json:"sub_direction"`
	Samples      int     `json:"samples"`
	Valid        int     `json:"valid"`
	MaxDistance  int     `json:"max_distance"`
	Center       float64 `json:"center_value"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`

	// Gradient is the least-squares slope of value against distance, in value
	// units per pixel. Negative slopes mean the center is warmer than its
	// surroundings.
	Gradient float64 `json:"gradient"`
}

// Summarize groups records by sub-direction, in first-seen order, and computes
// a Summary for each. A nil nodata pointer disables nodata filtering.
func Summarize(records []Record, nodata *float64) []Summary {
	type group struct {
		s     Summary
		dist  []float64
		value []float64
	}
	var order []string
	groups := make(map[string]*group)

	for _, rec := range records {
		key := rec.Axis + "/" + rec.SubDirection
		g, ok := groups[key]
		if !ok {
			g = &group{s: Summary{Axis: rec.Axis, SubDirection: rec.SubDirection}}
			groups[key] = g
			order = append(order, key)
		}
		g.s.Samples++
		if rec.Distance == 0 && !math.IsNaN(rec.Value) && !math.IsInf(rec.Value, 0) {
			g.s.Center = rec.Value
		}
		g.s.MaxDistance = max(g.s.MaxDistance, rec.Distance)
		if math.IsNaN(rec.Value) || math.IsInf(rec.Value, 0) || (nodata != nil && rec.Value == *nodata) {
			continue
		}
		g.dist = append(g.dist, float64(rec.Distance))
		g.value = append(g.value, rec.Value)
	}

	out := make([]Summary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		s := g.s
		s.Valid = len(g.value)
		if s.Valid > 0 {
			s.Min = floats.Min(g.value)
			s.Max = floats.Max(g.value)
			s.Mean = stat.Mean(g.value, nil)
		}
		if s.Valid > 1 {
			s.StdDev = stat.StdDev(g.value, nil)
			_, s.Gradient = stat.LinearRegression(g.dist, g.value, nil, false)
		}
		out = append(out, s)
	}
	return out
}

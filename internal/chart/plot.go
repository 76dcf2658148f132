package chart

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/uhi-profile/internal/profile"
)

// Options controls chart rendering.
type Options struct {
	Title    string
	WidthCm  float64
	HeightCm float64

	// NoData values are dropped from the lines, as are NaNs.
	NoData *float64
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "LST profile"
	}
	if o.WidthCm <= 0 {
		o.WidthCm = 20
	}
	if o.HeightCm <= 0 {
		o.HeightCm = 15
	}
	return o
}

// series groups records per sub-direction, keeping dirs order.
type series struct {
	dir    profile.Direction
	points plotter.XYs
}

func groupSeries(records []profile.Record, dirs []profile.Direction, nodata *float64) []series {
	idx := make(map[string]int, len(dirs))
	out := make([]series, len(dirs))
	for i, d := range dirs {
		idx[d.Name] = i
		out[i].dir = d
	}
	for _, r := range records {
		i, ok := idx[r.SubDirection]
		if !ok || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || (nodata != nil && r.Value == *nodata) {
			continue
		}
		out[i].points = append(out[i].points, plotter.XY{X: float64(r.Distance), Y: r.Value})
	}
	return out
}

// WritePNG renders value against distance, one line per sub-direction. Lines
// of the same axis share a color; the second sub-direction is dashed.
func WritePNG(w io.Writer, records []profile.Record, dirs []profile.Direction, opts Options) error {
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Distance from center (pixels)"
	p.Y.Label.Text = "LST value"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	colors := axisColors(dirs)
	seen := make(map[string]bool)
	for _, s := range groupSeries(records, dirs, opts.NoData) {
		if len(s.points) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(s.points)
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", s.dir.Name, err)
		}
		c := colors[s.dir.Axis]
		line.Color = c
		points.Color = c
		points.Radius = vg.Points(1.5)
		if seen[s.dir.Axis] {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		seen[s.dir.Axis] = true

		p.Add(line, points)
		p.Legend.Add(s.dir.Name, line)
	}

	wt, err := p.WriterTo(vg.Length(opts.WidthCm)*vg.Centimeter, vg.Length(opts.HeightCm)*vg.Centimeter, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

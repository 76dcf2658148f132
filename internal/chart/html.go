package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ironsheep/uhi-profile/internal/profile"
)

// WriteHTML renders an interactive line chart of the profile as a
// self-contained HTML page.
func WriteHTML(w io.Writer, records []profile.Record, dirs []profile.Direction, o Options) error {
	o = o.withDefaults()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     fmt.Sprintf("%.0fpx", o.WidthCm*40),
			Height:    fmt.Sprintf("%.0fpx", o.HeightCm*40),
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Distance (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "LST", Scale: opts.Bool(true)}),
	)

	colors := axisColors(dirs)
	seen := make(map[string]bool)
	for _, s := range groupSeries(records, dirs, o.NoData) {
		data := make([]opts.LineData, 0, len(s.points))
		for _, pt := range s.points {
			data = append(data, opts.LineData{Value: []interface{}{pt.X, pt.Y}})
		}

		c := hexColor(colors[s.dir.Axis])
		style := opts.LineStyle{Color: c, Width: 2}
		if seen[s.dir.Axis] {
			style.Type = "dashed"
		}
		seen[s.dir.Axis] = true

		line.AddSeries(s.dir.Name, data,
			charts.WithLineStyleOpts(style),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: c}),
		)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render HTML chart: %w", err)
	}
	return nil
}

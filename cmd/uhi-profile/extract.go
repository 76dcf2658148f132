package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ironsheep/uhi-profile/internal/analysis"
	"github.com/ironsheep/uhi-profile/internal/config"
	"github.com/ironsheep/uhi-profile/internal/raster"
)

type serveFlags struct {
	*flag.FlagSet
	configPath string
}

func newServeFlags() *serveFlags {
	fs := &serveFlags{FlagSet: flag.NewFlagSet("serve", flag.ContinueOnError)}
	fs.StringVar(&fs.configPath, "config", config.DefaultPath, "Config file")
	return fs
}

// extractFlags are command-line overrides for config values. Only flags the
// user sets are applied.
type extractFlags struct {
	*flag.FlagSet
	configPath string

	x, y        float64
	vector      string
	outDir      string
	filename    string
	rounding    string
	parallel    bool
	chartPNG    string
	chartHTML   string
	preview     string
	previewSize int
}

func newExtractFlags() *extractFlags {
	fs := &extractFlags{FlagSet: flag.NewFlagSet("extract", flag.ContinueOnError)}
	fs.StringVar(&fs.configPath, "config", config.DefaultPath, "Config file")
	fs.Float64Var(&fs.x, "x", 0, "Center world X (default from config)")
	fs.Float64Var(&fs.y, "y", 0, "Center world Y (default from config)")
	fs.StringVar(&fs.vector, "vector", "", "Shapefile or GeoJSON giving the center; overrides -x/-y")
	fs.StringVar(&fs.outDir, "out-dir", "", "Output directory")
	fs.StringVar(&fs.filename, "filename", "", "CSV file name (.csv appended when missing)")
	fs.StringVar(&fs.rounding, "rounding", "", "Pixel rounding: floor or truncate")
	fs.BoolVar(&fs.parallel, "parallel", false, "Walk rays concurrently")
	fs.StringVar(&fs.chartPNG, "chart-png", "", "Write a PNG chart to this file")
	fs.StringVar(&fs.chartHTML, "chart-html", "", "Write an HTML chart to this file")
	fs.StringVar(&fs.preview, "preview", "", "Write a raster preview PNG to this file")
	fs.IntVar(&fs.previewSize, "preview-size", 0, "Longest preview edge in pixels")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: uhi-profile extract [options] <raster.tif|raster.asc>")
		fs.PrintDefaults()
	}
	return fs
}

// apply copies the flags that were set onto cfg and revalidates it.
func (fs *extractFlags) apply(cfg *config.Config) error {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x":
			cfg.Center.X = fs.x
		case "y":
			cfg.Center.Y = fs.y
		case "vector":
			cfg.VectorPath = fs.vector
		case "out-dir":
			cfg.Output.Dir = fs.outDir
		case "filename":
			cfg.Output.Filename = fs.filename
		case "rounding":
			cfg.Rounding = fs.rounding
		case "parallel":
			cfg.Parallel = fs.parallel
		case "chart-png":
			cfg.Output.ChartPNG = fs.chartPNG
		case "chart-html":
			cfg.Output.ChartHTML = fs.chartHTML
		case "preview":
			cfg.Output.PreviewPNG = fs.preview
		case "preview-size":
			cfg.Preview.MaxSize = fs.previewSize
		}
	})
	return cfg.Validate()
}

func newExtractor() *analysis.Extractor {
	return analysis.NewExtractor(raster.NewCache())
}

func printSummary(w io.Writer, res *analysis.Result) {
	fmt.Fprintf(w, "Center (%g, %g) -> pixel (%d, %d)", res.Center.X, res.Center.Y, res.Row, res.Col)
	if !res.InBounds {
		fmt.Fprint(w, " outside raster")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d records written to %s\n", len(res.Records), res.CSVPath)
	if len(res.Summaries) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Direction\tSub-Direction\tSamples\tCenter\tMin\tMax\tMean\tGradient/px")
	for _, s := range res.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.4f\n",
			s.Axis, s.SubDirection, s.Samples, s.Center, s.Min, s.Max, s.Mean, s.Gradient)
	}
	tw.Flush()
}

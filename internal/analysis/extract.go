package analysis

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/uhi-profile/internal/center"
	"github.com/ironsheep/uhi-profile/internal/chart"
	"github.com/ironsheep/uhi-profile/internal/config"
	"github.com/ironsheep/uhi-profile/internal/geo"
	"github.com/ironsheep/uhi-profile/internal/profile"
	"github.com/ironsheep/uhi-profile/internal/raster"
)

// Request describes one extraction.
type Request struct {
	RasterPath string
	Center     center.Source
	Rounding   geo.Rounding

	// Directions defaults to profile.Compass when empty.
	Directions []profile.Direction

	Parallel bool

	// CSVPath is where the table is written. Empty skips the file.
	CSVPath string
}

// Result is a completed extraction.
type Result struct {
	ID         string              `json:"run_id"`
	RasterPath string              `json:"raster_path"`
	Center     center.Point        `json:"center"`
	Row        int                 `json:"center_row"`
	Col        int                 `json:"center_col"`
	InBounds   bool                `json:"in_bounds"`
	Format     string              `json:"sample_format"`
	Directions []profile.Direction `json:"-"`
	Records    []profile.Record    `json:"records"`
	Summaries  []profile.Summary   `json:"summaries"`
	CSVPath    string              `json:"csv_path,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`

	band *raster.Grid
}

// Extractor runs extractions against rasters held in a cache.
type Extractor struct {
	cache *raster.Cache
}

// NewExtractor creates an extractor. A nil cache gets a fresh one.
func NewExtractor(cache *raster.Cache) *Extractor {
	if cache == nil {
		cache = raster.NewCache()
	}
	return &Extractor{cache: cache}
}

// Extract opens the raster, resolves the center, maps it to a pixel, walks the
// rays and writes the CSV. A center outside the raster is not an error: the
// result has no records and the CSV holds only the header.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if req.Center == nil {
		req.Center = center.DefaultManual()
	}
	dirs := req.Directions
	if len(dirs) == 0 {
		dirs = profile.CompassDirections()
	} else if err := profile.ValidateDirections(dirs); err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"raster": req.RasterPath,
		"center": req.Center.String(),
	})

	ds, band, err := e.cache.Load(req.RasterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load raster: %w", err)
	}

	pt, err := req.Center.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve center: %w", err)
	}

	row, col, err := ds.Transform().ToPixelWith(pt.X, pt.Y, req.Rounding)
	if err != nil {
		return nil, fmt.Errorf("failed to map center: %w", err)
	}
	log = log.WithFields(logrus.Fields{"row": row, "col": col})

	res := &Result{
		ID:         uuid.NewString(),
		RasterPath: req.RasterPath,
		Center:     pt,
		Row:        row,
		Col:        col,
		InBounds:   band.Contains(row, col),
		Format:     band.Format.String(),
		Directions: dirs,
		CreatedAt:  time.Now().UTC(),
		band:       band,
	}
	if !res.InBounds {
		log.WithFields(logrus.Fields{"width": band.Width, "height": band.Height}).
			Warn("center is outside the raster, profile is empty")
	}

	if req.Parallel {
		res.Records, err = profile.SampleParallel(ctx, band, row, col, dirs)
		if err != nil {
			return nil, fmt.Errorf("failed to sample rays: %w", err)
		}
	} else {
		res.Records = profile.Sample(band, row, col, dirs)
	}
	res.Summaries = profile.Summarize(res.Records, band.NoData)

	if req.CSVPath != "" {
		if err := writeCSV(req.CSVPath, res.Records, band.Format.BitSize()); err != nil {
			return nil, err
		}
		res.CSVPath = req.CSVPath
	}

	log.WithFields(logrus.Fields{
		"run_id":  res.ID,
		"records": len(res.Records),
		"csv":     res.CSVPath,
	}).Info("profile extracted")

	return res, nil
}

func writeCSV(path string, records []profile.Record, bitSize int) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := profile.WriteCSV(f, records, bitSize); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// NoData returns the band's nodata marker, or nil.
func (r *Result) NoData() *float64 {
	if r.band == nil {
		return nil
	}
	return r.band.NoData
}

// WriteChartPNG renders the static chart to path.
func (r *Result) WriteChartPNG(path string, o chart.Options) error {
	return r.writeChart(path, o, chart.WritePNG)
}

// WriteChartHTML renders the interactive chart to path.
func (r *Result) WriteChartHTML(path string, o chart.Options) error {
	return r.writeChart(path, o, chart.WriteHTML)
}

type chartWriter func(w io.Writer, records []profile.Record, dirs []profile.Direction, o chart.Options) error

func (r *Result) writeChart(path string, o chart.Options, write chartWriter) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if o.Title == "" {
		o.Title = fmt.Sprintf("LST profile at (%g, %g)", r.Center.X, r.Center.Y)
	}
	o.NoData = r.NoData()
	if err := write(f, r.Records, r.Directions, o); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{"run_id": r.ID, "path": path}).Info("chart written")
	return nil
}

// Preview renders the raster with the rays drawn on it.
func (r *Result) Preview(maxSize int) (*chart.PreviewResult, error) {
	if r.band == nil {
		return nil, fmt.Errorf("run %s has no raster band", r.ID)
	}
	return chart.Preview(r.band, r.Records, r.Directions, r.Row, r.Col, maxSize)
}

// WritePreview renders the preview and saves it to path.
func (r *Result) WritePreview(path string, maxSize int) (*chart.PreviewResult, error) {
	p, err := r.Preview(maxSize)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	if err := p.SavePNG(path); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"run_id": r.ID, "path": path}).Info("preview written")
	return p, nil
}

// RequestFromConfig builds the request for rasterPath from cfg.
func RequestFromConfig(cfg config.Config, rasterPath string) Request {
	return Request{
		RasterPath: rasterPath,
		Center:     cfg.CenterSource(),
		Rounding:   cfg.RoundingMode(),
		Directions: cfg.Rays(),
		Parallel:   cfg.Parallel,
		CSVPath:    cfg.OutputPath(),
	}
}

// Run extracts the profile for rasterPath and writes the chart and preview
// artifacts named in cfg.Output. Relative artifact paths are resolved against
// the output directory.
func (e *Extractor) Run(ctx context.Context, cfg config.Config, rasterPath string) (*Result, error) {
	res, err := e.Extract(ctx, RequestFromConfig(cfg, rasterPath))
	if err != nil {
		return nil, err
	}

	opts := chart.Options{WidthCm: cfg.Chart.WidthCm, HeightCm: cfg.Chart.HeightCm}
	if p := cfg.Output.ChartPNG; p != "" {
		if err := res.WriteChartPNG(artifactPath(cfg.Output.Dir, p), opts); err != nil {
			return res, err
		}
	}
	if p := cfg.Output.ChartHTML; p != "" {
		if err := res.WriteChartHTML(artifactPath(cfg.Output.Dir, p), opts); err != nil {
			return res, err
		}
	}
	if p := cfg.Output.PreviewPNG; p != "" {
		if _, err := res.WritePreview(artifactPath(cfg.Output.Dir, p), cfg.Preview.MaxSize); err != nil {
			return res, err
		}
	}
	return res, nil
}

func artifactPath(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

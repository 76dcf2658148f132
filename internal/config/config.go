// Package config loads uhi-profile settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/uhi-profile/internal/center"
	"github.com/ironsheep/uhi-profile/internal/geo"
	"github.com/ironsheep/uhi-profile/internal/profile"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "uhi-profile.yaml"

// Config holds all settings for an extraction run.
type Config struct {
	// Center is the manual center coordinate.
	Center CenterConfig `yaml:"center"`

	// VectorPath, when set, takes the center from a Shapefile or GeoJSON.
	VectorPath string `yaml:"vector_path"`

	// Rounding is "floor" or "truncate".
	Rounding string `yaml:"rounding"`

	// Parallel walks the rays concurrently.
	Parallel bool `yaml:"parallel"`

	LogLevel string `yaml:"log_level"`

	Output OutputConfig `yaml:"output"`

	Chart ChartConfig `yaml:"chart"`

	Preview PreviewConfig `yaml:"preview"`

	// Directions replaces the eight compass rays when non-empty.
	Directions []profile.Direction `yaml:"directions"`
}

// CenterConfig is a world coordinate.
type CenterConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`

	// Optional artifacts, written next to the CSV when set.
	ChartPNG   string `yaml:"chart_png"`
	ChartHTML  string `yaml:"chart_html"`
	PreviewPNG string `yaml:"preview_png"`
}

// ChartConfig sizes the PNG chart.
type ChartConfig struct {
	WidthCm  float64 `yaml:"width_cm"`
	HeightCm float64 `yaml:"height_cm"`
}

// PreviewConfig sizes the raster preview.
type PreviewConfig struct {
	// MaxSize bounds the longer preview edge in pixels.
	MaxSize int `yaml:"max_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Center:   CenterConfig{X: center.DefaultX, Y: center.DefaultY},
		Rounding: geo.Floor.String(),
		LogLevel: "info",
		Output: OutputConfig{
			Dir:      "./",
			Filename: "output.csv",
		},
		Chart: ChartConfig{
			WidthCm:  20,
			HeightCm: 15,
		},
		Preview: PreviewConfig{
			MaxSize: 1024,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.WithField("path", path).Debug("no config file, using defaults")
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := geo.ParseRounding(c.Rounding); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Output.Filename == "" {
		return errors.New("output.filename must not be empty")
	}
	if c.Chart.WidthCm <= 0 || c.Chart.HeightCm <= 0 {
		return fmt.Errorf("chart size %gx%g cm must be positive", c.Chart.WidthCm, c.Chart.HeightCm)
	}
	if c.Preview.MaxSize <= 0 {
		return fmt.Errorf("preview.max_size %d must be positive", c.Preview.MaxSize)
	}
	if len(c.Directions) > 0 {
		if err := profile.ValidateDirections(c.Directions); err != nil {
			return err
		}
	}
	return nil
}

// RoundingMode returns the parsed rounding mode.
func (c Config) RoundingMode() geo.Rounding {
	r, _ := geo.ParseRounding(c.Rounding)
	return r
}

// Rays returns the configured directions, or the compass rays.
func (c Config) Rays() []profile.Direction {
	if len(c.Directions) > 0 {
		return c.Directions
	}
	return profile.CompassDirections()
}

// CenterSource returns the configured center source.
func (c Config) CenterSource() center.Source {
	return center.Select(c.VectorPath, c.Center.X, c.Center.Y)
}

// OutputPath joins the output directory and filename, appending ".csv" when
// the filename lacks it.
func (c Config) OutputPath() string {
	return CSVPath(c.Output.Dir, c.Output.Filename)
}

// CSVPath joins dir and name, appending ".csv" when name lacks it.
func CSVPath(dir, name string) string {
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

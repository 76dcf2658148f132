package raster

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/uhi-profile/internal/geo"
)

var (
	// ErrUnsupportedFormat is returned by Open for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported raster format")

	// ErrUnsupportedLayout is returned for files whose encoding this package
	// cannot decode (BigTIFF, compressed floating point, odd bit depths).
	ErrUnsupportedLayout = errors.New("unsupported raster layout")

	// ErrBandIndex is returned by ReadBand for an index outside 1..BandCount.
	ErrBandIndex = errors.New("band index out of range")
)

// Dataset is an opened raster file.
type Dataset interface {
	Path() string
	Driver() string
	Width() int
	Height() int
	BandCount() int

	// Transform is the file's geotransform, or geo.Identity when Georeferenced
	// reports false.
	Transform() geo.Transform
	Georeferenced() bool

	// ReadBand decodes band index (1-based) into memory.
	ReadBand(index int) (*Grid, error)
}

// Raster is the Dataset implementation shared by the file readers.
type Raster struct {
	path      string
	driver    string
	width     int
	height    int
	bands     int
	transform geo.Transform
	georef    bool
	readBand  func(index int) (*Grid, error)
}

func (r *Raster) Path() string             { return r.path }
func (r *Raster) Driver() string           { return r.driver }
func (r *Raster) Width() int               { return r.width }
func (r *Raster) Height() int              { return r.height }
func (r *Raster) BandCount() int           { return r.bands }
func (r *Raster) Transform() geo.Transform { return r.transform }
func (r *Raster) Georeferenced() bool      { return r.georef }

// ReadBand decodes the given 1-based band.
func (r *Raster) ReadBand(index int) (*Grid, error) {
	if index < 1 || index > r.bands {
		return nil, fmt.Errorf("%w: %d (raster has %d)", ErrBandIndex, index, r.bands)
	}
	return r.readBand(index)
}

// Open reads the raster at path, choosing a reader from the file extension:
// .tif/.tiff for GeoTIFF, .asc/.grd for ESRI ASCII grids.
func Open(path string) (*Raster, error) {
	var (
		r   *Raster
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		r, err = OpenGeoTIFF(path)
	case ".asc", ".grd":
		r, err = OpenASCIIGrid(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"path":   path,
		"driver": r.driver,
		"width":  r.width,
		"height": r.height,
		"bands":  r.bands,
	}
	if !r.georef {
		logrus.WithFields(fields).Warn("raster has no georeferencing, using pixel coordinates")
	} else {
		logrus.WithFields(fields).Debug("opened raster")
	}
	return r, nil
}

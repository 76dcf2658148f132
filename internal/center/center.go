// Package center resolves the world coordinate a profile is centered on.
//
// A Source is either Manual (coordinates typed in by the user) or
// FromVectorFile (the first point of the first feature in a Shapefile or
// GeoJSON file). Sources are resolved once, before sampling; the sampler never
// sees which kind produced the point.
package center

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/uhi-profile/internal/geo"
)

// Default manual coordinates (UTM metres).
const (
	DefaultX = 320953
	DefaultY = 4159672
)

var (
	// ErrNoFeature is returned when a vector file has no features.
	ErrNoFeature = errors.New("vector file has no features")

	// ErrUnsupportedGeometry is returned when the first feature has no point.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")

	// ErrUnsupportedVectorFormat is returned for unknown vector file extensions.
	ErrUnsupportedVectorFormat = errors.New("unsupported vector format")
)

// Point is a world coordinate in the raster's reference system.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Source yields the profile center.
type Source interface {
	Resolve() (Point, error)
	String() string
}

// Manual is a coordinate entered directly.
type Manual struct {
	X, Y float64
}

// DefaultManual returns the Manual source with the default coordinates.
func DefaultManual() Manual {
	return Manual{X: DefaultX, Y: DefaultY}
}

// Resolve returns the coordinate, rejecting NaN and infinities.
func (m Manual) Resolve() (Point, error) {
	if math.IsNaN(m.X) || math.IsNaN(m.Y) || math.IsInf(m.X, 0) || math.IsInf(m.Y, 0) {
		return Point{}, fmt.Errorf("%w: manual coordinate (%g, %g) is not finite", geo.ErrInvalidCoordinate, m.X, m.Y)
	}
	return Point{X: m.X, Y: m.Y}, nil
}

func (m Manual) String() string {
	return fmt.Sprintf("manual(%g, %g)", m.X, m.Y)
}

// FromVectorFile takes the first point of the first feature in a vector file.
// Supported extensions are .shp and .geojson/.json.
type FromVectorFile struct {
	Path string
}

// Resolve opens the file and extracts the point.
func (v FromVectorFile) Resolve() (Point, error) {
	switch strings.ToLower(filepath.Ext(v.Path)) {
	case ".shp":
		return firstShapefilePoint(v.Path)
	case ".geojson", ".json":
		return firstGeoJSONPoint(v.Path)
	default:
		return Point{}, fmt.Errorf("%w: %s", ErrUnsupportedVectorFormat, v.Path)
	}
}

func (v FromVectorFile) String() string {
	return "vector(" + v.Path + ")"
}

// Select builds a Source: a non-empty vectorPath wins over the manual
// coordinates.
func Select(vectorPath string, x, y float64) Source {
	if vectorPath != "" {
		return FromVectorFile{Path: vectorPath}
	}
	return Manual{X: x, Y: y}
}

func firstShapefilePoint(path string) (Point, error) {
	r, err := shp.Open(path)
	if err != nil {
		return Point{}, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer r.Close()

	if !r.Next() {
		if err := r.Err(); err != nil {
			return Point{}, fmt.Errorf("%w: %s: %v", ErrNoFeature, path, err)
		}
		return Point{}, fmt.Errorf("%w: %s", ErrNoFeature, path)
	}
	_, shape := r.Shape()

	switch s := shape.(type) {
	case *shp.Point:
		return Point{X: s.X, Y: s.Y}, nil
	case *shp.PointZ:
		return Point{X: s.X, Y: s.Y}, nil
	case *shp.PointM:
		return Point{X: s.X, Y: s.Y}, nil
	case *shp.MultiPoint:
		return firstShpPoint(s.Points, path)
	case *shp.PolyLine:
		return firstShpPoint(s.Points, path)
	case *shp.Polygon:
		return firstShpPoint(s.Points, path)
	default:
		return Point{}, fmt.Errorf("%w: %T in %s", ErrUnsupportedGeometry, shape, path)
	}
}

func firstShpPoint(pts []shp.Point, path string) (Point, error) {
	if len(pts) == 0 {
		return Point{}, fmt.Errorf("%w: empty geometry in %s", ErrUnsupportedGeometry, path)
	}
	return Point{X: pts[0].X, Y: pts[0].Y}, nil
}

func firstGeoJSONPoint(path string) (Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Point{}, fmt.Errorf("failed to read GeoJSON: %w", err)
	}

	var geom orb.Geometry
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && len(fc.Features) > 0 {
		geom = fc.Features[0].Geometry
	} else if f, ferr := geojson.UnmarshalFeature(data); ferr == nil && f.Geometry != nil {
		geom = f.Geometry
	} else if err == nil {
		return Point{}, fmt.Errorf("%w: %s", ErrNoFeature, path)
	} else {
		return Point{}, fmt.Errorf("failed to parse GeoJSON %s: %w", path, err)
	}

	p, ok := firstOrbPoint(geom)
	if !ok {
		return Point{}, fmt.Errorf("%w: %T in %s", ErrUnsupportedGeometry, geom, path)
	}
	return Point{X: p.X(), Y: p.Y()}, nil
}

func firstOrbPoint(g orb.Geometry) (orb.Point, bool) {
	switch g := g.(type) {
	case orb.Point:
		return g, true
	case orb.MultiPoint:
		if len(g) > 0 {
			return g[0], true
		}
	case orb.LineString:
		if len(g) > 0 {
			return g[0], true
		}
	case orb.Ring:
		if len(g) > 0 {
			return g[0], true
		}
	case orb.Polygon:
		if len(g) > 0 {
			return firstOrbPoint(g[0])
		}
	case orb.MultiLineString:
		if len(g) > 0 {
			return firstOrbPoint(g[0])
		}
	case orb.MultiPolygon:
		if len(g) > 0 {
			return firstOrbPoint(g[0])
		}
	case orb.Collection:
		if len(g) > 0 {
			return firstOrbPoint(g[0])
		}
	}
	return orb.Point{}, false
}

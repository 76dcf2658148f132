package raster

import (
	"fmt"
	"os"
	"sync"

	"github.com/ironsheep/uhi-profile/internal/geo"
)

// Cache provides thread-safe caching of opened rasters and their decoded
// first band, so repeated profiles over the same scene read the file once.
//
// Entries stay in memory until Evict or Clear. A Landsat scene band is on the
// order of 60M samples, so long-running servers should evict rasters they are
// done with.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	raster *Raster
	band   *Grid
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
	}
}

// Load returns the raster at path and its band 1, opening and decoding the
// file on first use. The path string is the cache key; different spellings of
// the same file are cached separately.
func (c *Cache) Load(path string) (*Raster, *Grid, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e.raster, e.band, nil
	}
	c.mu.RUnlock()

	r, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	band, err := r.ReadBand(1)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.entries[path] = &cacheEntry{raster: r, band: band}
	c.mu.Unlock()

	return r, band, nil
}

// Len returns the number of cached rasters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every cached raster.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Evict removes the raster cached under path, if any.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Info describes a raster file.
type Info struct {
	Path          string        `json:"path"`
	Driver        string        `json:"driver"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	BandCount     int           `json:"band_count"`
	Georeferenced bool          `json:"georeferenced"`
	GeoTransform  geo.Transform `json:"geotransform"`
	SampleFormat  string        `json:"sample_format"`
	NoData        *float64      `json:"nodata,omitempty"`

	// Bounds is the world extent as [minX, minY, maxX, maxY].
	Bounds [4]float64 `json:"bounds"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Describe loads the raster through the cache and reports its metadata.
func Describe(cache *Cache, path string) (*Info, error) {
	r, band, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	t := r.Transform()
	x0, y0 := t.ToWorld(0, 0)
	x1, y1 := t.ToWorld(r.Height(), r.Width())

	return &Info{
		Path:          path,
		Driver:        r.Driver(),
		Width:         r.Width(),
		Height:        r.Height(),
		BandCount:     r.BandCount(),
		Georeferenced: r.Georeferenced(),
		GeoTransform:  t,
		SampleFormat:  band.Format.String(),
		NoData:        band.NoData,
		Bounds:        [4]float64{min(x0, x1), min(y0, y1), max(x0, x1), max(y0, y1)},
		FileSizeBytes: stat.Size(),
	}, nil
}

// Package raster reads single-scene rasters into memory for profiling.
//
// Two file formats are supported:
//   - GeoTIFF (.tif, .tiff): classic little- or big-endian TIFF. Uncompressed
//     stripped images of 8/16/32/64-bit integers or 32/64-bit floats are read
//     directly; compressed or tiled integer images up to 16 bits are decoded
//     with golang.org/x/image/tiff. The geotransform comes from
//     ModelTransformation or ModelTiepoint+ModelPixelScale, and nodata from the
//     GDAL_NODATA tag.
//   - ESRI ASCII grid (.asc, .grd).
//
// Files without georeferencing open with geo.Identity, so world coordinates
// are plain (col, row) pixel offsets.
//
// # Bands
//
// Band indices are 1-based as in GDAL. Values are held as float64 whatever the
// storage type; Grid.Format keeps the original type so serializers can print
// float32 samples without widening noise.
//
// # Thread Safety
//
// Cache is safe for concurrent use. Grids returned from the cache are shared
// and must be treated as read-only.
package raster

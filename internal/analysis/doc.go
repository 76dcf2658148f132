// Package analysis runs the profile extraction pipeline.
//
// An Extractor opens a raster through a shared cache, resolves the center
// Source, maps it to a pixel with the raster's geotransform, samples the rays
// and writes the CSV table. Each Result carries a run ID so servers can keep
// results around and render charts or previews later.
//
// A center that maps outside the raster yields an empty Result and a
// header-only CSV; it is logged as a warning, not returned as an error.
package analysis

// Package chart renders profile results as images.
//
// WritePNG draws a static line chart with gonum/plot, WriteHTML an
// interactive go-echarts page. Both plot value against distance with one
// line per sub-direction; the two sub-directions of an axis share a color
// and the second is dashed.
//
// Preview colors the raster band itself, overlays the sampled ray pixels and
// marks the center, which makes it easy to check that the center landed where
// expected. Large rasters are shrunk with nearest-neighbor resampling.
package chart

// Package profile samples a raster band along straight rays from a center
// pixel and serializes the samples.
//
// # Rays
//
// A Direction is a unit step (row, col) with an axis and sub-direction name.
// Compass lists the eight rays used by default, grouped into four axes:
//
//	West-East            West (0,-1)       East (0,+1)
//	North-South          North (-1,0)      South (+1,0)
//	Northwest-Southeast  Northwest (-1,-1) Southeast (+1,+1)
//	Northeast-Southwest  Northeast (-1,+1) Southwest (+1,-1)
//
// Each ray starts at the center (distance 0) and advances one pixel per
// distance step until it leaves the band, so the center value appears once per
// ray. Records are ordered by ray, then by increasing distance. A center
// outside the band produces no records; that is a normal result, not an error.
//
// # Tables
//
// WriteCSV and ReadCSV handle the on-disk form:
//
//	Direction,Sub-Direction,Distance,LST Value
//	West-East,West,0,301.25
//
// # Concurrency
//
// Sample and Walk run on the caller's goroutine. SampleParallel fans the rays
// out with errgroup; all functions only read the band.
package profile

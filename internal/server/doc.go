// Package server implements the MCP (Model Context Protocol) server for LST
// radial profiles.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with protocol traffic.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Raster Inspection:
//   - lst_raster_info: Size, geotransform, sample format and nodata of a raster
//   - lst_world_to_pixel: Map a world coordinate to a pixel index
//
// Profile Extraction:
//   - lst_radial_profile: Sample eight compass rays from a center, write CSV
//
// Rendering:
//   - lst_profile_chart: PNG or HTML chart of a profile run
//   - lst_profile_preview: Raster preview with the rays drawn on it
//
// # Runs
//
// Every lst_radial_profile call gets a run_id. The server keeps the most
// recent runs in memory so chart and preview calls can refer to them without
// resampling. Rasters are cached by path for the lifetime of the process.
//
// Arguments a call leaves out fall back to the server's config.Config, which
// the CLI loads from uhi-profile.yaml.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A center outside the raster is not an error; lst_radial_profile returns
// in_bounds false, zero records and a header-only CSV.
//
// # Usage
//
//	srv := server.New(config.Default())
//	if err := srv.Run(ctx); err != nil {
//	    logrus.Fatal(err)
//	}
package server

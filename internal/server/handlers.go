package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/uhi-profile/internal/analysis"
	"github.com/ironsheep/uhi-profile/internal/center"
	"github.com/ironsheep/uhi-profile/internal/chart"
	"github.com/ironsheep/uhi-profile/internal/config"
	"github.com/ironsheep/uhi-profile/internal/geo"
	"github.com/ironsheep/uhi-profile/internal/profile"
	"github.com/ironsheep/uhi-profile/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lst_radial_profile").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		logrus.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Raster Inspection
	case "lst_raster_info":
		return s.handleRasterInfo(args)
	case "lst_world_to_pixel":
		return s.handleWorldToPixel(args)

	// Profile Extraction
	case "lst_radial_profile":
		return s.handleRadialProfile(ctx, args)

	// Rendering
	case "lst_profile_chart":
		return s.handleProfileChart(args)
	case "lst_profile_preview":
		return s.handleProfilePreview(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Raster Inspection Handlers ===

type rasterInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleRasterInfo(args json.RawMessage) (interface{}, error) {
	var a rasterInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return raster.Describe(s.cache, a.Path)
}

type worldToPixelArgs struct {
	Path     string  `json:"path"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rounding string  `json:"rounding"`
}

type worldToPixelResult struct {
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	InBounds bool     `json:"in_bounds"`
	Rounding string   `json:"rounding"`
	Value    *float64 `json:"value,omitempty"`
}

func (s *Server) handleWorldToPixel(args json.RawMessage) (interface{}, error) {
	var a worldToPixelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	mode := s.cfg.RoundingMode()
	if a.Rounding != "" {
		m, err := geo.ParseRounding(a.Rounding)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	ds, band, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	row, col, err := ds.Transform().ToPixelWith(a.X, a.Y, mode)
	if err != nil {
		return nil, err
	}

	res := &worldToPixelResult{
		Row:      row,
		Col:      col,
		InBounds: band.Contains(row, col),
		Rounding: mode.String(),
	}
	if res.InBounds {
		v := band.At(row, col)
		res.Value = &v
	}
	return res, nil
}

// === Profile Extraction Handlers ===

type radialProfileArgs struct {
	Path           string   `json:"path"`
	X              *float64 `json:"x"`
	Y              *float64 `json:"y"`
	VectorPath     string   `json:"vector_path"`
	OutputDir      string   `json:"output_dir"`
	Filename       string   `json:"filename"`
	Parallel       *bool    `json:"parallel"`
	IncludeRecords *bool    `json:"include_records"`
}

type radialProfileResult struct {
	RunID       string            `json:"run_id"`
	Center      center.Point      `json:"center"`
	Row         int               `json:"center_row"`
	Col         int               `json:"center_col"`
	InBounds    bool              `json:"in_bounds"`
	RecordCount int               `json:"record_count"`
	CSVPath     string            `json:"csv_path"`
	Summaries   []profile.Summary `json:"summaries"`
	Records     []profile.Record  `json:"records,omitempty"`
}

func (s *Server) handleRadialProfile(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a radialProfileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	cfg := s.cfg
	if a.X != nil {
		cfg.Center.X = *a.X
	}
	if a.Y != nil {
		cfg.Center.Y = *a.Y
	}
	if a.VectorPath != "" {
		cfg.VectorPath = a.VectorPath
	}
	if a.OutputDir != "" {
		cfg.Output.Dir = a.OutputDir
	}
	if a.Filename != "" {
		cfg.Output.Filename = a.Filename
	}
	if a.Parallel != nil {
		cfg.Parallel = *a.Parallel
	}

	res, err := s.extractor.Extract(ctx, analysis.RequestFromConfig(cfg, a.Path))
	if err != nil {
		return nil, err
	}
	s.remember(res)

	out := &radialProfileResult{
		RunID:       res.ID,
		Center:      res.Center,
		Row:         res.Row,
		Col:         res.Col,
		InBounds:    res.InBounds,
		RecordCount: len(res.Records),
		CSVPath:     res.CSVPath,
		Summaries:   res.Summaries,
	}
	if a.IncludeRecords != nil && *a.IncludeRecords {
		out.Records = res.Records
	}
	return out, nil
}

// === Rendering Handlers ===

type profileChartArgs struct {
	RunID      string `json:"run_id"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

type writtenResult struct {
	RunID  string `json:"run_id"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (s *Server) handleProfileChart(args json.RawMessage) (interface{}, error) {
	var a profileChartArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	if a.Format == "" {
		a.Format = "png"
	}

	res, err := s.lookup(a.RunID)
	if err != nil {
		return nil, err
	}

	opts := chartOptions(s.cfg)
	switch a.Format {
	case "png":
		err = res.WriteChartPNG(a.OutputPath, opts)
	case "html":
		err = res.WriteChartHTML(a.OutputPath, opts)
	default:
		return nil, fmt.Errorf("unknown chart format: %s (use png or html)", a.Format)
	}
	if err != nil {
		return nil, err
	}
	return &writtenResult{RunID: res.ID, Path: a.OutputPath, Format: a.Format}, nil
}

func chartOptions(cfg config.Config) chart.Options {
	return chart.Options{WidthCm: cfg.Chart.WidthCm, HeightCm: cfg.Chart.HeightCm}
}

type profilePreviewArgs struct {
	RunID      string `json:"run_id"`
	OutputPath string `json:"output_path"`
	MaxSize    int    `json:"max_size"`
}

type previewResult struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
	*chart.PreviewResult
}

func (s *Server) handleProfilePreview(args json.RawMessage) (interface{}, error) {
	var a profilePreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	if a.MaxSize == 0 {
		a.MaxSize = s.cfg.Preview.MaxSize
	}

	res, err := s.lookup(a.RunID)
	if err != nil {
		return nil, err
	}
	p, err := res.WritePreview(a.OutputPath, a.MaxSize)
	if err != nil {
		return nil, err
	}
	return &previewResult{RunID: res.ID, Path: a.OutputPath, PreviewResult: p}, nil
}

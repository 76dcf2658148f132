package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Raster Inspection
		{
			Name:        "lst_raster_info",
			Description: "Open a land surface temperature raster (GeoTIFF or ESRI ASCII grid) and report its size, band count, geotransform, sample format, nodata value and world bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the raster file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lst_world_to_pixel",
			Description: "Map a world coordinate (in the raster's reference system) to a (row, col) pixel index and report whether it lies inside the raster.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the raster file",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "World X (easting)",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "World Y (northing)",
					},
					"rounding": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"floor", "truncate"},
						"description": "How fractional pixel positions become indices. Default from config (floor)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Profile Extraction
		{
			Name:        "lst_radial_profile",
			Description: "Sample the raster along eight compass rays (West, East, North, South, Northwest, Southeast, Northeast, Southwest) from a center point to the raster edge and write the samples as CSV. Returns a run_id for chart and preview calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the raster file",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Center world X. Default from config (320953)",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Center world Y. Default from config (4159672)",
					},
					"vector_path": map[string]interface{}{
						"type":        "string",
						"description": "Shapefile or GeoJSON whose first feature's first point is the center. Overrides x and y",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for the CSV. Default from config",
					},
					"filename": map[string]interface{}{
						"type":        "string",
						"description": "CSV file name; .csv is appended when missing. Default from config",
					},
					"parallel": map[string]interface{}{
						"type":        "boolean",
						"description": "Walk the rays concurrently",
					},
					"include_records": map[string]interface{}{
						"type":        "boolean",
						"description": "Return every sample in the response, not just the summaries. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Rendering
		{
			Name:        "lst_profile_chart",
			Description: "Render a profile run as a line chart of value against distance, one line per sub-direction. PNG is static; HTML is interactive.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"run_id": map[string]interface{}{
						"type":        "string",
						"description": "run_id returned by lst_radial_profile",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "html"},
						"description": "Chart format. Default png",
						"default":     "png",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the chart file to write",
					},
				},
				"required": []string{"run_id", "output_path"},
			},
		},
		{
			Name:        "lst_profile_preview",
			Description: "Render the raster of a profile run with the sampled rays drawn on it and the center marked, save it as PNG and return it base64-encoded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"run_id": map[string]interface{}{
						"type":        "string",
						"description": "run_id returned by lst_radial_profile",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the PNG to write",
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest edge of the preview in pixels. Default from config (1024)",
					},
				},
				"required": []string{"run_id", "output_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

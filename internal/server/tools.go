package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photo file",
	}
}

func hsvProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "integer"},
		"minItems":    3,
		"maxItems":    3,
		"description": description + " as [hue 0-179, saturation 0-255, value 0-255]. Malformed values fall back to the configured default.",
	}
}

func backgroundProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":      pathProperty(),
		"hsv_lower": hsvProperty("Lower bound of the background colour"),
		"hsv_upper": hsvProperty("Upper bound of the background colour"),
		"inward_offset": map[string]interface{}{
			"type":        "integer",
			"description": "Pixels trimmed from every side after rectification. Default 5",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func previewProperties() map[string]interface{} {
	return map[string]interface{}{
		"preview": map[string]interface{}{
			"type":        "boolean",
			"description": "Return the resulting image as base64-encoded PNG",
		},
		"preview_max_side": map[string]interface{}{
			"type":        "integer",
			"description": "Longest side of the preview in pixels. Default 1024",
		},
	}
}

func settingsProperty() map[string]interface{} {
	number := map[string]interface{}{"type": "number"}
	integer := map[string]interface{}{"type": "integer"}
	return map[string]interface{}{
		"type":        "object",
		"description": "Processing settings. Omitted fields use the configured defaults.",
		"properties": map[string]interface{}{
			"auto_orient": map[string]interface{}{"type": "boolean", "description": "Apply the EXIF orientation"},
			"crop_mode": map[string]interface{}{
				"type": "string",
				"enum": []string{"none", "percent", "manual", "auto_color_bg"},
			},
			"crop_percent": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"top": number, "right": number, "bottom": number, "left": number,
				},
			},
			"manual_crop_box": map[string]interface{}{
				"type":        "object",
				"description": "Crop rectangle in source pixels; x2/y2 exclusive",
				"properties": map[string]interface{}{
					"x1": integer, "y1": integer, "x2": integer, "y2": integer,
				},
			},
			"hsv_lower":     hsvProperty("Lower bound of the background colour"),
			"hsv_upper":     hsvProperty("Upper bound of the background colour"),
			"inward_offset": integer,
			"rotation":      map[string]interface{}{"type": "number", "description": "Degrees counter-clockwise"},
			"use_bilateral": map[string]interface{}{"type": "boolean"},
			"bilateral": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"diameter": integer, "sigma_color": number, "sigma_space": number,
				},
			},
			"use_clahe": map[string]interface{}{"type": "boolean"},
			"clahe": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"clip_limit": number, "tile_grid": integer,
				},
			},
			"use_sharpen": map[string]interface{}{"type": "boolean"},
			"sharpen": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sigma": number, "strength": number,
				},
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Inspection
		{
			Name:        "photo_load",
			Description: "Load a photo and report its dimensions, format, EXIF orientation and whether it carries EXIF data or a colour profile.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_sample_hsv",
			Description: "Read the colour of a pixel in RGB, hex and 8-bit HSV, or the HSV range of a region. Use it on the mat around a photo to choose background bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional rectangle; when given, the per-channel HSV min/max inside it is returned instead of one pixel",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
				},
				"required": []string{"path"},
			},
		},

		// Rectification
		{
			Name:        "photo_detect_boundary",
			Description: "Find the quadrilateral outline of a photo lying on a uniformly coloured mat. Returns the corners (top-left, top-right, bottom-right, bottom-left) and a preview with the outline drawn.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(backgroundProperties(), map[string]interface{}{
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline colour as hex (#RRGGBB). Default #00FF00",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline width in pixels. Default 3",
					},
					"preview_max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels. Default 1024",
					},
					"mask_preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the cleaned photo mask (white = photo, black = mat), useful when tuning the HSV range",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_rectify",
			Description: "Detect a photo on its mat, correct the perspective to an upright rectangle and trim the inward offset. Falls back to the unchanged photo when no boundary is found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(withProperties(backgroundProperties(), previewProperties()), map[string]interface{}{
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the result to",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_find_background_hsv",
			Description: "Try the given background range and then each configured preset until one rectifies the photo effectively. Reports every attempt.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": backgroundProperties(),
				"required":   []string{"path"},
			},
		},

		// Processing
		{
			Name:        "photo_process",
			Description: "Run the full touch-up: orientation, crop, rotation, denoise, contrast and sharpen, in that order. EXIF data is preserved. Optionally saves the result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"path":     pathProperty(),
					"settings": settingsProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the result to",
					},
				}, previewProperties()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_process_batch",
			Description: "Process many photos with the same settings and save each into output_dir. Manual crop is replaced by no crop. Failures are counted and skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Photo files to process",
					},
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory whose photos are processed (added to paths)",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory the results are written to",
					},
					"settings": settingsProperty(),
				},
				"required": []string{"output_dir"},
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

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// rectSchema describes a {x, y, width, height} rectangle argument.
func rectSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer", "description": "Left edge (0-based)"},
			"y":      map[string]interface{}{"type": "integer", "description": "Top edge (0-based)"},
			"width":  map[string]interface{}{"type": "integer", "description": "Width in pixels"},
			"height": map[string]interface{}{"type": "integer", "description": "Height in pixels"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Geometry
		{
			Name:        "check_overlap",
			Description: "Report whether two axis-aligned rectangles overlap. Rectangles that share an edge count as overlapping.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"a": rectSchema("First rectangle"),
					"b": rectSchema("Second rectangle"),
				},
				"required": []string{"a", "b"},
			},
		},
		{
			Name:        "place_regions",
			Description: "Randomly place boxes of the given sizes on a canvas without overlap, shrinking all of them when they do not fit. Returns one rectangle per box in input order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"canvas_width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width in pixels",
					},
					"canvas_height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height in pixels",
					},
					"dims": map[string]interface{}{
						"type":        "array",
						"description": "Box sizes to place, as {width, height} objects",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"width":  map[string]interface{}{"type": "integer"},
								"height": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"width", "height"},
						},
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. Default from server configuration",
					},
					"max_shrinks": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum shrink iterations. Default from server configuration",
					},
				},
				"required": []string{"canvas_width", "canvas_height", "dims"},
			},
		},

		// Region Operations
		{
			Name:        "extract_region",
			Description: "Cut an annotated box out of an image with a border of surrounding context and return it as base64-encoded PNG. Border pixels outside the image are black.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"left":   map[string]interface{}{"type": "integer", "description": "Box left edge"},
					"top":    map[string]interface{}{"type": "integer", "description": "Box top edge"},
					"width":  map[string]interface{}{"type": "integer", "description": "Box width"},
					"height": map[string]interface{}{"type": "integer", "description": "Box height"},
					"border": map[string]interface{}{
						"type":        "integer",
						"description": "Context pixels on each side. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path", "left", "top", "width", "height"},
			},
		},

		// Pipeline Operations
		{
			Name:        "parse_pipeline",
			Description: "Parse a pipeline expression such as \"0.5: background | noise ; 0.5: identity\" and return its branches and stages in canonical form.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"expression": map[string]interface{}{
						"type":        "string",
						"description": "Pipeline expression",
					},
				},
				"required": []string{"expression"},
			},
		},
		{
			Name:        "augment_image",
			Description: "Run one annotated image through a pipeline and return the augmented image as base64-encoded PNG together with its rewritten annotations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the source image",
					},
					"annotations": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a Pascal VOC .xml or JSON record for the image",
					},
					"pipeline": map[string]interface{}{
						"type":        "string",
						"description": "Pipeline expression. Default \"background\"",
						"default":     "background",
					},
					"background_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory of background images, required by background stages",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. Default from server configuration",
					},
					"sample": map[string]interface{}{
						"type":        "integer",
						"description": "Sample index. Selects the random stream and the position in the background rotation. Default 0",
					},
					"draw_boxes": map[string]interface{}{
						"type":        "boolean",
						"description": "Outline the rewritten annotations on the returned image",
						"default":     false,
					},
				},
				"required": []string{"path", "annotations"},
			},
		},

		// Evaluation
		{
			Name:        "count_error",
			Description: "Compare per-class box counts between two directories of JSON annotation records paired by file name. Returns the total counts on each side and the summed absolute difference per class.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"actual_dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the ground truth records",
					},
					"predicted_dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the predicted records",
					},
				},
				"required": []string{"actual_dir", "predicted_dir"},
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

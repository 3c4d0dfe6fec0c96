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
		// Mask Inspection
		{
			Name:        "mask_info",
			Description: "Load a binary mask image and report its size, format, foreground pixel count and number of 8-connected components.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mask image",
					},
					"mask_threshold": maskThresholdProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mask_classify",
			Description: "Measure one mask (area fraction, border-touch fraction, hole fraction) and report whether the heuristic classifier would treat it as background, with the reason.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOverrides(map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mask image",
					},
				}),
				"required": []string{"path"},
			},
		},

		// Vectorization
		{
			Name:        "mask_to_polygons",
			Description: "Merge one or more mask images into a single mask and trace it into simplified polygons with holes. No background classification is applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOverrides(map[string]interface{}{
					"paths": pathsProperty("Absolute paths to mask images of identical size"),
				}),
				"required": []string{"paths"},
			},
		},
		{
			Name:        "instances_to_polygons",
			Description: "Classify per-instance masks as object or background, then vectorize the kept masks per instance or as their union. Returns the contour payload and one decision per mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOverrides(map[string]interface{}{
					"paths": pathsProperty("Absolute paths to per-instance mask images of identical size"),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path; when set the payload is also written there as JSON",
					},
				}),
				"required": []string{"paths"},
			},
		},
		{
			Name:        "image_color_mask",
			Description: "Build a foreground mask from colour distance to the median border colour of a photo, then vectorize it. Useful when no segmentation masks exist.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOverrides(map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo",
					},
					"border": map[string]interface{}{
						"type":        "integer",
						"description": "Width of the border band sampled for the background colour",
						"default":     12,
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Colour distance above which a pixel is foreground",
						"default":     28,
					},
					"metric": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"rgb", "lab"},
						"description": "Colour distance metric",
						"default":     "rgb",
					},
					"open_iterations": map[string]interface{}{
						"type":        "integer",
						"description": "3x3 opening passes applied to the colour mask",
						"default":     1,
					},
					"close_iterations": map[string]interface{}{
						"type":        "integer",
						"description": "3x3 closing passes applied to the colour mask",
						"default":     2,
					},
					"include_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the computed mask as base64 PNG",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},

		// Debugging
		{
			Name:        "mask_debug_overlay",
			Description: "Classify per-instance masks and return the photo with kept masks tinted green and dropped masks tinted red, optionally with the exported polygon outlines, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOverrides(map[string]interface{}{
					"image_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo the masks belong to",
					},
					"paths": pathsProperty("Absolute paths to per-instance mask images"),
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Tint opacity between 0 and 1",
						"default":     0.55,
					},
					"outline": map[string]interface{}{
						"type":        "boolean",
						"description": "Also draw the exported polygons, labelled with their mask index",
						"default":     false,
					},
					"outline_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline colour as #RRGGBB",
						"default":     "#ffd400",
					},
				}),
				"required": []string{"image_path", "paths"},
			},
		},
	}
}

func maskThresholdProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Grey level (0-255) at or above which a mask pixel is foreground",
		"default":     128,
	}
}

func pathsProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"minItems":    1,
		"description": description,
	}
}

// withOverrides adds the optional tuning parameters shared by the
// vectorizing tools. Omitted parameters use the server configuration.
func withOverrides(props map[string]interface{}) map[string]interface{} {
	number := func(description string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": description}
	}
	integer := func(description string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": description}
	}
	boolean := func(description string) map[string]interface{} {
		return map[string]interface{}{"type": "boolean", "description": description}
	}

	props["mask_threshold"] = maskThresholdProperty()
	props["policy"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"heuristic", "largest"},
		"description": "Background policy",
	}
	props["mode"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"per_instance", "union"},
		"description": "Export one polygon set per kept mask, or the union of kept masks",
	}
	props["min_area_px"] = integer("Masks with fewer pixels are noise")
	props["bg_area_fraction_threshold"] = number("Masks covering at least this image fraction are background")
	props["border_band_px"] = integer("Width of the border band used for the border-touch fraction")
	props["border_touch_fraction_threshold"] = number("Masks with at least this fraction of pixels in the border band are background")
	props["enable_hole_heuristic"] = boolean("Treat masks with large enclosed holes as background")
	props["hole_fraction_threshold"] = number("Hole area fraction at which a mask is background")
	props["min_hole_area_px"] = integer("Enclosed holes smaller than this are ignored")
	props["min_contour_area_px"] = number("Traced contours with a smaller area are dropped")
	props["eps_fraction"] = number("Douglas-Peucker tolerance as a fraction of the contour perimeter")
	props["max_points"] = integer("Upper bound on points per simplified ring")
	props["open"] = boolean("Apply a 3x3 opening before tracing")
	props["close"] = boolean("Apply a 3x3 closing before tracing")
	props["iterations"] = integer("Passes for each enabled morphology operation")
	return props
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

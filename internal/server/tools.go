package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// regionProperties are accepted by every region_* tool. Without x/y/w/h or
// screen the tool works on the whole virtual screen.
func regionProperties() map[string]interface{} {
	return map[string]interface{}{
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "Left edge of the region in desktop coordinates",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Top edge of the region in desktop coordinates",
		},
		"w": map[string]interface{}{
			"type":        "integer",
			"description": "Region width in pixels",
		},
		"h": map[string]interface{}{
			"type":        "integer",
			"description": "Region height in pixels",
		},
		"screen": map[string]interface{}{
			"type":        "integer",
			"description": "Use a whole monitor instead of x/y/w/h. -1 selects the virtual screen spanning all monitors",
		},
	}
}

// patternProperties describe the image searched for.
func patternProperties() map[string]interface{} {
	return map[string]interface{}{
		"pattern": map[string]interface{}{
			"type":        "string",
			"description": "Pattern image file, absolute or relative to the configured image paths",
		},
		"similarity": map[string]interface{}{
			"type":        "number",
			"description": "Minimum match score between 0 and 1. Default from configuration (0.7)",
		},
		"target_dx": map[string]interface{}{
			"type":        "integer",
			"description": "Horizontal offset of the click target from the match centre",
		},
		"target_dy": map[string]interface{}{
			"type":        "integer",
			"description": "Vertical offset of the click target from the match centre",
		},
	}
}

func timeoutProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Seconds to keep polling. Default from configuration (3); 0 checks once",
	}
}

// targetSchema describes where an input action aims: a pattern, a point,
// or (when empty) the centre of the region.
func targetSchema(description string) map[string]interface{} {
	props := patternProperties()
	props["point"] = pointSchema("Desktop point to aim at instead of a pattern")
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties":  props,
	}
}

func pointSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer"},
			"y": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y"},
	}
}

func modifiersProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string", "enum": []string{"shift", "ctrl", "alt", "cmd"}},
		"description": "Modifier keys held during the action",
	}
}

// schema builds an object schema from property groups.
func schema(required []string, groups ...map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{}
	for _, g := range groups {
		for k, v := range g {
			props[k] = v
		}
	}
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	search := func(extra map[string]interface{}) map[string]interface{} {
		return schema([]string{"pattern"}, regionProperties(), patternProperties(), extra)
	}
	click := map[string]interface{}{
		"target":    targetSchema("Where to click. Omit to click the centre of the region"),
		"modifiers": modifiersProperty(),
	}

	return []Tool{
		// Screens
		{
			Name:        "screen_list",
			Description: "List the monitors with their ids and bounds in desktop coordinates. Monitor 0 is the primary screen.",
			InputSchema: schema(nil),
		},

		// Searching
		{
			Name:        "region_exists",
			Description: "Look for a pattern image in a screen region. Returns found=false instead of failing when it does not show up.",
			InputSchema: search(map[string]interface{}{"timeout": timeoutProperty()}),
		},
		{
			Name:        "region_find",
			Description: "Find a pattern image in a screen region, waiting up to the configured timeout. Fails when it does not show up unless on_fail is SKIP.",
			InputSchema: search(map[string]interface{}{
				"on_fail": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"ABORT", "SKIP"},
					"description": "What to do when the pattern is not found. Default ABORT",
				},
			}),
		},
		{
			Name:        "region_wait",
			Description: "Wait for a pattern image to appear in a screen region. Fails when the timeout elapses unless on_fail is SKIP.",
			InputSchema: search(map[string]interface{}{
				"timeout": timeoutProperty(),
				"on_fail": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"ABORT", "SKIP"},
					"description": "What to do when the pattern is not found. Default ABORT",
				},
			}),
		},
		{
			Name:        "region_wait_vanish",
			Description: "Wait for a pattern image to disappear from a screen region. Returns vanished=false when it is still there at the deadline.",
			InputSchema: search(map[string]interface{}{"timeout": timeoutProperty()}),
		},
		{
			Name:        "region_find_all",
			Description: "Find every non-overlapping occurrence of a pattern image in a screen region, in reading order.",
			InputSchema: search(map[string]interface{}{"timeout": timeoutProperty()}),
		},

		// Input
		{
			Name:        "region_click",
			Description: "Click the left mouse button on a pattern, a point, or the centre of a region.",
			InputSchema: schema(nil, regionProperties(), click),
		},
		{
			Name:        "region_double_click",
			Description: "Double-click the left mouse button on a pattern, a point, or the centre of a region.",
			InputSchema: schema(nil, regionProperties(), click),
		},
		{
			Name:        "region_right_click",
			Description: "Click the right mouse button on a pattern, a point, or the centre of a region.",
			InputSchema: schema(nil, regionProperties(), click),
		},
		{
			Name:        "region_hover",
			Description: "Move the mouse to a pattern, a point, or the centre of a region.",
			InputSchema: schema(nil, regionProperties(), map[string]interface{}{
				"target": targetSchema("Where to move. Omit to move to the centre of the region"),
			}),
		},
		{
			Name:        "region_drag_drop",
			Description: "Drag from one target and drop on another with the left mouse button.",
			InputSchema: schema([]string{"from", "to"}, regionProperties(), map[string]interface{}{
				"from":      targetSchema("Where the drag starts"),
				"to":        targetSchema("Where the drop happens"),
				"modifiers": modifiersProperty(),
			}),
		},
		{
			Name:        "region_type",
			Description: "Type text, optionally clicking a target first to focus it.",
			InputSchema: schema([]string{"text"}, regionProperties(), map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to type",
				},
				"target":    targetSchema("Click here first. Omit to type into whatever has focus"),
				"modifiers": modifiersProperty(),
			}),
		},
		{
			Name:        "region_paste",
			Description: "Paste text through the clipboard, optionally clicking a target first to focus it.",
			InputSchema: schema([]string{"text"}, regionProperties(), map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to paste",
				},
				"target": targetSchema("Click here first. Omit to paste into whatever has focus"),
			}),
		},

		// Inspection
		{
			Name:        "region_capture",
			Description: "Capture a screen region as base64 PNG, optionally with a raster grid drawn over it.",
			InputSchema: schema(nil, regionProperties(), map[string]interface{}{
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Raster rows to draw",
				},
				"cols": map[string]interface{}{
					"type":        "integer",
					"description": "Raster columns to draw",
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor. Default 1.0",
					"default":     1.0,
				},
			}),
		},
		{
			Name:        "region_raster",
			Description: "Split a region into a rows x cols grid and return the bounds of a row, a column, a cell, or a named part.",
			InputSchema: schema(nil, regionProperties(), map[string]interface{}{
				"rows": map[string]interface{}{"type": "integer", "description": "Grid rows"},
				"cols": map[string]interface{}{"type": "integer", "description": "Grid columns"},
				"row":  map[string]interface{}{"type": "integer", "description": "Row index; negative counts past the end"},
				"col":  map[string]interface{}{"type": "integer", "description": "Column index; negative counts past the end"},
				"part": map[string]interface{}{
					"type":        "integer",
					"description": "Part code such as 202 (north half) or 522 (centre of a 5x5 grid). Ignores rows/cols",
				},
			}),
		},
		{
			Name:        "region_observe",
			Description: "Watch a region for a while and report patterns appearing or vanishing and pixel changes.",
			InputSchema: schema([]string{"duration"}, regionProperties(), map[string]interface{}{
				"duration": map[string]interface{}{
					"type":        "number",
					"description": "Seconds to observe",
				},
				"appear": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Pattern images to report when they appear",
				},
				"vanish": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Pattern images to report when they vanish",
				},
				"change": map[string]interface{}{
					"type":        "integer",
					"description": "Report when at least this many pixels change. 0 disables; negative uses the configured default",
				},
			}),
		},
		{
			Name:        "region_sample_color",
			Description: "Get the colour of the screen pixel at a desktop point.",
			InputSchema: schema([]string{"point"}, map[string]interface{}{
				"point": pointSchema("Desktop point to sample"),
			}),
		},
		{
			Name:        "region_palette",
			Description: "List the most common colours in a screen region.",
			InputSchema: schema(nil, regionProperties(), map[string]interface{}{
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of colours to return. Default 5",
					"default":     5,
				},
			}),
		},

		// Clipboard
		{
			Name:        "clipboard_get",
			Description: "Read the text on the clipboard.",
			InputSchema: schema(nil),
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

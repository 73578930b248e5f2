package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"screen_list",
		"region_exists",
		"region_find",
		"region_wait",
		"region_wait_vanish",
		"region_find_all",
		"region_click",
		"region_double_click",
		"region_right_click",
		"region_hover",
		"region_drag_drop",
		"region_type",
		"region_paste",
		"region_capture",
		"region_raster",
		"region_observe",
		"region_sample_color",
		"region_palette",
		"clipboard_get",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema.type: got %v, want object", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema.properties should be a map")
			}

			// Every required parameter must be described
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, name := range required {
					if _, ok := props[name]; !ok {
						t.Errorf("required parameter %s has no property", name)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_RegionToolsAcceptRegion(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if len(tool.Name) < 7 || tool.Name[:7] != "region_" || tool.Name == "region_sample_color" {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, name := range []string{"x", "y", "w", "h", "screen"} {
			if _, ok := props[name]; !ok {
				t.Errorf("%s: missing region parameter %s", tool.Name, name)
			}
		}
	}
}

func TestToolDefinitions_SearchToolsRequirePattern(t *testing.T) {
	search := []string{"region_exists", "region_find", "region_wait", "region_wait_vanish", "region_find_all"}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range search {
		required, _ := toolMap[name].InputSchema["required"].([]string)
		if len(required) != 1 || required[0] != "pattern" {
			t.Errorf("%s: required got %v, want [pattern]", name, required)
		}
	}
}

func TestToolDefinitions_Defaults(t *testing.T) {
	defaults := map[string]map[string]interface{}{
		"region_capture": {"scale": 1.0},
		"region_palette": {"count": 5},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for toolName, params := range defaults {
		props := toolMap[toolName].InputSchema["properties"].(map[string]interface{})
		for paramName, want := range params {
			prop, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: property missing", toolName, paramName)
				continue
			}
			if got := prop["default"]; got != want {
				t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, got, want)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir())
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}

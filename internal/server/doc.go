// Package server implements the MCP (Model Context Protocol) server for desktop automation tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the region engine
// through the MCP protocol: finding pattern images on screen, waiting for them
// to appear or vanish, and clicking, dragging and typing on what was found.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Screens:
//   - screen_list: Monitors and their bounds
//
// Searching:
//   - region_exists: Look for a pattern, reporting absence as found=false
//   - region_find: Find a pattern or fail
//   - region_wait: Find with a timeout override
//   - region_wait_vanish: Wait for a pattern to go away
//   - region_find_all: Every occurrence in reading order
//
// Input:
//   - region_click, region_double_click, region_right_click
//   - region_hover, region_drag_drop
//   - region_type, region_paste
//
// Inspection:
//   - region_capture: Base64 PNG with an optional raster grid
//   - region_raster: Bounds of a raster row, column, cell or part
//   - region_observe: Appear, vanish and change events over a period
//   - region_sample_color, region_palette: Screen colours
//
// Clipboard:
//   - clipboard_get
//
// Every region tool takes either x/y/w/h or a screen id (-1 for the virtual
// screen spanning all monitors); with neither it works on the virtual screen.
// Each call builds a new region, so no search state survives between calls.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(session, version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

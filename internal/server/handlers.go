package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/pattern"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
	"github.com/ironsheep/region-tools-mcp/internal/region"
)

// errBadArguments marks tool arguments that are well-formed JSON but
// inconsistent.
var errBadArguments = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "region_find", "region_click").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
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
//
// Region tools build a fresh region per call from the x/y/w/h or screen
// arguments, so nothing about a search carries over between calls.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Screens
	case "screen_list":
		return s.handleScreenList()

	// Searching
	case "region_exists":
		return s.handleRegionExists(args)
	case "region_find":
		return s.handleRegionFind(args, false)
	case "region_wait":
		return s.handleRegionFind(args, true)
	case "region_wait_vanish":
		return s.handleRegionWaitVanish(args)
	case "region_find_all":
		return s.handleRegionFindAll(args)

	// Input
	case "region_click":
		return s.handleRegionClick(args, (*region.Region).Click)
	case "region_double_click":
		return s.handleRegionClick(args, (*region.Region).DoubleClick)
	case "region_right_click":
		return s.handleRegionClick(args, (*region.Region).RightClick)
	case "region_hover":
		return s.handleRegionHover(args)
	case "region_drag_drop":
		return s.handleRegionDragDrop(args)
	case "region_type":
		return s.handleRegionType(args)
	case "region_paste":
		return s.handleRegionPaste(args)

	// Inspection
	case "region_capture":
		return s.handleRegionCapture(args)
	case "region_raster":
		return s.handleRegionRaster(args)
	case "region_observe":
		return s.handleRegionObserve(args)
	case "region_sample_color":
		return s.handleRegionSampleColor(args)
	case "region_palette":
		return s.handleRegionPalette(args)

	// Clipboard
	case "clipboard_get":
		return s.handleClipboardGet()

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared arguments ===

type regionArgs struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	W      *int `json:"w"`
	H      *int `json:"h"`
	Screen *int `json:"screen"`
}

// region builds the region a tool call works on: a monitor when screen is
// given, the x/y/w/h rectangle when those are given, otherwise the virtual
// screen.
func (s *Server) region(a regionArgs) (*region.Region, error) {
	if a.Screen != nil {
		sc, err := s.session.Screen(*a.Screen)
		if err != nil {
			return nil, err
		}
		return sc.Region, nil
	}
	if a.X == nil && a.Y == nil && a.W == nil && a.H == nil {
		sc, err := s.session.Screen(region.VirtualScreen)
		if err != nil {
			return nil, err
		}
		return sc.Region, nil
	}
	if a.W == nil || a.H == nil {
		return nil, fmt.Errorf("%w: w and h are required with x and y", errBadArguments)
	}
	return s.session.NewRegion(intOr(a.X, 0), intOr(a.Y, 0), *a.W, *a.H)
}

type patternArgs struct {
	Pattern    string   `json:"pattern"`
	Similarity *float64 `json:"similarity"`
	TargetDX   int      `json:"target_dx"`
	TargetDY   int      `json:"target_dy"`
}

func (s *Server) pattern(a patternArgs) (pattern.Pattern, error) {
	if a.Pattern == "" {
		return pattern.Pattern{}, fmt.Errorf("%w: pattern is required", errBadArguments)
	}
	p, err := s.session.Pattern(a.Pattern)
	if err != nil {
		return pattern.Pattern{}, err
	}
	if a.Similarity != nil {
		p = p.Similar(*a.Similarity)
	}
	if a.TargetDX != 0 || a.TargetDY != 0 {
		p = p.TargetOffset(a.TargetDX, a.TargetDY)
	}
	return p, nil
}

type targetArgs struct {
	patternArgs
	Point *geometry.Point `json:"point"`
}

// target turns optional target arguments into a region.Target. A missing
// target is the zero Target.
func (s *Server) target(a *targetArgs) (region.Target, error) {
	switch {
	case a == nil:
		return region.Target{}, nil
	case a.Point != nil:
		return region.TargetPoint(*a.Point), nil
	case a.Pattern != "":
		p, err := s.pattern(a.patternArgs)
		if err != nil {
			return region.Target{}, err
		}
		return region.TargetPattern(p), nil
	}
	return region.Target{}, nil
}

func searchOptions(timeout *float64) []region.SearchOption {
	if timeout == nil {
		return nil
	}
	return []region.SearchOption{region.Timeout(seconds(*timeout))}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

type matchResult struct {
	Bounds geometry.Rect  `json:"bounds"`
	Score  float64        `json:"score"`
	Target geometry.Point `json:"target"`
}

func newMatchResult(m *region.Match) *matchResult {
	if m == nil {
		return nil
	}
	return &matchResult{Bounds: m.Rect(), Score: m.Score(), Target: m.Target()}
}

type findResult struct {
	Found bool         `json:"found"`
	Match *matchResult `json:"match,omitempty"`
}

// === Screen Handlers ===

type screenListResult struct {
	Count   int                `json:"count"`
	Screens []platform.Monitor `json:"screens"`
}

func (s *Server) handleScreenList() (interface{}, error) {
	ms, err := s.session.Monitors()
	if err != nil {
		return nil, err
	}
	return &screenListResult{Count: len(ms), Screens: ms}, nil
}

// === Search Handlers ===

type searchArgs struct {
	regionArgs
	patternArgs
	Timeout *float64 `json:"timeout"`
	OnFail  string   `json:"on_fail"`
}

func (s *Server) searchSetup(args json.RawMessage) (*region.Region, pattern.Pattern, searchArgs, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, pattern.Pattern{}, a, err
	}
	if a.Timeout != nil && *a.Timeout < 0 {
		return nil, pattern.Pattern{}, a, fmt.Errorf("%w: timeout must not be negative", errBadArguments)
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, pattern.Pattern{}, a, err
	}
	p, err := s.pattern(a.patternArgs)
	if err != nil {
		return nil, pattern.Pattern{}, a, err
	}
	return r, p, a, nil
}

func (s *Server) handleRegionExists(args json.RawMessage) (interface{}, error) {
	r, p, a, err := s.searchSetup(args)
	if err != nil {
		return nil, err
	}
	m, err := r.Exists(p, searchOptions(a.Timeout)...)
	if err != nil {
		return nil, err
	}
	return &findResult{Found: m != nil, Match: newMatchResult(m)}, nil
}

// handleRegionFind serves region_find and region_wait. Only region_wait
// accepts a timeout override.
func (s *Server) handleRegionFind(args json.RawMessage, wait bool) (interface{}, error) {
	r, p, a, err := s.searchSetup(args)
	if err != nil {
		return nil, err
	}
	if a.OnFail != "" {
		resp, err := region.ParseFindFailedResponse(a.OnFail)
		if err != nil {
			return nil, err
		}
		if resp != region.Abort && resp != region.Skip {
			return nil, fmt.Errorf("%w: on_fail must be ABORT or SKIP", errBadArguments)
		}
		if err := r.SetFindFailedResponse(resp); err != nil {
			return nil, err
		}
	}

	var m *region.Match
	if wait {
		m, err = r.Wait(p, searchOptions(a.Timeout)...)
	} else {
		m, err = r.Find(p)
	}
	if err != nil {
		return nil, err
	}
	return &findResult{Found: m != nil, Match: newMatchResult(m)}, nil
}

type vanishResult struct {
	Vanished bool `json:"vanished"`
}

func (s *Server) handleRegionWaitVanish(args json.RawMessage) (interface{}, error) {
	r, p, a, err := s.searchSetup(args)
	if err != nil {
		return nil, err
	}
	gone, err := r.WaitVanish(p, searchOptions(a.Timeout)...)
	if err != nil {
		return nil, err
	}
	return &vanishResult{Vanished: gone}, nil
}

type findAllResult struct {
	Count   int            `json:"count"`
	Matches []*matchResult `json:"matches"`
}

func (s *Server) handleRegionFindAll(args json.RawMessage) (interface{}, error) {
	r, p, a, err := s.searchSetup(args)
	if err != nil {
		return nil, err
	}
	ms, err := r.FindAll(p, searchOptions(a.Timeout)...)
	if err != nil {
		return nil, err
	}
	res := &findAllResult{Matches: []*matchResult{}}
	for ms.Next() {
		res.Matches = append(res.Matches, newMatchResult(ms.Match()))
	}
	res.Count = len(res.Matches)
	return res, nil
}

// === Input Handlers ===

type actionResult struct {
	Cursor geometry.Point `json:"cursor"`
}

func (s *Server) actionResult() (interface{}, error) {
	cur, err := s.session.Platform().Cursor()
	if err != nil {
		return nil, err
	}
	return &actionResult{Cursor: cur}, nil
}

type clickArgs struct {
	regionArgs
	Target    *targetArgs `json:"target"`
	Modifiers []string    `json:"modifiers"`
}

func (s *Server) handleRegionClick(args json.RawMessage, click func(*region.Region, region.Target, ...string) error) (interface{}, error) {
	var a clickArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}
	t, err := s.target(a.Target)
	if err != nil {
		return nil, err
	}
	if err := click(r, t, a.Modifiers...); err != nil {
		return nil, err
	}
	return s.actionResult()
}

func (s *Server) handleRegionHover(args json.RawMessage) (interface{}, error) {
	var a clickArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}
	t, err := s.target(a.Target)
	if err != nil {
		return nil, err
	}
	if err := r.Hover(t); err != nil {
		return nil, err
	}
	return s.actionResult()
}

type dragDropArgs struct {
	regionArgs
	From      *targetArgs `json:"from"`
	To        *targetArgs `json:"to"`
	Modifiers []string    `json:"modifiers"`
}

func (s *Server) handleRegionDragDrop(args json.RawMessage) (interface{}, error) {
	var a dragDropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.From == nil || a.To == nil {
		return nil, fmt.Errorf("%w: from and to are required", errBadArguments)
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}
	from, err := s.target(a.From)
	if err != nil {
		return nil, err
	}
	to, err := s.target(a.To)
	if err != nil {
		return nil, err
	}
	if err := r.DragDrop(from, to, a.Modifiers...); err != nil {
		return nil, err
	}
	return s.actionResult()
}

type textArgs struct {
	regionArgs
	Text      string      `json:"text"`
	Target    *targetArgs `json:"target"`
	Modifiers []string    `json:"modifiers"`
}

func (s *Server) textSetup(args json.RawMessage) (*region.Region, region.Target, textArgs, error) {
	var a textArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, region.Target{}, a, err
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, region.Target{}, a, err
	}
	t, err := s.target(a.Target)
	if err != nil {
		return nil, region.Target{}, a, err
	}
	return r, t, a, nil
}

func (s *Server) handleRegionType(args json.RawMessage) (interface{}, error) {
	r, t, a, err := s.textSetup(args)
	if err != nil {
		return nil, err
	}
	if err := r.Type(t, a.Text, a.Modifiers...); err != nil {
		return nil, err
	}
	return s.actionResult()
}

func (s *Server) handleRegionPaste(args json.RawMessage) (interface{}, error) {
	r, t, a, err := s.textSetup(args)
	if err != nil {
		return nil, err
	}
	if err := r.Paste(t, a.Text); err != nil {
		return nil, err
	}
	return s.actionResult()
}

// === Inspection Handlers ===

type captureArgs struct {
	regionArgs
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	Scale float64 `json:"scale"`
}

type captureResult struct {
	Bounds geometry.Rect         `json:"bounds"`
	Image  *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleRegionCapture(args json.RawMessage) (interface{}, error) {
	var a captureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}
	if a.Rows > 0 && a.Cols > 0 {
		r.SetRaster(a.Rows, a.Cols)
	}
	img, err := r.Render()
	if err != nil {
		return nil, err
	}
	clip, err := r.ClipToScreen()
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(img, a.Scale)
	if err != nil {
		return nil, err
	}
	return &captureResult{Bounds: clip.Rect(), Image: enc}, nil
}

type rasterArgs struct {
	regionArgs
	Rows int  `json:"rows"`
	Cols int  `json:"cols"`
	Row  *int `json:"row"`
	Col  *int `json:"col"`
	Part *int `json:"part"`
}

type rasterResult struct {
	Bounds geometry.Rect `json:"bounds"`
	RowH   int           `json:"row_height,omitempty"`
	ColW   int           `json:"col_width,omitempty"`
}

func (s *Server) handleRegionRaster(args json.RawMessage) (interface{}, error) {
	var a rasterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}
	if a.Part != nil {
		return &rasterResult{Bounds: r.Get(region.Part(*a.Part)).Rect()}, nil
	}
	if a.Rows <= 0 || a.Cols <= 0 {
		return nil, fmt.Errorf("%w: rows and cols must be positive", errBadArguments)
	}

	r.SetRaster(a.Rows, a.Cols)
	var part *region.Region
	switch {
	case a.Row != nil && a.Col != nil:
		part = r.Cell(*a.Row, *a.Col)
	case a.Row != nil:
		part = r.Row(*a.Row)
	case a.Col != nil:
		part = r.Col(*a.Col)
	default:
		part = r.Cell(0, 0)
	}
	return &rasterResult{Bounds: part.Rect(), RowH: r.RowH(), ColW: r.ColW()}, nil
}

type observeArgs struct {
	regionArgs
	Duration float64  `json:"duration"`
	Appear   []string `json:"appear"`
	Vanish   []string `json:"vanish"`
	Change   int      `json:"change"`
}

type observedEvent struct {
	Kind    string            `json:"kind"`
	Count   int               `json:"count"`
	Pattern string            `json:"pattern,omitempty"`
	Match   *matchResult      `json:"match,omitempty"`
	Changes *region.ChangeSet `json:"changes,omitempty"`
}

type observeResult struct {
	Events []observedEvent `json:"events"`
}

func (s *Server) handleRegionObserve(args json.RawMessage) (interface{}, error) {
	var a observeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", errBadArguments)
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}

	for _, name := range a.Appear {
		p, err := s.pattern(patternArgs{Pattern: name})
		if err != nil {
			return nil, err
		}
		r.OnAppear(p, nil)
	}
	for _, name := range a.Vanish {
		p, err := s.pattern(patternArgs{Pattern: name})
		if err != nil {
			return nil, err
		}
		r.OnVanish(p, nil)
	}
	if a.Change != 0 {
		if _, err := r.OnChange(a.Change, nil); err != nil {
			return nil, err
		}
	}
	if !r.HasObserver() {
		return nil, fmt.Errorf("%w: nothing to observe", errBadArguments)
	}

	if _, err := r.Observe(seconds(a.Duration)); err != nil {
		return nil, err
	}

	res := &observeResult{Events: []observedEvent{}}
	for _, ev := range r.Events() {
		oe := observedEvent{Kind: ev.Kind().String(), Count: ev.Count()}
		if p, err := ev.Pattern(); err == nil {
			oe.Pattern = p.Path()
		}
		if m, err := ev.Match(); err == nil {
			oe.Match = newMatchResult(m)
		}
		if cs, err := ev.Changes(); err == nil {
			oe.Changes = &cs
		}
		res.Events = append(res.Events, oe)
	}
	return res, nil
}

type sampleColorArgs struct {
	Point *geometry.Point `json:"point"`
}

type sampleColorResult struct {
	Point geometry.Point       `json:"point"`
	Color *imaging.ColorSample `json:"color"`
}

func (s *Server) handleRegionSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Point == nil {
		return nil, fmt.Errorf("%w: point is required", errBadArguments)
	}
	r, err := s.session.NewRegion(a.Point.X, a.Point.Y, 1, 1)
	if err != nil {
		return nil, err
	}
	img, _, err := r.Capture()
	if err != nil {
		return nil, err
	}
	c, err := imaging.SampleColor(img, img.Bounds().Min)
	if err != nil {
		return nil, err
	}
	return &sampleColorResult{Point: *a.Point, Color: c}, nil
}

type paletteArgs struct {
	regionArgs
	Count int `json:"count"`
}

type paletteResult struct {
	Bounds geometry.Rect          `json:"bounds"`
	Colors []imaging.PaletteEntry `json:"colors"`
}

func (s *Server) handleRegionPalette(args json.RawMessage) (interface{}, error) {
	var a paletteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count <= 0 {
		a.Count = 5
	}
	r, err := s.region(a.regionArgs)
	if err != nil {
		return nil, err
	}
	img, rect, err := r.Capture()
	if err != nil {
		return nil, err
	}
	return &paletteResult{Bounds: rect, Colors: imaging.Palette(img, a.Count)}, nil
}

// === Clipboard Handlers ===

type clipboardResult struct {
	Text string `json:"text"`
}

func (s *Server) handleClipboardGet() (interface{}, error) {
	text, err := s.session.Platform().ReadClipboard()
	if err != nil {
		return nil, err
	}
	return &clipboardResult{Text: text}, nil
}

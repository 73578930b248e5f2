// Package virtual implements platform.Platform over an in-memory frame.
//
// The frame covers the union of the configured monitors. Tests draw into it
// and then drive the region engine against it. Every input call is recorded
// as an Event instead of reaching a real desktop.
package virtual

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

// EventKind names a recorded input action.
type EventKind string

const (
	EventMove       EventKind = "move"
	EventClick      EventKind = "click"
	EventButtonDown EventKind = "button_down"
	EventButtonUp   EventKind = "button_up"
	EventWheel      EventKind = "wheel"
	EventKeyDown    EventKind = "key_down"
	EventKeyUp      EventKind = "key_up"
	EventType       EventKind = "type"
	EventPaste      EventKind = "paste"
)

// Event is one recorded input action. Point is the cursor position at the
// time of the action.
type Event struct {
	Kind   EventKind
	Point  geometry.Point
	Button platform.Button
	Count  int
	Key    string
	Text   string
}

// Desktop is an in-memory platform.Platform. It is safe for concurrent use.
type Desktop struct {
	mu        sync.Mutex
	monitors  []platform.Monitor
	frame     *image.NRGBA
	cursor    geometry.Point
	held      map[string]bool
	clipboard string
	events    []Event
	captures  int

	captureErr error
	onCapture  func(n int)
}

// New creates a desktop with one monitor per rect. IDs follow argument
// order and the first monitor is primary. The frame starts black.
func New(monitors ...geometry.Rect) *Desktop {
	d := &Desktop{held: make(map[string]bool)}
	d.SetMonitors(monitors...)
	return d
}

// FromImage creates a single-monitor desktop showing img at (0,0).
func FromImage(img image.Image) *Desktop {
	b := img.Bounds()
	d := New(geometry.NewRect(0, 0, b.Dx(), b.Dy()))
	d.Draw(img, geometry.Pt(0, 0))
	return d
}

// SetMonitors replaces the monitor layout. Pixels that remain inside the new
// frame are kept.
func (d *Desktop) SetMonitors(rects ...geometry.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.monitors = make([]platform.Monitor, len(rects))
	var union geometry.Rect
	for i, r := range rects {
		d.monitors[i] = platform.Monitor{ID: i, Bounds: r, Primary: i == 0}
		union = union.Union(r)
	}

	frame := image.NewNRGBA(union.ImageRect())
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if d.frame != nil {
		draw.Draw(frame, d.frame.Bounds(), d.frame, d.frame.Bounds().Min, draw.Src)
	}
	d.frame = frame
}

// Draw pastes img with its top-left corner at desktop point at.
func (d *Desktop) Draw(img image.Image, at geometry.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := img.Bounds()
	dst := image.Rect(at.X, at.Y, at.X+b.Dx(), at.Y+b.Dy())
	draw.Draw(d.frame, dst, img, b.Min, draw.Src)
}

// Fill paints r with c.
func (d *Desktop) Fill(r geometry.Rect, c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()

	draw.Draw(d.frame, r.ImageRect(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Frame returns a copy of the whole desktop frame, starting at (0,0).
func (d *Desktop) Frame() *image.NRGBA {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.frame.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), d.frame, b.Min, draw.Src)
	return out
}

// OnCapture registers fn to run before every capture with the 1-based
// capture count. fn runs without the desktop lock held, so it may call Draw
// or Fill to script changes between polling attempts.
func (d *Desktop) OnCapture(fn func(n int)) {
	d.mu.Lock()
	d.onCapture = fn
	d.mu.Unlock()
}

// FailCaptures makes every following capture fail with err. A nil err
// restores normal captures.
func (d *Desktop) FailCaptures(err error) {
	d.mu.Lock()
	d.captureErr = err
	d.mu.Unlock()
}

// Captures returns the number of Capture calls so far.
func (d *Desktop) Captures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.captures
}

// Events returns a copy of the recorded input actions.
func (d *Desktop) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// ResetEvents clears the recorded input actions.
func (d *Desktop) ResetEvents() {
	d.mu.Lock()
	d.events = nil
	d.mu.Unlock()
}

// Held reports whether key (or a button name such as "left") is held down.
func (d *Desktop) Held(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.held[key]
}

// Monitors implements platform.Screen.
func (d *Desktop) Monitors() ([]platform.Monitor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]platform.Monitor(nil), d.monitors...), nil
}

// Capture implements platform.Screen.
func (d *Desktop) Capture(r geometry.Rect) (image.Image, error) {
	d.mu.Lock()
	d.captures++
	n := d.captures
	hook := d.onCapture
	d.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.captureErr != nil {
		return nil, platform.Wrap("capture", d.captureErr)
	}
	img, err := imaging.Crop(d.frame, r.ImageRect())
	if err != nil {
		return nil, platform.Wrap("capture", err)
	}
	return img, nil
}

// MoveCursor implements platform.Mouse.
func (d *Desktop) MoveCursor(to geometry.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.frame.Bounds().Empty() && !to.ImagePoint().In(d.frame.Bounds()) {
		return platform.Wrap("move", fmt.Errorf("point %v outside desktop %v", to, d.frame.Bounds()))
	}
	d.cursor = to
	d.record(Event{Kind: EventMove})
	return nil
}

// Cursor implements platform.Mouse.
func (d *Desktop) Cursor() (geometry.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor, nil
}

// ButtonDown implements platform.Mouse.
func (d *Desktop) ButtonDown(b platform.Button) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.held[b.String()] = true
	d.record(Event{Kind: EventButtonDown, Button: b})
	return nil
}

// ButtonUp implements platform.Mouse.
func (d *Desktop) ButtonUp(b platform.Button) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.held, b.String())
	d.record(Event{Kind: EventButtonUp, Button: b})
	return nil
}

// Click implements platform.Mouse.
func (d *Desktop) Click(b platform.Button, count int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Event{Kind: EventClick, Button: b, Count: count})
	return nil
}

// Wheel implements platform.Mouse. Upward steps are recorded as positive
// counts and downward steps as negative ones.
func (d *Desktop) Wheel(dir platform.WheelDirection, steps int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dir == platform.WheelDown {
		steps = -steps
	}
	d.record(Event{Kind: EventWheel, Count: steps})
	return nil
}

// KeyDown implements platform.Keyboard.
func (d *Desktop) KeyDown(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.held[key] = true
	d.record(Event{Kind: EventKeyDown, Key: key})
	return nil
}

// KeyUp implements platform.Keyboard.
func (d *Desktop) KeyUp(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.held, key)
	d.record(Event{Kind: EventKeyUp, Key: key})
	return nil
}

// TypeText implements platform.Keyboard.
func (d *Desktop) TypeText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Event{Kind: EventType, Text: text})
	return nil
}

// PasteText implements platform.Keyboard.
func (d *Desktop) PasteText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipboard = text
	d.record(Event{Kind: EventPaste, Text: text})
	return nil
}

// ReadClipboard implements platform.Clipboard.
func (d *Desktop) ReadClipboard() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipboard, nil
}

// WriteClipboard implements platform.Clipboard.
func (d *Desktop) WriteClipboard(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipboard = text
	return nil
}

// record appends ev stamped with the cursor position. Callers hold d.mu.
func (d *Desktop) record(ev Event) {
	ev.Point = d.cursor
	d.events = append(d.events, ev)
}

var _ platform.Platform = (*Desktop)(nil)

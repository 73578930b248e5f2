// Package platform defines the desktop capabilities the region engine drives:
// monitor geometry and capture, mouse, keyboard and clipboard.
//
// All calls are synchronous. Implementations wrap their failures in
// ErrPlatform so callers can tell a driver problem from a search result.
//
// Two implementations exist: platform/desktop talks to the real desktop and
// platform/virtual keeps an in-memory frame for tests and offline use.
package platform

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
)

// ErrPlatform wraps every failure reported by a platform driver.
var ErrPlatform = errors.New("platform error")

// Wrap annotates err with op and marks it as a platform failure.
// It returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPlatform, op, err)
}

// Monitor is one physical display in virtual-desktop coordinates.
type Monitor struct {
	ID      int           `json:"id"`
	Bounds  geometry.Rect `json:"bounds"`
	Primary bool          `json:"primary"`
}

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "center"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// WheelDirection is the scroll direction of Wheel.
type WheelDirection int

const (
	WheelDown WheelDirection = iota
	WheelUp
)

func (d WheelDirection) String() string {
	if d == WheelUp {
		return "up"
	}
	return "down"
}

// Modifier key names accepted by KeyDown and KeyUp.
const (
	KeyShift = "shift"
	KeyCtrl  = "ctrl"
	KeyAlt   = "alt"
	KeyCmd   = "cmd"
)

// Screen enumerates monitors and captures pixels.
type Screen interface {
	// Monitors returns the current layout ordered by ID. ID 0 is the primary
	// monitor.
	Monitors() ([]Monitor, error)

	// Capture returns the pixels inside r. The returned image starts at (0,0).
	Capture(r geometry.Rect) (image.Image, error)
}

// Mouse moves the cursor and presses buttons.
type Mouse interface {
	MoveCursor(to geometry.Point) error
	Cursor() (geometry.Point, error)
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	Click(b Button, count int) error
	Wheel(dir WheelDirection, steps int) error
}

// Keyboard presses keys and types text.
type Keyboard interface {
	KeyDown(key string) error
	KeyUp(key string) error
	TypeText(text string) error

	// PasteText puts text on the clipboard and sends the paste shortcut.
	PasteText(text string) error
}

// Clipboard reads and writes the system clipboard as text.
type Clipboard interface {
	ReadClipboard() (string, error)
	WriteClipboard(text string) error
}

// Platform is the full capability set.
type Platform interface {
	Screen
	Mouse
	Keyboard
	Clipboard
}

// SortMonitors orders monitors by ascending ID in place.
func SortMonitors(ms []Monitor) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}

// Union returns the bounding rectangle of all monitors.
func Union(ms []Monitor) geometry.Rect {
	var u geometry.Rect
	for _, m := range ms {
		u = u.Union(m.Bounds)
	}
	return u
}

// MonitorAt returns the lowest-ID monitor containing p.
func MonitorAt(ms []Monitor, p geometry.Point) (Monitor, bool) {
	for _, m := range ms {
		if m.Bounds.ContainsPoint(p) {
			return m, true
		}
	}
	return Monitor{}, false
}

// MonitorByID returns the monitor with the given ID.
func MonitorByID(ms []Monitor, id int) (Monitor, bool) {
	for _, m := range ms {
		if m.ID == id {
			return m, true
		}
	}
	return Monitor{}, false
}

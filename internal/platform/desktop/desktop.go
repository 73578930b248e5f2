//go:build cgo

package desktop

import (
	"fmt"
	"image"
	"runtime"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

// Driver drives the local desktop.
type Driver struct{}

// New returns a Driver, or ErrUnavailable when no display is active.
func New() (platform.Platform, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("%w: no active display", ErrUnavailable)
	}
	return &Driver{}, nil
}

// Monitors implements platform.Screen. Display 0 is the primary monitor.
// The layout is queried on every call so hot-plugged monitors are seen.
func (d *Driver) Monitors() ([]platform.Monitor, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, platform.Wrap("monitors", ErrUnavailable)
	}
	ms := make([]platform.Monitor, n)
	for i := 0; i < n; i++ {
		ms[i] = platform.Monitor{
			ID:      i,
			Bounds:  geometry.FromImageRect(screenshot.GetDisplayBounds(i)),
			Primary: i == 0,
		}
	}
	return ms, nil
}

// Capture implements platform.Screen.
func (d *Driver) Capture(r geometry.Rect) (image.Image, error) {
	img, err := screenshot.CaptureRect(r.ImageRect())
	if err != nil {
		return nil, platform.Wrap("capture", err)
	}
	// CaptureRect keeps desktop coordinates in some backends.
	if img.Rect.Min != (image.Point{}) {
		img.Rect = img.Rect.Sub(img.Rect.Min)
	}
	return img, nil
}

// MoveCursor implements platform.Mouse.
func (d *Driver) MoveCursor(to geometry.Point) error {
	robotgo.Move(to.X, to.Y)
	return nil
}

// Cursor implements platform.Mouse.
func (d *Driver) Cursor() (geometry.Point, error) {
	x, y := robotgo.Location()
	return geometry.Pt(x, y), nil
}

// ButtonDown implements platform.Mouse.
func (d *Driver) ButtonDown(b platform.Button) error {
	robotgo.Toggle(b.String())
	return nil
}

// ButtonUp implements platform.Mouse.
func (d *Driver) ButtonUp(b platform.Button) error {
	robotgo.Toggle(b.String(), "up")
	return nil
}

// Click implements platform.Mouse.
func (d *Driver) Click(b platform.Button, count int) error {
	switch {
	case count <= 0:
		return nil
	case count == 2:
		robotgo.Click(b.String(), true)
	default:
		for i := 0; i < count; i++ {
			robotgo.Click(b.String(), false)
		}
	}
	return nil
}

// Wheel implements platform.Mouse.
func (d *Driver) Wheel(dir platform.WheelDirection, steps int) error {
	if dir == platform.WheelDown {
		steps = -steps
	}
	robotgo.Scroll(0, steps)
	return nil
}

// KeyDown implements platform.Keyboard.
func (d *Driver) KeyDown(key string) error {
	robotgo.KeyToggle(key, "down")
	return nil
}

// KeyUp implements platform.Keyboard.
func (d *Driver) KeyUp(key string) error {
	robotgo.KeyToggle(key, "up")
	return nil
}

// TypeText implements platform.Keyboard.
func (d *Driver) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}

// PasteText implements platform.Keyboard.
func (d *Driver) PasteText(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return platform.Wrap("paste", err)
	}
	modifier := platform.KeyCtrl
	if runtime.GOOS == "darwin" {
		modifier = platform.KeyCmd
	}
	robotgo.KeyTap("v", modifier)
	return nil
}

// ReadClipboard implements platform.Clipboard.
func (d *Driver) ReadClipboard() (string, error) {
	text, err := robotgo.ReadAll()
	if err != nil {
		return "", platform.Wrap("read clipboard", err)
	}
	return text, nil
}

// WriteClipboard implements platform.Clipboard.
func (d *Driver) WriteClipboard(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return platform.Wrap("write clipboard", err)
	}
	return nil
}

var _ platform.Platform = (*Driver)(nil)

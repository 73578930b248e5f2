package region

import (
	"fmt"
	"os"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

// VirtualScreen is the screen id of the union of all monitors.
const VirtualScreen = -1

// Screen is a region covering one monitor, or all of them for
// VirtualScreen.
type Screen struct {
	*Region
	id int
}

// Screen returns the screen for monitor id. Id 0 is the primary monitor.
func (s *Session) Screen(id int) (*Screen, error) {
	ms, err := s.Monitors()
	if err != nil {
		return nil, err
	}
	if id == VirtualScreen {
		u := platform.Union(ms)
		if u.Empty() {
			return nil, fmt.Errorf("%w: no monitors", ErrInvalidArgument)
		}
		r := s.newRegion(u)
		r.pinned = true
		return &Screen{Region: r, id: VirtualScreen}, nil
	}
	m, ok := platform.MonitorByID(ms, id)
	if !ok {
		return nil, fmt.Errorf("%w: no screen %d (have %d)", ErrInvalidArgument, id, len(ms))
	}
	return s.screenFor(m), nil
}

func (s *Session) screenFor(m platform.Monitor) *Screen {
	return &Screen{Region: s.newRegion(m.Bounds), id: m.ID}
}

// ID returns the monitor id, or VirtualScreen.
func (sc *Screen) ID() int { return sc.id }

// Bounds queries the current bounds of the monitor. The screen's own
// rectangle is the one seen when it was created.
func (sc *Screen) Bounds() (geometry.Rect, error) {
	ms, err := sc.s.Monitors()
	if err != nil {
		return geometry.Rect{}, err
	}
	if sc.id == VirtualScreen {
		return platform.Union(ms), nil
	}
	m, ok := platform.MonitorByID(ms, sc.id)
	if !ok {
		return geometry.Rect{}, fmt.Errorf("%w: screen %d is gone", ErrOutOfBounds, sc.id)
	}
	return m.Bounds, nil
}

// NumberScreens returns the current number of monitors.
func (sc *Screen) NumberScreens() (int, error) {
	return sc.s.NumberScreens()
}

// CaptureToFile saves the pixels of r, or of the whole screen when r is
// nil, to a new temporary PNG file and returns its path.
func (sc *Screen) CaptureToFile(r *Region) (string, error) {
	if r == nil {
		r = sc.Region
	}
	img, _, err := r.Capture()
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "region-capture-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create capture file: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := imaging.SavePNG(img, path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (sc *Screen) String() string {
	return fmt.Sprintf("Screen(%d)%s", sc.id, sc.rect)
}

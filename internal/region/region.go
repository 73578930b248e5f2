package region

import (
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

const (
	// ToEdge makes Above, Below, Left and Right extend to the edge of the
	// monitor holding the region's top-left corner.
	ToEdge = -1

	// DefaultNearby is the margin Nearby uses for a non-positive argument.
	DefaultNearby = 50

	defaultScanRate = 3.0
)

// Region is a rectangle on the desktop plus the search state attached to
// it. A Region is not safe for concurrent use, with the exception of
// StopObserver and IsObserving.
type Region struct {
	s    *Session
	rect geometry.Rect

	autoWaitTimeout time.Duration
	scanRate        float64
	rows, cols      int

	lastMatch   *Match
	lastMatches []*Match
	lastSearch  time.Duration

	ffResponse     FindFailedResponse
	ffHandler      FindFailedHandler
	throwException bool

	observer *Observer

	// pinned regions cover the whole desktop and are never clipped.
	pinned bool
}

// Session returns the session the region belongs to.
func (r *Region) Session() *Session { return r.s }

// Rect returns the region rectangle.
func (r *Region) Rect() geometry.Rect { return r.rect }

func (r *Region) X() int { return r.rect.X }
func (r *Region) Y() int { return r.rect.Y }
func (r *Region) W() int { return r.rect.W }
func (r *Region) H() int { return r.rect.H }

// SetX moves the left edge.
func (r *Region) SetX(x int) { r.rect.X = x }

// SetY moves the top edge.
func (r *Region) SetY(y int) { r.rect.Y = y }

// SetW changes the width. Negative values are rejected.
func (r *Region) SetW(w int) error {
	if w < 0 {
		return fmt.Errorf("%w: negative width %d", ErrInvalidArgument, w)
	}
	r.rect.W = w
	return nil
}

// SetH changes the height. Negative values are rejected.
func (r *Region) SetH(h int) error {
	if h < 0 {
		return fmt.Errorf("%w: negative height %d", ErrInvalidArgument, h)
	}
	r.rect.H = h
	return nil
}

// SetRect replaces the whole rectangle.
func (r *Region) SetRect(rect geometry.Rect) error {
	if rect.W < 0 || rect.H < 0 {
		return fmt.Errorf("%w: negative size in %s", ErrInvalidArgument, rect)
	}
	r.rect = rect
	return nil
}

// MoveTo moves the top-left corner to p, keeping the size.
func (r *Region) MoveTo(p geometry.Point) *Region {
	r.rect.X, r.rect.Y = p.X, p.Y
	return r
}

// MorphTo takes over the rectangle of other.
func (r *Region) MorphTo(other *Region) *Region {
	r.rect = other.rect
	return r
}

// Center returns the centre point.
func (r *Region) Center() geometry.Point { return r.rect.Center() }

func (r *Region) TopLeft() geometry.Point     { return r.rect.TopLeft() }
func (r *Region) TopRight() geometry.Point    { return r.rect.TopRight() }
func (r *Region) BottomLeft() geometry.Point  { return r.rect.BottomLeft() }
func (r *Region) BottomRight() geometry.Point { return r.rect.BottomRight() }

// Inside returns r. It exists so scripts can write r.Inside().Find(p).
func (r *Region) Inside() *Region { return r }

// LastMatch returns the match of the last successful Exists, Find or Wait.
func (r *Region) LastMatch() *Match { return r.lastMatch }

// LastMatches returns the matches collected by the last FindAll.
func (r *Region) LastMatches() []*Match { return r.lastMatches }

// LastSearchTime returns how long the last successful search took.
func (r *Region) LastSearchTime() time.Duration { return r.lastSearch }

// AutoWaitTimeout returns the default timeout of Find, Wait and Exists.
func (r *Region) AutoWaitTimeout() time.Duration { return r.autoWaitTimeout }

// SetAutoWaitTimeout replaces the default search timeout.
func (r *Region) SetAutoWaitTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.autoWaitTimeout = d
}

// WaitScanRate returns the search attempts per second. Until SetWaitScanRate
// is called it follows the session settings.
func (r *Region) WaitScanRate() float64 {
	if r.scanRate > 0 {
		return r.scanRate
	}
	return r.s.settings.WaitScanRate
}

// SetWaitScanRate sets the search attempts per second. Zero selects the
// default of three.
func (r *Region) SetWaitScanRate(rate float64) {
	if rate <= 0 {
		rate = defaultScanRate
	}
	r.scanRate = rate
}

func (r *Region) scanInterval() time.Duration {
	return time.Duration(float64(time.Second) / r.WaitScanRate())
}

func (r *Region) String() string {
	return fmt.Sprintf("Region%s", r.rect)
}

// derive creates a region for rect that inherits the timing and FindFailed
// configuration of r but none of its search or observer state.
func (r *Region) derive(rect geometry.Rect) *Region {
	d := r.s.newRegion(rect)
	d.autoWaitTimeout = r.autoWaitTimeout
	d.scanRate = r.scanRate
	d.ffResponse = r.ffResponse
	d.ffHandler = r.ffHandler
	d.throwException = r.throwException
	return d
}

// clipRect applies the clipping rule to rect. ok is false when rect does
// not touch any monitor.
func clipRect(rect geometry.Rect, ms []platform.Monitor) (geometry.Rect, bool) {
	for _, m := range ms {
		if rect.Within(m.Bounds) {
			return rect, true
		}
		if rect.Overlaps(m.Bounds) {
			return rect.Intersect(m.Bounds), true
		}
	}
	return geometry.Rect{}, false
}

// ClipToScreen returns the part of r that is visible. A region lying
// inside one monitor is returned as is. A region spanning several monitors
// is cut to the lowest-ID monitor it overlaps. The result is nil, without
// error, when r touches no monitor.
func (r *Region) ClipToScreen() (*Region, error) {
	if r.pinned {
		return r, nil
	}
	ms, err := r.s.Monitors()
	if err != nil {
		return nil, err
	}
	rect, ok := clipRect(r.rect, ms)
	if !ok {
		return nil, nil
	}
	if rect == r.rect {
		return r, nil
	}
	return r.derive(rect), nil
}

// IsValid reports whether r touches at least one monitor.
func (r *Region) IsValid() (bool, error) {
	c, err := r.ClipToScreen()
	return c != nil, err
}

// searchRect returns the clipped rectangle searches capture. The layout is
// queried on every call so that monitor changes are honoured.
func (r *Region) searchRect() (geometry.Rect, error) {
	if r.pinned {
		return r.rect, nil
	}
	ms, err := r.s.Monitors()
	if err != nil {
		return geometry.Rect{}, err
	}
	rect, ok := clipRect(r.rect, ms)
	if !ok {
		return geometry.Rect{}, outOfBounds(r.rect)
	}
	if rect.Empty() {
		return geometry.Rect{}, fmt.Errorf("%w: empty region %s", ErrInvalidArgument, rect)
	}
	return rect, nil
}

// Capture returns the current pixels of the clipped region along with the
// rectangle they were taken from.
func (r *Region) Capture() (image.Image, geometry.Rect, error) {
	rect, err := r.searchRect()
	if err != nil {
		return nil, geometry.Rect{}, err
	}
	img, err := r.s.platform.Capture(rect)
	if err != nil {
		return nil, geometry.Rect{}, err
	}
	return img, rect, nil
}

// Render returns the current capture with the raster grid, if any, and the
// target of the last match drawn over it.
func (r *Region) Render() (image.Image, error) {
	img, rect, err := r.Capture()
	if err != nil {
		return nil, err
	}
	opts := imaging.OverlayOptions{
		Rows:   r.rows,
		Cols:   r.cols,
		Origin: rect.TopLeft().ImagePoint(),
		Labels: true,
	}
	if m := r.lastMatch; m != nil && rect.ContainsPoint(m.Target()) {
		opts.Marks = append(opts.Marks, m.Target().Sub(rect.TopLeft()).ImagePoint())
	}
	return imaging.Overlay(img, opts), nil
}

// Preview writes Render to path as PNG.
func (r *Region) Preview(path string) error {
	img, err := r.Render()
	if err != nil {
		return err
	}
	return imaging.SavePNG(img, path)
}

// GetScreen returns the screen holding the top-left corner of r, or nil
// when that corner is not on any monitor.
func (r *Region) GetScreen() (*Screen, error) {
	ms, err := r.s.Monitors()
	if err != nil {
		return nil, err
	}
	m, ok := platform.MonitorAt(ms, r.rect.TopLeft())
	if !ok {
		return nil, nil
	}
	return r.s.screenFor(m), nil
}

// edgeBounds returns the bounds used by the ToEdge form of the directional
// constructors.
func (r *Region) edgeBounds() (geometry.Rect, error) {
	ms, err := r.s.Monitors()
	if err != nil {
		return geometry.Rect{}, err
	}
	if m, ok := platform.MonitorAt(ms, r.rect.TopLeft()); ok {
		return m.Bounds, nil
	}
	return platform.Union(ms), nil
}

// clipped derives a region for rect cut to the monitors, failing with
// ErrOutOfBounds when nothing is visible. An empty rect shows nothing.
func (r *Region) clipped(rect geometry.Rect) (*Region, error) {
	ms, err := r.s.Monitors()
	if err != nil {
		return nil, err
	}
	if rect.Empty() {
		return nil, outOfBounds(rect)
	}
	c, ok := clipRect(rect, ms)
	if !ok {
		return nil, outOfBounds(rect)
	}
	return r.derive(c), nil
}

// Offset returns a region of the same size moved by (dx, dy).
func (r *Region) Offset(dx, dy int) (*Region, error) {
	return r.clipped(r.rect.Offset(dx, dy))
}

// Grow returns a region expanded by dx on the left and right and dy on
// the top and bottom.
func (r *Region) Grow(dx, dy int) (*Region, error) {
	return r.clipped(geometry.NewRect(r.rect.X-dx, r.rect.Y-dy, r.rect.W+2*dx, r.rect.H+2*dy))
}

// Nearby returns a region expanded by margin on every side.
func (r *Region) Nearby(margin int) (*Region, error) {
	if margin <= 0 {
		margin = DefaultNearby
	}
	return r.Grow(margin, margin)
}

// Above returns the strip of height h directly above r. With ToEdge the
// strip reaches the top of the monitor.
func (r *Region) Above(h int) (*Region, error) {
	if h < 0 {
		b, err := r.edgeBounds()
		if err != nil {
			return nil, err
		}
		return r.clipped(geometry.NewRect(r.rect.X, b.Y, r.rect.W, r.rect.Y-b.Y))
	}
	return r.clipped(geometry.NewRect(r.rect.X, r.rect.Y-h, r.rect.W, h))
}

// Below returns the strip of height h directly below r. With ToEdge the
// strip reaches the bottom of the monitor.
func (r *Region) Below(h int) (*Region, error) {
	if h < 0 {
		b, err := r.edgeBounds()
		if err != nil {
			return nil, err
		}
		return r.clipped(geometry.NewRect(r.rect.X, r.rect.Bottom(), r.rect.W, b.Bottom()-r.rect.Bottom()))
	}
	return r.clipped(geometry.NewRect(r.rect.X, r.rect.Bottom(), r.rect.W, h))
}

// Left returns the strip of width w directly left of r. With ToEdge the
// strip reaches the left edge of the monitor.
func (r *Region) Left(w int) (*Region, error) {
	if w < 0 {
		b, err := r.edgeBounds()
		if err != nil {
			return nil, err
		}
		return r.clipped(geometry.NewRect(b.X, r.rect.Y, r.rect.X-b.X, r.rect.H))
	}
	return r.clipped(geometry.NewRect(r.rect.X-w, r.rect.Y, w, r.rect.H))
}

// Right returns the strip of width w directly right of r. With ToEdge the
// strip reaches the right edge of the monitor.
func (r *Region) Right(w int) (*Region, error) {
	if w < 0 {
		b, err := r.edgeBounds()
		if err != nil {
			return nil, err
		}
		return r.clipped(geometry.NewRect(r.rect.Right(), r.rect.Y, b.Right()-r.rect.Right(), r.rect.H))
	}
	return r.clipped(geometry.NewRect(r.rect.Right(), r.rect.Y, w, r.rect.H))
}

package region

import (
	"image"
	"time"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

// Forever disables the deadline of a search.
const Forever time.Duration = -1

// SearchOption adjusts a single search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	timeout time.Duration
}

// Timeout overrides the region's AutoWaitTimeout for one call. Zero makes
// exactly one attempt; Forever polls until the pattern shows up. Any other
// negative value is treated as zero.
func Timeout(d time.Duration) SearchOption {
	return func(o *searchOptions) { o.timeout = d }
}

func (r *Region) timeoutFor(opts []SearchOption) time.Duration {
	o := searchOptions{timeout: r.autoWaitTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout < 0 && o.timeout != Forever {
		return 0
	}
	return o.timeout
}

// poll runs attempt until it reports done, fails, or timeout elapses. The
// first attempt always runs before the deadline is checked, and the sleep
// between attempts never overshoots the deadline.
func (r *Region) poll(timeout time.Duration, attempt func() (bool, error)) error {
	interval := r.scanInterval()
	deadline := time.Now().Add(timeout)
	for {
		done, err := attempt()
		if err != nil || done {
			return err
		}
		wait := interval
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil
			}
			wait = min(wait, remaining)
		}
		time.Sleep(wait)
	}
}

// findOnce captures the clipped region and returns the best match for p, or
// nil when nothing reaches the threshold.
func (r *Region) findOnce(p pattern.Pattern) (*Match, error) {
	img, rect, err := r.Capture()
	if err != nil {
		return nil, err
	}
	c, ok, err := r.s.matcher.FindBest(img, p)
	if err != nil || !ok {
		return nil, err
	}
	w, h, err := p.Size()
	if err != nil {
		return nil, err
	}
	return r.newMatch(rect, c, w, h, p.Offset()), nil
}

// Exists looks for p until it is found or the timeout elapses. Absence is
// not an error: the match is nil.
func (r *Region) Exists(p pattern.Pattern, opts ...SearchOption) (*Match, error) {
	start := time.Now()
	var found *Match
	err := r.poll(r.timeoutFor(opts), func() (bool, error) {
		m, err := r.findOnce(p)
		found = m
		return m != nil, err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		r.s.debugf("could not find %s in %s", p, r.rect)
		return nil, nil
	}
	r.lastMatch = found
	r.lastSearch = time.Since(start)
	r.s.debugf("found %s at %s score %.3f in %s", p.Path(), found.Rect(), found.score, r.lastSearch)
	return found, nil
}

// Find waits up to AutoWaitTimeout for p. When p does not show up the
// FindFailed response decides the outcome: Abort returns a
// *FindFailedError, Skip returns a nil match and Retry searches again.
func (r *Region) Find(p pattern.Pattern) (*Match, error) {
	return r.Wait(p)
}

// Wait is Find with an optional timeout override.
func (r *Region) Wait(p pattern.Pattern, opts ...SearchOption) (*Match, error) {
	timeout := r.timeoutFor(opts)
	for {
		m, err := r.Exists(p, Timeout(timeout))
		if err != nil || m != nil {
			return m, err
		}
		retry, err := r.resolveFindFailed(p)
		if err != nil || !retry {
			return nil, err
		}
	}
}

// FindAll polls until at least one match for p is visible or the timeout
// elapses, and returns every match from that capture in reading order. An
// empty result is not an error.
func (r *Region) FindAll(p pattern.Pattern, opts ...SearchOption) (*Matches, error) {
	start := time.Now()
	var found []*Match
	err := r.poll(r.timeoutFor(opts), func() (bool, error) {
		img, rect, err := r.Capture()
		if err != nil {
			return false, err
		}
		cands, err := r.s.matcher.FindAll(img, p)
		if err != nil || len(cands) == 0 {
			return false, err
		}
		w, h, err := p.Size()
		if err != nil {
			return false, err
		}
		found = make([]*Match, len(cands))
		for i, c := range cands {
			found[i] = r.newMatch(rect, c, w, h, p.Offset())
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	r.lastMatches = found
	if len(found) > 0 {
		r.lastSearch = time.Since(start)
	}
	r.s.debugf("found %d matches for %s in %s", len(found), p.Path(), r.rect)
	return &Matches{items: found}, nil
}

// WaitVanish polls until p is no longer visible. It returns true when the
// last capture no longer showed p and false when p was still there at the
// deadline. It never runs the FindFailed protocol.
func (r *Region) WaitVanish(p pattern.Pattern, opts ...SearchOption) (bool, error) {
	vanished := false
	err := r.poll(r.timeoutFor(opts), func() (bool, error) {
		m, err := r.findOnce(p)
		vanished = err == nil && m == nil
		return vanished, err
	})
	if err != nil {
		return false, err
	}
	return vanished, nil
}

// ChangeSet describes the pixels that differ from a baseline.
type ChangeSet struct {
	// Pixels is the number of differing pixels.
	Pixels int `json:"pixels"`

	// Bounds encloses the differing pixels in desktop coordinates. It is the
	// zero Rect when nothing changed.
	Bounds geometry.Rect `json:"bounds"`
}

// Changes compares a fresh capture with baseline, which must have the
// capture's dimensions.
func (r *Region) Changes(baseline image.Image) (ChangeSet, error) {
	img, rect, err := r.Capture()
	if err != nil {
		return ChangeSet{}, err
	}
	d, err := imaging.Diff(baseline, img, r.s.settings.ChangeTolerance)
	if err != nil {
		return ChangeSet{}, err
	}
	cs := ChangeSet{Pixels: d.Pixels}
	if d.Pixels > 0 {
		cs.Bounds = geometry.FromImageRect(d.Bounds).Offset(rect.X, rect.Y)
	}
	return cs, nil
}

// IsChanged reports whether at least minChangedPixels pixels differ between
// baseline and the current capture.
func (r *Region) IsChanged(minChangedPixels int, baseline image.Image) (bool, error) {
	cs, err := r.Changes(baseline)
	if err != nil {
		return false, err
	}
	return cs.Pixels >= minChangedPixels, nil
}

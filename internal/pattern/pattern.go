// Package pattern describes the reference images searched for on screen.
//
// A Pattern is an immutable value: the resolved image path, the similarity
// threshold a candidate must reach, and the offset from the match centre that
// input actions aim at. Similar, Exact and TargetOffset return modified
// copies and never touch the receiver.
//
// Patterns are created by a Library, which resolves relative names against
// an ordered list of directories and shares one ImageCache for the decoded
// needles.
package pattern

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
)

// ErrNotFound is returned when a pattern image cannot be located in any
// search directory.
var ErrNotFound = errors.New("pattern image not found")

// Pattern is a reference image plus a similarity threshold and target offset.
type Pattern struct {
	path       string
	similarity float64
	offset     geometry.Point

	cache *imaging.ImageCache
	img   image.Image
}

// FromImage builds a Pattern around an in-memory needle. name is used only
// for display.
func FromImage(name string, img image.Image, similarity float64) Pattern {
	return Pattern{
		path:       name,
		similarity: clamp(similarity),
		img:        img,
	}
}

// Path returns the resolved image path.
func (p Pattern) Path() string { return p.path }

// Similarity returns the minimum score a match must reach.
func (p Pattern) Similarity() float64 { return p.similarity }

// Offset returns the target offset from the match centre.
func (p Pattern) Offset() geometry.Point { return p.offset }

// IsZero reports whether p is the zero Pattern.
func (p Pattern) IsZero() bool {
	return p.path == "" && p.img == nil
}

// Similar returns a copy of p with the similarity threshold replaced.
// Values outside [0,1] are clamped.
func (p Pattern) Similar(similarity float64) Pattern {
	p.similarity = clamp(similarity)
	return p
}

// Exact returns a copy of p that only matches with score 1.0.
func (p Pattern) Exact() Pattern {
	p.similarity = 1.0
	return p
}

// TargetOffset returns a copy of p whose target is (dx, dy) away from the
// match centre.
func (p Pattern) TargetOffset(dx, dy int) Pattern {
	p.offset = geometry.Pt(dx, dy)
	return p
}

// Image returns the decoded needle. File-backed patterns go through the
// library cache, so a file changed on disk is picked up after eviction.
func (p Pattern) Image() (image.Image, error) {
	if p.img != nil {
		return p.img, nil
	}
	if p.cache == nil {
		return nil, fmt.Errorf("%w: %q has no image source", ErrNotFound, p.path)
	}
	return p.cache.Load(p.path)
}

// Size returns the needle dimensions.
func (p Pattern) Size() (width, height int, err error) {
	img, err := p.Image()
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (p Pattern) String() string {
	s := fmt.Sprintf("Pattern(%q).similar(%.2f)", p.path, p.similarity)
	if p.offset != (geometry.Point{}) {
		s += fmt.Sprintf(".targetOffset(%d,%d)", p.offset.X, p.offset.Y)
	}
	return s
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}

package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrDimensionMismatch is returned when two images that must have the same
// size do not.
var ErrDimensionMismatch = errors.New("image dimensions differ")

// DiffResult describes the pixels that differ between two images.
type DiffResult struct {
	// Pixels is the number of differing pixels.
	Pixels int `json:"pixels"`

	// Bounds is the smallest rectangle, in image-local coordinates starting at
	// (0,0), that contains every differing pixel. It is empty when Pixels is 0.
	Bounds image.Rectangle `json:"bounds"`
}

// Diff compares a and b pixel by pixel.
//
// With tolerance 0 two pixels differ when any RGBA channel differs. With a
// positive tolerance, opaque pixels whose CIE-Lab distance is at most
// tolerance count as equal; this absorbs the anti-aliasing noise some
// compositors add between captures.
func Diff(a, b image.Image, tolerance float64) (DiffResult, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return DiffResult{}, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrDimensionMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	var res DiffResult
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := a.At(ab.Min.X+x, ab.Min.Y+y)
			cb := b.At(bb.Min.X+x, bb.Min.Y+y)
			if pixelsEqual(ca, cb, tolerance) {
				continue
			}
			res.Pixels++
			res.Bounds = res.Bounds.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return res, nil
}

func pixelsEqual(a, b color.Color, tolerance float64) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	if r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2 {
		return true
	}
	if tolerance <= 0 || a1 != a2 {
		return false
	}

	c1, ok1 := colorful.MakeColor(a)
	c2, ok2 := colorful.MakeColor(b)
	if !ok1 || !ok2 {
		return false
	}
	return c1.DistanceLab(c2) <= tolerance
}

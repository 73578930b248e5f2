// Package match finds pattern needles inside captured haystack images.
//
// The Matcher interface is the capability the region engine consumes; NCC is
// the default implementation, a zero-mean normalized cross-correlation over
// grayscale pixels. Coordinates in results are needle top-left positions in
// haystack-local space: (0,0) is the haystack's top-left pixel whatever its
// image bounds say.
package match

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

// ErrNilImage is returned when the haystack is nil.
var ErrNilImage = errors.New("nil haystack image")

// Candidate is one needle placement and its score in [0,1].
type Candidate struct {
	Point geometry.Point `json:"point"`
	Score float64        `json:"score"`
}

// Matcher locates a needle in a haystack. Only candidates scoring at least
// the needle's similarity threshold are reported.
type Matcher interface {
	// FindBest returns the highest scoring candidate. ok is false when no
	// placement reaches the threshold.
	FindBest(haystack image.Image, needle pattern.Pattern) (best Candidate, ok bool, err error)

	// FindAll returns non-overlapping candidates in reading order:
	// top-to-bottom, then left-to-right.
	FindAll(haystack image.Image, needle pattern.Pattern) ([]Candidate, error)
}

const (
	defaultMaxResults = 100

	// Windows whose summed squared deviation is below this are treated as a
	// single flat colour. Pixel values are integers, so any real variation
	// gives at least 1-1/n.
	flatThreshold = 0.25

	// Scores are compared with this slack so that an exact match computed
	// in floating point still passes Exact().
	scoreEpsilon = 1e-9
)

// Option configures an NCC matcher.
type Option func(*NCC)

// WithMaxResults caps the number of candidates FindAll returns.
// Values below 1 restore the default.
func WithMaxResults(n int) Option {
	return func(m *NCC) {
		if n < 1 {
			n = defaultMaxResults
		}
		m.maxResults = n
	}
}

// NCC is a template matcher using zero-mean normalized cross-correlation.
//
// Two flat windows score 1 minus their mean difference over 255; a flat
// window against a textured one scores 0. Negative correlation is clamped
// to 0.
type NCC struct {
	maxResults int
}

// NewNCC creates an NCC matcher.
func NewNCC(opts ...Option) *NCC {
	m := &NCC{maxResults: defaultMaxResults}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FindBest implements Matcher. Ties keep the first placement in reading
// order, and the scan stops early at a perfect score.
func (m *NCC) FindBest(haystack image.Image, needle pattern.Pattern) (Candidate, bool, error) {
	hay, ndl, err := prepare(haystack, needle)
	if err != nil {
		return Candidate{}, false, err
	}

	best := Candidate{Score: -1}
	scan(hay, ndl, func(x, y int, score float64) bool {
		if score > best.Score {
			best = Candidate{Point: geometry.Pt(x, y), Score: score}
		}
		return best.Score < 1
	})

	if best.Score < 0 || best.Score+scoreEpsilon < needle.Similarity() {
		return Candidate{}, false, nil
	}
	return best, true, nil
}

// FindAll implements Matcher. Candidates are picked greedily by descending
// score, dropping any that overlap an already picked one, then sorted into
// reading order.
func (m *NCC) FindAll(haystack image.Image, needle pattern.Pattern) ([]Candidate, error) {
	hay, ndl, err := prepare(haystack, needle)
	if err != nil {
		return nil, err
	}

	var hits []Candidate
	scan(hay, ndl, func(x, y int, score float64) bool {
		if score+scoreEpsilon >= needle.Similarity() {
			hits = append(hits, Candidate{Point: geometry.Pt(x, y), Score: score})
		}
		return true
	})

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	var picked []Candidate
	for _, c := range hits {
		r := geometry.NewRect(c.Point.X, c.Point.Y, ndl.w, ndl.h)
		overlaps := false
		for _, p := range picked {
			if r.Overlaps(geometry.NewRect(p.Point.X, p.Point.Y, ndl.w, ndl.h)) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		picked = append(picked, c)
		if len(picked) >= m.maxResults {
			break
		}
	}

	sort.Slice(picked, func(i, j int) bool {
		if picked[i].Point.Y != picked[j].Point.Y {
			return picked[i].Point.Y < picked[j].Point.Y
		}
		return picked[i].Point.X < picked[j].Point.X
	})
	return picked, nil
}

// gray is a grayscale image flattened row by row.
type gray struct {
	pix  []float64
	w, h int
}

func toGray(img image.Image) gray {
	g := effect.Grayscale(img)
	b := g.Bounds()
	out := gray{pix: make([]float64, b.Dx()*b.Dy()), w: b.Dx(), h: b.Dy()}
	// Grayscale returns RGBA with equal channels; R is the luminance.
	for y := 0; y < out.h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < out.w; x++ {
			out.pix[y*out.w+x] = float64(g.Pix[off+4*x])
		}
	}
	return out
}

func prepare(haystack image.Image, needle pattern.Pattern) (gray, gray, error) {
	if haystack == nil {
		return gray{}, gray{}, ErrNilImage
	}
	nimg, err := needle.Image()
	if err != nil {
		return gray{}, gray{}, err
	}
	return toGray(haystack), toGray(nimg), nil
}

// scan calls visit for every placement of ndl inside hay, in reading order,
// until visit returns false.
func scan(hay, ndl gray, visit func(x, y int, score float64) bool) {
	if ndl.w == 0 || ndl.h == 0 || ndl.w > hay.w || ndl.h > hay.h {
		return
	}

	n := float64(ndl.w * ndl.h)
	var sumN, sumNN float64
	for _, v := range ndl.pix {
		sumN += v
		sumNN += v * v
	}
	devN := sumNN - sumN*sumN/n
	flatN := devN < flatThreshold
	meanN := sumN / n

	sum, sumSq := integrals(hay)
	stride := hay.w + 1

	for y := 0; y+ndl.h <= hay.h; y++ {
		for x := 0; x+ndl.w <= hay.w; x++ {
			sumH := boxSum(sum, stride, x, y, ndl.w, ndl.h)
			devH := boxSum(sumSq, stride, x, y, ndl.w, ndl.h) - sumH*sumH/n
			flatH := devH < flatThreshold

			var score float64
			switch {
			case flatN && flatH:
				score = 1 - math.Abs(sumH/n-meanN)/255
			case flatN || flatH:
				score = 0
			default:
				var cross float64
				for j := 0; j < ndl.h; j++ {
					hrow := hay.pix[(y+j)*hay.w+x : (y+j)*hay.w+x+ndl.w]
					nrow := ndl.pix[j*ndl.w : (j+1)*ndl.w]
					for i, v := range nrow {
						cross += v * hrow[i]
					}
				}
				score = (cross - sumH*sumN/n) / math.Sqrt(devH*devN)
			}

			if !visit(x, y, max(0, min(1, score))) {
				return
			}
		}
	}
}

// integrals returns summed-area tables of g and g squared, each
// (w+1) x (h+1) with a zero first row and column.
func integrals(g gray) (sum, sumSq []float64) {
	stride := g.w + 1
	sum = make([]float64, stride*(g.h+1))
	sumSq = make([]float64, stride*(g.h+1))
	for y := 0; y < g.h; y++ {
		var row, rowSq float64
		for x := 0; x < g.w; x++ {
			v := g.pix[y*g.w+x]
			row += v
			rowSq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + row
			sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rowSq
		}
	}
	return sum, sumSq
}

func boxSum(table []float64, stride, x, y, w, h int) float64 {
	return table[(y+h)*stride+x+w] - table[y*stride+x+w] - table[(y+h)*stride+x] + table[y*stride+x]
}

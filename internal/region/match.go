package region

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/match"
)

// Match is the result of a successful search: the bounding box of the
// needle on the desktop, the matcher score and the target offset. A Match
// does not change once returned; Region gives a separate region to search
// or act on.
type Match struct {
	region *Region
	score  float64
	offset geometry.Point
}

func (r *Region) newMatch(haystack geometry.Rect, c match.Candidate, w, h int, offset geometry.Point) *Match {
	rect := geometry.NewRect(haystack.X+c.Point.X, haystack.Y+c.Point.Y, w, h)
	return &Match{
		region: r.derive(rect),
		score:  c.Score,
		offset: offset,
	}
}

// Region returns a new region covering the match. It carries the search
// settings of the region that produced the match, and changing it leaves
// the match untouched.
func (m *Match) Region() *Region { return m.region.derive(m.region.rect) }

// Rect returns the bounding box of the match.
func (m *Match) Rect() geometry.Rect { return m.region.rect }

func (m *Match) X() int { return m.region.rect.X }
func (m *Match) Y() int { return m.region.rect.Y }
func (m *Match) W() int { return m.region.rect.W }
func (m *Match) H() int { return m.region.rect.H }

// Center returns the centre of the bounding box.
func (m *Match) Center() geometry.Point { return m.region.rect.Center() }

func (m *Match) TopLeft() geometry.Point     { return m.region.rect.TopLeft() }
func (m *Match) TopRight() geometry.Point    { return m.region.rect.TopRight() }
func (m *Match) BottomLeft() geometry.Point  { return m.region.rect.BottomLeft() }
func (m *Match) BottomRight() geometry.Point { return m.region.rect.BottomRight() }

// Score returns the matcher confidence in [0,1].
func (m *Match) Score() float64 { return m.score }

// TargetOffset returns the offset of the target from the centre.
func (m *Match) TargetOffset() geometry.Point { return m.offset }

// Target returns the point input actions aim at: the centre plus the
// pattern's target offset.
func (m *Match) Target() geometry.Point {
	return m.Center().Add(m.offset)
}

func (m *Match) String() string {
	return fmt.Sprintf("Match%s score=%.2f target=%s", m.region.rect, m.score, m.Target())
}

// Matches is the result of FindAll, in reading order. It is consumed with
// Next and cannot be restarted.
type Matches struct {
	items []*Match
	pos   int
}

// Next advances to the following match and reports whether there is one.
func (ms *Matches) Next() bool {
	if ms.pos <= len(ms.items) {
		ms.pos++
	}
	return ms.pos <= len(ms.items)
}

// Match returns the current match. It is nil before the first Next and
// after the sequence is exhausted.
func (ms *Matches) Match() *Match {
	if ms.pos == 0 || ms.pos > len(ms.items) {
		return nil
	}
	return ms.items[ms.pos-1]
}

// Remaining returns the number of matches Next has not reached yet.
func (ms *Matches) Remaining() int {
	return max(0, len(ms.items)-ms.pos)
}

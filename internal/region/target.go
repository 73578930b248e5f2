package region

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

type targetKind int

const (
	targetDefault targetKind = iota
	targetPattern
	targetPath
	targetMatch
	targetRegion
	targetPoint
)

// Target is where an input action aims: a pattern (searched with Find), an
// image name (resolved, then searched), a match, a region or a point. The
// zero Target means the last match of the acting region, or its centre
// when it has none.
type Target struct {
	kind    targetKind
	pattern pattern.Pattern
	name    string
	match   *Match
	region  *Region
	point   geometry.Point
}

// TargetPattern aims at the target of the match Find returns for p.
func TargetPattern(p pattern.Pattern) Target {
	return Target{kind: targetPattern, pattern: p}
}

// TargetPath aims at the pattern image name, resolved through the library.
func TargetPath(name string) Target {
	return Target{kind: targetPath, name: name}
}

// TargetMatch aims at m.Target().
func TargetMatch(m *Match) Target {
	return Target{kind: targetMatch, match: m}
}

// TargetRegion aims at the centre of r.
func TargetRegion(r *Region) Target {
	return Target{kind: targetRegion, region: r}
}

// TargetPoint aims at p.
func TargetPoint(p geometry.Point) Target {
	return Target{kind: targetPoint, point: p}
}

// IsZero reports whether t is the zero Target.
func (t Target) IsZero() bool { return t.kind == targetDefault }

func (t Target) String() string {
	switch t.kind {
	case targetPattern:
		return t.pattern.String()
	case targetPath:
		return fmt.Sprintf("%q", t.name)
	case targetMatch:
		return fmt.Sprint(t.match)
	case targetRegion:
		return fmt.Sprint(t.region)
	case targetPoint:
		return t.point.String()
	default:
		return "last match"
	}
}

// resolveTarget turns t into a desktop point. ok is false when a pattern
// search ended in Skip; the action is then skipped without error.
func (r *Region) resolveTarget(t Target) (pt geometry.Point, ok bool, err error) {
	switch t.kind {
	case targetDefault:
		if r.lastMatch != nil {
			return r.lastMatch.Target(), true, nil
		}
		return r.Center(), true, nil

	case targetPath:
		p, err := r.s.Pattern(t.name)
		if err != nil {
			return geometry.Point{}, false, err
		}
		return r.resolveTarget(TargetPattern(p))

	case targetPattern:
		m, err := r.Find(t.pattern)
		if err != nil || m == nil {
			return geometry.Point{}, false, err
		}
		return m.Target(), true, nil

	case targetMatch:
		if t.match == nil {
			return geometry.Point{}, false, fmt.Errorf("%w: nil match target", ErrInvalidArgument)
		}
		return t.match.Target(), true, nil

	case targetRegion:
		if t.region == nil {
			return geometry.Point{}, false, fmt.Errorf("%w: nil region target", ErrInvalidArgument)
		}
		return t.region.Center(), true, nil

	case targetPoint:
		return t.point, true, nil
	}
	return geometry.Point{}, false, fmt.Errorf("%w: unknown target kind %d", ErrInvalidArgument, int(t.kind))
}

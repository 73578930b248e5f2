package region

import (
	"errors"
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

var (
	// ErrNotFound is returned when a pattern image cannot be resolved.
	ErrNotFound = pattern.ErrNotFound

	// ErrDimensionMismatch is returned by IsChanged when the baseline and the
	// current capture differ in size.
	ErrDimensionMismatch = imaging.ErrDimensionMismatch

	// ErrInvalidArgument reports a malformed constructor or target argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfBounds is returned when a region does not intersect any monitor.
	ErrOutOfBounds = errors.New("region outside all monitors")

	// ErrWrongEventKind is returned by an Event accessor that does not apply
	// to the event's kind.
	ErrWrongEventKind = errors.New("wrong event kind")

	// ErrNoEventData is returned by an Event accessor whose data was not
	// recorded for this occurrence.
	ErrNoEventData = errors.New("event data not set")

	// ErrFindFailed matches every *FindFailedError.
	ErrFindFailed = errors.New("find failed")
)

// FindFailedError is the terminal failure of a search resolved as Abort.
type FindFailedError struct {
	Pattern pattern.Pattern
	Region  geometry.Rect
}

func (e *FindFailedError) Error() string {
	return fmt.Sprintf("find failed: could not find %s in %s", e.Pattern, e.Region)
}

// Is makes errors.Is(err, ErrFindFailed) hold.
func (e *FindFailedError) Is(target error) bool {
	return target == ErrFindFailed
}

func outOfBounds(r geometry.Rect) error {
	return fmt.Errorf("%w: %s", ErrOutOfBounds, r)
}

package region

import (
	"fmt"
	"image"

	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

// EventKind classifies an Event.
type EventKind int

const (
	EventGeneric EventKind = iota
	EventAppear
	EventVanish
	EventChange
	EventFindFailed
	EventMissing
)

func (k EventKind) String() string {
	switch k {
	case EventGeneric:
		return "GENERIC"
	case EventAppear:
		return "APPEAR"
	case EventVanish:
		return "VANISH"
	case EventChange:
		return "CHANGE"
	case EventFindFailed:
		return "FINDFAILED"
	case EventMissing:
		return "MISSING"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one occurrence reported by an observer watcher or by the
// FindFailed protocol.
type Event struct {
	kind   EventKind
	name   string
	region *Region
	count  int

	pattern    pattern.Pattern
	hasPattern bool
	match      *Match
	changes    ChangeSet
	hasChanges bool

	response FindFailedResponse
}

// Kind returns the event kind.
func (e *Event) Kind() EventKind { return e.kind }

// Name returns the id of the watcher that fired, empty for FindFailed events.
func (e *Event) Name() string { return e.name }

// Region returns the region the event was observed in.
func (e *Event) Region() *Region { return e.region }

// Count returns how many times the watcher has fired, this time included.
func (e *Event) Count() int { return e.count }

func (e *Event) String() string {
	return fmt.Sprintf("%s event %s #%d in %s", e.kind, e.name, e.count, e.region)
}

func (e *Event) requireKind(accessor string, kinds ...EventKind) error {
	for _, k := range kinds {
		if e.kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not valid for a %s event", ErrWrongEventKind, accessor, e.kind)
}

// Pattern returns the pattern being watched or searched for. It is valid
// for APPEAR, VANISH, FINDFAILED and MISSING events.
func (e *Event) Pattern() (pattern.Pattern, error) {
	if err := e.requireKind("Pattern", EventAppear, EventVanish, EventFindFailed, EventMissing); err != nil {
		return pattern.Pattern{}, err
	}
	if !e.hasPattern {
		return pattern.Pattern{}, fmt.Errorf("%w: pattern", ErrNoEventData)
	}
	return e.pattern, nil
}

// Image returns the needle of Pattern.
func (e *Event) Image() (image.Image, error) {
	p, err := e.Pattern()
	if err != nil {
		return nil, err
	}
	return p.Image()
}

// Match returns the match that triggered an APPEAR event, or the last match
// seen before a VANISH event.
func (e *Event) Match() (*Match, error) {
	if err := e.requireKind("Match", EventAppear, EventVanish); err != nil {
		return nil, err
	}
	if e.match == nil {
		return nil, fmt.Errorf("%w: match", ErrNoEventData)
	}
	return e.match, nil
}

// Changes returns the changed pixels of a CHANGE event.
func (e *Event) Changes() (ChangeSet, error) {
	if err := e.requireKind("Changes", EventChange); err != nil {
		return ChangeSet{}, err
	}
	if !e.hasChanges {
		return ChangeSet{}, fmt.Errorf("%w: changes", ErrNoEventData)
	}
	return e.changes, nil
}

// SetResponse chooses how a FINDFAILED event is resolved. It is only valid
// inside a FindFailedHandler.
func (e *Event) SetResponse(resp FindFailedResponse) error {
	if err := e.requireKind("SetResponse", EventFindFailed); err != nil {
		return err
	}
	if !resp.valid() {
		return fmt.Errorf("%w: find failed response %d", ErrInvalidArgument, int(resp))
	}
	e.response = resp
	return nil
}

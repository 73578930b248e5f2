package region

import (
	"fmt"
	"strings"

	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

// FindFailedResponse decides what Find and Wait do when the search times
// out.
type FindFailedResponse int

const (
	responseUnset FindFailedResponse = iota

	// Abort fails the search with a *FindFailedError.
	Abort
	// Skip returns no match and no error.
	Skip
	// Prompt asks the session Prompter for one of the other responses.
	Prompt
	// Retry runs the whole search again.
	Retry
)

func (f FindFailedResponse) String() string {
	switch f {
	case Abort:
		return "ABORT"
	case Skip:
		return "SKIP"
	case Prompt:
		return "PROMPT"
	case Retry:
		return "RETRY"
	default:
		return fmt.Sprintf("FindFailedResponse(%d)", int(f))
	}
}

func (f FindFailedResponse) valid() bool {
	return f >= Abort && f <= Retry
}

// ParseFindFailedResponse parses ABORT, SKIP, PROMPT or RETRY, ignoring case.
func ParseFindFailedResponse(s string) (FindFailedResponse, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ABORT":
		return Abort, nil
	case "SKIP":
		return Skip, nil
	case "PROMPT":
		return Prompt, nil
	case "RETRY":
		return Retry, nil
	}
	return responseUnset, fmt.Errorf("%w: find failed response %q", ErrInvalidArgument, s)
}

// FindFailedHandler is called with a FindFailed event when a search times
// out. It may choose the response with Event.SetResponse.
type FindFailedHandler func(ev *Event)

// SetFindFailedResponse sets the default response to a failed search.
func (r *Region) SetFindFailedResponse(resp FindFailedResponse) error {
	if !resp.valid() {
		return fmt.Errorf("%w: find failed response %d", ErrInvalidArgument, int(resp))
	}
	r.ffResponse = resp
	return nil
}

// FindFailedResponse returns the default response to a failed search.
func (r *Region) FindFailedResponse() FindFailedResponse { return r.ffResponse }

// SetFindFailedHandler installs h, or removes the handler when h is nil.
func (r *Region) SetFindFailedHandler(h FindFailedHandler) { r.ffHandler = h }

// SetThrowException switches the response between Abort (on) and Skip (off).
func (r *Region) SetThrowException(on bool) {
	r.throwException = on
	if on {
		r.ffResponse = Abort
	} else {
		r.ffResponse = Skip
	}
}

// ThrowException reports whether failed searches return an error.
func (r *Region) ThrowException() bool { return r.throwException }

// resolveFindFailed runs the failure protocol for p. It returns true when
// the search must be repeated, false with a nil error for Skip and a
// *FindFailedError for Abort.
func (r *Region) resolveFindFailed(p pattern.Pattern) (bool, error) {
	ev := &Event{kind: EventFindFailed, region: r, pattern: p, hasPattern: true}
	if r.ffHandler != nil {
		r.ffHandler(ev)
	}

	resp := ev.response
	if !resp.valid() {
		resp = r.ffResponse
	}
	if resp == Prompt {
		var err error
		resp, err = r.prompt(p)
		if err != nil {
			return false, err
		}
	}

	r.s.debugf("find failed for %s in %s: %s", p, r.rect, resp)
	switch resp {
	case Retry:
		return true, nil
	case Skip:
		return false, nil
	default:
		return false, &FindFailedError{Pattern: p, Region: r.rect}
	}
}

func (r *Region) prompt(p pattern.Pattern) (FindFailedResponse, error) {
	if r.s.prompter == nil {
		r.s.infof("no prompter configured, aborting search for %s", p)
		return Abort, nil
	}
	msg := fmt.Sprintf("Could not find target %q. Abort, retry, or skip?", p.Path())
	resp, err := r.s.prompter.AskAbortRetrySkip(msg)
	if err != nil {
		return responseUnset, fmt.Errorf("prompt: %w", err)
	}
	if resp != Retry && resp != Skip {
		resp = Abort
	}
	return resp, nil
}

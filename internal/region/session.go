package region

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/region-tools-mcp/internal/config"
	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/match"
	"github.com/ironsheep/region-tools-mcp/internal/pattern"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

// Prompter asks a person how to resolve a failed search. It is only
// consulted for the Prompt response and blocks until an answer is given.
type Prompter interface {
	AskAbortRetrySkip(message string) (FindFailedResponse, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(message string) (FindFailedResponse, error)

// AskAbortRetrySkip calls f(message).
func (f PrompterFunc) AskAbortRetrySkip(message string) (FindFailedResponse, error) {
	return f(message)
}

// Session is the context every Region works in: the platform handles, the
// matcher, the settings and the pattern library. A Session is safe to share
// between goroutines; the regions it creates are not.
type Session struct {
	platform platform.Platform
	matcher  match.Matcher
	settings config.Settings
	library  *pattern.Library
	prompter Prompter
	logger   *log.Logger
	cache    *imaging.ImageCache
}

// Option configures a Session.
type Option func(*Session)

// WithPrompter installs the collaborator used for the Prompt response.
func WithPrompter(p Prompter) Option {
	return func(s *Session) { s.prompter = p }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithImageCache shares an existing needle cache.
func WithImageCache(c *imaging.ImageCache) Option {
	return func(s *Session) { s.cache = c }
}

// NewSession creates a Session. A nil matcher selects match.NewNCC.
func NewSession(p platform.Platform, m match.Matcher, settings config.Settings, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil platform", ErrInvalidArgument)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = match.NewNCC()
	}

	s := &Session{
		platform: p,
		matcher:  m,
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
	}
	s.library = pattern.NewLibrary(settings, s.cache)
	return s, nil
}

// Settings returns the session settings.
func (s *Session) Settings() config.Settings { return s.settings }

// Platform returns the platform handle.
func (s *Session) Platform() platform.Platform { return s.platform }

// Library returns the pattern library.
func (s *Session) Library() *pattern.Library { return s.library }

// Pattern resolves name through the library search paths.
func (s *Session) Pattern(name string) (pattern.Pattern, error) {
	return s.library.Load(name)
}

// NewRegion creates a region at (x, y) of size w x h. The rect is not
// clipped here; searches clip it to the monitors when they run.
func (s *Session) NewRegion(x, y, w, h int) (*Region, error) {
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrInvalidArgument, w, h)
	}
	return s.newRegion(geometry.NewRect(x, y, w, h)), nil
}

// RegionOf creates a region covering r.
func (s *Session) RegionOf(r geometry.Rect) (*Region, error) {
	return s.NewRegion(r.X, r.Y, r.W, r.H)
}

// Monitors returns the current monitor layout ordered by ID.
func (s *Session) Monitors() ([]platform.Monitor, error) {
	ms, err := s.platform.Monitors()
	if err != nil {
		return nil, err
	}
	platform.SortMonitors(ms)
	return ms, nil
}

// NumberScreens returns the number of monitors.
func (s *Session) NumberScreens() (int, error) {
	ms, err := s.Monitors()
	if err != nil {
		return 0, err
	}
	return len(ms), nil
}

func (s *Session) newRegion(r geometry.Rect) *Region {
	reg := &Region{
		s:               s,
		rect:            r,
		autoWaitTimeout: s.settings.AutoWaitTimeout,
		ffResponse:      Abort,
		throwException:  true,
	}
	reg.observer = newObserver(reg)
	return reg
}

func (s *Session) debugf(format string, args ...interface{}) {
	if s.settings.Debug() {
		s.logger.Output(2, fmt.Sprintf("[DEBUG] "+format, args...))
	}
}

func (s *Session) infof(format string, args ...interface{}) {
	s.logger.Output(2, fmt.Sprintf(format, args...))
}

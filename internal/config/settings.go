// Package config holds the engine settings and loads them from defaults,
// configuration files and environment variables.
//
// Settings is an immutable value. Nothing in the engine mutates a Settings
// after construction; per-region or per-call overrides are passed explicitly
// and the With* helpers return modified copies.
//
// # Sources
//
// Settings are resolved in increasing order of precedence:
//
//  1. Default() values
//  2. A configuration file (.toml, .yaml or .yml)
//  3. REGION_MCP_* environment variables
//
// Durations are written in files and environment variables as float seconds
// (for example auto_wait_timeout = 2.5).
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSettings is returned by Validate when a field is out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings controls search timing, input pacing and image lookup.
type Settings struct {
	// MinSimilarity is the similarity threshold given to new patterns (0-1).
	MinSimilarity float64

	// AutoWaitTimeout is the default timeout of find, wait and exists.
	AutoWaitTimeout time.Duration

	// WaitScanRate is the number of search attempts per second while polling.
	WaitScanRate float64

	// ObserveScanRate is the number of observer cycles per second.
	ObserveScanRate float64

	// ObserveMinChangedPixels is the default pixel count for change watchers.
	ObserveMinChangedPixels int

	// ChangeTolerance is the CIE-Lab distance under which two pixels are
	// considered equal by change detection. Zero means exact comparison.
	ChangeTolerance float64

	MoveMouseDelay       time.Duration
	ClickDelay           time.Duration
	TypeDelay            time.Duration
	DelayBeforeMouseDown time.Duration
	DelayBeforeDrag      time.Duration
	DelayBeforeDrop      time.Duration

	// BundlePath is searched first when resolving pattern image paths.
	BundlePath string

	// ImagePaths are searched after BundlePath and the working directory.
	ImagePaths []string

	// LogLevel is "info" or "debug".
	LogLevel string
}

const (
	defaultMinSimilarity           = 0.7
	defaultAutoWaitTimeout         = 3 * time.Second
	defaultWaitScanRate            = 3.0
	defaultObserveScanRate         = 3.0
	defaultObserveMinChangedPixels = 50
	defaultMoveMouseDelay          = 300 * time.Millisecond
	defaultTypeDelay               = 50 * time.Millisecond
	defaultDelayBeforeAction       = 300 * time.Millisecond
)

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		MinSimilarity:           defaultMinSimilarity,
		AutoWaitTimeout:         defaultAutoWaitTimeout,
		WaitScanRate:            defaultWaitScanRate,
		ObserveScanRate:         defaultObserveScanRate,
		ObserveMinChangedPixels: defaultObserveMinChangedPixels,
		MoveMouseDelay:          defaultMoveMouseDelay,
		TypeDelay:               defaultTypeDelay,
		DelayBeforeMouseDown:    defaultDelayBeforeAction,
		DelayBeforeDrag:         defaultDelayBeforeAction,
		DelayBeforeDrop:         defaultDelayBeforeAction,
		LogLevel:                "info",
	}
}

// Validate reports the first out-of-range field.
func (s Settings) Validate() error {
	if s.MinSimilarity < 0 || s.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity %v outside [0,1]", ErrInvalidSettings, s.MinSimilarity)
	}
	if s.WaitScanRate <= 0 {
		return fmt.Errorf("%w: wait_scan_rate must be positive", ErrInvalidSettings)
	}
	if s.ObserveScanRate <= 0 {
		return fmt.Errorf("%w: observe_scan_rate must be positive", ErrInvalidSettings)
	}
	if s.ObserveMinChangedPixels < 0 {
		return fmt.Errorf("%w: observe_min_changed_pixels must not be negative", ErrInvalidSettings)
	}
	if s.ChangeTolerance < 0 {
		return fmt.Errorf("%w: change_tolerance must not be negative", ErrInvalidSettings)
	}
	durations := map[string]time.Duration{
		"auto_wait_timeout":       s.AutoWaitTimeout,
		"move_mouse_delay":        s.MoveMouseDelay,
		"click_delay":             s.ClickDelay,
		"type_delay":              s.TypeDelay,
		"delay_before_mouse_down": s.DelayBeforeMouseDown,
		"delay_before_drag":       s.DelayBeforeDrag,
		"delay_before_drop":       s.DelayBeforeDrop,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSettings, name)
		}
	}
	switch s.LogLevel {
	case "", "info", "debug":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidSettings, s.LogLevel)
	}
	return nil
}

// Debug reports whether verbose logging is enabled.
func (s Settings) Debug() bool {
	return s.LogLevel == "debug"
}

// WaitScanInterval converts WaitScanRate into the sleep between attempts.
func (s Settings) WaitScanInterval() time.Duration {
	return rateToInterval(s.WaitScanRate)
}

// ObserveInterval converts ObserveScanRate into the sleep between cycles.
func (s Settings) ObserveInterval() time.Duration {
	return rateToInterval(s.ObserveScanRate)
}

// WithMinSimilarity returns a copy with MinSimilarity replaced.
func (s Settings) WithMinSimilarity(v float64) Settings {
	s.MinSimilarity = v
	return s
}

// WithAutoWaitTimeout returns a copy with AutoWaitTimeout replaced.
func (s Settings) WithAutoWaitTimeout(d time.Duration) Settings {
	s.AutoWaitTimeout = d
	return s
}

// WithScanRates returns a copy with both scan rates replaced.
func (s Settings) WithScanRates(wait, observe float64) Settings {
	s.WaitScanRate = wait
	s.ObserveScanRate = observe
	return s
}

// WithoutDelays returns a copy with every input delay set to zero.
func (s Settings) WithoutDelays() Settings {
	s.MoveMouseDelay = 0
	s.ClickDelay = 0
	s.TypeDelay = 0
	s.DelayBeforeMouseDown = 0
	s.DelayBeforeDrag = 0
	s.DelayBeforeDrop = 0
	return s
}

// WithImagePaths returns a copy with the image search path replaced.
func (s Settings) WithImagePaths(bundle string, paths ...string) Settings {
	s.BundlePath = bundle
	s.ImagePaths = append([]string(nil), paths...)
	return s
}

func rateToInterval(rate float64) time.Duration {
	if rate <= 0 {
		rate = defaultWaitScanRate
	}
	return time.Duration(float64(time.Second) / rate)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadEnv.
const EnvPrefix = "REGION_MCP_"

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// fileSettings mirrors Settings with optional fields so that a file only
// overrides what it mentions.
type fileSettings struct {
	MinSimilarity           *float64 `toml:"min_similarity" yaml:"min_similarity"`
	AutoWaitTimeout         *float64 `toml:"auto_wait_timeout" yaml:"auto_wait_timeout"`
	WaitScanRate            *float64 `toml:"wait_scan_rate" yaml:"wait_scan_rate"`
	ObserveScanRate         *float64 `toml:"observe_scan_rate" yaml:"observe_scan_rate"`
	ObserveMinChangedPixels *int     `toml:"observe_min_changed_pixels" yaml:"observe_min_changed_pixels"`
	ChangeTolerance         *float64 `toml:"change_tolerance" yaml:"change_tolerance"`
	MoveMouseDelay          *float64 `toml:"move_mouse_delay" yaml:"move_mouse_delay"`
	ClickDelay              *float64 `toml:"click_delay" yaml:"click_delay"`
	TypeDelay               *float64 `toml:"type_delay" yaml:"type_delay"`
	DelayBeforeMouseDown    *float64 `toml:"delay_before_mouse_down" yaml:"delay_before_mouse_down"`
	DelayBeforeDrag         *float64 `toml:"delay_before_drag" yaml:"delay_before_drag"`
	DelayBeforeDrop         *float64 `toml:"delay_before_drop" yaml:"delay_before_drop"`
	BundlePath              *string  `toml:"bundle_path" yaml:"bundle_path"`
	ImagePaths              []string `toml:"image_paths" yaml:"image_paths"`
	LogLevel                *string  `toml:"log_level" yaml:"log_level"`
}

// Load resolves settings from defaults, the optional file at path and the
// environment, then validates the result. An empty path skips the file.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		var err error
		s, err = LoadFile(s, path)
		if err != nil {
			return Settings{}, err
		}
	}
	s, err := LoadEnv(s)
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile applies the file at path on top of base. The format is chosen by
// extension: .toml, .yaml or .yml.
func LoadFile(base Settings, path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fs fileSettings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fs)
	default:
		return Settings{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return Settings{}, &ParseError{Path: path, Message: err.Error(), Err: err}
	}

	return fs.apply(base), nil
}

func (f fileSettings) apply(s Settings) Settings {
	if f.MinSimilarity != nil {
		s.MinSimilarity = *f.MinSimilarity
	}
	if f.AutoWaitTimeout != nil {
		s.AutoWaitTimeout = seconds(*f.AutoWaitTimeout)
	}
	if f.WaitScanRate != nil {
		s.WaitScanRate = *f.WaitScanRate
	}
	if f.ObserveScanRate != nil {
		s.ObserveScanRate = *f.ObserveScanRate
	}
	if f.ObserveMinChangedPixels != nil {
		s.ObserveMinChangedPixels = *f.ObserveMinChangedPixels
	}
	if f.ChangeTolerance != nil {
		s.ChangeTolerance = *f.ChangeTolerance
	}
	if f.MoveMouseDelay != nil {
		s.MoveMouseDelay = seconds(*f.MoveMouseDelay)
	}
	if f.ClickDelay != nil {
		s.ClickDelay = seconds(*f.ClickDelay)
	}
	if f.TypeDelay != nil {
		s.TypeDelay = seconds(*f.TypeDelay)
	}
	if f.DelayBeforeMouseDown != nil {
		s.DelayBeforeMouseDown = seconds(*f.DelayBeforeMouseDown)
	}
	if f.DelayBeforeDrag != nil {
		s.DelayBeforeDrag = seconds(*f.DelayBeforeDrag)
	}
	if f.DelayBeforeDrop != nil {
		s.DelayBeforeDrop = seconds(*f.DelayBeforeDrop)
	}
	if f.BundlePath != nil {
		s.BundlePath = *f.BundlePath
	}
	if f.ImagePaths != nil {
		s.ImagePaths = append([]string(nil), f.ImagePaths...)
	}
	if f.LogLevel != nil {
		s.LogLevel = *f.LogLevel
	}
	return s
}

// LoadEnv applies REGION_MCP_* variables on top of base.
//
// IMAGE_PATHS uses the platform list separator (":" on Unix, ";" on Windows).
func LoadEnv(base Settings) (Settings, error) {
	s := base

	floats := map[string]*float64{
		"MIN_SIMILARITY":    &s.MinSimilarity,
		"WAIT_SCAN_RATE":    &s.WaitScanRate,
		"OBSERVE_SCAN_RATE": &s.ObserveScanRate,
		"CHANGE_TOLERANCE":  &s.ChangeTolerance,
	}
	for name, dst := range floats {
		if val, ok := lookup(name); ok {
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Settings{}, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"AUTO_WAIT_TIMEOUT":       &s.AutoWaitTimeout,
		"MOVE_MOUSE_DELAY":        &s.MoveMouseDelay,
		"CLICK_DELAY":             &s.ClickDelay,
		"TYPE_DELAY":              &s.TypeDelay,
		"DELAY_BEFORE_MOUSE_DOWN": &s.DelayBeforeMouseDown,
		"DELAY_BEFORE_DRAG":       &s.DelayBeforeDrag,
		"DELAY_BEFORE_DROP":       &s.DelayBeforeDrop,
	}
	for name, dst := range durations {
		if val, ok := lookup(name); ok {
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Settings{}, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = seconds(v)
		}
	}

	if val, ok := lookup("OBSERVE_MIN_CHANGED_PIXELS"); ok {
		v, err := strconv.Atoi(val)
		if err != nil {
			return Settings{}, fmt.Errorf("%sOBSERVE_MIN_CHANGED_PIXELS: %w", EnvPrefix, err)
		}
		s.ObserveMinChangedPixels = v
	}
	if val, ok := lookup("BUNDLE_PATH"); ok {
		s.BundlePath = val
	}
	if val, ok := lookup("IMAGE_PATHS"); ok {
		s.ImagePaths = filepath.SplitList(val)
	}
	if val, ok := lookup("LOG_LEVEL"); ok {
		s.LogLevel = strings.ToLower(val)
	}

	return s, nil
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

package pattern

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/region-tools-mcp/internal/config"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
)

// Library resolves pattern names to files and hands out Patterns that share
// one image cache.
type Library struct {
	bundlePath    string
	imagePaths    []string
	minSimilarity float64
	cache         *imaging.ImageCache

	getwd func() (string, error)
}

// NewLibrary creates a Library from the image paths and default similarity in
// settings. A nil cache gets a private one.
func NewLibrary(settings config.Settings, cache *imaging.ImageCache) *Library {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &Library{
		bundlePath:    settings.BundlePath,
		imagePaths:    append([]string(nil), settings.ImagePaths...),
		minSimilarity: settings.MinSimilarity,
		cache:         cache,
		getwd:         os.Getwd,
	}
}

// Cache returns the shared image cache.
func (l *Library) Cache() *imaging.ImageCache {
	return l.cache
}

// SearchPaths returns the directories tried by Resolve, in order: the bundle
// path, the working directory, then the configured image paths. Empty
// entries are skipped.
func (l *Library) SearchPaths() []string {
	var dirs []string
	if l.bundlePath != "" {
		dirs = append(dirs, l.bundlePath)
	}
	if wd, err := l.getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	for _, p := range l.imagePaths {
		if p != "" {
			dirs = append(dirs, p)
		}
	}
	return dirs
}

// Resolve returns the absolute path of the first existing file named name
// in the search paths. Absolute names are checked as is.
func (l *Library) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}

	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = candidates[:0]
		for _, dir := range l.SearchPaths() {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", err
		}
		return filepath.Clean(abs), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Load resolves name and returns a Pattern with the library's default
// similarity and no target offset. The image is decoded once here so that a
// broken file fails at construction rather than during a search.
func (l *Library) Load(name string) (Pattern, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return Pattern{}, err
	}
	if _, err := l.cache.Load(path); err != nil {
		return Pattern{}, err
	}
	return Pattern{
		path:       path,
		similarity: l.minSimilarity,
		cache:      l.cache,
	}, nil
}

// Watch evicts cached needles when files in the search paths change.
func (l *Library) Watch() (*imaging.CacheWatcher, error) {
	return l.cache.Watch(l.SearchPaths()...)
}

package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ImageCache provides thread-safe caching of decoded pattern images so that a
// polling loop does not re-read its needle from disk on every attempt.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an
// image is loaded, subsequent Load() calls for the same path return the cached
// copy without disk I/O.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Invalidation
//
// Cached images remain in memory until removed via Evict() or Clear(), or until
// a Watch on the containing directory notices the file changed. Patterns that
// are edited on disk while the server runs are therefore picked up on the next
// search.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/button.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	w, _ := cache.Watch("/path/to")
//	defer w.Close()
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG and GIF. The image is cached using the exact
// path string provided, so callers that want eviction by Watch to apply should
// pass absolute, cleaned paths.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Contains reports whether path is currently cached.
func (c *ImageCache) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.images[path]
	return ok
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// DecodeFile reads and decodes an image without caching it.
func DecodeFile(path string) (image.Image, error) {
	return decodeFile(path)
}

// CacheWatcher evicts cache entries when their files change on disk.
type CacheWatcher struct {
	cache   *ImageCache
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
	errs   []error
}

// Watch starts watching dirs. Any write, create, remove or rename of a file in
// one of them evicts the matching absolute path from the cache.
//
// Directories that do not exist are skipped. The returned watcher must be
// closed to release the underlying inotify/kqueue handles.
func (c *ImageCache) Watch(dirs ...string) (*CacheWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(abs); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
		}
	}

	w := &CacheWatcher{
		cache:   c,
		watcher: fw,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Dirs returns the directories being watched.
func (w *CacheWatcher) Dirs() []string {
	return w.watcher.WatchList()
}

// Errors returns the watcher errors seen so far.
func (w *CacheWatcher) Errors() []error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]error(nil), w.errs...)
}

// Close stops the watcher. It is safe to call more than once.
func (w *CacheWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()
	return w.watcher.Close()
}

func (w *CacheWatcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.cache.Evict(filepath.Clean(ev.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
		}
	}
}

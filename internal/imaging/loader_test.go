package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// solidImage returns an NRGBA image filled with c.
func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writePNG encodes img into dir/name and returns the absolute path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", path, err)
	}
	return abs
}

// createTestImage writes a solid-colour PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writePNG(t, t.TempDir(), "test-image.png", solidImage(width, height, c))
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Fatalf("new cache should be empty, has %d entries", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}

	// Second load should return cached image
	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if !cache.Contains(imgPath) {
		t.Error("Contains should report the loaded path")
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	t.Run("missing file", func(t *testing.T) {
		if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
			t.Error("Load should fail for non-existent file")
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.png")
		if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := cache.Load(path); err == nil {
			t.Error("Load should fail for invalid image data")
		}
		if cache.Contains(path) {
			t.Error("failed load must not be cached")
		}
	})
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", solidImage(10, 10, color.White))
	b := writePNG(t, dir, "b.png", solidImage(10, 10, color.Black))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	if cache.Contains(a) || !cache.Contains(b) {
		t.Errorf("Evict removed the wrong entry: a=%v b=%v", cache.Contains(a), cache.Contains(b))
	}

	// Should not panic
	cache.Evict("/nonexistent/path")

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errors := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errors <- err
			}
		}()
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestImageCache_WatchEvictsChangedFile(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	path := writePNG(t, dir, "button.png", solidImage(20, 20, color.White))

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w, err := cache.Watch(dir, filepath.Join(dir, "missing-subdir"))
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if got := len(w.Dirs()); got != 1 {
		t.Errorf("watched dirs: got %d, want 1 (missing dirs are skipped)", got)
	}

	writePNG(t, dir, "button.png", solidImage(30, 30, color.Black))

	deadline := time.Now().Add(3 * time.Second)
	for cache.Contains(path) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if cache.Contains(path) {
		t.Fatal("changed file was not evicted")
	}

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("reload width: got %d, want 30", img.Bounds().Dx())
	}
}

func TestCacheWatcher_CloseTwice(t *testing.T) {
	w, err := NewImageCache().Watch(t.TempDir())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

package pattern

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/region-tools-mcp/internal/config"
	"github.com/ironsheep/region-tools-mcp/internal/geometry"
)

// writeNeedle writes a w x h PNG filled with c to dir/name.
func writeNeedle(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

func newTestLibrary(t *testing.T, bundle string, paths ...string) *Library {
	t.Helper()
	lib := NewLibrary(config.Default().WithImagePaths(bundle, paths...), nil)
	cwd := t.TempDir()
	lib.getwd = func() (string, error) { return cwd, nil }
	return lib
}

func TestLibrary_ResolveOrder(t *testing.T) {
	bundle := t.TempDir()
	extra := t.TempDir()
	writeNeedle(t, bundle, "shared.png", 4, 4, color.White)
	writeNeedle(t, extra, "shared.png", 8, 8, color.Black)
	writeNeedle(t, extra, "only-extra.png", 2, 2, color.Black)

	lib := newTestLibrary(t, bundle, extra)

	tests := []struct {
		name    string
		wantDir string
	}{
		{"shared.png", bundle},
		{"only-extra.png", extra},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.Resolve(tt.name)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if filepath.Dir(got) != filepath.Clean(tt.wantDir) {
				t.Errorf("Resolve(%s): got %s, want in %s", tt.name, got, tt.wantDir)
			}
		})
	}
}

func TestLibrary_ResolveWorkingDirectory(t *testing.T) {
	cwd := t.TempDir()
	writeNeedle(t, cwd, "local.png", 3, 3, color.White)

	lib := NewLibrary(config.Default(), nil)
	lib.getwd = func() (string, error) { return cwd, nil }

	got, err := lib.Resolve("local.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(cwd, "local.png") {
		t.Errorf("got %s, want file in working directory", got)
	}
}

func TestLibrary_ResolveNotFound(t *testing.T) {
	lib := newTestLibrary(t, t.TempDir())

	for _, name := range []string{"missing.png", "", "/definitely/not/here.png"} {
		if _, err := lib.Resolve(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q): got %v, want ErrNotFound", name, err)
		}
	}
}

func TestLibrary_Load(t *testing.T) {
	dir := t.TempDir()
	writeNeedle(t, dir, "button.png", 12, 7, color.White)
	lib := newTestLibrary(t, dir)

	p, err := lib.Load("button.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.Similarity() != config.Default().MinSimilarity {
		t.Errorf("Similarity: got %v, want default %v", p.Similarity(), config.Default().MinSimilarity)
	}
	if p.Offset() != (geometry.Point{}) {
		t.Errorf("Offset: got %v, want (0,0)", p.Offset())
	}
	w, h, err := p.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if w != 12 || h != 7 {
		t.Errorf("Size: got %dx%d, want 12x7", w, h)
	}
	if !lib.Cache().Contains(p.Path()) {
		t.Error("Load should populate the shared cache")
	}
}

func TestLibrary_LoadBrokenFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	lib := newTestLibrary(t, dir)

	_, err := lib.Load("broken.png")
	if err == nil {
		t.Fatal("Load should fail for an undecodable file")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("an existing but broken file is not ErrNotFound")
	}
}

func TestPattern_DerivationsLeaveSourceUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeNeedle(t, dir, "icon.png", 5, 5, color.White)
	lib := newTestLibrary(t, dir)

	base, err := lib.Load("icon.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	base = base.TargetOffset(3, -2).Similar(0.8)
	snapshot := base

	tests := []struct {
		name       string
		derived    Pattern
		similarity float64
		offset     geometry.Point
	}{
		{"similar", base.Similar(0.95), 0.95, geometry.Pt(3, -2)},
		{"exact", base.Exact(), 1.0, geometry.Pt(3, -2)},
		{"target offset", base.TargetOffset(10, 20), 0.8, geometry.Pt(10, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.derived.Similarity() != tt.similarity {
				t.Errorf("Similarity: got %v, want %v", tt.derived.Similarity(), tt.similarity)
			}
			if tt.derived.Offset() != tt.offset {
				t.Errorf("Offset: got %v, want %v", tt.derived.Offset(), tt.offset)
			}
			if tt.derived.Path() != base.Path() {
				t.Errorf("Path: got %s, want %s", tt.derived.Path(), base.Path())
			}
			if base != snapshot {
				t.Errorf("source pattern modified: got %v, want %v", base, snapshot)
			}
		})
	}
}

func TestPattern_SimilarClamps(t *testing.T) {
	p := FromImage("mem", image.NewNRGBA(image.Rect(0, 0, 1, 1)), 0.5)

	if got := p.Similar(1.7).Similarity(); got != 1 {
		t.Errorf("Similar(1.7): got %v, want 1", got)
	}
	if got := p.Similar(-3).Similarity(); got != 0 {
		t.Errorf("Similar(-3): got %v, want 0", got)
	}
}

func TestPattern_FromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 9, 4))
	p := FromImage("synthetic", img, 0.9)

	got, err := p.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if got != image.Image(img) {
		t.Error("Image should return the in-memory needle")
	}
	if p.IsZero() {
		t.Error("FromImage pattern should not be zero")
	}
	if !(Pattern{}).IsZero() {
		t.Error("zero Pattern should report IsZero")
	}
	if _, err := (Pattern{}).Image(); !errors.Is(err, ErrNotFound) {
		t.Errorf("zero Pattern Image: got %v, want ErrNotFound", err)
	}
}

func TestPattern_String(t *testing.T) {
	p := FromImage("ok.png", nil, 0.7).TargetOffset(1, 2)
	want := `Pattern("ok.png").similar(0.70).targetOffset(1,2)`
	if p.String() != want {
		t.Errorf("String: got %s, want %s", p.String(), want)
	}
}

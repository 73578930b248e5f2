package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
)

// quadrantImage returns a w x h NRGBA image with red, green, blue and white
// quadrants (top-left, top-right, bottom-left, bottom-right).
func quadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.NRGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255}
			default:
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := quadrantImage(100, 100)

	out, err := Crop(img, image.Rect(50, 0, 100, 50))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if out.Bounds() != image.Rect(0, 0, 50, 50) {
		t.Errorf("bounds: got %v, want (0,0)-(50,50)", out.Bounds())
	}
	if got := out.NRGBAAt(10, 10); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("pixel from green quadrant: got %v", got)
	}
}

func TestCrop_OffsetOrigin(t *testing.T) {
	// A desktop frame whose left monitor sits at negative X.
	frame := image.NewNRGBA(image.Rect(-100, 0, 100, 50))
	frame.SetNRGBA(-90, 5, color.NRGBA{1, 2, 3, 255})

	out, err := Crop(frame, image.Rect(-95, 0, -85, 10))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if got := out.NRGBAAt(5, 5); got != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("pixel at translated position: got %v", got)
	}
}

func TestCrop_Invalid(t *testing.T) {
	img := quadrantImage(100, 100)

	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{"x negative", image.Rect(-1, 0, 50, 50)},
		{"y negative", image.Rect(0, -1, 50, 50)},
		{"x too large", image.Rect(0, 0, 101, 50)},
		{"y too large", image.Rect(0, 0, 50, 101)},
		{"empty", image.Rect(10, 10, 10, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.r); err == nil {
				t.Errorf("Crop(%v) should fail", tt.r)
			}
		})
	}
}

func TestToNRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(5, 5, 15, 25))
	n := ToNRGBA(rgba)

	if n.Bounds() != image.Rect(0, 0, 10, 20) {
		t.Errorf("bounds: got %v, want (0,0)-(10,20)", n.Bounds())
	}

	same := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if ToNRGBA(same) != same {
		t.Error("zero-origin NRGBA should be returned as is")
	}
}

func TestEncodePNG(t *testing.T) {
	img := quadrantImage(40, 20)

	tests := []struct {
		name  string
		scale float64
		w, h  int
	}{
		{"unscaled", 1.0, 40, 20},
		{"zero scale means unscaled", 0, 40, 20},
		{"double", 2.0, 80, 40},
		{"half", 0.5, 20, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncodePNG(img, tt.scale)
			if err != nil {
				t.Fatalf("EncodePNG failed: %v", err)
			}
			if enc.Width != tt.w || enc.Height != tt.h {
				t.Errorf("dimensions: got %dx%d, want %dx%d", enc.Width, enc.Height, tt.w, tt.h)
			}
			if enc.MimeType != "image/png" {
				t.Errorf("MimeType: got %s, want image/png", enc.MimeType)
			}

			data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
			if err != nil {
				t.Fatalf("failed to decode base64: %v", err)
			}
			if _, err := png.Decode(strings.NewReader(string(data))); err != nil {
				t.Errorf("payload is not a PNG: %v", err)
			}
		})
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.png")
	if err := SavePNG(quadrantImage(10, 10), path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	img, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("width: got %d, want 10", img.Bounds().Dx())
	}

	if err := SavePNG(quadrantImage(10, 10), filepath.Join(t.TempDir(), "nodir", "x.png")); err == nil {
		t.Error("SavePNG should fail for a missing directory")
	}
}

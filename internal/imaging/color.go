package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor holds 8-bit colour components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor is a colour in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorSample is one pixel in several representations.
type ColorSample struct {
	Hex   string   `json:"hex"`
	RGB   RGBColor `json:"rgb"`
	Alpha uint8    `json:"alpha"`
	HSL   HSLColor `json:"hsl"`
}

// SampleColor returns the colour of img at p, in img's coordinate space.
func SampleColor(img image.Image, p image.Point) (*ColorSample, error) {
	if !p.In(img.Bounds()) {
		return nil, fmt.Errorf("point (%d,%d) outside image bounds %v", p.X, p.Y, img.Bounds())
	}
	s := newSample(img.At(p.X, p.Y))
	return &s, nil
}

func newSample(c color.Color) ColorSample {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	cf := colorful.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255}
	h, s, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorSample{
		Hex:   cf.Hex(),
		RGB:   RGBColor{R: n.R, G: n.G, B: n.B},
		Alpha: n.A,
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// PaletteEntry is a quantized colour and the share of pixels it covers.
type PaletteEntry struct {
	ColorSample
	Percentage float64 `json:"percentage"`
}

// Palette returns up to count of the most common colours in img, most
// common first. Components are quantized to 16 levels so near-identical
// shades fall together; ties are ordered by hex value.
func Palette(img image.Image, count int) []PaletteEntry {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 || count <= 0 {
		return nil
	}

	counts := make(map[color.NRGBA]int)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			n.R, n.G, n.B, n.A = quantize(n.R), quantize(n.G), quantize(n.B), 255
			counts[n]++
		}
	}

	out := make([]PaletteEntry, 0, len(counts))
	for c, n := range counts {
		out = append(out, PaletteEntry{
			ColorSample: newSample(c),
			Percentage:  float64(n) / float64(total) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Hex < out[j].Hex
	})
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// quantize rounds v to the nearest of 0, 17, 34, ... 255.
func quantize(v uint8) uint8 {
	return uint8((int(v) + 8) / 17 * 17)
}

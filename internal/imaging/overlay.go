package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// OverlayOptions controls what Overlay draws on top of a capture.
type OverlayOptions struct {
	// Rows and Cols draw a raster grid when both are positive. Line positions
	// use the same truncating cell size as region rasters.
	Rows int
	Cols int

	// Marks are image-local points drawn as crosshairs.
	Marks []image.Point

	// Origin is added to mark coordinates when labelling them, so labels show
	// desktop coordinates rather than image-local ones.
	Origin image.Point

	// Labels prints the coordinates next to each mark.
	Labels bool

	// Color is "#RRGGBB", "#RGB" or "#RRGGBBAA". Invalid or empty values fall
	// back to semi-transparent red.
	Color string
}

// Overlay returns a copy of img with the raster grid and marks drawn on it.
// The result starts at (0,0) whatever img's origin.
func Overlay(img image.Image, opts OverlayOptions) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	lineColor, err := parseHexColor(opts.Color)
	if err != nil {
		lineColor = color.RGBA{255, 0, 0, 128}
	}

	result := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	if opts.Rows > 0 && opts.Cols > 0 {
		rowH := int(float64(height) / float64(opts.Rows))
		colW := int(float64(width) / float64(opts.Cols))

		for i := 1; i < opts.Cols && colW > 0; i++ {
			x := i * colW
			for y := 0; y < height; y++ {
				result.Set(x, y, lineColor)
			}
		}
		for i := 1; i < opts.Rows && rowH > 0; i++ {
			y := i * rowH
			for x := 0; x < width; x++ {
				result.Set(x, y, lineColor)
			}
		}
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}
	for _, m := range opts.Marks {
		drawCrosshair(result, m, 5, lineColor)
		if opts.Labels {
			p := m.Add(opts.Origin)
			drawLabel(result, m.X+4, m.Y+4, fmt.Sprintf("%d,%d", p.X, p.Y), labelColor, bgColor)
		}
	}

	return result
}

func drawCrosshair(img *image.RGBA, at image.Point, arm int, c color.RGBA) {
	b := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if p := at.Add(image.Pt(d, 0)); p.In(b) {
			img.Set(p.X, p.Y, c)
		}
		if p := at.Add(image.Pt(0, d)); p.In(b) {
			img.Set(p.X, p.Y, c)
		}
	}
}

// parseHexColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	switch len(hex) {
	case 4, 7, 9:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %s: want #RGB, #RRGGBB or #RRGGBBAA", hex)
	}

	alpha := uint8(255)
	if len(hex) == 9 {
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %s: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	}

	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// drawLabel draws a text label at the given position using a 3x5 pixel font
// that covers digits, comma and minus.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'-': {"000", "000", "111", "000", "000"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := image.Pt(x+dx, y+dy); p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := image.Pt(cx+col, y+row); p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}

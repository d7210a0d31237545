package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Gradient is a vertical two-stop linear gradient between Y0 and Y1.
type Gradient struct {
	Y0, Y1   float64
	From, To colorful.Color
}

// At returns the colour at height y, clamped to the end stops.
func (g Gradient) At(y float64) colorful.Color {
	if g.Y1 == g.Y0 {
		return g.From
	}
	t := math.Max(0, math.Min(1, (y-g.Y0)/(g.Y1-g.Y0)))
	return g.From.BlendRgb(g.To, t).Clamped()
}

// RGBA returns the opaque raster colour at height y.
func (g Gradient) RGBA(y float64) color.RGBA {
	r, gr, b := g.At(y).RGB255()
	return color.RGBA{R: r, G: gr, B: b, A: 0xff}
}

// ParseStops parses exactly two #RRGGBB colours.
func ParseStops(hex []string) (from, to colorful.Color, err error) {
	if len(hex) != 2 {
		return from, to, fmt.Errorf("expected 2 gradient colors, got %d", len(hex))
	}
	if from, err = colorful.Hex(hex[0]); err != nil {
		return from, to, fmt.Errorf("invalid gradient color %q: %w", hex[0], err)
	}
	if to, err = colorful.Hex(hex[1]); err != nil {
		return from, to, fmt.Errorf("invalid gradient color %q: %w", hex[1], err)
	}
	return from, to, nil
}

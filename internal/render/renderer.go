// Package render paints a bar timeline onto a drawing surface.
package render

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/audiolibrelab/barscope/internal/timeline"
)

// Renderer draws bars as vertically centred rectangles filled with a
// two-stop gradient running down the surface.
type Renderer struct {
	from colorful.Color
	to   colorful.Color
	show bool
}

// New creates a renderer from two #RRGGBB colours. When show is false Draw
// leaves surfaces untouched.
func New(colors []string, show bool) (*Renderer, error) {
	from, to, err := ParseStops(colors)
	if err != nil {
		return nil, err
	}
	return &Renderer{from: from, to: to, show: show}, nil
}

// Shows reports whether Draw paints at all.
func (r *Renderer) Shows() bool {
	return r.show
}

// Draw clears s and paints every bar of tl at its position at now.
func (r *Renderer) Draw(s Surface, tl *timeline.Timeline, now time.Time) {
	if !r.show {
		return
	}

	_, height := tl.Size()
	barWidth := tl.BarWidth()
	g := Gradient{Y0: 0, Y1: height, From: r.from, To: r.to}
	bars := tl.Bars()

	s.Paint(func(c Canvas) {
		c.Clear()
		for _, bar := range bars {
			x := bar.X(now) - barWidth/2
			y := (height - bar.Height) / 2
			c.FillRect(x, y, barWidth, bar.Height, g)
		}
	})
}

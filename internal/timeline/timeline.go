// Package timeline models the scrolling bar graph as data: every bar carries a
// position tween fixed at creation, so where a bar sits is a pure function of
// time and never drifts from the recording clock.
package timeline

import (
	"fmt"
	"math"
	"time"
)

const (
	// MinBarHeight is the height of a bar for a silent frame.
	MinBarHeight = 5.0
	// HeightRatio is the share of the surface height a full-scale bar uses.
	HeightRatio = 0.8
)

// Config controls geometry and speed.
type Config struct {
	BarWidth float64
	BarGap   float64
	FPS      int
}

// Validate checks that the configuration describes a drawable timeline.
func (c Config) Validate() error {
	if c.BarWidth <= 0 {
		return fmt.Errorf("bar width must be positive, got %g", c.BarWidth)
	}
	if c.BarGap < 0 {
		return fmt.Errorf("bar gap cannot be negative, got %g", c.BarGap)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	return nil
}

// Bar is one frame's volume sample on its way across the surface.
type Bar struct {
	Seq    int
	Height float64
	Pos    Tween
}

// X is the horizontal centre of the bar at now.
func (b Bar) X(now time.Time) float64 {
	return b.Pos.At(now)
}

// Timeline is an insertion-ordered sequence of bars, oldest first. It is not
// safe for concurrent use; the recording controller serializes access.
type Timeline struct {
	cfg    Config
	width  float64
	height float64
	origin time.Time
	seq    int
	bars   []Bar
}

// New creates an empty timeline for a surface of the given size whose bar
// schedule is anchored at origin.
func New(cfg Config, width, height float64, origin time.Time) (*Timeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Timeline{
		cfg:    cfg,
		width:  width,
		height: height,
		origin: origin,
	}, nil
}

// Duration is how long a bar takes to cross the surface. One second of
// recording always spans (BarWidth+BarGap)*FPS pixels.
func (t *Timeline) Duration() time.Duration {
	pxPerSecond := (t.cfg.BarWidth + t.cfg.BarGap) * float64(t.cfg.FPS)
	return time.Duration(t.width / pxPerSecond * float64(time.Second))
}

// HeightFor maps a 0-100 volume onto a bar height.
func (t *Timeline) HeightFor(volume float64) float64 {
	return HeightFor(volume, t.height)
}

// HeightFor maps a 0-100 volume onto [MinBarHeight, max(MinBarHeight, 0.8*h)].
func HeightFor(volume, surfaceHeight float64) float64 {
	v := math.Max(0, math.Min(100, volume))
	top := math.Max(MinBarHeight, HeightRatio*surfaceHeight)
	h := MinBarHeight + v/100*(HeightRatio*surfaceHeight-MinBarHeight)
	return math.Max(MinBarHeight, math.Min(top, h))
}

// Append adds a bar for volume. Its tween starts seq/fps after the origin so
// bars stay evenly spaced regardless of when the frame actually ran.
func (t *Timeline) Append(volume float64) Bar {
	t.seq++
	start := t.origin.Add(time.Duration(float64(t.seq) / float64(t.cfg.FPS) * float64(time.Second)))
	from := t.width + t.cfg.BarWidth/2

	bar := Bar{
		Seq:    t.seq,
		Height: t.HeightFor(volume),
		Pos: Tween{
			From:     from,
			To:       from - (t.width + t.cfg.BarWidth),
			Start:    start,
			Duration: t.Duration(),
		},
	}
	t.bars = append(t.bars, bar)
	return bar
}

// Prune drops bars whose tween has ended and returns how many were removed.
func (t *Timeline) Prune(now time.Time) int {
	n := 0
	for n < len(t.bars) && t.bars[n].Pos.Done(now) {
		n++
	}
	if n == 0 {
		return 0
	}
	t.bars = append(t.bars[:0], t.bars[n:]...)
	return n
}

// Bars returns the live bars, oldest first. The slice is only valid until
// the next mutation.
func (t *Timeline) Bars() []Bar {
	return t.bars
}

// Len is the number of live bars.
func (t *Timeline) Len() int {
	return len(t.bars)
}

// Seq is the number of bars appended so far, including pruned ones.
func (t *Timeline) Seq() int {
	return t.seq
}

// Clear drops every bar.
func (t *Timeline) Clear() {
	t.bars = nil
}

// Size is the surface size the timeline was built for.
func (t *Timeline) Size() (width, height float64) {
	return t.width, t.height
}

// BarWidth is the configured bar width in pixels.
func (t *Timeline) BarWidth() float64 {
	return t.cfg.BarWidth
}

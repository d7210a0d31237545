package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/audiolibrelab/barscope/internal/timeline"
)

var (
	origin = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	colors = []string{"#609EA2", "#2E3840"}
)

type recordingCanvas struct {
	clears int
	rects  [][4]float64
	grads  []Gradient
}

func (c *recordingCanvas) Clear() { c.clears++ }

func (c *recordingCanvas) FillRect(x, y, w, h float64, g Gradient) {
	c.rects = append(c.rects, [4]float64{x, y, w, h})
	c.grads = append(c.grads, g)
}

type fakeSurface struct {
	paints int
	canvas *recordingCanvas
}

func (s *fakeSurface) Box() (int, int) { return 96, 100 }
func (s *fakeSurface) Resize(_, _ int) {}
func (s *fakeSurface) Paint(fn func(Canvas)) {
	s.paints++
	s.canvas = &recordingCanvas{}
	fn(s.canvas)
}

func newTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.New(timeline.Config{BarWidth: 2, BarGap: 2, FPS: 24}, 96, 100, origin)
	if err != nil {
		t.Fatalf("Failed to create timeline: %v", err)
	}
	return tl
}

func newRenderer(t *testing.T, show bool) *Renderer {
	t.Helper()
	r, err := New(colors, show)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	return r
}

func TestRenderer_DrawsCentredBars(t *testing.T) {
	tl := newTimeline(t)
	bar := tl.Append(100)
	tl.Append(0)
	tl.Append(50)

	s := &fakeSurface{}
	newRenderer(t, true).Draw(s, tl, bar.Pos.Start.Add(500*time.Millisecond))

	if s.paints != 1 || s.canvas.clears != 1 {
		t.Fatalf("Expected one paint with one clear, got %d paints", s.paints)
	}
	if len(s.canvas.rects) != 3 {
		t.Fatalf("Expected 3 rectangles, got %d", len(s.canvas.rects))
	}

	got := s.canvas.rects[0]
	want := [4]float64{47, 10, 2, 80}
	for i := range got {
		if d := got[i] - want[i]; d > 1e-6 || d < -1e-6 {
			t.Fatalf("Expected first rect %v, got %v", want, got)
		}
	}

	for i, g := range s.canvas.grads {
		if g != s.canvas.grads[0] {
			t.Errorf("Expected one gradient per draw, rect %d differs", i)
		}
	}
	if g := s.canvas.grads[0]; g.Y0 != 0 || g.Y1 != 100 {
		t.Errorf("Expected gradient to span the surface height, got %g..%g", g.Y0, g.Y1)
	}
}

func TestRenderer_HiddenSkipsPainting(t *testing.T) {
	tl := newTimeline(t)
	tl.Append(100)

	s := &fakeSurface{}
	newRenderer(t, false).Draw(s, tl, origin)

	if s.paints != 0 {
		t.Errorf("Expected no painting when hidden, got %d", s.paints)
	}
}

func TestImageSurface_Raster(t *testing.T) {
	tl := newTimeline(t)
	bar := tl.Append(100)

	s := NewImageSurface(96, 100)
	w, h := s.Box()
	s.Resize(w, h)

	r := newRenderer(t, true)
	r.Draw(s, tl, bar.Pos.Start.Add(500*time.Millisecond))

	img := s.Snapshot()
	if img.RGBAAt(47, 10).A != 0xff || img.RGBAAt(48, 89).A != 0xff {
		t.Error("Expected bar pixels to be painted")
	}
	if img.RGBAAt(47, 9).A != 0 || img.RGBAAt(46, 50).A != 0 || img.RGBAAt(49, 50).A != 0 {
		t.Error("Expected pixels outside the bar to stay clear")
	}
	if top, bottom := img.RGBAAt(47, 10), img.RGBAAt(47, 89); top.R <= bottom.R {
		t.Errorf("Expected gradient to darken downwards, top %v bottom %v", top, bottom)
	}

	// Once the timeline is empty the next draw clears the surface.
	tl.Clear()
	r.Draw(s, tl, origin)
	if s.Snapshot().RGBAAt(47, 50).A != 0 {
		t.Error("Expected surface to be cleared")
	}

	var buf bytes.Buffer
	if err := s.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 96 || b.Dy() != 100 {
		t.Errorf("Expected 96x100 PNG, got %v", b)
	}
}

func TestTermSurface_Grid(t *testing.T) {
	tl, err := timeline.New(timeline.Config{BarWidth: 1, BarGap: 1, FPS: 24}, 48, 20, origin)
	if err != nil {
		t.Fatalf("Failed to create timeline: %v", err)
	}
	bar := tl.Append(100)

	s := NewTermSurface(48, 20)
	s.Resize(s.Box())
	newRenderer(t, true).Draw(s, tl, bar.Pos.Start.Add(500*time.Millisecond))

	// Full scale on a 20 row grid is 16 rows tall and one column wide.
	if n := s.Filled(); n != 16 {
		t.Errorf("Expected 16 filled cells, got %d", n)
	}
	out := s.String()
	if strings.Count(out, "\n") != 19 {
		t.Errorf("Expected 20 rows, got %d", strings.Count(out, "\n")+1)
	}
	if !strings.Contains(out, fullBlock) {
		t.Error("Expected rendered grid to contain bar blocks")
	}
}

func TestParseStops(t *testing.T) {
	if _, _, err := ParseStops([]string{"#609EA2"}); err == nil {
		t.Error("Expected error for a single color")
	}
	if _, _, err := ParseStops([]string{"#609EA2", "blue"}); err == nil {
		t.Error("Expected error for a non hex color")
	}

	from, to, err := ParseStops(colors)
	if err != nil {
		t.Fatalf("ParseStops failed: %v", err)
	}
	g := Gradient{Y0: 0, Y1: 10, From: from, To: to}
	if g.At(-5).Hex() != "#609ea2" || g.At(50).Hex() != "#2e3840" {
		t.Errorf("Expected clamped end stops, got %s and %s", g.At(-5).Hex(), g.At(50).Hex())
	}
}

package render

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"sync"
)

// ImageSurface draws into an in-memory RGBA raster.
type ImageSurface struct {
	mu   sync.RWMutex
	boxW int
	boxH int
	img  *image.RGBA
}

// NewImageSurface creates a surface whose on-screen box is width x height.
// The raster is allocated on the first Resize.
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{
		boxW: width,
		boxH: height,
		img:  image.NewRGBA(image.Rect(0, 0, 0, 0)),
	}
}

func (s *ImageSurface) Box() (int, int) {
	return s.boxW, s.boxH
}

func (s *ImageSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (s *ImageSurface) Paint(fn func(Canvas)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(imageCanvas{img: s.img})
}

// Snapshot returns a copy of the current raster.
func (s *ImageSurface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := image.NewRGBA(s.img.Bounds())
	draw.Draw(out, out.Bounds(), s.img, image.Point{}, draw.Src)
	return out
}

// WritePNG encodes the current raster as PNG.
func (s *ImageSurface) WritePNG(w io.Writer) error {
	return png.Encode(w, s.Snapshot())
}

type imageCanvas struct {
	img *image.RGBA
}

func (c imageCanvas) Clear() {
	clear(c.img.Pix)
}

func (c imageCanvas) FillRect(x, y, w, h float64, g Gradient) {
	b := c.img.Bounds()
	x0, x1 := span(x, w, b.Dx())
	y0, y1 := span(y, h, b.Dy())

	for py := y0; py < y1; py++ {
		col := g.RGBA(float64(py) + 0.5)
		for px := x0; px < x1; px++ {
			c.img.SetRGBA(px, py, col)
		}
	}
}

package render

import "math"

// Canvas is the 2-D drawing API a Surface hands to Paint.
type Canvas interface {
	Clear()
	FillRect(x, y, w, h float64, g Gradient)
}

// Surface is something bars can be drawn onto.
type Surface interface {
	// Box is the on-screen size of the surface.
	Box() (width, height int)
	// Resize sets the drawing buffer size, discarding its contents.
	Resize(width, height int)
	// Paint runs fn with exclusive access to the canvas.
	Paint(fn func(Canvas))
}

// span returns the pixel range [start, end) whose centres fall inside
// [lo, lo+length), clipped to [0, limit).
func span(lo, length float64, limit int) (start, end int) {
	start = int(math.Ceil(lo - 0.5))
	end = int(math.Ceil(lo + length - 0.5))
	return max(0, start), min(limit, end)
}

package timeline

import "time"

// Tween is a linear interpolation of a value over a time span.
type Tween struct {
	From     float64
	To       float64
	Start    time.Time
	Duration time.Duration
}

// End is the instant the tween reaches To.
func (tw Tween) End() time.Time {
	return tw.Start.Add(tw.Duration)
}

// At returns the interpolated value at now, held at From before Start and at
// To after End.
func (tw Tween) At(now time.Time) float64 {
	if !now.After(tw.Start) {
		return tw.From
	}
	if tw.Duration <= 0 || !now.Before(tw.End()) {
		return tw.To
	}
	p := float64(now.Sub(tw.Start)) / float64(tw.Duration)
	return tw.From + (tw.To-tw.From)*p
}

// Done reports whether now is past the end of the tween.
func (tw Tween) Done(now time.Time) bool {
	return now.After(tw.End())
}

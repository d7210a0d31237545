// Package spectrum turns a live audio stream into a per-frame volume level
// using FFT magnitudes scaled the way a browser analyser node reports them.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"github.com/audiolibrelab/barscope/internal/audio"
)

// ErrClosed is returned by Volume after Close.
var ErrClosed = errors.New("spectral sampler is closed")

// Options configure the analysis.
type Options struct {
	FFTSize     int
	MinDecibels float64
	MaxDecibels float64
}

// DefaultOptions match a default Web Audio analyser with a 2048-point FFT.
var DefaultOptions = Options{FFTSize: 2048, MinDecibels: -100, MaxDecibels: -30}

// Sampler holds a ring buffer of the most recent FFTSize samples of a stream
// and reports a 0-100 volume from their spectrum.
type Sampler struct {
	opts   Options
	window []float64
	detach func()

	mu     sync.Mutex
	ring   []float64
	pos    int
	frame  []float64
	bins   []uint8
	closed bool
}

// New attaches a sampler to stream.
func New(stream *audio.Stream, opts Options) (*Sampler, error) {
	n := opts.FFTSize
	if n < 32 || n&(n-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 32, got %d", n)
	}
	if opts.MinDecibels >= opts.MaxDecibels {
		return nil, fmt.Errorf("min decibels (%.1f) must be below max decibels (%.1f)", opts.MinDecibels, opts.MaxDecibels)
	}

	s := &Sampler{
		opts:   opts,
		window: blackman(n),
		ring:   make([]float64, n),
		frame:  make([]float64, n),
		bins:   make([]uint8, n/2),
	}
	s.detach = stream.Attach(s.push)
	return s, nil
}

func (s *Sampler) push(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	size := len(s.ring)
	for _, v := range samples {
		s.ring[s.pos] = float64(v)
		s.pos = (s.pos + 1) % size
	}
}

// BinCount is the number of frequency bins, half the FFT size.
func (s *Sampler) BinCount() int {
	return len(s.bins)
}

// FrequencyData fills dst with byte-scaled magnitudes of the latest window
// and returns the number of bins written.
func (s *Sampler) FrequencyData(dst []uint8) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	s.analyseLocked()
	return copy(dst, s.bins), nil
}

// Volume returns floor(max bin / 255 * 100). Reading does not change what
// the next read will see.
func (s *Sampler) Volume() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	s.analyseLocked()

	var peak uint8
	for _, b := range s.bins {
		if b > peak {
			peak = b
		}
	}
	return int(math.Floor(float64(peak) / 255 * 100)), nil
}

// analyseLocked computes s.bins from the ring buffer in chronological order.
func (s *Sampler) analyseLocked() {
	n := len(s.ring)
	for i := 0; i < n; i++ {
		s.frame[i] = s.ring[(s.pos+i)%n] * s.window[i]
	}

	spectrum := fft.FFTReal(s.frame)

	rangeDB := s.opts.MaxDecibels - s.opts.MinDecibels
	for k := range s.bins {
		magnitude := cmplx.Abs(spectrum[k]) / float64(n)
		s.bins[k] = toByte(magnitude, s.opts.MinDecibels, rangeDB)
	}
}

func toByte(magnitude, minDB, rangeDB float64) uint8 {
	if magnitude <= 0 {
		return 0
	}
	db := 20 * math.Log10(magnitude)
	scaled := math.Floor(255 / rangeDB * (db - minDB))
	return uint8(max(0, min(255, scaled)))
}

// Close detaches from the stream. Only the first call has any effect; it
// reports whether this call performed the release.
func (s *Sampler) Close() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	s.mu.Unlock()

	s.detach()
	return true
}

// Closed reports whether Close has been called.
func (s *Sampler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// blackman returns the window a Web Audio analyser applies before its FFT.
func blackman(n int) []float64 {
	const alpha = 0.16
	a0 := 0.5 * (1 - alpha)
	a1 := 0.5
	a2 := 0.5 * alpha

	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

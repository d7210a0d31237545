package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/audiolibrelab/barscope/internal/audio"
)

// sine returns n samples of a tone centred on FFT bin 64.
func sine(n int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*64*float64(i)/float64(n)))
	}
	return out
}

func newSampler(t *testing.T) (*audio.Stream, *Sampler) {
	t.Helper()
	stream := audio.NewStream(44100)
	s, err := New(stream, DefaultOptions)
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}
	return stream, s
}

func TestSampler_SilenceIsZero(t *testing.T) {
	stream, s := newSampler(t)
	defer s.Close()

	stream.Write(make([]float32, 2048))

	v, err := s.Volume()
	if err != nil {
		t.Fatalf("Volume failed: %v", err)
	}
	if v != 0 {
		t.Errorf("Expected silence to read 0, got %d", v)
	}
}

func TestSampler_LoudToneSaturates(t *testing.T) {
	stream, s := newSampler(t)
	defer s.Close()

	stream.Write(sine(2048, 1))

	v, err := s.Volume()
	if err != nil {
		t.Fatalf("Volume failed: %v", err)
	}
	if v != 100 {
		t.Errorf("Expected full scale tone to read 100, got %d", v)
	}
}

func TestSampler_VolumeGrowsWithAmplitude(t *testing.T) {
	prev := -1
	for _, amp := range []float64{0, 0.0001, 0.001, 0.01, 1} {
		stream, s := newSampler(t)
		stream.Write(sine(2048, amp))

		v, err := s.Volume()
		s.Close()
		if err != nil {
			t.Fatalf("Volume failed: %v", err)
		}
		if v < 0 || v > 100 {
			t.Fatalf("Volume %d out of range for amplitude %g", v, amp)
		}
		if v < prev {
			t.Errorf("Expected volume to be non-decreasing, amplitude %g gave %d after %d", amp, v, prev)
		}
		prev = v
	}
}

func TestSampler_ReadsAreRepeatable(t *testing.T) {
	stream, s := newSampler(t)
	defer s.Close()

	stream.Write(sine(2048, 0.01))

	first, _ := s.Volume()
	second, _ := s.Volume()
	if first != second {
		t.Errorf("Expected repeated reads to agree, got %d then %d", first, second)
	}

	bins := make([]uint8, s.BinCount())
	n, err := s.FrequencyData(bins)
	if err != nil {
		t.Fatalf("FrequencyData failed: %v", err)
	}
	if n != 1024 {
		t.Errorf("Expected 1024 bins, got %d", n)
	}
}

func TestSampler_CloseOnce(t *testing.T) {
	stream, s := newSampler(t)

	if !s.Close() {
		t.Fatal("Expected first Close to release the sampler")
	}
	if s.Close() {
		t.Error("Expected second Close to be a no-op")
	}
	if !s.Closed() {
		t.Error("Expected sampler to report closed")
	}
	if _, err := s.Volume(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}

	// A closed sampler is detached and ignores further audio.
	stream.Write(sine(2048, 1))
}

func TestNew_RejectsBadOptions(t *testing.T) {
	stream := audio.NewStream(44100)

	if _, err := New(stream, Options{FFTSize: 1000, MinDecibels: -100, MaxDecibels: -30}); err == nil {
		t.Error("Expected error for non power of two FFT size")
	}
	if _, err := New(stream, Options{FFTSize: 2048, MinDecibels: -30, MaxDecibels: -30}); err == nil {
		t.Error("Expected error for empty decibel range")
	}
}

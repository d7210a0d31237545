package audio

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/audiolibrelab/barscope/internal/config"
)

// ToneBackend is a synthetic capture backend producing a pulsing sine wave.
// It needs no audio hardware.
type ToneBackend struct{}

// NewMicrophone creates a tone generator at the configured sample rate
func (b *ToneBackend) NewMicrophone(cfg *config.Config) Microphone {
	return &ToneMicrophone{
		SampleRate: cfg.Audio.SampleRate,
		Frequency:  440,
		Period:     2 * time.Second,
		Chunk:      20 * time.Millisecond,
	}
}

// ListDevices returns the single synthetic device
func (b *ToneBackend) ListDevices() ([]Device, error) {
	return []Device{{Name: "tone", MaxInputChannels: 1, Default: true}}, nil
}

// GetType returns the backend type
func (b *ToneBackend) GetType() BackendType {
	return BackendTypeTone
}

// ToneMicrophone writes a sine of Frequency Hz whose amplitude swells and
// fades once per Period, in Chunk-sized buffers paced by the wall clock.
type ToneMicrophone struct {
	SampleRate int
	Frequency  float64
	Period     time.Duration
	Chunk      time.Duration
}

// Open starts the generator goroutine.
func (m *ToneMicrophone) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	track := NewTrack("tone", func() error {
		close(done)
		wg.Wait()
		return nil
	})
	stream := NewStream(m.SampleRate, track)

	chunk := m.Chunk
	if chunk <= 0 {
		chunk = 20 * time.Millisecond
	}
	n := int(float64(m.SampleRate) * chunk.Seconds())
	if n < 1 {
		n = 1
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(chunk)
		defer ticker.Stop()

		buf := make([]float32, n)
		var pos int
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pos = m.fill(buf, pos)
				stream.Write(buf)
			}
		}
	}()

	return stream, nil
}

// fill writes the next len(buf) samples starting at sample index pos and
// returns the index after the last one.
func (m *ToneMicrophone) fill(buf []float32, pos int) int {
	rate := float64(m.SampleRate)
	period := m.Period.Seconds()
	for i := range buf {
		t := float64(pos+i) / rate
		envelope := 1.0
		if period > 0 {
			envelope = 0.5 - 0.5*math.Cos(2*math.Pi*t/period)
		}
		buf[i] = float32(envelope * math.Sin(2*math.Pi*m.Frequency*t))
	}
	return pos + len(buf)
}

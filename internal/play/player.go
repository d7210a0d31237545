// Package play previews recorded clips on the default output device.
package play

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Info describes a decoded clip.
type Info struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Inspect decodes the header of a WAV clip.
func Inspect(blob []byte) (Info, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(blob))
	if err != nil {
		return Info{}, fmt.Errorf("decode: %w", err)
	}
	defer streamer.Close()

	return Info{
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Duration:   format.SampleRate.D(streamer.Len()),
	}, nil
}

// Player plays one clip at a time. The speaker is opened on first use at
// the player's sample rate and clips at other rates are resampled.
type Player struct {
	sr beep.SampleRate

	initOnce sync.Once
	initErr  error

	mu      sync.Mutex
	current *playback
}

type playback struct {
	streamer beep.StreamSeekCloser
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// New creates a Player that outputs at sampleRate.
func New(sampleRate int) *Player {
	return &Player{sr: beep.SampleRate(sampleRate)}
}

func (p *Player) init() error {
	p.initOnce.Do(func() {
		if err := speaker.Init(p.sr, p.sr.N(time.Second/10)); err != nil {
			p.initErr = fmt.Errorf("speaker init: %w", err)
		}
	})
	return p.initErr
}

// Preview plays blob and blocks until it ends, Stop is called or ctx is
// done.
func (p *Player) Preview(ctx context.Context, blob []byte) error {
	streamer, format, err := wav.Decode(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := p.init(); err != nil {
		streamer.Close()
		return err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.sr {
		s = beep.Resample(4, format.SampleRate, p.sr, s)
	}

	p.Stop()

	pb := &playback{
		streamer: streamer,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	p.mu.Lock()
	p.current = pb
	p.mu.Unlock()

	slog.Debug("Preview started", "sample_rate", int(format.SampleRate), "samples", streamer.Len())
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(pb.done)
	})))

	select {
	case <-pb.done:
		p.release(pb)
		slog.Debug("Preview completed")
		return nil
	case <-pb.stopped:
		return nil
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

// PlayFile previews a WAV file from disk.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}
	return p.Preview(ctx, blob)
}

// Stop halts the current preview, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	pb := p.current
	p.mu.Unlock()

	if pb == nil {
		return
	}
	speaker.Clear()
	p.release(pb)
}

func (p *Player) release(pb *playback) {
	pb.stopOnce.Do(func() {
		close(pb.stopped)
		if err := pb.streamer.Close(); err != nil {
			slog.Debug("Failed to close preview stream", "error", err)
		}
	})

	p.mu.Lock()
	if p.current == pb {
		p.current = nil
	}
	p.mu.Unlock()
}

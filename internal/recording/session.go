package recording

import (
	"context"
	"log/slog"
	"time"

	"github.com/audiolibrelab/barscope/internal/audio"
	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/timeline"
)

// session holds every handle of one recording. It is guarded by the
// controller mutex.
type session struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc

	surface render.Surface
	width   int
	height  int
	started time.Time

	stream     *audio.Stream
	recorder   audio.Recorder
	sampler    Sampler
	timeline   *timeline.Timeline
	frames     *frameLoop
	stopTicker func()

	finalizing bool
	torn       bool
}

// frameLoop is the per-session clock handler.
type frameLoop struct {
	c *Controller
	s *session
}

// OnFrame samples, advances the timeline and repaints, all under the
// controller mutex.
func (f *frameLoop) OnFrame(now time.Time) {
	c, s := f.c, f.s

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != s || c.state != Active || s.sampler == nil {
		return
	}

	volume, err := s.sampler.Volume()
	if err != nil {
		slog.Debug("Skipping frame", "session", s.id, "error", err)
		return
	}

	s.timeline.Prune(now)
	s.timeline.Append(float64(volume))

	if s.surface != nil && c.renderer != nil {
		c.renderer.Draw(s.surface, s.timeline, now)
	}
}

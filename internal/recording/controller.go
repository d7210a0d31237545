// Package recording holds the state machine that ties microphone capture,
// recording, spectral sampling and bar rendering into one session.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/audiolibrelab/barscope/internal/audio"
	"github.com/audiolibrelab/barscope/internal/clock"
	"github.com/audiolibrelab/barscope/internal/events"
	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/spectrum"
	"github.com/audiolibrelab/barscope/internal/timeline"
)

// Sampler yields the current input volume on a 0-100 scale.
type Sampler interface {
	Volume() (int, error)
	Close() bool
}

// SamplerFactory attaches a Sampler to a live stream.
type SamplerFactory func(stream *audio.Stream) (Sampler, error)

// SpectrumSamplers builds FFT samplers with opts.
func SpectrumSamplers(opts spectrum.Options) SamplerFactory {
	return func(stream *audio.Stream) (Sampler, error) {
		s, err := spectrum.New(stream, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Options wire a Controller to its collaborators.
type Options struct {
	// Clock drives the per-frame pipeline. Required.
	Clock *clock.Clock
	// Time drives the elapsed-time ticker and timestamps. Defaults to the
	// wall clock.
	Time clock.Source

	Microphone  audio.Microphone
	NewRecorder audio.RecorderFactory
	// NewSampler defaults to FFT samplers with spectrum.DefaultOptions.
	NewSampler SamplerFactory

	Timeline timeline.Config
	// Renderer may be nil, in which case nothing is drawn.
	Renderer *render.Renderer

	// PermissionTimeout bounds the microphone request. Zero waits forever.
	PermissionTimeout time.Duration

	// Spawn runs asynchronous work. Defaults to a new goroutine.
	Spawn func(func())
}

// Controller is the recording state machine. Commands never block on device
// I/O and never return errors: outcomes arrive on the event topics.
type Controller struct {
	clock       *clock.Clock
	src         clock.Source
	mic         audio.Microphone
	newRecorder audio.RecorderFactory
	newSampler  SamplerFactory
	tlConfig    timeline.Config
	renderer    *render.Renderer
	timeout     time.Duration
	spawn       func(func())

	Recorded        events.Topic[Output]
	RecordingTime   events.Topic[string]
	RecordingFailed events.Topic[error]
	StateChanged    events.Topic[State]

	mu     sync.Mutex
	state  State
	nextID uint64
	sess   *session

	// outbox holds publications in transition order. Only one goroutine
	// drains it at a time.
	outbox   []func()
	flushing bool
}

// New validates opts and returns an idle Controller.
func New(opts Options) (*Controller, error) {
	if opts.Clock == nil {
		return nil, errors.New("recording controller needs a frame clock")
	}
	if opts.Microphone == nil {
		return nil, errors.New("recording controller needs a microphone")
	}
	if opts.NewRecorder == nil {
		return nil, errors.New("recording controller needs a recorder factory")
	}
	if err := opts.Timeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timeline config: %w", err)
	}

	c := &Controller{
		clock:       opts.Clock,
		src:         opts.Time,
		mic:         opts.Microphone,
		newRecorder: opts.NewRecorder,
		newSampler:  opts.NewSampler,
		tlConfig:    opts.Timeline,
		renderer:    opts.Renderer,
		timeout:     opts.PermissionTimeout,
		spawn:       opts.Spawn,
	}
	if c.src == nil {
		c.src = clock.System{}
	}
	if c.newSampler == nil {
		c.newSampler = SpectrumSamplers(spectrum.DefaultOptions)
	}
	if c.spawn == nil {
		c.spawn = func(fn func()) { go fn() }
	}
	return c, nil
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed is the recording time of the active session, zero otherwise.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Active || c.sess == nil {
		return 0
	}
	return c.src.Now().Sub(c.sess.started)
}

// Start requests the microphone and, once granted, begins recording and
// drawing onto surface. It is ignored unless the controller is idle.
// surface may be nil for a session that records without drawing.
func (c *Controller) Start(surface render.Surface) {
	c.mu.Lock()
	if c.state != Idle {
		state := c.state
		c.mu.Unlock()
		slog.Debug("Start ignored", "state", state)
		return
	}

	c.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{id: c.nextID, ctx: ctx, cancel: cancel, surface: surface}
	c.sess = s
	c.state = Requesting
	c.emitStateLocked(Requesting)
	c.mu.Unlock()

	slog.Info("Requesting microphone", "session", s.id)
	c.flush()
	c.spawn(func() { c.acquire(s) })
}

func (c *Controller) acquire(s *session) {
	ctx := s.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stream, err := c.mic.Open(ctx)
	c.granted(s, stream, err)
}

// granted resumes a session once the microphone request has settled.
func (c *Controller) granted(s *session, stream *audio.Stream, err error) {
	c.mu.Lock()
	if c.sess != s || c.state != Requesting {
		c.mu.Unlock()
		if stream != nil {
			if stopErr := stream.Stop(); stopErr != nil {
				slog.Warn("Failed to stop late stream", "session", s.id, "error", stopErr)
			}
		}
		slog.Debug("Discarding microphone result for a finished session", "session", s.id)
		return
	}

	if err != nil {
		c.failLocked(s, fmt.Errorf("%w: %w", ErrPermissionDenied, err))
		return
	}

	s.stream = stream
	if err := c.activateLocked(s); err != nil {
		c.failLocked(s, fmt.Errorf("%w: %w", ErrRecorderFailure, err))
		return
	}
	c.emitStateLocked(Active)
	c.mu.Unlock()

	slog.Info("Recording started", "session", s.id, "width", s.width, "height", s.height)
	c.flush()
}

// activateLocked binds the surface and starts the recorder, ticker and frame
// pipeline. On error the session is left for teardown.
func (c *Controller) activateLocked(s *session) error {
	if s.surface != nil {
		s.width, s.height = s.surface.Box()
		s.surface.Resize(s.width, s.height)
	}
	s.started = c.src.Now()

	tl, err := timeline.New(c.tlConfig, float64(s.width), float64(s.height), s.started)
	if err != nil {
		return err
	}
	s.timeline = tl

	rec, err := c.newRecorder(s.stream)
	if err != nil {
		return fmt.Errorf("failed to create recorder: %w", err)
	}
	s.recorder = rec
	if err := rec.Record(); err != nil {
		return fmt.Errorf("failed to start recorder: %w", err)
	}

	sampler, err := c.newSampler(s.stream)
	if err != nil {
		return fmt.Errorf("failed to attach sampler: %w", err)
	}
	s.sampler = sampler

	c.state = Active
	s.stopTicker = c.src.Every(time.Second, func(now time.Time) { c.tickElapsed(s, now) })
	s.frames = &frameLoop{c: c, s: s}
	c.clock.Add(s.frames)
	return nil
}

func (c *Controller) tickElapsed(s *session, now time.Time) {
	c.mu.Lock()
	if c.sess != s || c.state != Active {
		c.mu.Unlock()
		return
	}
	text := FormatElapsed(now.Sub(s.started).Round(time.Second))
	c.emitLocked(func() { c.RecordingTime.Publish(text) })
	c.mu.Unlock()

	c.flush()
}

// Stop finalizes the active recording. It is ignored unless a session is
// active and not already finalizing.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.sess
	if c.state != Active || s == nil || s.recorder == nil || s.finalizing {
		state := c.state
		c.mu.Unlock()
		slog.Debug("Stop ignored", "state", state)
		return
	}
	s.finalizing = true
	rec := s.recorder
	c.mu.Unlock()

	slog.Debug("Finalizing recording", "session", s.id)
	c.spawn(func() { c.finalize(s, rec) })
}

func (c *Controller) finalize(s *session, rec audio.Recorder) {
	blob, err := rec.Stop(s.ctx)

	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		if discardErr := rec.Discard(); discardErr != nil {
			slog.Warn("Failed to discard abandoned recording", "session", s.id, "error", discardErr)
		}
		slog.Debug("Dropping recording of an aborted session", "session", s.id)
		return
	}
	if err != nil {
		c.failLocked(s, fmt.Errorf("%w: %w", ErrRecorderFailure, err))
		return
	}
	c.endLocked(s)
	out := Output{Blob: blob, Title: Title(c.src.Now())}
	c.emitStateLocked(Idle)
	c.emitLocked(func() { c.Recorded.Publish(out) })
	c.mu.Unlock()

	slog.Info("Recording finished", "session", s.id, "title", out.Title, "bytes", len(blob))
	c.flush()
}

// Abort tears down any session without producing output. Everything is
// released before it returns.
func (c *Controller) Abort() {
	c.mu.Lock()
	s := c.sess
	if c.state == Idle || s == nil {
		c.mu.Unlock()
		return
	}
	c.endLocked(s)
	c.emitStateLocked(Idle)
	c.mu.Unlock()

	slog.Info("Recording aborted", "session", s.id)
	c.flush()
}

// failLocked ends s with err and unlocks the controller.
func (c *Controller) failLocked(s *session, err error) {
	c.endLocked(s)
	c.emitStateLocked(Idle)
	c.emitLocked(func() { c.RecordingFailed.Publish(err) })
	c.mu.Unlock()

	slog.Error("Recording failed", "session", s.id, "error", err)
	c.flush()
}

func (c *Controller) emitStateLocked(state State) {
	c.emitLocked(func() { c.StateChanged.Publish(state) })
}

func (c *Controller) emitLocked(fn func()) {
	c.outbox = append(c.outbox, fn)
}

// flush delivers queued publications outside the mutex. A call made while
// another flush is running returns at once; the running flush picks up
// whatever was queued.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true
	for len(c.outbox) > 0 {
		fn := c.outbox[0]
		c.outbox[0] = nil
		c.outbox = c.outbox[1:]
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.flushing = false
	c.mu.Unlock()
}

// endLocked tears s down and returns to Idle.
func (c *Controller) endLocked(s *session) {
	c.teardownLocked(s)
	c.sess = nil
	c.state = Idle
}

// teardownLocked releases every handle s holds. It is idempotent and
// reports release errors only through the log.
func (c *Controller) teardownLocked(s *session) {
	if s.torn {
		return
	}
	s.torn = true
	s.cancel()

	if s.stopTicker != nil {
		s.stopTicker()
	}

	stream, rec, sampler, frames := s.stream, s.recorder, s.sampler, s.frames
	s.stream, s.recorder, s.sampler, s.frames, s.stopTicker = nil, nil, nil, nil, nil

	var errs []error
	if stream != nil {
		errs = append(errs, stream.Stop())
	}
	if rec != nil && !s.finalizing {
		errs = append(errs, rec.Discard())
	}
	if s.timeline != nil {
		s.timeline.Clear()
	}
	if frames != nil {
		c.clock.Remove(frames)
	}
	if sampler != nil {
		sampler.Close()
	}

	if err := errors.Join(errs...); err != nil {
		slog.Warn("Session teardown reported errors", "session", s.id, "error", err)
	}
	slog.Debug("Session torn down", "session", s.id)
}

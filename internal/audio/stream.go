package audio

import (
	"errors"
	"fmt"
	"sync"
)

// Track is one capture channel of a Stream. Stopping a track releases the
// device behind it.
type Track struct {
	label string

	mu      sync.Mutex
	stopped bool
	stop    func() error
}

// NewTrack creates a live track whose release is performed by stop.
func NewTrack(label string, stop func() error) *Track {
	return &Track{label: label, stop: stop}
}

// Label names the device the track captures from.
func (t *Track) Label() string {
	return t.label
}

// Stop releases the track. Only the first call does any work.
func (t *Track) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return nil
	}
	t.stopped = true
	if t.stop == nil {
		return nil
	}
	if err := t.stop(); err != nil {
		return fmt.Errorf("failed to stop track %s: %w", t.label, err)
	}
	return nil
}

// Stopped reports whether Stop has been called.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stream is a live mono PCM stream fanned out to any number of sinks.
// Backends push samples with Write; the recorder and the analyser attach
// as sinks.
type Stream struct {
	sampleRate int
	tracks     []*Track

	mu     sync.RWMutex
	nextID int
	sinks  map[int]func([]float32)
}

// NewStream creates a stream carrying samples at sampleRate.
func NewStream(sampleRate int, tracks ...*Track) *Stream {
	return &Stream{
		sampleRate: sampleRate,
		tracks:     tracks,
		sinks:      make(map[int]func([]float32)),
	}
}

// SampleRate returns samples per second.
func (s *Stream) SampleRate() int {
	return s.sampleRate
}

// Tracks returns the stream's capture tracks.
func (s *Stream) Tracks() []*Track {
	return s.tracks
}

// Attach registers a sink and returns its detach function. Sinks receive a
// private copy of every buffer written after they attach.
func (s *Stream) Attach(sink func(samples []float32)) (detach func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.sinks[id] = sink
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.sinks, id)
		s.mu.Unlock()
	}
}

// Write delivers samples to every attached sink. Backends call it from
// their capture callback, whose buffer is reused afterwards.
func (s *Stream) Write(samples []float32) {
	if len(samples) == 0 {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.sinks) == 0 {
		return
	}
	for _, sink := range s.sinks {
		buf := make([]float32, len(samples))
		copy(buf, samples)
		sink(buf)
	}
}

// Stop stops every track. It is safe to call more than once.
func (s *Stream) Stop() error {
	var errs []error
	for _, t := range s.tracks {
		if err := t.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Active reports whether any track is still live.
func (s *Stream) Active() bool {
	for _, t := range s.tracks {
		if !t.Stopped() {
			return true
		}
	}
	return false
}

// Package clock provides the process-wide frame scheduler that drives the
// visualization pipeline.
package clock

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 24

// Handler receives one call per frame. Implementations must be comparable
// (typically pointers) so registration can be idempotent.
type Handler interface {
	OnFrame(now time.Time)
}

// Clock invokes its registered handlers once per frame, in registration
// order. It holds no per-session state and is meant to live as long as the
// process.
type Clock struct {
	src Source
	fps int

	mu       sync.Mutex
	handlers []Handler
	stop     func()
}

// New creates a Clock ticking fps times per second on src.
func New(src Source, fps int) *Clock {
	if src == nil {
		src = System{}
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Clock{src: src, fps: fps}
}

// FPS returns the configured frame rate.
func (c *Clock) FPS() int {
	return c.fps
}

// Interval returns the duration of a single frame.
func (c *Clock) Interval() time.Duration {
	return time.Second / time.Duration(c.fps)
}

// Now reads the underlying time source.
func (c *Clock) Now() time.Time {
	return c.src.Now()
}

// Start begins ticking. Calling Start on a running Clock does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		return
	}
	c.stop = c.src.Every(c.Interval(), c.Tick)
	slog.Debug("Frame clock started", "fps", c.fps)
}

// Stop halts ticking. Registered handlers are kept.
func (c *Clock) Stop() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
		slog.Debug("Frame clock stopped")
	}
}

// Add registers h. It reports false if h was already registered.
func (c *Clock) Add(h Handler) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.handlers {
		if existing == h {
			return false
		}
	}
	c.handlers = append(c.handlers, h)
	return true
}

// Remove deregisters h. It reports false if h was not registered.
func (c *Clock) Remove(h Handler) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.handlers {
		if existing == h {
			c.handlers = append(c.handlers[:i:i], c.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (c *Clock) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Tick runs one frame. Handlers added or removed during the frame take
// effect on the next one.
func (c *Clock) Tick(now time.Time) {
	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h.OnFrame(now)
	}
}

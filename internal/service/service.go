package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/audiolibrelab/barscope/internal/audio"
	"github.com/audiolibrelab/barscope/internal/clock"
	"github.com/audiolibrelab/barscope/internal/config"
	"github.com/audiolibrelab/barscope/internal/events"
	"github.com/audiolibrelab/barscope/internal/recording"
	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/spectrum"
	"github.com/audiolibrelab/barscope/internal/timeline"
)

// ErrNoRecording is returned when no clip has been recorded yet.
var ErrNoRecording = errors.New("no recording available")

// Service represents the core barscope service interface
type Service interface {
	// Recording operations
	StartRecording(surface render.Surface)
	StopRecording()
	AbortRecording()
	GetRecordingStatus() Status

	// Output operations
	LastRecording() (recording.Output, bool)
	SaveRecording(dir string) (string, error)
	Preview(ctx context.Context) error

	// Event stream of every controller topic
	Subscribe(fn func(Event)) (unsubscribe func())

	GetConfig() *config.Config
	GetLastError() string
}

// Previewer plays back a finished clip.
type Previewer interface {
	Preview(ctx context.Context, blob []byte) error
}

// Status is a point-in-time view of the recorder.
type Status struct {
	State     string `json:"state"`
	Elapsed   string `json:"elapsed"`
	LastTitle string `json:"last_title,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Event mirrors one controller event.
type Event struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	Time  string `json:"time,omitempty"`
	Title string `json:"title,omitempty"`
	Bytes int    `json:"bytes,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	EventState    = "state"
	EventTime     = "time"
	EventRecorded = "recorded"
	EventFailed   = "failed"
)

// BarscopeService is the main service implementation
type BarscopeService struct {
	cfg       *config.Config
	ctrl      *recording.Controller
	previewer Previewer
	events    events.Topic[Event]

	lastMu   sync.RWMutex
	last     recording.Output
	haveLast bool

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// NewController builds a recording controller from configuration.
func NewController(cfg *config.Config, clk *clock.Clock) (*recording.Controller, error) {
	renderer, err := render.New(cfg.Visualizer.Colors, cfg.Visualizer.Show)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return recording.New(recording.Options{
		Clock:       clk,
		Microphone:  audio.NewMicrophone(cfg),
		NewRecorder: audio.WavRecorderFactory(""),
		NewSampler: recording.SpectrumSamplers(spectrum.Options{
			FFTSize:     cfg.Analyser.FFTSize,
			MinDecibels: cfg.Analyser.MinDecibels,
			MaxDecibels: cfg.Analyser.MaxDecibels,
		}),
		Timeline: timeline.Config{
			BarWidth: cfg.Visualizer.Bar.Width,
			BarGap:   cfg.Visualizer.Bar.Gap,
			FPS:      clk.FPS(),
		},
		Renderer:          renderer,
		PermissionTimeout: cfg.Audio.PermissionTimeout,
	})
}

// New creates a new service around ctrl. previewer may be nil.
func New(cfg *config.Config, ctrl *recording.Controller, previewer Previewer) *BarscopeService {
	s := &BarscopeService{
		cfg:       cfg,
		ctrl:      ctrl,
		previewer: previewer,
	}

	ctrl.StateChanged.Subscribe(func(st recording.State) {
		if st == recording.Requesting {
			s.clearLastError()
		}
		s.events.Publish(Event{Type: EventState, State: st.String()})
	})
	ctrl.RecordingTime.Subscribe(func(text string) {
		s.events.Publish(Event{Type: EventTime, Time: text})
	})
	ctrl.Recorded.Subscribe(func(out recording.Output) {
		s.lastMu.Lock()
		s.last, s.haveLast = out, true
		s.lastMu.Unlock()
		s.events.Publish(Event{Type: EventRecorded, Title: out.Title, Bytes: len(out.Blob)})
	})
	ctrl.RecordingFailed.Subscribe(func(err error) {
		s.setLastError(err.Error())
		s.events.Publish(Event{Type: EventFailed, Error: err.Error()})
	})
	return s
}

// StartRecording requests the microphone and starts a session drawing onto
// surface.
func (s *BarscopeService) StartRecording(surface render.Surface) {
	slog.Debug("Service.StartRecording called", "state", s.ctrl.State())
	s.ctrl.Start(surface)
}

// StopRecording finalizes the current session.
func (s *BarscopeService) StopRecording() {
	s.ctrl.Stop()
}

// AbortRecording drops the current session without output.
func (s *BarscopeService) AbortRecording() {
	s.ctrl.Abort()
}

// GetRecordingStatus returns the current state and elapsed time
func (s *BarscopeService) GetRecordingStatus() Status {
	st := Status{
		State:     s.ctrl.State().String(),
		Elapsed:   recording.FormatElapsed(s.ctrl.Elapsed()),
		LastError: s.GetLastError(),
	}
	if out, ok := s.LastRecording(); ok {
		st.LastTitle = out.Title
	}
	return st
}

// LastRecording returns the most recent finished clip.
func (s *BarscopeService) LastRecording() (recording.Output, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last, s.haveLast
}

// SaveRecording writes the last clip into dir (the configured output
// directory when empty) and returns its path.
func (s *BarscopeService) SaveRecording(dir string) (string, error) {
	out, ok := s.LastRecording()
	if !ok {
		return "", ErrNoRecording
	}
	if dir == "" {
		dir = s.cfg.Output.Directory
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(out.Title))
	if err := os.WriteFile(path, out.Blob, 0644); err != nil {
		s.setLastError(fmt.Sprintf("Failed to save recording: %v", err))
		return "", fmt.Errorf("failed to save recording: %w", err)
	}

	slog.Info("Recording saved", "path", path, "size", formatBytes(int64(len(out.Blob))))
	return path, nil
}

// Preview plays the last clip through the configured previewer.
func (s *BarscopeService) Preview(ctx context.Context) error {
	if s.previewer == nil {
		return errors.New("preview is not available")
	}
	out, ok := s.LastRecording()
	if !ok {
		return ErrNoRecording
	}

	start := time.Now()
	if err := s.previewer.Preview(ctx, out.Blob); err != nil {
		s.setLastError(fmt.Sprintf("Preview failed: %v", err))
		return fmt.Errorf("preview failed: %w", err)
	}
	slog.Debug("Preview finished", "title", out.Title, "took", time.Since(start))
	return nil
}

// Subscribe registers fn for every service event.
func (s *BarscopeService) Subscribe(fn func(Event)) func() {
	return s.events.Subscribe(fn)
}

// GetConfig returns the current configuration
func (s *BarscopeService) GetConfig() *config.Config {
	return s.cfg
}

// GetLastError returns the last error message (thread-safe)
func (s *BarscopeService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

// setLastError sets the last error message (thread-safe)
func (s *BarscopeService) setLastError(err string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = err

	slog.Error("Service error occurred", "error_message", err)
}

// clearLastError clears the last error message (thread-safe)
func (s *BarscopeService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

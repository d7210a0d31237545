package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/audiolibrelab/barscope/internal/config"
)

// BackendType represents the type of capture backend
type BackendType string

const (
	BackendTypePortAudio BackendType = "portaudio"
	BackendTypeMalgo     BackendType = "malgo"
	BackendTypeTone      BackendType = "tone"
	BackendTypeAuto      BackendType = "auto"
)

// Microphone grants access to a live capture stream. Open blocks until the
// device is available or access is refused.
type Microphone interface {
	Open(ctx context.Context) (*Stream, error)
}

// Device describes a capture device.
type Device struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// AudioBackend defines the interface for capture backend implementations
type AudioBackend interface {
	// Create a microphone for the configured device
	NewMicrophone(cfg *config.Config) Microphone

	// List available capture devices
	ListDevices() ([]Device, error)

	// Get the backend type
	GetType() BackendType
}

// NewBackend returns the backend selected by configuration
func NewBackend(cfg *config.Config) AudioBackend {
	switch determineBackend(cfg) {
	case BackendTypeMalgo:
		return &MalgoBackend{}
	case BackendTypeTone:
		return &ToneBackend{}
	default:
		return &PortAudioBackend{}
	}
}

// NewMicrophone creates a microphone using the configured backend
func NewMicrophone(cfg *config.Config) Microphone {
	return NewBackend(cfg).NewMicrophone(cfg)
}

func determineBackend(cfg *config.Config) BackendType {
	switch strings.ToLower(cfg.Audio.Backend) {
	case "malgo":
		return BackendTypeMalgo
	case "tone":
		return BackendTypeTone
	case "portaudio", "auto", "":
		return BackendTypePortAudio
	}
	return BackendTypePortAudio
}

// GetAvailableBackends returns the backends compiled into this binary
func GetAvailableBackends() []BackendType {
	return []BackendType{BackendTypePortAudio, BackendTypeMalgo, BackendTypeTone}
}

func permissionError(backend BackendType, err error) error {
	return fmt.Errorf("%s: microphone unavailable: %w", backend, err)
}

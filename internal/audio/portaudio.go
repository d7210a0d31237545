package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/audiolibrelab/barscope/internal/config"
)

// PortAudioBackend implements the AudioBackend interface for PortAudio
type PortAudioBackend struct{}

// NewMicrophone creates a microphone on the default PortAudio input device
func (p *PortAudioBackend) NewMicrophone(cfg *config.Config) Microphone {
	return &PortAudioMicrophone{
		sampleRate:      cfg.Audio.SampleRate,
		framesPerBuffer: cfg.Audio.FramesPerBuffer,
	}
}

// ListDevices returns PortAudio devices that can capture
func (p *PortAudioBackend) ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list portaudio devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var devices []Device
	for _, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, Device{
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           info.Name == defaultName,
		})
	}
	return devices, nil
}

// GetType returns the backend type
func (p *PortAudioBackend) GetType() BackendType {
	return BackendTypePortAudio
}

// PortAudioMicrophone captures mono float32 audio from the default input.
type PortAudioMicrophone struct {
	sampleRate      int
	framesPerBuffer int
}

// Open initializes PortAudio and starts a callback stream. Each Open holds
// its own PortAudio reference, released when the returned track stops.
func (m *PortAudioMicrophone) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, permissionError(BackendTypePortAudio, err)
	}

	var out *Stream
	pa, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), m.framesPerBuffer, func(in []float32) {
		out.Write(in)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, permissionError(BackendTypePortAudio, err)
	}

	track := NewTrack("portaudio:default", func() error {
		defer portaudio.Terminate()
		if err := pa.Stop(); err != nil {
			pa.Close()
			return err
		}
		return pa.Close()
	})
	out = NewStream(m.sampleRate, track)

	if err := pa.Start(); err != nil {
		pa.Close()
		portaudio.Terminate()
		return nil, permissionError(BackendTypePortAudio, err)
	}

	if err := ctx.Err(); err != nil {
		out.Stop()
		return nil, err
	}

	slog.Debug("PortAudio capture started", "sample_rate", m.sampleRate, "frames_per_buffer", m.framesPerBuffer)
	return out, nil
}

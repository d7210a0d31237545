package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/gen2brain/malgo"

	"github.com/audiolibrelab/barscope/internal/config"
)

// MalgoBackend implements the AudioBackend interface on miniaudio
type MalgoBackend struct{}

// NewMicrophone creates a microphone on the default miniaudio capture device
func (b *MalgoBackend) NewMicrophone(cfg *config.Config) Microphone {
	return &MalgoMicrophone{sampleRate: cfg.Audio.SampleRate}
}

// ListDevices returns miniaudio capture devices
func (b *MalgoBackend) ListDevices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("listing capture devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			Name:             info.Name(),
			MaxInputChannels: 1,
			Default:          info.IsDefault != 0,
		})
	}
	return devices, nil
}

// GetType returns the backend type
func (b *MalgoBackend) GetType() BackendType {
	return BackendTypeMalgo
}

// MalgoMicrophone captures mono float32 audio through miniaudio.
type MalgoMicrophone struct {
	sampleRate int
}

// Open initializes a miniaudio context and starts the default capture device.
func (m *MalgoMicrophone) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, permissionError(BackendTypeMalgo, err)
	}
	release := func() {
		_ = mctx.Uninit()
		mctx.Free()
	}

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = 1
	deviceCfg.SampleRate = uint32(m.sampleRate)

	var out *Stream
	var scratch []float32
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			n := len(input) / 4
			if cap(scratch) < n {
				scratch = make([]float32, n)
			}
			scratch = scratch[:n]
			for i := 0; i < n; i++ {
				scratch[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
			}
			out.Write(scratch)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceCfg, callbacks)
	if err != nil {
		release()
		return nil, permissionError(BackendTypeMalgo, err)
	}

	track := NewTrack("malgo:default", func() error {
		defer release()
		err := device.Stop()
		device.Uninit()
		return err
	})
	out = NewStream(m.sampleRate, track)

	if err := device.Start(); err != nil {
		device.Uninit()
		release()
		return nil, permissionError(BackendTypeMalgo, err)
	}

	if err := ctx.Err(); err != nil {
		out.Stop()
		return nil, err
	}

	slog.Debug("Miniaudio capture started", "sample_rate", m.sampleRate)
	return out, nil
}

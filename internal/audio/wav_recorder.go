package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth     = 16
	wavChannels     = 1
	wavPCMFormat    = 1
	wavMaxAmplitude = 1<<(wavBitDepth-1) - 1
)

// WavRecorder encodes a stream as 16-bit mono PCM WAV. The encoder needs a
// seekable writer, so samples are spooled to a temporary file that is read
// back and removed on Stop.
type WavRecorder struct {
	stream *Stream
	dir    string

	mu       sync.Mutex
	file     *os.File
	encoder  *wav.Encoder
	detach   func()
	writeErr error
	frames   int
	done     bool
}

// NewWavRecorder creates a recorder spooling into dir (os.TempDir when empty).
func NewWavRecorder(stream *Stream, dir string) *WavRecorder {
	return &WavRecorder{stream: stream, dir: dir}
}

// WavRecorderFactory returns a RecorderFactory producing WavRecorders.
func WavRecorderFactory(dir string) RecorderFactory {
	return func(stream *Stream) (Recorder, error) {
		return NewWavRecorder(stream, dir), nil
	}
}

// Record opens the spool file and attaches to the stream.
func (r *WavRecorder) Record() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil || r.done {
		return fmt.Errorf("recorder already started")
	}

	f, err := os.CreateTemp(r.dir, "barscope-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create spool file: %w", err)
	}

	r.file = f
	r.encoder = wav.NewEncoder(f, r.stream.SampleRate(), wavBitDepth, wavChannels, wavPCMFormat)
	r.detach = r.stream.Attach(r.write)

	slog.Debug("WAV recorder started", "spool", f.Name(), "sample_rate", r.stream.SampleRate())
	return nil
}

func (r *WavRecorder) write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil || r.writeErr != nil {
		return
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * wavMaxAmplitude)
	}

	if err := r.encoder.Write(r.bufferLocked(data)); err != nil {
		r.writeErr = fmt.Errorf("failed to encode samples: %w", err)
		return
	}
	r.frames += len(samples)
}

func (r *WavRecorder) bufferLocked(data []int) *goaudio.IntBuffer {
	return &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: wavChannels,
			SampleRate:  r.stream.SampleRate(),
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
}

// Stop detaches from the stream, finalizes the WAV header and returns the clip.
func (r *WavRecorder) Stop(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	if r.file == nil {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	detach := r.detach
	r.detach = nil
	r.mu.Unlock()

	// Detach outside the lock: Stream.Write may be blocked on r.mu.
	if detach != nil {
		detach()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		r.releaseLocked()
		return nil, err
	}

	var errs []error
	if r.writeErr != nil {
		errs = append(errs, r.writeErr)
	}
	if r.frames == 0 && r.writeErr == nil {
		// The encoder writes its header lazily; force it for an empty clip.
		if err := r.encoder.Write(r.bufferLocked(nil)); err != nil {
			errs = append(errs, fmt.Errorf("failed to write wav header: %w", err))
		}
	}
	if err := r.encoder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to finalize wav: %w", err))
	}

	var blob []byte
	if len(errs) == 0 {
		var err error
		blob, err = os.ReadFile(r.file.Name())
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read spool file: %w", err))
		}
	}

	frames := r.frames
	r.releaseLocked()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	slog.Debug("WAV recorder finalized", "frames", frames, "bytes", len(blob))
	return blob, nil
}

// Discard drops the clip and removes the spool file.
func (r *WavRecorder) Discard() error {
	r.mu.Lock()
	detach := r.detach
	r.detach = nil
	r.mu.Unlock()

	if detach != nil {
		detach()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releaseLocked()
}

func (r *WavRecorder) releaseLocked() error {
	r.done = true
	r.encoder = nil
	if r.file == nil {
		return nil
	}

	name := r.file.Name()
	closeErr := r.file.Close()
	r.file = nil
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove spool file: %w", err)
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return fmt.Errorf("failed to close spool file: %w", closeErr)
	}
	return nil
}

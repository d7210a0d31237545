package audio

import (
	"context"
	"errors"
)

// ErrNotRecording is returned when a recorder is stopped before Record.
var ErrNotRecording = errors.New("recorder is not recording")

// Recorder encodes a Stream into a clip.
type Recorder interface {
	// Record starts consuming the stream.
	Record() error

	// Stop finalizes the clip and returns the encoded bytes.
	Stop(ctx context.Context) ([]byte, error)

	// Discard releases the recorder without producing a clip. It is a no-op
	// after Stop.
	Discard() error
}

// RecorderFactory builds a recorder bound to a stream.
type RecorderFactory func(stream *Stream) (Recorder, error)

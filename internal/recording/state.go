package recording

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// State is the controller's lifecycle position.
type State int

const (
	Idle State = iota
	Requesting
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrPermissionDenied wraps any failure to obtain the microphone stream.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrRecorderFailure wraps failures of the recorder or analysis pipeline.
	ErrRecorderFailure = errors.New("recorder failure")
)

// Output is a finished clip.
type Output struct {
	Blob  []byte
	Title string
}

// FormatElapsed renders d as MM:SS with whole minutes, both fields
// zero-padded.
func FormatElapsed(d time.Duration) string {
	secs := int(max(0, d/time.Second))
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Title names a clip finished at t.
func Title(t time.Time) string {
	return url.PathEscape(fmt.Sprintf("audio_%d.wav", t.UnixMilli()))
}

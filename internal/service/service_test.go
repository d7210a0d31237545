package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/audiolibrelab/barscope/internal/audio"
	"github.com/audiolibrelab/barscope/internal/clock"
	"github.com/audiolibrelab/barscope/internal/config"
	"github.com/audiolibrelab/barscope/internal/recording"
	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/timeline"
)

type stubMic struct {
	err error
}

func (m *stubMic) Open(ctx context.Context) (*audio.Stream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return audio.NewStream(8000, audio.NewTrack("stub", func() error { return nil })), nil
}

type stubPreviewer struct {
	got []byte
}

func (p *stubPreviewer) Preview(ctx context.Context, blob []byte) error {
	p.got = blob
	return nil
}

func newTestService(t *testing.T, mic *stubMic, previewer Previewer) (*BarscopeService, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(time.UnixMilli(1_700_000_000_000))
	clk := clock.New(fake, 24)
	clk.Start()

	ctrl, err := recording.New(recording.Options{
		Clock:       clk,
		Time:        fake,
		Microphone:  mic,
		NewRecorder: audio.WavRecorderFactory(t.TempDir()),
		Timeline:    timeline.Config{BarWidth: 2, BarGap: 2, FPS: 24},
		Spawn:       func(fn func()) { fn() },
	})
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}

	cfg := config.Default()
	cfg.Output.Directory = t.TempDir()
	return New(cfg, ctrl, previewer), fake
}

func TestService_RecordSaveAndPreview(t *testing.T) {
	previewer := &stubPreviewer{}
	svc, fake := newTestService(t, &stubMic{}, previewer)

	var got []Event
	svc.Subscribe(func(e Event) { got = append(got, e) })

	svc.StartRecording(render.NewImageSurface(64, 32))
	fake.Advance(2 * time.Second)

	if st := svc.GetRecordingStatus(); st.State != "active" || st.Elapsed != "00:02" {
		t.Errorf("Unexpected status while recording: %+v", st)
	}

	svc.StopRecording()

	out, ok := svc.LastRecording()
	if !ok {
		t.Fatal("Expected a recording")
	}
	if !strings.HasPrefix(string(out.Blob), "RIFF") {
		t.Errorf("Expected a WAV blob, got %q", out.Blob[:min(4, len(out.Blob))])
	}

	wantTypes := []string{EventState, EventState, EventTime, EventTime, EventState, EventRecorded}
	if len(got) != len(wantTypes) {
		t.Fatalf("Expected events %v, got %+v", wantTypes, got)
	}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Errorf("Event %d type = %s, want %s", i, got[i].Type, want)
		}
	}
	if got[5].Title != out.Title {
		t.Errorf("Expected recorded event title %q, got %q", out.Title, got[5].Title)
	}

	path, err := svc.SaveRecording("")
	if err != nil {
		t.Fatalf("SaveRecording failed: %v", err)
	}
	if filepath.Dir(path) != svc.GetConfig().Output.Directory || filepath.Base(path) != out.Title {
		t.Errorf("Unexpected save path %s", path)
	}
	saved, err := os.ReadFile(path)
	if err != nil || len(saved) != len(out.Blob) {
		t.Errorf("Expected saved file to match the clip, err=%v", err)
	}

	if err := svc.Preview(context.Background()); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if len(previewer.got) != len(out.Blob) {
		t.Error("Expected previewer to receive the clip")
	}

	if st := svc.GetRecordingStatus(); st.State != "idle" || st.LastTitle != out.Title {
		t.Errorf("Unexpected status after stop: %+v", st)
	}
}

func TestService_FailureSetsLastError(t *testing.T) {
	mic := &stubMic{err: errors.New("NotAllowedError")}
	svc, _ := newTestService(t, mic, nil)

	svc.StartRecording(nil)

	if msg := svc.GetLastError(); !strings.Contains(msg, "permission denied") {
		t.Errorf("Expected permission error, got %q", msg)
	}
	if svc.GetRecordingStatus().State != "idle" {
		t.Error("Expected idle after failure")
	}

	// A new attempt clears the previous error.
	mic.err = nil
	svc.StartRecording(nil)
	if msg := svc.GetLastError(); msg != "" {
		t.Errorf("Expected error cleared on restart, got %q", msg)
	}
	svc.AbortRecording()
}

func TestService_NothingRecordedYet(t *testing.T) {
	svc, _ := newTestService(t, &stubMic{}, &stubPreviewer{})

	if _, err := svc.SaveRecording(""); !errors.Is(err, ErrNoRecording) {
		t.Errorf("Expected ErrNoRecording from save, got %v", err)
	}
	if err := svc.Preview(context.Background()); !errors.Is(err, ErrNoRecording) {
		t.Errorf("Expected ErrNoRecording from preview, got %v", err)
	}
}

func TestService_AbortProducesNoRecording(t *testing.T) {
	svc, fake := newTestService(t, &stubMic{}, nil)

	svc.StartRecording(nil)
	fake.Advance(time.Second)
	svc.AbortRecording()

	if _, ok := svc.LastRecording(); ok {
		t.Error("Expected no recording after abort")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KB",
		5 << 20: "5.0 MB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

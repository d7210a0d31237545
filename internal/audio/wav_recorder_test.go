package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-audio/wav"
)

func TestWavRecorder_EncodesStream(t *testing.T) {
	dir := t.TempDir()
	stream := NewStream(8000)
	rec := NewWavRecorder(stream, dir)

	if err := rec.Record(); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	stream.Write([]float32{0, 0.5, -0.5, 1})
	stream.Write([]float32{2, -2})

	blob, err := rec.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	dec := wav.NewDecoder(bytes.NewReader(blob))
	if !dec.IsValidFile() {
		t.Fatal("Expected a valid WAV file")
	}
	if dec.SampleRate != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("Expected mono, got %d channels", dec.NumChans)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode PCM: %v", err)
	}
	want := []int{0, 16383, -16383, 32767, 32767, -32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], buf.Data[i])
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected spool file to be removed, found %d entries", len(entries))
	}
}

func TestWavRecorder_EmptyClipIsValid(t *testing.T) {
	stream := NewStream(8000)
	rec := NewWavRecorder(stream, t.TempDir())
	if err := rec.Record(); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	blob, err := rec.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !wav.NewDecoder(bytes.NewReader(blob)).IsValidFile() {
		t.Error("Expected an empty recording to still be a valid WAV file")
	}
}

func TestWavRecorder_StopWithoutRecord(t *testing.T) {
	rec := NewWavRecorder(NewStream(8000), t.TempDir())
	if _, err := rec.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Expected ErrNotRecording, got %v", err)
	}
}

func TestWavRecorder_Discard(t *testing.T) {
	dir := t.TempDir()
	stream := NewStream(8000)
	rec := NewWavRecorder(stream, dir)
	if err := rec.Record(); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	stream.Write([]float32{0.1})

	if err := rec.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if err := rec.Discard(); err != nil {
		t.Errorf("Expected second Discard to be a no-op, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected spool file removed, found %d entries", len(entries))
	}
	if err := rec.Record(); err == nil {
		t.Error("Expected a discarded recorder to refuse Record")
	}
}

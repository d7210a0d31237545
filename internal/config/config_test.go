package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "barscope.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}

	if cfg.Analyser.FFTSize != 2048 {
		t.Errorf("Expected fft size 2048, got %d", cfg.Analyser.FFTSize)
	}
	if cfg.Visualizer.FPS != 24 {
		t.Errorf("Expected 24 fps, got %d", cfg.Visualizer.FPS)
	}
	if cfg.Visualizer.Bar.Width != 2 || cfg.Visualizer.Bar.Gap != 2 {
		t.Errorf("Expected bar width/gap 2/2, got %.1f/%.1f", cfg.Visualizer.Bar.Width, cfg.Visualizer.Bar.Gap)
	}
	if !cfg.Visualizer.Show {
		t.Error("Expected visualizer to be shown by default")
	}
	if cfg.Output.Format != "wav" {
		t.Errorf("Expected wav output, got %s", cfg.Output.Format)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
audio:
  backend: tone
  sample_rate: 48000
  permission_timeout: 5s
visualizer:
  fps: 30
  bar:
    width: 3
  colors: ["#000000", "#FFFFFF"]
output:
  directory: ~/clips
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Audio.Backend != "tone" {
		t.Errorf("Expected backend 'tone', got %s", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.PermissionTimeout != 5*time.Second {
		t.Errorf("Expected permission timeout 5s, got %s", cfg.Audio.PermissionTimeout)
	}
	if cfg.Visualizer.FPS != 30 {
		t.Errorf("Expected 30 fps, got %d", cfg.Visualizer.FPS)
	}
	if cfg.Visualizer.Bar.Width != 3 {
		t.Errorf("Expected bar width 3, got %.1f", cfg.Visualizer.Bar.Width)
	}
	// Unset nested keys keep their defaults
	if cfg.Visualizer.Bar.Gap != 2 {
		t.Errorf("Expected inherited bar gap 2, got %.1f", cfg.Visualizer.Bar.Gap)
	}
	if cfg.Visualizer.Colors[1] != "#FFFFFF" {
		t.Errorf("Expected second color #FFFFFF, got %s", cfg.Visualizer.Colors[1])
	}
	if strings.HasPrefix(cfg.Output.Directory, "~") {
		t.Errorf("Expected tilde to be expanded, got %s", cfg.Output.Directory)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BARSCOPE_VISUALIZER_FPS", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Visualizer.FPS != 12 {
		t.Errorf("Expected env override fps 12, got %d", cfg.Visualizer.FPS)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, `
analyser:
  fft_size: 1000
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected validation error for non power-of-two fft size")
	}
	if !strings.Contains(err.Error(), "fft_size") {
		t.Errorf("Expected fft_size error, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Audio.Backend = "jack" }, "audio.backend"},
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "sample_rate"},
		{"negative timeout", func(c *Config) { c.Audio.PermissionTimeout = -time.Second }, "permission_timeout"},
		{"fft too small", func(c *Config) { c.Analyser.FFTSize = 16 }, "fft_size"},
		{"decibel range", func(c *Config) { c.Analyser.MinDecibels = -30 }, "min_decibels"},
		{"zero fps", func(c *Config) { c.Visualizer.FPS = 0 }, "fps"},
		{"zero width", func(c *Config) { c.Visualizer.Width = 0 }, "size"},
		{"zero bar", func(c *Config) { c.Visualizer.Bar.Width = 0 }, "bar.width"},
		{"negative gap", func(c *Config) { c.Visualizer.Bar.Gap = -1 }, "bar.gap"},
		{"one color", func(c *Config) { c.Visualizer.Colors = []string{"#000000"} }, "exactly 2"},
		{"bad color", func(c *Config) { c.Visualizer.Colors = []string{"#000000", "blue"} }, "colors[1]"},
		{"mp3 output", func(c *Config) { c.Output.Format = "mp3" }, "output.format"},
		{"no port", func(c *Config) { c.Server.Port = "" }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefault_ReturnsIndependentCopy(t *testing.T) {
	a := Default()
	a.Visualizer.Colors[0] = "#123456"

	b := Default()
	if b.Visualizer.Colors[0] == "#123456" {
		t.Error("Expected Default to return an independent copy of the colors")
	}
}

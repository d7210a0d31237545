package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BARSCOPE_VISUALIZER_FPS.
const EnvPrefix = "BARSCOPE"

type Config struct {
	Audio      AudioConfig      `mapstructure:"audio" yaml:"audio"`
	Analyser   AnalyserConfig   `mapstructure:"analyser" yaml:"analyser"`
	Visualizer VisualizerConfig `mapstructure:"visualizer" yaml:"visualizer"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

type AudioConfig struct {
	Backend           string        `mapstructure:"backend" yaml:"backend"` // "portaudio", "malgo", "tone", "auto"
	SampleRate        int           `mapstructure:"sample_rate" yaml:"sample_rate"`
	FramesPerBuffer   int           `mapstructure:"frames_per_buffer" yaml:"frames_per_buffer"`
	PermissionTimeout time.Duration `mapstructure:"permission_timeout" yaml:"permission_timeout"` // 0 waits forever
}

type AnalyserConfig struct {
	FFTSize     int     `mapstructure:"fft_size" yaml:"fft_size"`
	MinDecibels float64 `mapstructure:"min_decibels" yaml:"min_decibels"`
	MaxDecibels float64 `mapstructure:"max_decibels" yaml:"max_decibels"`
}

type VisualizerConfig struct {
	FPS    int       `mapstructure:"fps" yaml:"fps"`
	Show   bool      `mapstructure:"show" yaml:"show"`
	Width  int       `mapstructure:"width" yaml:"width"`   // on-screen box of the HTTP canvas
	Height int       `mapstructure:"height" yaml:"height"` // on-screen box of the HTTP canvas
	Bar    BarConfig `mapstructure:"bar" yaml:"bar"`
	Colors []string  `mapstructure:"colors" yaml:"colors"` // gradient stops, top to bottom
}

type BarConfig struct {
	Width float64 `mapstructure:"width" yaml:"width"`
	Gap   float64 `mapstructure:"gap" yaml:"gap"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Format    string `mapstructure:"format" yaml:"format"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

var defaultConfig = Config{
	Audio: AudioConfig{
		Backend:         "auto",
		SampleRate:      44100,
		FramesPerBuffer: 1024,
	},
	Analyser: AnalyserConfig{
		FFTSize:     2048,
		MinDecibels: -100,
		MaxDecibels: -30,
	},
	Visualizer: VisualizerConfig{
		FPS:    24,
		Show:   true,
		Width:  640,
		Height: 120,
		Bar: BarConfig{
			Width: 2,
			Gap:   2,
		},
		Colors: []string{"#609EA2", "#2E3840"},
	},
	Output: OutputConfig{
		Directory: filepath.Join(os.Getenv("HOME"), "Audio", "barscope"),
		Format:    "wav",
	},
	Server: ServerConfig{
		Port: "8080",
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	cfg.Visualizer.Colors = append([]string(nil), defaultConfig.Visualizer.Colors...)
	return &cfg
}

// Load reads configFile on top of the defaults. A missing file is not an
// error; environment variables override both.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding configuration: %w", err)
	}

	cfg.Output.Directory = expandPath(cfg.Output.Directory)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig
	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.frames_per_buffer", d.Audio.FramesPerBuffer)
	v.SetDefault("audio.permission_timeout", d.Audio.PermissionTimeout)
	v.SetDefault("analyser.fft_size", d.Analyser.FFTSize)
	v.SetDefault("analyser.min_decibels", d.Analyser.MinDecibels)
	v.SetDefault("analyser.max_decibels", d.Analyser.MaxDecibels)
	v.SetDefault("visualizer.fps", d.Visualizer.FPS)
	v.SetDefault("visualizer.show", d.Visualizer.Show)
	v.SetDefault("visualizer.width", d.Visualizer.Width)
	v.SetDefault("visualizer.height", d.Visualizer.Height)
	v.SetDefault("visualizer.bar.width", d.Visualizer.Bar.Width)
	v.SetDefault("visualizer.bar.gap", d.Visualizer.Bar.Gap)
	v.SetDefault("visualizer.colors", d.Visualizer.Colors)
	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("server.port", d.Server.Port)
}

// Validate checks cross-field constraints that the decoder cannot.
func Validate(cfg *Config) error {
	switch strings.ToLower(cfg.Audio.Backend) {
	case "auto", "portaudio", "malgo", "tone":
	default:
		return fmt.Errorf("audio.backend must be one of auto, portaudio, malgo, tone, got: %s", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FramesPerBuffer < 0 {
		return fmt.Errorf("audio.frames_per_buffer must not be negative, got %d", cfg.Audio.FramesPerBuffer)
	}
	if cfg.Audio.PermissionTimeout < 0 {
		return fmt.Errorf("audio.permission_timeout must not be negative, got %s", cfg.Audio.PermissionTimeout)
	}

	if !isPowerOfTwo(cfg.Analyser.FFTSize) || cfg.Analyser.FFTSize < 32 || cfg.Analyser.FFTSize > 32768 {
		return fmt.Errorf("analyser.fft_size must be a power of two between 32 and 32768, got %d", cfg.Analyser.FFTSize)
	}
	if cfg.Analyser.MinDecibels >= cfg.Analyser.MaxDecibels {
		return fmt.Errorf("analyser.min_decibels (%.1f) must be below max_decibels (%.1f)",
			cfg.Analyser.MinDecibels, cfg.Analyser.MaxDecibels)
	}

	if cfg.Visualizer.FPS <= 0 || cfg.Visualizer.FPS > 240 {
		return fmt.Errorf("visualizer.fps must be between 1 and 240, got %d", cfg.Visualizer.FPS)
	}
	if cfg.Visualizer.Width <= 0 || cfg.Visualizer.Height <= 0 {
		return fmt.Errorf("visualizer size must be positive, got %dx%d", cfg.Visualizer.Width, cfg.Visualizer.Height)
	}
	if cfg.Visualizer.Bar.Width <= 0 {
		return fmt.Errorf("visualizer.bar.width must be positive, got %.1f", cfg.Visualizer.Bar.Width)
	}
	if cfg.Visualizer.Bar.Gap < 0 {
		return fmt.Errorf("visualizer.bar.gap must not be negative, got %.1f", cfg.Visualizer.Bar.Gap)
	}
	if len(cfg.Visualizer.Colors) != 2 {
		return fmt.Errorf("visualizer.colors must list exactly 2 gradient stops, got %d", len(cfg.Visualizer.Colors))
	}
	for i, c := range cfg.Visualizer.Colors {
		if !isHexColor(c) {
			return fmt.Errorf("visualizer.colors[%d] must be a #RRGGBB color, got: %s", i, c)
		}
	}

	if cfg.Output.Format != "wav" {
		return fmt.Errorf("output.format must be 'wav', got: %s", cfg.Output.Format)
	}
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// isHexColor checks for the #RRGGBB form
func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/audiolibrelab/barscope/internal/play"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file.wav]",
	Short: "Show details of a recorded clip",
	Long:  `Display the format and duration of a clip. Bare names are looked up in the output directory.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveClipPath(args[0])

		blob, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read clip: %w", err)
		}
		info, err := play.Inspect(blob)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", path, err)
		}

		fmt.Printf("=== CLIP ===\n")
		fmt.Printf("path: %s\n", path)
		fmt.Printf("size: %d bytes\n", len(blob))
		fmt.Printf("sample_rate: %d\n", info.SampleRate)
		fmt.Printf("channels: %d\n", info.Channels)
		fmt.Printf("duration: %s\n", info.Duration)
		return nil
	},
}

// resolveClipPath maps a bare file name into the output directory.
func resolveClipPath(name string) string {
	if filepath.Base(name) != name {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(cfg.Output.Directory, name)
}

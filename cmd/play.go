package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/barscope/internal/play"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [file.wav]",
	Short: "Play a recorded clip",
	Long:  `Play a WAV clip on the default output device. Press Ctrl+C to stop.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Playing: %s\n", args[0])

		player := play.New(cfg.Audio.SampleRate)
		if err := player.PlayFile(ctx, args[0]); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("playback failed: %w", err)
		}

		fmt.Println("Playback completed")
		return nil
	},
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/audiolibrelab/barscope/internal/config"
	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	logFile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "barscope",
	Short: "Record from the microphone with a live scrolling volume graph",
	Long: `barscope records microphone input to a WAV clip while drawing a real-time
bar graph of the input volume that scrolls in step with recording time.

Record interactively in the terminal with 'barscope record', or control
recording from a browser with 'barscope serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Configure slog based on verbose level
		if err := setupLogging(verboseLevel, logFile); err != nil {
			return err
		}

		// Variables from .env apply before the config is read
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not load .env file", "error", err)
		}

		// Use default config path if not specified
		if cfgFile == "" {
			cfgFile = os.ExpandEnv("$HOME/.config/barscope.yaml")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		slog.Debug("Configuration loaded", "file", cfgFile, "backend", cfg.Audio.Backend)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/barscope.yaml)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file, rotated by size")

	// Add subcommands
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(serveCmd)
}

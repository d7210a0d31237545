package cmd

import (
	"fmt"
	"log/slog"

	"github.com/audiolibrelab/barscope/internal/clock"
	"github.com/audiolibrelab/barscope/internal/play"
	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/service"
	"github.com/audiolibrelab/barscope/internal/tui"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone with a live volume graph",
	Long: `Record microphone input while a scrolling bar graph of the volume is drawn
in the terminal. Press Enter to stop and save the clip into the output
directory, 'a' to abort without saving, and 'p' to preview the last clip.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")
		cols, _ := cmd.Flags().GetInt("cols")
		rows, _ := cmd.Flags().GetInt("rows")
		if outputDir == "" {
			outputDir = cfg.Output.Directory
		}

		clk := clock.New(nil, cfg.Visualizer.FPS)
		clk.Start()
		defer clk.Stop()

		slog.Debug("Creating service instance", "backend", cfg.Audio.Backend, "fps", clk.FPS())
		ctrl, err := service.NewController(cfg, clk)
		if err != nil {
			return err
		}
		svc := service.New(cfg, ctrl, play.New(cfg.Audio.SampleRate))

		model := tui.NewModel(svc, render.NewTermSurface(cols, rows), clk.FPS(), outputDir)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			svc.AbortRecording()
			return fmt.Errorf("terminal UI failed: %w", err)
		}

		if out, ok := svc.LastRecording(); ok {
			slog.Info("Last recording", "title", out.Title, "directory", outputDir)
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringP("output", "o", "", "output directory (overrides config)")
	recordCmd.Flags().Int("cols", 60, "width of the bar graph in columns")
	recordCmd.Flags().Int("rows", 12, "height of the bar graph in rows")
}

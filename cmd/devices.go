package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/audiolibrelab/barscope/internal/audio"
	"github.com/audiolibrelab/barscope/internal/config"
	"github.com/fatih/color"

	"github.com/spf13/cobra"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	defaultColor = color.New(color.FgGreen)
	dimColor     = color.New(color.Faint)
	warnColor    = color.New(color.FgYellow)
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available capture devices",
	Long:  `List the capture devices each audio backend can record from. The default input is marked with '*'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		backends := []audio.AudioBackend{audio.NewBackend(cfg)}
		if all {
			backends = backends[:0]
			for _, t := range audio.GetAvailableBackends() {
				backends = append(backends, audio.NewBackend(&config.Config{Audio: config.AudioConfig{Backend: string(t)}}))
			}
		}

		headerColor.Printf("Capture devices (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		for _, backend := range backends {
			listDevices(backend)
		}
		return nil
	},
}

// listDevices prints the devices of one backend. Backend errors are reported
// inline so the remaining backends are still listed.
func listDevices(backend audio.AudioBackend) {
	devices, err := backend.ListDevices()
	if err != nil {
		slog.Debug("Listing devices failed", "backend", backend.GetType(), "error", err)
		warnColor.Printf("%s: unavailable (%v)\n\n", backend.GetType(), err)
		return
	}

	headerColor.Printf("%s (%d found)\n", backend.GetType(), len(devices))
	for i, d := range devices {
		marker := " "
		line := fmt.Sprintf("%d. %s", i+1, d.Name)
		if d.Default {
			marker = "*"
			line = defaultColor.Sprint(line)
		}
		fmt.Printf(" %s %s", marker, line)
		if d.MaxInputChannels > 0 {
			dimColor.Printf("  [%d ch, %.0f Hz]", d.MaxInputChannels, d.DefaultSampleRate)
		}
		fmt.Println()
	}
	fmt.Println()
}

func init() {
	devicesCmd.Flags().Bool("all", false, "list devices for every backend, not just the configured one")
}

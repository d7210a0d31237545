package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/barscope/internal/clock"
	"github.com/audiolibrelab/barscope/internal/play"
	"github.com/audiolibrelab/barscope/internal/server"
	"github.com/audiolibrelab/barscope/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for remote control",
	Long: `Start the barscope web server to control recording via a web interface.
The page shows the live volume graph and offers the finished clip for
download and preview.

The server will display the local network URL for easy access from other devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Server.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		clk := clock.New(nil, cfg.Visualizer.FPS)
		ctrl, err := service.NewController(cfg, clk)
		if err != nil {
			return err
		}
		svc := service.New(cfg, ctrl, play.New(cfg.Audio.SampleRate))
		srv := server.New(cfg, svc)

		slog.Info("barscope web server starting", "port", cfg.Server.Port, "config", cfgFile)

		clk.Start()
		g.Go(func() error {
			<-ctx.Done()
			clk.Stop()
			return nil
		})
		g.Go(func() error {
			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the web server (overrides config)")
}

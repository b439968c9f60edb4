package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/nevet/basic-MCI-Recorder/internal/metrics"
	"github.com/nevet/basic-MCI-Recorder/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for remote control",
	Long: `Start the MCI Recorder web server to control recording via a web interface.
This allows you to control recording from your smartphone or any device on the same network.

The server will display the local network URL for easy access from mobile devices.
Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry := prometheus.NewRegistry()
		sessionMetrics, err := metrics.NewSessionMetrics(registry)
		if err != nil {
			return err
		}

		display := server.NewWebDisplay()
		sess, err := startSession(ctx, display, server.RequestPrompter{}, sessionMetrics)
		if err != nil {
			return err
		}
		defer sess.Close()

		srv := server.New(cfg, sess.Controller, display, sessionMetrics.Registry(), port)

		slog.Info("MCI Recorder web server starting", "port", port, "config", cfgFile, "profile", cfg.Profile)

		// Start server (this blocks)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the web server (default from server.port)")
}

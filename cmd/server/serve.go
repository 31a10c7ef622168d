package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"perfcycle/internal/app/server"
	"perfcycle/internal/platform/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and notification worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := server.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Run(ctx); err != nil {
			return err
		}
		slog.Info("perfcycle stopped")
		return nil
	},
}

// loadConfig resolves configuration and installs the process logger.
func loadConfig() (config.Config, error) {
	if configFile != "" {
		os.Setenv("CONFIG_FILE", configFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	slog.SetDefault(server.NewLogger(cfg, os.Stderr))
	return cfg, nil
}

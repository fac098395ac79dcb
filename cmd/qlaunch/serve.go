package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/igusev/qlaunch/internal/config"
	"github.com/igusev/qlaunch/internal/launcher"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/server"
)

var serveAddr string // Flag overriding server.addr

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the launcher over a local HTTP API",
	Long: `Start the launcher in the background (startup reindex, catalog watcher)
and serve search, usage and indexing operations over HTTP until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := launcher.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Debug("Failed to close launcher: %v", err)
		}
	}()

	if err := l.Start(ctx); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DefaultLimit:   cfg.Search.DefaultLimit,
	}, l)

	logger.Info("Serving on http://%s", cfg.Server.Addr)
	return srv.ListenAndServe(ctx)
}

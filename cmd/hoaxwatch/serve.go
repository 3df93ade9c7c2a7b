package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/HoaxWatch/internal/api"
)

var (
	servePort     int
	serveStart    bool
	serveInterval time.Duration
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the background scraper",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "API port (overrides config)")
	cmd.Flags().BoolVar(&serveStart, "autostart", false, "start every source worker on boot")
	cmd.Flags().DurationVar(&serveInterval, "interval", 0, "worker interval when autostarting (minimum 30s)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if !cfg.API.Enabled {
		return fmt.Errorf("api is disabled in configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if serveStart || cfg.Scraper.Autostart {
		started := a.manager.Start(serveInterval)
		logger.Info("workers started", "sources", started)
	}

	srv := api.NewServer(api.ConfigFrom(cfg), a.manager, a.store, a.metrics, logger)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("received signal, shutting down")
	return nil
}

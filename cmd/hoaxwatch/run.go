package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/HoaxWatch/internal/engine"
)

var runSource string

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scrape cycle now",
		Long:  "Run one synchronous scrape cycle for a single source or for every source and print the breakdown.",
		RunE:  runOnce,
	}
	cmd.Flags().StringVarP(&runSource, "source", "s", "", "source key to run (default: all sources)")
	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	var results []engine.CycleResult
	if runSource != "" {
		res, err := a.manager.RunSourceOnce(ctx, runSource)
		if err != nil {
			return err
		}
		results = append(results, res)
	} else {
		batch := a.manager.RunAllOnce(ctx)
		results = batch.Sources
		defer fmt.Fprintf(cmd.OutOrStdout(), "\nbatch %s: collected %d, inserted %d, status %s\n",
			batch.CycleID, batch.TotalCollected, batch.NewInserted, batch.Status)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := string(r.Status)
		if !r.Available {
			status = "UNAVAILABLE"
		}
		rows = append(rows, []string{
			r.Key,
			status,
			string(r.Health),
			strconv.Itoa(r.Collected),
			strconv.Itoa(r.Inserted),
			strconv.Itoa(r.Hoaxes),
			truncate(r.Error, 60),
		})
	}
	return writeTable(cmd.OutOrStdout(),
		[]string{"SOURCE", "STATUS", "HEALTH", "COLLECTED", "INSERTED", "HOAXES", "ERROR"}, rows)
}

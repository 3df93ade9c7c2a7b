package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd creates the "status" subcommand. It reads the stored run history
// rather than a live server.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-source run statistics from storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			metrics, err := a.manager.SourceMetrics(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(metrics))
			for _, m := range metrics {
				last := "-"
				if m.LastRunTime != nil {
					last = m.LastRunTime.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					m.Key,
					strconv.FormatBool(m.Available),
					strconv.FormatInt(m.Runs, 10),
					fmt.Sprintf("%.0f%%", m.SuccessRate*100),
					strconv.FormatInt(m.TotalCollected, 10),
					string(m.LastStatus),
					last,
				})
			}
			out := cmd.OutOrStdout()
			if err := writeTable(out, []string{"SOURCE", "AVAILABLE", "RUNS", "SUCCESS", "COLLECTED", "LAST STATUS", "LAST RUN"}, rows); err != nil {
				return err
			}

			total, err := a.store.TotalArticles(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nstored articles: %d (%s)\n", total, a.store.Name())
			return nil
		},
	}
}

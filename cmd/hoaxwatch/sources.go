package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/HoaxWatch/internal/config"
)

// sourcesCmd creates the "sources" subcommand.
func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(config.SourceKeys))
			for _, key := range config.SourceKeys {
				sc := cfg.Sources[key]
				interval := config.ClampInterval(sc.Interval, cfg.Scraper.DefaultInterval)
				rows = append(rows, []string{
					key,
					strconv.FormatBool(sc.Enabled),
					interval.String(),
					truncate(sc.URL, 70),
				})
			}
			return writeTable(cmd.OutOrStdout(), []string{"KEY", "ENABLED", "INTERVAL", "URL"}, rows)
		},
	}
}

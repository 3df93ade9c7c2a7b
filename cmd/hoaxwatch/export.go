package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/HoaxWatch/internal/storage"
)

var (
	exportFormat string
	exportOutput string
)

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored articles as JSONL or CSV",
		RunE:  runExport,
	}
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "output format: jsonl, csv")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "-" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	n, err := storage.Export(ctx, a.store, strings.ToLower(exportFormat), bw)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("export complete", "articles", n, "format", exportFormat, "output", exportOutput)
	return nil
}

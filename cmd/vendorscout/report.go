package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/procurehq/vendorscout/internal/archive"
	"github.com/procurehq/vendorscout/internal/report"
)

var (
	reportBatch string
	reportQuery string
	reportLimit int
	reportJSON  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize archived discovery runs",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportBatch, "batch", "", "restrict to one batch id")
	reportCmd.Flags().StringVar(&reportQuery, "query", "", "restrict to one query")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "max runs to include (0 = all)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "output JSON instead of text")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.archive == nil {
		return fmt.Errorf("no archive backend configured, set archive.backend in the config")
	}

	runs, err := a.archive.Query(ctx, archive.Filter{
		BatchID: reportBatch,
		Query:   reportQuery,
		Limit:   reportLimit,
	})
	if err != nil {
		return fmt.Errorf("querying archive: %w", err)
	}

	summary := report.GenerateSummary(runs)
	if reportJSON {
		return report.WriteJSON(os.Stdout, summary)
	}
	return report.WriteText(os.Stdout, summary)
}

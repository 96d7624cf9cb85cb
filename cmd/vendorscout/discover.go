package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/procurehq/vendorscout/internal/discovery"
)

var (
	discoverSpecs    []string
	discoverName     string
	discoverPage     int
	discoverPageSize int
	discoverTopN     int
	discoverBatch    string
	discoverRefresh  bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover [query]",
	Short: "Run one discovery and print the ranked candidate page as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverSpecs, "spec", "s", nil, "required spec, repeatable")
	discoverCmd.Flags().StringVar(&discoverName, "name", "", "selected product name to echo in the response")
	discoverCmd.Flags().IntVar(&discoverPage, "page", 0, "zero-based page number")
	discoverCmd.Flags().IntVar(&discoverPageSize, "page-size", 10, "results per page")
	discoverCmd.Flags().IntVar(&discoverTopN, "top-n", 0, "cap on retrieved candidate urls (0 uses config)")
	discoverCmd.Flags().StringVar(&discoverBatch, "batch", "", "batch id to group cache entries under")
	discoverCmd.Flags().BoolVar(&discoverRefresh, "refresh", false, "bypass the cache and rerun the pipeline")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.service.Handle(ctx, discovery.Request{
		Query:         args[0],
		SelectedName:  discoverName,
		SelectedSpecs: discoverSpecs,
		Page:          discoverPage,
		PageSize:      discoverPageSize,
		TopN:          discoverTopN,
		BatchID:       discoverBatch,
		Refresh:       discoverRefresh,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

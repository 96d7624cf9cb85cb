package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Manage cached discovery batches",
}

var batchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached batches with entry counts",
	RunE:  runBatchesList,
}

var batchesClearCmd = &cobra.Command{
	Use:   "clear [batch-id]",
	Short: "Remove every cache entry owned by a batch",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBatchesClear,
}

func init() {
	batchesCmd.AddCommand(batchesListCmd)
	batchesCmd.AddCommand(batchesClearCmd)
	rootCmd.AddCommand(batchesCmd)
}

func runBatchesList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	batches, err := a.service.Batches(ctx)
	if err != nil {
		return fmt.Errorf("listing batches: %w", err)
	}
	if len(batches) == 0 {
		cmd.Println("No cached batches.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tRUNS\tCANDIDATES\tCREATED")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", b.BatchID, b.Runs, b.CandidateCount, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runBatchesClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	batchID := ""
	if len(args) > 0 {
		batchID = args[0]
	}

	removed, err := a.service.ClearBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("clearing batch: %w", err)
	}
	cmd.Printf("Removed %d cache entries.\n", removed)
	return nil
}

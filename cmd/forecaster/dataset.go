package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Export training windows from the aligned CSV",
	RunE:  runDataset,
}

var datasetSymbol string

func init() {
	datasetCmd.Flags().StringVar(&datasetSymbol, "symbol", "", "Ticker symbol (defaults to market.symbol)")
}

func runDataset(cmd *cobra.Command, _ []string) error {
	rt, err := buildRuntime(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	report, err := rt.workflows.BuildDataset(ctx, datasetSymbol)
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}

	cmd.Printf("%d examples from %d records written to %s\n", report.Examples, report.Records, report.Path)
	return nil
}

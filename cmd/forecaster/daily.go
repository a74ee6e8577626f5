package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MarketNewsForecaster/internal/domain"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Collect today's news and price bar",
	Long: `Fetches the newest timeline pages, keeps articles published today and
composes one aligned record with today's price bar. A snapshot is written
and the record is inserted when a database is configured.`,
	RunE: runDaily,
}

var (
	dailyKeys   []int
	dailySymbol string
)

func init() {
	dailyCmd.Flags().IntSliceVar(&dailyKeys, "keys", nil, "Timeline keys to scan (defaults to scheduler.dailyKeys)")
	dailyCmd.Flags().StringVar(&dailySymbol, "symbol", "", "Ticker symbol (defaults to market.symbol)")
}

func runDaily(cmd *cobra.Command, _ []string) error {
	rt, err := buildRuntime(loadConfig())
	if err != nil {
		return err
	}

	keys := rt.dailyKeys
	if len(dailyKeys) > 0 {
		keys = toKeys(dailyKeys)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	report, err := rt.workflows.Daily(ctx, dailySymbol, keys)
	if err != nil {
		return fmt.Errorf("daily run: %w", err)
	}

	cmd.Printf("%s %s: %d news, price=%t, persisted=%t\n",
		report.Symbol, report.Day.Format(domain.DateLayout), report.NewsCount, report.PriceOK, report.Persisted)
	if report.SnapshotPath != "" {
		cmd.Printf("snapshot: %s\n", report.SnapshotPath)
	}
	return nil
}

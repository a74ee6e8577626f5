package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MarketNewsForecaster/internal/domain"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Predict the next close from the latest window",
	Long: `Reads the latest aligned records, builds the feature window and prints
the predicted price as time,price_predict.`,
	RunE: runForecast,
}

var (
	forecastSymbol   string
	forecastSequence int
)

func init() {
	forecastCmd.Flags().StringVar(&forecastSymbol, "symbol", "", "Ticker symbol (defaults to market.symbol)")
	forecastCmd.Flags().IntVar(&forecastSequence, "sequence-length", 0, "Window length (overrides ml.sequenceLength)")
}

func runForecast(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if forecastSequence > 0 {
		cfg.ML.SequenceLength = forecastSequence
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	pred, err := rt.workflows.Forecast(ctx, forecastSymbol)
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	cmd.Println("time,price_predict")
	cmd.Printf("%s,%s\n", pred.ReferenceDate.Format(domain.DateLayout), pred.Rounded().StringFixed(2))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/aggregate"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <country>",
	Short: "Aggregate a country's classified records into USD category totals",
	Long: `Aggregate a country's classified records into per-category budget totals,
convert them to USD using the source currency's exchange rate, and merge the
result into the cross-country analysis artifact.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		country := args[0]

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		source, err := newRateSource()
		if err != nil {
			return err
		}

		aggregator := &aggregate.Aggregator{Rates: source}

		runID, err := e.runlog.Start(ctx, "analyze", country)
		if err != nil {
			return err
		}

		result, err := aggregator.Run(ctx, e.layout, country)
		if err != nil {
			_ = e.runlog.Fail(ctx, runID, err.Error())
			zap.L().Error("analyze failed", zap.String("country", country), zap.Error(err))
			return err
		}

		_ = e.runlog.Complete(ctx, runID, 0,
			fmt.Sprintf("%s rate %.6f -> %s", result.Currency, result.Rate, result.Path))
		fmt.Printf("Aggregated %s (%s, rate %.6f) into %s\n",
			result.Country, result.Currency, result.Rate, result.Path)
		for cat, total := range result.Totals {
			fmt.Printf("  %-16s %.2f USD\n", cat, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

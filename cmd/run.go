package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/aggregate"
	"github.com/andes-data/procura-cli/internal/classify"
	"github.com/andes-data/procura-cli/internal/normalize"
)

var runCmd = &cobra.Command{
	Use:   "run [countries...]",
	Short: "Run the normalize, classify, and analyze stages for each country",
	Long: `Run the full pipeline (normalize, classify, analyze) for each listed
country, defaulting to every country with a registered acquisition source.

A failure in one country is logged and does not stop the others. Use --fetch
to download fresh raw data first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		classifier, err := newClassifier()
		if err != nil {
			return err
		}
		rateSource, err := newRateSource()
		if err != nil {
			return err
		}

		scheduler := &classify.Scheduler{
			Classifier:  classifier,
			Concurrency: cfg.Classify.Concurrency,
		}
		aggregator := &aggregate.Aggregator{Rates: rateSource}

		countries := args
		if len(countries) == 0 {
			countries = newFetchRegistry().Names()
			sort.Strings(countries)
		}

		withFetch, _ := cmd.Flags().GetBool("fetch")

		failed := 0
		for _, country := range countries {
			if err := runCountry(ctx, e, scheduler, aggregator, country, withFetch, cmd); err != nil {
				zap.L().Error("pipeline failed for country",
					zap.String("country", country),
					zap.Error(err),
				)
				fmt.Printf("%-12s FAILED: %v\n", country, err)
				failed++
				continue
			}
			fmt.Printf("%-12s OK\n", country)
		}

		if failed == len(countries) {
			return fmt.Errorf("pipeline failed for all %d countries", failed)
		}
		return nil
	},
}

// runCountry executes the stages for one country, recording each in the run
// log. The first failing stage aborts the remaining stages for that country.
func runCountry(ctx context.Context, e *env, scheduler *classify.Scheduler, aggregator *aggregate.Aggregator, country string, withFetch bool, cmd *cobra.Command) error {
	if withFetch {
		source, err := newFetchRegistry().Lookup(country)
		if err != nil {
			return err
		}
		params, err := parseFetchParams(cmd)
		if err != nil {
			return err
		}
		runID, err := e.runlog.Start(ctx, "fetch", country)
		if err != nil {
			return err
		}
		status, err := source.Fetch(ctx, e.layout, params)
		if err != nil {
			_ = e.runlog.Fail(ctx, runID, err.Error())
			return err
		}
		_ = e.runlog.Complete(ctx, runID, int64(status.Count), status.Path)
	}

	mapping, err := normalize.LoadMapping(filepath.Join(cfg.Data.MappingsDir, country+".yaml"))
	if err != nil {
		return err
	}

	runID, err := e.runlog.Start(ctx, "normalize", country)
	if err != nil {
		return err
	}
	normResult, err := normalize.Run(e.layout, country, mapping)
	if err != nil {
		_ = e.runlog.Fail(ctx, runID, err.Error())
		return err
	}
	_ = e.runlog.Complete(ctx, runID, int64(normResult.Records), normResult.Path)

	runID, err = e.runlog.Start(ctx, "classify", country)
	if err != nil {
		return err
	}
	clsResult, err := scheduler.Run(ctx, e.layout, country)
	if err != nil {
		_ = e.runlog.Fail(ctx, runID, err.Error())
		return err
	}
	_ = e.runlog.Complete(ctx, runID, int64(clsResult.Records),
		fmt.Sprintf("%d/%d batches -> %s", clsResult.Completed, clsResult.Batches, clsResult.Path))

	runID, err = e.runlog.Start(ctx, "analyze", country)
	if err != nil {
		return err
	}
	aggResult, err := aggregator.Run(ctx, e.layout, country)
	if err != nil {
		_ = e.runlog.Fail(ctx, runID, err.Error())
		return err
	}
	_ = e.runlog.Complete(ctx, runID, 0,
		fmt.Sprintf("%s rate %.6f -> %s", aggResult.Currency, aggResult.Rate, aggResult.Path))

	return nil
}

func init() {
	runCmd.Flags().Bool("fetch", false, "download fresh raw data before processing")
	runCmd.Flags().Int("year", 0, "process year (Ecuador, Chile; with --fetch)")
	runCmd.Flags().String("search", "", "space-separated search keywords (with --fetch)")
	runCmd.Flags().String("buyer", "", "buyer name filter (Ecuador; with --fetch)")
	runCmd.Flags().String("supplier", "", "supplier name filter (Ecuador; with --fetch)")
	runCmd.Flags().String("from", "", "publication start date YYYY-MM-DD (Colombia; with --fetch)")
	runCmd.Flags().String("to", "", "publication end date YYYY-MM-DD (Colombia; with --fetch)")
	runCmd.Flags().String("modality", "", "contracting modality filter (Colombia; with --fetch)")
	runCmd.Flags().Bool("append", false, "append to the raw store instead of overwriting (with --fetch)")
	rootCmd.AddCommand(runCmd)
}

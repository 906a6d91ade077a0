package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <country>",
	Short: "Classify a country's normalized records into budget categories",
	Long: `Classify a country's normalized records into budget categories via Claude.

Records are partitioned into batches and dispatched concurrently; failed
batches are skipped and the run completes with whatever succeeded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		country := args[0]

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		classifier, err := newClassifier()
		if err != nil {
			return err
		}

		scheduler := &classify.Scheduler{
			Classifier:  classifier,
			Concurrency: cfg.Classify.Concurrency,
		}

		runID, err := e.runlog.Start(ctx, "classify", country)
		if err != nil {
			return err
		}

		result, err := scheduler.Run(ctx, e.layout, country)
		if err != nil {
			_ = e.runlog.Fail(ctx, runID, err.Error())
			zap.L().Error("classify failed", zap.String("country", country), zap.Error(err))
			return err
		}

		_ = e.runlog.Complete(ctx, runID, int64(result.Records),
			fmt.Sprintf("%d/%d batches -> %s", result.Completed, result.Batches, result.Path))
		fmt.Printf("Classified %d records in %d batches (%d skipped) to %s\n",
			result.Records, result.Batches, result.Skipped, result.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

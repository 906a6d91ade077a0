package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <country>",
	Short: "Reshape a country's raw records into the canonical schema",
	Long: `Reshape a country's raw JSONL records into the canonical schema.

The mapping specification defaults to <mappings_dir>/<country>.yaml and maps
each canonical field to a path expression into the raw record, a QUEMAR(...)
literal, or a raw value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		country := args[0]

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		mappingPath, _ := cmd.Flags().GetString("mapping")
		if mappingPath == "" {
			mappingPath = filepath.Join(cfg.Data.MappingsDir, country+".yaml")
		}

		mapping, err := normalize.LoadMapping(mappingPath)
		if err != nil {
			return err
		}

		runID, err := e.runlog.Start(ctx, "normalize", country)
		if err != nil {
			return err
		}

		result, err := normalize.Run(e.layout, country, mapping)
		if err != nil {
			_ = e.runlog.Fail(ctx, runID, err.Error())
			zap.L().Error("normalize failed", zap.String("country", country), zap.Error(err))
			return err
		}

		_ = e.runlog.Complete(ctx, runID, int64(result.Records), result.Path)
		fmt.Printf("Normalized %d records to %s\n", result.Records, result.Path)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().String("mapping", "", "path to the mapping specification (default <mappings_dir>/<country>.yaml)")
	rootCmd.AddCommand(normalizeCmd)
}

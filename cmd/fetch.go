package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <country>",
	Short: "Download raw procurement records for a country",
	Long: `Download raw procurement records into the raw JSONL store.

Each country has its own acquisition source: Ecuador (SERCOP API, paginated),
Colombia (SECOP II via datos.gov.co, date range + modality), Chile (yearly
Open Contracting bulk file, filtered by keywords).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		country := args[0]

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		params, err := parseFetchParams(cmd)
		if err != nil {
			return err
		}

		registry := newFetchRegistry()
		source, err := registry.Lookup(country)
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
			zap.L().Error("fetch failed", zap.String("country", country), zap.Error(err))
			return err
		}

		_ = e.runlog.Complete(ctx, runID, int64(status.Count), status.Path)
		fmt.Printf("Downloaded %d records to %s\n", status.Count, status.Path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("year", 0, "process year (Ecuador, Chile)")
	fetchCmd.Flags().String("search", "", "space-separated search keywords")
	fetchCmd.Flags().String("buyer", "", "buyer name filter (Ecuador)")
	fetchCmd.Flags().String("supplier", "", "supplier name filter (Ecuador)")
	fetchCmd.Flags().String("from", "", "publication start date YYYY-MM-DD (Colombia)")
	fetchCmd.Flags().String("to", "", "publication end date YYYY-MM-DD (Colombia)")
	fetchCmd.Flags().String("modality", "", "contracting modality filter (Colombia)")
	fetchCmd.Flags().Bool("append", false, "append to the raw store instead of overwriting")
	rootCmd.AddCommand(fetchCmd)
}

// parseFetchParams extracts fetch.Params from the cobra command flags.
func parseFetchParams(cmd *cobra.Command) (fetch.Params, error) {
	year, _ := cmd.Flags().GetInt("year")
	search, _ := cmd.Flags().GetString("search")
	buyer, _ := cmd.Flags().GetString("buyer")
	supplier, _ := cmd.Flags().GetString("supplier")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	modality, _ := cmd.Flags().GetString("modality")
	appendMode, _ := cmd.Flags().GetBool("append")

	return fetch.Params{
		Year:      year,
		Search:    strings.Fields(search),
		Buyer:     buyer,
		Supplier:  supplier,
		StartDate: from,
		EndDate:   to,
		Modality:  modality,
		Append:    appendMode,
	}, nil
}

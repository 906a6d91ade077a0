package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := e.runlog.List(ctx, limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Printf("%-20s %-10s %-10s %-9s %8s  %s\n",
			"STARTED", "OPERATION", "COUNTRY", "STATUS", "RECORDS", "MESSAGE")
		for _, entry := range entries {
			fmt.Printf("%-20s %-10s %-10s %-9s %8d  %s\n",
				entry.StartedAt.Local().Format(time.DateTime),
				entry.Operation, entry.Country, entry.Status, entry.Records, entry.Message)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list (0 for all)")
	rootCmd.AddCommand(runsCmd)
}

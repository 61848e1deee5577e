// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/pdiddy/stackpair/internal/inspect"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.parquet>",
	Short: "Summarize a pair table",
	Long: `Inspect queries a written pair table with DuckDB and prints its row
count, accepted-answer count, score range, index range and source dumps. It
also checks that the index column is dense.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := inspect.Summarize(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	inspect.Print(cmd.OutOrStdout(), s)
	return nil
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output the summary as JSON")
	rootCmd.AddCommand(inspectCmd)
}

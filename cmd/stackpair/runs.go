// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/stackpair/internal/ledger"
	"github.com/pdiddy/stackpair/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pairing runs",
	Long: `Runs lists the most recent entries of the run ledger in
<out-dir>/stackpair.db, newest first.`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	store, err := ledger.Open(viper.GetString(keyOutDir))
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []types.Run, jsonOutput bool) error {
	if jsonOutput {
		if runs == nil {
			runs = []types.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-20s  %-6s  %8s  %8s  %8s  %s\n",
		"Finished", "Dataset", "Status", "Rows", "Answers", "Skipped", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range runs {
		name := r.Key.Dataset
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-20s  %-6s  %8d  %8d  %8d  %s\n",
			r.FinishedAt.Local().Format(time.DateTime), name, r.Status,
			r.Summary.Rows, r.Summary.Answers, r.Summary.Skipped+r.Summary.Failed, r.Error)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")
	rootCmd.AddCommand(runsCmd)
}

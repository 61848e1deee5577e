// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/stackpair/internal/ledger"
	"github.com/pdiddy/stackpair/internal/pairer"
	"github.com/pdiddy/stackpair/pkg/types"
)

// postsFile is the dump file looked up inside each dataset directory.
const postsFile = "Posts.xml"

var pairCmd = &cobra.Command{
	Use:   "pair [dataset...]",
	Short: "Extract question/answer pairs from Posts.xml dumps",
	Long: `Pair reads <dumps-dir>/<dataset>/Posts.xml for each named dataset and
writes <out-dir>/<dataset>/<dataset>.parquet plus config.yaml. With no
dataset names, every directory under --dumps-dir that holds a Posts.xml is
processed. Use --xml to pair a single file from anywhere.

Answers are kept when their score is at least --min-score and their parent
question appears earlier in the file. --max-responses keeps only the
highest scoring answers per question.

A failing dataset is reported and the remaining datasets still run.`,
	RunE: runPair,
}

func runPair(cmd *cobra.Command, args []string) error {
	cfg, err := pairConfig()
	if err != nil {
		return err
	}

	datasets, err := resolveDatasets(cmd, args)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		return fmt.Errorf("no datasets found in %s: name one or pass --xml", viper.GetString(keyDumpsDir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runs, err := ledger.Open(viper.GetString(keyOutDir))
	if err != nil {
		return err
	}
	defer runs.Close()

	force, _ := cmd.Flags().GetBool("force")
	summary, err := pairer.ProcessAll(ctx, cfg, datasets, runs, force, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\npaired: %d, skipped: %d, failed: %d\n",
		summary.Paired, summary.Skipped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d dataset(s) failed", summary.Failed, summary.Total())
	}
	return nil
}

// pairConfig reads the pairing settings from viper, which merges flags,
// STACKPAIR_ env vars and the config file.
func pairConfig() (types.PairConfig, error) {
	cfg := types.PairConfig{
		MinScore:     viper.GetInt(keyMinScore),
		MaxResponses: viper.GetInt(keyMaxResponses),
		Workers:      viper.GetInt(keyWorkers),
		Table:        types.TableBackend(viper.GetString(keyTable)),
		Compression:  types.Compression(viper.GetString(keyCompression)),
	}

	switch cfg.Table {
	case types.TableMemory, types.TableSQLite:
	default:
		return cfg, fmt.Errorf("unsupported table %q: use memory or sqlite", cfg.Table)
	}
	switch cfg.Compression {
	case types.CompressionSnappy, types.CompressionZstd, types.CompressionNone:
	default:
		return cfg, fmt.Errorf("unsupported compression %q: use snappy, zstd or none", cfg.Compression)
	}
	if cfg.MaxResponses < 0 {
		return cfg, fmt.Errorf("--max-responses must not be negative")
	}
	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("--workers must not be negative")
	}
	return cfg, nil
}

func resolveDatasets(cmd *cobra.Command, args []string) ([]types.DatasetConfig, error) {
	dumpsDir := viper.GetString(keyDumpsDir)
	outDir := viper.GetString(keyOutDir)

	xmlPath, _ := cmd.Flags().GetString("xml")
	if xmlPath != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--xml cannot be combined with dataset names")
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = filepath.Base(filepath.Dir(xmlPath))
		}
		return []types.DatasetConfig{dataset(name, xmlPath, outDir)}, nil
	}

	names := args
	if len(names) == 0 {
		found, err := discoverDatasets(dumpsDir)
		if err != nil {
			return nil, err
		}
		names = found
	}

	datasets := make([]types.DatasetConfig, 0, len(names))
	for _, name := range names {
		datasets = append(datasets, dataset(name, filepath.Join(dumpsDir, name, postsFile), outDir))
	}
	return datasets, nil
}

func dataset(name, xmlPath, outDir string) types.DatasetConfig {
	return types.DatasetConfig{
		Name:    name,
		XMLPath: xmlPath,
		OutDir:  filepath.Join(outDir, name),
	}
}

// discoverDatasets lists the subdirectories of dumpsDir that contain a
// Posts.xml, sorted by name.
func discoverDatasets(dumpsDir string) ([]string, error) {
	entries, err := os.ReadDir(dumpsDir)
	if err != nil {
		return nil, fmt.Errorf("reading dumps directory %s: %w", dumpsDir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dumpsDir, e.Name(), postsFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func init() {
	pairCmd.Flags().Int("min-score", 0, "minimum answer score to keep")
	pairCmd.Flags().Int("max-responses", 0, "keep at most this many answers per question, best score first (0 = all)")
	pairCmd.Flags().Int("workers", 0, "number of render workers (0 = number of CPUs)")
	pairCmd.Flags().String("dumps-dir", "dumps", "directory holding <dataset>/Posts.xml")
	pairCmd.Flags().String("table", string(types.TableMemory), "question table backend: memory or sqlite")
	pairCmd.Flags().String("compression", string(types.CompressionSnappy), "parquet compression: snappy, zstd or none")
	pairCmd.Flags().Bool("force", false, "pair datasets even if unchanged since their last successful run")
	pairCmd.Flags().String("xml", "", "pair a single Posts.xml file instead of named datasets")
	pairCmd.Flags().String("name", "", "dataset name for --xml (default: the file's parent directory)")

	for key, flag := range map[string]string{
		keyMinScore:     "min-score",
		keyMaxResponses: "max-responses",
		keyWorkers:      "workers",
		keyDumpsDir:     "dumps-dir",
		keyTable:        "table",
		keyCompression:  "compression",
	} {
		viper.BindPFlag(key, pairCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(pairCmd)
}

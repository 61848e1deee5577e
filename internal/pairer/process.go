// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pairer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pdiddy/stackpair/internal/columns"
	"github.com/pdiddy/stackpair/internal/qtable"
	"github.com/pdiddy/stackpair/pkg/types"
)

// readBufferSize is the read buffer in front of the XML decoder.
const readBufferSize = 1 << 20

// RunLog records finished runs so unchanged inputs can be skipped.
// Implemented by the run ledger; tests supply a fake.
type RunLog interface {
	Unchanged(ctx context.Context, key types.RunKey) (bool, error)
	Record(ctx context.Context, run types.Run) error
}

// BatchSummary holds counts from a multi-dataset run.
type BatchSummary struct {
	Paired  int
	Skipped int
	Failed  int
}

// Total returns the number of datasets processed.
func (s BatchSummary) Total() int {
	return s.Paired + s.Skipped + s.Failed
}

// HasFailures reports whether any dataset failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Result describes one completed dataset.
type Result struct {
	Summary types.RunSummary
	Paths   columns.Paths
}

// Process pairs one dump and writes its table and manifest to ds.OutDir.
// Any error means no valid output was produced for this dataset.
func Process(ctx context.Context, cfg types.PairConfig, ds types.DatasetConfig, w io.Writer) (Result, error) {
	if w == nil {
		w = io.Discard
	}

	f, err := os.Open(ds.XMLPath)
	if err != nil {
		return Result{}, discard(ds, fmt.Errorf("opening dump: %w", err))
	}
	defer f.Close()

	if err := os.MkdirAll(ds.OutDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	table, err := qtable.Open(cfg.Table, ds.OutDir)
	if err != nil {
		return Result{}, discard(ds, err)
	}
	defer table.Close()

	p := New(cfg, table, ds.XMLPath, w)
	cols := columns.New(ds.XMLPath)

	summary, err := p.Run(ctx, bufio.NewReaderSize(f, readBufferSize), cols.Append)
	if err != nil {
		cols.Reset()
		return Result{Summary: summary}, discard(ds, fmt.Errorf("pairing %s: %w", ds.XMLPath, err))
	}

	fmt.Fprintf(w, "paired %s: %d rows from %d records (%d answers, %d unmatched, %d filtered, %d trimmed, %d skipped)\n",
		ds.Name, summary.Rows, summary.Total(), summary.Answers, summary.Unmatched, summary.Filtered, summary.Trimmed, summary.Skipped+summary.Failed)

	paths, err := cols.Flush(ds.OutDir, ds.Name, columns.Options{Compression: cfg.Compression, Log: w})
	if err != nil {
		return Result{Summary: summary}, discard(ds, fmt.Errorf("writing %s: %w", ds.Name, err))
	}
	return Result{Summary: summary, Paths: paths}, nil
}

// ProcessAll pairs each dataset in turn. A failing dataset is reported and
// the batch moves on to the next one. With a RunLog, datasets whose input
// and settings match an earlier successful run are skipped unless force
// is set.
func ProcessAll(ctx context.Context, cfg types.PairConfig, datasets []types.DatasetConfig, runs RunLog, force bool, w io.Writer) (BatchSummary, error) {
	if w == nil {
		w = io.Discard
	}

	var summary BatchSummary
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		key, err := runKey(cfg, ds)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", ds.Name, err)
			summary.Failed++
			continue
		}

		if runs != nil && !force {
			unchanged, err := runs.Unchanged(ctx, key)
			if err != nil {
				fmt.Fprintf(w, "warning: ledger lookup for %s: %v\n", ds.Name, err)
			} else if unchanged {
				fmt.Fprintf(w, "skipped %s (unchanged)\n", ds.Name)
				summary.Skipped++
				continue
			}
		}

		fmt.Fprintf(w, "pairing %s\n", ds.Name)
		run := types.Run{Key: key, StartedAt: time.Now().UTC()}

		res, err := Process(ctx, cfg, ds, w)
		run.FinishedAt = time.Now().UTC()
		run.Summary = res.Summary
		run.TablePath = res.Paths.Table
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", ds.Name, err)
			run.Status = types.RunFailed
			run.Error = err.Error()
			summary.Failed++
		} else {
			run.Status = types.RunOK
			summary.Paired++
		}

		if runs != nil {
			if err := runs.Record(ctx, run); err != nil {
				fmt.Fprintf(w, "warning: recording run for %s: %v\n", ds.Name, err)
			}
		}
	}
	return summary, nil
}

// discard removes the table an earlier run left in ds.OutDir so a failed
// run never leaves a table that looks like its output.
func discard(ds types.DatasetConfig, err error) error {
	if rmErr := columns.RemoveTable(ds.OutDir, ds.Name); rmErr != nil {
		return errors.Join(err, rmErr)
	}
	return err
}

func runKey(cfg types.PairConfig, ds types.DatasetConfig) (types.RunKey, error) {
	info, err := os.Stat(ds.XMLPath)
	if err != nil {
		return types.RunKey{}, fmt.Errorf("reading dump: %w", err)
	}
	return types.RunKey{
		Dataset:      ds.Name,
		XMLPath:      ds.XMLPath,
		XMLSize:      info.Size(),
		XMLModTime:   info.ModTime().UTC(),
		MinScore:     cfg.MinScore,
		MaxResponses: cfg.MaxResponses,
	}, nil
}

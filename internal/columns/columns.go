// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package columns buffers pairs column by column and writes them as a
// Parquet table plus a config.yaml manifest naming the source dumps.
package columns

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/stackpair/pkg/types"
)

// ManifestFile is the name of the sidecar written next to the table.
const ManifestFile = "config.yaml"

// batchSize is the number of rows handed to the Parquet writer at once.
const batchSize = 4096

// Row is the on-disk schema. Field order is column order.
type Row struct {
	Index         int64  `parquet:"index"`
	QuestionIndex int64  `parquet:"question_index"`
	Question      string `parquet:"question"`
	Answer        string `parquet:"answer"`
	Score         int64  `parquet:"score"`
	IsAccepted    bool   `parquet:"is_accepted"`
	XMLPath       string `parquet:"xml_path"`
}

// Writer accumulates pairs in column buffers. It is not safe for
// concurrent use: only the collecting goroutine may call Append.
type Writer struct {
	sources []string

	index         []int64
	questionIndex []int64
	question      []string
	answer        []string
	score         []int64
	isAccepted    []bool
	xmlPath       []string
}

// New returns an empty writer for pairs extracted from the given dumps.
func New(sources ...string) *Writer {
	return &Writer{sources: sources}
}

// Append adds p as the next row. The row index is the current length, so
// indexes form a dense range in append order regardless of p.Index.
func (w *Writer) Append(p types.Pair) {
	w.index = append(w.index, int64(len(w.index)))
	w.questionIndex = append(w.questionIndex, p.QuestionIndex)
	w.question = append(w.question, p.Question)
	w.answer = append(w.answer, p.Answer)
	w.score = append(w.score, p.Score)
	w.isAccepted = append(w.isAccepted, p.IsAccepted)
	w.xmlPath = append(w.xmlPath, p.XMLPath)
}

// Len returns the number of buffered rows.
func (w *Writer) Len() int {
	return len(w.index)
}

// Reset discards all buffered rows.
func (w *Writer) Reset() {
	w.index = nil
	w.questionIndex = nil
	w.question = nil
	w.answer = nil
	w.score = nil
	w.isAccepted = nil
	w.xmlPath = nil
}

// row assembles buffered row i.
func (w *Writer) row(i int) Row {
	return Row{
		Index:         w.index[i],
		QuestionIndex: w.questionIndex[i],
		Question:      w.question[i],
		Answer:        w.answer[i],
		Score:         w.score[i],
		IsAccepted:    w.isAccepted[i],
		XMLPath:       w.xmlPath[i],
	}
}

// Options control Flush.
type Options struct {
	// Compression selects the page codec (default snappy).
	Compression types.Compression

	// Log receives progress and warning lines. Nil discards them.
	Log io.Writer
}

// Paths lists the files written by Flush. Table is empty when there were
// no rows to write.
type Paths struct {
	Table    string `json:"table,omitempty" yaml:"table,omitempty"`
	Manifest string `json:"manifest" yaml:"manifest"`
}

// Flush writes <outDir>/<name>.parquet and <outDir>/config.yaml. With no
// buffered rows any earlier table is removed, a warning is logged and only
// the manifest is written. An error leaves no table behind. The buffers are
// discarded whether or not Flush succeeds.
func (w *Writer) Flush(outDir, name string, opts Options) (Paths, error) {
	defer w.Reset()

	log := opts.Log
	if log == nil {
		log = io.Discard
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating output directory: %w", err)
	}

	var paths Paths
	tablePath := TablePath(outDir, name)
	if w.Len() == 0 {
		if err := RemoveTable(outDir, name); err != nil {
			return Paths{}, err
		}
		fmt.Fprintf(log, "warning: %s has no rows, table not written\n", name)
	} else {
		if err := w.writeTable(tablePath, opts.Compression); err != nil {
			return Paths{}, err
		}
		fmt.Fprintf(log, "wrote %s (%d rows)\n", tablePath, w.Len())
		paths.Table = tablePath
	}

	manifestPath := filepath.Join(outDir, ManifestFile)
	if err := writeManifest(manifestPath, w.sources); err != nil {
		if paths.Table != "" {
			os.Remove(paths.Table)
		}
		return Paths{}, err
	}
	fmt.Fprintf(log, "wrote %s\n", manifestPath)
	paths.Manifest = manifestPath
	return paths, nil
}

// writeTable writes the buffered rows to a temporary file next to path and
// renames it into place, so a failed write never leaves a partial table.
func (w *Writer) writeTable(path string, compression types.Compression) (err error) {
	codec, err := codecFor(compression)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary table: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	pw := parquet.NewGenericWriter[Row](tmp, parquet.Compression(codec))
	batch := make([]Row, 0, batchSize)
	for i := 0; i < w.Len(); i++ {
		batch = append(batch, w.row(i))
		if len(batch) == batchSize {
			if _, err := pw.Write(batch); err != nil {
				return fmt.Errorf("writing rows: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("writing rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("finishing parquet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving table into place: %w", err)
	}
	return nil
}

// TablePath returns where Flush writes the table for name.
func TablePath(outDir, name string) string {
	return filepath.Join(outDir, name+".parquet")
}

// RemoveTable deletes the table for name left by an earlier run, if any.
func RemoveTable(outDir, name string) error {
	if err := os.Remove(TablePath(outDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing previous table: %w", err)
	}
	return nil
}

func codecFor(c types.Compression) (compress.Codec, error) {
	switch c {
	case "", types.CompressionSnappy:
		return &parquet.Snappy, nil
	case types.CompressionZstd:
		return &parquet.Zstd, nil
	case types.CompressionNone:
		return &parquet.Uncompressed, nil
	}
	return nil, fmt.Errorf("unsupported compression %q: use snappy, zstd or none", c)
}

func writeManifest(path string, sources []string) error {
	if sources == nil {
		sources = []string{}
	}
	data, err := yaml.Marshal(&types.Manifest{XMLPaths: sources})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by Flush.
func ReadManifest(path string) (types.Manifest, error) {
	var m types.Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// ReadTable loads every row of a table written by Flush.
func ReadTable(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	return rows, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records pairing runs in a SQLite database so that a
// batch can skip dumps whose input and settings have not changed since
// their last successful run.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/stackpair/pkg/types"
)

// DBFile is the ledger's file name inside the output directory.
const DBFile = "stackpair.db"

// defaultLimit caps Recent when no limit is given.
const defaultLimit = 20

// timeLayout has a fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the run ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at outDir/stackpair.db.
func Open(outDir string) (*Store, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(outDir, DBFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			dataset TEXT NOT NULL,
			xml_path TEXT NOT NULL,
			xml_size INTEGER NOT NULL,
			xml_mod_time TEXT NOT NULL,
			min_score INTEGER NOT NULL,
			max_responses INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			table_path TEXT,
			summary TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset, finished_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished run. A run without an ID is given a new one.
func (s *Store) Record(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, xml_path, xml_size, xml_mod_time, min_score, max_responses,
			status, error, table_path, summary, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Key.Dataset, run.Key.XMLPath, run.Key.XMLSize, formatTime(run.Key.XMLModTime),
		run.Key.MinScore, run.Key.MaxResponses,
		string(run.Status), run.Error, run.TablePath, string(summaryJSON),
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// Unchanged reports whether the latest run for key.Dataset succeeded with
// the same input file, size, modification time and filter settings, and
// its table is still on disk.
func (s *Store) Unchanged(ctx context.Context, key types.RunKey) (bool, error) {
	var (
		xmlPath, modTime, status string
		size                     int64
		minScore, maxResponses   int
		tablePath                sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT xml_path, xml_size, xml_mod_time, min_score, max_responses, status, table_path
		 FROM runs WHERE dataset = ? ORDER BY finished_at DESC, rowid DESC LIMIT 1`, key.Dataset,
	).Scan(&xmlPath, &size, &modTime, &minScore, &maxResponses, &status, &tablePath)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying last run of %s: %w", key.Dataset, err)
	}

	if status != string(types.RunOK) ||
		xmlPath != key.XMLPath ||
		size != key.XMLSize ||
		modTime != formatTime(key.XMLModTime) ||
		minScore != key.MinScore ||
		maxResponses != key.MaxResponses {
		return false, nil
	}
	if tablePath.String != "" {
		if _, err := os.Stat(tablePath.String); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// Recent returns the most recent runs, newest first. limit <= 0 uses a
// default of 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, xml_path, xml_size, xml_mod_time, min_score, max_responses,
			status, error, table_path, summary, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var (
			run                         types.Run
			modTime, started, finished  string
			status                      string
			errText, tablePath, summary sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Key.Dataset, &run.Key.XMLPath, &run.Key.XMLSize, &modTime,
			&run.Key.MinScore, &run.Key.MaxResponses,
			&status, &errText, &tablePath, &summary, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Status = types.RunStatus(status)
		run.Error = errText.String
		run.TablePath = tablePath.String
		run.Key.XMLModTime = parseTime(modTime)
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		if summary.String != "" {
			if err := json.Unmarshal([]byte(summary.String), &run.Summary); err != nil {
				return nil, fmt.Errorf("decoding summary of run %s: %w", run.ID, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

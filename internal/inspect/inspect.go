// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inspect summarizes a written pair table with DuckDB.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Summary describes the contents of one table.
type Summary struct {
	Path            string   `json:"path" yaml:"path"`
	Rows            int64    `json:"rows" yaml:"rows"`
	QuestionIndexes int64    `json:"question_indexes" yaml:"question_indexes"`
	Accepted        int64    `json:"accepted" yaml:"accepted"`
	MinScore        int64    `json:"min_score" yaml:"min_score"`
	AvgScore        float64  `json:"avg_score" yaml:"avg_score"`
	MaxScore        int64    `json:"max_score" yaml:"max_score"`
	MinIndex        int64    `json:"min_index" yaml:"min_index"`
	MaxIndex        int64    `json:"max_index" yaml:"max_index"`
	DenseIndex      bool     `json:"dense_index" yaml:"dense_index"`
	XMLPaths        []string `json:"xml_paths" yaml:"xml_paths"`
}

// Summarize reads the Parquet table at path and computes its summary.
func Summarize(ctx context.Context, path string) (Summary, error) {
	if _, err := os.Stat(path); err != nil {
		return Summary{}, fmt.Errorf("reading table: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return Summary{}, fmt.Errorf("opening duckdb: %w", err)
	}
	defer db.Close()

	src := fmt.Sprintf("read_parquet(%s)", quote(path))
	s := Summary{Path: path}

	var (
		distinctIndex      int64
		minScore, maxScore sql.NullInt64
		minIndex, maxIndex sql.NullInt64
		avgScore           sql.NullFloat64
	)
	err = db.QueryRowContext(ctx, `SELECT
			count(*),
			count(DISTINCT question_index),
			count(*) FILTER (WHERE is_accepted),
			min(score), avg(score), max(score),
			min("index"), max("index"), count(DISTINCT "index")
		FROM `+src,
	).Scan(&s.Rows, &s.QuestionIndexes, &s.Accepted,
		&minScore, &avgScore, &maxScore,
		&minIndex, &maxIndex, &distinctIndex)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing %s: %w", path, err)
	}

	s.MinScore, s.MaxScore = minScore.Int64, maxScore.Int64
	s.AvgScore = avgScore.Float64
	s.MinIndex, s.MaxIndex = minIndex.Int64, maxIndex.Int64
	s.DenseIndex = s.Rows == 0 ||
		(s.MinIndex == 0 && s.MaxIndex == s.Rows-1 && distinctIndex == s.Rows)

	rows, err := db.QueryContext(ctx, `SELECT DISTINCT xml_path FROM `+src+` ORDER BY xml_path`)
	if err != nil {
		return Summary{}, fmt.Errorf("listing sources of %s: %w", path, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return Summary{}, fmt.Errorf("scanning source: %w", err)
		}
		s.XMLPaths = append(s.XMLPaths, p)
	}
	return s, rows.Err()
}

// Print writes s as aligned key: value lines.
func Print(w io.Writer, s Summary) {
	fmt.Fprintf(w, "table:       %s\n", s.Path)
	fmt.Fprintf(w, "rows:        %d\n", s.Rows)
	fmt.Fprintf(w, "q. indexes:  %d\n", s.QuestionIndexes)
	fmt.Fprintf(w, "accepted:    %d\n", s.Accepted)
	fmt.Fprintf(w, "score:       min %d, avg %.2f, max %d\n", s.MinScore, s.AvgScore, s.MaxScore)
	fmt.Fprintf(w, "index:       %d..%d (dense: %t)\n", s.MinIndex, s.MaxIndex, s.DenseIndex)
	for _, p := range s.XMLPaths {
		fmt.Fprintf(w, "source:      %s\n", p)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

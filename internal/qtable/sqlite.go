// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qtable

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/stackpair/pkg/types"
)

const sqliteFile = "questions.db"

// SQLite is a Table stored in a throwaway SQLite database. It keeps memory
// flat on dumps whose question set is too large to hold in a map. The file
// is removed on Close.
type SQLite struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	insert *sql.Stmt
	lookup *sql.Stmt
	n      int
}

// NewSQLite creates a fresh table at path, replacing any file left by an
// earlier run.
func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating table directory: %w", err)
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing stale table %s: %w", p, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("opening question table: %w", err)
	}
	db.SetMaxOpenConns(1)

	t := &SQLite{db: db, path: path}
	if err := t.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *SQLite) prepare() error {
	if _, err := t.db.Exec(`CREATE TABLE questions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		accepted_answer_id TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating question schema: %w", err)
	}

	var err error
	t.insert, err = t.db.Prepare(`INSERT OR REPLACE INTO questions (id, title, body, accepted_answer_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	t.lookup, err = t.db.Prepare(`SELECT title, body, accepted_answer_id FROM questions WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing lookup: %w", err)
	}
	return nil
}

func (t *SQLite) Insert(q types.Question) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, found, err := t.get(q.ID)
	if err != nil {
		return err
	}
	if _, err := t.insert.Exec(q.ID, q.Title, q.Body, q.AcceptedAnswerID); err != nil {
		return fmt.Errorf("inserting question %s: %w", q.ID, err)
	}
	if !found {
		t.n++
	}
	return nil
}

func (t *SQLite) Lookup(id string) (types.Question, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.get(id)
}

func (t *SQLite) get(id string) (types.Question, bool, error) {
	q := types.Question{ID: id}
	err := t.lookup.QueryRow(id).Scan(&q.Title, &q.Body, &q.AcceptedAnswerID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Question{}, false, nil
	}
	if err != nil {
		return types.Question{}, false, fmt.Errorf("looking up question %s: %w", id, err)
	}
	return q, true, nil
}

func (t *SQLite) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.n
}

// Close closes the database and deletes its files.
func (t *SQLite) Close() error {
	t.insert.Close()
	t.lookup.Close()
	err := t.db.Close()
	for _, p := range []string{t.path, t.path + "-wal", t.path + "-shm"} {
		os.Remove(p)
	}
	return err
}

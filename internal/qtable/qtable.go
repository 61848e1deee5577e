// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package qtable holds the question lookup table that answers are joined
// against. The table only grows during a run: Insert is an upsert (last
// write wins) and there is no removal. Implementations serialize inserts
// against lookups so a lookup never sees a half-written entry.
package qtable

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pdiddy/stackpair/pkg/types"
)

// Table maps question ids to the question fields needed by the join.
type Table interface {
	// Insert stores q under q.ID, replacing any earlier entry.
	Insert(q types.Question) error

	// Lookup returns the question stored under id.
	Lookup(id string) (types.Question, bool, error)

	// Len returns the number of distinct ids stored.
	Len() int

	// Close releases resources held by the table.
	Close() error
}

// Open returns the table for backend. The SQLite backend stores its file
// in dir.
func Open(backend types.TableBackend, dir string) (Table, error) {
	switch backend {
	case "", types.TableMemory:
		return NewMemory(), nil
	case types.TableSQLite:
		return NewSQLite(filepath.Join(dir, sqliteFile))
	default:
		return nil, fmt.Errorf("unsupported table backend %q: use memory or sqlite", backend)
	}
}

// Memory is a Table backed by a Go map.
type Memory struct {
	mu        sync.RWMutex
	questions map[string]types.Question
}

// NewMemory returns an empty in-memory table.
func NewMemory() *Memory {
	return &Memory{questions: make(map[string]types.Question)}
}

func (m *Memory) Insert(q types.Question) error {
	m.mu.Lock()
	m.questions[q.ID] = q
	m.mu.Unlock()
	return nil
}

func (m *Memory) Lookup(id string) (types.Question, bool, error) {
	m.mu.RLock()
	q, ok := m.questions[id]
	m.mu.RUnlock()
	return q, ok, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.questions)
}

func (m *Memory) Close() error { return nil }

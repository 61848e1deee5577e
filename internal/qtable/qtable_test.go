// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qtable

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/stackpair/pkg/types"
)

// backends returns one fresh table per implementation.
func backends(t *testing.T) map[string]Table {
	t.Helper()
	sq, err := NewSQLite(filepath.Join(t.TempDir(), sqliteFile))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Table{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestTable_InsertLookup(t *testing.T) {
	for name, tbl := range backends(t) {
		t.Run(name, func(t *testing.T) {
			q := types.Question{ID: "1", Title: "T", Body: "<p>B</p>", AcceptedAnswerID: "10"}
			require.NoError(t, tbl.Insert(q))

			got, ok, err := tbl.Lookup("1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, q, got)

			_, ok, err = tbl.Lookup("2")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, 1, tbl.Len())
		})
	}
}

func TestTable_LastWriteWins(t *testing.T) {
	for name, tbl := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tbl.Insert(types.Question{ID: "7", Title: "old"}))
			require.NoError(t, tbl.Insert(types.Question{ID: "7", Title: "new", AcceptedAnswerID: "9"}))

			got, ok, err := tbl.Lookup("7")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "new", got.Title)
			assert.Equal(t, "9", got.AcceptedAnswerID)
			assert.Equal(t, 1, tbl.Len())
		})
	}
}

func TestTable_AbsentFieldsRoundTrip(t *testing.T) {
	for name, tbl := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tbl.Insert(types.Question{ID: "x"}))
			got, ok, err := tbl.Lookup("x")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, types.Question{ID: "x"}, got)
		})
	}
}

func TestTable_ConcurrentReadersSingleWriter(t *testing.T) {
	for name, tbl := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const n = 200
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < n; i++ {
					assert.NoError(t, tbl.Insert(types.Question{ID: fmt.Sprint(i), Title: fmt.Sprint("t", i)}))
				}
			}()
			for r := 0; r < 4; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < n; i++ {
						q, ok, err := tbl.Lookup(fmt.Sprint(i))
						assert.NoError(t, err)
						if ok {
							assert.Equal(t, fmt.Sprint("t", i), q.Title)
						}
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, n, tbl.Len())
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	mem, err := Open("", dir)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, mem)

	sq, err := Open(types.TableSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, sq)
	assert.FileExists(t, filepath.Join(dir, sqliteFile))
	require.NoError(t, sq.Close())
	_, statErr := os.Stat(filepath.Join(dir, sqliteFile))
	assert.True(t, os.IsNotExist(statErr), "table file removed on close")

	_, err = Open("redis", dir)
	assert.Error(t, err)
}

func TestNewSQLite_ReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), sqliteFile)
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	tbl, err := NewSQLite(path)
	require.NoError(t, err)
	defer tbl.Close()
	assert.Equal(t, 0, tbl.Len())
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/stackpair/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func testKey(name string) types.RunKey {
	return types.RunKey{
		Dataset:      name,
		XMLPath:      "dumps/" + name + "/Posts.xml",
		XMLSize:      1024,
		XMLModTime:   time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		MinScore:     3,
		MaxResponses: 0,
	}
}

func testRun(key types.RunKey, status types.RunStatus, finished time.Time) types.Run {
	return types.Run{
		Key:        key,
		Status:     status,
		Summary:    types.RunSummary{Rows: 7, Questions: 4, Answers: 9, Matched: 7, Unmatched: 2},
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: finished,
	}
}

// --- tests ---

func TestOpen_CreatesDatabase(t *testing.T) {
	_, dir := testStore(t)
	assert.FileExists(t, filepath.Join(dir, DBFile))
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), testRun(testKey("a"), types.RunOK, time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecord_RoundTrip(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	finished := time.Date(2026, 3, 2, 8, 30, 0, 5, time.UTC)

	run := testRun(testKey("cooking"), types.RunFailed, finished)
	run.Error = "pairing: unexpected EOF"
	run.TablePath = "out/cooking/cooking.parquet"
	require.NoError(t, s.Record(ctx, run))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, run.Key, got.Key)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, types.RunFailed, got.Status)
	assert.Equal(t, run.Error, got.Error)
	assert.Equal(t, run.TablePath, got.TablePath)
	assert.True(t, finished.Equal(got.FinishedAt))
}

func TestRecord_KeepsGivenID(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	run := testRun(testKey("a"), types.RunOK, time.Now())
	run.ID = "fixed-id"
	require.NoError(t, s.Record(ctx, run))

	runs, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "fixed-id", runs[0].ID)

	assert.Error(t, s.Record(ctx, run), "ids are unique")
}

func TestRecent_NewestFirstAndLimit(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Record(ctx, testRun(testKey(name), types.RunOK, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "d", runs[0].Key.Dataset)
	assert.Equal(t, "c", runs[1].Key.Dataset)
}

func TestUnchanged(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status types.RunStatus
		alter  func(*types.RunKey)
		want   bool
	}{
		{"same input", types.RunOK, func(*types.RunKey) {}, true},
		{"last run failed", types.RunFailed, func(*types.RunKey) {}, false},
		{"size changed", types.RunOK, func(k *types.RunKey) { k.XMLSize++ }, false},
		{"mod time changed", types.RunOK, func(k *types.RunKey) { k.XMLModTime = k.XMLModTime.Add(time.Nanosecond) }, false},
		{"min score changed", types.RunOK, func(k *types.RunKey) { k.MinScore = 0 }, false},
		{"max responses changed", types.RunOK, func(k *types.RunKey) { k.MaxResponses = 1 }, false},
		{"path changed", types.RunOK, func(k *types.RunKey) { k.XMLPath = "elsewhere.xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testStore(t)
			key := testKey("ds")
			require.NoError(t, s.Record(ctx, testRun(key, tt.status, base)))

			probe := key
			tt.alter(&probe)
			got, err := s.Unchanged(ctx, probe)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnchanged_UsesLatestRun(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	key := testKey("ds")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, testRun(key, types.RunOK, base)))
	require.NoError(t, s.Record(ctx, testRun(key, types.RunFailed, base.Add(time.Hour))))

	got, err := s.Unchanged(ctx, key)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUnchanged_NoHistory(t *testing.T) {
	s, _ := testStore(t)
	got, err := s.Unchanged(context.Background(), testKey("never"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUnchanged_TableRemoved(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	table := filepath.Join(dir, "ds.parquet")
	require.NoError(t, os.WriteFile(table, []byte("PAR1"), 0o644))

	run := testRun(testKey("ds"), types.RunOK, time.Now())
	run.TablePath = table
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Unchanged(ctx, run.Key)
	require.NoError(t, err)
	assert.True(t, got)

	require.NoError(t, os.Remove(table))
	got, err = s.Unchanged(ctx, run.Key)
	require.NoError(t, err)
	assert.False(t, got)
}

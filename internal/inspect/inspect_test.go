// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inspect

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/stackpair/internal/columns"
	"github.com/pdiddy/stackpair/pkg/types"
)

func writeTable(t *testing.T, pairs []types.Pair) string {
	t.Helper()
	w := columns.New("dumps/x/Posts.xml")
	for _, p := range pairs {
		w.Append(p)
	}
	paths, err := w.Flush(t.TempDir(), "x", columns.Options{})
	require.NoError(t, err)
	return paths.Table
}

func TestSummarize(t *testing.T) {
	path := writeTable(t, []types.Pair{
		{QuestionIndex: 0, Question: "T\n\n", Answer: "a", Score: 5, IsAccepted: true, XMLPath: "dumps/x/Posts.xml"},
		{QuestionIndex: 2, Question: "T\n\n", Answer: "b", Score: -1, XMLPath: "dumps/x/Posts.xml"},
		{QuestionIndex: 3, Question: "U\n\n", Answer: "c", Score: 2, XMLPath: "dumps/y/Posts.xml"},
	})

	s, err := Summarize(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, s.Path)
	assert.Equal(t, int64(3), s.Rows)
	assert.Equal(t, int64(3), s.QuestionIndexes)
	assert.Equal(t, int64(1), s.Accepted)
	assert.Equal(t, int64(-1), s.MinScore)
	assert.Equal(t, int64(5), s.MaxScore)
	assert.InDelta(t, 2.0, s.AvgScore, 1e-9)
	assert.Equal(t, int64(0), s.MinIndex)
	assert.Equal(t, int64(2), s.MaxIndex)
	assert.True(t, s.DenseIndex)
	assert.Equal(t, []string{"dumps/x/Posts.xml", "dumps/y/Posts.xml"}, s.XMLPaths)

	var out bytes.Buffer
	Print(&out, s)
	assert.Contains(t, out.String(), "rows:        3")
	assert.Contains(t, out.String(), "dense: true")
}

func TestSummarize_MissingFile(t *testing.T) {
	_, err := Summarize(context.Background(), filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading table")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'it''s.parquet'`, quote("it's.parquet"))
}

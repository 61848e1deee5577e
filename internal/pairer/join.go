// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pairer

import (
	"fmt"

	"github.com/pdiddy/stackpair/internal/qtable"
	"github.com/pdiddy/stackpair/pkg/types"
)

// NormalizeFunc turns an HTML fragment into plain text.
type NormalizeFunc func(string) string

// Engine joins answers to their parent question.
//
// Every answer handed to the engine advances the answer-sequence counter
// once, whether or not its parent is found. A matched pair records the
// counter value before the increment as its QuestionIndex, so unmatched
// answers show up as gaps.
type Engine struct {
	table     qtable.Table
	normalize NormalizeFunc
	xmlPath   string
	seq       int64
}

// NewEngine returns an engine reading from table. Pairs are stamped with
// xmlPath.
func NewEngine(table qtable.Table, normalize NormalizeFunc, xmlPath string) *Engine {
	return &Engine{table: table, normalize: normalize, xmlPath: xmlPath}
}

// match is an answer whose parent was found, waiting to be rendered.
type match struct {
	questionIndex int64
	parent        types.Question
	answer        types.Answer
}

// lookup finds the parent of a and advances the sequence counter. It must
// be called from one goroutine, in input order.
func (e *Engine) lookup(a types.Answer) (match, bool, error) {
	idx := e.seq
	e.seq++

	parent, ok, err := e.table.Lookup(a.ParentID)
	if err != nil {
		return match{}, false, fmt.Errorf("looking up parent of answer %s: %w", a.ID, err)
	}
	if !ok {
		return match{}, false, nil
	}
	return match{questionIndex: idx, parent: parent, answer: a}, true, nil
}

// render builds the pair for m. It only reads m and is safe to call from
// many goroutines.
func (e *Engine) render(m match) types.Pair {
	question := ""
	if m.parent.Title != "" {
		question += e.normalize(m.parent.Title) + "\n\n"
	}
	if m.parent.Body != "" {
		question += e.normalize(m.parent.Body) + "\n\n"
	}

	return types.Pair{
		QuestionIndex: m.questionIndex,
		Question:      question,
		Answer:        e.normalize(m.answer.Body),
		Score:         int64(m.answer.Score),
		IsAccepted:    m.parent.AcceptedAnswerID != "" && m.answer.ID == m.parent.AcceptedAnswerID,
		XMLPath:       e.xmlPath,
		ParentID:      m.parent.ID,
	}
}

// TryJoin looks up the parent of a and, when present, returns the joined
// pair. An absent parent is not an error: the answer is dropped.
func (e *Engine) TryJoin(a types.Answer) (types.Pair, bool, error) {
	m, ok, err := e.lookup(a)
	if err != nil || !ok {
		return types.Pair{}, false, err
	}
	return e.render(m), true, nil
}

// Seen returns how many answers the engine has been asked to join.
func (e *Engine) Seen() int64 {
	return e.seq
}

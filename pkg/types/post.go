// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Question holds the fields of a question post needed to build pairs.
// Everything else on the source row is discarded at parse time.
type Question struct {
	// ID is the post identifier as it appears in the dump.
	ID string `json:"id" yaml:"id"`

	// Title is the raw HTML title. Empty means absent.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Body is the raw HTML body. Empty means absent.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`

	// AcceptedAnswerID is the id of the answer the asker accepted, if any.
	AcceptedAnswerID string `json:"accepted_answer_id,omitempty" yaml:"accepted_answer_id,omitempty"`
}

// Answer is an answer post reduced to the fields the join reads.
type Answer struct {
	ID       string `json:"id" yaml:"id"`
	ParentID string `json:"parent_id" yaml:"parent_id"`
	Body     string `json:"body,omitempty" yaml:"body,omitempty"`
	Score    int    `json:"score" yaml:"score"`
}

// Pair is one (question, answer) row of the output dataset.
type Pair struct {
	// Index is the dense row number, assigned when the row is appended
	// to the output.
	Index int64 `json:"index" yaml:"index"`

	// QuestionIndex is the value of the answer-sequence counter when the
	// answer was joined. It tracks processing order, not question identity,
	// and skips values for answers that found no parent.
	QuestionIndex int64 `json:"question_index" yaml:"question_index"`

	Question   string `json:"question" yaml:"question"`
	Answer     string `json:"answer" yaml:"answer"`
	Score      int64  `json:"score" yaml:"score"`
	IsAccepted bool   `json:"is_accepted" yaml:"is_accepted"`
	XMLPath    string `json:"xml_path" yaml:"xml_path"`

	// ParentID is the parent question id. It is used to rank answers per
	// question and is not written to the dataset.
	ParentID string `json:"-" yaml:"-"`
}

// RunSummary holds counts from one pass over a dump.
type RunSummary struct {
	// Rows is the number of pairs handed to the output.
	Rows int `json:"rows" yaml:"rows"`

	// Questions is the number of question rows inserted into the table.
	Questions int `json:"questions" yaml:"questions"`

	// Answers is the number of qualifying answers that reached the join.
	Answers int `json:"answers" yaml:"answers"`

	// Matched and Unmatched split Answers by whether the parent was found.
	Matched   int `json:"matched" yaml:"matched"`
	Unmatched int `json:"unmatched" yaml:"unmatched"`

	// Filtered counts answers rejected by the score or parent filter.
	Filtered int `json:"filtered" yaml:"filtered"`

	// Trimmed counts pairs dropped by the per-question response cap.
	Trimmed int `json:"trimmed" yaml:"trimmed"`

	// Skipped counts malformed rows.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Failed counts matched answers whose text could not be rendered.
	Failed int `json:"failed" yaml:"failed"`

	// Neither counts rows that are neither questions nor answers.
	Neither int `json:"neither" yaml:"neither"`
}

// Total returns the number of rows read from the dump.
func (s RunSummary) Total() int {
	return s.Questions + s.Answers + s.Filtered + s.Skipped + s.Neither
}

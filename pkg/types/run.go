// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunKey identifies the inputs of a pairing run. Two runs with equal keys
// produce the same set of rows.
type RunKey struct {
	Dataset      string    `json:"dataset" yaml:"dataset"`
	XMLPath      string    `json:"xml_path" yaml:"xml_path"`
	XMLSize      int64     `json:"xml_size" yaml:"xml_size"`
	XMLModTime   time.Time `json:"xml_mod_time" yaml:"xml_mod_time"`
	MinScore     int       `json:"min_score" yaml:"min_score"`
	MaxResponses int       `json:"max_responses" yaml:"max_responses"`
}

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

// Run is one entry of the run ledger.
type Run struct {
	ID         string     `json:"id" yaml:"id"`
	Key        RunKey     `json:"key" yaml:"key"`
	Summary    RunSummary `json:"summary" yaml:"summary"`
	Status     RunStatus  `json:"status" yaml:"status"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	TablePath  string     `json:"table_path,omitempty" yaml:"table_path,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time  `json:"finished_at" yaml:"finished_at"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TableBackend selects where the question table lives during a run.
type TableBackend string

const (
	// TableMemory keeps every question in a Go map.
	TableMemory TableBackend = "memory"

	// TableSQLite spills questions to an on-disk SQLite file next to the
	// output. Slower, but memory stays flat on very large dumps.
	TableSQLite TableBackend = "sqlite"
)

// Compression names the Parquet page codec.
type Compression string

const (
	CompressionSnappy Compression = "snappy"
	CompressionZstd   Compression = "zstd"
	CompressionNone   Compression = "none"
)

// PairConfig holds settings for one pairing run over a single dump.
type PairConfig struct {
	// MinScore is the lowest answer score kept (inclusive, default 0).
	MinScore int `json:"min_score" yaml:"min_score"`

	// MaxResponses caps the answers kept per question, highest score
	// first. Zero keeps every answer.
	MaxResponses int `json:"max_responses" yaml:"max_responses"`

	// Workers is the size of the normalization pool. Zero means one
	// worker per CPU.
	Workers int `json:"workers" yaml:"workers"`

	// Table selects the question table backend (default memory).
	Table TableBackend `json:"table" yaml:"table"`

	// Compression selects the Parquet codec (default snappy).
	Compression Compression `json:"compression" yaml:"compression"`
}

// DatasetConfig locates the input and output of one dataset.
type DatasetConfig struct {
	// Name is the dataset name; the table is written as <Name>.parquet.
	Name string `json:"name" yaml:"name"`

	// XMLPath is the extracted Posts.xml file.
	XMLPath string `json:"xml_path" yaml:"xml_path"`

	// OutDir is the folder receiving the table and config.yaml.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// Manifest is the sidecar written next to each output table.
type Manifest struct {
	XMLPaths []string `json:"xml_paths" yaml:"xml_paths"`
}

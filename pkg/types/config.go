// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutputFormat selects how extracted fields are serialized.
type OutputFormat string

const (
	// FormatLegacy reproduces the original pseudo-JSON array byte for byte,
	// including the trailing comma after the last element.
	FormatLegacy OutputFormat = "legacy"
	// FormatJSON emits a valid JSON array of strings.
	FormatJSON OutputFormat = "json"
	// FormatYAML emits a YAML sequence of records with their keys.
	FormatYAML OutputFormat = "yaml"
	// FormatRecords emits a JSON array of {"CIK", "company_name"} objects
	// holding the full numeric value of each line.
	FormatRecords OutputFormat = "records"
)

// Default file names and limits used when nothing is configured.
const (
	DefaultInputPath     = "CIK-File-6-input.txt"
	DefaultOutputPath    = "output2.txt"
	DefaultMaxLineLength = 49
	DefaultIndexPath     = "index/ciks.db"
)

// ExtractConfig holds settings for a single extraction run.
type ExtractConfig struct {
	// InputPath is the colon-delimited record file to read.
	InputPath string `json:"input" yaml:"input"`

	// OutputPath is created or truncated on every run.
	OutputPath string `json:"output" yaml:"output"`

	// Format selects the output serialization (default legacy).
	Format OutputFormat `json:"format" yaml:"format"`

	// MaxLineLength caps the bytes consumed per read. Longer physical lines
	// are split into several records. Zero selects the default of 49 and a
	// negative value disables the cap.
	MaxLineLength int `json:"max_line_length" yaml:"max_line_length"`

	// Strict turns a record without a colon into a fatal error instead of
	// a skipped record.
	Strict bool `json:"strict" yaml:"strict"`
}

// IndexConfig holds settings for the SQLite CIK index.
type IndexConfig struct {
	// DBPath is the SQLite database file (default index/ciks.db).
	DBPath string `json:"db" yaml:"db"`
}


// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls fixed-width fields out of colon-delimited records.
// Each input record has the form <key>:<value>; the field is the first
// FieldWidth characters following the first colon. Fields are written to an
// output document in one of the formats in pkg/types.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Open-Finance-Lab/Chat-XBRL/pkg/types"
)

const (
	// Delimiter separates the key from the value in every record.
	Delimiter = ':'
	// FieldWidth is the maximum number of characters taken after the delimiter.
	FieldWidth = 8
)

var (
	// ErrInputOpen reports that the input file could not be opened.
	ErrInputOpen = errors.New("cannot open input")
	// ErrOutputOpen reports that the output file could not be created.
	ErrOutputOpen = errors.New("cannot create output")
	// ErrMalformedLine reports a record without a delimiter in strict mode.
	ErrMalformedLine = errors.New("malformed record")
	// ErrUnknownFormat reports an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")
)

// MalformedLineError identifies the record that had no delimiter.
// It matches ErrMalformedLine with errors.Is.
type MalformedLineError struct {
	Line int
	Text string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%v: line %d has no %q: %q", ErrMalformedLine, e.Line, string(Delimiter), e.Text)
}

func (e *MalformedLineError) Is(target error) bool {
	return target == ErrMalformedLine
}

// Record is one extracted field with its provenance.
type Record struct {
	// Line is the 1-based number of the physical input line.
	Line int `json:"line" yaml:"line"`

	// Key is the whitespace-trimmed text before the line's first delimiter.
	Key string `json:"key" yaml:"key"`

	// Value is the whitespace-trimmed remainder of the line after the
	// first delimiter, uncapped.
	Value string `json:"value" yaml:"value"`

	// Field holds at most FieldWidth characters following the delimiter.
	Field string `json:"field" yaml:"field"`
}

// Summary holds the counts of an extraction run. Records counts physical
// lines; Empty and Malformed count lines that produced no element.
type Summary struct {
	Records   int
	Emitted   int
	Empty     int
	Malformed int
}

// Skipped returns the number of lines that produced no element.
func (s Summary) Skipped() int {
	return s.Empty + s.Malformed
}

// ParseRecord splits rec at the first delimiter. It returns ok=false when
// rec has no delimiter. The field is a fixed-width window: it does not stop
// at a second delimiter or any other punctuation.
func ParseRecord(rec string) (key, field string, ok bool) {
	idx := strings.IndexByte(rec, Delimiter)
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(rec[:idx]), truncate(rec[idx+1:], FieldWidth), true
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	count := 0
	for pos := range s {
		if count == n {
			return s[:pos]
		}
		count++
	}
	return s
}

// Extractor runs the record-to-field transformation for one configuration.
type Extractor struct {
	cfg types.ExtractConfig
	log zerolog.Logger
}

// New returns an Extractor for cfg. Empty paths and format fall back to the
// legacy defaults; a zero MaxLineLength means the legacy 49-byte cap and a
// negative one disables the cap.
func New(cfg types.ExtractConfig, log zerolog.Logger) *Extractor {
	if cfg.InputPath == "" {
		cfg.InputPath = types.DefaultInputPath
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = types.DefaultOutputPath
	}
	if cfg.Format == "" {
		cfg.Format = types.FormatLegacy
	}
	if cfg.MaxLineLength == 0 {
		cfg.MaxLineLength = types.DefaultMaxLineLength
	}
	return &Extractor{cfg: cfg, log: log}
}

// Config returns the effective configuration after defaults.
func (e *Extractor) Config() types.ExtractConfig {
	return e.cfg
}

// Scan reads lines from r and calls fn for every read unit that yields a
// non-empty field, in input order. Each line is cut into read units of at
// most MaxLineLength bytes, so a long line can yield more than one field.
// Lines without a delimiter are skipped with a warning, or abort the scan
// with a *MalformedLineError in strict mode. Blank lines are skipped
// silently.
func (e *Extractor) Scan(r io.Reader, fn func(Record) error) (Summary, error) {
	lr := newLineReader(r)
	var sum Summary

	for {
		raw, err := lr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("reading line %d: %w", sum.Records+1, err)
		}
		sum.Records++

		text := string(trimNewline(raw))
		if text == "" {
			sum.Empty++
			continue
		}

		idx := strings.IndexByte(text, Delimiter)
		if idx < 0 {
			if e.cfg.Strict {
				return sum, &MalformedLineError{Line: sum.Records, Text: text}
			}
			sum.Malformed++
			e.log.Warn().Int("line", sum.Records).Str("text", text).Msg("no delimiter, line skipped")
			continue
		}
		key := strings.TrimSpace(text[:idx])
		value := strings.TrimSpace(text[idx+1:])

		emitted := 0
		for _, chunk := range splitChunks(raw, e.cfg.MaxLineLength) {
			_, field, ok := ParseRecord(string(trimNewline(chunk)))
			if !ok || field == "" {
				continue
			}
			if err := fn(Record{Line: sum.Records, Key: key, Value: value, Field: field}); err != nil {
				return sum, err
			}
			emitted++
		}
		if emitted == 0 {
			sum.Empty++
		}
		sum.Emitted += emitted
	}

	return sum, nil
}

// Run extracts fields from r and writes the framed document to w.
func (e *Extractor) Run(r io.Reader, w io.Writer) (Summary, error) {
	f, err := newFormatter(e.cfg.Format, w)
	if err != nil {
		return Summary{}, err
	}
	if err := f.Begin(); err != nil {
		return Summary{}, fmt.Errorf("writing header: %w", err)
	}

	sum, err := e.Scan(r, f.Write)
	if err != nil {
		return sum, err
	}

	if err := f.End(); err != nil {
		return sum, fmt.Errorf("writing footer: %w", err)
	}
	return sum, nil
}

// RunFile extracts fields from the configured input file into the
// configured output file, creating or truncating it. The input is opened
// first, so a missing input never creates the output. Both files are
// closed on every return path.
func (e *Extractor) RunFile() (sum Summary, err error) {
	if _, ferr := newFormatter(e.cfg.Format, io.Discard); ferr != nil {
		return Summary{}, ferr
	}

	in, err := os.Open(e.cfg.InputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("%w %s: %w", ErrInputOpen, e.cfg.InputPath, err)
	}
	defer in.Close()

	out, err := os.Create(e.cfg.OutputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("%w %s: %w", ErrOutputOpen, e.cfg.OutputPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", e.cfg.OutputPath, cerr)
		}
	}()

	bw := bufio.NewWriter(out)
	sum, err = e.Run(in, bw)
	if ferr := bw.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("writing %s: %w", e.cfg.OutputPath, ferr)
	}
	if err != nil {
		return sum, err
	}

	e.log.Info().
		Str("input", e.cfg.InputPath).
		Str("output", e.cfg.OutputPath).
		Int("records", sum.Records).
		Int("emitted", sum.Emitted).
		Int("skipped", sum.Skipped()).
		Msg("extraction complete")
	return sum, nil
}

// Collect reads the configured input file and returns every extracted
// record without writing an output document.
func (e *Extractor) Collect() ([]Record, Summary, error) {
	in, err := os.Open(e.cfg.InputPath)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("%w %s: %w", ErrInputOpen, e.cfg.InputPath, err)
	}
	defer in.Close()

	var records []Record
	sum, err := e.Scan(in, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, sum, err
	}
	return records, sum, nil
}

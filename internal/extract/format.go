// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/Open-Finance-Lab/Chat-XBRL/pkg/types"
)

// formatter serializes records into an output document. Begin and End
// frame the document; Write is called once per non-empty field.
type formatter interface {
	Begin() error
	Write(rec Record) error
	End() error
}

func newFormatter(format types.OutputFormat, w io.Writer) (formatter, error) {
	switch format {
	case types.FormatLegacy, "":
		return &legacyFormatter{w: w}, nil
	case types.FormatJSON:
		return &jsonFormatter{w: w}, nil
	case types.FormatYAML:
		return &yamlFormatter{w: w, records: []Record{}}, nil
	case types.FormatRecords:
		return &recordsFormatter{w: w, companies: []companyCIK{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want legacy, json, yaml, or records)", ErrUnknownFormat, format)
	}
}

// legacyFormatter writes the pseudo-JSON array consumed by the downstream
// scrapers: no escaping, trailing comma after every element, and no
// newline after the closing bracket.
type legacyFormatter struct {
	w io.Writer
}

func (f *legacyFormatter) Begin() error {
	_, err := io.WriteString(f.w, "[\n")
	return err
}

func (f *legacyFormatter) Write(rec Record) error {
	_, err := fmt.Fprintf(f.w, "\t\"%s\",\n", rec.Field)
	return err
}

func (f *legacyFormatter) End() error {
	_, err := io.WriteString(f.w, "]")
	return err
}

// jsonFormatter keeps the legacy layout but emits valid JSON: fields are
// escaped and the last element has no trailing comma.
type jsonFormatter struct {
	w io.Writer
	n int
}

func (f *jsonFormatter) Begin() error {
	_, err := io.WriteString(f.w, "[\n")
	return err
}

func (f *jsonFormatter) Write(rec Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec.Field); err != nil {
		return fmt.Errorf("encoding field on line %d: %w", rec.Line, err)
	}

	sep := "\t"
	if f.n > 0 {
		sep = ",\n\t"
	}
	f.n++
	_, err := fmt.Fprintf(f.w, "%s%s", sep, bytes.TrimRight(buf.Bytes(), "\n"))
	return err
}

func (f *jsonFormatter) End() error {
	closing := "]"
	if f.n > 0 {
		closing = "\n]"
	}
	_, err := io.WriteString(f.w, closing)
	return err
}

// yamlFormatter buffers records and writes them as one YAML sequence.
type yamlFormatter struct {
	w       io.Writer
	records []Record
}

func (f *yamlFormatter) Begin() error { return nil }

func (f *yamlFormatter) Write(rec Record) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *yamlFormatter) End() error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(f.records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// companyCIK is the object shape the CIK scraping stages read.
type companyCIK struct {
	CIK         string `json:"CIK"`
	CompanyName string `json:"company_name"`
}

// recordsFormatter writes one {"CIK", "company_name"} object per line whose
// full value is numeric. The uncapped value is used, not the field.
type recordsFormatter struct {
	w         io.Writer
	companies []companyCIK
	lastLine  int
}

func (f *recordsFormatter) Begin() error { return nil }

func (f *recordsFormatter) Write(rec Record) error {
	if rec.Line == f.lastLine || !isDigits(rec.Value) {
		return nil
	}
	f.lastLine = rec.Line
	f.companies = append(f.companies, companyCIK{CIK: rec.Value, CompanyName: rec.Key})
	return nil
}

func (f *recordsFormatter) End() error {
	enc := json.NewEncoder(f.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(f.companies); err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	return nil
}

func isDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

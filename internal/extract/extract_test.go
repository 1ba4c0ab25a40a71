// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/Open-Finance-Lab/Chat-XBRL/pkg/types"
)

func newTestExtractor(cfg types.ExtractConfig) *Extractor {
	return New(cfg, zerolog.Nop())
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name      string
		rec       string
		wantKey   string
		wantField string
		wantOK    bool
	}{
		{"exactly eight after colon", "ABC:12345678extra", "ABC", "12345678", true},
		{"short value", "ABC:xy", "ABC", "xy", true},
		{"empty value", "ABC:", "ABC", "", true},
		{"window spans second colon", "A:1:2:3:4:5", "A", "1:2:3:4:", true},
		{"key is trimmed", "  APPLE INC :0000320193", "APPLE INC", "00003201", true},
		{"leading colon", ":0001993586", "", "00019935", true},
		{"no colon", "KERSHAW DAVID", "", "", false},
		{"multibyte runes count once", "Société:éééééééééé", "Société", "éééééééé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, field, ok := ParseRecord(tt.rec)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

// berkshire is a valid record whose colon lies beyond the 49-byte read unit.
const berkshire = "BERKSHIRE HATHAWAY ENERGY COMPANY HOLDINGS LIMITED:0001081316"

func TestRunLegacy(t *testing.T) {
	long := "K:" + strings.Repeat("1", 47)

	tests := []struct {
		name    string
		input   string
		maxLen  int
		want    string
		wantSum Summary
	}{
		{
			name:    "empty input",
			input:   "",
			want:    "[\n]",
			wantSum: Summary{},
		},
		{
			name:    "caps field at eight characters",
			input:   "ABC:12345678extra\n",
			want:    "[\n\t\"12345678\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
		{
			name:    "strips newline before cap",
			input:   "ABC:xy\n",
			want:    "[\n\t\"xy\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
		{
			name:    "strips carriage return",
			input:   "ABC:xy\r\n",
			want:    "[\n\t\"xy\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
		{
			name:    "last line without newline",
			input:   "APPLE INC:0000320193",
			want:    "[\n\t\"00003201\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
		{
			name:    "skips line without colon",
			input:   "no colon here\nABC:12345678\n",
			want:    "[\n\t\"12345678\",\n]",
			wantSum: Summary{Records: 2, Emitted: 1, Malformed: 1},
		},
		{
			name:    "omits empty field",
			input:   "ABC:\nDEF:1\n\n",
			want:    "[\n\t\"1\",\n]",
			wantSum: Summary{Records: 3, Emitted: 1, Empty: 2},
		},
		{
			name:    "preserves input order",
			input:   "A:zz\nB:aa\nC:mm\n",
			want:    "[\n\t\"zz\",\n\t\"aa\",\n\t\"mm\",\n]",
			wantSum: Summary{Records: 3, Emitted: 3},
		},
		{
			name:    "default cap splits long line",
			input:   long + "Z:98765432\n",
			want:    "[\n\t\"11111111\",\n\t\"98765432\",\n]",
			wantSum: Summary{Records: 1, Emitted: 2},
		},
		{
			name:    "newline past cap is ignored",
			input:   long + "\n",
			want:    "[\n\t\"11111111\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
		{
			name:    "colon past cap is found in continuation",
			input:   berkshire + "\n",
			want:    "[\n\t\"00010813\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
		{
			name:    "unlimited cap keeps long line whole",
			input:   long + "Z:98765432\n",
			maxLen:  -1,
			want:    "[\n\t\"11111111\",\n]",
			wantSum: Summary{Records: 1, Emitted: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(types.ExtractConfig{MaxLineLength: tt.maxLen})
			var out bytes.Buffer

			sum, err := e.Run(strings.NewReader(tt.input), &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, tt.wantSum, sum)
		})
	}
}

func TestRunElementCountMatchesLines(t *testing.T) {
	lines := []string{
		"APPLE INC:0000320193",
		"MICROSOFT CORP:0000789019",
		"KERSHAW DAVID:0001993586",
		"ALPHABET INC.:0001652044",
	}
	e := newTestExtractor(types.ExtractConfig{})
	var out bytes.Buffer

	sum, err := e.Run(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, len(lines), sum.Emitted)
	assert.Equal(t, len(lines), strings.Count(out.String(), "\t\""))
}

func TestRunStrict(t *testing.T) {
	e := newTestExtractor(types.ExtractConfig{Strict: true})
	var out bytes.Buffer

	sum, err := e.Run(strings.NewReader("ABC:1\nbad\nDEF:2\n"), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedLine))

	var mErr *MalformedLineError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, 2, mErr.Line)
	assert.Equal(t, "bad", mErr.Text)
	assert.Equal(t, 1, sum.Emitted)
	assert.NotContains(t, out.String(), "\"2\"")
}

func TestRunStrictAcceptsLongLine(t *testing.T) {
	e := newTestExtractor(types.ExtractConfig{Strict: true})
	var out bytes.Buffer
	var records []Record

	sum, err := e.Scan(strings.NewReader(berkshire+"\nAPPLE INC:0000320193\n"), func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Summary{Records: 2, Emitted: 2}, sum)
	assert.Equal(t, []Record{
		{Line: 1, Key: "BERKSHIRE HATHAWAY ENERGY COMPANY HOLDINGS LIMITED", Value: "0001081316", Field: "00010813"},
		{Line: 2, Key: "APPLE INC", Value: "0000320193", Field: "00003201"},
	}, records)

	_, err = e.Run(strings.NewReader(berkshire+"\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "[\n\t\"00010813\",\n]", out.String())
}

func TestRunStrictReportsWholeLine(t *testing.T) {
	line := strings.Repeat("NO DELIMITER ", 5)
	e := newTestExtractor(types.ExtractConfig{Strict: true})

	_, err := e.Run(strings.NewReader(line+"\n"), &bytes.Buffer{})
	var mErr *MalformedLineError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, 1, mErr.Line)
	assert.Equal(t, line, mErr.Text)
}

func TestRunWarnsOnMalformed(t *testing.T) {
	var logs bytes.Buffer
	e := New(types.ExtractConfig{}, zerolog.New(&logs))

	_, err := e.Run(strings.NewReader("no delimiter\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "no delimiter, line skipped")
	assert.Contains(t, logs.String(), `"line":1`)
}

func TestRunJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", "", "[\n]"},
		{"single element has no trailing comma", "A:1\n", "[\n\t\"1\"\n]"},
		{"elements are comma separated", "A:1\nB:2\n", "[\n\t\"1\",\n\t\"2\"\n]"},
		{"quotes are escaped", "A:a\"b\n", "[\n\t\"a\\\"b\"\n]"},
		{"html characters are not escaped", "A:<&>\n", "[\n\t\"<&>\"\n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(types.ExtractConfig{Format: types.FormatJSON})
			var out bytes.Buffer

			_, err := e.Run(strings.NewReader(tt.input), &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
			assert.True(t, json.Valid(out.Bytes()), "output should be valid JSON: %q", out.String())
		})
	}
}

func TestRunYAML(t *testing.T) {
	e := newTestExtractor(types.ExtractConfig{Format: types.FormatYAML})
	var out bytes.Buffer

	_, err := e.Run(strings.NewReader("APPLE INC:0000320193\nskip me\nKERSHAW DAVID:0001993586\n"), &out)
	require.NoError(t, err)

	var got []Record
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []Record{
		{Line: 1, Key: "APPLE INC", Value: "0000320193", Field: "00003201"},
		{Line: 3, Key: "KERSHAW DAVID", Value: "0001993586", Field: "00019935"},
	}, got)
}

func TestRunYAMLEmpty(t *testing.T) {
	e := newTestExtractor(types.ExtractConfig{Format: types.FormatYAML})
	var out bytes.Buffer

	_, err := e.Run(strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out.String())
}

func TestRunRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []map[string]string
	}{
		{
			name:  "empty input",
			input: "",
			want:  []map[string]string{},
		},
		{
			name:  "keeps full numeric CIK with company name",
			input: "APPLE INC:0000320193\nKERSHAW DAVID: 0001993586 \n",
			want: []map[string]string{
				{"CIK": "0000320193", "company_name": "APPLE INC"},
				{"CIK": "0001993586", "company_name": "KERSHAW DAVID"},
			},
		},
		{
			name:  "drops non-numeric values",
			input: "COMPANY X:N/A\nNIKE INC:0000320187\n",
			want: []map[string]string{
				{"CIK": "0000320187", "company_name": "NIKE INC"},
			},
		},
		{
			name:  "long line keeps its full name",
			input: berkshire + "\n",
			want: []map[string]string{
				{"CIK": "0001081316", "company_name": "BERKSHIRE HATHAWAY ENERGY COMPANY HOLDINGS LIMITED"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(types.ExtractConfig{Format: types.FormatRecords})
			var out bytes.Buffer

			_, err := e.Run(strings.NewReader(tt.input), &out)
			require.NoError(t, err)

			var got []map[string]string
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunUnknownFormat(t *testing.T) {
	e := newTestExtractor(types.ExtractConfig{Format: "xml"})

	_, err := e.Run(strings.NewReader("A:1\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "APPLE INC:0000320193\nMICROSOFT CORP:0000789019\n")
	out := filepath.Join(dir, "output.txt")
	e := newTestExtractor(types.ExtractConfig{InputPath: in, OutputPath: out})

	sum, err := e.RunFile()
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Emitted)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[\n\t\"00003201\",\n\t\"00007890\",\n]", string(data))
}

func TestRunFileIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "A:12345678\nbad\nB:xy\n")
	out := filepath.Join(dir, "output.txt")
	e := newTestExtractor(types.ExtractConfig{InputPath: in, OutputPath: out})

	_, err := e.RunFile()
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	_, err = e.RunFile()
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunFileTruncatesOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "")
	out := filepath.Join(dir, "output.txt")
	require.NoError(t, os.WriteFile(out, []byte(strings.Repeat("stale", 100)), 0o644))

	_, err := newTestExtractor(types.ExtractConfig{InputPath: in, OutputPath: out}).RunFile()
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[\n]", string(data))
}

func TestRunFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.txt")
	e := newTestExtractor(types.ExtractConfig{
		InputPath:  filepath.Join(dir, "missing.txt"),
		OutputPath: out,
	})

	_, err := e.RunFile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputOpen))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "output must not be created when input is missing")
}

func TestRunFileUncreatableOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "A:1\n")
	e := newTestExtractor(types.ExtractConfig{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "no-such-dir", "output.txt"),
	})

	_, err := e.RunFile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputOpen))
}

func TestRunFileRejectsFormatBeforeOpening(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "A:1\n")
	out := filepath.Join(dir, "output.txt")

	_, err := newTestExtractor(types.ExtractConfig{InputPath: in, OutputPath: out, Format: "csv"}).RunFile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "APPLE INC:0000320193\n\nMICROSOFT CORP:0000789019\n")

	records, sum, err := newTestExtractor(types.ExtractConfig{InputPath: in}).Collect()
	require.NoError(t, err)
	assert.Equal(t, Summary{Records: 3, Emitted: 2, Empty: 1}, sum)
	assert.Equal(t, []Record{
		{Line: 1, Key: "APPLE INC", Value: "0000320193", Field: "00003201"},
		{Line: 3, Key: "MICROSOFT CORP", Value: "0000789019", Field: "00007890"},
	}, records)
}

func TestNewDefaults(t *testing.T) {
	cfg := newTestExtractor(types.ExtractConfig{}).Config()
	assert.Equal(t, types.DefaultInputPath, cfg.InputPath)
	assert.Equal(t, types.DefaultOutputPath, cfg.OutputPath)
	assert.Equal(t, types.FormatLegacy, cfg.Format)
	assert.Equal(t, types.DefaultMaxLineLength, cfg.MaxLineLength)
}

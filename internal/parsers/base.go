// Package parsers loads the CSV snapshots the reconciliation engine works
// over: known profiles, imported contact batches, linked cards and payment
// evidence. Parsing is continue-on-error: a malformed row is skipped and
// recorded with its row context; it never aborts the batch.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"identity-reconciliation-service/pkg/errors"
)

// ParseConfig holds CSV-level options shared by all snapshot parsers
type ParseConfig struct {
	HasHeader bool
	Delimiter rune

	// ColumnAliases maps alternative header names onto canonical column
	// names, so exports from different systems parse without manual edits
	ColumnAliases map[string]string
}

// DefaultParseConfig returns the standard CSV options
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader: true,
		Delimiter: ',',
	}
}

// ParseStats accumulates per-batch parse outcomes. Errors hold one entry
// per skipped row.
type ParseStats struct {
	TotalRows   int                   `json:"total_rows"`
	ParsedRows  int                   `json:"parsed_rows"`
	SkippedRows int                   `json:"skipped_rows"`
	Errors      []*errors.EngineError `json:"errors,omitempty"`
}

// NewParseStats creates empty parse statistics
func NewParseStats() *ParseStats {
	return &ParseStats{Errors: []*errors.EngineError{}}
}

// RecordError notes one skipped row
func (s *ParseStats) RecordError(err *errors.EngineError) {
	s.SkippedRows++
	s.Errors = append(s.Errors, err)
}

// Summary aggregates the accumulated row errors
func (s *ParseStats) Summary() *errors.ErrorSummary {
	return errors.NewErrorSummary(s.Errors)
}

// baseParser provides file opening, header resolution and record reading
// shared by the snapshot parsers.
type baseParser struct {
	config  *ParseConfig
	columns map[string]int
	line    int
}

func newBaseParser(config *ParseConfig) *baseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &baseParser{config: config}
}

// open opens the snapshot file and returns a CSV reader over it
func (p *baseParser) open(path string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.FileError(path, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	p.line = 0
	return file, reader, nil
}

// readHeaders reads the header row and resolves the required columns,
// applying the configured aliases case-insensitively.
func (p *baseParser) readHeaders(reader *csv.Reader, path string, required []string) error {
	if !p.config.HasHeader {
		// Positional columns: required order defines the layout
		p.columns = make(map[string]int, len(required))
		for i, name := range required {
			p.columns[name] = i
		}
		return nil
	}

	header, err := reader.Read()
	if err != nil {
		return errors.RowError(errors.CodeMissingColumn, path, 1, "header", err)
	}
	p.line = 1

	p.columns = make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if alias, ok := p.config.ColumnAliases[name]; ok {
			name = alias
		}
		p.columns[name] = i
	}

	for _, name := range required {
		if _, ok := p.columns[name]; !ok {
			return errors.RowError(errors.CodeMissingColumn, path, 1, name, nil)
		}
	}

	return nil
}

// readRecord reads one data record, tracking the line number for error
// context. Returns io.EOF at end of input.
func (p *baseParser) readRecord(reader *csv.Reader) ([]string, error) {
	record, err := reader.Read()
	if err != nil {
		return nil, err
	}
	p.line++
	return record, nil
}

// field returns the named column's trimmed value, or empty when the column
// is absent or the record is short.
func (p *baseParser) field(record []string, name string) string {
	idx, ok := p.columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// requireField returns the named column's value or a row error when empty
func (p *baseParser) requireField(record []string, name, path string) (string, *errors.EngineError) {
	value := p.field(record, name)
	if value == "" {
		return "", errors.RowError(errors.CodeRowMissingField, path, p.line, name, nil)
	}
	return value, nil
}

// drain reads records until EOF, handing each to parse. Read errors on
// individual records are recorded and skipped.
func (p *baseParser) drain(reader *csv.Reader, path string, stats *ParseStats, parse func(record []string)) error {
	for {
		record, err := p.readRecord(reader)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if _, ok := err.(*csv.ParseError); ok {
				stats.TotalRows++
				stats.RecordError(errors.RowError(errors.CodeInvalidFormat, path, p.line+1, "row",
					fmt.Errorf("malformed CSV record: %w", err)))
				p.line++
				continue
			}
			return errors.RowError(errors.CodeInvalidFormat, path, p.line, "row", err)
		}

		stats.TotalRows++
		parse(record)
	}
}

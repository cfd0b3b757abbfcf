package ratings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"ratesync/internal/outcome"
)

// ParseResult carries everything parsing produced from one CSV file.
type ParseResult struct {
	Source  SourceKind
	Records []Record
	// Invalid holds InvalidInput outcomes for malformed rows, in row order.
	Invalid []outcome.Outcome
	// Filtered counts rows dropped by the media-type filter.
	Filtered int
	// Duplicates counts Letterboxd rows dropped because an earlier row had
	// the same (name, year) key.
	Duplicates int
}

// Rows returns the number of rows that will receive an outcome.
func (r *ParseResult) Rows() int {
	return len(r.Records) + len(r.Invalid)
}

// Parse reads a ratings CSV export. Only structural problems (unreadable
// input, missing header row) return an error.
func Parse(r io.Reader, source SourceKind, filter TypeFilter) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv file has no header row")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	switch source {
	case SourceIMDb:
		return parseIMDb(reader, columns, filter)
	case SourceLetterboxd:
		return parseLetterboxd(reader, columns)
	default:
		return nil, fmt.Errorf("unknown source kind %d", source)
	}
}

// FoldTitle normalizes a title for index keys: Unicode case folding over the
// NFC form of the trimmed input. Index construction and Letterboxd dedup use
// the same key so lookups stay consistent.
func FoldTitle(title string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(title)))
}

type row struct {
	fields  []string
	columns map[string]int
}

func (r row) get(name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// readRow pulls the next data row. A nil slice with a nil error signals EOF.
func readRow(reader *csv.Reader) ([]string, error) {
	fields, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv row: %w", err)
	}
	return fields, nil
}

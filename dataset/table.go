/*
table.go - Raw tabular container and CSV ingestion

PURPOSE:
  A Table is the untyped form of an input sheet: a header row plus string
  records. Domain packages resolve their field schema against it and build
  typed rows. CSV is the transport; whatever produced the sheet upstream is
  someone else's problem.
*/
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Table is a header row plus string records, exactly as read.
type Table struct {
	Headers []string
	Records [][]string
}

// Cell returns record[idx] or "" when idx is -1 or past the record's end.
// Short records are common in hand-edited sheets.
func (t *Table) Cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// LoadCSV reads a table from a CSV file. Malformed lines are skipped and
// reported as warnings rather than failing the load; an unreadable file or
// a missing header row is fatal.
func LoadCSV(path string) (*Table, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open input: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a table from any reader. See LoadCSV.
func ReadCSV(r io.Reader) (*Table, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read header row: %w", err)
	}

	table := &Table{Headers: headers}
	var warnings []string
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		table.Records = append(table.Records, record)
	}
	return table, warnings, nil
}

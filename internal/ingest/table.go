package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing column")

// Table is a CSV file held in memory with its header. Rows keep every
// input column so output files can carry them through untouched.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table from a header and rows.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		name := strings.TrimSpace(col)
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
}

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// RequireColumns returns the positions of all named columns, or an error
// naming the first missing one.
func (t *Table) RequireColumns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos, ok := t.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		idx[i] = pos
	}
	return idx, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// AppendColumn adds a column. values must have one entry per row. Rows
// shorter than the header are padded with empty cells first so the new value
// lands under its own header.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.Rows))
	}
	width := len(t.Header)
	t.Header = append(t.Header, name)
	for i, row := range t.Rows {
		for len(row) < width {
			row = append(row, "")
		}
		t.Rows[i] = append(row, values[i])
	}
	t.reindex()
	return nil
}

// Append adds the rows of other, matching columns by name. Columns other
// lacks are left empty.
func (t *Table) Append(other *Table) {
	mapping := make([]int, len(t.Header))
	for i, col := range t.Header {
		pos, ok := other.ColumnIndex(strings.TrimSpace(col))
		if !ok {
			pos = -1
		}
		mapping[i] = pos
	}
	for _, src := range other.Rows {
		row := make([]string, len(t.Header))
		for i, pos := range mapping {
			if pos >= 0 && pos < len(src) {
				row[i] = src[pos]
			}
		}
		t.Rows = append(t.Rows, row)
	}
}

// ReadTable reads a CSV table, discarding skipRows leading lines before the
// header. NSRDB downloads carry two metadata lines ahead of the header.
func ReadTable(r io.Reader, skipRows int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	for i := 0; i < skipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("skipping metadata line %d: %w", i+1, err)
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) == 0 || (len(header) == 1 && strings.TrimSpace(header[0]) == "") {
		return nil, fmt.Errorf("empty CSV header")
	}

	var rows [][]string
	lineNum := skipRows + 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		rows = append(rows, record)
	}

	return NewTable(header, rows), nil
}

// WriteTable writes header and rows as CSV.
func WriteTable(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

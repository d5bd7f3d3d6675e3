// Package table reads and writes the flat files that connect the pipeline
// stages: CSV with a header row, kept as string cells under an ordered header.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"absenteeismgap.org/internal/logging"
)

// ErrEmpty is returned when asked to write a table without rows.
var ErrEmpty = errors.New("table has no rows")

// Row is one record keyed by column name.
type Row map[string]string

// Table is an ordered header plus rows. Cells for columns a row lacks are
// written as empty strings.
type Table struct {
	Header []string
	Rows   []Row

	index map[string]struct{}
}

// New creates an empty table with the given header.
func New(header ...string) *Table {
	t := &Table{}
	for _, h := range header {
		t.addColumn(h)
	}
	return t
}

func (t *Table) ensureIndex() {
	if t.index != nil {
		return
	}
	t.index = make(map[string]struct{}, len(t.Header))
	for _, h := range t.Header {
		t.index[h] = struct{}{}
	}
}

func (t *Table) addColumn(name string) {
	t.ensureIndex()
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = struct{}{}
	t.Header = append(t.Header, name)
}

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// AddOrdered appends a row whose unseen columns should join the header in
// the order given by keys.
func (t *Table) AddOrdered(keys []string, row Row) {
	for _, k := range keys {
		t.addColumn(k)
	}
	t.Add(row)
}

// Add appends a row. Columns not yet in the header are appended in sorted
// order so the output is deterministic.
func (t *Table) Add(row Row) {
	t.ensureIndex()
	var unseen []string
	for k := range row {
		if _, ok := t.index[k]; !ok {
			unseen = append(unseen, k)
		}
	}
	sort.Strings(unseen)
	for _, k := range unseen {
		t.addColumn(k)
	}
	t.Rows = append(t.Rows, row)
}

// Concat appends every row of other, extending the header as needed.
func (t *Table) Concat(other *Table) {
	if other == nil {
		return
	}
	for _, h := range other.Header {
		t.addColumn(h)
	}
	t.Rows = append(t.Rows, other.Rows...)
}

// Fill sets column name to value on every row, appending the column to the
// header if needed.
func (t *Table) Fill(name, value string) {
	t.addColumn(name)
	for _, r := range t.Rows {
		r[name] = value
	}
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// ReadCSV parses a CSV stream whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	t := New(header...)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV line %d: %w", line, err)
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadFile opens path and parses it with ReadCSV.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer logging.SafeCloseWithLogging(f, slog.Default(), "read_"+path)

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the header and every row.
func (t *Table) WriteCSV(w io.Writer) error {
	if len(t.Rows) == 0 {
		return ErrEmpty
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, name := range t.Header {
			record[i] = row[name]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) (err error) {
	if len(t.Rows) == 0 {
		return ErrEmpty
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer logging.HandleDeferredError(&err, f.Close, slog.Default(), "close_"+path)

	return t.WriteCSV(f)
}

package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV parses CSV text into a Table. The first record is the header row;
// data rows shorter than the header are padded with empty fields and longer
// ones are truncated, so every row matches the header width. Empty input
// yields a zero Table.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	t := NewTable(records[0])
	width := len(t.Columns)
	t.Rows = make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, width)
		copy(row, record)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseCSV is ReadCSV over a byte slice.
func ParseCSV(data []byte) (Table, error) {
	return ReadCSV(bytes.NewReader(data))
}

// WriteCSV serializes t as a header row followed by the data rows, with
// "\n" line endings and no BOM. Output is deterministic for a given table.
func (t Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVBytes returns WriteCSV output as a byte slice.
func (t Table) CSVBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

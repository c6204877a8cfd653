package dataset

import (
	"strconv"
	"strings"

	"go-dataset-registry/internal/model"
)

// Table is an ordered, in-memory collection of rows for one dataset type.
// Rows are positional: row[i] holds the value for Columns[i]. A zero Table
// (no columns, no rows) represents "no data loaded".
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the given column order.
func NewTable(columns []string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

func (t Table) RowCount() int {
	return len(t.Rows)
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of name in t.Columns, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// MissingColumns returns the entries of want absent from t.Columns, in
// want's order.
func (t Table) MissingColumns(want []string) []string {
	var missing []string
	for _, col := range want {
		if t.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	return missing
}

// ExtraColumns returns t's columns that do not appear in want, in t's order.
func (t Table) ExtraColumns(want []string) []string {
	wanted := make(map[string]struct{}, len(want))
	for _, col := range want {
		wanted[col] = struct{}{}
	}

	var extra []string
	for _, col := range t.Columns {
		if _, ok := wanted[col]; !ok {
			extra = append(extra, col)
		}
	}
	return extra
}

// SchemaError reports the schema columns a table is missing. It unwraps to
// model.ErrSchemaMismatch.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *SchemaError) Unwrap() error {
	return model.ErrSchemaMismatch
}

// Project reshapes t onto exactly the given column order. This is the raw
// import boundary: columns outside the target set are dropped, and a missing
// target column fails with a SchemaError naming every absent column.
func (t Table) Project(columns []string) (Table, error) {
	if missing := t.MissingColumns(columns); len(missing) > 0 {
		return Table{}, &SchemaError{Missing: missing}
	}

	positions := make([]int, len(columns))
	for i, col := range columns {
		positions[i] = t.ColumnIndex(col)
	}

	out := NewTable(columns)
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		projected := make([]string, len(columns))
		for i, pos := range positions {
			if pos < len(row) {
				projected[i] = row[pos]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// Concat returns t's rows followed by other's. Callers are expected to have
// projected both tables onto the same column order first.
func (t Table) Concat(other Table) Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]string, 0, len(t.Rows)+len(other.Rows))
	out.Rows = append(out.Rows, t.Rows...)
	out.Rows = append(out.Rows, other.Rows...)
	return out
}

// Dedup removes rows whose every column equals an earlier row's; the first
// occurrence wins and relative order is preserved.
func (t Table) Dedup() Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]string, 0, len(t.Rows))

	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// rowKey length-prefixes each field so that field boundaries can never
// collide, whatever bytes the values hold.
func rowKey(row []string) string {
	var b strings.Builder
	for _, field := range row {
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
	}
	return b.String()
}

package dataprocessing

import (
	"strconv"
	"strings"
	"time"
)

// CellKind discriminates the value held by a Cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
	KindDate
)

// Cell is one value in a Table. The zero value is a missing cell.
// Sheet loading produces text cells; enrichment coerces the date column and
// parses numbers on demand, so a text cell holding "1,980" still answers
// AsNumber.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

// TextCell returns a text cell, or an empty cell for blank input.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: KindText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: KindNumber, Number: v}
}

// DateCell returns a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: KindDate, Date: t}
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// AsNumber returns the numeric value of the cell. Text cells are parsed with
// thousands separators stripped, matching how report exports format prices.
func (c Cell) AsNumber() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Number, true
	case KindText:
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(c.Text), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// AsDate returns the date value of the cell. Only cells already coerced to
// KindDate answer true; text cells are coerced once, in the enricher.
func (c Cell) AsDate() (time.Time, bool) {
	if c.Kind != KindDate {
		return time.Time{}, false
	}
	return c.Date, true
}

// String renders the cell for CSV output.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// Table is a two-dimensional dataset with named columns and ordered rows.
// Column order matters for display only; cells are addressed by column index.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// NewTable creates a table with the given column names and no rows.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// ColumnIndex returns the index of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Cell returns the cell at (row, column name). Missing column or short row
// yields an empty cell.
func (t *Table) Cell(row int, column string) Cell {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return Cell{}
	}
	return t.Rows[row][idx]
}

// AppendRow adds one row, padded or truncated to the column count.
func (t *Table) AppendRow(cells []Cell) {
	row := make([]Cell, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// InsertColumn inserts a column at the given position, filling each row from
// values (short value slices leave trailing rows empty). Position is clamped
// to the valid range.
func (t *Table) InsertColumn(pos int, name string, values []Cell) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(t.Columns) {
		pos = len(t.Columns)
	}
	t.Columns = append(t.Columns, "")
	copy(t.Columns[pos+1:], t.Columns[pos:])
	t.Columns[pos] = name

	for i := range t.Rows {
		var v Cell
		if i < len(values) {
			v = values[i]
		}
		row := append(t.Rows[i], Cell{})
		copy(row[pos+1:], row[pos:])
		row[pos] = v
		t.Rows[i] = row
	}
}

// AppendColumn adds a column at the end.
func (t *Table) AppendColumn(name string, values []Cell) {
	t.InsertColumn(len(t.Columns), name, values)
}

// RemoveColumn deletes the named column and its cells. Removing an absent
// column is a no-op.
func (t *Table) RemoveColumn(name string) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	for i, row := range t.Rows {
		if idx < len(row) {
			t.Rows[i] = append(row[:idx], row[idx+1:]...)
		}
	}
}

// ColumnValues returns the cells of the named column, one per row.
func (t *Table) ColumnValues(name string) []Cell {
	idx := t.ColumnIndex(name)
	values := make([]Cell, len(t.Rows))
	if idx < 0 {
		return values
	}
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}

// SetCell overwrites the cell at (row, column index).
func (t *Table) SetCell(row, col int, c Cell) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return
	}
	t.Rows[row][col] = c
}

package dataprocessing

import "strings"

// HeaderLevels is the number of header rows in a resource export.
const HeaderLevels = 3

// placeholderPrefix marks header cells that were blank in the source.
const placeholderPrefix = "Unnamed: "

// RawSheet is a worksheet as read from the workbook: Header[col] holds the
// HeaderLevels parts of each column, Rows holds the data cells.
type RawSheet struct {
	Name   string
	Header [][]string
	Rows   [][]string
}

// Width returns the number of columns.
func (s *RawSheet) Width() int {
	return len(s.Header)
}

// Table is a flat-header table of cell text.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

func isPlaceholder(cell string) bool {
	return strings.HasPrefix(cell, placeholderPrefix)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

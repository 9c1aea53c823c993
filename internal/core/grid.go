package core

import (
	"strconv"
	"strings"
)

// CellKind classifies a parsed cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single sheet value as displayed by the spreadsheet application.
type Cell struct {
	Kind CellKind
	Text string
}

// NewCell classifies a formatted cell value.
func NewCell(raw string) Cell {
	if raw == "" {
		return Cell{Kind: CellEmpty}
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return Cell{Kind: CellNumber, Text: raw}
	}
	return Cell{Kind: CellText, Text: raw}
}

// String returns the display text of the cell.
func (c Cell) String() string {
	return c.Text
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Row is one sheet row. Rows keep their own length; a row shorter or longer
// than the header is not padded or truncated.
type Row []Cell

// Grid is the row-major matrix extracted from the first sheet of a workbook.
// Row 0 is the header. A Grid is never mutated after parsing.
type Grid []Row

// GridFromStrings builds a Grid from formatted cell values.
func GridFromStrings(rows [][]string) Grid {
	g := make(Grid, 0, len(rows))
	for _, r := range rows {
		row := make(Row, len(r))
		for i, v := range r {
			row[i] = NewCell(v)
		}
		g = append(g, row)
	}
	return g
}

// RowCount returns the number of rows including the header.
func (g Grid) RowCount() int {
	return len(g)
}

// ItemCount returns the number of data rows (rows minus the header).
func (g Grid) ItemCount() int {
	if len(g) == 0 {
		return 0
	}
	return len(g) - 1
}

// Header returns the first row, or nil for an empty grid.
func (g Grid) Header() Row {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// Strings returns the grid as formatted values, mostly for JSON output.
func (g Grid) Strings() [][]string {
	out := make([][]string, len(g))
	for i, r := range g {
		out[i] = r.Strings()
	}
	return out
}

// Strings returns the row as formatted values.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

func (r Row) isBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// trimTrailingBlankRows drops blank rows at the end of the sheet. Blank rows
// between data rows are kept.
func trimTrailingBlankRows(g Grid) Grid {
	n := len(g)
	for n > 0 && g[n-1].isBlank() {
		n--
	}
	return g[:n]
}

// trimTrailingEmptyCells drops empty cells after the last value in a row.
func trimTrailingEmptyCells(r Row) Row {
	n := len(r)
	for n > 0 && r[n-1].IsEmpty() {
		n--
	}
	return r[:n]
}

// trimSheet drops blank rows at the top and bottom of the sheet and shifts
// every row left by the number of empty columns before the leftmost value,
// so a table that starts at C3 reads the same as one that starts at A1.
func trimSheet(g Grid) Grid {
	g = trimTrailingBlankRows(g)
	start := 0
	for start < len(g) && g[start].isBlank() {
		start++
	}
	g = g[start:]

	offset := -1
	for _, r := range g {
		if r.isBlank() {
			continue
		}
		n := 0
		for n < len(r) && r[n].IsEmpty() {
			n++
		}
		if offset < 0 || n < offset {
			offset = n
		}
	}
	if offset <= 0 {
		return g
	}

	out := make(Grid, len(g))
	for i, r := range g {
		if len(r) > offset {
			out[i] = r[offset:]
		} else {
			out[i] = Row{}
		}
	}
	return out
}

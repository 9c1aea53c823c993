package core

// workbook.go converts the first sheet of an uploaded workbook into a Grid.
//
// The container format is sniffed from the bytes, not from the file name:
// Office Open XML (.xlsx) is a zip archive read with excelize, legacy BIFF
// (.xls) lives in an OLE compound document read with extrame/xls. Anything
// else is rejected with ErrUnsupportedFormat.

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// MIME types accepted by the upload target.
const (
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeXLS  = "application/vnd.ms-excel"
)

var (
	// ErrUnsupportedFormat is returned when the bytes are not a spreadsheet container.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrInvalidWorkbook is returned when the container is recognized but cannot be read.
	ErrInvalidWorkbook = errors.New("invalid workbook")
)

// ParseWorkbook reads the first sheet of an .xlsx or .xls workbook.
// An empty first sheet yields an empty, non-nil Grid.
func ParseWorkbook(data []byte) (Grid, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidWorkbook)
	}

	mt := mimetype.Detect(data)
	switch {
	case detectedAs(mt, MIMETypeXLSX, "application/zip"):
		return parseXLSX(data)
	case detectedAs(mt, MIMETypeXLS, "application/x-ole-storage"):
		return parseXLS(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
}

// detectedAs reports whether mt or one of its parents matches any of the given types.
func detectedAs(mt *mimetype.MIME, types ...string) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, t := range types {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

func parseXLSX(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidWorkbook)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidWorkbook, sheet, err)
	}

	dates := newXLSXDates(f, sheet)
	for i, r := range rows {
		for k, v := range r {
			if v == "" {
				continue
			}
			if d, ok := dates.normalize(k, i); ok {
				r[k] = d
			}
		}
	}

	return trimSheet(GridFromStrings(rows)), nil
}

// parseXLS reads a legacy BIFF workbook. The decoder panics on some malformed
// records, so panics are turned into ErrInvalidWorkbook.
func parseXLS(data []byte) (grid Grid, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid = nil
			err = fmt.Errorf("%w: %v", ErrInvalidWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	// OpenReader returns a nil book without error when the container has no
	// Workbook stream.
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrInvalidWorkbook)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidWorkbook)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidWorkbook)
	}

	grid = make(Grid, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := xlsRow(sheet, i)
		if r == nil {
			grid = append(grid, Row{})
			continue
		}
		row := make(Row, 0, r.LastCol())
		for k := 0; k < r.LastCol(); k++ {
			row = append(row, NewCell(normalizeXLSDate(r.Col(k))))
		}
		grid = append(grid, trimTrailingEmptyCells(row))
	}

	return trimSheet(grid), nil
}

// xlsRow returns row i, or nil when the sheet has no record for it.
// WorkSheet.Row dereferences the missing row instead of returning nil.
func xlsRow(sheet *xls.WorkSheet, i int) (r *xls.Row) {
	defer func() {
		if recover() != nil {
			r = nil
		}
	}()
	return sheet.Row(i)
}

// Date cells from both formats are rendered as DateLayout, or DateTimeLayout
// when the value carries a time of day.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

func formatDate(t time.Time) string {
	t = t.Round(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}

// normalizeXLSDate rewrites the RFC 3339 timestamps the BIFF decoder emits
// for custom date formats. Built-in date formats come out of the decoder as
// year and month only ("2006.01") and are kept as they are.
func normalizeXLSDate(v string) string {
	if len(v) < len(DateLayout) || v[4] != '-' {
		return v
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return formatDate(t)
}

// xlsxDates finds date-formatted cells in one sheet. Date detection is per
// cell style, cached by style ID.
type xlsxDates struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newXLSXDates(f *excelize.File, sheet string) *xlsxDates {
	d := &xlsxDates{f: f, sheet: sheet, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// normalize returns the date text for the zero-based cell at (col, row) when
// the cell holds a serial date.
func (d *xlsxDates) normalize(col, row int) (string, bool) {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	id, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(id) {
		return "", false
	}
	raw, err := d.f.GetCellValue(d.sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return formatDate(t), true
}

func (d *xlsxDates) isDateStyle(id int) bool {
	if v, ok := d.styles[id]; ok {
		return v
	}
	v := false
	if id > 0 {
		if s, err := d.f.GetStyle(id); err == nil && s != nil {
			v = isDateNumFmt(s.NumFmt, s.CustomNumFmt)
		}
	}
	d.styles[id] = v
	return v
}

// isDateNumFmt reports whether a number format renders a date or time.
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil {
		return isDateFormatCode(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for date or time tokens outside quoted literals,
// escapes and bracketed sections such as colors and locales.
func isDateFormatCode(code string) bool {
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c | 0x20 {
			case 'y', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}

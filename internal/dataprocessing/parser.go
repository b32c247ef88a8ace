package dataprocessing

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"keepacli/internal/errors"
)

// ReservedSheetName is the sheet that never carries data. Every other sheet
// name in a Keepa export is the ASIN of the tracked product.
const ReservedSheetName = "note"

// ExtractFile opens a Keepa xlsx export from disk and loads its data sheet.
func ExtractFile(path string) (string, *Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, errors.NewParsingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return extractWorkbook(f)
}

// ExtractReader loads a Keepa xlsx export from a stream, e.g. an upload body.
func ExtractReader(r io.Reader) (string, *Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, errors.NewParsingError("failed to open workbook stream", err)
	}
	defer f.Close()
	return extractWorkbook(f)
}

// DataSheetName returns the first sheet name that is not the reserved notes
// sheet, compared case-insensitively. That name is the file's ASIN.
func DataSheetName(sheets []string) (string, bool) {
	for _, name := range sheets {
		if !strings.EqualFold(name, ReservedSheetName) {
			return name, true
		}
	}
	return "", false
}

// FileInfo describes one source file before a run: its name, byte size, and
// the ASIN derived from its sheet names (empty when no data sheet exists).
type FileInfo struct {
	Name   string   `json:"name"`
	ASIN   string   `json:"asin"`
	Size   int64    `json:"size"`
	Sheets []string `json:"sheets"`
}

// Inspect reads only the sheet list of a source to build its inventory
// entry. Unreadable files yield an entry with no ASIN rather than an error.
func Inspect(src Source) FileInfo {
	info := FileInfo{Name: src.Name, Size: src.Size}

	var f *excelize.File
	var err error
	if src.Reader != nil {
		f, err = excelize.OpenReader(src.Reader)
	} else {
		f, err = excelize.OpenFile(src.Path)
	}
	if err != nil {
		return info
	}
	defer f.Close()

	info.Sheets = f.GetSheetList()
	if asin, ok := DataSheetName(info.Sheets); ok {
		info.ASIN = asin
	}
	return info
}

// extractWorkbook derives the ASIN from the sheet list and loads the data
// sheet as a table. The header row becomes the column names; cell values stay
// untouched text, coercion belongs to enrichment.
func extractWorkbook(f *excelize.File) (string, *Table, error) {
	asin, ok := DataSheetName(f.GetSheetList())
	if !ok {
		return "", nil, errors.NewParsingError("no data sheet found besides the note sheet", nil)
	}

	rows, err := f.GetRows(asin)
	if err != nil {
		return "", nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %s", asin), err)
	}
	if len(rows) == 0 {
		return asin, NewTable(), nil
	}

	table := NewTable(rows[0]...)
	for _, raw := range rows[1:] {
		cells := make([]Cell, len(table.Columns))
		for i := 0; i < len(cells) && i < len(raw); i++ {
			cells[i] = TextCell(raw[i])
		}
		table.AppendRow(cells)
	}
	return asin, table, nil
}

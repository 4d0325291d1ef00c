// Package source loads a regional sales extract into a core.Table.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/salesload/internal/core"
	"github.com/JonMunkholm/salesload/internal/csv"
)

// Options controls how a workbook is read.
type Options struct {
	// Sheet is the worksheet name; empty means the first sheet.
	Sheet string
}

// Read loads the extract at path. The file type is chosen by extension:
// .xlsx/.xlsm/.xltx/.xltm are read as Excel workbooks, .csv as text.
func Read(path string, opts Options) (*core.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readWorkbook(path, opts)
	case ".csv":
		return csv.ReadTable(path)
	default:
		return nil, fmt.Errorf("unsupported workbook type %q: %s", filepath.Ext(path), path)
	}
}

func readWorkbook(path string, opts Options) (*core.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	// Raw values so numbers keep the precision stored in the file rather
	// than the cell's display format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return fromRows(rows)
}

// fromRows turns sheet rows into a table: the first non-empty row is the
// header, rows with only whitespace are skipped. A row longer than the
// header adds columns named "Unnamed: N" (N is the 0-based position).
func fromRows(rows [][]string) (*core.Table, error) {
	start := -1
	for i, r := range rows {
		if !blank(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		header[i] = core.CleanCell(h)
	}
	// excelize trims trailing empty cells per row, but a styled blank cell
	// can still show up at the end of the header
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	// cells past the header get generated names so nothing is dropped
	width := len(header)
	for _, r := range rows[start+1:] {
		if !blank(r) && len(r) > width {
			width = len(r)
		}
	}
	for i := len(header); i < width; i++ {
		header = append(header, fmt.Sprintf("Unnamed: %d", i))
	}

	t, err := core.NewTable(header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	// data cells are kept exactly as stored
	for _, r := range rows[start+1:] {
		if blank(r) {
			continue
		}
		t.Append(r)
	}
	return t, nil
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

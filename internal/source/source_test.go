package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates an .xlsx file with rows on the named sheet.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatal(err)
		}
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		row := r
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead_Workbook(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"OrderId", "Product", "QuantityOrdered", "ItemPrice"},
		{1, "Widget", 2, 5.25},
		{2, "Gadget", 3, "4.0"},
		{},
		{3, "", 1, 0.1},
	})

	tbl, err := Read(path, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	wantCols := []string{"OrderId", "Product", "QuantityOrdered", "ItemPrice"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	wantRows := [][]string{
		{"1", "Widget", "2", "5.25"},
		{"2", "Gadget", "3", "4.0"},
		{"3", "", "1", "0.1"},
	}
	if !reflect.DeepEqual(tbl.Rows, wantRows) {
		t.Errorf("Rows = %q, want %q", tbl.Rows, wantRows)
	}
}

func TestRead_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Orders", [][]any{
		{"OrderId", "ItemPrice"},
		{10, 1.5},
	})

	tbl, err := Read(path, Options{Sheet: "Orders"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("rows = %d, want 1", tbl.Len())
	}

	if _, err := Read(path, Options{Sheet: "Missing"}); err == nil {
		t.Error("Read() expected error for missing sheet")
	}
}

func TestRead_ShortRowsPadded(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"OrderId", "QuantityOrdered", "ItemPrice"},
		{1},
	})

	tbl, err := Read(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if want := [][]string{{"1", "", ""}}; !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows = %q, want %q", tbl.Rows, want)
	}
}

func TestRead_KeepsCellsVerbatim(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"OrderId", "Product", "QuantityOrdered", "ItemPrice"},
		{1, "  Widget  ", 2, 5.25, "extra-cell"},
		{2, "Gadget", 3, 4},
	})

	tbl, err := Read(path, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	wantCols := []string{"OrderId", "Product", "QuantityOrdered", "ItemPrice", "Unnamed: 4"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	wantRows := [][]string{
		{"1", "  Widget  ", "2", "5.25", "extra-cell"},
		{"2", "Gadget", "3", "4", ""},
	}
	if !reflect.DeepEqual(tbl.Rows, wantRows) {
		t.Errorf("Rows = %q, want %q", tbl.Rows, wantRows)
	}
}

func TestFromRows_GeneratedNameCollision(t *testing.T) {
	_, err := fromRows([][]string{{"OrderId", "Unnamed: 2"}, {"1", "a", "b"}})
	if err == nil {
		t.Error("expected error when a generated column name repeats a header")
	}
}

func TestRead_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte("OrderId,QuantityOrdered,ItemPrice\n1,2,5.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Read(path, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := [][]string{{"1", "2", "5.0"}}; !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows = %q, want %q", tbl.Rows, want)
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	notZip := filepath.Join(dir, "broken.xlsx")
	if err := os.WriteFile(notZip, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	emptyBook := writeWorkbook(t, "Sheet1", nil)
	dupHeader := writeWorkbook(t, "Sheet1", [][]any{{"OrderId", "OrderId"}, {1, 2}})

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.xlsx")},
		{"not a zip", notZip},
		{"unsupported extension", filepath.Join(dir, "orders.ods")},
		{"empty sheet", emptyBook},
		{"duplicate header", dupHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Read(tt.path, Options{})
			if err == nil {
				t.Fatalf("Read() expected error, got table %v", tbl)
			}
			if tbl != nil {
				t.Error("Read() returned a partial table alongside the error")
			}
		})
	}
}

func TestFromRows_SkipsLeadingBlankRows(t *testing.T) {
	tbl, err := fromRows([][]string{{}, {"", " "}, {"OrderId", "ItemPrice", ""}, {"1", "2"}})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"OrderId", "ItemPrice"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, want)
	}
	if tbl.Len() != 1 {
		t.Errorf("rows = %d, want 1", tbl.Len())
	}
}

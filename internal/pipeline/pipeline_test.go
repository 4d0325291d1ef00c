package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/salesload/internal/config"
	"github.com/JonMunkholm/salesload/internal/core"
	"github.com/JonMunkholm/salesload/internal/csv"
)

// fakeLoader records what it was asked to load.
type fakeLoader struct {
	calls int
	got   *core.Table
	err   error
	block bool
}

func (f *fakeLoader) Load(ctx context.Context, t *core.Table) (int64, error) {
	f.calls++
	f.got = t
	if f.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.err != nil {
		return 0, f.err
	}
	return int64(t.Len()), nil
}

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

var header = []string{"OrderId", "QuantityOrdered", "ItemPrice"}

// testConfig writes the two-region example fixtures into a temp dir.
func testConfig(t *testing.T, priceB string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Input.RegionA = filepath.Join(dir, "order_region_a.xlsx")
	cfg.Input.RegionB = filepath.Join(dir, "order_region_b.xlsx")
	cfg.Output.IntermediatePath = filepath.Join(dir, "finalSales.csv")
	cfg.Database = config.DatabaseConfig{
		URL:    filepath.Join(dir, "sales.db"),
		Driver: "sqlite",
		Table:  "SalesData",
	}
	cfg.Load.NumericType = "double"

	writeWorkbook(t, cfg.Input.RegionA, [][]string{header, {"1", "2", "5.0"}})
	writeWorkbook(t, cfg.Input.RegionB, [][]string{header, {"1", "9", "1.0"}, {"2", "3", priceB}})
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t, "4.0")

	res, err := Run(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if !res.Loaded || res.RowsLoaded != 2 {
		t.Errorf("Loaded = %v, RowsLoaded = %d, want true, 2", res.Loaded, res.RowsLoaded)
	}
	if res.Stats.Combined != 3 || res.Stats.Duplicates != 1 || res.Stats.Output != 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.Stats.Conflicts) != 1 || res.Stats.Conflicts[0].DroppedRegion != core.RegionB {
		t.Errorf("Conflicts = %+v, want one dropped B row", res.Stats.Conflicts)
	}

	info, err := os.Stat(cfg.Output.IntermediatePath)
	if err != nil {
		t.Fatal(err)
	}
	if res.IntermediateBytes != info.Size() {
		t.Errorf("IntermediateBytes = %d, want %d", res.IntermediateBytes, info.Size())
	}

	out, err := csv.ReadTable(cfg.Output.IntermediatePath)
	if err != nil {
		t.Fatalf("intermediate file: %v", err)
	}
	wantCols := []string{"OrderId", "QuantityOrdered", "ItemPrice", "Region", "TotalSales"}
	if !reflect.DeepEqual(out.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", out.Columns, wantCols)
	}
	wantRows := [][]string{
		{"1", "2", "5.0", "A", "10.0"},
		{"2", "3", "4.0", "B", "12.0"},
	}
	if !reflect.DeepEqual(out.Rows, wantRows) {
		t.Errorf("Rows = %v, want %v", out.Rows, wantRows)
	}

	db, err := sql.Open("sqlite", cfg.Database.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var region string
	var total float64
	err = db.QueryRow(`SELECT "Region", "TotalSales" FROM "SalesData" WHERE "OrderId" = 1`).Scan(&region, &total)
	if err != nil {
		t.Fatal(err)
	}
	if region != "A" || total != 10 {
		t.Errorf("order 1 = (%s, %v), want (A, 10)", region, total)
	}
}

func TestRunMissingSource(t *testing.T) {
	cfg := testConfig(t, "4.0")
	cfg.Input.RegionA = filepath.Join(t.TempDir(), "nope.xlsx")
	fake := &fakeLoader{}

	_, err := Run(context.Background(), cfg, Options{Loader: fake})

	var se *core.StageError
	if !errors.As(err, &se) || se.Stage != core.StageRead {
		t.Fatalf("Run() error = %v, want read stage error", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
	if fake.calls != 0 {
		t.Error("loader was called after a read failure")
	}
	if _, err := os.Stat(cfg.Output.IntermediatePath); !os.IsNotExist(err) {
		t.Error("intermediate file written after a read failure")
	}
}

func TestRunTransformFailure(t *testing.T) {
	cfg := testConfig(t, "four")
	fake := &fakeLoader{}

	_, err := Run(context.Background(), cfg, Options{Loader: fake})

	if core.StageOf(err) != core.StageTransform {
		t.Fatalf("Run() error = %v, want transform stage", err)
	}
	if !errors.Is(err, core.ErrNotNumeric) {
		t.Errorf("error should wrap ErrNotNumeric: %v", err)
	}
	if fake.calls != 0 {
		t.Error("loader was called after a transform failure")
	}
	if _, err := os.Stat(cfg.Output.IntermediatePath); !os.IsNotExist(err) {
		t.Error("intermediate file written after a transform failure")
	}
}

func TestRunWriteFailure(t *testing.T) {
	cfg := testConfig(t, "4.0")
	cfg.Output.IntermediatePath = filepath.Join(t.TempDir(), "missing", "finalSales.csv")
	fake := &fakeLoader{}

	_, err := Run(context.Background(), cfg, Options{Loader: fake})

	if core.StageOf(err) != core.StageWrite {
		t.Fatalf("Run() error = %v, want write stage", err)
	}
	if fake.calls != 0 {
		t.Error("loader was called after a write failure")
	}
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig(t, "4.0")
	cfg.Output.DryRun = true
	fake := &fakeLoader{}

	res, err := Run(context.Background(), cfg, Options{Loader: fake})
	if err != nil {
		t.Fatal(err)
	}
	if fake.calls != 0 || res.Loaded {
		t.Error("dry run reached the loader")
	}
	if _, err := os.Stat(cfg.Output.IntermediatePath); err != nil {
		t.Errorf("dry run should still write the file: %v", err)
	}
}

func TestRunSkipIntermediate(t *testing.T) {
	cfg := testConfig(t, "4.0")
	cfg.Output.SkipIntermediate = true
	fake := &fakeLoader{}

	res, err := Run(context.Background(), cfg, Options{Loader: fake})
	if err != nil {
		t.Fatal(err)
	}
	if res.IntermediatePath != "" {
		t.Errorf("IntermediatePath = %q, want empty", res.IntermediatePath)
	}
	if _, err := os.Stat(cfg.Output.IntermediatePath); !os.IsNotExist(err) {
		t.Error("intermediate file written although skipped")
	}
	if fake.calls != 1 || fake.got.Len() != 2 {
		t.Errorf("loader calls = %d, want 1 with 2 rows", fake.calls)
	}
}

func TestRunLoadFailure(t *testing.T) {
	cfg := testConfig(t, "4.0")
	fake := &fakeLoader{err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")}

	_, err := Run(context.Background(), cfg, Options{Loader: fake})

	if core.StageOf(err) != core.StageLoad {
		t.Fatalf("Run() error = %v, want load stage", err)
	}
	if code := core.MapError(err).Code; code != "DB001" {
		t.Errorf("code = %s, want DB001", code)
	}
	if _, err := os.Stat(cfg.Output.IntermediatePath); err != nil {
		t.Errorf("intermediate file should remain after a load failure: %v", err)
	}
}

func TestRunLoadTimeout(t *testing.T) {
	cfg := testConfig(t, "4.0")
	cfg.Load.Timeout = 20 * time.Millisecond
	fake := &fakeLoader{block: true}

	_, err := Run(context.Background(), cfg, Options{Loader: fake})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
	if core.StageOf(err) != core.StageLoad {
		t.Errorf("stage = %s, want load", core.StageOf(err))
	}
}

func TestRunBadDriver(t *testing.T) {
	cfg := testConfig(t, "4.0")
	cfg.Database.Driver = "oracle"

	_, err := Run(context.Background(), cfg, Options{})
	if core.StageOf(err) != core.StageLoad {
		t.Fatalf("Run() error = %v, want load stage", err)
	}
}

package core

import (
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgtype"
)

// AddRegion returns a copy of t with a Region column set to region on every
// row. An existing Region column is overwritten in place.
func AddRegion(t *Table, region string) *Table {
	out := t.Clone()
	// the fill function never fails
	_ = out.SetColumn(ColRegion, func(int, []string) (string, error) {
		return region, nil
	})
	return out
}

// DedupeBy keeps the first row for each distinct value of key and drops the
// rest. Values are compared exactly as read, so "7", " 7" and "'7'" are
// three different orders. The returned conflicts list every dropped row whose other cells (Region aside)
// differ from the kept row.
func DedupeBy(t *Table, key string) (*Table, int, []Conflict, error) {
	pos := t.Index(key)
	if pos < 0 {
		return nil, 0, nil, fmt.Errorf("dedupe: %w: %q", ErrMissingColumn, key)
	}
	regionPos := t.Index(ColRegion)

	out := &Table{Columns: slices.Clone(t.Columns), Rows: make([][]string, 0, t.Len())}
	out.reindex()

	seen := make(map[string]int, t.Len()) // id -> row position in t
	var conflicts []Conflict
	dropped := 0

	for i, row := range t.Rows {
		id := row[pos]
		first, dup := seen[id]
		if !dup {
			seen[id] = i
			out.Rows = append(out.Rows, slices.Clone(row))
			continue
		}

		dropped++
		kept := t.Rows[first]
		if !sameExcept(kept, row, regionPos) {
			c := Conflict{OrderID: id, KeptRow: first, DroppedRow: i}
			if regionPos >= 0 {
				c.KeptRegion = kept[regionPos]
				c.DroppedRegion = row[regionPos]
			}
			conflicts = append(conflicts, c)
		}
	}

	return out, dropped, conflicts, nil
}

func sameExcept(a, b []string, skip int) bool {
	for i := range a {
		if i == skip {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeriveTotalSales sets TotalSales = QuantityOrdered * ItemPrice on every row
// of t, in place. The product is exact. An empty operand gives an empty
// TotalSales; a non-numeric operand fails the whole call with the row number
// (1-based, data rows only) and column.
func DeriveTotalSales(t *Table) error {
	for _, col := range []string{ColQuantity, ColItemPrice} {
		if !t.Has(col) {
			return fmt.Errorf("derive %s: %w: %q", ColTotalSales, ErrMissingColumn, col)
		}
	}

	return t.SetColumn(ColTotalSales, func(i int, _ []string) (string, error) {
		qty, err := t.numericCell(i, ColQuantity)
		if err != nil {
			return "", err
		}
		price, err := t.numericCell(i, ColItemPrice)
		if err != nil {
			return "", err
		}
		total, err := MulNumeric(qty, price)
		if err != nil {
			return "", fmt.Errorf("row %d column %s: %w", i+1, ColTotalSales, err)
		}
		return FormatNumeric(total), nil
	})
}

// numericCell parses the named cell of row i, naming row and column on error.
func (t *Table) numericCell(i int, col string) (pgtype.Numeric, error) {
	v, err := t.Value(i, col)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	n, err := ParseNumeric(v)
	if err != nil {
		return pgtype.Numeric{}, fmt.Errorf("row %d column %s: %w", i+1, col, err)
	}
	return n, nil
}

// ApplyBusinessRules merges the two regional tables into one sales table:
// region tagging, concatenation (A first), first-wins dedupe on OrderId and
// the TotalSales derivation. The inputs are not modified.
func ApplyBusinessRules(a, b *Table) (*Table, RuleStats, error) {
	stats := RuleStats{RowsA: a.Len(), RowsB: b.Len()}

	merged := Concat(AddRegion(a, RegionA), AddRegion(b, RegionB))
	stats.Combined = merged.Len()

	deduped, dropped, conflicts, err := DedupeBy(merged, ColOrderID)
	if err != nil {
		return nil, stats, err
	}
	stats.Duplicates = dropped
	stats.Conflicts = conflicts

	if err := DeriveTotalSales(deduped); err != nil {
		return nil, stats, err
	}
	stats.Output = deduped.Len()

	return deduped, stats, nil
}

package core

import (
	"fmt"
	"slices"
)

// NewTable creates an empty table with the given columns.
// Duplicate column names are rejected because cells are addressed by name.
func NewTable(columns []string) (*Table, error) {
	idx := make(HeaderIndex, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		idx[c] = i
	}
	return &Table{Columns: slices.Clone(columns), index: idx}, nil
}

// MustTable is NewTable for literals in tests and fixtures. It panics on error.
func MustTable(columns []string, rows ...[]string) *Table {
	t, err := NewTable(columns)
	if err != nil {
		panic(err)
	}
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Append adds a row. Short rows are padded with empty cells and long rows
// are truncated to the column count.
func (t *Table) Append(row []string) {
	cells := make([]string, len(t.Columns))
	copy(cells, row)
	t.Rows = append(t.Rows, cells)
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, name string) (string, error) {
	pos := t.Index(name)
	if pos < 0 {
		return "", fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return t.Rows[i][pos], nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = slices.Clone(r)
	}
	out.reindex()
	return out
}

// SetColumn assigns fn(i, row) to the named column of every row, adding the
// column at the end when it does not exist yet. fn sees the row as it was
// before the assignment.
func (t *Table) SetColumn(name string, fn func(i int, row []string) (string, error)) error {
	pos := t.Index(name)
	if pos < 0 {
		t.Columns = append(t.Columns, name)
		t.index[name] = len(t.Columns) - 1
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], "")
		}
		pos = len(t.Columns) - 1
	}

	for i, row := range t.Rows {
		v, err := fn(i, row)
		if err != nil {
			return err
		}
		row[pos] = v
	}
	return nil
}

func (t *Table) reindex() {
	t.index = make(HeaderIndex, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Concat stacks b under a. The result has a's columns in order followed by
// any of b's columns a lacks; cells for columns a side lacks are empty.
func Concat(a, b *Table) *Table {
	cols := slices.Clone(a.Columns)
	for _, c := range b.Columns {
		if !a.Has(c) {
			cols = append(cols, c)
		}
	}

	out := &Table{Columns: cols, Rows: make([][]string, 0, a.Len()+b.Len())}
	out.reindex()

	for _, src := range []*Table{a, b} {
		// position in out for each of src's columns
		mapping := make([]int, len(src.Columns))
		for i, c := range src.Columns {
			mapping[i] = out.index[c]
		}
		for _, r := range src.Rows {
			cells := make([]string, len(cols))
			for i, v := range r {
				cells[mapping[i]] = v
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out
}

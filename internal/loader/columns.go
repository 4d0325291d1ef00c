package loader

import (
	"strings"

	"github.com/JonMunkholm/salesload/internal/core"
)

// Kind is the storage class inferred for a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Column is a target column and its inferred kind.
type Column struct {
	Name string
	Kind Kind
}

// InferColumns picks a kind for every column of t from its values. Empty
// cells are NULL and do not vote. A column of only integers is KindInteger,
// one of integers and decimals is KindFloat, anything else (including a
// column with no values at all) is KindText.
func InferColumns(t *core.Table) []Column {
	cols := make([]Column, len(t.Columns))
	for j, name := range t.Columns {
		cols[j] = Column{Name: name, Kind: inferKind(t, j)}
	}
	return cols
}

func inferKind(t *core.Table, j int) Kind {
	kind, seen := KindInteger, false
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[j])
		if v == "" {
			continue
		}
		seen = true
		switch {
		case core.IsIntegerText(v):
		case core.IsDecimalText(v):
			kind = KindFloat
		default:
			return KindText
		}
	}
	if !seen {
		return KindText
	}
	return kind
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// rowArgs converts a row to statement arguments, empty cells as NULL.
func rowArgs(row []string) []any {
	args := make([]any, len(row))
	for i, v := range row {
		if v != "" {
			args[i] = v
		}
	}
	return args
}

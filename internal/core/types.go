package core

// Column names the business rules depend on. Matching is case-sensitive.
const (
	ColOrderID    = "OrderId"
	ColQuantity   = "QuantityOrdered"
	ColItemPrice  = "ItemPrice"
	ColRegion     = "Region"
	ColTotalSales = "TotalSales"
)

// Region labels for the two source extracts.
const (
	RegionA = "A"
	RegionB = "B"
)

// HeaderIndex maps column names to their position in a row.
type HeaderIndex map[string]int

// Table is an ordered, in-memory dataset. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string

	index HeaderIndex
}

// Conflict records a duplicate OrderId whose dropped row differed from the
// row that was kept.
type Conflict struct {
	OrderID       string
	KeptRegion    string
	DroppedRegion string
	KeptRow       int // position in the concatenated table
	DroppedRow    int
}

// RuleStats summarizes one ApplyBusinessRules call.
type RuleStats struct {
	RowsA      int
	RowsB      int
	Combined   int
	Duplicates int
	Conflicts  []Conflict
	Output     int
}

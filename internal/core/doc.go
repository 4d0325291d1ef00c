// Package core provides the business logic for merging regional sales extracts.
//
// This package holds the in-memory table model and the transform rules and
// has no I/O of its own. Readers, writers and loaders in sibling packages
// produce and consume [Table] values; the pipeline package sequences them.
//
// # Tables
//
// A [Table] is an ordered list of column names and an ordered list of rows,
// each row holding one string cell per column. Cells keep the text the source
// provided, so numeric precision is whatever the extract carried.
//
// # Business Rules
//
// [ApplyBusinessRules] implements the merge:
//
//  1. Tag region A rows with Region=A and region B rows with Region=B
//  2. Concatenate, region A first, preserving row order
//  3. Drop every row whose OrderId was already seen (first occurrence wins)
//  4. Set TotalSales = QuantityOrdered * ItemPrice using exact decimal math
//
// # Error Handling
//
// Failures are wrapped in a [StageError] naming the pipeline stage. Technical
// errors are mapped to support codes using [MapError]:
//
//   - READ001-READ004: Source extract errors
//   - VAL001-VAL003: Transform errors (missing column, non-numeric or out-of-range value)
//   - FILE001-FILE002: Intermediate file errors
//   - DB001-DB008: Database load errors
package core

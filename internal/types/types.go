// =============================================================================
// FX Window Report - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - report      (the builder consumes rows)
//   - workbook    (the XLSX reader produces rows)
//   - csvparser   (the CSV reader produces rows)
//   - validation  (the data-quality inspector reads rows)
//
// =============================================================================

package types

import (
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// ROW TYPES
// =============================================================================

// ColumnsPerRow is the number of source columns carried by a RawRow.
// Columns past the fourth are dropped by every reader.
const ColumnsPerRow = 4

// Source column positions (0-based).
const (
	ColTime = iota
	ColPrice
	ColAmount
	ColExtra
)

// RawRow is a single source row as read from the input file.
//
// The cells are untyped on purpose: the time column may hold text, a
// timeparse.TimeOfDay or a time.Time, and the numeric columns may hold
// float64, numeric text or nil when the cell is empty.
type RawRow [ColumnsPerRow]any

// NewRawRow builds a RawRow from a variable-length slice, padding missing
// cells with nil and dropping anything past ColumnsPerRow.
func NewRawRow(cells ...any) RawRow {
	var row RawRow
	for i := 0; i < len(cells) && i < ColumnsPerRow; i++ {
		row[i] = cells[i]
	}
	return row
}

// Dataset is the full row set of one input, header first.
type Dataset struct {
	// Source is the file path or upload name the rows came from.
	// Used only for diagnostics.
	Source string

	// Rows holds the header at index 0 followed by the data rows.
	Rows []RawRow
}

// Header returns the header row, or false when the dataset is empty.
func (d *Dataset) Header() (RawRow, bool) {
	if len(d.Rows) == 0 {
		return RawRow{}, false
	}
	return d.Rows[0], true
}

// DataRowCount returns the number of rows after the header.
func (d *Dataset) DataRowCount() int {
	if len(d.Rows) < 2 {
		return 0
	}
	return len(d.Rows) - 1
}

// =============================================================================
// CELL HELPERS
// =============================================================================

// IsEmpty reports whether a cell holds no value (nil or blank text).
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return math.IsNaN(t)
	}
	return false
}

// ToFloat coerces a cell to a finite float64.
//
// RETURNS:
//   - the value and true for numbers and numeric text
//   - 0 and false for empty, non-numeric or non-finite values
func ToFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CoerceNumeric returns a float64 when the text is numeric and the text
// itself otherwise. Empty text becomes nil.
//
// Readers use it on the price, amount and extra columns so that numbers
// keep their type when the row is written back into the report.
func CoerceNumeric(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if f, ok := ToFloat(trimmed); ok {
		return f
	}
	return s
}

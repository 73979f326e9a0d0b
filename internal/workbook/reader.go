// =============================================================================
// FX Window Report - XLSX Reader
// =============================================================================
//
// This module reads the observation sheet of an XLSX/XLSM workbook into a
// types.Dataset.
//
// SHEET STRUCTURE (Expected Columns):
//   Only the first four columns are read. Row 1 is the header.
//
//   | Column A   | Column B | Column C | Column D |
//   |------------|----------|----------|----------|
//   | Hora       | Precio   | Monto    | Moneda   |
//   | 09:01:12   | 950.12   | 250000   | USD      |
//   | 1:30 PM    | 951.40   | 100000   | USD      |
//
// CELL VALUES:
//   - Column A keeps its type when the cell is a number with a date or time
//     number format: a serial below 1 becomes a timeparse.TimeOfDay, any
//     other serial a time.Time. Text cells are read as displayed.
//   - Columns B-D are read raw; numeric text becomes float64.
//   - Empty cells become nil.
//
// =============================================================================

package workbook

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/types"
)

// DefaultSheetName is the sheet holding the observations.
const DefaultSheetName = "Data"

// ErrSheetNotFound is returned when the workbook lacks the requested sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// =============================================================================
// READ OPTIONS
// =============================================================================

// ReadOptions controls which sheet is read.
type ReadOptions struct {
	// SheetName is the sheet holding the observations.
	// Default: "Data"
	SheetName string
}

// DefaultReadOptions returns the default reader configuration.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{SheetName: DefaultSheetName}
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// Open reads the observation sheet of the workbook at path.
//
// PARAMETERS:
//   - path: The path to the XLSX/XLSM file.
//   - opts: Sheet selection.
//
// RETURNS:
//   - The dataset, header first.
//   - An error if the file cannot be opened or the sheet is missing.
func Open(path string, opts ReadOptions) (*types.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readFile(f, path, opts)
}

// Read is like Open but reads the workbook from r. name is used for
// diagnostics.
func Read(r io.Reader, name string, opts ReadOptions) (*types.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readFile(f, name, opts)
}

func readFile(f *excelize.File, source string, opts ReadOptions) (*types.Dataset, error) {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	// Displayed values for text time cells and the header.
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	// Raw values for the numeric columns.
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read raw rows: %w", err)
	}

	ds := &types.Dataset{
		Source: source,
		Rows:   make([]types.RawRow, 0, len(shown)),
	}
	for i := range shown {
		if i == 0 {
			ds.Rows = append(ds.Rows, headerRow(shown[0]))
			continue
		}
		var rawRow []string
		if i < len(raw) {
			rawRow = raw[i]
		}
		row := dataRow(shown[i], rawRow)
		if t, ok := typedTime(f, sheet, i+1, getCell(rawRow, types.ColTime), date1904); ok {
			row[types.ColTime] = t
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func headerRow(cells []string) types.RawRow {
	var row types.RawRow
	for c := 0; c < types.ColumnsPerRow; c++ {
		if v := getCell(cells, c); v != "" {
			row[c] = v
		}
	}
	return row
}

func dataRow(shown, raw []string) types.RawRow {
	var row types.RawRow
	if v := getCell(shown, types.ColTime); v != "" {
		row[types.ColTime] = v
	}
	for c := types.ColPrice; c < types.ColumnsPerRow; c++ {
		row[c] = types.CoerceNumeric(getCell(raw, c))
	}
	return row
}

// typedTime converts a numeric column A cell that carries a date or time
// number format. ok is false for text cells and plain numbers.
func typedTime(f *excelize.File, sheet string, row int, raw string, date1904 bool) (any, bool) {
	if raw == "" {
		return nil, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial < 0 {
		return nil, false
	}

	cell, err := excelize.CoordinatesToCellName(types.ColTime+1, row)
	if err != nil {
		return nil, false
	}
	if typ, err := f.GetCellType(sheet, cell); err != nil ||
		(typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
		return nil, false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return nil, false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateTimeFormat(style) {
		return nil, false
	}

	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return nil, false
	}
	t = t.Round(time.Second)
	if serial < 1 {
		return timeparse.FromTime(t), true
	}
	return t, true
}

// Built-in number format ids that display a date or a time.
var dateTimeNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

func isDateTimeFormat(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return hasDateTimeTokens(*style.CustomNumFmt)
	}
	return dateTimeNumFmts[style.NumFmt]
}

// hasDateTimeTokens reports whether a format code contains a y, m, d, h or
// s token outside quoted text, escapes and bracketed sections. Elapsed-time
// brackets such as [h] count as time tokens.
func hasDateTimeTokens(code string) bool {
	code = strings.ToLower(code)
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			if j := strings.IndexByte(code[i+1:], '"'); j >= 0 {
				i += j + 1
			} else {
				return false
			}
		case '\\', '_', '*':
			i++
		case '[':
			j := strings.IndexByte(code[i:], ']')
			if j < 0 {
				return false
			}
			if inner := code[i+1 : i+j]; inner != "" && strings.Trim(inner, "hms") == "" {
				return true
			}
			i += j
		case 'y', 'm', 'd', 'h', 's':
			return true
		}
	}
	return false
}

// getCell safely returns a trimmed cell; short rows are padded with "".
func getCell(row []string, index int) string {
	if index < len(row) {
		return strings.TrimSpace(row[index])
	}
	return ""
}

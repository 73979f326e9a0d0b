// =============================================================================
// FX Window Report - CSV Parser Module
// =============================================================================
//
// This module reads exchange-rate observations exported as CSV. It is the
// CSV counterpart of the workbook reader and produces the same
// types.Dataset:
//   - Row 1 is the header
//   - Only the first four columns are kept (time, price, amount, extra)
//   - Price, amount and extra are coerced to float64 when numeric
//   - Fully blank lines are skipped
//
// FEATURES:
//   - Configurable delimiter with the usual aliases (tab, pipe, semicolon)
//   - Lazy quotes and variable field counts for hand-edited exports
//   - Leading UTF-8 byte order mark is removed from the first header cell
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/fx-window-report/internal/types"
)

const utf8BOM = "\ufeff"

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how a CSV export is read.
type Settings struct {
	// Delimiter is the field separator. Accepts a single character or one of
	// the aliases "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string
}

// DefaultSettings returns comma-separated settings.
func DefaultSettings() Settings {
	return Settings{Delimiter: ","}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter settings.
//
// RETURNS:
//   - The dataset, header first.
//   - An error if the file cannot be read or is empty.
func Parse(filePath string, settings Settings) (*types.Dataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filePath, settings)
}

// ParseReader is like Parse but reads from r. name is recorded as the
// dataset source.
func ParseReader(r io.Reader, name string, settings Settings) (*types.Dataset, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	ds := &types.Dataset{
		Source: name,
		Rows:   make([]types.RawRow, 0, len(allRows)),
	}
	ds.Rows = append(ds.Rows, headerRow(allRows[0]))

	for _, row := range allRows[1:] {
		if isRowEmpty(row) {
			continue
		}
		ds.Rows = append(ds.Rows, dataRow(row))
	}

	return ds, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// Delimiter resolves a configured delimiter string to the separator rune.
func Delimiter(s string) rune {
	switch s {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon", "SEMICOLON":
		return ';'
	}
	if len(s) > 0 {
		return rune(s[0])
	}
	return ','
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func headerRow(cells []string) types.RawRow {
	var row types.RawRow
	for c := 0; c < types.ColumnsPerRow && c < len(cells); c++ {
		v := cells[c]
		if c == 0 {
			v = strings.TrimPrefix(v, utf8BOM)
		}
		if v = strings.TrimSpace(v); v != "" {
			row[c] = v
		}
	}
	return row
}

func dataRow(cells []string) types.RawRow {
	var row types.RawRow
	if len(cells) > types.ColTime {
		if v := strings.TrimSpace(cells[types.ColTime]); v != "" {
			row[types.ColTime] = v
		}
	}
	for c := types.ColPrice; c < types.ColumnsPerRow && c < len(cells); c++ {
		row[c] = types.CoerceNumeric(cells[c])
	}
	return row
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// FX Window Report - XLSX Writer
// =============================================================================
//
// This module renders a report.Grid into an XLSX workbook. It is the only
// place that knows what the style markers look like:
//
//   StyleBold -> bold font
//   StyleBody -> small font (MS Sans Serif 8pt, black), centered both ways
//   StyleNone -> workbook default
//
// =============================================================================

package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
)

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Default output look.
const (
	DefaultOutputSheet = "Reporte"
	DefaultFontName    = "MS Sans Serif"
	DefaultFontSize    = 8
)

// WriteOptions controls the rendered sheet.
type WriteOptions struct {
	// SheetName is the name of the single output sheet.
	// Default: "Reporte"
	SheetName string

	// FontName and FontSize define StyleBody.
	FontName string
	FontSize float64
}

// DefaultWriteOptions returns the default writer configuration.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		SheetName: DefaultOutputSheet,
		FontName:  DefaultFontName,
		FontSize:  DefaultFontSize,
	}
}

// Render writes every grid cell into a new workbook. The caller owns the
// returned file and must Close it.
func Render(grid *report.Grid, opts WriteOptions) (*excelize.File, error) {
	if opts.SheetName == "" {
		opts.SheetName = DefaultOutputSheet
	}
	if opts.FontName == "" {
		opts.FontName = DefaultFontName
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newStyles(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	for _, e := range grid.Cells() {
		name, err := excelize.CoordinatesToCellName(e.Col, e.Row)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("invalid cell (%d,%d): %w", e.Row, e.Col, err)
		}
		if err := f.SetCellValue(opts.SheetName, name, cellValue(e.Value)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set %s: %w", name, err)
		}
		if id, ok := styles[e.Style]; ok {
			if err := f.SetCellStyle(opts.SheetName, name, name, id); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to style %s: %w", name, err)
			}
		}
	}

	return f, nil
}

// Encode renders the grid and returns the XLSX bytes.
func Encode(grid *report.Grid, opts WriteOptions) ([]byte, error) {
	f, err := Render(grid, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Save renders the grid and writes it to path.
func Save(grid *report.Grid, path string, opts WriteOptions) error {
	f, err := Render(grid, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File, opts WriteOptions) (map[report.Style]int, error) {
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bold style: %w", err)
	}

	body, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Family: opts.FontName,
			Size:   opts.FontSize,
			Color:  "000000",
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body style: %w", err)
	}

	return map[report.Style]int{
		report.StyleBold: bold,
		report.StyleBody: body,
	}, nil
}

// cellValue maps grid values onto types excelize writes natively.
func cellValue(v any) any {
	switch t := v.(type) {
	case timeparse.TimeOfDay:
		return t.String()
	case *timeparse.TimeOfDay:
		if t == nil {
			return nil
		}
		return t.String()
	}
	return v
}

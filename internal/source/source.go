// Package source picks the reader for an input file by its extension.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/fx-window-report/internal/csvparser"
	"github.com/ginjaninja78/fx-window-report/internal/types"
	"github.com/ginjaninja78/fx-window-report/internal/workbook"
)

// ErrUnsupportedFormat is returned for extensions no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies a reader.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Extensions lists the accepted input extensions.
var Extensions = []string{".xlsx", ".xlsm", ".csv"}

// Options carries the per-format reader settings.
type Options struct {
	SheetName    string
	CSVDelimiter string
}

// DetectFormat maps a file name to its reader.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case "":
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filepath.Base(name))
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Load reads the file at path.
func Load(path string, opts Options) (*types.Dataset, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return csvparser.Parse(path, csvparser.Settings{Delimiter: opts.CSVDelimiter})
	default:
		return workbook.Open(path, workbook.ReadOptions{SheetName: opts.SheetName})
	}
}

// Read reads an upload; name supplies the extension.
func Read(name string, r io.Reader, opts Options) (*types.Dataset, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return csvparser.ParseReader(r, name, csvparser.Settings{Delimiter: opts.CSVDelimiter})
	default:
		return workbook.Read(r, name, workbook.ReadOptions{SheetName: opts.SheetName})
	}
}

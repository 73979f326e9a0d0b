// =============================================================================
// FX Window Report - Main Entry Point
// =============================================================================
//
// USAGE:
//   fxreport generate  - Build the report for one input file
//   fxreport process   - Build reports for every file in the input directory
//   fxreport validate  - Check an input file without writing a report
//   fxreport serve     - Serve the report API over HTTP
//   fxreport version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (time parsing, report layout, workbook I/O,
//                      validation, configuration, logging, metrics, HTTP API)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/fx-window-report/cmd"
)

func main() {
	cmd.Execute()
}

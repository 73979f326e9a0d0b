// =============================================================================
// FX Window Report - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   fxreport validate --file rates.xlsx [flags]
//
// FLAGS:
//   --file        : Input file (.xlsx, .xlsm or .csv)
//   --start/--end : Window bounds, HH:MM; default from the configuration
//   --strict      : Treat warnings as errors
//   --error-log   : Write the findings to this file
//
// Nothing is written to the output directory. The command fails when any
// error-severity finding (or, with --strict, any finding) is present.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-window-report/internal/source"
	"github.com/ginjaninja78/fx-window-report/internal/validation"
)

var validateFlags struct {
	file     string
	start    string
	end      string
	strict   bool
	errorLog string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an input file without writing a report",
	Long: `The validate command reads one input file and lists the rows that the
report would drop or flag: unparseable times, missing or non-numeric prices
and amounts, an empty window and statistics past the last data row.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.file, "file", "", "Input file (.xlsx, .xlsm or .csv)")
	validateCmd.Flags().StringVar(&validateFlags.start, "start", "", "Window start (HH:MM); default report.window_start")
	validateCmd.Flags().StringVar(&validateFlags.end, "end", "", "Window end (HH:MM); default report.window_end")
	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "Treat warnings as errors")
	validateCmd.Flags().StringVar(&validateFlags.errorLog, "error-log", "", "Write the findings to this file")
	validateCmd.MarkFlagRequired("file")
}

func runValidate(cmd *cobra.Command) error {
	start, end, err := resolveWindow(appConfig, validateFlags.start, validateFlags.end)
	if err != nil {
		return err
	}

	ds, err := source.Load(validateFlags.file, appConfig.SourceOptions())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	v := validation.NewValidatorWithOptions(start, end, validation.ValidationOptions{
		TreatWarningsAsErrors: validateFlags.strict,
		Layout:                appConfig.Layout(),
	})
	result := v.Validate(ds)

	appLogger.WithComponent("validate").WithFields(logrus.Fields{
		"file":     validateFlags.file,
		"rows":     result.RowsInspected,
		"window":   result.InWindow,
		"errors":   result.ErrorCount,
		"warnings": result.WarningCount,
	}).Info("Validation finished")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows inspected:  %d\n", result.RowsInspected)
	fmt.Fprintf(out, "In window:       %d (%s - %s)\n", result.InWindow, start, end)
	fmt.Fprintf(out, "Errors:          %d\n", result.ErrorCount)
	fmt.Fprintf(out, "Warnings:        %d\n\n", result.WarningCount)
	fmt.Fprint(out, validation.FormatErrors(result.Errors))

	if validateFlags.errorLog != "" {
		if err := validation.WriteErrorLog(result.Errors, validateFlags.errorLog); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFindings written to %s\n", validateFlags.errorLog)
	}

	if !result.IsValid {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", result.ErrorCount, result.WarningCount)
	}
	return nil
}

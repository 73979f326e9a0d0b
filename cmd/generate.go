// =============================================================================
// FX Window Report - Generate Command
// =============================================================================
//
// COMMAND USAGE:
//   fxreport generate --file rates.xlsx [flags]
//
// FLAGS:
//   --file        : Input file (.xlsx, .xlsm or .csv)
//   --start/--end : Window bounds, HH:MM; default from the configuration
//   --output-dir  : Directory for the report; default output_dir
//   --dry-run     : Build the report without writing it
//
// An input without data rows is reported as a warning and the command
// exits successfully, without writing a report.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-window-report/internal/converter"
	"github.com/ginjaninja78/fx-window-report/internal/report"
)

var generateFlags struct {
	file      string
	start     string
	end       string
	outputDir string
	dryRun    bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the window report for one input file",
	Long: `The generate command reads one input file, keeps the observations inside
the time window and writes the report workbook to the output directory.

Data problems (non-numeric prices or amounts, statistics past the last data
row) are logged as warnings and do not stop the report. The input file is
left in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateFlags.file, "file", "", "Input file (.xlsx, .xlsm or .csv)")
	generateCmd.Flags().StringVar(&generateFlags.start, "start", "", "Window start (HH:MM); default report.window_start")
	generateCmd.Flags().StringVar(&generateFlags.end, "end", "", "Window end (HH:MM); default report.window_end")
	generateCmd.Flags().StringVar(&generateFlags.outputDir, "output-dir", "", "Output directory; default output_dir")
	generateCmd.Flags().BoolVar(&generateFlags.dryRun, "dry-run", false, "Build the report without writing it")
	generateCmd.MarkFlagRequired("file")
}

func runGenerate(cmd *cobra.Command) error {
	start, end, err := resolveWindow(appConfig, generateFlags.start, generateFlags.end)
	if err != nil {
		return err
	}

	opts := []converter.Option{
		converter.WithWindow(start, end),
		converter.WithArchive(false),
		converter.WithDryRun(generateFlags.dryRun),
	}
	if generateFlags.outputDir != "" {
		opts = append(opts, converter.WithOutputDir(generateFlags.outputDir))
	}

	result := converter.New(generateFlags.file, appConfig, appLogger, nil, opts...).Run(cmd.Context())
	if errors.Is(result.Error, report.ErrInsufficientData) {
		appLogger.WithField("file", generateFlags.file).Warn("Input has no data rows, no report written")
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %s has no data rows, no report written\n", filepath.Base(generateFlags.file))
		return nil
	}
	if result.Error != nil {
		return result.Error
	}

	out := cmd.OutOrStdout()
	verb := "Wrote"
	if generateFlags.dryRun {
		verb = "Would write"
	}
	fmt.Fprintf(out, "%s %s\n", verb, result.OutputFile)
	fmt.Fprintf(out, "Window:          %s - %s\n", start, end)
	fmt.Fprintf(out, "Rows read:       %d\n", result.Stats.RowsRead)
	fmt.Fprintf(out, "In window:       %d\n", result.Stats.RecordsInWindow)
	fmt.Fprintf(out, "Blocks:          %d\n", result.Stats.Blocks)
	if st := result.Stats.Summary; st != nil {
		fmt.Fprintf(out, "Min/Max/Mean:    %v / %v / %v\n", st.Min, st.Max, st.Mean)
		fmt.Fprintf(out, "Sum:             %d\n", st.Sum)
		fmt.Fprintf(out, "Volatility:      %v\n", st.StdDev)
	}
	if len(result.Issues) > 0 {
		fmt.Fprintf(out, "Issues:          %d (see log)\n", len(result.Issues))
	}
	return nil
}

// =============================================================================
// FX Window Report - Process Command
// =============================================================================
//
// This file defines the 'process' command, which builds a report for every
// input file found in the input directory.
//
// COMMAND USAGE:
//   fxreport process [flags]
//
// FLAGS:
//   --dry-run     : Build the reports without writing or archiving anything
//   --no-archive  : Leave processed inputs in the input directory
//   --summary     : Write a processing summary file to the output directory
//
// PROCESSING PIPELINE:
//   1. Create the input, output and archive directories if needed
//   2. Discover .xlsx, .xlsm and .csv files in the input directory
//   3. For each file (concurrently, at most max_concurrency at a time):
//      a. Read the rows
//      b. Build and render the report
//      c. Write the output file (named with batch_name_format)
//      d. Archive the input
//   4. Print the summary
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/fx-window-report/internal/converter"
	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/source"
	"github.com/ginjaninja78/fx-window-report/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var processFlags struct {
	dryRun    bool
	noArchive bool
	summary   bool
}

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build a report for every file in the input directory",
	Long: `The process command scans the input directory for .xlsx, .xlsm and .csv
files and builds one report per file.

Files are processed concurrently (max_concurrency). Each file is processed
independently, and an error in one file does not affect the others.

On successful processing:
  - The report is placed in the output directory
  - The input is moved to the input archive

On error:
  - The input remains in the input directory
  - The error is printed in the summary
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&processFlags.dryRun, "dry-run", false, "Build the reports without writing or archiving anything")
	processCmd.Flags().BoolVar(&processFlags.noArchive, "no-archive", false, "Leave processed inputs in the input directory")
	processCmd.Flags().BoolVar(&processFlags.summary, "summary", false, "Write a processing summary file to the output directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	cfg := appConfig
	out := cmd.OutOrStdout()
	log := appLogger.WithComponent("process")
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	fmt.Fprintln(out, "=== FX Window Report ===")

	// =========================================================================
	// STEP 1: PREPARE DIRECTORIES
	// =========================================================================

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	inputFiles, err := files.DiscoverInputFiles(source.Extensions)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))
	log.WithField("files", len(inputFiles)).Info("Processing input directory")

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One result slot per file; workers never return an error so one failed
	// file does not cancel the others.

	generator := converter.NewGenerator(cfg, appLogger, nil)
	results := make([]converter.Result, len(inputFiles))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.MaxConcurrency)

	for i, file := range inputFiles {
		g.Go(func() error {
			results[i] = converter.New(file, cfg, appLogger, nil,
				converter.WithGenerator(generator),
				converter.WithNameFormat(cfg.BatchNameFormat),
				converter.WithDryRun(processFlags.dryRun),
				converter.WithArchive(!processFlags.noArchive),
			).Run(ctx)
			return nil
		})
	}
	g.Wait()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary.TotalFiles = len(inputFiles)
	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			if errors.Is(result.Error, report.ErrInsufficientData) {
				fmt.Fprintf(out, "  ! %s: no data rows\n", name)
			} else {
				fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			}
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRecords += result.Stats.RecordsInWindow
		summary.TotalIssues += len(result.Issues)
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			ArchivePath: result.ArchivePath,
			Records:     result.Stats.RecordsInWindow,
			Issues:      len(result.Issues),
			ProcessTime: result.Stats.ProcessingTime,
		})
		fmt.Fprintf(out, "  ✓ %s -> %s\n", name, result.OutputFile)
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	elapsed := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Records:         %d\n", summary.TotalRecords)
	fmt.Fprintf(out, "Time elapsed:    %s\n", elapsed)

	log.WithFields(logrus.Fields{
		"successful": summary.SuccessfulFiles,
		"failed":     summary.FailedFiles,
		"records":    summary.TotalRecords,
		"elapsed":    elapsed.String(),
	}).Info("Processing complete")

	if processFlags.summary && !processFlags.dryRun {
		path, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary written to %s\n", path)
	}

	return nil
}

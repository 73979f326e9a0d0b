// =============================================================================
// FX Window Report - Converter Module
// =============================================================================
//
// This module contains the single-file pipeline. It takes one input file
// from disk to a written report.
//
// CONVERSION PIPELINE:
//   1. Read the input rows (xlsx/xlsm sheet "Data", or csv)
//   2. Select the rows inside the time window and sort them
//   3. Lay out the blocks, header copies and statistics
//   4. Render the grid as an XLSX workbook
//   5. Write the output file
//   6. Archive the processed input
//
// CONCURRENCY:
//   Each file is processed by its own Converter. Converters share nothing
//   but the Generator, which holds no per-build state, so several files can
//   be processed concurrently.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-window-report/internal/config"
	"github.com/ginjaninja78/fx-window-report/internal/logging"
	"github.com/ginjaninja78/fx-window-report/internal/metrics"
	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/source"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path of the generated report. On a dry run it is the
	// path that would have been written. Empty if processing failed.
	OutputFile string

	// ArchivePath is where the input was moved, empty if it was not archived.
	ArchivePath string

	// RunID identifies this run in the logs.
	RunID string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	// errors.Is(Error, report.ErrInsufficientData) marks an input without
	// data rows, which callers treat as a warning.
	Error error

	// Issues are the data problems flagged while building.
	Issues []report.Issue

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of data rows in the input (header excluded).
	RowsRead int

	// RecordsInWindow is the number of rows written to the report.
	RecordsInWindow int

	// Blocks is the number of column blocks used.
	Blocks int

	// Summary holds the computed statistics, nil when none were written.
	Summary *report.Stats

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single input file into a report.
type Converter struct {
	inputPath string
	cfg       *config.Config
	generator *Generator
	files     *utils.FileManager
	logger    logrus.FieldLogger

	start, end timeparse.TimeOfDay
	windowSet  bool

	outputDir  string
	nameFormat string
	dryRun     bool
}

// Option customizes a Converter.
type Option func(*Converter)

// WithWindow overrides the configured time window.
func WithWindow(start, end timeparse.TimeOfDay) Option {
	return func(c *Converter) {
		c.start, c.end, c.windowSet = start, end, true
	}
}

// WithOutputDir overrides the configured output directory.
func WithOutputDir(dir string) Option {
	return func(c *Converter) { c.outputDir = dir }
}

// WithNameFormat overrides the output file name format.
func WithNameFormat(format string) Option {
	return func(c *Converter) { c.nameFormat = format }
}

// WithDryRun builds the report without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithArchive enables or disables moving the input after success.
func WithArchive(archive bool) Option {
	return func(c *Converter) { c.files.ArchiveOnSuccess = archive }
}

// WithGenerator shares a generator between converters.
func WithGenerator(g *Generator) Option {
	return func(c *Converter) { c.generator = g }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the input file.
//   - cfg: The application configuration.
//   - logger: Destination for progress and data-issue logs; nil discards.
//   - m: Metrics collectors; may be nil.
func New(inputPath string, cfg *config.Config, logger logrus.FieldLogger, m *metrics.Metrics, opts ...Option) *Converter {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Converter{
		inputPath:  inputPath,
		cfg:        cfg,
		files:      utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir),
		logger:     logger,
		outputDir:  cfg.OutputDir,
		nameFormat: cfg.OutputNameFormat,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.generator == nil {
		c.generator = NewGenerator(cfg, logger, m)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file. It checks ctx between steps and
// stops with ctx.Err() once it is done.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{
		FilePath: c.inputPath,
		RunID:    uuid.NewString(),
	}
	log := c.logger.WithFields(logrus.Fields{
		"component": "converter",
		"file":      filepath.Base(c.inputPath),
		"run_id":    result.RunID,
	})
	defer func() { result.Stats.ProcessingTime = time.Since(startTime) }()

	log.Info("Processing file")

	// =========================================================================
	// STEP 1: RESOLVE WINDOW
	// =========================================================================

	start, end := c.start, c.end
	if !c.windowSet {
		var err error
		if start, end, err = c.cfg.Window(); err != nil {
			result.Error = err
			return result
		}
	}

	// =========================================================================
	// STEP 2: READ INPUT
	// =========================================================================

	ds, err := source.Load(c.inputPath, c.cfg.SourceOptions())
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}
	result.Stats.RowsRead = ds.DataRowCount()
	log.WithField("rows", result.Stats.RowsRead).Debug("Read input rows")

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 3: BUILD AND RENDER
	// =========================================================================

	out, err := c.generator.Generate(ds, start, end)
	if err != nil {
		result.Error = fmt.Errorf("failed to build report: %w", err)
		return result
	}

	rep := out.Report
	result.Issues = rep.Issues
	result.Stats.RecordsInWindow = len(rep.Observations)
	result.Stats.Blocks = rep.Blocks
	result.Stats.Summary = rep.Stats

	// =========================================================================
	// STEP 4: WRITE OUTPUT FILE
	// =========================================================================

	outputPath := filepath.Join(c.outputDir, utils.GenerateOutputFileName(c.nameFormat, map[string]string{
		"date":  rep.GeneratedAt.Format(utils.DateLayout),
		"input": utils.InputStem(c.inputPath),
	}))
	result.OutputFile = outputPath

	if c.dryRun {
		log.WithField("output", outputPath).Info("Dry run, nothing written")
		result.Success = true
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	if err := c.writeOutput(outputPath, out.Data); err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		result.OutputFile = ""
		return result
	}

	log.WithFields(logrus.Fields{
		"output":  outputPath,
		"records": result.Stats.RecordsInWindow,
		"blocks":  result.Stats.Blocks,
	}).Info("Wrote report")

	// =========================================================================
	// STEP 5: ARCHIVE INPUT
	// =========================================================================

	if c.files.ArchiveOnSuccess {
		archivePath, err := c.files.ArchiveInputFile(c.inputPath)
		if err != nil {
			// Log the error but don't fail the processing.
			log.WithError(err).Warn("Failed to archive input file")
		} else {
			result.ArchivePath = archivePath
			log.WithField("archive", archivePath).Debug("Archived input file")
		}
	}

	result.Success = true
	return result
}

// writeOutput writes the workbook bytes, creating the directory if needed.
func (c *Converter) writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

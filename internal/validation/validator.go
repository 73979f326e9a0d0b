// =============================================================================
// FX Window Report - Validation Engine
// =============================================================================
//
// This module inspects an input dataset before (or instead of) building a
// report and lists everything that would be dropped or flagged:
//   - Rows whose time cannot be parsed (excluded from the report)
//   - In-window rows whose price is missing or not numeric
//   - In-window rows whose amount is not numeric
//   - A window that selects no rows at all
//   - Statistics that would spill past the last data row
//
// ERROR HANDLING:
//   - Errors are collected, not thrown immediately
//   - Each error includes the source row, field and value
//   - Errors are either "error" (a statistic would change) or "warning"
//     (a row is dropped or the layout is unusual)
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleInsufficientData = "insufficient_data"
	RuleHeader           = "header"
	RuleTimeMissing      = "time_missing"
	RuleTimeFormat       = "time_format"
	RuleNumeric          = "numeric"
	RuleRequired         = "required"
	RuleEmptyWindow      = "empty_window"
	RuleStatsOverflow    = "stats_overflow"
)

// fieldNames maps source columns to the names used in messages.
var fieldNames = [types.ColumnsPerRow]string{"time", "price", "amount", "extra"}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is "error" or "warning".
	Severity string

	// Field is the column the finding is about, empty for dataset-level findings.
	Field string

	// Value is the offending cell as text.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the 1-based source row, 0 for dataset-level findings.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber == 0 {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(e.Severity), e.Message)
	}
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsInspected is the number of data rows (header excluded).
	RowsInspected int

	// InWindow is the number of rows the report would contain.
	InWindow int
}

func (r *ValidationResult) add(err *ValidationError, opts ValidationOptions) {
	r.Errors = append(r.Errors, err)
	if err.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if opts.TreatWarningsAsErrors {
		r.IsValid = false
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool

	// Layout is used to predict where statistics land.
	// Default: report.DefaultLayout()
	Layout report.Layout
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{Layout: report.DefaultLayout()}
}

// Validator inspects datasets against a time window.
type Validator struct {
	start, end timeparse.TimeOfDay
	options    ValidationOptions
}

// NewValidator creates a Validator for the inclusive window [start, end].
func NewValidator(start, end timeparse.TimeOfDay) *Validator {
	return NewValidatorWithOptions(start, end, DefaultValidationOptions())
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(start, end timeparse.TimeOfDay, options ValidationOptions) *Validator {
	if options.Layout == (report.Layout{}) {
		options.Layout = report.DefaultLayout()
	}
	return &Validator{start: start, end: end, options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Inspect validates ds with default options.
func Inspect(ds *types.Dataset, start, end timeparse.TimeOfDay) *ValidationResult {
	return NewValidator(start, end).Validate(ds)
}

// Validate inspects every row of ds.
func (v *Validator) Validate(ds *types.Dataset) *ValidationResult {
	result := &ValidationResult{
		IsValid:       true,
		Errors:        make([]*ValidationError, 0),
		RowsInspected: ds.DataRowCount(),
	}

	header, ok := ds.Header()
	if !ok || ds.DataRowCount() == 0 {
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     RuleInsufficientData,
			Message:  "input needs a header row and at least one data row",
		}, v.options)
		return result
	}

	for c, label := range header {
		if types.IsEmpty(label) {
			result.add(&ValidationError{
				Severity:  SeverityWarning,
				Field:     fieldNames[c],
				Rule:      RuleHeader,
				Message:   fmt.Sprintf("header label for column %d is empty", c+1),
				RowNumber: 1,
			}, v.options)
		}
	}

	for i, row := range ds.Rows[1:] {
		rowNumber := i + 2
		for _, err := range v.validateRow(row, rowNumber, result) {
			result.add(err, v.options)
		}
	}

	if result.InWindow == 0 {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Rule:     RuleEmptyWindow,
			Message:  fmt.Sprintf("no row falls inside %s-%s; the report will contain the title and header only", v.start, v.end),
		}, v.options)
		return result
	}

	if row, _ := v.options.Layout.StatsAnchor(result.InWindow); row+2 > v.options.Layout.LastDataRow {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Rule:     RuleStatsOverflow,
			Message: fmt.Sprintf("statistics for %d rows land on rows %d-%d, past row %d",
				result.InWindow, row, row+2, v.options.Layout.LastDataRow),
		}, v.options)
	}

	return result
}

func (v *Validator) validateRow(row types.RawRow, rowNumber int, result *ValidationResult) []*ValidationError {
	var errors []*ValidationError

	cell := row[types.ColTime]
	t, ok := timeparse.Parse(cell)
	if !ok {
		if types.IsEmpty(cell) {
			return []*ValidationError{{
				Severity:  SeverityWarning,
				Field:     fieldNames[types.ColTime],
				Rule:      RuleTimeMissing,
				Message:   "time is empty; row is skipped",
				RowNumber: rowNumber,
			}}
		}
		return []*ValidationError{{
			Severity:  SeverityWarning,
			Field:     fieldNames[types.ColTime],
			Value:     formatValue(cell),
			Rule:      RuleTimeFormat,
			Message:   "time is not in a recognized format; row is skipped",
			RowNumber: rowNumber,
		}}
	}
	if !t.Within(v.start, v.end) {
		return nil
	}
	result.InWindow++

	price := row[types.ColPrice]
	switch _, numeric := types.ToFloat(price); {
	case types.IsEmpty(price):
		errors = append(errors, &ValidationError{
			Severity:  SeverityError,
			Field:     fieldNames[types.ColPrice],
			Rule:      RuleRequired,
			Message:   "price is empty; excluded from the statistics",
			RowNumber: rowNumber,
		})
	case !numeric:
		errors = append(errors, &ValidationError{
			Severity:  SeverityError,
			Field:     fieldNames[types.ColPrice],
			Value:     formatValue(price),
			Rule:      RuleNumeric,
			Message:   "price is not numeric; excluded from the statistics",
			RowNumber: rowNumber,
		})
	}

	amount := row[types.ColAmount]
	if _, numeric := types.ToFloat(amount); !types.IsEmpty(amount) && !numeric {
		errors = append(errors, &ValidationError{
			Severity:  SeverityWarning,
			Field:     fieldNames[types.ColAmount],
			Value:     formatValue(amount),
			Rule:      RuleNumeric,
			Message:   "amount is not numeric; excluded from the sum",
			RowNumber: rowNumber,
		})
	}

	return errors
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation errors to a log file, replacing it.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Validation run: %s\n\n", time.Now().Format(time.RFC3339))
	writer.WriteString(FormatErrors(errors))
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}

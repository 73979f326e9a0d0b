// =============================================================================
// FX Window Report - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration.
//
// LOAD ORDER (later steps override earlier ones):
//   1. Built-in defaults (Defaults)
//   2. YAML file (config.yaml), optional unless a path was given explicitly
//   3. .env file, optional; its variables never override the real environment
//   4. Environment variables with the FXREPORT prefix,
//      e.g. FXREPORT_REPORT_WINDOW_START=08:30
//   5. Validation: struct rules, then window and layout checks
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/source"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/workbook"
)

// Default file locations and environment prefix.
const (
	DefaultPath   = "config.yaml"
	DefaultDotEnv = ".env"
	EnvPrefix     = "FXREPORT"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the process command.
	// Default: "./input"
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`

	// OutputDir receives the generated reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`

	// InputArchiveDir is where processed inputs are moved.
	// Files are only moved here after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" envconfig:"INPUT_ARCHIVE_DIR" validate:"required"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path of the rotated log file. Empty logs to stderr only.
	// Default: "./logs/fxreport.log"
	LogFile string `yaml:"log_file" envconfig:"LOG_FILE"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn warning error"`

	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat names a single generated report.
	// Placeholders:
	//   {date}      - Report date (DD.MM.YYYY)
	//   {input}     - Input file name without extension
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	// Default: "Reporte_{date}.xlsx"
	OutputNameFormat string `yaml:"output_name_format" envconfig:"OUTPUT_NAME_FORMAT" validate:"required"`

	// BatchNameFormat names reports produced by the process command, where
	// several inputs share the same date.
	// Default: "Reporte_{date}_{input}.xlsx"
	BatchNameFormat string `yaml:"batch_name_format" envconfig:"BATCH_NAME_FORMAT" validate:"required"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to process concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"min=1,max=64"`

	Report ReportConfig `yaml:"report" envconfig:"REPORT"`
	Server ServerConfig `yaml:"server" envconfig:"SERVER"`
}

// LoggingConfig holds the log file rotation settings.
type LoggingConfig struct {
	Rotation RotationConfig `yaml:"rotation" envconfig:"ROTATION"`
}

// RotationConfig maps onto lumberjack.Logger.
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"min=1"`
	MaxBackups int  `yaml:"max_backups" envconfig:"MAX_BACKUPS" validate:"min=0"`
	MaxAgeDays int  `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS" validate:"min=0"`
	Compress   bool `yaml:"compress" envconfig:"COMPRESS"`
}

// ReportConfig holds the report layout and input settings.
type ReportConfig struct {
	// SheetName is the input sheet holding the observations.
	SheetName string `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`

	// OutputSheet is the name of the generated sheet.
	OutputSheet string `yaml:"output_sheet" envconfig:"OUTPUT_SHEET" validate:"required"`

	// WindowStart and WindowEnd bound the inclusive time-of-day window.
	WindowStart string `yaml:"window_start" envconfig:"WINDOW_START" validate:"required"`
	WindowEnd   string `yaml:"window_end" envconfig:"WINDOW_END" validate:"required"`

	// FirstDataRow and LastDataRow delimit the rows of one block.
	FirstDataRow int `yaml:"first_data_row" envconfig:"FIRST_DATA_ROW" validate:"min=3"`
	LastDataRow  int `yaml:"last_data_row" envconfig:"LAST_DATA_ROW" validate:"gtefield=FirstDataRow"`

	TitlePrefix  string  `yaml:"title_prefix" envconfig:"TITLE_PREFIX" validate:"required"`
	CSVDelimiter string  `yaml:"csv_delimiter" envconfig:"CSV_DELIMITER"`
	FontName     string  `yaml:"font_name" envconfig:"FONT_NAME" validate:"required"`
	FontSize     float64 `yaml:"font_size" envconfig:"FONT_SIZE" validate:"gt=0"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	MaxUploadMB     int64         `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB" validate:"min=1"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		LogFile:          "./logs/fxreport.log",
		LogLevel:         "info",
		OutputNameFormat: "Reporte_{date}.xlsx",
		BatchNameFormat:  "Reporte_{date}_{input}.xlsx",
		MaxConcurrency:   4,
		Logging: LoggingConfig{Rotation: RotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		}},
		Report: ReportConfig{
			SheetName:    workbook.DefaultSheetName,
			OutputSheet:  workbook.DefaultOutputSheet,
			WindowStart:  "09:00",
			WindowEnd:    "13:30",
			FirstDataRow: 3,
			LastDataRow:  65,
			TitlePrefix:  report.DefaultTitlePrefix,
			CSVDelimiter: ",",
			FontName:     workbook.DefaultFontName,
			FontSize:     workbook.DefaultFontSize,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadMB:     20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Options selects the files Load reads.
type Options struct {
	// Path is the YAML file. Empty reads DefaultPath when it exists.
	Path string

	// DotEnv is the .env file. Empty reads DefaultDotEnv when it exists.
	DotEnv string
}

// Load builds the configuration from defaults, files and environment.
//
// RETURNS:
//   - The validated configuration.
//   - An error if an explicitly named file is missing, a file cannot be
//     parsed, or the result fails validation.
func Load(opts Options) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(cfg, opts.Path); err != nil {
		return nil, err
	}
	if err := loadDotEnv(opts.DotEnv); err != nil {
		return nil, err
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultDotEnv
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field rules, the window bounds and the block layout.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, _, err := c.Window(); err != nil {
		return err
	}
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("report layout: %w", err)
	}
	return nil
}

// Window parses the configured bounds. Only the fixed time layouts are
// accepted and start must not be after end.
func (c *Config) Window() (start, end timeparse.TimeOfDay, err error) {
	start, err = timeparse.ParseStrict(c.Report.WindowStart)
	if err != nil {
		return 0, 0, fmt.Errorf("window_start: %w", err)
	}
	end, err = timeparse.ParseStrict(c.Report.WindowEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("window_end: %w", err)
	}
	if start.After(end) {
		return 0, 0, fmt.Errorf("%w: start %s is after end %s", report.ErrInvalidWindow, start, end)
	}
	return start, end, nil
}

// =============================================================================
// COMPONENT SETTINGS
// =============================================================================

// Layout returns the block layout.
func (c *Config) Layout() report.Layout {
	return report.Layout{
		FirstDataRow:     c.Report.FirstDataRow,
		LastDataRow:      c.Report.LastDataRow,
		ColumnsPerRecord: report.DefaultLayout().ColumnsPerRecord,
	}
}

// NewBuilder returns a report builder using the configured layout and title.
func (c *Config) NewBuilder() *report.Builder {
	b := report.NewBuilder()
	b.Layout = c.Layout()
	b.TitlePrefix = c.Report.TitlePrefix
	return b
}

// SourceOptions returns the input reader settings.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		SheetName:    c.Report.SheetName,
		CSVDelimiter: c.Report.CSVDelimiter,
	}
}

// WriteOptions returns the workbook writer settings.
func (c *Config) WriteOptions() workbook.WriteOptions {
	return workbook.WriteOptions{
		SheetName: c.Report.OutputSheet,
		FontName:  c.Report.FontName,
		FontSize:  c.Report.FontSize,
	}
}

// EnsureDirectories creates the input, output, archive and log
// directories if they do not exist.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.InputDir, c.OutputDir, c.InputArchiveDir}
	if c.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.LogFile))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FX Window Report - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (fxreport)
//   ├── generateCmd (fxreport generate)
//   ├── processCmd  (fxreport process)
//   ├── validateCmd (fxreport validate)
//   ├── serveCmd    (fxreport serve)
//   └── versionCmd  (fxreport version)
//
// SETUP:
//   Before any command runs, the root command:
//   1. Loads the configuration (--config, .env, FXREPORT_* variables)
//   2. Builds the logger (log_level, --verbose, log_file rotation)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-window-report/internal/config"
	"github.com/ginjaninja78/fx-window-report/internal/logging"
	"github.com/ginjaninja78/fx-window-report/internal/report"
	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and appLogger are set by setup before a command runs.
var (
	appConfig *config.Config
	appLogger *logging.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fxreport",
	Short: "FX Window Report - Build exchange-rate window reports from spreadsheet exports",
	Long: `fxreport reads a spreadsheet of timestamped exchange-rate observations,
keeps the ones inside a time-of-day window, sorts them and lays them out as
a paginated report workbook with summary statistics.

Key Features:
  - Inclusive time window (default 09:00 to 13:30)
  - 63 records per column block, header repeated for every block
  - Min, max, mean, amount sum and volatility of the kept records
  - Batch processing with archival of processed inputs
  - Data validation without writing output
  - HTTP API for upload and download

Example Usage:
  fxreport generate --file rates.xlsx            # One report
  fxreport generate --file rates.csv --end 12:00 # Custom window end
  fxreport process                               # Every file in input_dir
  fxreport validate --file rates.xlsx            # Check the data only
  fxreport serve --addr :8080                    # HTTP API`,

	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			appLogger.Close()
		}
	},

	// Without a subcommand, print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file; optional unless given explicitly",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// setup loads the configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	opts := config.Options{}
	if cmd.Flags().Changed("config") {
		opts.Path = cfgFile
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Verbose:    verbose,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.Logging.Rotation.MaxSizeMB,
		MaxBackups: cfg.Logging.Rotation.MaxBackups,
		MaxAgeDays: cfg.Logging.Rotation.MaxAgeDays,
		Compress:   cfg.Logging.Rotation.Compress,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	appConfig, appLogger = cfg, logger
	appLogger.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"config":  cfgFile,
	}).Debug("Configuration loaded")
	return nil
}

// resolveWindow parses the optional --start/--end values, falling back to
// the configured bounds for the ones left empty.
func resolveWindow(cfg *config.Config, startText, endText string) (start, end timeparse.TimeOfDay, err error) {
	start, end, err = cfg.Window()
	if err != nil {
		return 0, 0, err
	}
	if startText != "" {
		if start, err = timeparse.ParseStrict(startText); err != nil {
			return 0, 0, fmt.Errorf("--start: %w", err)
		}
	}
	if endText != "" {
		if end, err = timeparse.ParseStrict(endText); err != nil {
			return 0, 0, fmt.Errorf("--end: %w", err)
		}
	}
	if start.After(end) {
		return 0, 0, fmt.Errorf("%w: start %s is after end %s", report.ErrInvalidWindow, start, end)
	}
	return start, end, nil
}

// =============================================================================
// FX Window Report - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   fxreport version
//
// OUTPUT:
//   FX Window Report
//   Version:    1.0.0
//   Build Date: 2026-10-14
//   Go Version: go1.24.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version and BuildDate are set at build time using ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/fx-window-report/cmd.Version=1.1.0'"
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
)

// versionCmd needs no configuration, so it replaces the root setup hook.
var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Display the application version",
	Long:              `Display the application version, build date, and Go runtime version.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "FX Window Report")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

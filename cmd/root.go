/*
Copyright © 2025 Tripline Contributors

Tripline is a CLI tool for validating and loading NYC yellow-taxi trip
records into a Postgres warehouse.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skelland/tripline/internal/lib"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tripline",
	Short: "Tripline - NYC taxi trip validate-and-load pipeline",
	Long: `Tripline ingests monthly NYC yellow-taxi trip extracts, validates every
record against the staging schema, and bulk-loads accepted records into
Postgres in per-batch transactions.

A run fails fast when the cumulative rejection percentage strictly
exceeds the configured limit, or when the database cannot be reached.
Rejected records are kept as NDJSON files for inspection, and every run
leaves one row in the audit table.

Example:
  tripline initdb
  tripline fetch --year 2024 --month 1
  tripline run data/raw/yellow_tripdata_2024-01.csv
  tripline status <run-id>

For more information, visit: https://github.com/skelland/tripline`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tripline.yaml, ~/.config/tripline/tripline.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.SetVersionTemplate("Tripline version {{.Version}}\n")
}

// newLogger builds the run logger. Level comes from TRIPLINE_LOG_LEVEL
// (debug|info|warn|error, default info); --verbose forces debug.
func newLogger() *lib.Logger {
	logger := lib.NewLogger(lib.ParseLogLevel(os.Getenv("TRIPLINE_LOG_LEVEL")))
	if verbose {
		logger.SetLevel(lib.LogLevelDebug)
	}
	return logger
}

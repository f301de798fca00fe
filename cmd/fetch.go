package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skelland/tripline/internal/services"
)

var (
	fetchYear  int
	fetchMonth int
	noProgress bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a monthly trip extract",
	Long: `Download one monthly yellow-taxi extract from the configured remote
origin into the raw data directory.

Transient network failures are retried with exponential backoff. An
extract that is already on disk is not downloaded again.

Examples:
  tripline fetch --year 2024 --month 1

  # Without a progress bar (for scripts and CI)
  tripline fetch --year 2024 --month 1 --no-progress`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchYear, "year", 0, "extract year (required)")
	fetchCmd.Flags().IntVar(&fetchMonth, "month", 0, "extract month 1-12 (required)")
	fetchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress indicators")
	_ = fetchCmd.MarkFlagRequired("year")
	_ = fetchCmd.MarkFlagRequired("month")
}

func runFetch(cmd *cobra.Command, args []string) error {
	config, err := services.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger()
	client := services.NewHTTPClient(10*time.Minute, config.Retry, logger)

	path, err := services.FetchMonthlyExtract(fetchYear, fetchMonth, config.Source, client, logger, !noProgress)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Extract ready: %s\n", path)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skelland/tripline/internal/models"
	"github.com/skelland/tripline/internal/services"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show pipeline run status",
	Long: `Display the state of a pipeline run, or list all known runs when no
run ID is given.

Shows the run status, accepted/rejected counts, cumulative rejection
percentage, committed batches, and the fatal cause for failed runs.

Examples:
  # List all runs
  tripline status

  # Inspect one run
  tripline status 9f0c1c3a-8a04-4a4e-9c6e-0d4cf2f1ab42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	config, err := services.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(args) == 0 {
		return listRuns(config.RunsDir)
	}
	return showRun(config.RunsDir, args[0])
}

func listRuns(runsDir string) error {
	runIDs, err := services.ListRuns(runsDir)
	if err != nil {
		return err
	}
	if len(runIDs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	for _, runID := range runIDs {
		run, err := services.LoadRunState(runsDir, runID)
		if err != nil {
			fmt.Printf("%s  (unreadable state: %v)\n", runID, err)
			continue
		}
		fmt.Printf("%s  %-9s  accepted=%d rejected=%d  %s\n",
			run.RunID, run.Status, run.Stats.AcceptedCount, run.Stats.RejectedCount, run.InputSource)
	}
	return nil
}

func showRun(runsDir string, runID string) error {
	run, err := services.LoadRunState(runsDir, runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run:            %s\n", run.RunID)
	fmt.Printf("Status:         %s\n", run.Status)
	fmt.Printf("Input:          %s\n", run.InputSource)
	fmt.Printf("Created:        %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:        %s\n", run.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Accepted:       %d\n", run.Stats.AcceptedCount)
	fmt.Printf("Rejected:       %d (%.2f%%)\n", run.Stats.RejectedCount, run.Stats.RejectionPct())
	fmt.Printf("Batches loaded: %d\n", run.BatchesLoaded)

	if run.Status == models.RunStatusFailed {
		fmt.Printf("Failure:        [%s] %s\n", run.ErrorCategory, run.ErrorMessage)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skelland/tripline/internal/db"
	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
	"github.com/skelland/tripline/internal/pipeline"
	"github.com/skelland/tripline/internal/services"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <extract-file>",
	Short: "Validate and load one trip extract",
	Long: `Run the validate-and-load pipeline over one CSV trip extract.

Records are validated one by one and partitioned into accepted and
rejected sets. Accepted records are bulk-loaded into the staging table in
per-batch transactions; rejected records are written to an NDJSON file
under the rejected data directory. After every batch the cumulative
rejection percentage is checked against pipeline.max_rejected_pct and the
run fails fast once it is strictly exceeded.

Examples:
  # Load a previously fetched extract
  tripline run data/raw/yellow_tripdata_2024-01.csv

  # With a tighter quality gate
  TRIPLINE_PIPELINE_MAX_REJECTED_PCT=1.0 tripline run data/raw/yellow_tripdata_2024-01.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	inputSource := args[0]

	config, err := services.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger()
	ctx := context.Background()

	database, err := db.Open(config.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Failed to close database pool", "error", err)
		}
	}()

	// Fail before touching the source when the database is unreachable
	if err := database.Ping(ctx); err != nil {
		return err
	}

	run := &models.PipelineRun{
		RunID:       uuid.New().String(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		InputSource: inputSource,
		Status:      models.RunStatusInit,
		Config:      *config,
	}
	if err := services.SaveRunState(config.RunsDir, run); err != nil {
		return fmt.Errorf("failed to save initial run state: %w", err)
	}

	lib.LogRunCreated(logger, run.RunID, inputSource)
	fmt.Printf("✓ Created pipeline run: %s\n", run.RunID)
	fmt.Printf("  Input: %s\n", inputSource)
	fmt.Printf("  Batch size: %d, max rejected: %.2f%%\n\n", config.Pipeline.BatchSize, config.Pipeline.MaxRejectedPct)

	source, err := services.NewCSVSource(inputSource)
	if err != nil {
		failRunState(config, run, err, logger)
		return err
	}
	defer func() { _ = source.Close() }()

	sink, err := pipeline.NewFileSink(config.Source.RejectedDir(), run.RunID)
	if err != nil {
		// Best-effort collaborator: run without the sink rather than abort
		logger.Warn("Rejected-record sink unavailable, continuing without it", "error", err)
		sink = nil
	}
	if sink != nil {
		defer func() { _ = sink.Close() }()
	}

	coordinator := pipeline.NewCoordinator(*config, db.NewLoader(database, logger), sinkOrNil(sink), database, logger)
	outcome := coordinator.Run(ctx, run, source)

	if err := services.SaveRunState(config.RunsDir, run); err != nil {
		logger.Error("Failed to save terminal run state", "run_id", run.RunID, "error", err)
	}

	printOutcome(outcome)

	if outcome.Err != nil {
		var pe *lib.PipelineError
		if errors.As(outcome.Err, &pe) {
			fmt.Print("\n" + pe.UserMessage())
		}
		return fmt.Errorf("run %s failed: %w", outcome.RunID, outcome.Err)
	}
	return nil
}

// sinkOrNil converts a typed nil *FileSink into a nil interface so the
// coordinator's nil check works
func sinkOrNil(sink *pipeline.FileSink) pipeline.RejectedSink {
	if sink == nil {
		return nil
	}
	return sink
}

// failRunState records a fatal failure that happened before the
// coordinator took over (e.g. an unreadable source file)
func failRunState(config *models.ProjectConfig, run *models.PipelineRun, err error, logger *lib.Logger) {
	run.Status = models.RunStatusFailed
	run.ErrorCategory = string(lib.CategoryOf(err))
	run.ErrorMessage = err.Error()
	run.UpdatedAt = time.Now()
	if saveErr := services.SaveRunState(config.RunsDir, run); saveErr != nil {
		logger.Error("Failed to save run state", "run_id", run.RunID, "error", saveErr)
	}
}

func printOutcome(outcome models.RunOutcome) {
	fmt.Printf("\n")
	if outcome.Status == models.RunStatusCompleted {
		fmt.Printf("✓ Run completed: %s\n", outcome.RunID)
	} else {
		fmt.Printf("✗ Run failed: %s\n", outcome.RunID)
	}
	fmt.Printf("  Accepted: %d\n", outcome.Stats.AcceptedCount)
	fmt.Printf("  Rejected: %d (%.2f%%)\n", outcome.Stats.RejectedCount, outcome.Stats.RejectionPct())
	fmt.Printf("  Duration: %s\n", outcome.Duration.Round(time.Millisecond))
}

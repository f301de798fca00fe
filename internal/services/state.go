package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/skelland/tripline/internal/models"
)

const stateFileSuffix = ".json"

// GetRunStatePath returns the full path to a run's state file
func GetRunStatePath(runsDir string, runID string) string {
	return filepath.Join(runsDir, runID+stateFileSuffix)
}

// LoadRunState reads a run's state from disk
// Returns error if the file doesn't exist or can't be parsed
func LoadRunState(runsDir string, runID string) (*models.PipelineRun, error) {
	statePath := GetRunStatePath(runsDir, runID)

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var run models.PipelineRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run state: %w", err)
	}

	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run state loaded from disk: %w", err)
	}

	return &run, nil
}

// SaveRunState writes a run's state to disk with atomic write
// Uses temp file + rename so a crash mid-write never corrupts the state
func SaveRunState(runsDir string, run *models.PipelineRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid run: %w", err)
	}

	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	tempFile := filepath.Join(runsDir, fmt.Sprintf(".state.tmp.%s", uuid.New().String()))
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	statePath := GetRunStatePath(runsDir, run.RunID)
	if err := os.Rename(tempFile, statePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to save run state: %w", err)
	}

	return nil
}

// ListRuns returns the IDs of all persisted runs, newest directory order
func ListRuns(runsDir string) ([]string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var runIDs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, stateFileSuffix) || strings.HasPrefix(name, ".") {
			continue
		}
		runIDs = append(runIDs, strings.TrimSuffix(name, stateFileSuffix))
	}
	return runIDs, nil
}

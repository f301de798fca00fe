package models

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// ProjectConfig is the top-level configuration for the tripline pipeline
type ProjectConfig struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
	Source   SourceConfig   `yaml:"source" json:"source"`
	Retry    RetryConfig    `yaml:"retry" json:"retry"`
	RunsDir  string         `yaml:"runs_dir" json:"runs_dir"`
}

// DatabaseConfig contains Postgres connection details for the warehouse
type DatabaseConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"-"` // Never serialized into run state
	DBName   string `yaml:"dbname" json:"dbname"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

// DSN returns the lib/pq keyword/value connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// PipelineConfig controls batching and the data-quality gate
type PipelineConfig struct {
	BatchSize      int     `yaml:"batch_size" json:"batch_size"`             // Records per load transaction
	MaxRejectedPct float64 `yaml:"max_rejected_pct" json:"max_rejected_pct"` // Fail the run when strictly exceeded
}

// SourceConfig locates source extracts on disk and at their remote origin
type SourceConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"` // Remote origin for monthly extracts
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// RawDir returns the directory holding downloaded source extracts
func (c *SourceConfig) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// RejectedDir returns the directory holding rejected-record audit files
func (c *SourceConfig) RejectedDir() string {
	return filepath.Join(c.DataDir, "rejected")
}

// RetryConfig controls retry behavior for transient download errors
type RetryConfig struct {
	MaxAttempts      int   `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoffMs int64 `yaml:"initial_backoff_ms" json:"initial_backoff_ms"`
	MaxBackoffMs     int64 `yaml:"max_backoff_ms" json:"max_backoff_ms"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "dataeng",
			DBName:  "taxi_analytics",
			SSLMode: "disable",
		},
		Pipeline: PipelineConfig{
			BatchSize:      10000,
			MaxRejectedPct: 5.0,
		},
		Source: SourceConfig{
			BaseURL: "https://d37ci6vzurychx.cloudfront.net/trip-data",
			DataDir: "./data",
		},
		Retry: RetryConfig{
			MaxAttempts:      5,
			InitialBackoffMs: 1000,
			MaxBackoffMs:     30000,
		},
		RunsDir: "./runs",
	}
}

// Validate checks if the configuration has valid values
func (c *ProjectConfig) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database port must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database dbname is required")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.MaxRejectedPct < 0 || c.Pipeline.MaxRejectedPct > 100 {
		return fmt.Errorf("max_rejected_pct must be in [0,100], got %g", c.Pipeline.MaxRejectedPct)
	}
	if c.Source.BaseURL != "" {
		if _, err := url.Parse(c.Source.BaseURL); err != nil {
			return fmt.Errorf("invalid source base_url: %w", err)
		}
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max_attempts must be > 0, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		return fmt.Errorf("max_backoff_ms (%d) must be >= initial_backoff_ms (%d)",
			c.Retry.MaxBackoffMs, c.Retry.InitialBackoffMs)
	}
	return nil
}

package services

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// LoadConfig loads configuration from file, environment, and defaults.
// Priority order (highest to lowest):
//  1. Environment variables (TRIPLINE_ prefix, e.g. TRIPLINE_DATABASE_HOST)
//  2. Configuration file
//  3. Default values
func LoadConfig(configFile string) (*models.ProjectConfig, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		v.SetConfigName("tripline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tripline")
		v.AddConfigPath("/etc/tripline")
	}

	v.SetEnvPrefix("TRIPLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := models.DefaultConfig()
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", defaults.Database.DBName)
	v.SetDefault("database.sslmode", defaults.Database.SSLMode)
	v.SetDefault("pipeline.batch_size", defaults.Pipeline.BatchSize)
	v.SetDefault("pipeline.max_rejected_pct", defaults.Pipeline.MaxRejectedPct)
	v.SetDefault("source.base_url", defaults.Source.BaseURL)
	v.SetDefault("source.data_dir", defaults.Source.DataDir)
	v.SetDefault("retry.max_attempts", defaults.Retry.MaxAttempts)
	v.SetDefault("retry.initial_backoff_ms", defaults.Retry.InitialBackoffMs)
	v.SetDefault("retry.max_backoff_ms", defaults.Retry.MaxBackoffMs)
	v.SetDefault("runs_dir", defaults.RunsDir)

	// Config file is optional - defaults plus env cover a full setup
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Build config explicitly from viper values
	// (viper.Unmarshal has issues with nested structs in some versions)
	config := models.ProjectConfig{
		Database: models.DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Pipeline: models.PipelineConfig{
			BatchSize:      v.GetInt("pipeline.batch_size"),
			MaxRejectedPct: v.GetFloat64("pipeline.max_rejected_pct"),
		},
		Source: models.SourceConfig{
			BaseURL: v.GetString("source.base_url"),
			DataDir: v.GetString("source.data_dir"),
		},
		Retry: models.RetryConfig{
			MaxAttempts:      v.GetInt("retry.max_attempts"),
			InitialBackoffMs: v.GetInt64("retry.initial_backoff_ms"),
			MaxBackoffMs:     v.GetInt64("retry.max_backoff_ms"),
		},
		RunsDir: v.GetString("runs_dir"),
	}

	if err := config.Validate(); err != nil {
		return nil, lib.ErrConfigInvalid(err)
	}

	return &config, nil
}

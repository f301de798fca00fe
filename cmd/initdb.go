package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skelland/tripline/internal/db"
	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/services"
)

// initdbCmd represents the initdb command
var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the warehouse schema",
	Long: `Create the staging, warehouse, and audit schemas with their tables and
dimension seeds. DDL runs outside the loader's transaction mode.

All statements are idempotent, so initdb can be re-run against an
existing database safely.

Example:
  tripline initdb`,
	RunE: runInitDB,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
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
	defer func() { _ = database.Close() }()

	if err := database.Ping(ctx); err != nil {
		return err
	}

	err = lib.LogOperation(logger, "warehouse schema setup", func() error {
		return database.InitSchema(ctx)
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Warehouse schema ready on %s:%d/%s\n", config.Database.Host, config.Database.Port, config.Database.DBName)
	return nil
}

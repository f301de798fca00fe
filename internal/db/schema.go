package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skelland/tripline/internal/lib"
)

// schemaStatements creates the warehouse layout: the staging table the
// loader targets, the fact and dimension tables the downstream transform
// stage consumes, and the per-run audit table. All statements are
// idempotent so initdb can be re-run safely.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS staging`,
	`CREATE SCHEMA IF NOT EXISTS warehouse`,
	`CREATE SCHEMA IF NOT EXISTS audit`,

	`CREATE TABLE IF NOT EXISTS staging.yellow_trips (
		vendor_id        integer          NOT NULL,
		pickup_time      timestamp        NOT NULL,
		dropoff_time     timestamp        NOT NULL,
		passenger_count  integer          NOT NULL,
		trip_distance    double precision NOT NULL,
		rate_code        integer          NOT NULL,
		pickup_location  integer          NOT NULL,
		dropoff_location integer          NOT NULL,
		payment_type     integer          NOT NULL,
		fare_amount      double precision NOT NULL,
		extra            double precision NOT NULL,
		tax              double precision NOT NULL,
		tip_amount       double precision NOT NULL,
		tolls_amount     double precision NOT NULL,
		total_amount     double precision NOT NULL,
		loaded_at        timestamptz      NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse.dim_vendor (
		vendor_id   integer PRIMARY KEY,
		vendor_name text    NOT NULL
	)`,

	`INSERT INTO warehouse.dim_vendor (vendor_id, vendor_name)
	 VALUES (1, 'Creative Mobile Technologies'), (2, 'VeriFone')
	 ON CONFLICT (vendor_id) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS warehouse.dim_payment_type (
		payment_type integer PRIMARY KEY,
		description  text    NOT NULL
	)`,

	`INSERT INTO warehouse.dim_payment_type (payment_type, description)
	 VALUES (1, 'Credit card'), (2, 'Cash'), (3, 'No charge'),
	        (4, 'Dispute'), (5, 'Unknown'), (6, 'Voided trip')
	 ON CONFLICT (payment_type) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS warehouse.fact_trips (
		trip_id          bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		vendor_id        integer          NOT NULL REFERENCES warehouse.dim_vendor (vendor_id),
		pickup_time      timestamp        NOT NULL,
		dropoff_time     timestamp        NOT NULL,
		passenger_count  integer          NOT NULL,
		trip_distance    double precision NOT NULL,
		rate_code        integer          NOT NULL,
		pickup_location  integer          NOT NULL,
		dropoff_location integer          NOT NULL,
		payment_type     integer          NOT NULL REFERENCES warehouse.dim_payment_type (payment_type),
		fare_amount      double precision NOT NULL,
		extra            double precision NOT NULL,
		tax              double precision NOT NULL,
		tip_amount       double precision NOT NULL,
		tolls_amount     double precision NOT NULL,
		total_amount     double precision NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS audit.pipeline_runs (
		run_id         uuid PRIMARY KEY,
		input_source   text             NOT NULL,
		status         text             NOT NULL,
		accepted_count bigint           NOT NULL,
		rejected_count bigint           NOT NULL,
		rejection_pct  double precision NOT NULL,
		error_category text,
		error_message  text,
		started_at     timestamptz      NOT NULL,
		finished_at    timestamptz      NOT NULL
	)`,
}

// InitSchema creates schemas, tables, and dimension seeds. DDL must not be
// wrapped in the loader's transaction mode, so this runs on a scoped
// connection without commit/rollback handling.
func (d *DB) InitSchema(ctx context.Context) error {
	return d.withConn(ctx, func(conn *sql.Conn) error {
		for i, stmt := range schemaStatements {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return lib.ErrDatabaseFailure(fmt.Sprintf("schema setup statement %d", i+1), err)
			}
		}
		d.logger.Info("Warehouse schema initialized", "statements", len(schemaStatements))
		return nil
	})
}

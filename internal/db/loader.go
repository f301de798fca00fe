package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

const stagingTable = "staging.yellow_trips"

var stagingColumns = []string{
	"vendor_id", "pickup_time", "dropoff_time", "passenger_count",
	"trip_distance", "rate_code", "pickup_location", "dropoff_location",
	"payment_type", "fare_amount", "extra", "tax", "tip_amount",
	"tolls_amount", "total_amount",
}

// maxRowsPerStatement keeps multi-row inserts under the Postgres limit of
// 65535 bind parameters per statement (15 columns x 1000 rows = 15000).
const maxRowsPerStatement = 1000

// Loader performs atomic bulk loads of accepted trips into the staging table
type Loader struct {
	db     *DB
	logger *lib.Logger
}

// NewLoader creates a staging loader on top of an open pool
func NewLoader(db *DB, logger *lib.Logger) *Loader {
	return &Loader{db: db, logger: logger}
}

// Load inserts all trips into staging as one transaction, preserving input
// order. The whole batch commits or none of it does: any insert failure
// rolls back every row and surfaces a database-category error. A failure
// to acquire the connection surfaces as a connection-category error before
// any insertion is attempted.
func (l *Loader) Load(ctx context.Context, trips []models.TripRecord) (int, error) {
	if len(trips) == 0 {
		return 0, nil
	}

	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(trips); start += maxRowsPerStatement {
			end := start + maxRowsPerStatement
			if end > len(trips) {
				end = len(trips)
			}
			chunk := trips[start:end]

			query := buildInsertStatement(len(chunk))
			if _, err := tx.ExecContext(ctx, query, insertArgs(chunk)...); err != nil {
				return lib.ErrDatabaseFailure(fmt.Sprintf("bulk insert into %s", stagingTable), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Debug("Batch committed to staging", "rows", len(trips))
	return len(trips), nil
}

// buildInsertStatement renders a multi-row INSERT with positional
// placeholders for n rows
func buildInsertStatement(n int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(stagingTable)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(stagingColumns, ", "))
	sb.WriteString(") VALUES ")

	cols := len(stagingColumns)
	for row := 0; row < n; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for col := 0; col < cols; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", row*cols+col+1)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// insertArgs flattens trips into driver arguments in staging column order
func insertArgs(trips []models.TripRecord) []interface{} {
	args := make([]interface{}, 0, len(trips)*len(stagingColumns))
	for _, t := range trips {
		args = append(args,
			t.VendorID, t.PickupTime, t.DropoffTime, t.PassengerCount,
			t.TripDistance, t.RateCode, t.PickupLocation, t.DropoffLocation,
			t.PaymentType, t.FareAmount, t.Extra, t.Tax, t.TipAmount,
			t.TollsAmount, t.TotalAmount,
		)
	}
	return args
}

package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/skelland/tripline/internal/models"
)

// Accepted timestamp layouts, tried in order. Monthly extracts use the
// space-separated form; ISO forms show up in hand-fed records.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// fieldRule is one predicate+cause pair for a single declared field.
// check parses the raw value, stores the typed result on the record, and
// returns a human-readable cause on failure or "" on pass.
type fieldRule struct {
	field string
	check func(raw string, rec *models.TripRecord) string
}

// crossRule is a predicate over the fully parsed record. Cross rules run
// only after every field rule has passed.
type crossRule struct {
	fields string // "field_a/field_b" pair named in the rejection
	check  func(rec *models.TripRecord) string
}

// fieldRules is the fixed validation order: staging column order, with the
// trip-distance plausibility bound layered directly after its
// non-negativity check. The first failing rule is the reported cause.
var fieldRules = []fieldRule{
	intInRange(models.FieldVendorID, 1, 2, func(r *models.TripRecord, v int) { r.VendorID = v }),
	timestamp(models.FieldPickupTime, func(r *models.TripRecord, v time.Time) { r.PickupTime = v }),
	timestamp(models.FieldDropoffTime, func(r *models.TripRecord, v time.Time) { r.DropoffTime = v }),
	intInRange(models.FieldPassengerCount, 0, 9, func(r *models.TripRecord, v int) { r.PassengerCount = v }),
	nonNegativeFloat(models.FieldTripDistance, func(r *models.TripRecord, v float64) { r.TripDistance = v }),
	{field: models.FieldTripDistance, check: reasonableDistance},
	intInRange(models.FieldRateCode, 1, 6, func(r *models.TripRecord, v int) { r.RateCode = v }),
	intInRange(models.FieldPickupLocation, 1, 265, func(r *models.TripRecord, v int) { r.PickupLocation = v }),
	intInRange(models.FieldDropoffLocation, 1, 265, func(r *models.TripRecord, v int) { r.DropoffLocation = v }),
	intInRange(models.FieldPaymentType, 1, 6, func(r *models.TripRecord, v int) { r.PaymentType = v }),
	nonNegativeFloat(models.FieldFareAmount, func(r *models.TripRecord, v float64) { r.FareAmount = v }),
	nonNegativeFloat(models.FieldExtra, func(r *models.TripRecord, v float64) { r.Extra = v }),
	nonNegativeFloat(models.FieldTax, func(r *models.TripRecord, v float64) { r.Tax = v }),
	nonNegativeFloat(models.FieldTipAmount, func(r *models.TripRecord, v float64) { r.TipAmount = v }),
	nonNegativeFloat(models.FieldTollsAmount, func(r *models.TripRecord, v float64) { r.TollsAmount = v }),
	// total_amount carries no sign constraint: refunds legitimately go negative
	anyFloat(models.FieldTotalAmount, func(r *models.TripRecord, v float64) { r.TotalAmount = v }),
}

var crossRules = []crossRule{
	{
		fields: models.FieldPickupTime + "/" + models.FieldDropoffTime,
		check: func(rec *models.TripRecord) string {
			// Strict inequality: equal timestamps are a rejection too
			if !rec.DropoffTime.After(rec.PickupTime) {
				return "dropoff must be after pickup"
			}
			return ""
		},
	},
}

func intInRange(field string, min, max int, set func(*models.TripRecord, int)) fieldRule {
	return fieldRule{
		field: field,
		check: func(raw string, rec *models.TripRecord) string {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Sprintf("not an integer: %q", raw)
			}
			if v < min || v > max {
				return fmt.Sprintf("value %d outside range [%d,%d]", v, min, max)
			}
			set(rec, v)
			return ""
		},
	}
}

func parseFloat(raw string) (float64, string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Sprintf("not a number: %q", raw)
	}
	return v, ""
}

func nonNegativeFloat(field string, set func(*models.TripRecord, float64)) fieldRule {
	return fieldRule{
		field: field,
		check: func(raw string, rec *models.TripRecord) string {
			v, cause := parseFloat(raw)
			if cause != "" {
				return cause
			}
			if v < 0 {
				return fmt.Sprintf("value %g must be non-negative", v)
			}
			set(rec, v)
			return ""
		},
	}
}

func anyFloat(field string, set func(*models.TripRecord, float64)) fieldRule {
	return fieldRule{
		field: field,
		check: func(raw string, rec *models.TripRecord) string {
			v, cause := parseFloat(raw)
			if cause != "" {
				return cause
			}
			set(rec, v)
			return ""
		},
	}
}

func timestamp(field string, set func(*models.TripRecord, time.Time)) fieldRule {
	return fieldRule{
		field: field,
		check: func(raw string, rec *models.TripRecord) string {
			s := strings.TrimSpace(raw)
			for _, layout := range timeLayouts {
				if v, err := time.Parse(layout, s); err == nil {
					set(rec, v)
					return ""
				}
			}
			return fmt.Sprintf("not a timestamp: %q", raw)
		},
	}
}

// reasonableDistance is the domain-plausibility bound on trip_distance.
// It runs after the non-negativity rule has parsed the value; exactly 500
// miles is still accepted.
func reasonableDistance(raw string, rec *models.TripRecord) string {
	if rec.TripDistance > 500 {
		return "trip distance exceeds reasonable limit"
	}
	return ""
}

// Package validate classifies raw trip records against the staging schema.
//
// Validation is pure and side-effect free: malformed values are data
// (RejectionReason), not errors. Only input that is structurally not a
// record at all escalates to a malformed-batch error.
package validate

import (
	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// Trip validates a single raw record.
//
// On acceptance it returns the fully typed TripRecord. On rejection it
// returns the reason for the first failing rule; field rules run in their
// fixed declared order, and cross-field rules run only once every field
// rule has passed. The error return is reserved for input that is not a
// record at all, which the coordinator treats as fatal for the batch.
func Trip(raw models.RawRecord) (models.TripRecord, *models.RejectionReason, error) {
	if raw == nil {
		return models.TripRecord{}, nil, lib.ErrMalformedBatch("record is not a field mapping", nil)
	}

	var rec models.TripRecord

	for _, rule := range fieldRules {
		value, ok := raw[rule.field]
		if !ok {
			return models.TripRecord{}, &models.RejectionReason{
				Field: rule.field,
				Cause: "missing field",
			}, nil
		}
		if cause := rule.check(value, &rec); cause != "" {
			return models.TripRecord{}, &models.RejectionReason{
				Field: rule.field,
				Cause: cause,
			}, nil
		}
	}

	for _, rule := range crossRules {
		if cause := rule.check(&rec); cause != "" {
			return models.TripRecord{}, &models.RejectionReason{
				Field: rule.fields,
				Cause: cause,
			}, nil
		}
	}

	return rec, nil, nil
}

package models

import "time"

// RawRecord is an untyped trip record as read from a source extract,
// keyed by canonical field name. It only lives until validation.
type RawRecord map[string]string

// Canonical field names, in staging column order. The validator checks
// fields in exactly this order so the first failing field is stable.
const (
	FieldVendorID        = "vendor_id"
	FieldPickupTime      = "pickup_time"
	FieldDropoffTime     = "dropoff_time"
	FieldPassengerCount  = "passenger_count"
	FieldTripDistance    = "trip_distance"
	FieldRateCode        = "rate_code"
	FieldPickupLocation  = "pickup_location"
	FieldDropoffLocation = "dropoff_location"
	FieldPaymentType     = "payment_type"
	FieldFareAmount      = "fare_amount"
	FieldExtra           = "extra"
	FieldTax             = "tax"
	FieldTipAmount       = "tip_amount"
	FieldTollsAmount     = "tolls_amount"
	FieldTotalAmount     = "total_amount"
)

// TripRecord is a fully typed, constraint-satisfying yellow-taxi trip.
// It is constructed once by the validator and immutable afterwards.
type TripRecord struct {
	VendorID        int       `json:"vendor_id"`         // 1=CMT, 2=VeriFone
	PickupTime      time.Time `json:"pickup_time"`
	DropoffTime     time.Time `json:"dropoff_time"`      // always strictly after PickupTime
	PassengerCount  int       `json:"passenger_count"`   // 0-9
	TripDistance    float64   `json:"trip_distance"`     // miles, 0-500
	RateCode        int       `json:"rate_code"`         // 1-6
	PickupLocation  int       `json:"pickup_location"`   // TLC zone 1-265
	DropoffLocation int       `json:"dropoff_location"`  // TLC zone 1-265
	PaymentType     int       `json:"payment_type"`      // 1-6
	FareAmount      float64   `json:"fare_amount"`
	Extra           float64   `json:"extra"`
	Tax             float64   `json:"tax"`
	TipAmount       float64   `json:"tip_amount"`
	TollsAmount     float64   `json:"tolls_amount"`
	TotalAmount     float64   `json:"total_amount"` // may be negative (refunds)
}

// RejectionReason explains why a single record was rejected.
// Field names the offending field, or a "field_a/field_b" pair for
// cross-field rules.
type RejectionReason struct {
	Field string `json:"field"`
	Cause string `json:"cause"`
}

func (r RejectionReason) String() string {
	return r.Field + ": " + r.Cause
}

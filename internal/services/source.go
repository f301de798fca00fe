package services

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// columnAliases maps source CSV headers to canonical field names. Monthly
// TLC extracts use the tpep_* naming; already-canonical headers map to
// themselves so hand-written fixtures work too.
var columnAliases = map[string]string{
	"vendorid":              models.FieldVendorID,
	"tpep_pickup_datetime":  models.FieldPickupTime,
	"tpep_dropoff_datetime": models.FieldDropoffTime,
	"ratecodeid":            models.FieldRateCode,
	"pulocationid":          models.FieldPickupLocation,
	"dolocationid":          models.FieldDropoffLocation,
	"mta_tax":               models.FieldTax,

	models.FieldVendorID:        models.FieldVendorID,
	models.FieldPickupTime:      models.FieldPickupTime,
	models.FieldDropoffTime:     models.FieldDropoffTime,
	models.FieldPassengerCount:  models.FieldPassengerCount,
	models.FieldTripDistance:    models.FieldTripDistance,
	models.FieldRateCode:        models.FieldRateCode,
	models.FieldPickupLocation:  models.FieldPickupLocation,
	models.FieldDropoffLocation: models.FieldDropoffLocation,
	models.FieldPaymentType:     models.FieldPaymentType,
	models.FieldFareAmount:      models.FieldFareAmount,
	models.FieldExtra:           models.FieldExtra,
	models.FieldTax:             models.FieldTax,
	models.FieldTipAmount:       models.FieldTipAmount,
	models.FieldTollsAmount:     models.FieldTollsAmount,
	models.FieldTotalAmount:     models.FieldTotalAmount,
}

// CSVSource reads raw trip records lazily from a CSV extract. A run opens
// a fresh source, so the sequence is restartable per run.
type CSVSource struct {
	file   *os.File
	reader *csv.Reader
	fields []string // canonical field name per column, "" for unmapped columns
	eof    bool
}

// NewCSVSource opens an extract and reads its header row. A file that
// cannot be opened or carries no header is malformed at the batch level.
func NewCSVSource(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, lib.ErrMalformedBatch("cannot open source file "+path, err)
	}

	reader := csv.NewReader(file)
	// Rows with the wrong arity become per-record rejections, not a
	// reader error for the whole file
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		_ = file.Close()
		return nil, lib.ErrMalformedBatch("missing header row in "+path, err)
	}

	fields := make([]string, len(header))
	for i, col := range header {
		fields[i] = columnAliases[strings.ToLower(strings.TrimSpace(col))]
	}

	return &CSVSource{file: file, reader: reader, fields: fields}, nil
}

// NextBatch reads up to n records. It returns io.EOF (possibly alongside a
// final short batch) once the file is exhausted; any other error means the
// file stopped being parseable and the batch is unreadable.
func (s *CSVSource) NextBatch(n int) ([]models.RawRecord, error) {
	if s.eof {
		return nil, io.EOF
	}

	records := make([]models.RawRecord, 0, n)
	for len(records) < n {
		row, err := s.reader.Read()
		if err == io.EOF {
			s.eof = true
			return records, io.EOF
		}
		if err != nil {
			return nil, lib.ErrMalformedBatch("unreadable row in source file", err)
		}
		records = append(records, s.rowToRecord(row))
	}
	return records, nil
}

// rowToRecord maps one CSV row onto canonical field names. Short rows
// simply lack the trailing fields; the validator rejects them as missing.
func (s *CSVSource) rowToRecord(row []string) models.RawRecord {
	record := make(models.RawRecord, len(s.fields))
	for i, value := range row {
		if i >= len(s.fields) || s.fields[i] == "" {
			continue
		}
		record[s.fields[i]] = value
	}
	return record
}

// Close releases the underlying file
func (s *CSVSource) Close() error {
	return s.file.Close()
}

package services

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

const tlcHeader = "VendorID,tpep_pickup_datetime,tpep_dropoff_datetime,passenger_count," +
	"trip_distance,RatecodeID,PULocationID,DOLocationID,payment_type," +
	"fare_amount,extra,mta_tax,tip_amount,tolls_amount,total_amount\n"

func writeExtract(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yellow_tripdata_2024-01.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVSource_MapsVendorHeadersToCanonicalFields(t *testing.T) {
	path := writeExtract(t, tlcHeader+
		"1,2024-01-01 10:00:00,2024-01-01 10:30:00,2,5.5,1,100,200,1,15.0,0.5,0.5,3.0,0.0,19.0\n")

	source, err := NewCSVSource(path)
	require.NoError(t, err)
	defer source.Close()

	batch, err := source.NextBatch(10)
	assert.Equal(t, io.EOF, err)
	require.Len(t, batch, 1)

	rec := batch[0]
	assert.Equal(t, "1", rec[models.FieldVendorID])
	assert.Equal(t, "2024-01-01 10:00:00", rec[models.FieldPickupTime])
	assert.Equal(t, "1", rec[models.FieldRateCode])
	assert.Equal(t, "100", rec[models.FieldPickupLocation])
	assert.Equal(t, "0.5", rec[models.FieldTax])
	assert.Equal(t, "19.0", rec[models.FieldTotalAmount])
}

func TestCSVSource_BatchesAtRequestedSize(t *testing.T) {
	content := tlcHeader
	for i := 0; i < 5; i++ {
		content += "1,2024-01-01 10:00:00,2024-01-01 10:30:00,2,5.5,1,100,200,1,15.0,0.5,0.5,3.0,0.0,19.0\n"
	}
	source, err := NewCSVSource(writeExtract(t, content))
	require.NoError(t, err)
	defer source.Close()

	first, err := source.NextBatch(2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := source.NextBatch(2)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	// Final short batch arrives together with EOF
	last, err := source.NextBatch(2)
	assert.Equal(t, io.EOF, err)
	assert.Len(t, last, 1)

	// Exhausted source keeps returning EOF
	again, err := source.NextBatch(2)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, again)
}

func TestCSVSource_ShortRowLacksTrailingFields(t *testing.T) {
	// A truncated row is still a record; the missing fields make the
	// validator reject it rather than failing the whole file
	path := writeExtract(t, tlcHeader+"1,2024-01-01 10:00:00\n")

	source, err := NewCSVSource(path)
	require.NoError(t, err)
	defer source.Close()

	batch, err := source.NextBatch(10)
	assert.Equal(t, io.EOF, err)
	require.Len(t, batch, 1)

	_, ok := batch[0][models.FieldTotalAmount]
	assert.False(t, ok)
	assert.Equal(t, "1", batch[0][models.FieldVendorID])
}

func TestCSVSource_UnknownColumnsAreIgnored(t *testing.T) {
	path := writeExtract(t, "VendorID,airport_fee,congestion_surcharge\n1,1.25,2.5\n")

	source, err := NewCSVSource(path)
	require.NoError(t, err)
	defer source.Close()

	batch, err := source.NextBatch(10)
	assert.Equal(t, io.EOF, err)
	require.Len(t, batch, 1)
	assert.Equal(t, models.RawRecord{models.FieldVendorID: "1"}, batch[0])
}

func TestCSVSource_MissingFileIsMalformed(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.Equal(t, lib.CategoryMalformedBatch, lib.CategoryOf(err))
}

func TestCSVSource_EmptyFileIsMalformed(t *testing.T) {
	_, err := NewCSVSource(writeExtract(t, ""))

	require.Error(t, err)
	assert.Equal(t, lib.CategoryMalformedBatch, lib.CategoryOf(err))
}

func TestCSVSource_UnparseableRowIsMalformed(t *testing.T) {
	// An unterminated quote breaks the CSV parser mid-stream
	path := writeExtract(t, "VendorID,fare_amount\n1,\"broken\n")

	source, err := NewCSVSource(path)
	require.NoError(t, err)
	defer source.Close()

	_, err = source.NextBatch(10)
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
	assert.Equal(t, lib.CategoryMalformedBatch, lib.CategoryOf(err))
}

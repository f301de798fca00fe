package pipeline

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelland/tripline/internal/models"
)

func TestFileSink_WritesOneNDJSONLinePerReject(t *testing.T) {
	rejectedDir := filepath.Join(t.TempDir(), "rejected")
	sink, err := NewFileSink(rejectedDir, "run-1")
	require.NoError(t, err)

	require.NoError(t, sink.Write(
		models.RawRecord{models.FieldVendorID: "3"},
		models.RejectionReason{Field: models.FieldVendorID, Cause: "value 3 outside range [1, 2]"},
	))
	require.NoError(t, sink.Write(
		models.RawRecord{models.FieldTripDistance: "-1"},
		models.RejectionReason{Field: models.FieldTripDistance, Cause: "negative value"},
	))
	require.NoError(t, sink.Close())

	file, err := os.Open(filepath.Join(rejectedDir, "run-1.ndjson"))
	require.NoError(t, err)
	defer file.Close()

	var entries []rejectedEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry rejectedEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	assert.Equal(t, models.FieldVendorID, entries[0].Field)
	assert.Equal(t, "3", entries[0].Record[models.FieldVendorID])
	assert.Equal(t, models.FieldTripDistance, entries[1].Field)
	assert.Equal(t, "negative value", entries[1].Cause)
}

func TestNewFileSink_CreatesRejectedDirectory(t *testing.T) {
	rejectedDir := filepath.Join(t.TempDir(), "deep", "rejected")

	sink, err := NewFileSink(rejectedDir, "run-2")
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	_, err = os.Stat(filepath.Join(rejectedDir, "run-2.ndjson"))
	assert.NoError(t, err)
}

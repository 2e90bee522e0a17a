package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgris/sims-maf-contrib/internal/tde"
)

func sampleTrials() []tde.TrialRecord {
	return []tde.TrialRecord{
		{TShift: 0, Observations: []tde.ObservationDiagnostic{
			{TShift: 0, MJD: 1000, M5: 25, Filter: "g", LCNumber: 0, LCEpoch: -20, PrePeak: true, Mag: 20, SNR: 500, MagErr: 0.0021, AboveThresh: true, Detected: true},
			{TShift: 0, MJD: 1020, M5: 25, Filter: "r", LCNumber: 0, LCEpoch: 0, NearPeak: true, Mag: 15.5, SNR: 3000, MagErr: 0.0004, AboveThresh: true, Detected: true},
		}},
		{TShift: 15, Observations: []tde.ObservationDiagnostic{
			{TShift: 15, MJD: 1000, M5: 25, Filter: "g", LCNumber: 0, LCEpoch: -5, PrePeak: true, Mag: 16.25, SNR: 1500, MagErr: 0.0007, AboveThresh: true},
		}},
	}
}

func TestWriteDiagnosticsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDiagnosticsCSV(&buf, "field-0001", sampleTrials(), true))
	require.NoError(t, WriteDiagnosticsCSV(&buf, "field-0002", sampleTrials()[1:], false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, DiagnosticsHeader, records[0])
	assert.Equal(t, []string{
		"field-0001", "0", "1000", "25", "g", "0", "-20",
		"true", "false", "false", "20", "500", "0.0021", "true", "true",
	}, records[1])
	assert.Equal(t, "15", records[3][1])
	assert.Equal(t, "false", records[3][14])
	assert.Equal(t, "field-0002", records[4][0])
}

func TestWriteDiagnosticsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDiagnosticsCSV(&buf, "x", nil, false))
	assert.Empty(t, buf.String())
}

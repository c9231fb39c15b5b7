package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentperf/inference"
	"studentperf/student"
)

func TestPredictionLogRecordAndRead(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "audit", "predictions.db"))
	require.NoError(t, err)
	defer log.Close()

	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	log.now = func() time.Time { return fixed }

	raw := make(map[string]any)
	for k, v := range student.Example() {
		raw[k] = v
	}
	features, err := student.NewValidator(student.ReportAll).Validate(raw)
	require.NoError(t, err)

	result := inference.Result{
		Prediction:      "Pass",
		Label:           1,
		Confidence:      0.8,
		ProbabilityPass: 0.8,
		ProbabilityFail: 0.2,
	}
	require.NoError(t, log.Record(features, result))
	require.NoError(t, log.Record(features, result))

	n, err := log.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := log.Recent(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 2, records[0].ID)
	assert.Equal(t, result, records[0].Result)
	assert.EqualValues(t, 17, records[0].Features["age"])
	assert.EqualValues(t, 3, records[0].Features["Medu"])
	assert.True(t, fixed.Equal(records[0].CreatedAt))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

package models

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	valid := Record{Timestamp: 0, Temperature: 25, VibrationX: 1, VibrationY: 1, Voltage: 5}
	require.NoError(t, valid.Validate())

	early := Record{Timestamp: -0.5, Temperature: 25, Voltage: 5}
	require.NoError(t, early.Validate(), "timestamps before the test start are valid")

	cases := map[string]Record{
		"nan temperature": {Temperature: math.NaN()},
		"inf voltage":     {Voltage: math.Inf(-1)},
		"inf vibration":   {VibrationY: math.Inf(1)},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, r.Validate())
		})
	}
}

func TestSummaryCount(t *testing.T) {
	s := Summary{TemperatureDriftCount: 1, ExcessiveVibrationCount: 2, VoltageDropCount: 3}

	assert.Equal(t, 1, s.Count(TemperatureDrift))
	assert.Equal(t, 2, s.Count(ExcessiveVibration))
	assert.Equal(t, 3, s.Count(VoltageDrop))
	assert.Equal(t, 0, s.Count(AnomalyType("unknown")))
	assert.Equal(t, 6, s.Total())
}

func TestNewAnalysisResult(t *testing.T) {
	report := Report{Anomalies: []AnomalyEvent{}, Summary: Summary{}}

	a := NewAnalysisResult("run", 3, report)
	b := NewAnalysisResult("run", 3, report)

	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, "run", a.Source)
	assert.Equal(t, 3, a.RecordCount)
	assert.False(t, a.ProcessedAt.IsZero())
}

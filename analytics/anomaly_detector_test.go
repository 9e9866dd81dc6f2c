package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-anomaly-analyzer/models"
)

func TestVibrationCheck(t *testing.T) {
	vc := &VibrationCheck{}

	_, ok := vc.Check(models.Record{Timestamp: 0, VibrationX: 0, VibrationY: 0})
	require.False(t, ok)

	_, ok = vc.Check(models.Record{Timestamp: 1, VibrationX: 6, VibrationY: 8})
	require.False(t, ok, "magnitude of exactly 10 is not excessive")

	event, ok := vc.Check(models.Record{Timestamp: 2, VibrationX: 6, VibrationY: 9})
	require.True(t, ok)
	assert.Equal(t, models.ExcessiveVibration, event.Type)
	assert.Equal(t, 2.0, event.Timestamp)
	assert.Equal(t, "Combined Magnitude: 10.8167", event.Details)

	_, ok = vc.Check(models.Record{Timestamp: 3, VibrationX: -11, VibrationY: 0})
	require.True(t, ok, "negative axis readings count by magnitude")
	assert.Equal(t, 2, vc.Count())
}

func TestTemperatureDriftWithinWindow(t *testing.T) {
	tc := NewTemperatureDriftCheck()

	_, ok := tc.Check(models.Record{Timestamp: 0, Temperature: 20})
	require.False(t, ok, "a single record never drifts")

	event, ok := tc.Check(models.Record{Timestamp: 30, Temperature: 25.1})
	require.True(t, ok)
	assert.Equal(t, models.TemperatureDrift, event.Type)
	assert.Equal(t, 30.0, event.Timestamp)
	assert.Equal(t, "Temperature Change: 5.10 Degrees C", event.Details)
	assert.Equal(t, 1, tc.Count())
}

func TestTemperatureDriftEvictsBeforeComparing(t *testing.T) {
	tc := NewTemperatureDriftCheck()

	_, ok := tc.Check(models.Record{Timestamp: 0, Temperature: 20})
	require.False(t, ok)
	_, ok = tc.Check(models.Record{Timestamp: 61, Temperature: 25.1})
	require.False(t, ok)
	assert.Equal(t, 1, tc.WindowLen())
	assert.Zero(t, tc.Count())
}

func TestTemperatureDriftBoundaryAtSixtySeconds(t *testing.T) {
	tc := NewTemperatureDriftCheck()

	tc.Check(models.Record{Timestamp: 0, Temperature: 20})
	_, ok := tc.Check(models.Record{Timestamp: 60, Temperature: 26})
	require.True(t, ok, "a record exactly 60s old is still in the window")
}

func TestTemperatureDriftExactlyFiveIsNotDrift(t *testing.T) {
	tc := NewTemperatureDriftCheck()

	tc.Check(models.Record{Timestamp: 0, Temperature: 20})
	_, ok := tc.Check(models.Record{Timestamp: 10, Temperature: 25})
	require.False(t, ok)
	_, ok = tc.Check(models.Record{Timestamp: 20, Temperature: 15})
	require.True(t, ok, "drift is measured across the whole window, not against the previous record")
}

func TestTemperatureDriftRepeatsWhileSustained(t *testing.T) {
	tc := NewTemperatureDriftCheck()

	tc.Check(models.Record{Timestamp: 0, Temperature: 20})
	for ts := 10.0; ts <= 50; ts += 10 {
		_, ok := tc.Check(models.Record{Timestamp: ts, Temperature: 30})
		require.True(t, ok)
	}
	assert.Equal(t, 5, tc.Count())

	_, ok := tc.Check(models.Record{Timestamp: 70, Temperature: 30})
	require.False(t, ok, "the cold record has aged out")
}

func feedVoltages(vc *VoltageDropCheck, voltages ...float64) []models.AnomalyEvent {
	var events []models.AnomalyEvent
	for i, v := range voltages {
		if event, ok := vc.Check(models.Record{Timestamp: float64(i), Voltage: v}); ok {
			events = append(events, event)
		}
	}
	return events
}

func lows(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestVoltageDropInitialState(t *testing.T) {
	state := NewVoltageDropState()
	assert.True(t, math.IsNaN(state.PreviousVoltage))
	assert.Zero(t, state.ConsecutiveLows)

	vc := NewVoltageDropCheck()
	_, ok := vc.Check(models.Record{Timestamp: 0, Voltage: 3.0})
	require.False(t, ok)
	assert.Equal(t, 3.0, vc.State().PreviousVoltage)
	assert.Equal(t, 1, vc.State().ConsecutiveLows)
}

func TestVoltageDropFiresFromEleventhLowReading(t *testing.T) {
	vc := NewVoltageDropCheck()
	voltages := append([]float64{5.0}, lows(12, 4.0)...)
	voltages = append(voltages, 5.0)

	events := feedVoltages(vc, voltages...)
	require.Len(t, events, 2)
	assert.Equal(t, 11.0, events[0].Timestamp)
	assert.Equal(t, 12.0, events[1].Timestamp)
	assert.Equal(t, models.VoltageDrop, events[0].Type)
	assert.Equal(t, "Consecutive Low Readings: 11 (4.00 V)", events[0].Details)
	assert.Equal(t, 2, vc.Count())
	assert.Zero(t, vc.State().ConsecutiveLows)
}

func TestVoltageDropTenLowsDoNotFire(t *testing.T) {
	vc := NewVoltageDropCheck()
	events := feedVoltages(vc, lows(10, 4.4)...)
	assert.Empty(t, events)
	assert.Equal(t, 10, vc.State().ConsecutiveLows)
}

func TestVoltageDropRunStartingAtFirstRecord(t *testing.T) {
	vc := NewVoltageDropCheck()
	events := feedVoltages(vc, lows(11, 4.0)...)
	require.Len(t, events, 1)
	assert.Equal(t, 10.0, events[0].Timestamp)
}

func TestVoltageDropResetAtThreshold(t *testing.T) {
	vc := NewVoltageDropCheck()
	voltages := append(lows(9, 4.0), 4.5)
	voltages = append(voltages, lows(10, 4.0)...)

	events := feedVoltages(vc, voltages...)
	assert.Empty(t, events, "4.5V is not low and breaks the run")
	assert.Equal(t, 10, vc.State().ConsecutiveLows)
}

func TestVoltageDropResumeFromState(t *testing.T) {
	vc := NewVoltageDropCheckFrom(VoltageDropState{PreviousVoltage: 4.0, ConsecutiveLows: 10})

	event, ok := vc.Check(models.Record{Timestamp: 42, Voltage: 4.1})
	require.True(t, ok)
	assert.Equal(t, 42.0, event.Timestamp)
	assert.Equal(t, 11, vc.State().ConsecutiveLows)
}

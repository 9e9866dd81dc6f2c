package analytics

import (
	"fmt"
	"math"

	"sensor-anomaly-analyzer/models"
)

const (
	driftWindowSeconds  = 60.0
	driftThreshold      = 5.0
	vibrationThreshold  = 10.0
	lowVoltageThreshold = 4.5
	maxConsecutiveLows  = 10
)

// VibrationCheck flags records whose combined vibration magnitude exceeds the threshold.
type VibrationCheck struct {
	count int
}

func (vc *VibrationCheck) Check(record models.Record) (models.AnomalyEvent, bool) {
	magnitude := math.Sqrt(record.VibrationX*record.VibrationX + record.VibrationY*record.VibrationY)
	if magnitude <= vibrationThreshold {
		return models.AnomalyEvent{}, false
	}

	vc.count++
	return models.AnomalyEvent{
		Type:      models.ExcessiveVibration,
		Timestamp: record.Timestamp,
		Details:   fmt.Sprintf("Combined Magnitude: %.4f", magnitude),
	}, true
}

func (vc *VibrationCheck) Count() int {
	return vc.count
}

// TemperatureDriftCheck flags records at which the temperature spread inside the trailing
// 60 second window exceeds 5 degrees. A sustained drift is reported on every record it covers.
type TemperatureDriftCheck struct {
	window *RollingWindow
	count  int
}

func NewTemperatureDriftCheck() *TemperatureDriftCheck {
	return &TemperatureDriftCheck{
		window: NewRollingWindow(driftWindowSeconds),
	}
}

func (tc *TemperatureDriftCheck) Check(record models.Record) (models.AnomalyEvent, bool) {
	tc.window.Add(record)

	minTemp, maxTemp, ok := tc.window.TemperatureRange()
	if !ok {
		return models.AnomalyEvent{}, false
	}

	change := math.Abs(maxTemp - minTemp)
	if change <= driftThreshold {
		return models.AnomalyEvent{}, false
	}

	tc.count++
	return models.AnomalyEvent{
		Type:      models.TemperatureDrift,
		Timestamp: record.Timestamp,
		Details:   fmt.Sprintf("Temperature Change: %.2f Degrees C", change),
	}, true
}

func (tc *TemperatureDriftCheck) Count() int {
	return tc.count
}

func (tc *TemperatureDriftCheck) WindowLen() int {
	return tc.window.Len()
}

// VoltageDropState is the voltage check's run state. PreviousVoltage is NaN until the first
// reading; ConsecutiveLows is the length of the current run of readings below 4.5V.
type VoltageDropState struct {
	PreviousVoltage float64
	ConsecutiveLows int
}

func NewVoltageDropState() VoltageDropState {
	return VoltageDropState{PreviousVoltage: math.NaN()}
}

// VoltageDropCheck flags every reading that extends a low-voltage run past 10 readings,
// so the 11th consecutive low reading is the first one reported.
type VoltageDropCheck struct {
	state VoltageDropState
	count int
}

func NewVoltageDropCheck() *VoltageDropCheck {
	return NewVoltageDropCheckFrom(NewVoltageDropState())
}

// NewVoltageDropCheckFrom resumes the check from an explicit state.
func NewVoltageDropCheckFrom(state VoltageDropState) *VoltageDropCheck {
	return &VoltageDropCheck{state: state}
}

func (vc *VoltageDropCheck) Check(record models.Record) (models.AnomalyEvent, bool) {
	prev := vc.state.PreviousVoltage
	vc.state.PreviousVoltage = record.Voltage

	switch {
	case record.Voltage >= lowVoltageThreshold:
		vc.state.ConsecutiveLows = 0
		return models.AnomalyEvent{}, false
	case math.IsNaN(prev) || prev >= lowVoltageThreshold:
		vc.state.ConsecutiveLows = 1
	default:
		vc.state.ConsecutiveLows++
	}

	if vc.state.ConsecutiveLows <= maxConsecutiveLows {
		return models.AnomalyEvent{}, false
	}

	vc.count++
	return models.AnomalyEvent{
		Type:      models.VoltageDrop,
		Timestamp: record.Timestamp,
		Details:   fmt.Sprintf("Consecutive Low Readings: %d (%.2f V)", vc.state.ConsecutiveLows, record.Voltage),
	}, true
}

func (vc *VoltageDropCheck) State() VoltageDropState {
	return vc.state
}

func (vc *VoltageDropCheck) Count() int {
	return vc.count
}

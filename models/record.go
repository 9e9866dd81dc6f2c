package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Record is a single timestamped sensor sample. Timestamp is seconds since the start of the test.
type Record struct {
	Timestamp   float64 `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	VibrationX  float64 `json:"vibration_x"`
	VibrationY  float64 `json:"vibration_y"`
	Voltage     float64 `json:"voltage"`
}

func (r *Record) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"timestamp", r.Timestamp},
		{"temperature", r.Temperature},
		{"vibration_x", r.VibrationX},
		{"vibration_y", r.VibrationY},
		{"voltage", r.Voltage},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}

	return nil
}

type AnomalyType string

const (
	TemperatureDrift   AnomalyType = "temperature_drift"
	ExcessiveVibration AnomalyType = "excessive_vibration"
	VoltageDrop        AnomalyType = "voltage_drop"
)

// AnomalyTypes lists every anomaly type in check order.
var AnomalyTypes = []AnomalyType{TemperatureDrift, VoltageDrop, ExcessiveVibration}

type AnomalyEvent struct {
	Type      AnomalyType `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Details   string      `json:"details,omitempty"`
}

type Summary struct {
	TemperatureDriftCount   int `json:"temperature_drift_count"`
	ExcessiveVibrationCount int `json:"excessive_vibration_count"`
	VoltageDropCount        int `json:"voltage_drop_count"`
}

// Count returns the counter for the given anomaly type.
func (s Summary) Count(t AnomalyType) int {
	switch t {
	case TemperatureDrift:
		return s.TemperatureDriftCount
	case ExcessiveVibration:
		return s.ExcessiveVibrationCount
	case VoltageDrop:
		return s.VoltageDropCount
	}
	return 0
}

func (s Summary) Total() int {
	return s.TemperatureDriftCount + s.ExcessiveVibrationCount + s.VoltageDropCount
}

// Report is the engine output for one record sequence.
type Report struct {
	Anomalies []AnomalyEvent `json:"anomalies"`
	Summary   Summary        `json:"summary"`
}

// AnalysisResult wraps a Report with the bookkeeping of the run that produced it.
type AnalysisResult struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"record_count"`
	Report      Report    `json:"report"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewAnalysisResult stamps report with a fresh run id and the current UTC time.
func NewAnalysisResult(source string, recordCount int, report Report) AnalysisResult {
	return AnalysisResult{
		RunID:       uuid.NewString(),
		Source:      source,
		RecordCount: recordCount,
		Report:      report,
		ProcessedAt: time.Now().UTC(),
	}
}

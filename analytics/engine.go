package analytics

import (
	"log/slog"

	"sensor-anomaly-analyzer/models"
)

type AnomalyCallback func(event models.AnomalyEvent)

// AnalyticsEngine runs the temperature, voltage and vibration checks over a record sequence.
// It holds no per-run state, so one engine can serve concurrent callers.
type AnalyticsEngine struct {
	logger    *slog.Logger
	onAnomaly AnomalyCallback
}

func NewAnalyticsEngine(logger *slog.Logger, onAnomaly AnomalyCallback) *AnalyticsEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsEngine{
		logger:    logger,
		onAnomaly: onAnomaly,
	}
}

// analysisRun is the state of a single pass. It is built fresh for every Analyze call.
type analysisRun struct {
	temperature *TemperatureDriftCheck
	voltage     *VoltageDropCheck
	vibration   *VibrationCheck
	anomalies   []models.AnomalyEvent
}

func newAnalysisRun() *analysisRun {
	return &analysisRun{
		temperature: NewTemperatureDriftCheck(),
		voltage:     NewVoltageDropCheck(),
		vibration:   &VibrationCheck{},
		anomalies:   make([]models.AnomalyEvent, 0),
	}
}

func (run *analysisRun) step(record models.Record) []models.AnomalyEvent {
	start := len(run.anomalies)

	if event, ok := run.temperature.Check(record); ok {
		run.anomalies = append(run.anomalies, event)
	}
	if event, ok := run.voltage.Check(record); ok {
		run.anomalies = append(run.anomalies, event)
	}
	if event, ok := run.vibration.Check(record); ok {
		run.anomalies = append(run.anomalies, event)
	}

	return run.anomalies[start:]
}

func (run *analysisRun) summary() models.Summary {
	return models.Summary{
		TemperatureDriftCount:   run.temperature.Count(),
		ExcessiveVibrationCount: run.vibration.Count(),
		VoltageDropCount:        run.voltage.Count(),
	}
}

// Analyze makes a single pass over records in the given order and returns the anomalies in
// detection order together with per-type counts. records is not modified.
func (ae *AnalyticsEngine) Analyze(records []models.Record) models.Report {
	run := newAnalysisRun()

	for _, record := range records {
		for _, event := range run.step(record) {
			ae.logger.Debug("anomaly detected",
				slog.String("type", string(event.Type)),
				slog.Float64("timestamp", event.Timestamp),
				slog.String("details", event.Details))

			if ae.onAnomaly != nil {
				ae.onAnomaly(event)
			}
		}
	}

	summary := run.summary()
	ae.logger.Info("analysis complete",
		slog.Int("records", len(records)),
		slog.Int("temperature_drift_count", summary.TemperatureDriftCount),
		slog.Int("excessive_vibration_count", summary.ExcessiveVibrationCount),
		slog.Int("voltage_drop_count", summary.VoltageDropCount))

	return models.Report{
		Anomalies: run.anomalies,
		Summary:   summary,
	}
}

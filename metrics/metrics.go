package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sensor-anomaly-analyzer/models"
)

const (
	OutcomeOK     = "ok"
	OutcomeNoData = "no_data"
	OutcomeError  = "error"
)

var (
	anomaliesDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensor_analyzer",
			Name:      "anomalies_detected_total",
			Help:      "Total number of anomalies detected, partitioned by type.",
		},
		[]string{"type"},
	)

	recordsAnalyzedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sensor_analyzer",
			Name:      "records_analyzed_total",
			Help:      "Total number of sensor records passed through the engine.",
		},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensor_analyzer",
			Name:      "runs_total",
			Help:      "Analysis runs partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sensor_analyzer",
			Name:      "run_duration_seconds",
			Help:      "Time spent loading and analysing one source.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)
)

// Register attaches the analyzer collectors to reg. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		anomaliesDetectedTotal,
		recordsAnalyzedTotal,
		runsTotal,
		runDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnomaly is meant to be passed as the engine's anomaly callback.
func ObserveAnomaly(event models.AnomalyEvent) {
	anomaliesDetectedTotal.WithLabelValues(string(event.Type)).Inc()
}

func ObserveRun(duration time.Duration, outcome string, records int) {
	switch outcome {
	case OutcomeOK, OutcomeNoData:
	default:
		outcome = OutcomeError
	}
	runsTotal.WithLabelValues(outcome).Inc()
	if records > 0 {
		recordsAnalyzedTotal.Add(float64(records))
	}
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

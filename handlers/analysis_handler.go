package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensor-anomaly-analyzer/analytics"
	"sensor-anomaly-analyzer/cache"
	"sensor-anomaly-analyzer/metrics"
	"sensor-anomaly-analyzer/models"
	"sensor-anomaly-analyzer/source"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// analyzeRequest is the envelope form of POST /analyze. A bare JSON array of records is
// accepted as well.
type analyzeRequest struct {
	Source  string          `json:"source"`
	Records json.RawMessage `json:"records"`
}

type AnalysisHandler struct {
	logger       *slog.Logger
	engine       *analytics.AnalyticsEngine
	store        cache.ResultStore
	maxBodyBytes int64
}

func NewAnalysisHandler(logger *slog.Logger, engine *analytics.AnalyticsEngine, store cache.ResultStore, maxBodyBytes int64) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = cache.NoopStore{}
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 << 20
	}
	return &AnalysisHandler{
		logger:       logger,
		engine:       engine,
		store:        store,
		maxBodyBytes: maxBodyBytes,
	}
}

// NewRouter wires the analysis endpoints, the health check and the Prometheus endpoint.
func NewRouter(h *AnalysisHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/health", HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/analyze", h.HandleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/results/{id}", h.HandleGetResult).Methods(http.MethodGet)
	r.Path("/metrics").Handler(promhttp.Handler())

	return r
}

func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		metrics.ObserveRun(time.Since(start), metrics.OutcomeNoData, 0)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	sourceName, records, err := decodeAnalyzeRequest(body)
	if err != nil {
		metrics.ObserveRun(time.Since(start), metrics.OutcomeNoData, 0)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := models.NewAnalysisResult(sourceName, len(records), h.engine.Analyze(records))
	metrics.ObserveRun(time.Since(start), metrics.OutcomeOK, len(records))

	if err := h.store.SaveAnalysis(r.Context(), result); err != nil {
		h.logger.Warn("failed to cache analysis", slog.String("run_id", result.RunID), slog.Any("error", err))
	}

	writeJSON(w, http.StatusOK, result)
}

func decodeAnalyzeRequest(body []byte) (string, []models.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", nil, errors.New("request body is empty")
	}

	if trimmed[0] == '[' {
		records, err := source.DecodeBytes(trimmed)
		return "request", records, err
	}

	var req analyzeRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return "", nil, errors.New("invalid JSON format")
	}
	if len(req.Records) == 0 {
		return "", nil, errors.New("records field is required")
	}

	records, err := source.DecodeBytes(req.Records)
	if err != nil {
		return "", nil, err
	}

	name := req.Source
	if name == "" {
		name = "request"
	}
	return name, records, nil
}

func (h *AnalysisHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if runID == "" {
		writeError(w, http.StatusBadRequest, "id parameter is required")
		return
	}

	result, err := h.store.GetAnalysis(r.Context(), runID)
	if errors.Is(err, cache.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "result storage is not configured")
		return
	}
	if err != nil {
		h.logger.Error("failed to get analysis", slog.String("run_id", runID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency labelled by route template, not raw path.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		requestDurationSeconds.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

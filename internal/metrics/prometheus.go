// Package metrics exposes pipeline and HTTP metrics for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

const namespace = "labtriage"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Pipeline metrics
	documentsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_analyzed_total",
			Help:      "Documents run through the pipeline by outcome",
		},
		[]string{"outcome"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"stage"},
	)

	candidatesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_extracted_total",
			Help:      "Result candidates produced by extraction strategy",
		},
		[]string{"strategy"},
	)

	criticalValues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "critical_values_total",
			Help:      "Critical values detected by urgency",
		},
		[]string{"urgency"},
	)

	priorityLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "priority_level_total",
			Help:      "Analyses by assigned priority level",
		},
		[]string{"level"},
	)

	referenceReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_reloads_total",
			Help:      "Reference data reloads by result",
		},
		[]string{"result"},
	)
)

// Outcomes recorded by RecordDocument.
const (
	OutcomeOK         = "ok"
	OutcomeIssues     = "issues"
	OutcomeDecodeFail = "decode_failure"
	OutcomeCancelled  = "cancelled"
	OutcomeError      = "error"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count, duration and in-flight requests.
// Routes are labelled by their chi pattern to bound cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// --- Pipeline helpers ---

// RecordDocument records one pipeline run.
func RecordDocument(outcome string) {
	documentsAnalyzed.WithLabelValues(outcome).Inc()
}

// RecordStage records a stage duration.
func RecordStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCandidates counts extraction candidates per strategy.
func RecordCandidates(results []domain.ExtractedResult) {
	for i := range results {
		candidatesExtracted.WithLabelValues(results[i].Strategy).Inc()
	}
}

// RecordAnalysis records the critical values and priority of a finished analysis.
func RecordAnalysis(a *domain.Analysis) {
	for _, cv := range a.CriticalValues {
		criticalValues.WithLabelValues(string(cv.Threshold.Urgency)).Inc()
	}
	priorityLevels.WithLabelValues(string(a.Priority.Level)).Inc()
}

// RecordReload records a reference data reload attempt.
func RecordReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	referenceReloads.WithLabelValues(result).Inc()
}

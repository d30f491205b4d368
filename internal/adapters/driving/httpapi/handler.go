// Package httpapi exposes the analysis pipeline and reference tables over
// HTTP with a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driving"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/metrics"
	"github.com/custodia-labs/labtriage/internal/ratelimit"
)

// DefaultMaxUploadBytes caps request bodies when Config leaves it unset.
const DefaultMaxUploadBytes = 20 << 20

// uploadField is the multipart form field carrying the report.
const uploadField = "file"

// Config tunes the HTTP adapter.
type Config struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration

	// Limiter throttles /v1 requests. Optional.
	Limiter *ratelimit.Limiter
}

// Handler provides HTTP handlers for analyses and reference data.
type Handler struct {
	analysis  driving.AnalysisService
	reference driving.ReferenceService
	cfg       Config
}

// NewHandler creates a new handler.
func NewHandler(analysis driving.AnalysisService, reference driving.ReferenceService, cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return &Handler{analysis: analysis, reference: reference, cfg: cfg}
}

// Router returns the complete HTTP surface: health, metrics and /v1.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.cfg.RequestTimeout))
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if h.cfg.Limiter != nil {
			r.Use(rateLimit(h.cfg.Limiter))
		}
		r.Mount("/", h.Routes())
	})
	return r
}

// Routes registers the versioned API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/analyses", h.CreateAnalysis)

	r.Route("/markers", func(r chi.Router) {
		r.Get("/", h.ListMarkers)
		r.Get("/{code}", h.GetMarker)
	})
	r.Get("/thresholds", h.ListThresholds)
	r.Post("/refdata/reload", h.ReloadReference)

	return r
}

// --- Response types ---

type healthResponse struct {
	Status           string `json:"status"`
	ReferenceVersion string `json:"reference_version,omitempty"`
}

type markersResponse struct {
	Version string                   `json:"version"`
	Markers []domain.CanonicalMarker `json:"markers"`
}

type thresholdsResponse struct {
	Version    string                     `json:"version"`
	Thresholds []domain.CriticalThreshold `json:"thresholds"`
}

// --- Handlers ---

// Health reports liveness and the active reference version.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.reference != nil {
		resp.ReferenceVersion = h.reference.Version()
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAnalysis analyses an uploaded report. The body is either a
// multipart form with a "file" part or the raw document bytes. Patient
// context comes from the age and sex form or query values.
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	raw, err := h.readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}

	patient, err := patientFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.analysis.Analyze(r.Context(), raw, patient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListMarkers lists every marker, or resolves one surface name when the
// alias query parameter is set.
func (h *Handler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	if alias := r.URL.Query().Get("alias"); alias != "" {
		m, err := h.reference.LookupAlias(alias)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}
	writeJSON(w, http.StatusOK, markersResponse{
		Version: h.reference.Version(),
		Markers: h.reference.Markers(),
	})
}

// GetMarker returns one marker by code.
func (h *Handler) GetMarker(w http.ResponseWriter, r *http.Request) {
	m, err := h.reference.Marker(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListThresholds returns every critical threshold.
func (h *Handler) ListThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, thresholdsResponse{
		Version:    h.reference.Version(),
		Thresholds: h.reference.Thresholds(),
	})
}

// ReloadReference re-reads the reference source.
func (h *Handler) ReloadReference(w http.ResponseWriter, r *http.Request) {
	if err := h.reference.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "reloaded", ReferenceVersion: h.reference.Version()})
}

// --- Helpers ---

func (h *Handler) readDocument(r *http.Request) (*domain.RawDocument, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
			return nil, uploadError(err)
		}
		file, header, err := r.FormFile(uploadField)
		if err != nil {
			return nil, fmt.Errorf("%w: missing %q part: %v", domain.ErrInvalidInput, uploadField, err)
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			return nil, uploadError(err)
		}
		return &domain.RawDocument{
			URI:      header.Filename,
			MIMEType: declaredType(header.Header.Get("Content-Type")),
			Content:  content,
		}, nil
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, uploadError(err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidInput)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	return &domain.RawDocument{URI: name, MIMEType: declaredType(mediaType), Content: content}, nil
}

// declaredType drops generic content types so the decoder registry sniffs
// the bytes instead.
func declaredType(mediaType string) string {
	switch mediaType {
	case "application/octet-stream", "application/x-www-form-urlencoded":
		return ""
	}
	return mediaType
}

func patientFromRequest(r *http.Request) (*domain.PatientContext, error) {
	ageText := r.FormValue("age")
	sexText := r.FormValue("sex")
	if ageText == "" && sexText == "" {
		return nil, nil
	}

	p := &domain.PatientContext{Sex: domain.ParseSex(sexText)}
	if ageText != "" {
		age, err := strconv.Atoi(ageText)
		if err != nil || age < 0 || age > 150 {
			return nil, fmt.Errorf("%w: age %q", domain.ErrInvalidInput, ageText)
		}
		p.Age = &age
	}
	return p, nil
}

type uploadTooLarge struct{ err error }

func (e uploadTooLarge) Error() string { return e.err.Error() }
func (e uploadTooLarge) Unwrap() error { return e.err }

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return uploadTooLarge{err: err}
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

func rateLimit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				secs := int(l.RetryAfter().Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func statusFor(err error) int {
	var tooLarge uploadTooLarge
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrDecodingFailure), errors.Is(err, domain.ErrEncryptedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("httpapi: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Warn("httpapi: %v", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

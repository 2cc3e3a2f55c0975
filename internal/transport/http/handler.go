package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/oi_visualizer_go/internal/analysis"
	"github.com/user/oi_visualizer_go/internal/config"
	"github.com/user/oi_visualizer_go/internal/parser"
	"github.com/user/oi_visualizer_go/internal/report"
)

type ctxKey int

const requestIDKey ctxKey = iota

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Handler serves the CSV transform and its reports over HTTP.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
}

// NewHandler creates a handler; its collectors are registered on reg.
func NewHandler(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logger.With(slog.String("handler", "oi")),
		metrics:  NewMetrics(reg),
		gatherer: reg,
	}
}

// Routes sets up the API routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestID)

	r.Get("/api/health", h.Health)
	r.Post("/api/process", h.instrument("process", h.Process))
	r.Post("/api/summary", h.instrument("summary", h.Summary))
	r.Post("/api/report.pdf", h.instrument("report", h.Report))
	r.Post("/api/export.xlsx", h.instrument("export", h.Export))
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return r
}

// requestID tags each request with an X-Request-ID, generating one if absent.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument counts and logs each call of an API route.
func (h *Handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)

		h.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		h.logger.InfoContext(r.Context(), "request handled",
			slog.String("route", route),
			slog.Int("status", rec.code),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestIDFrom(r.Context())))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	h.logger.WarnContext(r.Context(), "request failed",
		slog.Int("status", code),
		slog.String("error", err.Error()),
		slog.String("request_id", requestIDFrom(r.Context())))
	render.Status(r, code)
	render.JSON(w, r, ErrorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
}

// readCSV processes the request body. Only an unreadable or oversized body
// is an error; malformed rows are dropped by the parser.
func (h *Handler) readCSV(w http.ResponseWriter, r *http.Request) (*parser.ProcessedData, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		} else {
			h.fail(w, r, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		}
		return nil, false
	}

	data := parser.ProcessCSVWithColumns(string(body), h.cfg.ColumnMap())
	h.metrics.samples.Observe(float64(data.Len()))
	return data, true
}

// summarize runs the analysis; a body without accepted rows is a 422.
func (h *Handler) summarize(w http.ResponseWriter, r *http.Request, data *parser.ProcessedData) (*analysis.Summary, bool) {
	summary, err := analysis.Summarize(data, h.cfg.Analysis.OITolerance, h.cfg.Analysis.TopN)
	if err != nil {
		h.fail(w, r, http.StatusUnprocessableEntity, err)
		return nil, false
	}
	return summary, true
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Process handles POST /api/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readCSV(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, parser.NewChartPayload(data))
}

// Summary handles POST /api/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readCSV(w, r)
	if !ok {
		return
	}
	summary, ok := h.summarize(w, r, data)
	if !ok {
		return
	}
	render.JSON(w, r, summary)
}

// Report handles POST /api/report.pdf
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readCSV(w, r)
	if !ok {
		return
	}
	summary, ok := h.summarize(w, r, data)
	if !ok {
		return
	}

	images, errs := report.RenderPlots(data, h.cfg.Report.DomeBins)
	for _, err := range errs {
		h.logger.WarnContext(r.Context(), "plot skipped", slog.String("error", err.Error()))
	}

	var buf bytes.Buffer
	if err := report.BuildPDFReport(&buf, data, summary, images); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeAttachment(w, "application/pdf", "oi-report.pdf", buf.Bytes())
}

// Export handles POST /api/export.xlsx
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readCSV(w, r)
	if !ok {
		return
	}
	var summary *analysis.Summary
	if data.Len() > 0 {
		summary, _ = analysis.Summarize(data, h.cfg.Analysis.OITolerance, h.cfg.Analysis.TopN)
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, data, summary); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "oi-samples.xlsx", buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

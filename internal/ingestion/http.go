package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/framepro/internal/registry"
)

// Ingester is the pipeline entry point the HTTP shell drives.
type Ingester interface {
	Ingest(ctx context.Context, req Request) Response
}

// ProcessLookup serves process status queries.
type ProcessLookup interface {
	GetProcess(ctx context.Context, processID string) (*registry.ProcessRecord, error)
}

// Check is a named readiness probe.
type Check func(ctx context.Context) error

// HandlerOptions configures the HTTP shell.
type HandlerOptions struct {
	MaxEventBytes  int64
	RequestTimeout time.Duration
	Lookup         ProcessLookup
	Checks         map[string]Check
}

// HTTPHandler exposes REST endpoints for the ingestion service.
type HTTPHandler struct {
	service Ingester
	logger  *zap.Logger
	opts    HandlerOptions
	router  chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(service Ingester, logger *zap.Logger, opts HandlerOptions) *HTTPHandler {
	if opts.MaxEventBytes <= 0 {
		opts.MaxEventBytes = 64 * 1024
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Minute
	}
	h := &HTTPHandler{
		service: service,
		logger:  logger,
		opts:    opts,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Post("/api/v1/ingestions", h.handleIngest)
	if h.opts.Lookup != nil {
		r.Get("/api/v1/ingestions/{processID}", h.handleGetProcess)
	}

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HTTPHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	report := map[string]string{}
	for name, check := range h.opts.Checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	writeJSON(w, status, report)
}

func (h *HTTPHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxEventBytes)

	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Warn("invalid ingestion event", zap.Error(err))
		writeEnvelope(w, Response{
			StatusCode: http.StatusBadRequest,
			Body:       ErrorBody{Error: "invalid event payload: " + err.Error()},
		})
		return
	}

	if token := bearerToken(r); token != "" {
		event.Token = token
	}

	writeEnvelope(w, h.service.Ingest(r.Context(), event.Request()))
}

func (h *HTTPHandler) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	processID := chi.URLParam(r, "processID")
	rec, err := h.opts.Lookup.GetProcess(r.Context(), processID)
	if err != nil {
		if errors.Is(err, registry.ErrProcessNotFound) {
			writeError(w, http.StatusNotFound, "process not found")
			return
		}
		h.logger.Error("process lookup failed", zap.String("process_id", processID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "process lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"processId":  rec.ProcessID,
		"status":     rec.Status,
		"createdAt":  rec.CreatedAt,
		"updatedAt":  rec.UpdatedAt,
		"finishedAt": rec.FinishedAt,
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func writeEnvelope(w http.ResponseWriter, resp Response) {
	writeJSON(w, resp.StatusCode, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorBody{Error: msg})
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage/ringlog"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
)

// RingStatus reports the internal ring log.
type RingStatus interface {
	Status() ringlog.Status
}

// SessionStatus reports the removable-card session log.
type SessionStatus interface {
	Status() sessionlog.Status
}

// Handler serves the monitoring endpoints.
type Handler struct {
	station  string
	ring     RingStatus
	sessions SessionStatus
	metrics  http.Handler
	logger   *slog.Logger
	now      func() time.Time
	mux      *http.ServeMux
}

// Config wires a Handler. Metrics may be nil, which leaves /metrics
// unrouted.
type Config struct {
	Station  string
	Ring     RingStatus
	Sessions SessionStatus
	Metrics  http.Handler
	Logger   *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &Handler{
		station:  cfg.Station,
		ring:     cfg.Ring,
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      time.Now,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /status", h.handleStatus)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug("write response failed", "path", r.URL.Path, "error", err)
	}
}

// ErrorBody is the JSON body of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err *domain.DomainError) {
	w.Header().Set("X-Error-Code", err.Code)
	h.writeJSON(w, r, status, ErrorBody{Code: err.Code, Message: err.Message, Details: err.Details})
}

// Package api exposes interviews over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garygangwu/tax-copilot/interview"
	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/profile"
	"github.com/garygangwu/tax-copilot/session"
)

// Handler serves interview endpoints backed by an interview.Agent.
type Handler struct {
	agent  *interview.Agent
	logger *slog.Logger
	stats  *observability.Counter
}

// Option configures a Handler.
type Option func(*Handler)

// WithStats serves the counter's snapshot at /api/stats.
func WithStats(c *observability.Counter) Option {
	return func(h *Handler) { h.stats = c }
}

// NewHandler creates a Handler. A nil logger uses slog.Default.
func NewHandler(agent *interview.Agent, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{agent: agent, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidID),
		errors.Is(err, profile.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, interview.ErrCompleted), errors.Is(err, interview.ErrNotCompleted):
		return http.StatusConflict
	case errors.Is(err, interview.ErrNoHistory):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	Error(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

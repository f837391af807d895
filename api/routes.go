package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/garygangwu/tax-copilot/interview"
	"github.com/garygangwu/tax-copilot/session"
)

// NewRouter returns a router with the interview routes and common middleware.
func NewRouter(agent *interview.Agent, logger *slog.Logger, opts ...Option) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	NewHandler(agent, logger, opts...).RegisterRoutes(r)
	return r
}

// RegisterRoutes registers interview routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		if h.stats != nil {
			r.Get("/stats", h.Stats)
		}
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.StartSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Get("/resume", h.ResumeSession)
				r.Post("/messages", h.SendMessage)
				r.Post("/finalize", h.FinalizeSession)
			})
		})
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.ListProfiles)
			r.Get("/{userID}/{taxYear}", h.GetProfile)
			r.Get("/{userID}/{taxYear}/versions", h.ProfileVersions)
		})
	})
}

type startRequest struct {
	UserID  string `json:"user_id"`
	TaxYear int    `json:"tax_year"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	*interview.TurnResult
	Error string `json:"error,omitempty"`
}

// StartSession begins a new interview.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.agent.Start(r.Context(), req.UserID, req.TaxYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("Interview started", "session_id", result.SessionID, "user_id", req.UserID)
	JSON(w, http.StatusCreated, result)
}

// ListSessions lists sessions, filtered by the user_id and tax_year query
// parameters.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	filter := session.Filter{UserID: r.URL.Query().Get("user_id")}
	if y := r.URL.Query().Get("tax_year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid tax_year")
			return
		}
		filter.TaxYear = year
	}

	infos, err := h.agent.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": infos})
}

// GetSession returns a session summary.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.agent.Summary(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, summary)
}

// DeleteSession removes a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.agent.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResumeSession reports where a session left off.
func (h *Handler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	result, err := h.agent.Resume(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// SendMessage processes one user answer.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message required")
		return
	}

	result, err := h.agent.Continue(r.Context(), chi.URLParam(r, "sessionID"), req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := turnResponse{TurnResult: result}
	if result.ProfileError != nil {
		h.logger.Warn("Profile hand-off failed", "session_id", result.SessionID, "error", result.ProfileError)
		resp.Error = result.ProfileError.Error()
	}
	JSON(w, http.StatusOK, resp)
}

// FinalizeSession builds the profile of a completed session.
func (h *Handler) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	p, err := h.agent.Finalize(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// ListProfiles lists saved profiles, optionally for the user_id query
// parameter.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.agent.Profiles(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// GetProfile returns one saved profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	year, ok := taxYear(w, r)
	if !ok {
		return
	}
	p, err := h.agent.Profile(r.Context(), chi.URLParam(r, "userID"), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// ProfileVersions returns the recorded history of a profile.
func (h *Handler) ProfileVersions(w http.ResponseWriter, r *http.Request) {
	year, ok := taxYear(w, r)
	if !ok {
		return
	}
	versions, err := h.agent.ProfileVersions(r.Context(), chi.URLParam(r, "userID"), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// Stats returns event counts since the server started.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.stats.Snapshot())
}

func taxYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "taxYear"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid tax year")
		return 0, false
	}
	return year, true
}

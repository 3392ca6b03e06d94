package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionStore defines the database methods needed by session handlers.
type SessionStore interface {
	CreateMealSession(ctx context.Context, arg database.CreateMealSessionParams) (database.MealSession, error)
	GetMealSession(ctx context.Context, id uuid.UUID) (database.MealSession, error)
	ListMealSessions(ctx context.Context) ([]database.MealSession, error)
	UpdateMealSession(ctx context.Context, arg database.UpdateMealSessionParams) (database.MealSession, error)
	DeleteMealSession(ctx context.Context, id uuid.UUID) error
}

// SessionHandler handles meal session endpoints, including the live
// ordering-window state shown on every menu screen.
type SessionHandler struct {
	store SessionStore
	now   func() time.Time
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store, now: time.Now}
}

// RegisterRoutes registers employee-facing session endpoints.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.List)
	r.Get("/sessions/{id}", h.Get)
}

// RegisterAdminRoutes registers back-office session endpoints.
func (h *SessionHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/sessions", h.Create)
	r.Put("/admin/sessions/{id}", h.Update)
	r.Delete("/admin/sessions/{id}", h.Delete)
}

// --- Request / Response types ---

type sessionRequest struct {
	Name                     string  `json:"name"`
	Description              *string `json:"description"`
	StartTime                string  `json:"start_time"`
	EndTime                  string  `json:"end_time"`
	OrderCutoffMinutesBefore int32   `json:"order_cutoff_minutes_before"`
}

type sessionResponse struct {
	ID                       uuid.UUID `json:"id"`
	Name                     string    `json:"name"`
	Description              *string   `json:"description"`
	StartTime                string    `json:"start_time"`
	EndTime                  string    `json:"end_time"`
	OrderCutoffMinutesBefore int32     `json:"order_cutoff_minutes_before"`
	IsOrderingActive         bool      `json:"is_ordering_active"`
	MinutesUntilCutoff       int       `json:"minutes_until_cutoff"`
	RemainingLabel           string    `json:"remaining_label"`
}

func (h *SessionHandler) toSessionResponse(s database.MealSession) sessionResponse {
	resp := sessionResponse{
		ID:                       s.ID,
		Name:                     s.Name,
		Description:              textOrNil(s.Description),
		StartTime:                s.StartTime,
		EndTime:                  s.EndTime,
		OrderCutoffMinutesBefore: s.OrderCutoffMinutesBefore,
		RemainingLabel:           schedule.FormatRemaining(0),
	}

	window, err := schedule.NewWindow(s.StartTime, s.EndTime, int(s.OrderCutoffMinutesBefore))
	if err != nil {
		// Stored times failed validation on write, so this is corruption;
		// show the session as closed rather than failing the whole list.
		log.Printf("ERROR: session %s has invalid times: %v", s.ID, err)
		return resp
	}

	nowMinutes := schedule.ClockMinutes(h.now())
	resp.IsOrderingActive = window.IsOrderingActive(nowMinutes)
	resp.MinutesUntilCutoff = window.MinutesUntilCutoff(nowMinutes)
	resp.RemainingLabel = schedule.FormatRemaining(resp.MinutesUntilCutoff)
	return resp
}

// --- Handlers ---

// List returns all meal sessions with their current ordering-window state.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListMealSessions(r.Context())
	if err != nil {
		log.Printf("ERROR: list sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, h.toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one meal session with its current ordering-window state.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	session, err := h.store.GetMealSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, h.toSessionResponse(session))
}

// Create adds a meal session. Times are validated up front so the window
// evaluator never sees malformed configuration.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := validateSessionRequest(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	session, err := h.store.CreateMealSession(r.Context(), database.CreateMealSessionParams{
		Name:                     req.Name,
		Description:              textPtrParam(req.Description),
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		OrderCutoffMinutesBefore: req.OrderCutoffMinutesBefore,
	})
	if err != nil {
		log.Printf("ERROR: create session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, h.toSessionResponse(session))
}

// Update replaces a meal session's configuration.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := validateSessionRequest(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	session, err := h.store.UpdateMealSession(r.Context(), database.UpdateMealSessionParams{
		ID:                       id,
		Name:                     req.Name,
		Description:              textPtrParam(req.Description),
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		OrderCutoffMinutesBefore: req.OrderCutoffMinutesBefore,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: update session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, h.toSessionResponse(session))
}

// Delete removes a meal session.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	if err := h.store.DeleteMealSession(r.Context(), id); err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "session has daily menus attached"})
			return
		}
		log.Printf("ERROR: delete session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func validateSessionRequest(req sessionRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if _, err := schedule.ParseClock(req.StartTime); err != nil {
		return "start_time must be HH:MM"
	}
	if _, err := schedule.ParseClock(req.EndTime); err != nil {
		return "end_time must be HH:MM"
	}
	if req.OrderCutoffMinutesBefore < 0 {
		return "order_cutoff_minutes_before must be >= 0"
	}
	return ""
}

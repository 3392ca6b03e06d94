package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoleStore defines the database methods needed by role management.
type RoleStore interface {
	ListProfiles(ctx context.Context) ([]database.Profile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (database.Profile, error)
	SetProfileAdmin(ctx context.Context, arg database.SetProfileAdminParams) (database.Profile, error)
	CreateRoleAudit(ctx context.Context, arg database.CreateRoleAuditParams) (database.AdminRoleAudit, error)
	ListRoleAudit(ctx context.Context, limit int32) ([]database.AdminRoleAudit, error)
}

// RoleHandler manages admin role grants. Every change writes an audit row
// recording who changed what and why.
type RoleHandler struct {
	store RoleStore
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(store RoleStore) *RoleHandler {
	return &RoleHandler{store: store}
}

// RegisterAdminRoutes registers user and role management endpoints.
func (h *RoleHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/users", h.ListUsers)
	r.Patch("/admin/users/{id}/role", h.SetRole)
	r.Get("/admin/users/role-audit", h.ListAudit)
}

// --- Request / Response types ---

type setRoleRequest struct {
	IsAdmin bool   `json:"is_admin"`
	Reason  string `json:"reason"`
}

type roleAuditResponse struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	ChangedByAdminID uuid.UUID `json:"changed_by_admin_id"`
	PreviousRole     bool      `json:"previous_role"`
	NewRole          bool      `json:"new_role"`
	Reason           string    `json:"reason"`
	CreatedAt        time.Time `json:"created_at"`
}

func toRoleAuditResponse(a database.AdminRoleAudit) roleAuditResponse {
	return roleAuditResponse{
		ID:               a.ID,
		UserID:           a.UserID,
		ChangedByAdminID: a.ChangedByAdminID,
		PreviousRole:     a.PreviousRole,
		NewRole:          a.NewRole,
		Reason:           a.Reason,
		CreatedAt:        a.CreatedAt,
	}
}

// --- Handlers ---

// ListUsers returns every registered profile.
func (h *RoleHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		log.Printf("ERROR: list profiles: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetRole grants or revokes the admin role for a user and records the
// change in the audit trail. Admins cannot change their own role.
func (h *RoleHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}
	if userID == claims.UserID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot change your own role"})
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}

	current, err := h.store.GetProfileByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if current.IsAdmin == req.IsAdmin {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "user already has that role"})
		return
	}

	updated, err := h.store.SetProfileAdmin(r.Context(), database.SetProfileAdminParams{
		ID:      userID,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		log.Printf("ERROR: set role: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if _, err := h.store.CreateRoleAudit(r.Context(), database.CreateRoleAuditParams{
		UserID:           userID,
		ChangedByAdminID: claims.UserID,
		PreviousRole:     current.IsAdmin,
		NewRole:          req.IsAdmin,
		Reason:           req.Reason,
	}); err != nil {
		// The role change stands; the missing audit row is logged loudly.
		log.Printf("ERROR: role audit for user %s: %v", userID, err)
	}

	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}

// ListAudit returns the most recent role changes.
func (h *RoleHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListRoleAudit(r.Context(), 100)
	if err != nil {
		log.Printf("ERROR: list role audit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]roleAuditResponse, 0, len(entries))
	for _, a := range entries {
		resp = append(resp, toRoleAuditResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

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
	"github.com/jackc/pgx/v5/pgtype"
)

// EstateStore defines the database methods needed by estate handlers.
type EstateStore interface {
	CreateEstateItem(ctx context.Context, arg database.CreateEstateItemParams) (database.EstateItem, error)
	GetAvailableEstateItem(ctx context.Context, id uuid.UUID) (database.EstateItem, error)
	ListEstateItems(ctx context.Context, availableOnly bool) ([]database.EstateItem, error)
	UpdateEstateItem(ctx context.Context, arg database.UpdateEstateItemParams) (database.EstateItem, error)
	DeleteEstateItem(ctx context.Context, id uuid.UUID) error
	CreateEstateRequest(ctx context.Context, arg database.CreateEstateRequestParams) (database.EstateRequest, error)
	GetEstateRequest(ctx context.Context, id uuid.UUID) (database.EstateRequest, error)
	ListEstateRequests(ctx context.Context, arg database.ListEstateRequestsParams) ([]database.EstateRequest, error)
}

// EstateHandler handles campus housing item request endpoints. Estate
// requests carry no monetary amount; fulfillment is tracked by status only.
type EstateHandler struct {
	store EstateStore
}

// NewEstateHandler creates a new EstateHandler.
func NewEstateHandler(store EstateStore) *EstateHandler {
	return &EstateHandler{store: store}
}

// RegisterRoutes registers employee-facing estate endpoints.
func (h *EstateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/estate/items", h.ListItems)
	r.Post("/estate/requests", h.CreateRequest)
	r.Get("/estate/requests", h.ListMyRequests)
	r.Get("/estate/requests/{id}", h.GetRequest)
}

// RegisterAdminRoutes registers back-office estate endpoints.
func (h *EstateHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/estate/items", h.CreateItem)
	r.Put("/admin/estate/items/{id}", h.UpdateItem)
	r.Delete("/admin/estate/items/{id}", h.DeleteItem)
}

// --- Request / Response types ---

type estateItemRequest struct {
	Name      string  `json:"name"`
	Category  *string `json:"category"`
	Available bool    `json:"available"`
}

type estateItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  *string   `json:"category"`
	Available bool      `json:"available"`
}

func toEstateItemResponse(e database.EstateItem) estateItemResponse {
	return estateItemResponse{ID: e.ID, Name: e.Name, Category: textOrNil(e.Category), Available: e.Available}
}

type createEstateRequestRequest struct {
	EstateItemID string `json:"estate_item_id"`
	Quantity     int32  `json:"quantity"`
	RoomFlat     string `json:"room_flat"`
	Notes        string `json:"notes"`
}

type estateRequestResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	EstateItemID uuid.UUID `json:"estate_item_id"`
	Quantity     int32     `json:"quantity"`
	RoomFlat     string    `json:"room_flat"`
	Notes        *string   `json:"notes"`
	Status       string    `json:"status"`
	RequestDate  string    `json:"request_date"`
	CreatedAt    time.Time `json:"created_at"`
}

func toEstateRequestResponse(r database.EstateRequest) estateRequestResponse {
	resp := estateRequestResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		EstateItemID: r.EstateItemID,
		Quantity:     r.Quantity,
		RoomFlat:     r.RoomFlat,
		Notes:        textOrNil(r.Notes),
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}
	if r.RequestDate.Valid {
		resp.RequestDate = r.RequestDate.Time.Format("2006-01-02")
	}
	return resp
}

// --- Handlers ---

// ListItems returns the requestable estate items.
func (h *EstateHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListEstateItems(r.Context(), true)
	if err != nil {
		log.Printf("ERROR: list estate items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]estateItemResponse, 0, len(items))
	for _, e := range items {
		resp = append(resp, toEstateItemResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateItem adds an estate item to the catalog.
func (h *EstateHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req estateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	item, err := h.store.CreateEstateItem(r.Context(), database.CreateEstateItemParams{
		Name:      req.Name,
		Category:  textPtrParam(req.Category),
		Available: req.Available,
	})
	if err != nil {
		log.Printf("ERROR: create estate item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toEstateItemResponse(item))
}

// UpdateItem replaces an estate item in the catalog.
func (h *EstateHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req estateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	item, err := h.store.UpdateEstateItem(r.Context(), database.UpdateEstateItemParams{
		ID:        id,
		Name:      req.Name,
		Category:  textPtrParam(req.Category),
		Available: req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "estate item not found"})
			return
		}
		log.Printf("ERROR: update estate item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toEstateItemResponse(item))
}

// DeleteItem removes an estate item from the catalog.
func (h *EstateHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := h.store.DeleteEstateItem(r.Context(), id); err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "estate item is referenced by requests"})
			return
		}
		log.Printf("ERROR: delete estate item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateRequest submits an estate item request for the caller's quarters.
func (h *EstateHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createEstateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}
	if req.RoomFlat == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "room_flat is required"})
		return
	}
	itemID, err := uuid.Parse(req.EstateItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid estate_item_id"})
		return
	}

	if _, err := h.store.GetAvailableEstateItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "estate item not found or unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	request, err := h.store.CreateEstateRequest(r.Context(), database.CreateEstateRequestParams{
		UserID:       claims.UserID,
		EstateItemID: itemID,
		Quantity:     req.Quantity,
		RoomFlat:     req.RoomFlat,
		Notes:        textParam(req.Notes),
	})
	if err != nil {
		log.Printf("ERROR: create estate request: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toEstateRequestResponse(request))
}

// GetRequest returns one estate request. Employees can only see their own.
func (h *EstateHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request ID"})
		return
	}

	request, err := h.store.GetEstateRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "request not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if request.UserID != claims.UserID && !claims.IsAdmin {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "request not found"})
		return
	}

	writeJSON(w, http.StatusOK, toEstateRequestResponse(request))
}

// ListMyRequests returns the authenticated user's estate requests.
func (h *EstateHandler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	requests, err := h.store.ListEstateRequests(r.Context(), database.ListEstateRequestsParams{
		UserID: pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Status: textParam(r.URL.Query().Get("status")),
	})
	if err != nil {
		log.Printf("ERROR: list estate requests: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]estateRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, toEstateRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, resp)
}

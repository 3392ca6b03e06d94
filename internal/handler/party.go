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
	"github.com/canteenhq/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// PartyReadStore defines the database methods needed by party read paths.
type PartyReadStore interface {
	GetPartyOrder(ctx context.Context, id uuid.UUID) (database.PartyOrder, error)
	ListPartyOrders(ctx context.Context, arg database.ListPartyOrdersParams) ([]database.PartyOrder, error)
	ListPartyOrderItems(ctx context.Context, partyOrderID uuid.UUID) ([]database.PartyOrderItem, error)
}

// PartyCreator is implemented by service.PartyService.
type PartyCreator interface {
	CreatePartyOrder(ctx context.Context, req service.CreatePartyOrderRequest) (*service.CreatePartyOrderResult, error)
}

// PartyHandler handles department party catering endpoints.
type PartyHandler struct {
	svc   PartyCreator
	store PartyReadStore
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(svc PartyCreator, store PartyReadStore) *PartyHandler {
	return &PartyHandler{svc: svc, store: store}
}

// RegisterRoutes registers employee-facing party order endpoints.
func (h *PartyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/party-orders", h.Create)
	r.Get("/party-orders", h.ListMine)
	r.Get("/party-orders/{id}", h.Get)
}

// --- Request / Response types ---

type createPartyOrderRequest struct {
	Department         string             `json:"department"`
	PartyDate          string             `json:"party_date"` // YYYY-MM-DD
	Description        string             `json:"description"`
	EstimatedHeadcount int32              `json:"estimated_headcount"`
	Items              []orderItemRequest `json:"items"`
}

type partyOrderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
}

type partyOrderResponse struct {
	ID                 uuid.UUID                `json:"id"`
	UserID             uuid.UUID                `json:"user_id"`
	Department         string                   `json:"department"`
	PartyDate          string                   `json:"party_date"`
	Description        *string                  `json:"description"`
	EstimatedHeadcount int32                    `json:"estimated_headcount"`
	Status             string                   `json:"status"`
	TotalCost          string                   `json:"total_cost"`
	CreatedAt          time.Time                `json:"created_at"`
	Items              []partyOrderItemResponse `json:"items,omitempty"`
}

func toPartyOrderResponse(o database.PartyOrder, items []database.PartyOrderItem) partyOrderResponse {
	resp := partyOrderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		Department:         o.Department,
		Description:        textOrNil(o.Description),
		EstimatedHeadcount: o.EstimatedHeadcount,
		Status:             o.Status,
		TotalCost:          numericToString(o.TotalCost),
		CreatedAt:          o.CreatedAt,
	}
	if o.PartyDate.Valid {
		resp.PartyDate = o.PartyDate.Time.Format("2006-01-02")
	}
	for _, item := range items {
		resp.Items = append(resp.Items, partyOrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}
	return resp
}

// --- Handlers ---

// Create submits a party catering request. The two-day advance notice is
// enforced in the service.
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createPartyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcReq := service.CreatePartyOrderRequest{
		UserID:             claims.UserID,
		Department:         req.Department,
		PartyDate:          req.PartyDate,
		Description:        req.Description,
		EstimatedHeadcount: req.EstimatedHeadcount,
	}
	for _, item := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CreateOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	result, err := h.svc.CreatePartyOrder(r.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdvanceNotice):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrDepartment),
			errors.Is(err, service.ErrHeadcount),
			errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrPartyDate),
			errors.Is(err, service.ErrInvalidPartyDate),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidMenuItemID):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrMenuItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create party order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toPartyOrderResponse(result.Order, result.Items))
}

// ListMine returns the authenticated user's party orders.
func (h *PartyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orders, err := h.store.ListPartyOrders(r.Context(), database.ListPartyOrdersParams{
		UserID: pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Status: textParam(r.URL.Query().Get("status")),
	})
	if err != nil {
		log.Printf("ERROR: list party orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]partyOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toPartyOrderResponse(o, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one party order with items. Employees only see their own.
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid party order ID"})
		return
	}

	order, err := h.store.GetPartyOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "party order not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if order.UserID != claims.UserID && !claims.IsAdmin {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "party order not found"})
		return
	}

	items, err := h.store.ListPartyOrderItems(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list party order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPartyOrderResponse(order, items))
}

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

// HomeMealReadStore defines the database methods needed by home meal read paths.
type HomeMealReadStore interface {
	GetHomeMealOrder(ctx context.Context, id uuid.UUID) (database.HomeMealOrder, error)
	ListHomeMealOrders(ctx context.Context, arg database.ListHomeMealOrdersParams) ([]database.HomeMealOrder, error)
	ListHomeMealOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.HomeMealOrderItem, error)
}

// HomeMealCreator is implemented by service.HomeMealService.
type HomeMealCreator interface {
	CreateHomeMealOrder(ctx context.Context, req service.CreateHomeMealOrderRequest) (*service.CreateHomeMealOrderResult, error)
}

// HomeMealHandler handles evening home delivery endpoints.
type HomeMealHandler struct {
	svc   HomeMealCreator
	store HomeMealReadStore
}

// NewHomeMealHandler creates a new HomeMealHandler.
func NewHomeMealHandler(svc HomeMealCreator, store HomeMealReadStore) *HomeMealHandler {
	return &HomeMealHandler{svc: svc, store: store}
}

// RegisterRoutes registers employee-facing home meal endpoints.
func (h *HomeMealHandler) RegisterRoutes(r chi.Router) {
	r.Post("/home-meals", h.Create)
	r.Get("/home-meals", h.ListMine)
	r.Get("/home-meals/{id}", h.Get)
}

// --- Request / Response types ---

type createHomeMealRequest struct {
	Building string             `json:"building"`
	FlatNo   string             `json:"flat_no"`
	Landmark string             `json:"landmark"`
	PinCode  string             `json:"pin_code"`
	Notes    string             `json:"notes"`
	Items    []orderItemRequest `json:"items"`
}

type homeMealOrderResponse struct {
	ID             uuid.UUID           `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	TotalAmount    string              `json:"total_amount"`
	DeliveryCharge string              `json:"delivery_charge"`
	Building       string              `json:"building"`
	FlatNo         string              `json:"flat_no"`
	Landmark       *string             `json:"landmark"`
	PinCode        *string             `json:"pin_code"`
	Notes          *string             `json:"notes"`
	Status         string              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []orderItemResponse `json:"items,omitempty"`
}

func toHomeMealOrderResponse(o database.HomeMealOrder, items []database.HomeMealOrderItem) homeMealOrderResponse {
	resp := homeMealOrderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		TotalAmount:    numericToString(o.TotalAmount),
		DeliveryCharge: numericToString(o.DeliveryCharge),
		Building:       o.Building,
		FlatNo:         o.FlatNo,
		Landmark:       textOrNil(o.Landmark),
		PinCode:        textOrNil(o.PinCode),
		Notes:          textOrNil(o.Notes),
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Price:      numericToString(item.Price),
		})
	}
	return resp
}

// --- Handlers ---

// Create places an evening home delivery order. The fixed cutoff and the
// flat delivery charge live in the service.
func (h *HomeMealHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createHomeMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcReq := service.CreateHomeMealOrderRequest{
		UserID:   claims.UserID,
		Building: req.Building,
		FlatNo:   req.FlatNo,
		Landmark: req.Landmark,
		PinCode:  req.PinCode,
		Notes:    req.Notes,
	}
	for _, item := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CreateOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	result, err := h.svc.CreateHomeMealOrder(r.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeliveryClosed):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrDeliveryAddress),
			errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidMenuItemID):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrMenuItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create home meal order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toHomeMealOrderResponse(result.Order, result.Items))
}

// ListMine returns the authenticated user's home meal orders.
func (h *HomeMealHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orders, err := h.store.ListHomeMealOrders(r.Context(), database.ListHomeMealOrdersParams{
		UserID: pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Status: textParam(r.URL.Query().Get("status")),
	})
	if err != nil {
		log.Printf("ERROR: list home meal orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]homeMealOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toHomeMealOrderResponse(o, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one home meal order with items. Employees only see their own.
func (h *HomeMealHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetHomeMealOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if order.UserID != claims.UserID && !claims.IsAdmin {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	items, err := h.store.ListHomeMealOrderItems(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list home meal order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toHomeMealOrderResponse(order, items))
}

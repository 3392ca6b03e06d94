package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/enum"
	"github.com/canteenhq/api/internal/middleware"
	"github.com/canteenhq/api/internal/schedule"
	"github.com/canteenhq/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderReadStore defines the database methods needed by order read paths.
type OrderReadStore interface {
	GetMealSession(ctx context.Context, id uuid.UUID) (database.MealSession, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
}

// OrderCreator is implemented by service.OrderService.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderHandler handles meal order endpoints.
type OrderHandler struct {
	svc   OrderCreator
	store OrderReadStore
	now   func() time.Time
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderCreator, store OrderReadStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, now: time.Now}
}

// RegisterRoutes registers employee-facing order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders", h.ListMine)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/cancel", h.Cancel)
}

// --- Request / Response types ---

type createOrderRequest struct {
	SessionID            string             `json:"session_id"` // optional; enforces the ordering window
	OrderType            string             `json:"order_type"` // defaults to regular
	PickupTime           string             `json:"pickup_time"`
	Notes                string             `json:"notes"`
	ChargeAccount        string             `json:"charge_account"`
	OrderedForEmployeeID string             `json:"ordered_for_employee_id"`
	Items                []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	Price      string    `json:"price"`
}

type orderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	UserID               uuid.UUID           `json:"user_id"`
	OrderNumber          string              `json:"order_number"`
	OrderType            string              `json:"order_type"`
	TotalAmount          string              `json:"total_amount"`
	Status               string              `json:"status"`
	PickupTime           *time.Time          `json:"pickup_time"`
	Notes                *string             `json:"notes"`
	ChargeAccount        *string             `json:"charge_account"`
	OrderedForEmployeeID *string             `json:"ordered_for_employee_id"`
	CreatedAt            time.Time           `json:"created_at"`
	Items                []orderItemResponse `json:"items,omitempty"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:                   o.ID,
		UserID:               o.UserID,
		OrderNumber:          o.OrderNumber,
		OrderType:            o.OrderType,
		TotalAmount:          numericToString(o.TotalAmount),
		Status:               o.Status,
		Notes:                textOrNil(o.Notes),
		ChargeAccount:        textOrNil(o.ChargeAccount),
		OrderedForEmployeeID: textOrNil(o.OrderedForEmployeeID),
		CreatedAt:            o.CreatedAt,
	}
	if o.PickupTime.Valid {
		t := o.PickupTime.Time
		resp.PickupTime = &t
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

// Create places a meal order. When session_id is given, the session's
// ordering window is enforced against the server clock; orders after the
// cutoff are rejected.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		req.OrderType = enum.KindRegular
	}
	if req.OrderType == enum.KindGeneral && !claims.IsAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "general orders require admin access"})
		return
	}

	if req.SessionID != "" {
		if ok := h.checkOrderingWindow(w, r, req.SessionID); !ok {
			return
		}
	}

	svcReq := service.CreateOrderRequest{
		UserID:        claims.UserID,
		OrderType:     req.OrderType,
		PickupTime:    req.PickupTime,
		Notes:         req.Notes,
		ChargeAccount: req.ChargeAccount,
	}
	if req.OrderType == enum.KindGeneral {
		svcReq.OrderedByAdminID = claims.UserID
		svcReq.OrderedForEmployeeID = req.OrderedForEmployeeID
	}
	for _, item := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CreateOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	result, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		h.writeCreateOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// checkOrderingWindow loads the session and rejects the request if the
// ordering window is closed. Returns false when a response was written.
func (h *OrderHandler) checkOrderingWindow(w http.ResponseWriter, r *http.Request, rawSessionID string) bool {
	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session_id"})
		return false
	}

	session, err := h.store.GetMealSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return false
	}

	window, err := schedule.NewWindow(session.StartTime, session.EndTime, int(session.OrderCutoffMinutesBefore))
	if err != nil {
		log.Printf("ERROR: session %s has invalid times: %v", session.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session misconfigured"})
		return false
	}

	nowMinutes := schedule.ClockMinutes(h.now())
	if !window.IsOrderingActive(nowMinutes) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":           "ordering window is closed for this session",
			"remaining_label": schedule.FormatRemaining(window.MinutesUntilCutoff(nowMinutes)),
		})
		return false
	}
	return true
}

func (h *OrderHandler) writeCreateOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrInvalidPickupTime),
		errors.Is(err, service.ErrChargeAccount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrMenuItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// ListMine returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		UserID: pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Status: textParam(r.URL.Query().Get("status")),
		Limit:  100,
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its items. Employees can only see their own.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.store.GetOrder(r.Context(), id)
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

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// Cancel lets a user cancel their own order while it is still pending.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.store.CancelOrder(r.Context(), database.CancelOrderParams{ID: id, UserID: claims.UserID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either not the caller's order or no longer pending.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order cannot be cancelled"})
			return
		}
		log.Printf("ERROR: cancel order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

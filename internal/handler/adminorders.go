package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/enum"
	"github.com/canteenhq/api/internal/service"
	"github.com/canteenhq/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// AdminOrderStore defines the per-kind list queries used by the back office.
type AdminOrderStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListPartyOrders(ctx context.Context, arg database.ListPartyOrdersParams) ([]database.PartyOrder, error)
	ListMassageBookings(ctx context.Context, arg database.ListMassageBookingsParams) ([]database.MassageBooking, error)
	ListBeverageOrders(ctx context.Context, arg database.ListBeverageOrdersParams) ([]database.BeverageOrder, error)
	ListHomeMealOrders(ctx context.Context, arg database.ListHomeMealOrdersParams) ([]database.HomeMealOrder, error)
	ListEstateRequests(ctx context.Context, arg database.ListEstateRequestsParams) ([]database.EstateRequest, error)
}

// StatusChanger is implemented by service.StatusService.
type StatusChanger interface {
	ApplyStatusChange(ctx context.Context, kind string, orderID uuid.UUID, newStatus string) (*service.StatusChangeResult, error)
}

// Broadcaster pushes events to WebSocket channels. Implemented by *ws.Hub.
type Broadcaster interface {
	BroadcastToChannel(channel string, event ws.Event)
}

// AdminOrderHandler is the unified back-office surface over every order
// kind: one list endpoint and one status endpoint, with the kind in the
// path.
type AdminOrderHandler struct {
	svc   StatusChanger
	store AdminOrderStore
	hub   Broadcaster
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(svc StatusChanger, store AdminOrderStore, hub Broadcaster) *AdminOrderHandler {
	return &AdminOrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterAdminRoutes registers the unified order management endpoints.
func (h *AdminOrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/orders/{kind}", h.List)
	r.Patch("/admin/orders/{kind}/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type kindOrderResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type deductionResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Amount         string    `json:"amount"`
	DeductionMonth string    `json:"deduction_month"`
	Description    string    `json:"description"`
}

type statusChangeResponse struct {
	Order     kindOrderResponse  `json:"order"`
	Deduction *deductionResponse `json:"deduction,omitempty"`
	Warning   string             `json:"warning,omitempty"`
}

func toKindOrderResponse(kind string, o database.KindOrder) kindOrderResponse {
	resp := kindOrderResponse{
		ID:     o.ID,
		UserID: o.UserID,
		Kind:   kind,
		Status: o.Status,
		Amount: numericToString(o.Amount),
	}
	if o.CreatedAt.Valid {
		resp.CreatedAt = o.CreatedAt.Time
	}
	return resp
}

func toDeductionResponse(d database.EmployeeDeduction) deductionResponse {
	resp := deductionResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		Amount:      numericToString(d.Amount),
		Description: d.Description,
	}
	if d.DeductionMonth.Valid {
		resp.DeductionMonth = d.DeductionMonth.Time.Format("2006-01-02")
	}
	return resp
}

// statusChangedEvent is the payload broadcast when an administrator moves
// an order to a new status.
type statusChangedEvent struct {
	Kind    string    `json:"kind"`
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

// --- Handlers ---

// List returns orders of one kind, newest first. Optional filters:
// ?status=, ?user_id=, and for regular kinds ?start_date= / ?end_date=.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var userID pgtype.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
		userID = pgtype.UUID{Bytes: id, Valid: true}
	}
	status := textParam(r.URL.Query().Get("status"))

	var (
		resp any
		err  error
	)
	switch kind {
	case enum.KindRegular, enum.KindGeneral:
		resp, err = h.listCanteenOrders(r, kind, userID, status)
	case enum.KindParty:
		var orders []database.PartyOrder
		orders, err = h.store.ListPartyOrders(r.Context(), database.ListPartyOrdersParams{UserID: userID, Status: status})
		out := make([]partyOrderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toPartyOrderResponse(o, nil))
		}
		resp = out
	case enum.KindMassage:
		var bookings []database.MassageBooking
		bookings, err = h.store.ListMassageBookings(r.Context(), database.ListMassageBookingsParams{UserID: userID, Status: status})
		out := make([]massageBookingResponse, 0, len(bookings))
		for _, b := range bookings {
			out = append(out, toMassageBookingResponse(b))
		}
		resp = out
	case enum.KindBeverage:
		var orders []database.BeverageOrder
		orders, err = h.store.ListBeverageOrders(r.Context(), database.ListBeverageOrdersParams{UserID: userID, Status: status})
		out := make([]beverageOrderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toBeverageOrderResponse(o))
		}
		resp = out
	case enum.KindHomeMeal:
		var orders []database.HomeMealOrder
		orders, err = h.store.ListHomeMealOrders(r.Context(), database.ListHomeMealOrdersParams{UserID: userID, Status: status})
		out := make([]homeMealOrderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toHomeMealOrderResponse(o, nil))
		}
		resp = out
	case enum.KindEstate:
		var requests []database.EstateRequest
		requests, err = h.store.ListEstateRequests(r.Context(), database.ListEstateRequestsParams{UserID: userID, Status: status})
		out := make([]estateRequestResponse, 0, len(requests))
		for _, req := range requests {
			out = append(out, toEstateRequestResponse(req))
		}
		resp = out
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown order kind"})
		return
	}

	if err != nil {
		log.Printf("ERROR: list %s orders: %v", kind, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminOrderHandler) listCanteenOrders(r *http.Request, kind string, userID pgtype.UUID, status pgtype.Text) ([]orderResponse, error) {
	params := database.ListOrdersParams{
		UserID:    userID,
		OrderType: pgtype.Text{String: kind, Valid: true},
		Status:    status,
		Limit:     100,
	}
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			params.StartDate = pgtype.Date{Time: d, Valid: true}
		}
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			params.EndDate = pgtype.Date{Time: d, Valid: true}
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			params.Limit = int32(n)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			params.Offset = int32(n)
		}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		return nil, err
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o, nil))
	}
	return out, nil
}

// UpdateStatus moves one order to a new status. Completing a deductible
// order also records the payroll deduction; if that write fails the status
// change is kept and the response carries a warning instead of an error.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	result, err := h.svc.ApplyStatusChange(r.Context(), kind, orderID, req.Status)
	if err != nil && !errors.Is(err, service.ErrDeductionWrite) {
		switch {
		case errors.Is(err, service.ErrUnknownKind):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown order kind"})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidStatusTransition):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update %s order status: %v", kind, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := statusChangeResponse{Order: toKindOrderResponse(kind, result.Order)}
	if result.Deduction != nil {
		d := toDeductionResponse(*result.Deduction)
		resp.Deduction = &d
	}
	if errors.Is(err, service.ErrDeductionWrite) {
		log.Printf("ERROR: deduction write for %s order %s: %v", kind, orderID, err)
		resp.Warning = service.ErrDeductionWrite.Error()
	}

	h.broadcastStatusChange(kind, result.Order)
	writeJSON(w, http.StatusOK, resp)
}

// broadcastStatusChange notifies the back-office feed and the order owner.
func (h *AdminOrderHandler) broadcastStatusChange(kind string, order database.KindOrder) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(statusChangedEvent{
		Kind:    kind,
		OrderID: order.ID,
		Status:  order.Status,
	})
	if err != nil {
		return
	}
	event := ws.Event{Type: "order_status_changed", Payload: payload}
	h.hub.BroadcastToChannel(ws.AdminChannel, event)
	h.hub.BroadcastToChannel(ws.UserChannel(order.UserID), event)
}

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
	"github.com/shopspring/decimal"
)

// BeverageStore defines the database methods needed by beverage handlers.
type BeverageStore interface {
	CreateBeverageItem(ctx context.Context, arg database.CreateBeverageItemParams) (database.BeverageItem, error)
	GetAvailableBeverageItem(ctx context.Context, id uuid.UUID) (database.BeverageItem, error)
	ListBeverageItems(ctx context.Context, availableOnly bool) ([]database.BeverageItem, error)
	UpdateBeverageItem(ctx context.Context, arg database.UpdateBeverageItemParams) (database.BeverageItem, error)
	DeleteBeverageItem(ctx context.Context, id uuid.UUID) error
	CreateBeverageOrder(ctx context.Context, arg database.CreateBeverageOrderParams) (database.BeverageOrder, error)
	GetBeverageOrder(ctx context.Context, id uuid.UUID) (database.BeverageOrder, error)
	ListBeverageOrders(ctx context.Context, arg database.ListBeverageOrdersParams) ([]database.BeverageOrder, error)
}

// BeverageHandler handles the tea/coffee counter endpoints.
type BeverageHandler struct {
	store BeverageStore
}

// NewBeverageHandler creates a new BeverageHandler.
func NewBeverageHandler(store BeverageStore) *BeverageHandler {
	return &BeverageHandler{store: store}
}

// RegisterRoutes registers employee-facing beverage endpoints.
func (h *BeverageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/beverages", h.ListItems)
	r.Post("/beverage-orders", h.CreateOrder)
	r.Get("/beverage-orders", h.ListMyOrders)
	r.Get("/beverage-orders/{id}", h.GetOrder)
}

// RegisterAdminRoutes registers back-office beverage endpoints.
func (h *BeverageHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/beverages", h.CreateItem)
	r.Put("/admin/beverages/{id}", h.UpdateItem)
	r.Delete("/admin/beverages/{id}", h.DeleteItem)
}

// --- Request / Response types ---

type beverageItemRequest struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

type beverageItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Available bool      `json:"available"`
}

func toBeverageItemResponse(b database.BeverageItem) beverageItemResponse {
	return beverageItemResponse{ID: b.ID, Name: b.Name, Price: numericToString(b.Price), Available: b.Available}
}

type createBeverageOrderRequest struct {
	BeverageItemID string `json:"beverage_item_id"`
	Quantity       int32  `json:"quantity"`
}

type beverageOrderResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	BeverageItemID uuid.UUID `json:"beverage_item_id"`
	Quantity       int32     `json:"quantity"`
	TotalAmount    string    `json:"total_amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toBeverageOrderResponse(o database.BeverageOrder) beverageOrderResponse {
	return beverageOrderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		BeverageItemID: o.BeverageItemID,
		Quantity:       o.Quantity,
		TotalAmount:    numericToString(o.TotalAmount),
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
}

// --- Handlers ---

// ListItems returns the available beverages.
func (h *BeverageHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListBeverageItems(r.Context(), true)
	if err != nil {
		log.Printf("ERROR: list beverages: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]beverageItemResponse, 0, len(items))
	for _, b := range items {
		resp = append(resp, toBeverageItemResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateItem adds a beverage to the counter catalog.
func (h *BeverageHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req beverageItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	item, err := h.store.CreateBeverageItem(r.Context(), database.CreateBeverageItemParams{
		Name:      req.Name,
		Price:     price,
		Available: req.Available,
	})
	if err != nil {
		log.Printf("ERROR: create beverage item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toBeverageItemResponse(item))
}

// UpdateItem replaces a beverage in the counter catalog.
func (h *BeverageHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid beverage ID"})
		return
	}

	var req beverageItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	item, err := h.store.UpdateBeverageItem(r.Context(), database.UpdateBeverageItemParams{
		ID:        id,
		Name:      req.Name,
		Price:     price,
		Available: req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "beverage not found"})
			return
		}
		log.Printf("ERROR: update beverage item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBeverageItemResponse(item))
}

// DeleteItem removes a beverage from the counter catalog.
func (h *BeverageHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid beverage ID"})
		return
	}

	if err := h.store.DeleteBeverageItem(r.Context(), id); err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "beverage is referenced by orders"})
			return
		}
		log.Printf("ERROR: delete beverage item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateOrder places a counter beverage order. The total is priced from
// the catalog, never from the request.
func (h *BeverageHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createBeverageOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}
	itemID, err := uuid.Parse(req.BeverageItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid beverage_item_id"})
		return
	}

	item, err := h.store.GetAvailableBeverageItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "beverage not found or unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	price := numericToString(item.Price)
	unit, err := decimal.NewFromString(price)
	if err != nil {
		log.Printf("ERROR: beverage %s has bad price %q", item.ID, price)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	total := unit.Mul(decimal.NewFromInt32(req.Quantity))
	var totalAmount pgtype.Numeric
	_ = totalAmount.Scan(total.StringFixed(2))

	order, err := h.store.CreateBeverageOrder(r.Context(), database.CreateBeverageOrderParams{
		UserID:         claims.UserID,
		BeverageItemID: itemID,
		Quantity:       req.Quantity,
		TotalAmount:    totalAmount,
	})
	if err != nil {
		log.Printf("ERROR: create beverage order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toBeverageOrderResponse(order))
}

// GetOrder returns one beverage order. Employees can only see their own.
func (h *BeverageHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.store.GetBeverageOrder(r.Context(), id)
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

	writeJSON(w, http.StatusOK, toBeverageOrderResponse(order))
}

// ListMyOrders returns the authenticated user's beverage orders.
func (h *BeverageHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orders, err := h.store.ListBeverageOrders(r.Context(), database.ListBeverageOrdersParams{
		UserID: pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Status: textParam(r.URL.Query().Get("status")),
	})
	if err != nil {
		log.Printf("ERROR: list beverage orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]beverageOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toBeverageOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

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
	"github.com/canteenhq/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// StockStore defines the database methods needed by kitchen stock handlers.
type StockStore interface {
	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	ListStockAdjustments(ctx context.Context, ingredientID pgtype.UUID) ([]database.StockAdjustment, error)
	CreateConsumptionLog(ctx context.Context, arg database.CreateConsumptionLogParams) (database.ConsumptionLog, error)
	ConsumptionReport(ctx context.Context, arg database.ConsumptionReportParams) ([]database.ConsumptionReportRow, error)
}

// StockAdjuster applies a stock adjustment atomically.
// Satisfied by *service.StockService.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, req service.AdjustStockRequest) (database.StockAdjustment, error)
}

// StockHandler manages kitchen ingredients, stock adjustments and
// consumption reporting. All endpoints are back-office only.
type StockHandler struct {
	adjuster StockAdjuster
	store    StockStore
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(adjuster StockAdjuster, store StockStore) *StockHandler {
	return &StockHandler{adjuster: adjuster, store: store}
}

// RegisterAdminRoutes registers the stock management endpoints.
func (h *StockHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/ingredients", h.ListIngredients)
	r.Post("/admin/ingredients", h.CreateIngredient)
	r.Get("/admin/ingredients/adjustments", h.ListAdjustments)
	r.Get("/admin/ingredients/{id}", h.GetIngredient)
	r.Post("/admin/ingredients/{id}/adjust", h.AdjustStock)
	r.Post("/admin/consumption", h.LogConsumption)
	r.Get("/admin/consumption/report", h.Report)
}

// --- Request / Response types ---

type createIngredientRequest struct {
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	CostPerUnit  string `json:"cost_per_unit"`
	CurrentStock string `json:"current_stock"`
}

type ingredientResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Unit            string     `json:"unit"`
	CostPerUnit     string     `json:"cost_per_unit"`
	CurrentStock    string     `json:"current_stock"`
	LastRestockedAt *time.Time `json:"last_restocked_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toIngredientResponse(i database.Ingredient) ingredientResponse {
	resp := ingredientResponse{
		ID:           i.ID,
		Name:         i.Name,
		Unit:         i.Unit,
		CostPerUnit:  numericToString(i.CostPerUnit),
		CurrentStock: numericToString(i.CurrentStock),
		CreatedAt:    i.CreatedAt,
	}
	if i.LastRestockedAt.Valid {
		t := i.LastRestockedAt.Time
		resp.LastRestockedAt = &t
	}
	return resp
}

type adjustStockRequest struct {
	Quantity string `json:"quantity"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
}

type stockAdjustmentResponse struct {
	ID            uuid.UUID `json:"id"`
	IngredientID  uuid.UUID `json:"ingredient_id"`
	Quantity      string    `json:"quantity"`
	Type          string    `json:"type"`
	Reason        string    `json:"reason"`
	PreviousStock string    `json:"previous_stock"`
	NewStock      string    `json:"new_stock"`
	AdjustedBy    uuid.UUID `json:"adjusted_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func toStockAdjustmentResponse(a database.StockAdjustment) stockAdjustmentResponse {
	return stockAdjustmentResponse{
		ID:            a.ID,
		IngredientID:  a.IngredientID,
		Quantity:      numericToString(a.AdjustmentQuantity),
		Type:          a.AdjustmentType,
		Reason:        a.Reason,
		PreviousStock: numericToString(a.PreviousStock),
		NewStock:      numericToString(a.NewStock),
		AdjustedBy:    a.AdjustedBy,
		CreatedAt:     a.CreatedAt,
	}
}

type logConsumptionRequest struct {
	IngredientID    string `json:"ingredient_id"`
	MenuItemID      string `json:"menu_item_id"`
	PartyOrderID    string `json:"party_order_id"`
	Quantity        string `json:"quantity"`
	ConsumptionDate string `json:"consumption_date"`
}

type consumptionReportRowResponse struct {
	IngredientID   uuid.UUID `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name"`
	Unit           string    `json:"unit"`
	TotalConsumed  string    `json:"total_consumed"`
	EstimatedCost  string    `json:"estimated_cost"`
}

// --- Handlers ---

// ListIngredients returns every ingredient with its current stock level.
func (h *StockHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context())
	if err != nil {
		log.Printf("ERROR: list ingredients: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]ingredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		resp = append(resp, toIngredientResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateIngredient adds an ingredient to the kitchen inventory.
func (h *StockHandler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req createIngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and unit are required"})
		return
	}
	cost, err := parsePrice(req.CostPerUnit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost_per_unit"})
		return
	}
	stock, err := parsePrice(req.CurrentStock)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid current_stock"})
		return
	}

	ingredient, err := h.store.CreateIngredient(r.Context(), database.CreateIngredientParams{
		Name:         req.Name,
		Unit:         req.Unit,
		CostPerUnit:  cost,
		CurrentStock: stock,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient already exists"})
			return
		}
		log.Printf("ERROR: create ingredient: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toIngredientResponse(ingredient))
}

// GetIngredient returns one ingredient with its current stock level.
func (h *StockHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	ingredient, err := h.store.GetIngredient(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		log.Printf("ERROR: get ingredient: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

// AdjustStock applies a manual add or subtract to an ingredient. The stock
// update and the trail entry are written in one transaction by the service.
func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	ingredientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Type != enum.AdjustmentAdd && req.Type != enum.AdjustmentSubtract {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be add or subtract"})
		return
	}
	if req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be a positive number"})
		return
	}

	adjustment, err := h.adjuster.AdjustStock(r.Context(), service.AdjustStockRequest{
		IngredientID: ingredientID,
		Quantity:     quantity,
		Type:         req.Type,
		Reason:       req.Reason,
		AdjustedBy:   claims.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIngredientNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
		case errors.Is(err, service.ErrStockBelowZero):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "stock cannot go below zero"})
		default:
			log.Printf("ERROR: adjust stock: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toStockAdjustmentResponse(adjustment))
}

// ListAdjustments returns the adjustment trail, optionally for one
// ingredient via ?ingredient_id=.
func (h *StockHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	var ingredientID pgtype.UUID
	if raw := r.URL.Query().Get("ingredient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient_id"})
			return
		}
		ingredientID = pgtype.UUID{Bytes: id, Valid: true}
	}

	adjustments, err := h.store.ListStockAdjustments(r.Context(), ingredientID)
	if err != nil {
		log.Printf("ERROR: list stock adjustments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]stockAdjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		resp = append(resp, toStockAdjustmentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LogConsumption records ingredient usage against a menu item or a party
// order. The consumption date defaults to today.
func (h *StockHandler) LogConsumption(w http.ResponseWriter, r *http.Request) {
	var req logConsumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ingredientID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient_id"})
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be a positive number"})
		return
	}

	params := database.CreateConsumptionLogParams{IngredientID: ingredientID}
	_ = params.QuantityConsumed.Scan(quantity.StringFixed(2))

	if req.MenuItemID != "" {
		id, err := uuid.Parse(req.MenuItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id"})
			return
		}
		params.MenuItemID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if req.PartyOrderID != "" {
		id, err := uuid.Parse(req.PartyOrderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid party_order_id"})
			return
		}
		params.PartyOrderID = pgtype.UUID{Bytes: id, Valid: true}
	}

	date := time.Now()
	if req.ConsumptionDate != "" {
		date, err = time.Parse("2006-01-02", req.ConsumptionDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "consumption_date must be YYYY-MM-DD"})
			return
		}
	}
	params.ConsumptionDate = pgtype.Date{Time: date, Valid: true}

	entry, err := h.store.CreateConsumptionLog(r.Context(), params)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		log.Printf("ERROR: create consumption log: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": entry.ID.String()})
}

// Report aggregates consumption per ingredient over a date range, costed
// at the current per-unit cost.
func (h *StockHandler) Report(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	report, err := h.store.ConsumptionReport(r.Context(), database.ConsumptionReportParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: consumption report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]consumptionReportRowResponse, 0, len(report))
	for _, row := range report {
		resp = append(resp, consumptionReportRowResponse{
			IngredientID:   row.IngredientID,
			IngredientName: row.IngredientName,
			Unit:           row.Unit,
			TotalConsumed:  numericToString(row.TotalConsumed),
			EstimatedCost:  numericToString(row.EstimatedCost),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

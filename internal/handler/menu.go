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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// MenuStore defines the database methods needed by menu handlers.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, availableOnly bool) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error

	ListDailyMenuItems(ctx context.Context, arg database.ListDailyMenuParams) ([]database.MenuItem, error)
	ClearDailyMenu(ctx context.Context, arg database.ClearDailyMenuParams) error
	CreateDailyMenuEntry(ctx context.Context, arg database.CreateDailyMenuEntryParams) (database.DailyMenuEntry, error)

	CreateWeeklyMenuItem(ctx context.Context, arg database.CreateWeeklyMenuItemParams) (database.WeeklyMenuItem, error)
	ListWeeklyMenu(ctx context.Context) ([]database.WeeklyMenuItem, error)
	UpdateWeeklyMenuItem(ctx context.Context, arg database.UpdateWeeklyMenuItemParams) (database.WeeklyMenuItem, error)
	DeleteWeeklyMenuItem(ctx context.Context, id uuid.UUID) error
}

// MenuHandler handles menu item, daily menu and weekly plan endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers employee-facing menu endpoints.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
	r.Get("/menu/daily", h.DailyMenu)
	r.Get("/menu/weekly", h.WeeklyMenu)
	r.Get("/menu/{id}", h.Get)
}

// RegisterAdminRoutes registers back-office menu endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/menu", h.ListAll)
	r.Post("/admin/menu", h.Create)
	r.Put("/admin/menu/{id}", h.Update)
	r.Delete("/admin/menu/{id}", h.Delete)
	r.Put("/admin/menu/daily", h.SetDailyMenu)
	r.Post("/admin/menu/weekly", h.CreateWeeklyItem)
	r.Put("/admin/menu/weekly/{id}", h.UpdateWeeklyItem)
	r.Delete("/admin/menu/weekly/{id}", h.DeleteWeeklyItem)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       string  `json:"price"`
	ImageURL    *string `json:"image_url"`
	Available   bool    `json:"available"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
	Available   bool      `json:"available"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: textOrNil(m.Description),
		Category:    textOrNil(m.Category),
		Price:       numericToString(m.Price),
		ImageURL:    textOrNil(m.ImageURL),
		Available:   m.Available,
	}
}

func toMenuItemResponses(items []database.MenuItem) []menuItemResponse {
	resp := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, toMenuItemResponse(m))
	}
	return resp
}

type setDailyMenuRequest struct {
	MenuDate    string   `json:"menu_date"` // YYYY-MM-DD
	SessionID   string   `json:"session_id"`
	MenuItemIDs []string `json:"menu_item_ids"`
}

type weeklyMenuItemRequest struct {
	DayOfWeek int32  `json:"day_of_week"` // 0 = Sunday
	MealType  string `json:"meal_type"`
	ItemName  string `json:"item_name"`
}

type weeklyMenuItemResponse struct {
	ID        uuid.UUID `json:"id"`
	DayOfWeek int32     `json:"day_of_week"`
	MealType  string    `json:"meal_type"`
	ItemName  string    `json:"item_name"`
}

func toWeeklyMenuItemResponse(w database.WeeklyMenuItem) weeklyMenuItemResponse {
	return weeklyMenuItemResponse{ID: w.ID, DayOfWeek: w.DayOfWeek, MealType: w.MealType, ItemName: w.ItemName}
}

// --- Handlers ---

// List returns available menu items for employees.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context(), true)
	if err != nil {
		log.Printf("ERROR: list menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

// Get returns a single menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// ListAll returns every menu item, including unavailable ones.
func (h *MenuHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context(), false)
	if err != nil {
		log.Printf("ERROR: list menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

// DailyMenu returns the items scheduled for a session on a date.
// Defaults to today when menu_date is omitted.
func (h *MenuHandler) DailyMenu(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	menuDate := time.Now()
	if raw := r.URL.Query().Get("menu_date"); raw != "" {
		menuDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_date must be YYYY-MM-DD"})
			return
		}
	}

	items, err := h.store.ListDailyMenuItems(r.Context(), database.ListDailyMenuParams{
		MenuDate:  pgtype.Date{Time: menuDate, Valid: true},
		SessionID: sessionID,
	})
	if err != nil {
		log.Printf("ERROR: list daily menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

// WeeklyMenu returns the static weekly plan.
func (h *MenuHandler) WeeklyMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListWeeklyMenu(r.Context())
	if err != nil {
		log.Printf("ERROR: list weekly menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]weeklyMenuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toWeeklyMenuItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
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

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:        req.Name,
		Description: textPtrParam(req.Description),
		Category:    textPtrParam(req.Category),
		Price:       price,
		ImageURL:    textPtrParam(req.ImageURL),
		Available:   req.Available,
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update replaces a menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
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

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        req.Name,
		Description: textPtrParam(req.Description),
		Category:    textPtrParam(req.Category),
		Price:       price,
		ImageURL:    textPtrParam(req.ImageURL),
		Available:   req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if err := h.store.DeleteMenuItem(r.Context(), id); err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item is referenced by orders"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDailyMenu replaces the daily menu for one session and date.
func (h *MenuHandler) SetDailyMenu(w http.ResponseWriter, r *http.Request) {
	var req setDailyMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session_id"})
		return
	}
	menuDate, err := time.Parse("2006-01-02", req.MenuDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_date must be YYYY-MM-DD"})
		return
	}
	itemIDs := make([]uuid.UUID, 0, len(req.MenuItemIDs))
	for _, raw := range req.MenuItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id: " + raw})
			return
		}
		itemIDs = append(itemIDs, id)
	}

	date := pgtype.Date{Time: menuDate, Valid: true}
	if err := h.store.ClearDailyMenu(r.Context(), database.ClearDailyMenuParams{MenuDate: date, SessionID: sessionID}); err != nil {
		log.Printf("ERROR: clear daily menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, itemID := range itemIDs {
		if _, err := h.store.CreateDailyMenuEntry(r.Context(), database.CreateDailyMenuEntryParams{
			MenuDate:   date,
			SessionID:  sessionID,
			MenuItemID: itemID,
			Available:  true,
		}); err != nil {
			if isForeignKeyViolation(err) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown menu item or session"})
				return
			}
			log.Printf("ERROR: create daily menu entry: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	items, err := h.store.ListDailyMenuItems(r.Context(), database.ListDailyMenuParams{MenuDate: date, SessionID: sessionID})
	if err != nil {
		log.Printf("ERROR: list daily menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

// CreateWeeklyItem adds an entry to the weekly plan.
func (h *MenuHandler) CreateWeeklyItem(w http.ResponseWriter, r *http.Request) {
	var req weeklyMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := validateWeeklyItem(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.store.CreateWeeklyMenuItem(r.Context(), database.CreateWeeklyMenuItemParams{
		DayOfWeek: req.DayOfWeek,
		MealType:  req.MealType,
		ItemName:  req.ItemName,
	})
	if err != nil {
		log.Printf("ERROR: create weekly menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toWeeklyMenuItemResponse(item))
}

// UpdateWeeklyItem replaces an entry in the weekly plan.
func (h *MenuHandler) UpdateWeeklyItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid weekly menu item ID"})
		return
	}

	var req weeklyMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := validateWeeklyItem(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.store.UpdateWeeklyMenuItem(r.Context(), database.UpdateWeeklyMenuItemParams{
		ID:        id,
		DayOfWeek: req.DayOfWeek,
		MealType:  req.MealType,
		ItemName:  req.ItemName,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "weekly menu item not found"})
			return
		}
		log.Printf("ERROR: update weekly menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toWeeklyMenuItemResponse(item))
}

// DeleteWeeklyItem removes an entry from the weekly plan.
func (h *MenuHandler) DeleteWeeklyItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid weekly menu item ID"})
		return
	}
	if err := h.store.DeleteWeeklyMenuItem(r.Context(), id); err != nil {
		log.Printf("ERROR: delete weekly menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func validateWeeklyItem(req weeklyMenuItemRequest) string {
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return "day_of_week must be 0-6"
	}
	switch req.MealType {
	case enum.MealTypeBreakfast, enum.MealTypeLunch, enum.MealTypeDinner:
	default:
		return "meal_type must be breakfast, lunch or dinner"
	}
	if req.ItemName == "" {
		return "item_name is required"
	}
	return ""
}

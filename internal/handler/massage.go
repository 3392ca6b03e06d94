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
	"github.com/canteenhq/api/internal/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// MassageStore defines the database methods needed by massage handlers.
type MassageStore interface {
	CreateMassageService(ctx context.Context, arg database.CreateMassageServiceParams) (database.MassageService, error)
	GetMassageService(ctx context.Context, id uuid.UUID) (database.MassageService, error)
	GetAvailableMassageService(ctx context.Context, id uuid.UUID) (database.MassageService, error)
	ListMassageServices(ctx context.Context, availableOnly bool) ([]database.MassageService, error)
	UpdateMassageService(ctx context.Context, arg database.UpdateMassageServiceParams) (database.MassageService, error)
	DeleteMassageService(ctx context.Context, id uuid.UUID) error
	CreateMassageBooking(ctx context.Context, arg database.CreateMassageBookingParams) (database.MassageBooking, error)
	GetMassageBooking(ctx context.Context, id uuid.UUID) (database.MassageBooking, error)
	ListMassageBookings(ctx context.Context, arg database.ListMassageBookingsParams) ([]database.MassageBooking, error)
}

// MassageHandler handles wellness service catalog and booking endpoints.
type MassageHandler struct {
	store MassageStore
}

// NewMassageHandler creates a new MassageHandler.
func NewMassageHandler(store MassageStore) *MassageHandler {
	return &MassageHandler{store: store}
}

// RegisterRoutes registers employee-facing massage endpoints.
func (h *MassageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/massage/services", h.ListServices)
	r.Get("/massage/services/{id}", h.GetService)
	r.Post("/massage/bookings", h.CreateBooking)
	r.Get("/massage/bookings", h.ListMyBookings)
	r.Get("/massage/bookings/{id}", h.GetBooking)
}

// RegisterAdminRoutes registers back-office massage endpoints.
func (h *MassageHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/massage/services", h.CreateService)
	r.Put("/admin/massage/services/{id}", h.UpdateService)
	r.Delete("/admin/massage/services/{id}", h.DeleteService)
}

// --- Request / Response types ---

type massageServiceRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	DurationMinutes int32   `json:"duration_minutes"`
	Price           string  `json:"price"`
	Available       bool    `json:"available"`
}

type massageServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	DurationMinutes int32     `json:"duration_minutes"`
	Price           string    `json:"price"`
	Available       bool      `json:"available"`
}

func toMassageServiceResponse(s database.MassageService) massageServiceResponse {
	return massageServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     textOrNil(s.Description),
		DurationMinutes: s.DurationMinutes,
		Price:           numericToString(s.Price),
		Available:       s.Available,
	}
}

type createBookingRequest struct {
	ServiceID   string `json:"service_id"`
	BookingDate string `json:"booking_date"` // YYYY-MM-DD
	BookingTime string `json:"booking_time"` // HH:MM
	Notes       string `json:"notes"`
}

type massageBookingResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	BookingDate string    `json:"booking_date"`
	BookingTime string    `json:"booking_time"`
	Price       string    `json:"price"`
	Notes       *string   `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMassageBookingResponse(b database.MassageBooking) massageBookingResponse {
	resp := massageBookingResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		ServiceID:   b.ServiceID,
		BookingTime: b.BookingTime,
		Price:       numericToString(b.Price),
		Notes:       textOrNil(b.Notes),
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
	if b.BookingDate.Valid {
		resp.BookingDate = b.BookingDate.Time.Format("2006-01-02")
	}
	return resp
}

// --- Handlers ---

// ListServices returns the bookable massage services.
func (h *MassageHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListMassageServices(r.Context(), true)
	if err != nil {
		log.Printf("ERROR: list massage services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]massageServiceResponse, 0, len(services))
	for _, s := range services {
		resp = append(resp, toMassageServiceResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetService returns one massage service, available or not.
func (h *MassageHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	svc, err := h.store.GetMassageService(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "massage service not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMassageServiceResponse(svc))
}

// CreateService adds a massage service to the catalog.
func (h *MassageHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req massageServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.DurationMinutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_minutes must be > 0"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	svc, err := h.store.CreateMassageService(r.Context(), database.CreateMassageServiceParams{
		Name:            req.Name,
		Description:     textPtrParam(req.Description),
		DurationMinutes: req.DurationMinutes,
		Price:           price,
		Available:       req.Available,
	})
	if err != nil {
		log.Printf("ERROR: create massage service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMassageServiceResponse(svc))
}

// UpdateService replaces a massage service in the catalog.
func (h *MassageHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	var req massageServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.DurationMinutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_minutes must be > 0"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	svc, err := h.store.UpdateMassageService(r.Context(), database.UpdateMassageServiceParams{
		ID:              id,
		Name:            req.Name,
		Description:     textPtrParam(req.Description),
		DurationMinutes: req.DurationMinutes,
		Price:           price,
		Available:       req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "massage service not found"})
			return
		}
		log.Printf("ERROR: update massage service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMassageServiceResponse(svc))
}

// DeleteService removes a massage service from the catalog.
func (h *MassageHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	if err := h.store.DeleteMassageService(r.Context(), id); err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "massage service is referenced by bookings"})
			return
		}
		log.Printf("ERROR: delete massage service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBooking books a massage slot. The price is copied from the
// service catalog at booking time so later price changes do not affect
// existing bookings.
func (h *MassageHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service_id"})
		return
	}
	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "booking_date must be YYYY-MM-DD"})
		return
	}
	if _, err := schedule.ParseClock(req.BookingTime); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "booking_time must be HH:MM"})
		return
	}

	svc, err := h.store.GetAvailableMassageService(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "massage service not found or unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	booking, err := h.store.CreateMassageBooking(r.Context(), database.CreateMassageBookingParams{
		UserID:      claims.UserID,
		ServiceID:   serviceID,
		BookingDate: pgtype.Date{Time: bookingDate, Valid: true},
		BookingTime: req.BookingTime,
		Price:       svc.Price,
		Notes:       textParam(req.Notes),
	})
	if err != nil {
		log.Printf("ERROR: create massage booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMassageBookingResponse(booking))
}

// GetBooking returns one booking. Employees can only see their own.
func (h *MassageHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	booking, err := h.store.GetMassageBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if booking.UserID != claims.UserID && !claims.IsAdmin {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
		return
	}

	writeJSON(w, http.StatusOK, toMassageBookingResponse(booking))
}

// ListMyBookings returns the authenticated user's bookings.
func (h *MassageHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	bookings, err := h.store.ListMassageBookings(r.Context(), database.ListMassageBookingsParams{
		UserID: pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Status: textParam(r.URL.Query().Get("status")),
	})
	if err != nil {
		log.Printf("ERROR: list massage bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]massageBookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toMassageBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

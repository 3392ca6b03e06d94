package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BillingStore defines the database methods needed by billing handlers.
type BillingStore interface {
	ListDeductions(ctx context.Context, arg database.ListDeductionsParams) ([]database.EmployeeDeduction, error)
	SumDeductionsByMonth(ctx context.Context, userID uuid.UUID) ([]database.MonthlyDeductionTotal, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (database.Profile, error)
}

// BillingHandler serves payroll deduction listings and monthly statements.
type BillingHandler struct {
	store BillingStore
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(store BillingStore) *BillingHandler {
	return &BillingHandler{store: store}
}

// RegisterRoutes registers billing endpoints. Employees see their own
// deductions; administrators may pass user_id to inspect any account.
func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/billing/deductions", h.ListDeductions)
	r.Get("/billing/summary", h.MonthlySummary)
	r.Get("/billing/statement", h.Statement)
}

// --- Response types ---

type billingDeductionResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Amount         string    `json:"amount"`
	DeductionDate  string    `json:"deduction_date"`
	DeductionMonth string    `json:"deduction_month"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

func toBillingDeductionResponse(d database.EmployeeDeduction) billingDeductionResponse {
	resp := billingDeductionResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		Amount:      numericToString(d.Amount),
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
	if d.DeductionDate.Valid {
		resp.DeductionDate = d.DeductionDate.Time.Format("2006-01-02")
	}
	if d.DeductionMonth.Valid {
		resp.DeductionMonth = d.DeductionMonth.Time.Format("2006-01-02")
	}
	return resp
}

type monthlyTotalResponse struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

// --- Handlers ---

// targetUser resolves which account the request is about. Non-admins are
// always pinned to their own account regardless of query params.
func targetUser(r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	if claims.IsAdmin {
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				return id, true
			}
			return uuid.Nil, false
		}
	}
	return claims.UserID, true
}

// monthBounds parses ?month=YYYY-MM into the first day of that month, used
// for both ends of the range filter since deduction_month is always day 1.
func monthBounds(raw string) (pgtype.Date, error) {
	if raw == "" {
		return pgtype.Date{}, nil
	}
	m, err := time.Parse("2006-01", raw)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: m, Valid: true}, nil
}

// ListDeductions returns individual deduction entries, optionally filtered
// to one month with ?month=YYYY-MM.
func (h *BillingHandler) ListDeductions(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUser(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	month, err := monthBounds(r.URL.Query().Get("month"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
		return
	}

	deductions, err := h.store.ListDeductions(r.Context(), database.ListDeductionsParams{
		UserID:     pgtype.UUID{Bytes: userID, Valid: true},
		MonthStart: month,
		MonthEnd:   month,
	})
	if err != nil {
		log.Printf("ERROR: list deductions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]billingDeductionResponse, 0, len(deductions))
	for _, d := range deductions {
		resp = append(resp, toBillingDeductionResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// MonthlySummary returns the per-month deduction totals for the account.
func (h *BillingHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUser(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}

	totals, err := h.store.SumDeductionsByMonth(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: sum deductions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]monthlyTotalResponse, 0, len(totals))
	for _, t := range totals {
		row := monthlyTotalResponse{Total: numericToString(t.Total)}
		if t.Month.Valid {
			row.Month = t.Month.Time.Format("2006-01")
		}
		resp = append(resp, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Statement renders one month's deductions as a plain-text payroll
// statement. Month defaults to the current month.
func (h *BillingHandler) Statement(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUser(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}

	raw := r.URL.Query().Get("month")
	if raw == "" {
		raw = time.Now().Format("2006-01")
	}
	month, err := monthBounds(raw)
	if err != nil || !month.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
		return
	}

	profile, err := h.store.GetProfileByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	deductions, err := h.store.ListDeductions(r.Context(), database.ListDeductionsParams{
		UserID:     pgtype.UUID{Bytes: userID, Valid: true},
		MonthStart: month,
		MonthEnd:   month,
	})
	if err != nil {
		log.Printf("ERROR: list deductions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Salary Deduction Statement\n")
	fmt.Fprintf(&b, "Employee: %s (%s)\n", profile.FullName, profile.EmployeeID)
	fmt.Fprintf(&b, "Month: %s\n\n", month.Time.Format("January 2006"))

	total := decimal.Zero
	for _, d := range deductions {
		amount, err := decimal.NewFromString(numericToString(d.Amount))
		if err != nil {
			continue
		}
		total = total.Add(amount)
		date := ""
		if d.DeductionDate.Valid {
			date = d.DeductionDate.Time.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%-12s %-40s %10s\n", date, d.Description, amount.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n%-53s %10s\n", "TOTAL", total.StringFixed(2))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const deductionColumns = `id, user_id, order_id, party_order_id, massage_booking_id, beverage_order_id,
	home_meal_order_id, amount, deduction_date, deduction_month, description, created_at`

func scanDeduction(row interface{ Scan(...any) error }) (EmployeeDeduction, error) {
	var d EmployeeDeduction
	err := row.Scan(&d.ID, &d.UserID, &d.OrderID, &d.PartyOrderID, &d.MassageBookingID,
		&d.BeverageOrderID, &d.HomeMealOrderID, &d.Amount, &d.DeductionDate, &d.DeductionMonth,
		&d.Description, &d.CreatedAt)
	return d, err
}

type CreateDeductionParams struct {
	UserID           uuid.UUID
	OrderID          pgtype.UUID
	PartyOrderID     pgtype.UUID
	MassageBookingID pgtype.UUID
	BeverageOrderID  pgtype.UUID
	HomeMealOrderID  pgtype.UUID
	Amount           pgtype.Numeric
	DeductionMonth   pgtype.Date
	Description      string
}

// CreateDeduction records a salary deduction against exactly one source
// order. Unique indexes on the source columns make re-inserts fail, which
// backs up the once-only guarantee in the status service.
func (q *Queries) CreateDeduction(ctx context.Context, arg CreateDeductionParams) (EmployeeDeduction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO employee_deductions (user_id, order_id, party_order_id, massage_booking_id,
			beverage_order_id, home_meal_order_id, amount, deduction_date, deduction_month, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_DATE, $8, $9)
		RETURNING `+deductionColumns,
		arg.UserID, arg.OrderID, arg.PartyOrderID, arg.MassageBookingID,
		arg.BeverageOrderID, arg.HomeMealOrderID, arg.Amount, arg.DeductionMonth, arg.Description)
	return scanDeduction(row)
}

type ListDeductionsParams struct {
	UserID     pgtype.UUID
	MonthStart pgtype.Date
	MonthEnd   pgtype.Date
}

func (q *Queries) ListDeductions(ctx context.Context, arg ListDeductionsParams) ([]EmployeeDeduction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+deductionColumns+`
		FROM employee_deductions
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::date IS NULL OR deduction_month >= $2)
		  AND ($3::date IS NULL OR deduction_month <= $3)
		ORDER BY created_at DESC`, arg.UserID, arg.MonthStart, arg.MonthEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deductions []EmployeeDeduction
	for rows.Next() {
		d, err := scanDeduction(rows)
		if err != nil {
			return nil, err
		}
		deductions = append(deductions, d)
	}
	return deductions, rows.Err()
}

type MonthlyDeductionTotal struct {
	Month pgtype.Date
	Total pgtype.Numeric
}

func (q *Queries) SumDeductionsByMonth(ctx context.Context, userID uuid.UUID) ([]MonthlyDeductionTotal, error) {
	rows, err := q.db.Query(ctx, `
		SELECT deduction_month, SUM(amount)
		FROM employee_deductions
		WHERE user_id = $1
		GROUP BY deduction_month
		ORDER BY deduction_month DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []MonthlyDeductionTotal
	for rows.Next() {
		var t MonthlyDeductionTotal
		if err := rows.Scan(&t.Month, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const mealSessionColumns = `id, name, description, start_time, end_time, order_cutoff_minutes_before, created_at, updated_at`

func scanMealSession(row interface{ Scan(...any) error }) (MealSession, error) {
	var s MealSession
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.StartTime, &s.EndTime, &s.OrderCutoffMinutesBefore, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type CreateMealSessionParams struct {
	Name                     string
	Description              pgtype.Text
	StartTime                string
	EndTime                  string
	OrderCutoffMinutesBefore int32
}

func (q *Queries) CreateMealSession(ctx context.Context, arg CreateMealSessionParams) (MealSession, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO meal_sessions (name, description, start_time, end_time, order_cutoff_minutes_before)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+mealSessionColumns,
		arg.Name, arg.Description, arg.StartTime, arg.EndTime, arg.OrderCutoffMinutesBefore)
	return scanMealSession(row)
}

func (q *Queries) GetMealSession(ctx context.Context, id uuid.UUID) (MealSession, error) {
	row := q.db.QueryRow(ctx, `SELECT `+mealSessionColumns+` FROM meal_sessions WHERE id = $1`, id)
	return scanMealSession(row)
}

func (q *Queries) ListMealSessions(ctx context.Context) ([]MealSession, error) {
	rows, err := q.db.Query(ctx, `SELECT `+mealSessionColumns+` FROM meal_sessions ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []MealSession
	for rows.Next() {
		s, err := scanMealSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type UpdateMealSessionParams struct {
	ID                       uuid.UUID
	Name                     string
	Description              pgtype.Text
	StartTime                string
	EndTime                  string
	OrderCutoffMinutesBefore int32
}

func (q *Queries) UpdateMealSession(ctx context.Context, arg UpdateMealSessionParams) (MealSession, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE meal_sessions
		SET name = $2, description = $3, start_time = $4, end_time = $5,
		    order_cutoff_minutes_before = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+mealSessionColumns,
		arg.ID, arg.Name, arg.Description, arg.StartTime, arg.EndTime, arg.OrderCutoffMinutesBefore)
	return scanMealSession(row)
}

func (q *Queries) DeleteMealSession(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM meal_sessions WHERE id = $1`, id)
	return err
}

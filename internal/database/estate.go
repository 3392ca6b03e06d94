package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const estateItemColumns = `id, name, category, available, created_at, updated_at`

func scanEstateItem(row interface{ Scan(...any) error }) (EstateItem, error) {
	var e EstateItem
	err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Available, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

type CreateEstateItemParams struct {
	Name      string
	Category  pgtype.Text
	Available bool
}

func (q *Queries) CreateEstateItem(ctx context.Context, arg CreateEstateItemParams) (EstateItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO estate_items (name, category, available)
		VALUES ($1, $2, $3)
		RETURNING `+estateItemColumns,
		arg.Name, arg.Category, arg.Available)
	return scanEstateItem(row)
}

func (q *Queries) GetAvailableEstateItem(ctx context.Context, id uuid.UUID) (EstateItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+estateItemColumns+` FROM estate_items WHERE id = $1 AND available = TRUE`, id)
	return scanEstateItem(row)
}

func (q *Queries) ListEstateItems(ctx context.Context, availableOnly bool) ([]EstateItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+estateItemColumns+`
		FROM estate_items
		WHERE NOT $1::boolean OR available = TRUE
		ORDER BY category, name`, availableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EstateItem
	for rows.Next() {
		e, err := scanEstateItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

type UpdateEstateItemParams struct {
	ID        uuid.UUID
	Name      string
	Category  pgtype.Text
	Available bool
}

func (q *Queries) UpdateEstateItem(ctx context.Context, arg UpdateEstateItemParams) (EstateItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE estate_items
		SET name = $2, category = $3, available = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+estateItemColumns,
		arg.ID, arg.Name, arg.Category, arg.Available)
	return scanEstateItem(row)
}

func (q *Queries) DeleteEstateItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM estate_items WHERE id = $1`, id)
	return err
}

const estateRequestColumns = `id, user_id, estate_item_id, quantity, room_flat, notes, status, request_date, created_at, updated_at`

func scanEstateRequest(row interface{ Scan(...any) error }) (EstateRequest, error) {
	var r EstateRequest
	err := row.Scan(&r.ID, &r.UserID, &r.EstateItemID, &r.Quantity, &r.RoomFlat, &r.Notes,
		&r.Status, &r.RequestDate, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateEstateRequestParams struct {
	UserID       uuid.UUID
	EstateItemID uuid.UUID
	Quantity     int32
	RoomFlat     string
	Notes        pgtype.Text
}

func (q *Queries) CreateEstateRequest(ctx context.Context, arg CreateEstateRequestParams) (EstateRequest, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO estate_requests (user_id, estate_item_id, quantity, room_flat, notes, status, request_date)
		VALUES ($1, $2, $3, $4, $5, 'requested', CURRENT_DATE)
		RETURNING `+estateRequestColumns,
		arg.UserID, arg.EstateItemID, arg.Quantity, arg.RoomFlat, arg.Notes)
	return scanEstateRequest(row)
}

func (q *Queries) GetEstateRequest(ctx context.Context, id uuid.UUID) (EstateRequest, error) {
	row := q.db.QueryRow(ctx, `SELECT `+estateRequestColumns+` FROM estate_requests WHERE id = $1`, id)
	return scanEstateRequest(row)
}

type ListEstateRequestsParams struct {
	UserID pgtype.UUID
	Status pgtype.Text
}

func (q *Queries) ListEstateRequests(ctx context.Context, arg ListEstateRequestsParams) ([]EstateRequest, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+estateRequestColumns+`
		FROM estate_requests
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`, arg.UserID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []EstateRequest
	for rows.Next() {
		r, err := scanEstateRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const beverageItemColumns = `id, name, price, available, created_at, updated_at`

func scanBeverageItem(row interface{ Scan(...any) error }) (BeverageItem, error) {
	var b BeverageItem
	err := row.Scan(&b.ID, &b.Name, &b.Price, &b.Available, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

type CreateBeverageItemParams struct {
	Name      string
	Price     pgtype.Numeric
	Available bool
}

func (q *Queries) CreateBeverageItem(ctx context.Context, arg CreateBeverageItemParams) (BeverageItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO beverage_items (name, price, available)
		VALUES ($1, $2, $3)
		RETURNING `+beverageItemColumns,
		arg.Name, arg.Price, arg.Available)
	return scanBeverageItem(row)
}

func (q *Queries) GetAvailableBeverageItem(ctx context.Context, id uuid.UUID) (BeverageItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+beverageItemColumns+` FROM beverage_items WHERE id = $1 AND available = TRUE`, id)
	return scanBeverageItem(row)
}

func (q *Queries) ListBeverageItems(ctx context.Context, availableOnly bool) ([]BeverageItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+beverageItemColumns+`
		FROM beverage_items
		WHERE NOT $1::boolean OR available = TRUE
		ORDER BY name`, availableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BeverageItem
	for rows.Next() {
		b, err := scanBeverageItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

type UpdateBeverageItemParams struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	Available bool
}

func (q *Queries) UpdateBeverageItem(ctx context.Context, arg UpdateBeverageItemParams) (BeverageItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE beverage_items
		SET name = $2, price = $3, available = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+beverageItemColumns,
		arg.ID, arg.Name, arg.Price, arg.Available)
	return scanBeverageItem(row)
}

func (q *Queries) DeleteBeverageItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM beverage_items WHERE id = $1`, id)
	return err
}

const beverageOrderColumns = `id, user_id, beverage_item_id, quantity, total_amount, status, order_date, created_at, updated_at`

func scanBeverageOrder(row interface{ Scan(...any) error }) (BeverageOrder, error) {
	var o BeverageOrder
	err := row.Scan(&o.ID, &o.UserID, &o.BeverageItemID, &o.Quantity, &o.TotalAmount, &o.Status,
		&o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type CreateBeverageOrderParams struct {
	UserID         uuid.UUID
	BeverageItemID uuid.UUID
	Quantity       int32
	TotalAmount    pgtype.Numeric
}

func (q *Queries) CreateBeverageOrder(ctx context.Context, arg CreateBeverageOrderParams) (BeverageOrder, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO beverage_orders (user_id, beverage_item_id, quantity, total_amount, status, order_date)
		VALUES ($1, $2, $3, $4, 'pending', CURRENT_DATE)
		RETURNING `+beverageOrderColumns,
		arg.UserID, arg.BeverageItemID, arg.Quantity, arg.TotalAmount)
	return scanBeverageOrder(row)
}

func (q *Queries) GetBeverageOrder(ctx context.Context, id uuid.UUID) (BeverageOrder, error) {
	row := q.db.QueryRow(ctx, `SELECT `+beverageOrderColumns+` FROM beverage_orders WHERE id = $1`, id)
	return scanBeverageOrder(row)
}

type ListBeverageOrdersParams struct {
	UserID pgtype.UUID
	Status pgtype.Text
}

func (q *Queries) ListBeverageOrders(ctx context.Context, arg ListBeverageOrdersParams) ([]BeverageOrder, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+beverageOrderColumns+`
		FROM beverage_orders
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`, arg.UserID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []BeverageOrder
	for rows.Next() {
		o, err := scanBeverageOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

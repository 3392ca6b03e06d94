package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const homeMealOrderColumns = `id, user_id, total_amount, delivery_charge, building, flat_no,
	landmark, pin_code, notes, status, order_time, created_at, updated_at`

func scanHomeMealOrder(row interface{ Scan(...any) error }) (HomeMealOrder, error) {
	var o HomeMealOrder
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.DeliveryCharge, &o.Building, &o.FlatNo,
		&o.Landmark, &o.PinCode, &o.Notes, &o.Status, &o.OrderTime, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type CreateHomeMealOrderParams struct {
	UserID         uuid.UUID
	TotalAmount    pgtype.Numeric
	DeliveryCharge pgtype.Numeric
	Building       string
	FlatNo         string
	Landmark       pgtype.Text
	PinCode        pgtype.Text
	Notes          pgtype.Text
}

func (q *Queries) CreateHomeMealOrder(ctx context.Context, arg CreateHomeMealOrderParams) (HomeMealOrder, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO home_meal_orders (user_id, total_amount, delivery_charge, building, flat_no,
			landmark, pin_code, notes, status, order_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', now())
		RETURNING `+homeMealOrderColumns,
		arg.UserID, arg.TotalAmount, arg.DeliveryCharge, arg.Building, arg.FlatNo,
		arg.Landmark, arg.PinCode, arg.Notes)
	return scanHomeMealOrder(row)
}

type CreateHomeMealOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Price      pgtype.Numeric
}

func (q *Queries) CreateHomeMealOrderItem(ctx context.Context, arg CreateHomeMealOrderItemParams) (HomeMealOrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO home_meal_order_items (order_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_id, menu_item_id, quantity, price, created_at`,
		arg.OrderID, arg.MenuItemID, arg.Quantity, arg.Price)
	var i HomeMealOrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.Price, &i.CreatedAt)
	return i, err
}

func (q *Queries) GetHomeMealOrder(ctx context.Context, id uuid.UUID) (HomeMealOrder, error) {
	row := q.db.QueryRow(ctx, `SELECT `+homeMealOrderColumns+` FROM home_meal_orders WHERE id = $1`, id)
	return scanHomeMealOrder(row)
}

type ListHomeMealOrdersParams struct {
	UserID pgtype.UUID
	Status pgtype.Text
}

func (q *Queries) ListHomeMealOrders(ctx context.Context, arg ListHomeMealOrdersParams) ([]HomeMealOrder, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+homeMealOrderColumns+`
		FROM home_meal_orders
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`, arg.UserID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []HomeMealOrder
	for rows.Next() {
		o, err := scanHomeMealOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListHomeMealOrderItems(ctx context.Context, orderID uuid.UUID) ([]HomeMealOrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, quantity, price, created_at
		FROM home_meal_order_items
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []HomeMealOrderItem
	for rows.Next() {
		var i HomeMealOrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.Price, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, order_number, order_type, total_amount, status, pickup_time, notes,
	charge_account, ordered_by_admin_id, ordered_for_employee_id, order_date, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.OrderType, &o.TotalAmount, &o.Status,
		&o.PickupTime, &o.Notes, &o.ChargeAccount, &o.OrderedByAdminID, &o.OrderedForEmployeeID,
		&o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetNextOrderNumber returns max+1 over existing order numbers. Racy by
// nature; callers retry on the unique constraint (see service.OrderService).
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1
		FROM orders`).Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	UserID               uuid.UUID
	OrderNumber          string
	OrderType            string
	TotalAmount          pgtype.Numeric
	Status               string
	PickupTime           pgtype.Timestamptz
	Notes                pgtype.Text
	ChargeAccount        pgtype.Text
	OrderedByAdminID     pgtype.UUID
	OrderedForEmployeeID pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, order_number, order_type, total_amount, status, pickup_time,
			notes, charge_account, ordered_by_admin_id, ordered_for_employee_id, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_DATE)
		RETURNING `+orderColumns,
		arg.UserID, arg.OrderNumber, arg.OrderType, arg.TotalAmount, arg.Status, arg.PickupTime,
		arg.Notes, arg.ChargeAccount, arg.OrderedByAdminID, arg.OrderedForEmployeeID)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Price      pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_id, menu_item_id, quantity, price, created_at`,
		arg.OrderID, arg.MenuItemID, arg.Quantity, arg.Price)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.Price, &i.CreatedAt)
	return i, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type ListOrdersParams struct {
	UserID    pgtype.UUID
	OrderType pgtype.Text
	Status    pgtype.Text
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR order_type = $2)
		  AND ($3::text IS NULL OR status = $3)
		  AND ($4::date IS NULL OR order_date >= $4)
		  AND ($5::date IS NULL OR order_date <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`,
		arg.UserID, arg.OrderType, arg.Status, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, quantity, price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.Price, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CancelOrderParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// CancelOrder lets a user cancel their own order while it is still pending.
// The WHERE clause enforces the precondition atomically.
func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
		RETURNING `+orderColumns,
		arg.ID, arg.UserID)
	return scanOrder(row)
}

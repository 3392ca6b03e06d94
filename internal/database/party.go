package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const partyOrderColumns = `id, user_id, department, party_date, order_date, description,
	estimated_headcount, status, total_cost, created_at, updated_at`

func scanPartyOrder(row interface{ Scan(...any) error }) (PartyOrder, error) {
	var p PartyOrder
	err := row.Scan(&p.ID, &p.UserID, &p.Department, &p.PartyDate, &p.OrderDate, &p.Description,
		&p.EstimatedHeadcount, &p.Status, &p.TotalCost, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreatePartyOrderParams struct {
	UserID             uuid.UUID
	Department         string
	PartyDate          pgtype.Date
	Description        pgtype.Text
	EstimatedHeadcount int32
	TotalCost          pgtype.Numeric
}

func (q *Queries) CreatePartyOrder(ctx context.Context, arg CreatePartyOrderParams) (PartyOrder, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO party_orders (user_id, department, party_date, order_date, description,
			estimated_headcount, status, total_cost)
		VALUES ($1, $2, $3, CURRENT_DATE, $4, $5, 'pending', $6)
		RETURNING `+partyOrderColumns,
		arg.UserID, arg.Department, arg.PartyDate, arg.Description, arg.EstimatedHeadcount, arg.TotalCost)
	return scanPartyOrder(row)
}

type CreatePartyOrderItemParams struct {
	PartyOrderID uuid.UUID
	MenuItemID   uuid.UUID
	Quantity     int32
}

func (q *Queries) CreatePartyOrderItem(ctx context.Context, arg CreatePartyOrderItemParams) (PartyOrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO party_order_items (party_order_id, menu_item_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, party_order_id, menu_item_id, quantity, created_at`,
		arg.PartyOrderID, arg.MenuItemID, arg.Quantity)
	var i PartyOrderItem
	err := row.Scan(&i.ID, &i.PartyOrderID, &i.MenuItemID, &i.Quantity, &i.CreatedAt)
	return i, err
}

func (q *Queries) GetPartyOrder(ctx context.Context, id uuid.UUID) (PartyOrder, error) {
	row := q.db.QueryRow(ctx, `SELECT `+partyOrderColumns+` FROM party_orders WHERE id = $1`, id)
	return scanPartyOrder(row)
}

type ListPartyOrdersParams struct {
	UserID pgtype.UUID
	Status pgtype.Text
}

func (q *Queries) ListPartyOrders(ctx context.Context, arg ListPartyOrdersParams) ([]PartyOrder, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+partyOrderColumns+`
		FROM party_orders
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`, arg.UserID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []PartyOrder
	for rows.Next() {
		p, err := scanPartyOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, p)
	}
	return orders, rows.Err()
}

func (q *Queries) ListPartyOrderItems(ctx context.Context, partyOrderID uuid.UUID) ([]PartyOrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, party_order_id, menu_item_id, quantity, created_at
		FROM party_order_items
		WHERE party_order_id = $1
		ORDER BY created_at`, partyOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PartyOrderItem
	for rows.Next() {
		var i PartyOrderItem
		if err := rows.Scan(&i.ID, &i.PartyOrderID, &i.MenuItemID, &i.Quantity, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

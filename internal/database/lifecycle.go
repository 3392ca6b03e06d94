package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrUnknownKind is returned when a kind string does not map to an order table.
var ErrUnknownKind = errors.New("unknown order kind")

// kindTable describes where each order kind lives. amountColumn is the
// column charged when the kind is deductible; created_at and status column
// names are the same everywhere. regular and general share the orders
// table and are told apart by orderType, so a row addressed under the
// wrong kind is not found rather than silently recharged.
type kindTable struct {
	table        string
	amountColumn string
	numberColumn string
	orderType    string
}

var kindTables = map[string]kindTable{
	"regular":   {table: "orders", amountColumn: "total_amount", numberColumn: "order_number", orderType: "regular"},
	"general":   {table: "orders", amountColumn: "total_amount", numberColumn: "order_number", orderType: "general"},
	"party":     {table: "party_orders", amountColumn: "total_cost"},
	"massage":   {table: "massage_bookings", amountColumn: "price"},
	"beverage":  {table: "beverage_orders", amountColumn: "total_amount"},
	"home_meal": {table: "home_meal_orders", amountColumn: "total_amount"},
	"estate":    {table: "estate_requests", amountColumn: ""},
}

func (kt kindTable) amountExpr() string {
	if kt.amountColumn == "" {
		return "0::numeric"
	}
	return kt.amountColumn
}

func (kt kindTable) numberExpr() string {
	if kt.numberColumn == "" {
		return "''"
	}
	return kt.numberColumn
}

// typePredicate narrows orders-table lookups to the addressed kind. Empty
// for kinds with a table of their own.
func (kt kindTable) typePredicate() string {
	if kt.orderType == "" {
		return ""
	}
	return fmt.Sprintf(" AND order_type = '%s'", kt.orderType)
}

// KindOrder is the common projection of every order table used by the
// status lifecycle: identity, owner, current status, chargeable amount.
// OrderNumber is empty for kinds outside the orders table.
type KindOrder struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Status      string
	Amount      pgtype.Numeric
	OrderNumber string
	CreatedAt   pgtype.Timestamptz
}

func scanKindOrder(row interface{ Scan(...any) error }) (KindOrder, error) {
	var k KindOrder
	err := row.Scan(&k.ID, &k.UserID, &k.Status, &k.Amount, &k.OrderNumber, &k.CreatedAt)
	return k, err
}

type GetKindOrderParams struct {
	Kind string
	ID   uuid.UUID
}

func (q *Queries) GetKindOrder(ctx context.Context, arg GetKindOrderParams) (KindOrder, error) {
	kt, ok := kindTables[arg.Kind]
	if !ok {
		return KindOrder{}, ErrUnknownKind
	}
	// Table and column names come from the fixed map above, never from input.
	query := fmt.Sprintf(`SELECT id, user_id, status, %s, %s, created_at FROM %s WHERE id = $1%s`,
		kt.amountExpr(), kt.numberExpr(), kt.table, kt.typePredicate())
	return scanKindOrder(q.db.QueryRow(ctx, query, arg.ID))
}

type UpdateKindOrderStatusParams struct {
	Kind       string
	ID         uuid.UUID
	NewStatus  string
	PrevStatus string
}

// UpdateKindOrderStatus moves an order to NewStatus only if it is still in
// PrevStatus. A concurrent change makes the update match zero rows and the
// caller sees pgx.ErrNoRows.
func (q *Queries) UpdateKindOrderStatus(ctx context.Context, arg UpdateKindOrderStatusParams) (KindOrder, error) {
	kt, ok := kindTables[arg.Kind]
	if !ok {
		return KindOrder{}, ErrUnknownKind
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3%s
		RETURNING id, user_id, status, %s, %s, created_at`,
		kt.table, kt.typePredicate(), kt.amountExpr(), kt.numberExpr())
	return scanKindOrder(q.db.QueryRow(ctx, query, arg.ID, arg.NewStatus, arg.PrevStatus))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems        = errors.New("items are required")
	ErrInvalidOrderType  = errors.New("invalid order_type")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrMenuItemNotFound  = errors.New("menu item not found or unavailable")
	ErrInvalidMenuItemID = errors.New("invalid menu_item_id")
	ErrInvalidPickupTime = errors.New("invalid pickup_time")
	ErrChargeAccount     = errors.New("charge_account is required for general orders")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create meal orders.
// Satisfied by *database.Queries built over a pool or a transaction.
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating a meal order.
// General orders are placed by an administrator on behalf of an employee
// and charged to a department account instead of payroll.
type CreateOrderRequest struct {
	UserID               uuid.UUID
	OrderType            string
	PickupTime           string // RFC3339, optional
	Notes                string
	ChargeAccount        string
	OrderedByAdminID     uuid.UUID // zero unless placed by an admin
	OrderedForEmployeeID string
	Items                []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line in the order.
type CreateOrderItemRequest struct {
	MenuItemID string
	Quantity   int32
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles meal order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates, prices, and creates a meal order atomically.
// Retries up to maxOrderNumberRetries times on order_number unique
// constraint violations (concurrent transactions get the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.OrderType != enum.KindRegular && req.OrderType != enum.KindGeneral {
		return nil, ErrInvalidOrderType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.OrderType == enum.KindGeneral && req.ChargeAccount == "" {
		return nil, ErrChargeAccount
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

// lineItem holds a priced order line ready to insert.
type lineItem struct {
	menuItemID uuid.UUID
	quantity   int32
	price      decimal.Decimal
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("CTN-%03d", nextNum)

	// --- Price items from the menu, never from client input ---
	total := decimal.Zero
	var lines []lineItem
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetAvailableMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}
		price := numericToDecimal(menuItem.Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		lines = append(lines, lineItem{menuItemID: menuItemID, quantity: item.Quantity, price: price})
	}

	pickupTime := pgtype.Timestamptz{}
	if req.PickupTime != "" {
		t, err := time.Parse(time.RFC3339, req.PickupTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPickupTime, err)
		}
		pickupTime = pgtype.Timestamptz{Time: t, Valid: true}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	chargeAccount := pgtype.Text{}
	orderedByAdminID := pgtype.UUID{}
	orderedForEmployeeID := pgtype.Text{}
	if req.OrderType == enum.KindGeneral {
		chargeAccount = pgtype.Text{String: req.ChargeAccount, Valid: true}
		if req.OrderedByAdminID != uuid.Nil {
			orderedByAdminID = pgtype.UUID{Bytes: req.OrderedByAdminID, Valid: true}
		}
		if req.OrderedForEmployeeID != "" {
			orderedForEmployeeID = pgtype.Text{String: req.OrderedForEmployeeID, Valid: true}
		}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:               req.UserID,
		OrderNumber:          orderNumber,
		OrderType:            req.OrderType,
		TotalAmount:          decimalToNumeric(total),
		Status:               enum.StatusPending,
		PickupTime:           pickupTime,
		Notes:                notes,
		ChargeAccount:        chargeAccount,
		OrderedByAdminID:     orderedByAdminID,
		OrderedForEmployeeID: orderedForEmployeeID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, line := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: line.menuItemID,
			Quantity:   line.quantity,
			Price:      decimalToNumeric(line.price),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/schedule"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Home meal deliveries go out once per evening; orders close at a fixed
// clock time and carry a flat delivery charge.
const (
	HomeMealCutoff         = "18:00"
	HomeMealDeliveryCharge = 50
)

// Errors returned by the home meal service.
var (
	ErrDeliveryClosed  = errors.New("home meal ordering is closed for today")
	ErrDeliveryAddress = errors.New("building and flat_no are required")
)

// HomeMealStore defines the DB methods needed to create home meal orders.
type HomeMealStore interface {
	GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateHomeMealOrder(ctx context.Context, arg database.CreateHomeMealOrderParams) (database.HomeMealOrder, error)
	CreateHomeMealOrderItem(ctx context.Context, arg database.CreateHomeMealOrderItemParams) (database.HomeMealOrderItem, error)
}

// NewHomeMealStore creates a HomeMealStore from a DBTX (pool or tx).
type NewHomeMealStore func(db database.DBTX) HomeMealStore

// CreateHomeMealOrderRequest is the validated input for an evening home
// delivery order.
type CreateHomeMealOrderRequest struct {
	UserID   uuid.UUID
	Building string
	FlatNo   string
	Landmark string
	PinCode  string
	Notes    string
	Items    []CreateOrderItemRequest
}

// CreateHomeMealOrderResult is the created order with its items.
type CreateHomeMealOrderResult struct {
	Order database.HomeMealOrder
	Items []database.HomeMealOrderItem
}

// HomeMealService handles home delivery business logic.
type HomeMealService struct {
	pool     TxBeginner
	newStore NewHomeMealStore
	now      func() time.Time
}

// NewHomeMealService creates a new HomeMealService.
func NewHomeMealService(pool TxBeginner, newStore NewHomeMealStore) *HomeMealService {
	return &HomeMealService{pool: pool, newStore: newStore, now: time.Now}
}

// CreateHomeMealOrder prices the basket, adds the flat delivery charge,
// and creates the order atomically. Orders after the evening cutoff are
// rejected.
func (s *HomeMealService) CreateHomeMealOrder(ctx context.Context, req CreateHomeMealOrderRequest) (*CreateHomeMealOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.Building == "" || req.FlatNo == "" {
		return nil, ErrDeliveryAddress
	}

	cutoff, err := schedule.ParseClock(HomeMealCutoff)
	if err != nil {
		return nil, fmt.Errorf("parse cutoff: %w", err)
	}
	if schedule.ClockMinutes(s.now()) > cutoff {
		return nil, ErrDeliveryClosed
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	subtotal := decimal.Zero
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
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		lines = append(lines, lineItem{menuItemID: menuItemID, quantity: item.Quantity, price: price})
	}

	deliveryCharge := decimal.NewFromInt(HomeMealDeliveryCharge)
	total := subtotal.Add(deliveryCharge)

	landmark := pgtype.Text{}
	if req.Landmark != "" {
		landmark = pgtype.Text{String: req.Landmark, Valid: true}
	}
	pinCode := pgtype.Text{}
	if req.PinCode != "" {
		pinCode = pgtype.Text{String: req.PinCode, Valid: true}
	}
	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	order, err := store.CreateHomeMealOrder(ctx, database.CreateHomeMealOrderParams{
		UserID:         req.UserID,
		TotalAmount:    decimalToNumeric(total),
		DeliveryCharge: decimalToNumeric(deliveryCharge),
		Building:       req.Building,
		FlatNo:         req.FlatNo,
		Landmark:       landmark,
		PinCode:        pinCode,
		Notes:          notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create home meal order: %w", err)
	}

	var items []database.HomeMealOrderItem
	for _, line := range lines {
		item, err := store.CreateHomeMealOrderItem(ctx, database.CreateHomeMealOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: line.menuItemID,
			Quantity:   line.quantity,
			Price:      decimalToNumeric(line.price),
		})
		if err != nil {
			return nil, fmt.Errorf("create home meal order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateHomeMealOrderResult{Order: order, Items: items}, nil
}

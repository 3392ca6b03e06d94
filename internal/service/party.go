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

// PartyMinAdvanceDays is the notice a department must give before the
// party date.
const PartyMinAdvanceDays = 2

// Errors returned by the party service.
var (
	ErrPartyDate        = errors.New("party_date is required")
	ErrInvalidPartyDate = errors.New("invalid party_date")
	ErrAdvanceNotice    = errors.New("party orders require at least 2 days notice")
	ErrDepartment       = errors.New("department is required")
	ErrHeadcount        = errors.New("estimated_headcount must be > 0")
)

// PartyStore defines the DB methods needed to create party orders.
type PartyStore interface {
	GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreatePartyOrder(ctx context.Context, arg database.CreatePartyOrderParams) (database.PartyOrder, error)
	CreatePartyOrderItem(ctx context.Context, arg database.CreatePartyOrderItemParams) (database.PartyOrderItem, error)
}

// NewPartyStore creates a PartyStore from a DBTX (pool or tx).
type NewPartyStore func(db database.DBTX) PartyStore

// CreatePartyOrderRequest is the validated input for a department party
// catering request.
type CreatePartyOrderRequest struct {
	UserID             uuid.UUID
	Department         string
	PartyDate          string // YYYY-MM-DD
	Description        string
	EstimatedHeadcount int32
	Items              []CreateOrderItemRequest
}

// CreatePartyOrderResult is the created party order with its items.
type CreatePartyOrderResult struct {
	Order database.PartyOrder
	Items []database.PartyOrderItem
}

// PartyService handles party catering business logic.
type PartyService struct {
	pool     TxBeginner
	newStore NewPartyStore
	now      func() time.Time
}

// NewPartyService creates a new PartyService.
func NewPartyService(pool TxBeginner, newStore NewPartyStore) *PartyService {
	return &PartyService{pool: pool, newStore: newStore, now: time.Now}
}

// CreatePartyOrder validates the advance-notice window, estimates the
// cost from per-head menu prices, and creates the order atomically.
func (s *PartyService) CreatePartyOrder(ctx context.Context, req CreatePartyOrderRequest) (*CreatePartyOrderResult, error) {
	if req.Department == "" {
		return nil, ErrDepartment
	}
	if req.EstimatedHeadcount <= 0 {
		return nil, ErrHeadcount
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.PartyDate == "" {
		return nil, ErrPartyDate
	}
	partyDate, err := time.Parse("2006-01-02", req.PartyDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPartyDate, err)
	}
	if !schedule.CanScheduleAdvance(partyDate, s.now(), PartyMinAdvanceDays) {
		return nil, ErrAdvanceNotice
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Cost estimate: each selected dish is served to the whole headcount.
	totalCost := decimal.Zero
	type partyLine struct {
		menuItemID uuid.UUID
		quantity   int32
	}
	var lines []partyLine
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
		totalCost = totalCost.Add(price.Mul(decimal.NewFromInt32(item.Quantity)).Mul(decimal.NewFromInt32(req.EstimatedHeadcount)))
		lines = append(lines, partyLine{menuItemID: menuItemID, quantity: item.Quantity})
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	order, err := store.CreatePartyOrder(ctx, database.CreatePartyOrderParams{
		UserID:             req.UserID,
		Department:         req.Department,
		PartyDate:          pgtype.Date{Time: partyDate, Valid: true},
		Description:        description,
		EstimatedHeadcount: req.EstimatedHeadcount,
		TotalCost:          decimalToNumeric(totalCost),
	})
	if err != nil {
		return nil, fmt.Errorf("create party order: %w", err)
	}

	var items []database.PartyOrderItem
	for _, line := range lines {
		item, err := store.CreatePartyOrderItem(ctx, database.CreatePartyOrderItemParams{
			PartyOrderID: order.ID,
			MenuItemID:   line.menuItemID,
			Quantity:     line.quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("create party order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreatePartyOrderResult{Order: order, Items: items}, nil
}

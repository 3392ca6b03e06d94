package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Errors returned by the stock service.
var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrStockBelowZero     = errors.New("stock cannot go below zero")
)

// StockStore defines the DB methods needed to adjust ingredient stock.
// Satisfied by *database.Queries built over a pool or a transaction.
type StockStore interface {
	GetIngredientForUpdate(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	UpdateIngredientStock(ctx context.Context, arg database.UpdateIngredientStockParams) (database.Ingredient, error)
	CreateStockAdjustment(ctx context.Context, arg database.CreateStockAdjustmentParams) (database.StockAdjustment, error)
}

// NewStockStore creates a StockStore from a DBTX (pool or tx).
type NewStockStore func(db database.DBTX) StockStore

// AdjustStockRequest is the validated input for a manual stock adjustment.
type AdjustStockRequest struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal // positive; direction comes from Type
	Type         string          // enum.AdjustmentAdd or enum.AdjustmentSubtract
	Reason       string
	AdjustedBy   uuid.UUID
}

// StockService applies manual stock adjustments.
type StockService struct {
	pool     TxBeginner
	newStore NewStockStore
}

// NewStockService creates a new StockService.
func NewStockService(pool TxBeginner, newStore NewStockStore) *StockService {
	return &StockService{pool: pool, newStore: newStore}
}

// AdjustStock updates an ingredient's stock level and writes the trail row
// in one transaction. The ingredient row is locked for the duration, so
// concurrent adjustments serialize instead of losing updates, and a failed
// trail insert rolls the stock change back.
func (s *StockService) AdjustStock(ctx context.Context, req AdjustStockRequest) (database.StockAdjustment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.StockAdjustment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	ingredient, err := store.GetIngredientForUpdate(ctx, req.IngredientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.StockAdjustment{}, ErrIngredientNotFound
		}
		return database.StockAdjustment{}, fmt.Errorf("get ingredient: %w", err)
	}

	previous := numericToDecimal(ingredient.CurrentStock)
	next := previous.Add(req.Quantity)
	if req.Type == enum.AdjustmentSubtract {
		next = previous.Sub(req.Quantity)
		if next.IsNegative() {
			return database.StockAdjustment{}, ErrStockBelowZero
		}
	}

	newStock := decimalToNumeric(next)
	if _, err := store.UpdateIngredientStock(ctx, database.UpdateIngredientStockParams{
		ID:           req.IngredientID,
		CurrentStock: newStock,
		Restocked:    req.Type == enum.AdjustmentAdd,
	}); err != nil {
		return database.StockAdjustment{}, fmt.Errorf("update stock: %w", err)
	}

	adjustment, err := store.CreateStockAdjustment(ctx, database.CreateStockAdjustmentParams{
		IngredientID:       req.IngredientID,
		AdjustmentQuantity: decimalToNumeric(req.Quantity),
		AdjustmentType:     req.Type,
		Reason:             req.Reason,
		PreviousStock:      ingredient.CurrentStock,
		NewStock:           newStock,
		AdjustedBy:         req.AdjustedBy,
	})
	if err != nil {
		return database.StockAdjustment{}, fmt.Errorf("create stock adjustment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.StockAdjustment{}, fmt.Errorf("commit tx: %w", err)
	}
	return adjustment, nil
}

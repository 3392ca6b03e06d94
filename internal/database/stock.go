package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const ingredientColumns = `id, name, unit, cost_per_unit, current_stock, last_restocked_at, created_at, updated_at`

func scanIngredient(row interface{ Scan(...any) error }) (Ingredient, error) {
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.CostPerUnit, &i.CurrentStock, &i.LastRestockedAt, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type CreateIngredientParams struct {
	Name         string
	Unit         string
	CostPerUnit  pgtype.Numeric
	CurrentStock pgtype.Numeric
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO ingredients (name, unit, cost_per_unit, current_stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ingredientColumns,
		arg.Name, arg.Unit, arg.CostPerUnit, arg.CurrentStock)
	return scanIngredient(row)
}

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1`, id)
	return scanIngredient(row)
}

// GetIngredientForUpdate locks the row until the surrounding transaction
// ends. Used by stock adjustments so concurrent read-modify-write cycles
// serialize.
func (q *Queries) GetIngredientForUpdate(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1 FOR UPDATE`, id)
	return scanIngredient(row)
}

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, `SELECT `+ingredientColumns+` FROM ingredients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, i)
	}
	return ingredients, rows.Err()
}

type UpdateIngredientStockParams struct {
	ID           uuid.UUID
	CurrentStock pgtype.Numeric
	Restocked    bool
}

func (q *Queries) UpdateIngredientStock(ctx context.Context, arg UpdateIngredientStockParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE ingredients
		SET current_stock = $2,
		    last_restocked_at = CASE WHEN $3::boolean THEN now() ELSE last_restocked_at END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+ingredientColumns,
		arg.ID, arg.CurrentStock, arg.Restocked)
	return scanIngredient(row)
}

type CreateStockAdjustmentParams struct {
	IngredientID       uuid.UUID
	AdjustmentQuantity pgtype.Numeric
	AdjustmentType     string
	Reason             string
	PreviousStock      pgtype.Numeric
	NewStock           pgtype.Numeric
	AdjustedBy         uuid.UUID
}

func (q *Queries) CreateStockAdjustment(ctx context.Context, arg CreateStockAdjustmentParams) (StockAdjustment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO stock_adjustments (ingredient_id, adjustment_quantity, adjustment_type, reason,
			previous_stock, new_stock, adjusted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, ingredient_id, adjustment_quantity, adjustment_type, reason, previous_stock, new_stock, adjusted_by, created_at`,
		arg.IngredientID, arg.AdjustmentQuantity, arg.AdjustmentType, arg.Reason,
		arg.PreviousStock, arg.NewStock, arg.AdjustedBy)
	var a StockAdjustment
	err := row.Scan(&a.ID, &a.IngredientID, &a.AdjustmentQuantity, &a.AdjustmentType, &a.Reason,
		&a.PreviousStock, &a.NewStock, &a.AdjustedBy, &a.CreatedAt)
	return a, err
}

func (q *Queries) ListStockAdjustments(ctx context.Context, ingredientID pgtype.UUID) ([]StockAdjustment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, ingredient_id, adjustment_quantity, adjustment_type, reason, previous_stock, new_stock, adjusted_by, created_at
		FROM stock_adjustments
		WHERE ($1::uuid IS NULL OR ingredient_id = $1)
		ORDER BY created_at DESC`, ingredientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []StockAdjustment
	for rows.Next() {
		var a StockAdjustment
		if err := rows.Scan(&a.ID, &a.IngredientID, &a.AdjustmentQuantity, &a.AdjustmentType, &a.Reason,
			&a.PreviousStock, &a.NewStock, &a.AdjustedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

type CreateConsumptionLogParams struct {
	IngredientID     uuid.UUID
	MenuItemID       pgtype.UUID
	PartyOrderID     pgtype.UUID
	QuantityConsumed pgtype.Numeric
	ConsumptionDate  pgtype.Date
}

func (q *Queries) CreateConsumptionLog(ctx context.Context, arg CreateConsumptionLogParams) (ConsumptionLog, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO consumption_logs (ingredient_id, menu_item_id, party_order_id, quantity_consumed, consumption_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ingredient_id, menu_item_id, party_order_id, quantity_consumed, consumption_date, created_at`,
		arg.IngredientID, arg.MenuItemID, arg.PartyOrderID, arg.QuantityConsumed, arg.ConsumptionDate)
	var c ConsumptionLog
	err := row.Scan(&c.ID, &c.IngredientID, &c.MenuItemID, &c.PartyOrderID, &c.QuantityConsumed, &c.ConsumptionDate, &c.CreatedAt)
	return c, err
}

type ConsumptionReportRow struct {
	IngredientID   uuid.UUID
	IngredientName string
	Unit           string
	TotalConsumed  pgtype.Numeric
	EstimatedCost  pgtype.Numeric
}

type ConsumptionReportParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// ConsumptionReport aggregates consumption per ingredient over a date
// range, costed at the current cost_per_unit.
func (q *Queries) ConsumptionReport(ctx context.Context, arg ConsumptionReportParams) ([]ConsumptionReportRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.id, i.name, i.unit,
		       COALESCE(SUM(c.quantity_consumed), 0) AS total_consumed,
		       COALESCE(SUM(c.quantity_consumed), 0) * i.cost_per_unit AS estimated_cost
		FROM ingredients i
		JOIN consumption_logs c ON c.ingredient_id = i.id
		WHERE c.consumption_date >= $1 AND c.consumption_date <= $2
		GROUP BY i.id, i.name, i.unit, i.cost_per_unit
		ORDER BY i.name`, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []ConsumptionReportRow
	for rows.Next() {
		var r ConsumptionReportRow
		if err := rows.Scan(&r.IngredientID, &r.IngredientName, &r.Unit, &r.TotalConsumed, &r.EstimatedCost); err != nil {
			return nil, err
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

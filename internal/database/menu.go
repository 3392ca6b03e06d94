package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, category, price, image_url, available, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.Price, &m.ImageURL, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

type CreateMenuItemParams struct {
	Name        string
	Description pgtype.Text
	Category    pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
	Available   bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, category, price, image_url, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+menuItemColumns,
		arg.Name, arg.Description, arg.Category, arg.Price, arg.ImageURL, arg.Available)
	return scanMenuItem(row)
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

// GetAvailableMenuItem is used during order creation: the item must exist
// and still be marked available.
func (q *Queries) GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1 AND available = TRUE`, id)
	return scanMenuItem(row)
}

func (q *Queries) ListMenuItems(ctx context.Context, availableOnly bool) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE NOT $1::boolean OR available = TRUE
		ORDER BY category, name`, availableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Category    pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
	Available   bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $2, description = $3, category = $4, price = $5, image_url = $6,
		    available = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.Name, arg.Description, arg.Category, arg.Price, arg.ImageURL, arg.Available)
	return scanMenuItem(row)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return err
}

// --- Daily menu ---

type ListDailyMenuParams struct {
	MenuDate  pgtype.Date
	SessionID uuid.UUID
}

type ClearDailyMenuParams struct {
	MenuDate  pgtype.Date
	SessionID uuid.UUID
}

func (q *Queries) ClearDailyMenu(ctx context.Context, arg ClearDailyMenuParams) error {
	_, err := q.db.Exec(ctx, `DELETE FROM daily_menu WHERE menu_date = $1 AND session_id = $2`,
		arg.MenuDate, arg.SessionID)
	return err
}

type CreateDailyMenuEntryParams struct {
	MenuDate   pgtype.Date
	SessionID  uuid.UUID
	MenuItemID uuid.UUID
	Available  bool
}

func (q *Queries) CreateDailyMenuEntry(ctx context.Context, arg CreateDailyMenuEntryParams) (DailyMenuEntry, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO daily_menu (menu_date, session_id, menu_item_id, available)
		VALUES ($1, $2, $3, $4)
		RETURNING id, menu_date, session_id, menu_item_id, available, created_at`,
		arg.MenuDate, arg.SessionID, arg.MenuItemID, arg.Available)
	var e DailyMenuEntry
	err := row.Scan(&e.ID, &e.MenuDate, &e.SessionID, &e.MenuItemID, &e.Available, &e.CreatedAt)
	return e, err
}

// ListDailyMenuItems returns the available menu items scheduled for a
// session on a given date, joined through daily_menu.
func (q *Queries) ListDailyMenuItems(ctx context.Context, arg ListDailyMenuParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT m.id, m.name, m.description, m.category, m.price, m.image_url, m.available, m.created_at, m.updated_at
		FROM daily_menu d
		JOIN menu_items m ON m.id = d.menu_item_id
		WHERE d.menu_date = $1 AND d.session_id = $2 AND d.available = TRUE AND m.available = TRUE
		ORDER BY m.category, m.name`, arg.MenuDate, arg.SessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// --- Weekly menu ---

const weeklyMenuColumns = `id, day_of_week, meal_type, item_name, created_at, updated_at`

type CreateWeeklyMenuItemParams struct {
	DayOfWeek int32
	MealType  string
	ItemName  string
}

func (q *Queries) CreateWeeklyMenuItem(ctx context.Context, arg CreateWeeklyMenuItemParams) (WeeklyMenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO weekly_menu (day_of_week, meal_type, item_name)
		VALUES ($1, $2, $3)
		RETURNING `+weeklyMenuColumns,
		arg.DayOfWeek, arg.MealType, arg.ItemName)
	var w WeeklyMenuItem
	err := row.Scan(&w.ID, &w.DayOfWeek, &w.MealType, &w.ItemName, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (q *Queries) ListWeeklyMenu(ctx context.Context) ([]WeeklyMenuItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+weeklyMenuColumns+` FROM weekly_menu ORDER BY day_of_week, meal_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WeeklyMenuItem
	for rows.Next() {
		var w WeeklyMenuItem
		if err := rows.Scan(&w.ID, &w.DayOfWeek, &w.MealType, &w.ItemName, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

type UpdateWeeklyMenuItemParams struct {
	ID        uuid.UUID
	DayOfWeek int32
	MealType  string
	ItemName  string
}

func (q *Queries) UpdateWeeklyMenuItem(ctx context.Context, arg UpdateWeeklyMenuItemParams) (WeeklyMenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE weekly_menu
		SET day_of_week = $2, meal_type = $3, item_name = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+weeklyMenuColumns,
		arg.ID, arg.DayOfWeek, arg.MealType, arg.ItemName)
	var w WeeklyMenuItem
	err := row.Scan(&w.ID, &w.DayOfWeek, &w.MealType, &w.ItemName, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (q *Queries) DeleteWeeklyMenuItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM weekly_menu WHERE id = $1`, id)
	return err
}

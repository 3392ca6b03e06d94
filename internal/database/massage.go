package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const massageServiceColumns = `id, name, description, duration_minutes, price, available, created_at, updated_at`

func scanMassageService(row interface{ Scan(...any) error }) (MassageService, error) {
	var s MassageService
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.Price, &s.Available, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type CreateMassageServiceParams struct {
	Name            string
	Description     pgtype.Text
	DurationMinutes int32
	Price           pgtype.Numeric
	Available       bool
}

func (q *Queries) CreateMassageService(ctx context.Context, arg CreateMassageServiceParams) (MassageService, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO massage_services (name, description, duration_minutes, price, available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+massageServiceColumns,
		arg.Name, arg.Description, arg.DurationMinutes, arg.Price, arg.Available)
	return scanMassageService(row)
}

func (q *Queries) GetMassageService(ctx context.Context, id uuid.UUID) (MassageService, error) {
	row := q.db.QueryRow(ctx, `SELECT `+massageServiceColumns+` FROM massage_services WHERE id = $1`, id)
	return scanMassageService(row)
}

func (q *Queries) GetAvailableMassageService(ctx context.Context, id uuid.UUID) (MassageService, error) {
	row := q.db.QueryRow(ctx, `SELECT `+massageServiceColumns+` FROM massage_services WHERE id = $1 AND available = TRUE`, id)
	return scanMassageService(row)
}

func (q *Queries) ListMassageServices(ctx context.Context, availableOnly bool) ([]MassageService, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+massageServiceColumns+`
		FROM massage_services
		WHERE NOT $1::boolean OR available = TRUE
		ORDER BY name`, availableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []MassageService
	for rows.Next() {
		s, err := scanMassageService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

type UpdateMassageServiceParams struct {
	ID              uuid.UUID
	Name            string
	Description     pgtype.Text
	DurationMinutes int32
	Price           pgtype.Numeric
	Available       bool
}

func (q *Queries) UpdateMassageService(ctx context.Context, arg UpdateMassageServiceParams) (MassageService, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE massage_services
		SET name = $2, description = $3, duration_minutes = $4, price = $5,
		    available = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+massageServiceColumns,
		arg.ID, arg.Name, arg.Description, arg.DurationMinutes, arg.Price, arg.Available)
	return scanMassageService(row)
}

func (q *Queries) DeleteMassageService(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM massage_services WHERE id = $1`, id)
	return err
}

const massageBookingColumns = `id, user_id, service_id, booking_date, booking_time, price, notes, status, created_at, updated_at`

func scanMassageBooking(row interface{ Scan(...any) error }) (MassageBooking, error) {
	var b MassageBooking
	err := row.Scan(&b.ID, &b.UserID, &b.ServiceID, &b.BookingDate, &b.BookingTime, &b.Price,
		&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

type CreateMassageBookingParams struct {
	UserID      uuid.UUID
	ServiceID   uuid.UUID
	BookingDate pgtype.Date
	BookingTime string
	Price       pgtype.Numeric
	Notes       pgtype.Text
}

func (q *Queries) CreateMassageBooking(ctx context.Context, arg CreateMassageBookingParams) (MassageBooking, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO massage_bookings (user_id, service_id, booking_date, booking_time, price, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING `+massageBookingColumns,
		arg.UserID, arg.ServiceID, arg.BookingDate, arg.BookingTime, arg.Price, arg.Notes)
	return scanMassageBooking(row)
}

func (q *Queries) GetMassageBooking(ctx context.Context, id uuid.UUID) (MassageBooking, error) {
	row := q.db.QueryRow(ctx, `SELECT `+massageBookingColumns+` FROM massage_bookings WHERE id = $1`, id)
	return scanMassageBooking(row)
}

type ListMassageBookingsParams struct {
	UserID pgtype.UUID
	Status pgtype.Text
}

func (q *Queries) ListMassageBookings(ctx context.Context, arg ListMassageBookingsParams) ([]MassageBooking, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+massageBookingColumns+`
		FROM massage_bookings
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY booking_date DESC, booking_time DESC`, arg.UserID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []MassageBooking
	for rows.Next() {
		b, err := scanMassageBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

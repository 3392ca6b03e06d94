package database

import (
	"context"

	"github.com/google/uuid"
)

const profileColumns = `id, email, hashed_password, full_name, employee_id, is_admin, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.HashedPassword, &p.FullName, &p.EmployeeID, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreateProfileParams struct {
	Email          string
	HashedPassword string
	FullName       string
	EmployeeID     string
	IsAdmin        bool
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO profiles (email, hashed_password, full_name, employee_id, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+profileColumns,
		arg.Email, arg.HashedPassword, arg.FullName, arg.EmployeeID, arg.IsAdmin)
	return scanProfile(row)
}

func (q *Queries) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := q.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	return scanProfile(row)
}

func (q *Queries) GetProfileByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

func (q *Queries) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := q.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type SetProfileAdminParams struct {
	ID      uuid.UUID
	IsAdmin bool
}

func (q *Queries) SetProfileAdmin(ctx context.Context, arg SetProfileAdminParams) (Profile, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE profiles SET is_admin = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		arg.ID, arg.IsAdmin)
	return scanProfile(row)
}

type CreateRoleAuditParams struct {
	UserID           uuid.UUID
	ChangedByAdminID uuid.UUID
	PreviousRole     bool
	NewRole          bool
	Reason           string
}

func (q *Queries) CreateRoleAudit(ctx context.Context, arg CreateRoleAuditParams) (AdminRoleAudit, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO admin_role_audit (user_id, changed_by_admin_id, previous_role, new_role, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, changed_by_admin_id, previous_role, new_role, reason, created_at`,
		arg.UserID, arg.ChangedByAdminID, arg.PreviousRole, arg.NewRole, arg.Reason)
	var a AdminRoleAudit
	err := row.Scan(&a.ID, &a.UserID, &a.ChangedByAdminID, &a.PreviousRole, &a.NewRole, &a.Reason, &a.CreatedAt)
	return a, err
}

func (q *Queries) ListRoleAudit(ctx context.Context, limit int32) ([]AdminRoleAudit, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, changed_by_admin_id, previous_role, new_role, reason, created_at
		FROM admin_role_audit
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AdminRoleAudit
	for rows.Next() {
		var a AdminRoleAudit
		if err := rows.Scan(&a.ID, &a.UserID, &a.ChangedByAdminID, &a.PreviousRole, &a.NewRole, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

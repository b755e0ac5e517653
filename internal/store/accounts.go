package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciecnow/backend/internal/models"
)

// CreateUser inserts an identity record and its profile in one transaction.
func (s *Postgres) CreateUser(ctx context.Context, u *models.User, profile *models.UserProfile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const userQ = `INSERT INTO users (id, email, password_hash) VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, userQ, u.Email, u.Password).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapErr(err)
	}
	const profileQ = `INSERT INTO user_profiles (id, full_name, is_approved, role_id, invited)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	profile.ID = u.ID
	profile.Email = u.Email
	if err := tx.QueryRow(ctx, profileQ, u.ID, profile.FullName, profile.Approved, profile.RoleID, profile.Invited).
		Scan(&profile.CreatedAt); err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

// GetUserByEmail returns the identity record for an email.
func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// UpdatePassword replaces a user's password hash.
func (s *Postgres) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return affected(s.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, userID))
}

const profileSelect = `SELECT p.id, u.email, p.full_name, p.is_approved, p.role_id, COALESCE(r.name, ''), p.invited, p.created_at
	FROM user_profiles p
	INNER JOIN users u ON u.id = p.id
	LEFT JOIN roles r ON r.id = p.role_id`

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Approved, &p.RoleID, &p.RoleName, &p.Invited, &p.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// GetProfile returns the profile of a user.
func (s *Postgres) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return scanProfile(s.pool.QueryRow(ctx, profileSelect+` WHERE p.id = $1`, userID))
}

// ListProfiles returns every profile ordered by name.
func (s *Postgres) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := s.pool.Query(ctx, profileSelect+` ORDER BY p.full_name, u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// UpdateProfile writes the name, approval flag and role of a profile.
func (s *Postgres) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	const q = `UPDATE user_profiles SET full_name = $1, is_approved = $2, role_id = $3, invited = $4 WHERE id = $5`
	return affected(s.pool.Exec(ctx, q, p.FullName, p.Approved, p.RoleID, p.Invited, p.ID))
}

// ListRoles returns the role table.
func (s *Postgres) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

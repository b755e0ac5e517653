package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

const participantColumns = `id, name, organization_id, role, COALESCE(email,''), COALESCE(phone,''), created_at, updated_at`

// ListParticipants returns every participant ordered by name.
func (s *Postgres) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.OrganizationID, &p.Role, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CreateParticipant inserts a participant and fills its generated fields.
func (s *Postgres) CreateParticipant(ctx context.Context, p *models.Participant) error {
	const q = `INSERT INTO participants (id, name, organization_id, role, email, phone)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), NULLIF($5,''))
		RETURNING id, created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, p.Name, p.OrganizationID, p.Role, p.Email, p.Phone).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

// UpdateParticipant rewrites a participant row.
func (s *Postgres) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	const q = `UPDATE participants SET name = $1, organization_id = $2, role = $3, email = NULLIF($4,''), phone = NULLIF($5,''), updated_at = NOW()
		WHERE id = $6 RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, p.Name, p.OrganizationID, p.Role, p.Email, p.Phone, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

// DeleteParticipant removes a participant row. Join rows must already be gone.
func (s *Postgres) DeleteParticipant(ctx context.Context, id uuid.UUID) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id))
}

// ListOrganizations returns the affiliated companies list.
func (s *Postgres) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, COALESCE(rif,''), COALESCE(sector,'') FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.RIF, &o.Sector); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

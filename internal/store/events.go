package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// ListEvents returns every event row. Organizer kind and ids are resolved by the snapshot layer.
func (s *Postgres) ListEvents(ctx context.Context) ([]models.Event, error) {
	const q = `SELECT id, subject, date::text, to_char(start_time, 'HH24:MI'), COALESCE(to_char(end_time, 'HH24:MI'), ''),
		COALESCE(location,''), external_attendees, COALESCE(description,''), cost::float8, investment::float8, revenue::float8,
		cancelled, COALESCE(flyer_key,''), created_at, updated_at
		FROM events ORDER BY date, start_time`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Subject, &e.Date, &e.StartTime, &e.EndTime, &e.Location, &e.ExternalAttendees,
			&e.Description, &e.Cost, &e.Investment, &e.Revenue, &e.Cancelled, &e.FlyerKey, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// CreateEvent inserts an event row.
func (s *Postgres) CreateEvent(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, subject, date, start_time, end_time, location, external_attendees, description,
		cost, investment, revenue, cancelled, flyer_key)
		VALUES (gen_random_uuid(), $1, $2::date, $3::time, NULLIF($4,'')::time, NULLIF($5,''), $6, NULLIF($7,''),
		$8, $9, $10, $11, NULLIF($12,''))
		RETURNING id, created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, e.Subject, e.Date, e.StartTime, e.EndTime, e.Location, e.ExternalAttendees,
		e.Description, e.Cost, e.Investment, e.Revenue, e.Cancelled, e.FlyerKey).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapErr(err)
}

// UpdateEvent rewrites an event row. The flyer key is kept when e.FlyerKey is empty.
func (s *Postgres) UpdateEvent(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET subject = $1, date = $2::date, start_time = $3::time, end_time = NULLIF($4,'')::time,
		location = NULLIF($5,''), external_attendees = $6, description = NULLIF($7,''), cost = $8, investment = $9,
		revenue = $10, cancelled = $11, flyer_key = COALESCE(NULLIF($12,''), flyer_key), updated_at = NOW()
		WHERE id = $13 RETURNING COALESCE(flyer_key,''), created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, e.Subject, e.Date, e.StartTime, e.EndTime, e.Location, e.ExternalAttendees,
		e.Description, e.Cost, e.Investment, e.Revenue, e.Cancelled, e.FlyerKey, e.ID).Scan(&e.FlyerKey, &e.CreatedAt, &e.UpdatedAt)
	return mapErr(err)
}

// SetEventFlyer records the object key of an event's flyer image.
func (s *Postgres) SetEventFlyer(ctx context.Context, id uuid.UUID, key string) error {
	return affected(s.pool.Exec(ctx, `UPDATE events SET flyer_key = NULLIF($1,''), updated_at = NOW() WHERE id = $2`, key, id))
}

// DeleteEvent removes an event row.
func (s *Postgres) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id))
}

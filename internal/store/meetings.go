package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciecnow/backend/internal/models"
)

const meetingColumns = `id, subject, meeting_category_id, date::text, to_char(start_time, 'HH24:MI'),
	COALESCE(to_char(end_time, 'HH24:MI'), ''), COALESCE(location,''), external_attendees, COALESCE(description,''),
	cancelled, created_at, updated_at`

func scanMeetings(rows pgx.Rows) ([]models.Meeting, error) {
	defer rows.Close()
	var list []models.Meeting
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.Subject, &m.CategoryID, &m.Date, &m.StartTime, &m.EndTime, &m.Location,
			&m.ExternalAttendees, &m.Description, &m.Cancelled, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListMeetings returns every meeting ordered by date and start time.
func (s *Postgres) ListMeetings(ctx context.Context) ([]models.Meeting, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+meetingColumns+` FROM meetings ORDER BY date, start_time`)
	if err != nil {
		return nil, err
	}
	return scanMeetings(rows)
}

// ListMeetingsByCategory returns the meetings that reference a category.
func (s *Postgres) ListMeetingsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Meeting, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE meeting_category_id = $1 ORDER BY date, start_time`, categoryID)
	if err != nil {
		return nil, err
	}
	return scanMeetings(rows)
}

// CreateMeeting inserts a meeting.
func (s *Postgres) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	const q = `INSERT INTO meetings (id, subject, meeting_category_id, date, start_time, end_time, location, external_attendees, description, cancelled)
		VALUES (gen_random_uuid(), $1, $2, $3::date, $4::time, NULLIF($5,'')::time, NULLIF($6,''), $7, NULLIF($8,''), $9)
		RETURNING id, created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, m.Subject, m.CategoryID, m.Date, m.StartTime, m.EndTime, m.Location,
		m.ExternalAttendees, m.Description, m.Cancelled).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapErr(err)
}

// UpdateMeeting rewrites a meeting row.
func (s *Postgres) UpdateMeeting(ctx context.Context, m *models.Meeting) error {
	const q = `UPDATE meetings SET subject = $1, meeting_category_id = $2, date = $3::date, start_time = $4::time,
		end_time = NULLIF($5,'')::time, location = NULLIF($6,''), external_attendees = $7, description = NULLIF($8,''),
		cancelled = $9, updated_at = NOW()
		WHERE id = $10 RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, m.Subject, m.CategoryID, m.Date, m.StartTime, m.EndTime, m.Location,
		m.ExternalAttendees, m.Description, m.Cancelled, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
	return mapErr(err)
}

// DeleteMeeting removes a meeting row.
func (s *Postgres) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id))
}

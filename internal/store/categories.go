package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

func categoryTable(kind models.CategoryKind) (string, error) {
	switch kind {
	case models.CategoryKindMeeting:
		return "meeting_categories", nil
	case models.CategoryKindEvent:
		return "event_categories", nil
	}
	return "", fmt.Errorf("unknown category kind %q", kind)
}

// ListCategories returns every category of a kind ordered by name.
func (s *Postgres) ListCategories(ctx context.Context, kind models.CategoryKind) ([]models.Category, error) {
	table, err := categoryTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Category
	for rows.Next() {
		c := models.Category{Kind: kind}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CreateCategory inserts a category into the table of its kind.
func (s *Postgres) CreateCategory(ctx context.Context, c *models.Category) error {
	table, err := categoryTable(c.Kind)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx, `INSERT INTO `+table+` (id, name) VALUES (gen_random_uuid(), $1) RETURNING id, created_at`, c.Name).
		Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

// UpdateCategory renames a category.
func (s *Postgres) UpdateCategory(ctx context.Context, c *models.Category) error {
	table, err := categoryTable(c.Kind)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx, `UPDATE `+table+` SET name = $1 WHERE id = $2 RETURNING created_at`, c.Name, c.ID).
		Scan(&c.CreatedAt)
	return mapErr(err)
}

// DeleteCategory removes a category row.
func (s *Postgres) DeleteCategory(ctx context.Context, kind models.CategoryKind, id uuid.UUID) error {
	table, err := categoryTable(kind)
	if err != nil {
		return err
	}
	return affected(s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id))
}

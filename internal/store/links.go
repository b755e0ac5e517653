package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciecnow/backend/internal/models"
)

func checkTable(table models.LinkTable) error {
	for _, t := range models.LinkTables {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("unknown join table %q", table.Name)
}

// ListLinks reads a whole join table.
func (s *Postgres) ListLinks(ctx context.Context, table models.LinkTable) ([]models.Link, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	cols := table.OwnerColumn + ", " + table.TargetColumn
	if table.HasMode {
		cols += ", mode"
	}
	rows, err := s.pool.Query(ctx, `SELECT `+cols+` FROM `+table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Link
	for rows.Next() {
		var l models.Link
		dest := []any{&l.OwnerID, &l.TargetID}
		if table.HasMode {
			dest = append(dest, &l.Mode)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// InsertLinks bulk-inserts join rows with COPY.
func (s *Postgres) InsertLinks(ctx context.Context, table models.LinkTable, links []models.Link) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	cols := []string{table.OwnerColumn, table.TargetColumn}
	if table.HasMode {
		cols = append(cols, "mode")
	}
	rows := make([][]any, 0, len(links))
	for _, l := range links {
		row := []any{l.OwnerID, l.TargetID}
		if table.HasMode {
			row = append(row, string(l.Mode))
		}
		rows = append(rows, row)
	}
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{table.Name}, cols, pgx.CopyFromRows(rows))
	return mapErr(err)
}

// DeleteLinks removes every join row whose owner or target column equals id.
func (s *Postgres) DeleteLinks(ctx context.Context, table models.LinkTable, side models.LinkSide, id uuid.UUID) error {
	if err := checkTable(table); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM `+table.Name+` WHERE `+table.Column(side)+` = $1`, id)
	return err
}

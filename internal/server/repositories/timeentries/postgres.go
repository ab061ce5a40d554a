// Package timeentries provides the PostgreSQL-backed time entry store of the
// remote authority.
package timeentries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
	"github.com/dmitrijs2005/expensehub/internal/server/models"
)

const timeEntryColumns = `id, owner_id, date, hours, description, project, is_deleted, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND id = $2 AND NOT is_deleted`

	item, err := scanTimeEntry(r.db.QueryRowContext(ctx, query, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select time entry: %w", err)
	}
	return item, nil
}

// List returns the live entries of ownerID ordered by date, newest first.
func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND NOT is_deleted
		ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select time entries: %w", err)
	}
	defer rows.Close()

	result := []*models.TimeEntry{}
	for rows.Next() {
		item, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.TimeEntry) error {
	query := `INSERT INTO time_entries (` + timeEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Date, e.Hours, e.Description, e.Project, e.IsDeleted, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.TimeEntry) error {
	query := `UPDATE time_entries SET
			date = $3, hours = $4, description = $5, project = $6, updated_at = $7
		WHERE owner_id = $1 AND id = $2 AND NOT is_deleted`

	res, err := r.db.ExecContext(ctx, query,
		e.OwnerID, e.ID, e.Date, e.Hours, e.Description, e.Project, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, ownerID, id string) error {
	query := `UPDATE time_entries SET is_deleted = TRUE, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2 AND NOT is_deleted`

	res, err := r.db.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTimeEntry(s scanner) (*models.TimeEntry, error) {
	var item models.TimeEntry
	if err := s.Scan(
		&item.ID, &item.OwnerID, &item.Date, &item.Hours, &item.Description, &item.Project,
		&item.IsDeleted, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Date = item.Date.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

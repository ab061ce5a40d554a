package timeentries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
)

const columns = `id, owner_id, date, hours, description, project, sync_status, deleted, created_at, updated_at`

const upsert = `INSERT INTO time_entries (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		owner_id = excluded.owner_id,
		date = excluded.date,
		hours = excluded.hours,
		description = excluded.description,
		project = excluded.project,
		sync_status = excluded.sync_status,
		deleted = excluded.deleted,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at`

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.TimeEntry, error) {
	var (
		e          models.TimeEntry
		date       int64
		syncStatus string
		createdAt  int64
		updatedAt  int64
	)
	err := s.Scan(&e.ID, &e.OwnerID, &date, &e.Hours, &e.Description, &e.Project,
		&syncStatus, &e.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.Date = dbx.FromUnixNano(date)
	e.SyncStatus = models.SyncStatus(syncStatus)
	e.CreatedAt = dbx.FromUnixNano(createdAt)
	e.UpdatedAt = dbx.FromUnixNano(updatedAt)
	return &e, nil
}

func args(e *models.TimeEntry) []any {
	return []any{
		e.ID, e.OwnerID, dbx.ToUnixNano(e.Date), e.Hours, e.Description, e.Project,
		string(e.SyncStatus), e.IsDeleted, dbx.ToUnixNano(e.CreatedAt), dbx.ToUnixNano(e.UpdatedAt),
	}
}

func get(ctx context.Context, db dbx.DBTX, id string) (*models.TimeEntry, error) {
	e, err := scanEntry(db.QueryRowContext(ctx, `SELECT `+columns+` FROM time_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry %s: %w", id, err)
	}
	return e, nil
}

func put(ctx context.Context, db dbx.DBTX, e *models.TimeEntry) error {
	if _, err := db.ExecContext(ctx, upsert, args(e)...); err != nil {
		return fmt.Errorf("failed to upsert time entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, params ...any) ([]*models.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to select time entries: %w", err)
	}
	defer rows.Close()

	var result []*models.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time entries: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.TimeEntry, error) {
	return get(ctx, r.db, id)
}

func (r *SQLiteRepository) GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]*models.TimeEntry, error) {
	query := `SELECT ` + columns + ` FROM time_entries WHERE owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY date DESC, created_at DESC, id`
	return r.query(ctx, query, ownerID)
}

func (r *SQLiteRepository) Put(ctx context.Context, e *models.TimeEntry) error {
	return put(ctx, r.db, e)
}

func (r *SQLiteRepository) PutMany(ctx context.Context, es []*models.TimeEntry) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, e := range es {
			if err := put(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_entries SET deleted = 1, sync_status = ?, updated_at = ? WHERE id = ?`,
		string(models.SyncStatusPending), dbx.ToUnixNano(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete time entry %s: %w", id, err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) ReplaceID(ctx context.Context, localID, serverID string) error {
	if localID == serverID {
		return r.SetStatus(ctx, localID, models.SyncStatusSynced)
	}
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		e, err := get(ctx, tx, localID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, localID); err != nil {
			return fmt.Errorf("failed to delete time entry %s: %w", localID, err)
		}
		e.ID = serverID
		e.SyncStatus = models.SyncStatusSynced
		return put(ctx, tx, e)
	})
}

func (r *SQLiteRepository) ListPendingSync(ctx context.Context, ownerID string) ([]*models.TimeEntry, error) {
	return r.ListByStatus(ctx, ownerID, models.SyncStatusPending)
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]*models.TimeEntry, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM time_entries WHERE owner_id = ? AND sync_status = ? ORDER BY updated_at, id`,
		ownerID, string(status))
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_entries SET sync_status = ? WHERE id = ? AND updated_at = ?`,
		string(models.SyncStatusSynced), id, dbx.ToUnixNano(seenUpdatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to mark time entry %s synced: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, status models.SyncStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE time_entries SET sync_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set time entry %s status: %w", id, err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to purge time entry %s: %w", id, err)
	}
	return nil
}

// MergeServer applies a snapshot only where the local row is absent or synced.
func (r *SQLiteRepository) MergeServer(ctx context.Context, es []*models.TimeEntry) (int, error) {
	query := upsert + ` WHERE time_entries.sync_status = 'synced'`

	applied := 0
	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, e := range es {
			snapshot := *e
			snapshot.SyncStatus = models.SyncStatusSynced
			res, err := tx.ExecContext(ctx, query, args(&snapshot)...)
			if err != nil {
				return fmt.Errorf("failed to merge time entry %s: %w", e.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			applied += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

func (r *SQLiteRepository) PruneSynced(ctx context.Context, ownerID string, keep map[string]struct{}) (int, error) {
	pruned := 0
	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM time_entries WHERE owner_id = ? AND sync_status = ?`,
			ownerID, string(models.SyncStatusSynced))
		if err != nil {
			return fmt.Errorf("failed to select synced time entries: %w", err)
		}
		var stale []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan time entry id: %w", err)
			}
			if _, ok := keep[id]; !ok {
				stale = append(stale, id)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("failed to iterate time entry ids: %w", err)
		}

		// an edit committed since the select is no longer synced and stays
		for _, id := range stale {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM time_entries WHERE id = ? AND sync_status = ?`,
				id, string(models.SyncStatusSynced))
			if err != nil {
				return fmt.Errorf("failed to prune time entry %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to prune time entry %s: %w", id, err)
			}
			pruned += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

package syncqueue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
)

const columns = `id, entity_type, entity_id, operation, payload, attempts, last_error, created_at, last_attempt_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, item *models.QueueItem) (int64, error) {
	var payload any
	if len(item.Payload) > 0 {
		payload = []byte(item.Payload)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_queue (entity_type, entity_id, operation, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(item.EntityType), item.EntityID, string(item.Operation), payload, dbx.ToUnixNano(item.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to append %s %s to sync queue: %w", item.EntityType, item.EntityID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue item id: %w", err)
	}
	item.ID = id
	return id, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, params ...any) ([]*models.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync queue: %w", err)
	}
	defer rows.Close()

	var result []*models.QueueItem
	for rows.Next() {
		var (
			item          models.QueueItem
			entityType    string
			operation     string
			payload       []byte
			createdAt     int64
			lastAttemptAt sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &entityType, &item.EntityID, &operation, &payload,
			&item.Attempts, &item.LastError, &createdAt, &lastAttemptAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync queue item: %w", err)
		}
		item.EntityType = models.EntityType(entityType)
		item.Operation = api.Operation(operation)
		if len(payload) > 0 {
			item.Payload = payload
		}
		item.CreatedAt = dbx.FromUnixNano(createdAt)
		item.LastAttemptAt = dbx.FromNullUnixNano(lastAttemptAt)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync queue: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.QueueItem, error) {
	return r.query(ctx, `SELECT `+columns+` FROM sync_queue ORDER BY id`)
}

func (r *SQLiteRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string) ([]*models.QueueItem, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM sync_queue WHERE entity_type = ? AND entity_id = ? ORDER BY id`,
		string(entityType), entityID)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) RemoveByEntity(ctx context.Context, entityType models.EntityType, entityID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE entity_type = ? AND entity_id = ?`, string(entityType), entityID)
	if err != nil {
		return fmt.Errorf("failed to remove %s %s from sync queue: %w", entityType, entityID, err)
	}
	return nil
}

func (r *SQLiteRepository) RecordAttempt(ctx context.Context, entityType models.EntityType, entityID string, lastError string, at time.Time) (int, error) {
	attempts := 0
	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE sync_queue SET attempts = attempts + 1, last_error = ?, last_attempt_at = ?
			WHERE entity_type = ? AND entity_id = ?`,
			lastError, dbx.ToUnixNano(at), string(entityType), entityID)
		if err != nil {
			return fmt.Errorf("failed to record attempt for %s %s: %w", entityType, entityID, err)
		}
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(attempts), 0) FROM sync_queue WHERE entity_type = ? AND entity_id = ?`,
			string(entityType), entityID).Scan(&attempts)
		if err != nil {
			return fmt.Errorf("failed to read attempts for %s %s: %w", entityType, entityID, err)
		}
		return nil
	})
	return attempts, err
}

func (r *SQLiteRepository) ResetAttempts(ctx context.Context, entityType models.EntityType, entityID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET attempts = 0, last_error = '' WHERE entity_type = ? AND entity_id = ?`,
		string(entityType), entityID)
	if err != nil {
		return fmt.Errorf("failed to reset attempts for %s %s: %w", entityType, entityID, err)
	}
	return nil
}

package receipts

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

const columns = `id, owner_id, blob_url, local_image, merchant_name, transaction_date, total_amount,
	currency, category, description, ocr_status, sync_status, deleted, created_at, updated_at`

// SQLiteRepository implements Repository over a dbx.DBTX (either *sql.DB or *sql.Tx).
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

func scanReceipt(s scanner) (*models.Receipt, error) {
	var (
		rec             models.Receipt
		transactionDate sql.NullInt64
		totalAmount     sql.NullFloat64
		syncStatus      string
		ocrStatus       string
		createdAt       int64
		updatedAt       int64
	)
	err := s.Scan(&rec.ID, &rec.OwnerID, &rec.BlobURL, &rec.LocalImage, &rec.MerchantName,
		&transactionDate, &totalAmount, &rec.Currency, &rec.Category, &rec.Description,
		&ocrStatus, &syncStatus, &rec.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if len(rec.LocalImage) == 0 {
		rec.LocalImage = nil
	}
	rec.TransactionDate = dbx.FromNullUnixNano(transactionDate)
	if totalAmount.Valid {
		a := totalAmount.Float64
		rec.TotalAmount = &a
	}
	rec.OcrStatus = models.OcrStatus(ocrStatus)
	rec.SyncStatus = models.SyncStatus(syncStatus)
	rec.CreatedAt = dbx.FromUnixNano(createdAt)
	rec.UpdatedAt = dbx.FromUnixNano(updatedAt)
	return &rec, nil
}

func args(rec *models.Receipt) []any {
	var totalAmount sql.NullFloat64
	if rec.TotalAmount != nil {
		totalAmount = sql.NullFloat64{Float64: *rec.TotalAmount, Valid: true}
	}
	var image any
	if len(rec.LocalImage) > 0 {
		image = rec.LocalImage
	}
	return []any{
		rec.ID, rec.OwnerID, rec.BlobURL, image, rec.MerchantName,
		dbx.NullUnixNano(rec.TransactionDate), totalAmount, rec.Currency, rec.Category, rec.Description,
		string(rec.OcrStatus), string(rec.SyncStatus), rec.IsDeleted,
		dbx.ToUnixNano(rec.CreatedAt), dbx.ToUnixNano(rec.UpdatedAt),
	}
}

func get(ctx context.Context, db dbx.DBTX, id string) (*models.Receipt, error) {
	row := db.QueryRowContext(ctx, `SELECT `+columns+` FROM receipts WHERE id = ?`, id)
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", id, err)
	}
	return rec, nil
}

func put(ctx context.Context, db dbx.DBTX, rec *models.Receipt) error {
	query := `INSERT INTO receipts (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			blob_url = excluded.blob_url,
			local_image = excluded.local_image,
			merchant_name = excluded.merchant_name,
			transaction_date = excluded.transaction_date,
			total_amount = excluded.total_amount,
			currency = excluded.currency,
			category = excluded.category,
			description = excluded.description,
			ocr_status = excluded.ocr_status,
			sync_status = excluded.sync_status,
			deleted = excluded.deleted,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, args(rec)...); err != nil {
		return fmt.Errorf("failed to upsert receipt %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, params ...any) ([]*models.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to select receipts: %w", err)
	}
	defer rows.Close()

	var result []*models.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Receipt, error) {
	return get(ctx, r.db, id)
}

func (r *SQLiteRepository) GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]*models.Receipt, error) {
	query := `SELECT ` + columns + ` FROM receipts WHERE owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY created_at DESC, id`
	return r.query(ctx, query, ownerID)
}

func (r *SQLiteRepository) Put(ctx context.Context, rec *models.Receipt) error {
	return put(ctx, r.db, rec)
}

// PutMany writes all receipts in a single transaction.
func (r *SQLiteRepository) PutMany(ctx context.Context, rs []*models.Receipt) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range rs {
			if err := put(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET deleted = 1, sync_status = ?, updated_at = ? WHERE id = ?`,
		string(models.SyncStatusPending), dbx.ToUnixNano(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete receipt %s: %w", id, err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) ReplaceID(ctx context.Context, localID, serverID string) error {
	if localID == serverID {
		return r.SetStatus(ctx, localID, models.SyncStatusSynced)
	}
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := get(ctx, tx, localID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, localID); err != nil {
			return fmt.Errorf("failed to delete receipt %s: %w", localID, err)
		}
		rec.ID = serverID
		rec.SyncStatus = models.SyncStatusSynced
		return put(ctx, tx, rec)
	})
}

func (r *SQLiteRepository) ListPendingSync(ctx context.Context, ownerID string) ([]*models.Receipt, error) {
	return r.ListByStatus(ctx, ownerID, models.SyncStatusPending)
}

// ListByStatus returns tombstones too, oldest change first.
func (r *SQLiteRepository) ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]*models.Receipt, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM receipts WHERE owner_id = ? AND sync_status = ? ORDER BY updated_at, id`,
		ownerID, string(status))
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET sync_status = ? WHERE id = ? AND updated_at = ?`,
		string(models.SyncStatusSynced), id, dbx.ToUnixNano(seenUpdatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to mark receipt %s synced: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, status models.SyncStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE receipts SET sync_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set receipt %s status: %w", id, err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to purge receipt %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) AttachBlob(ctx context.Context, id, blobURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET blob_url = ?, local_image = NULL WHERE id = ?`, blobURL, id)
	if err != nil {
		return fmt.Errorf("failed to attach blob to receipt %s: %w", id, err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) MergeServer(ctx context.Context, rs []*models.Receipt) (int, error) {
	query := `INSERT INTO receipts (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			blob_url = excluded.blob_url,
			merchant_name = excluded.merchant_name,
			transaction_date = excluded.transaction_date,
			total_amount = excluded.total_amount,
			currency = excluded.currency,
			category = excluded.category,
			description = excluded.description,
			ocr_status = excluded.ocr_status,
			deleted = excluded.deleted,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
		WHERE receipts.sync_status = 'synced'`

	applied := 0
	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range rs {
			snapshot := *rec
			snapshot.LocalImage = nil
			snapshot.SyncStatus = models.SyncStatusSynced
			res, err := tx.ExecContext(ctx, query, args(&snapshot)...)
			if err != nil {
				return fmt.Errorf("failed to merge receipt %s: %w", rec.ID, err)
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
			`SELECT id FROM receipts WHERE owner_id = ? AND sync_status = ?`,
			ownerID, string(models.SyncStatusSynced))
		if err != nil {
			return fmt.Errorf("failed to select synced receipts: %w", err)
		}
		var stale []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan receipt id: %w", err)
			}
			if _, ok := keep[id]; !ok {
				stale = append(stale, id)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate receipt ids: %w", err)
		}
		rows.Close()

		// an edit committed since the select is no longer synced and stays
		for _, id := range stale {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM receipts WHERE id = ? AND sync_status = ?`,
				id, string(models.SyncStatusSynced))
			if err != nil {
				return fmt.Errorf("failed to prune receipt %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to prune receipt %s: %w", id, err)
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

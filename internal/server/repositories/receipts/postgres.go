// Package receipts provides the PostgreSQL-backed receipt store of the
// remote authority.
package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
	"github.com/dmitrijs2005/expensehub/internal/server/models"
)

const receiptColumns = `id, owner_id, blob_url, merchant_name, transaction_date, total_amount,
	currency, category, description, ocr_status, is_deleted, created_at, updated_at`

// PostgresRepository implements receipt storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns a live receipt of ownerID. Deleted or foreign rows yield
// common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts
		WHERE owner_id = $1 AND id = $2 AND NOT is_deleted`

	item, err := scanReceipt(r.db.QueryRowContext(ctx, query, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select receipt: %w", err)
	}
	return item, nil
}

// List returns the live receipts of ownerID, newest first.
func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts
		WHERE owner_id = $1 AND NOT is_deleted
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select receipts: %w", err)
	}
	defer rows.Close()

	result := []*models.Receipt{}
	for rows.Next() {
		item, err := scanReceipt(rows)
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

func (r *PostgresRepository) Insert(ctx context.Context, item *models.Receipt) error {
	query := `INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.BlobURL, item.MerchantName, nullTime(item.TransactionDate),
		nullFloat(item.TotalAmount), item.Currency, item.Category, item.Description, item.OcrStatus,
		item.IsDeleted, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a live receipt.
func (r *PostgresRepository) Update(ctx context.Context, item *models.Receipt) error {
	query := `UPDATE receipts SET
			blob_url = $3, merchant_name = $4, transaction_date = $5, total_amount = $6,
			currency = $7, category = $8, description = $9, ocr_status = $10, updated_at = $11
		WHERE owner_id = $1 AND id = $2 AND NOT is_deleted`

	res, err := r.db.ExecContext(ctx, query,
		item.OwnerID, item.ID, item.BlobURL, item.MerchantName, nullTime(item.TransactionDate),
		nullFloat(item.TotalAmount), item.Currency, item.Category, item.Description, item.OcrStatus,
		item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

// SoftDelete flags a receipt as deleted. Deleting a missing or already
// deleted receipt returns common.ErrorNotFound.
func (r *PostgresRepository) SoftDelete(ctx context.Context, ownerID, id string) error {
	query := `UPDATE receipts SET is_deleted = TRUE, updated_at = NOW()
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

func scanReceipt(s scanner) (*models.Receipt, error) {
	var (
		item   models.Receipt
		date   sql.NullTime
		amount sql.NullFloat64
	)
	if err := s.Scan(
		&item.ID, &item.OwnerID, &item.BlobURL, &item.MerchantName, &date, &amount,
		&item.Currency, &item.Category, &item.Description, &item.OcrStatus, &item.IsDeleted,
		&item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.Time.UTC()
		item.TransactionDate = &d
	}
	if amount.Valid {
		item.TotalAmount = &amount.Float64
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

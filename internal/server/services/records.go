// Package services implements the business logic of the remote authority:
// record CRUD, batch sync and blob upload URLs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
	"github.com/dmitrijs2005/expensehub/internal/server/models"
	"github.com/dmitrijs2005/expensehub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var (
	ErrReceiptNotFound   = fmt.Errorf("receipt %w", common.ErrorNotFound)
	ErrTimeEntryNotFound = fmt.Errorf("time entry %w", common.ErrorNotFound)
)

// RecordService owns receipts and time entries. Every call is scoped to an
// owner; records of other owners behave as missing.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	newID       func() string
}

func NewRecordService(db *sql.DB, repomanager repomanager.RepositoryManager) *RecordService {
	return &RecordService{
		db:          db,
		repomanager: repomanager,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
	}
}

func (s *RecordService) ListReceipts(ctx context.Context, ownerID string) ([]api.Receipt, error) {
	items, err := s.repomanager.Receipts(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := make([]api.Receipt, 0, len(items))
	for _, r := range items {
		result = append(result, r.ToAPI())
	}
	return result, nil
}

func (s *RecordService) GetReceipt(ctx context.Context, ownerID, id string) (*api.Receipt, error) {
	r, err := s.repomanager.Receipts(s.db).Get(ctx, ownerID, id)
	if err != nil {
		return nil, receiptErr(err)
	}
	out := r.ToAPI()
	return &out, nil
}

// CreateReceipt stores a new receipt under a fresh id. A receipt with an
// image starts with a pending OCR status.
func (s *RecordService) CreateReceipt(ctx context.Context, ownerID string, p api.ReceiptPayload) (*api.Receipt, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	now := s.now()
	r := &models.Receipt{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Currency:  models.DefaultCurrency,
		OcrStatus: models.OcrStatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Apply(p)
	if r.Currency == "" {
		r.Currency = models.DefaultCurrency
	}
	if r.BlobURL != "" {
		r.OcrStatus = models.OcrStatusPending
	}

	if err := s.repomanager.Receipts(s.db).Insert(ctx, r); err != nil {
		return nil, err
	}
	out := r.ToAPI()
	return &out, nil
}

// UpdateReceipt applies the fields set in p to an existing receipt.
func (s *RecordService) UpdateReceipt(ctx context.Context, ownerID, id string, p api.ReceiptPayload) (*api.Receipt, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	var out api.Receipt
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Receipts(tx)

		r, err := repo.Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		r.Apply(p)
		r.UpdatedAt = s.now()

		if err := repo.Update(ctx, r); err != nil {
			return err
		}
		out = r.ToAPI()
		return nil
	})
	if err != nil {
		return nil, receiptErr(err)
	}
	return &out, nil
}

func (s *RecordService) DeleteReceipt(ctx context.Context, ownerID, id string) error {
	return receiptErr(s.repomanager.Receipts(s.db).SoftDelete(ctx, ownerID, id))
}

func (s *RecordService) ListTimeEntries(ctx context.Context, ownerID string) ([]api.TimeEntry, error) {
	items, err := s.repomanager.TimeEntries(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := make([]api.TimeEntry, 0, len(items))
	for _, e := range items {
		result = append(result, e.ToAPI())
	}
	return result, nil
}

func (s *RecordService) GetTimeEntry(ctx context.Context, ownerID, id string) (*api.TimeEntry, error) {
	e, err := s.repomanager.TimeEntries(s.db).Get(ctx, ownerID, id)
	if err != nil {
		return nil, timeEntryErr(err)
	}
	out := e.ToAPI()
	return &out, nil
}

// CreateTimeEntry stores a new time entry. Date and hours are required.
func (s *RecordService) CreateTimeEntry(ctx context.Context, ownerID string, p api.TimeEntryPayload) (*api.TimeEntry, error) {
	if p.Date == nil || p.Hours == nil {
		return nil, fmt.Errorf("%w: date and hours are required", common.ErrorValidation)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}

	now := s.now()
	e := &models.TimeEntry{
		ID:        s.newID(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.Apply(p)

	if err := s.repomanager.TimeEntries(s.db).Insert(ctx, e); err != nil {
		return nil, err
	}
	out := e.ToAPI()
	return &out, nil
}

func (s *RecordService) UpdateTimeEntry(ctx context.Context, ownerID, id string, p api.TimeEntryPayload) (*api.TimeEntry, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	var out api.TimeEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.TimeEntries(tx)

		e, err := repo.Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		e.Apply(p)
		e.UpdatedAt = s.now()

		if err := repo.Update(ctx, e); err != nil {
			return err
		}
		out = e.ToAPI()
		return nil
	})
	if err != nil {
		return nil, timeEntryErr(err)
	}
	return &out, nil
}

func (s *RecordService) DeleteTimeEntry(ctx context.Context, ownerID, id string) error {
	return timeEntryErr(s.repomanager.TimeEntries(s.db).SoftDelete(ctx, ownerID, id))
}

func receiptErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrReceiptNotFound
	}
	return err
}

func timeEntryErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrTimeEntryNotFound
	}
	return err
}

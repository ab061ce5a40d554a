package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/receipts"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/logging"
)

// ReceiptService is the local-first facade over receipts.
//
// Writes always land in the local store as pending_sync first; when online
// the service additionally pushes the single record right away. Reads are
// always served from the local store.
type ReceiptService interface {
	// Load syncs when online and returns the owner's live receipts, newest first.
	Load(ctx context.Context, ownerID string) ([]*models.Receipt, error)
	Create(ctx context.Context, in models.ReceiptCreate) (*models.Receipt, error)
	// Update returns common.ErrorNotFound for unknown or deleted receipts.
	Update(ctx context.Context, id string, u models.ReceiptUpdate) (*models.Receipt, error)
	// Delete reports false when there was nothing to delete.
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Receipt, error)
}

type receiptService struct {
	deps
	repo receipts.Repository
}

func NewReceiptService(c client.Client, repo receipts.Repository, queue syncqueue.Repository, s Syncer, m Connectivity, log logging.Logger) ReceiptService {
	return &receiptService{deps: newDeps(c, queue, s, m, log), repo: repo}
}

func (s *receiptService) Load(ctx context.Context, ownerID string) ([]*models.Receipt, error) {
	s.refresh(ctx)
	return s.repo.GetAll(ctx, ownerID, false)
}

func (s *receiptService) Create(ctx context.Context, in models.ReceiptCreate) (*models.Receipt, error) {
	if in.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", common.ErrorValidation)
	}
	if in.TotalAmount != nil && *in.TotalAmount < 0 {
		return nil, fmt.Errorf("%w: total amount must not be negative", common.ErrorValidation)
	}

	rec := models.NewReceipt(in, s.now())
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	if err := s.enqueue(ctx, models.EntityTypeReceipt, rec.ID, api.OperationCreate, rec.Payload()); err != nil {
		return nil, err
	}

	id := rec.ID
	if s.monitor.IsOnline() {
		serverID, err := s.pushCreate(ctx, rec.ID)
		if err != nil {
			s.pushFailed(ctx, "create receipt", rec.ID, err)
		} else if serverID != "" {
			id = serverID
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *receiptService) Update(ctx context.Context, id string, u models.ReceiptUpdate) (*models.Receipt, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsDeleted {
		return nil, common.ErrorNotFound
	}
	if u.TotalAmount != nil && *u.TotalAmount < 0 {
		return nil, fmt.Errorf("%w: total amount must not be negative", common.ErrorValidation)
	}

	u.ApplyTo(rec)
	rec.SyncStatus = models.SyncStatusPending
	rec.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	op := models.InferOperation(rec)
	if err := s.enqueue(ctx, models.EntityTypeReceipt, rec.ID, op, u.Payload()); err != nil {
		return nil, err
	}

	if s.monitor.IsOnline() {
		if op == api.OperationCreate {
			serverID, err := s.pushCreate(ctx, rec.ID)
			if err != nil {
				s.pushFailed(ctx, "create receipt", rec.ID, err)
			} else if serverID != "" {
				id = serverID
			}
		} else if err := s.pushUpdate(ctx, rec.ID); err != nil {
			s.pushFailed(ctx, "update receipt", rec.ID, err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *receiptService) Delete(ctx context.Context, id string) (bool, error) {
	rec, err := s.repo.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.IsDeleted {
		return false, nil
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return false, err
	}
	if err := s.enqueue(ctx, models.EntityTypeReceipt, id, api.OperationDelete, nil); err != nil {
		return false, err
	}

	if s.monitor.IsOnline() {
		if err := s.pushDelete(ctx, id); err != nil {
			s.pushFailed(ctx, "delete receipt", id, err)
		}
	}
	return true, nil
}

func (s *receiptService) GetByID(ctx context.Context, id string) (*models.Receipt, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

// pushCreate sends a still-local receipt to the server and remaps it. It
// returns the server id, or "" when the receipt was already handled.
func (s *receiptService) pushCreate(ctx context.Context, localID string) (string, error) {
	var serverID string
	err := s.syncer.Exclusive(ctx, func(ctx context.Context) error {
		rec, err := s.repo.Get(ctx, localID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.IsDeleted || rec.SyncStatus != models.SyncStatusPending || !models.IsLocalID(rec.ID) {
			return nil
		}

		if len(rec.LocalImage) > 0 && rec.BlobURL == "" {
			blobURL, err := client.UploadReceiptImage(ctx, s.client, rec.LocalImage, s.now())
			if err != nil {
				return err
			}
			if err := s.repo.AttachBlob(ctx, rec.ID, blobURL); err != nil {
				return err
			}
			rec.BlobURL = blobURL
		}

		out, err := s.client.CreateReceipt(ctx, rec.Payload())
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceID(ctx, rec.ID, out.ID); err != nil {
			return err
		}
		if err := s.queue.RemoveByEntity(ctx, models.EntityTypeReceipt, rec.ID); err != nil {
			return err
		}
		serverID = out.ID

		// An edit that landed while the request was in flight stays pending.
		cur, err := s.repo.Get(ctx, out.ID)
		if err != nil {
			return err
		}
		if !cur.UpdatedAt.Equal(rec.UpdatedAt) {
			return s.repo.SetStatus(ctx, out.ID, models.SyncStatusPending)
		}

		snapshot := models.ReceiptFromAPI(*out)
		snapshot.OwnerID = rec.OwnerID
		_, err = s.repo.MergeServer(ctx, []*models.Receipt{snapshot})
		return err
	})
	return serverID, err
}

func (s *receiptService) pushUpdate(ctx context.Context, id string) error {
	return s.syncer.Exclusive(ctx, func(ctx context.Context) error {
		rec, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec.IsDeleted || rec.SyncStatus != models.SyncStatusPending {
			return nil
		}

		out, err := s.client.UpdateReceipt(ctx, id, rec.Payload())
		if err != nil {
			return err
		}
		synced, err := s.repo.MarkSynced(ctx, id, rec.UpdatedAt)
		if err != nil || !synced {
			return err
		}
		if err := s.queue.RemoveByEntity(ctx, models.EntityTypeReceipt, id); err != nil {
			return err
		}

		snapshot := models.ReceiptFromAPI(*out)
		snapshot.OwnerID = rec.OwnerID
		_, err = s.repo.MergeServer(ctx, []*models.Receipt{snapshot})
		return err
	})
}

// pushDelete forgets a local-only tombstone or deletes it remotely first.
// Any remote failure, not-found included, leaves the tombstone pending.
func (s *receiptService) pushDelete(ctx context.Context, id string) error {
	return s.syncer.Exclusive(ctx, func(ctx context.Context) error {
		rec, err := s.repo.Get(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !rec.IsDeleted || rec.SyncStatus != models.SyncStatusPending {
			return nil
		}

		if !models.IsLocalID(id) {
			// A not-found answer keeps the tombstone pending for inspection.
			if err := s.client.DeleteReceipt(ctx, id); err != nil {
				return err
			}
		}
		if err := s.repo.Purge(ctx, id); err != nil {
			return err
		}
		return s.queue.RemoveByEntity(ctx, models.EntityTypeReceipt, id)
	})
}

package receipts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
)

// Repository is the Local Record Store for receipts.
type Repository interface {
	// Get returns the receipt with the given id, tombstones included.
	// A missing row yields common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Receipt, error)

	// GetAll lists the owner's receipts, newest first.
	GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]*models.Receipt, error)

	// Put inserts or fully overwrites a receipt.
	Put(ctx context.Context, r *models.Receipt) error
	PutMany(ctx context.Context, rs []*models.Receipt) error

	// SoftDelete marks a receipt deleted and pending_sync and bumps UpdatedAt.
	SoftDelete(ctx context.Context, id string) error

	// ReplaceID moves the row stored under localID to serverID and marks it
	// synced in one transaction. It is a no-op when localID is absent.
	ReplaceID(ctx context.Context, localID, serverID string) error

	ListPendingSync(ctx context.Context, ownerID string) ([]*models.Receipt, error)
	ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]*models.Receipt, error)

	// MarkSynced marks the row synced only if its UpdatedAt still equals
	// seenUpdatedAt, i.e. nobody edited it after the caller's snapshot.
	MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error)
	SetStatus(ctx context.Context, id string, status models.SyncStatus) error
	Purge(ctx context.Context, id string) error

	// AttachBlob records the uploaded image location and drops the local copy.
	AttachBlob(ctx context.Context, id, blobURL string) error

	// MergeServer upserts server snapshots, skipping rows that hold local
	// changes. It reports how many snapshots were applied.
	MergeServer(ctx context.Context, rs []*models.Receipt) (int, error)
	// PruneSynced purges the owner's synced rows whose id is not in keep.
	PruneSynced(ctx context.Context, ownerID string, keep map[string]struct{}) (int, error)
}

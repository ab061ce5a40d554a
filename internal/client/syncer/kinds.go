package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
)

// recordStore is the part of a Local Record Store the orchestrator drives.
// receipts.Repository and timeentries.Repository both satisfy it.
type recordStore[T models.Record] interface {
	Get(ctx context.Context, id string) (T, error)
	ListPendingSync(ctx context.Context, ownerID string) ([]T, error)
	ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]T, error)
	ReplaceID(ctx context.Context, localID, serverID string) error
	MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error)
	SetStatus(ctx context.Context, id string, status models.SyncStatus) error
	Purge(ctx context.Context, id string) error
}

// entityKind erases the record type so one batch can mix both kinds.
type entityKind interface {
	Type() models.EntityType
	Get(ctx context.Context, id string) (models.Record, error)
	ListPendingSync(ctx context.Context, ownerID string) ([]models.Record, error)
	ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]models.Record, error)
	ReplaceID(ctx context.Context, localID, serverID string) error
	MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error)
	SetStatus(ctx context.Context, id string, status models.SyncStatus) error
	Purge(ctx context.Context, id string) error
	Payload(rec models.Record) any
}

type kind[T models.Record] struct {
	entityType models.EntityType
	store      recordStore[T]
	payload    func(T) any
}

func (k *kind[T]) Type() models.EntityType { return k.entityType }

func (k *kind[T]) Get(ctx context.Context, id string) (models.Record, error) {
	rec, err := k.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (k *kind[T]) ListPendingSync(ctx context.Context, ownerID string) ([]models.Record, error) {
	list, err := k.store.ListPendingSync(ctx, ownerID)
	return toRecords(list), err
}

func (k *kind[T]) ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]models.Record, error) {
	list, err := k.store.ListByStatus(ctx, ownerID, status)
	return toRecords(list), err
}

func (k *kind[T]) ReplaceID(ctx context.Context, localID, serverID string) error {
	return k.store.ReplaceID(ctx, localID, serverID)
}

func (k *kind[T]) MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error) {
	return k.store.MarkSynced(ctx, id, seenUpdatedAt)
}

func (k *kind[T]) SetStatus(ctx context.Context, id string, status models.SyncStatus) error {
	return k.store.SetStatus(ctx, id, status)
}

func (k *kind[T]) Purge(ctx context.Context, id string) error {
	return k.store.Purge(ctx, id)
}

func (k *kind[T]) Payload(rec models.Record) any {
	return k.payload(rec.(T))
}

func toRecords[T models.Record](list []T) []models.Record {
	out := make([]models.Record, len(list))
	for i, rec := range list {
		out[i] = rec
	}
	return out
}

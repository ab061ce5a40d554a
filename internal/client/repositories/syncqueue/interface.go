// Package syncqueue persists the ordered log of local mutations awaiting
// acknowledgement from the remote authority.
//
// The record stores remain the source of truth for what has to be pushed;
// the queue keeps the history of each mutation together with the attempt
// count and the last failure reported for its entity.
package syncqueue

import (
	"context"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
)

type Repository interface {
	// Append logs a mutation and returns its queue id.
	Append(ctx context.Context, item *models.QueueItem) (int64, error)
	// List returns every item in append order.
	List(ctx context.Context) ([]*models.QueueItem, error)
	ListByEntity(ctx context.Context, entityType models.EntityType, entityID string) ([]*models.QueueItem, error)
	Count(ctx context.Context) (int, error)
	// RemoveByEntity discards the entity's items once its state is acknowledged.
	RemoveByEntity(ctx context.Context, entityType models.EntityType, entityID string) error
	// RecordAttempt stores a failed push and returns the entity's attempt count.
	RecordAttempt(ctx context.Context, entityType models.EntityType, entityID string, lastError string, at time.Time) (int, error)
	ResetAttempts(ctx context.Context, entityType models.EntityType, entityID string) error
}

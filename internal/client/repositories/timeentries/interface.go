package timeentries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
)

// Repository is the Local Record Store for time entries.
type Repository interface {
	Get(ctx context.Context, id string) (*models.TimeEntry, error)
	// GetAll lists the owner's entries by date, most recent first.
	GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]*models.TimeEntry, error)
	Put(ctx context.Context, e *models.TimeEntry) error
	PutMany(ctx context.Context, es []*models.TimeEntry) error
	SoftDelete(ctx context.Context, id string) error
	ReplaceID(ctx context.Context, localID, serverID string) error
	ListPendingSync(ctx context.Context, ownerID string) ([]*models.TimeEntry, error)
	ListByStatus(ctx context.Context, ownerID string, status models.SyncStatus) ([]*models.TimeEntry, error)
	MarkSynced(ctx context.Context, id string, seenUpdatedAt time.Time) (bool, error)
	SetStatus(ctx context.Context, id string, status models.SyncStatus) error
	Purge(ctx context.Context, id string) error
	MergeServer(ctx context.Context, es []*models.TimeEntry) (int, error)
	PruneSynced(ctx context.Context, ownerID string, keep map[string]struct{}) (int, error)
}

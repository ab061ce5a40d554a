package timeentries

import (
	"context"

	"github.com/dmitrijs2005/expensehub/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, ownerID, id string) (*models.TimeEntry, error)
	List(ctx context.Context, ownerID string) ([]*models.TimeEntry, error)
	Insert(ctx context.Context, e *models.TimeEntry) error
	Update(ctx context.Context, e *models.TimeEntry) error
	SoftDelete(ctx context.Context, ownerID, id string) error
}

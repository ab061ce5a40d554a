package receipts

import (
	"context"

	"github.com/dmitrijs2005/expensehub/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, ownerID, id string) (*models.Receipt, error)
	List(ctx context.Context, ownerID string) ([]*models.Receipt, error)
	Insert(ctx context.Context, r *models.Receipt) error
	Update(ctx context.Context, r *models.Receipt) error
	SoftDelete(ctx context.Context, ownerID, id string) error
}

package client

import (
	"context"

	"github.com/dmitrijs2005/expensehub/internal/api"
)

// Client is the Remote Gateway. Every call is scoped to the owner behind
// the current API token.
type Client interface {
	Ping(ctx context.Context) error
	SetToken(token string)

	BatchSync(ctx context.Context, req *api.BatchSyncRequest) (*api.BatchSyncResponse, error)

	ListReceipts(ctx context.Context) ([]api.Receipt, error)
	CreateReceipt(ctx context.Context, p api.ReceiptPayload) (*api.Receipt, error)
	UpdateReceipt(ctx context.Context, id string, p api.ReceiptPayload) (*api.Receipt, error)
	DeleteReceipt(ctx context.Context, id string) error

	ListTimeEntries(ctx context.Context) ([]api.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, p api.TimeEntryPayload) (*api.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, id string, p api.TimeEntryPayload) (*api.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id string) error

	GetUploadURL(ctx context.Context, fileName string) (*api.UploadURL, error)
	UploadBlob(ctx context.Context, uploadURL string, data []byte, contentType string) error

	Close() error
}

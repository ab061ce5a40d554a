package models

import (
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
)

// OcrStatus is the server-side document analysis state of a receipt.
type OcrStatus string

const (
	OcrStatusPending    OcrStatus = "pending"
	OcrStatusProcessing OcrStatus = "processing"
	OcrStatusCompleted  OcrStatus = "completed"
	OcrStatusFailed     OcrStatus = "failed"
)

// DefaultCurrency is applied to receipts created without one.
const DefaultCurrency = "USD"

// ExpenseCategories lists the categories offered by the client.
var ExpenseCategories = []string{
	"Meals & Entertainment",
	"Transportation",
	"Lodging",
	"Office Supplies",
	"Software & Subscriptions",
	"Professional Services",
	"Travel",
	"Utilities",
	"Equipment",
	"Other",
}

type Receipt struct {
	ID      string
	OwnerID string

	// BlobURL points at the uploaded image once the upload went through.
	BlobURL string
	// LocalImage holds the captured image until it has been uploaded.
	LocalImage []byte

	MerchantName    string
	TransactionDate *time.Time
	TotalAmount     *float64
	Currency        string
	Category        string
	Description     string
	OcrStatus       OcrStatus

	SyncStatus SyncStatus
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *Receipt) GetID() string             { return r.ID }
func (r *Receipt) GetOwnerID() string        { return r.OwnerID }
func (r *Receipt) GetSyncStatus() SyncStatus { return r.SyncStatus }
func (r *Receipt) Deleted() bool             { return r.IsDeleted }
func (r *Receipt) GetUpdatedAt() time.Time   { return r.UpdatedAt }

// ReceiptCreate is the input of a new receipt.
type ReceiptCreate struct {
	OwnerID         string
	Image           []byte
	BlobURL         string
	MerchantName    string
	TransactionDate *time.Time
	TotalAmount     *float64
	Currency        string
	Category        string
	Description     string
}

// ReceiptUpdate is a partial edit; nil fields keep their current value.
type ReceiptUpdate struct {
	MerchantName    *string
	TransactionDate *time.Time
	TotalAmount     *float64
	Currency        *string
	Category        *string
	Description     *string
}

// NewReceipt builds a pending receipt under a fresh local id.
func NewReceipt(in ReceiptCreate, now time.Time) *Receipt {
	currency := in.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Receipt{
		ID:              NewLocalID(),
		OwnerID:         in.OwnerID,
		BlobURL:         in.BlobURL,
		LocalImage:      in.Image,
		MerchantName:    in.MerchantName,
		TransactionDate: in.TransactionDate,
		TotalAmount:     in.TotalAmount,
		Currency:        currency,
		Category:        in.Category,
		Description:     in.Description,
		OcrStatus:       OcrStatusPending,
		SyncStatus:      SyncStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ApplyTo copies the set fields onto r. Identity and sync bookkeeping are
// not reachable from here.
func (u ReceiptUpdate) ApplyTo(r *Receipt) {
	if u.MerchantName != nil {
		r.MerchantName = *u.MerchantName
	}
	if u.TransactionDate != nil {
		d := *u.TransactionDate
		r.TransactionDate = &d
	}
	if u.TotalAmount != nil {
		a := *u.TotalAmount
		r.TotalAmount = &a
	}
	if u.Currency != nil {
		r.Currency = *u.Currency
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
}

// Payload renders the full mutable state of r for the remote authority.
// Empty text fields are sent as empty strings so a local clear reaches the
// server.
func (r *Receipt) Payload() api.ReceiptPayload {
	merchant, currency := r.MerchantName, r.Currency
	category, description := r.Category, r.Description
	return api.ReceiptPayload{
		BlobURL:         optString(r.BlobURL),
		MerchantName:    &merchant,
		TransactionDate: r.TransactionDate,
		TotalAmount:     r.TotalAmount,
		Currency:        &currency,
		Category:        &category,
		Description:     &description,
	}
}

// Payload renders only the fields touched by u.
func (u ReceiptUpdate) Payload() api.ReceiptPayload {
	return api.ReceiptPayload{
		MerchantName:    u.MerchantName,
		TransactionDate: u.TransactionDate,
		TotalAmount:     u.TotalAmount,
		Currency:        u.Currency,
		Category:        u.Category,
		Description:     u.Description,
	}
}

// ReceiptFromAPI converts a server snapshot into a synced local record.
func ReceiptFromAPI(in api.Receipt) *Receipt {
	return &Receipt{
		ID:              in.ID,
		OwnerID:         in.OwnerID,
		BlobURL:         in.BlobURL,
		MerchantName:    in.MerchantName,
		TransactionDate: in.TransactionDate,
		TotalAmount:     in.TotalAmount,
		Currency:        in.Currency,
		Category:        in.Category,
		Description:     in.Description,
		OcrStatus:       OcrStatus(in.OcrStatus),
		SyncStatus:      SyncStatusSynced,
		IsDeleted:       in.IsDeleted,
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.UpdatedAt,
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

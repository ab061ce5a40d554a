// Package models holds the server-side records persisted in PostgreSQL.
package models

import (
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
)

// OCR states of a receipt. A receipt with an image waits for extraction;
// one without is complete on arrival.
const (
	OcrStatusPending   = "pending"
	OcrStatusCompleted = "completed"
)

// DefaultCurrency applies when a receipt is created without one.
const DefaultCurrency = "USD"

type Receipt struct {
	ID              string
	OwnerID         string
	BlobURL         string
	MerchantName    string
	TransactionDate *time.Time
	TotalAmount     *float64
	Currency        string
	Category        string
	Description     string
	OcrStatus       string
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Apply overwrites the fields set in p. BlobURL is only taken when the
// receipt has none yet.
func (r *Receipt) Apply(p api.ReceiptPayload) {
	if p.BlobURL != nil && r.BlobURL == "" {
		r.BlobURL = *p.BlobURL
	}
	if p.MerchantName != nil {
		r.MerchantName = *p.MerchantName
	}
	if p.TransactionDate != nil {
		d := p.TransactionDate.UTC()
		r.TransactionDate = &d
	}
	if p.TotalAmount != nil {
		v := *p.TotalAmount
		r.TotalAmount = &v
	}
	if p.Currency != nil {
		r.Currency = *p.Currency
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
}

func (r *Receipt) ToAPI() api.Receipt {
	return api.Receipt{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		BlobURL:         r.BlobURL,
		MerchantName:    r.MerchantName,
		TransactionDate: r.TransactionDate,
		TotalAmount:     r.TotalAmount,
		Currency:        r.Currency,
		Category:        r.Category,
		Description:     r.Description,
		OcrStatus:       r.OcrStatus,
		IsDeleted:       r.IsDeleted,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

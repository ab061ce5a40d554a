// Package api holds the JSON wire types exchanged between the ExpenseHub
// client and the remote authority.
package api

import (
	"encoding/json"
	"time"
)

// Operation is a mutation kind carried by a batch sync item.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

type Receipt struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	BlobURL         string     `json:"blobUrl,omitempty"`
	MerchantName    string     `json:"merchantName,omitempty"`
	TransactionDate *time.Time `json:"transactionDate,omitempty"`
	TotalAmount     *float64   `json:"totalAmount,omitempty"`
	Currency        string     `json:"currency"`
	Category        string     `json:"category,omitempty"`
	Description     string     `json:"description,omitempty"`
	OcrStatus       string     `json:"ocrStatus"`
	IsDeleted       bool       `json:"isDeleted"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ReceiptPayload is the body of receipt create/update requests and the data
// of receipt sync operations. Nil fields are left untouched on update.
type ReceiptPayload struct {
	BlobURL         *string    `json:"blobUrl,omitempty" validate:"omitempty,url"`
	MerchantName    *string    `json:"merchantName,omitempty" validate:"omitempty,max=200"`
	TransactionDate *time.Time `json:"transactionDate,omitempty"`
	TotalAmount     *float64   `json:"totalAmount,omitempty" validate:"omitempty,gte=0"`
	Currency        *string    `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Category        *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type TimeEntry struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Date        time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	Project     string    `json:"project,omitempty"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TimeEntryPayload is the body of time entry create/update requests and the
// data of time entry sync operations.
type TimeEntryPayload struct {
	Date        *time.Time `json:"date,omitempty"`
	Hours       *float64   `json:"hours,omitempty" validate:"omitempty,gt=0,lte=24"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Project     *string    `json:"project,omitempty" validate:"omitempty,max=200"`
}

// SyncOp is one mutation inside a batch request.
type SyncOp struct {
	Operation Operation       `json:"operation" validate:"required"`
	EntityID  string          `json:"entityId" validate:"required"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type BatchSyncRequest struct {
	Receipts    []SyncOp `json:"receipts" validate:"dive"`
	TimeEntries []SyncOp `json:"timeEntries" validate:"dive"`
}

// SyncResult reports the outcome of one SyncOp. For creates EntityID is the
// server-assigned id and LocalID echoes the id the client submitted.
type SyncResult struct {
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	LocalID    string          `json:"localId,omitempty"`
	Operation  Operation       `json:"operation"`
	Success    bool            `json:"success"`
	ServerData json.RawMessage `json:"serverData,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// SubmittedID is the id the client used when it sent the operation.
func (r SyncResult) SubmittedID() string {
	if r.LocalID != "" {
		return r.LocalID
	}
	return r.EntityID
}

type BatchSyncResponse struct {
	Success bool         `json:"success"`
	Results []SyncResult `json:"results"`
	Errors  []SyncResult `json:"errors"`
}

type UploadURLRequest struct {
	FileName string `json:"fileName" validate:"required,max=200"`
}

type UploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	BlobURL   string    `json:"blobUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

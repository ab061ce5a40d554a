package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIDs(t *testing.T) {
	id := NewLocalID()
	assert.True(t, IsLocalID(id))
	assert.NotEqual(t, id, NewLocalID())
	assert.False(t, IsLocalID("3f2b6c1e-0000-4000-8000-000000000000"))
}

func TestInferOperation(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want api.Operation
	}{
		{"local create", &Receipt{ID: "local-1"}, api.OperationCreate},
		{"server update", &Receipt{ID: "srv-1"}, api.OperationUpdate},
		{"server delete", &TimeEntry{ID: "srv-1", IsDeleted: true}, api.OperationDelete},
		{"local delete", &TimeEntry{ID: "local-1", IsDeleted: true}, api.OperationDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferOperation(tt.rec))
		})
	}
}

func TestNewReceipt_Defaults(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewReceipt(ReceiptCreate{OwnerID: "u1", MerchantName: "Shop"}, now)

	assert.True(t, IsLocalID(r.ID))
	assert.Equal(t, DefaultCurrency, r.Currency)
	assert.Equal(t, SyncStatusPending, r.SyncStatus)
	assert.Equal(t, OcrStatusPending, r.OcrStatus)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, now, r.UpdatedAt)
}

func TestReceiptUpdate_ApplyTo_OnlyTouchesSetFields(t *testing.T) {
	now := time.Now().UTC()
	r := NewReceipt(ReceiptCreate{OwnerID: "u1", MerchantName: "Shop", Category: "Travel"}, now)
	id := r.ID

	merchant := "Other shop"
	amount := 12.0
	ReceiptUpdate{MerchantName: &merchant, TotalAmount: &amount}.ApplyTo(r)

	assert.Equal(t, id, r.ID)
	assert.Equal(t, "u1", r.OwnerID)
	assert.Equal(t, SyncStatusPending, r.SyncStatus)
	assert.Equal(t, "Other shop", r.MerchantName)
	assert.Equal(t, "Travel", r.Category)
	require.NotNil(t, r.TotalAmount)
	assert.Equal(t, 12.0, *r.TotalAmount)

	amount = 99
	assert.Equal(t, 12.0, *r.TotalAmount)
}

func TestTimeEntryUpdate_ApplyTo(t *testing.T) {
	e := NewTimeEntry(TimeEntryCreate{OwnerID: "u1", Hours: 2, Description: "a"}, time.Now())
	hours := 3.5
	TimeEntryUpdate{Hours: &hours}.ApplyTo(e)
	assert.Equal(t, 3.5, e.Hours)
	assert.Equal(t, "a", e.Description)
}

func TestReceiptPayloadAndFromAPI(t *testing.T) {
	r := &Receipt{MerchantName: "Cafe", Currency: "USD", BlobURL: "https://blob/x.jpg"}
	p := r.Payload()
	require.NotNil(t, p.MerchantName)
	assert.Equal(t, "Cafe", *p.MerchantName)
	require.NotNil(t, p.Category)
	assert.Equal(t, "", *p.Category)
	require.NotNil(t, p.BlobURL)
	assert.Nil(t, (&Receipt{}).Payload().BlobURL)

	in := api.Receipt{ID: "srv-1", OwnerID: "u1", Currency: "EUR", OcrStatus: "completed"}
	got := ReceiptFromAPI(in)
	assert.Equal(t, SyncStatusSynced, got.SyncStatus)
	assert.Equal(t, OcrStatusCompleted, got.OcrStatus)
	assert.Equal(t, "EUR", got.Currency)
}

func TestTimeEntryFromAPI(t *testing.T) {
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	got := TimeEntryFromAPI(api.TimeEntry{ID: "srv-1", Date: date, Hours: 4})
	assert.Equal(t, SyncStatusSynced, got.SyncStatus)
	assert.Equal(t, 4.0, got.Hours)

	p := got.Payload()
	require.NotNil(t, p.Hours)
	assert.Equal(t, 4.0, *p.Hours)
	require.NotNil(t, p.Project)
	assert.Equal(t, "", *p.Project)
}

package syncqueue

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/migrations"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestAppendListAndRemove(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	first := &models.QueueItem{
		EntityType: models.EntityTypeReceipt,
		EntityID:   "local-1",
		Operation:  api.OperationCreate,
		Payload:    json.RawMessage(`{"merchantName":"Cafe"}`),
		CreatedAt:  now,
	}
	id, err := r.Append(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id, first.ID)

	_, err = r.Append(ctx, &models.QueueItem{
		EntityType: models.EntityTypeTimeEntry,
		EntityID:   "srv-9",
		Operation:  api.OperationDelete,
		CreatedAt:  now.Add(time.Second),
	})
	require.NoError(t, err)

	items, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "local-1", items[0].EntityID)
	assert.JSONEq(t, `{"merchantName":"Cafe"}`, string(items[0].Payload))
	assert.Nil(t, items[1].Payload)
	assert.Nil(t, items[1].LastAttemptAt)
	assert.True(t, items[0].CreatedAt.Equal(now))

	require.NoError(t, r.RemoveByEntity(ctx, models.EntityTypeReceipt, "local-1"))
	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordAttemptAndReset(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.Append(ctx, &models.QueueItem{
			EntityType: models.EntityTypeTimeEntry,
			EntityID:   "srv-1",
			Operation:  api.OperationUpdate,
			CreatedAt:  now,
		})
		require.NoError(t, err)
	}

	attempts, err := r.RecordAttempt(ctx, models.EntityTypeTimeEntry, "srv-1", "boom", now)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	attempts, err = r.RecordAttempt(ctx, models.EntityTypeTimeEntry, "srv-1", "boom again", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	items, err := r.ListByEntity(ctx, models.EntityTypeTimeEntry, "srv-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "boom again", items[0].LastError)
	require.NotNil(t, items[0].LastAttemptAt)
	assert.True(t, items[0].LastAttemptAt.Equal(now.Add(time.Minute)))

	require.NoError(t, r.ResetAttempts(ctx, models.EntityTypeTimeEntry, "srv-1"))
	items, err = r.ListByEntity(ctx, models.EntityTypeTimeEntry, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, 0, items[0].Attempts)
	assert.Empty(t, items[0].LastError)

	attempts, err = r.RecordAttempt(ctx, models.EntityTypeReceipt, "unknown", "x", now)
	require.NoError(t, err)
	assert.Equal(t, 0, attempts)
}

package receipts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/expensehub/internal/client/migrations"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/google/go-cmp/cmp"
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

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sample(id string, status models.SyncStatus, offset time.Duration) *models.Receipt {
	amount := 42.5
	date := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	return &models.Receipt{
		ID:              id,
		OwnerID:         "owner-1",
		MerchantName:    "Cafe",
		TransactionDate: &date,
		TotalAmount:     &amount,
		Currency:        "EUR",
		Category:        "Meals & Entertainment",
		OcrStatus:       models.OcrStatusCompleted,
		SyncStatus:      status,
		CreatedAt:       base.Add(offset),
		UpdatedAt:       base.Add(offset),
	}
}

func TestPutAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rec := sample("local-1", models.SyncStatusPending, 0)
	rec.LocalImage = []byte{0xff, 0xd8}
	require.NoError(t, r.Put(ctx, rec))

	got, err := r.Get(ctx, "local-1")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}

	rec.MerchantName = "Diner"
	rec.TotalAmount = nil
	require.NoError(t, r.Put(ctx, rec))
	got, err = r.Get(ctx, "local-1")
	require.NoError(t, err)
	assert.Equal(t, "Diner", got.MerchantName)
	assert.Nil(t, got.TotalAmount)
}

func TestGet_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.Get(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetAll_ScopesOwnerAndDeleted(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	older := sample("a", models.SyncStatusSynced, 0)
	newer := sample("b", models.SyncStatusSynced, time.Hour)
	gone := sample("c", models.SyncStatusPending, 2*time.Hour)
	gone.IsDeleted = true
	other := sample("d", models.SyncStatusSynced, 0)
	other.OwnerID = "owner-2"
	require.NoError(t, r.PutMany(ctx, []*models.Receipt{older, newer, gone, other}))

	list, err := r.GetAll(ctx, "owner-1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	list, err = r.GetAll(ctx, "owner-1", true)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSoftDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	r.now = func() time.Time { return base.Add(time.Minute) }
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("srv-1", models.SyncStatusSynced, 0)))
	require.NoError(t, r.SoftDelete(ctx, "srv-1"))

	got, err := r.Get(ctx, "srv-1")
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Minute)))

	pending, err := r.ListPendingSync(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.ErrorIs(t, r.SoftDelete(ctx, "missing"), common.ErrorNotFound)
}

func TestReplaceID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rec := sample("local-abc", models.SyncStatusPending, 0)
	require.NoError(t, r.Put(ctx, rec))

	require.NoError(t, r.ReplaceID(ctx, "local-abc", "srv-123"))

	_, err := r.Get(ctx, "local-abc")
	require.ErrorIs(t, err, common.ErrorNotFound)

	got, err := r.Get(ctx, "srv-123")
	require.NoError(t, err)
	want := *rec
	want.ID = "srv-123"
	want.SyncStatus = models.SyncStatusSynced
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Fatalf("remapped receipt mismatch (-want +got):\n%s", diff)
	}

	// second remap finds nothing under the local id
	require.NoError(t, r.ReplaceID(ctx, "local-abc", "srv-123"))
	all, err := r.GetAll(ctx, "owner-1", true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "srv-123", all[0].ID)
}

func TestMarkSynced_GuardsConcurrentEdit(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rec := sample("srv-1", models.SyncStatusPending, 0)
	require.NoError(t, r.Put(ctx, rec))

	ok, err := r.MarkSynced(ctx, "srv-1", base.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.MarkSynced(ctx, "srv-1", rec.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.Get(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
}

func TestSetStatusListByStatusPurge(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("srv-1", models.SyncStatusPending, 0)))
	require.NoError(t, r.SetStatus(ctx, "srv-1", models.SyncStatusError))

	failed, err := r.ListByStatus(ctx, "owner-1", models.SyncStatusError)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	pending, err := r.ListPendingSync(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, r.Purge(ctx, "srv-1"))
	require.NoError(t, r.Purge(ctx, "srv-1"))
	_, err = r.Get(ctx, "srv-1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.ErrorIs(t, r.SetStatus(ctx, "srv-1", models.SyncStatusSynced), common.ErrorNotFound)
}

func TestMergeServer_ServerWinsOnlyWhenClean(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	clean := sample("srv-clean", models.SyncStatusSynced, 0)
	dirty := sample("srv-dirty", models.SyncStatusPending, 0)
	dirty.MerchantName = "Local edit"
	require.NoError(t, r.PutMany(ctx, []*models.Receipt{clean, dirty}))

	serverClean := sample("srv-clean", models.SyncStatusSynced, time.Hour)
	serverClean.OcrStatus = models.OcrStatusCompleted
	serverClean.MerchantName = "From OCR"
	serverDirty := sample("srv-dirty", models.SyncStatusSynced, time.Hour)
	serverDirty.MerchantName = "Stale server"
	fresh := sample("srv-new", models.SyncStatusSynced, time.Hour)

	applied, err := r.MergeServer(ctx, []*models.Receipt{serverClean, serverDirty, fresh})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	got, err := r.Get(ctx, "srv-clean")
	require.NoError(t, err)
	if diff := cmp.Diff(serverClean, got); diff != "" {
		t.Fatalf("clean receipt not overwritten (-want +got):\n%s", diff)
	}

	got, err = r.Get(ctx, "srv-dirty")
	require.NoError(t, err)
	assert.Equal(t, "Local edit", got.MerchantName)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)

	got, err = r.Get(ctx, "srv-new")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
}

func TestPruneSynced(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.PutMany(ctx, []*models.Receipt{
		sample("srv-keep", models.SyncStatusSynced, 0),
		sample("srv-gone", models.SyncStatusSynced, 0),
		sample("local-1", models.SyncStatusPending, 0),
	}))

	n, err := r.PruneSynced(ctx, "owner-1", map[string]struct{}{"srv-keep": {}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := r.GetAll(ctx, "owner-1", true)
	require.NoError(t, err)
	ids := []string{}
	for _, rec := range all {
		ids = append(ids, rec.ID)
	}
	assert.ElementsMatch(t, []string{"srv-keep", "local-1"}, ids)
}

func TestAttachBlob(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rec := sample("local-1", models.SyncStatusPending, 0)
	rec.LocalImage = []byte("jpeg")
	require.NoError(t, r.Put(ctx, rec))

	require.NoError(t, r.AttachBlob(ctx, "local-1", "https://blob/receipt-1.jpg"))

	got, err := r.Get(ctx, "local-1")
	require.NoError(t, err)
	assert.Equal(t, "https://blob/receipt-1.jpg", got.BlobURL)
	assert.Nil(t, got.LocalImage)
	assert.True(t, got.UpdatedAt.Equal(rec.UpdatedAt))

	require.ErrorIs(t, r.AttachBlob(ctx, "missing", "x"), common.ErrorNotFound)
}

func TestPruneSynced_SkipsRowEditedAfterSelect(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM receipts WHERE owner_id = \? AND sync_status = \?`).
		WithArgs("owner-1", "synced").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("srv-edited").AddRow("srv-gone"))
	mock.ExpectExec(`DELETE FROM receipts WHERE id = \? AND sync_status = \?`).
		WithArgs("srv-edited", "synced").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM receipts WHERE id = \? AND sync_status = \?`).
		WithArgs("srv-gone", "synced").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewSQLiteRepository(db).PruneSynced(context.Background(), "owner-1", map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

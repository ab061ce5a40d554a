package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
	"github.com/dmitrijs2005/expensehub/internal/server/models"
	"github.com/dmitrijs2005/expensehub/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/expensehub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensehub/internal/server/repositories/timeentries"
	"github.com/stretchr/testify/require"
)

type memReceipts struct {
	items map[string]models.Receipt
}

func (m *memReceipts) Get(_ context.Context, ownerID, id string) (*models.Receipt, error) {
	r, ok := m.items[id]
	if !ok || r.OwnerID != ownerID || r.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (m *memReceipts) List(_ context.Context, ownerID string) ([]*models.Receipt, error) {
	var out []*models.Receipt
	for _, r := range m.items {
		if r.OwnerID == ownerID && !r.IsDeleted {
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReceipts) Insert(_ context.Context, r *models.Receipt) error {
	if _, ok := m.items[r.ID]; ok {
		return fmt.Errorf("db error: duplicate %s", r.ID)
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memReceipts) Update(ctx context.Context, r *models.Receipt) error {
	if _, err := m.Get(ctx, r.OwnerID, r.ID); err != nil {
		return err
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memReceipts) SoftDelete(ctx context.Context, ownerID, id string) error {
	r, err := m.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	r.IsDeleted = true
	m.items[id] = *r
	return nil
}

type memTimeEntries struct {
	items map[string]models.TimeEntry
}

func (m *memTimeEntries) Get(_ context.Context, ownerID, id string) (*models.TimeEntry, error) {
	e, ok := m.items[id]
	if !ok || e.OwnerID != ownerID || e.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return &e, nil
}

func (m *memTimeEntries) List(_ context.Context, ownerID string) ([]*models.TimeEntry, error) {
	var out []*models.TimeEntry
	for _, e := range m.items {
		if e.OwnerID == ownerID && !e.IsDeleted {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTimeEntries) Insert(_ context.Context, e *models.TimeEntry) error {
	m.items[e.ID] = *e
	return nil
}

func (m *memTimeEntries) Update(ctx context.Context, e *models.TimeEntry) error {
	if _, err := m.Get(ctx, e.OwnerID, e.ID); err != nil {
		return err
	}
	m.items[e.ID] = *e
	return nil
}

func (m *memTimeEntries) SoftDelete(ctx context.Context, ownerID, id string) error {
	e, err := m.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	e.IsDeleted = true
	m.items[id] = *e
	return nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	receipts    *memReceipts
	timeEntries *memTimeEntries
}

func (f *fakeRepoManager) Receipts(dbx.DBTX) receipts.Repository       { return f.receipts }
func (f *fakeRepoManager) TimeEntries(dbx.DBTX) timeentries.Repository { return f.timeEntries }

type fixture struct {
	svc  *RecordService
	repo *fakeRepoManager
	mock sqlmock.Sqlmock
	db   *sql.DB
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := &fakeRepoManager{
		receipts:    &memReceipts{items: map[string]models.Receipt{}},
		timeEntries: &memTimeEntries{items: map[string]models.TimeEntry{}},
	}
	f := &fixture{
		svc:  NewRecordService(db, repo),
		repo: repo,
		mock: mock,
		db:   db,
		now:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}

	seq := 0
	f.svc.now = func() time.Time { return f.now }
	f.svc.newID = func() string {
		seq++
		return fmt.Sprintf("srv-%d", seq)
	}
	return f
}

// expectTx registers one transaction on the mock.
func (f *fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func ptr[T any](v T) *T { return &v }

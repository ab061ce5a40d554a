package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTimeEntryService_CreateOnlineAndOffline(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()
	e.fake.NextIDs = []string{"srv-a"}

	online, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 8, Description: "Dev"})
	require.NoError(t, err)
	assert.Equal(t, "srv-a", online.ID)
	assert.Equal(t, models.SyncStatusSynced, online.SyncStatus)

	e.mon.setOnline(false)
	offline, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-16"), Hours: 4, Description: "Docs"})
	require.NoError(t, err)
	assert.True(t, models.IsLocalID(offline.ID))
	assert.Equal(t, models.SyncStatusPending, offline.SyncStatus)
	assert.Equal(t, 1, e.queueLen(t))
}

func TestTimeEntryService_HoursValidation(t *testing.T) {
	e := setup(t, false)
	ctx := context.Background()

	for _, h := range []float64{0, -2, 24.5} {
		_, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: h})
		assert.ErrorIs(t, err, common.ErrorValidation, "hours %v", h)
	}

	te, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 24})
	require.NoError(t, err)
	_, err = e.times.Update(ctx, te.ID, models.TimeEntryUpdate{Hours: ptr(30.0)})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestTimeEntryService_UpdateOnline(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	te, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 2})
	require.NoError(t, err)

	upd, err := e.times.Update(ctx, te.ID, models.TimeEntryUpdate{Hours: ptr(3.5), Project: ptr("Apollo")})
	require.NoError(t, err)
	assert.Equal(t, 3.5, upd.Hours)
	assert.Equal(t, models.SyncStatusSynced, upd.SyncStatus)
	assert.Equal(t, "Apollo", e.fake.TimeEntries[te.ID].Project)
}

func TestTimeEntryService_UpdateUnknownOnServerFallsBackToQueue(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	te, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 2})
	require.NoError(t, err)
	delete(e.fake.TimeEntries, te.ID)

	upd, err := e.times.Update(ctx, te.ID, models.TimeEntryUpdate{Hours: ptr(1.0)})
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, upd.SyncStatus)
	assert.True(t, e.mon.IsOnline())
}

func TestTimeEntryService_Delete(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	te, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 2})
	require.NoError(t, err)

	ok, err := e.times.Delete(ctx, te.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, e.fake.TimeEntries)

	_, err = e.times.GetByID(ctx, te.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err = e.times.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimeEntryService_TotalHoursInclusive(t *testing.T) {
	e := setup(t, false)
	ctx := context.Background()

	for _, in := range []struct {
		date  string
		hours float64
	}{{"2024-01-14", 1}, {"2024-01-15", 2}, {"2024-01-16", 3}, {"2024-01-17", 4}} {
		_, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day(in.date), Hours: in.hours})
		require.NoError(t, err)
	}
	gone, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 10})
	require.NoError(t, err)
	_, err = e.times.Delete(ctx, gone.ID)
	require.NoError(t, err)

	total, err := e.times.TotalHours(ctx, owner, day("2024-01-15"), day("2024-01-16"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, total)

	total, err = e.times.TotalHours(ctx, "someone-else", day("2024-01-01"), day("2024-12-31"))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGroupByDate(t *testing.T) {
	entries := []*models.TimeEntry{
		{ID: "a", Date: day("2024-01-15"), Hours: 2},
		{ID: "b", Date: day("2024-01-17"), Hours: 1},
		{ID: "c", Date: day("2024-01-15").Add(5 * time.Hour), Hours: 3},
	}

	groups := GroupByDate(entries)
	require.Len(t, groups, 2)
	assert.Equal(t, day("2024-01-17"), groups[0].Date)
	assert.Equal(t, 1.0, groups[0].Hours)
	assert.Equal(t, day("2024-01-15"), groups[1].Date)
	assert.Equal(t, 5.0, groups[1].Hours)
	assert.Len(t, groups[1].Entries, 2)

	assert.Empty(t, GroupByDate(nil))
}

func TestTimeEntryService_ClearedProjectSurvivesSync(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()
	e.fake.NextIDs = []string{"srv-p"}

	te, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 2, Project: "Apollo"})
	require.NoError(t, err)

	e.mon.setOnline(false)
	_, err = e.times.Update(ctx, te.ID, models.TimeEntryUpdate{Project: ptr("")})
	require.NoError(t, err)

	e.mon.setOnline(true)
	_, err = e.sync.SyncAll(ctx)
	require.NoError(t, err)

	got, err := e.repos.TimeEntries.Get(ctx, "srv-p")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
	assert.Empty(t, got.Project)
	assert.Empty(t, e.fake.TimeEntries["srv-p"].Project)
}

func TestTimeEntryService_DeleteOnline_UnknownRemotelyStaysPending(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	te, err := e.times.Create(ctx, models.TimeEntryCreate{OwnerID: owner, Date: day("2024-01-15"), Hours: 2})
	require.NoError(t, err)
	delete(e.fake.TimeEntries, te.ID)

	ok, err := e.times.Delete(ctx, te.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	tomb, err := e.repos.TimeEntries.Get(ctx, te.ID)
	require.NoError(t, err)
	assert.True(t, tomb.IsDeleted)
	assert.Equal(t, models.SyncStatusPending, tomb.SyncStatus)
	assert.Equal(t, 1, e.queueLen(t))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/timeentries"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/logging"
)

const maxHoursPerEntry = 24

// DayGroup is the set of entries logged on one calendar day.
type DayGroup struct {
	Date    time.Time
	Entries []*models.TimeEntry
	Hours   float64
}

type TimeEntryService interface {
	Load(ctx context.Context, ownerID string) ([]*models.TimeEntry, error)
	Create(ctx context.Context, in models.TimeEntryCreate) (*models.TimeEntry, error)
	Update(ctx context.Context, id string, u models.TimeEntryUpdate) (*models.TimeEntry, error)
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.TimeEntry, error)

	// TotalHours sums the owner's live entries dated within [from, to].
	TotalHours(ctx context.Context, ownerID string, from, to time.Time) (float64, error)
}

type timeEntryService struct {
	deps
	repo timeentries.Repository
}

func NewTimeEntryService(c client.Client, repo timeentries.Repository, queue syncqueue.Repository, s Syncer, m Connectivity, log logging.Logger) TimeEntryService {
	return &timeEntryService{deps: newDeps(c, queue, s, m, log), repo: repo}
}

func validHours(h float64) error {
	if h <= 0 || h > maxHoursPerEntry {
		return fmt.Errorf("%w: hours must be in (0, %d]", common.ErrorValidation, maxHoursPerEntry)
	}
	return nil
}

func (s *timeEntryService) Load(ctx context.Context, ownerID string) ([]*models.TimeEntry, error) {
	s.refresh(ctx)
	return s.repo.GetAll(ctx, ownerID, false)
}

func (s *timeEntryService) Create(ctx context.Context, in models.TimeEntryCreate) (*models.TimeEntry, error) {
	if in.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", common.ErrorValidation)
	}
	if err := validHours(in.Hours); err != nil {
		return nil, err
	}

	e := models.NewTimeEntry(in, s.now())
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	if err := s.enqueue(ctx, models.EntityTypeTimeEntry, e.ID, api.OperationCreate, e.Payload()); err != nil {
		return nil, err
	}

	id := e.ID
	if s.monitor.IsOnline() {
		serverID, err := s.pushCreate(ctx, e.ID)
		if err != nil {
			s.pushFailed(ctx, "create time entry", e.ID, err)
		} else if serverID != "" {
			id = serverID
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *timeEntryService) Update(ctx context.Context, id string, u models.TimeEntryUpdate) (*models.TimeEntry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsDeleted {
		return nil, common.ErrorNotFound
	}
	if u.Hours != nil {
		if err := validHours(*u.Hours); err != nil {
			return nil, err
		}
	}

	u.ApplyTo(e)
	e.SyncStatus = models.SyncStatusPending
	e.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	op := models.InferOperation(e)
	if err := s.enqueue(ctx, models.EntityTypeTimeEntry, e.ID, op, u.Payload()); err != nil {
		return nil, err
	}

	if s.monitor.IsOnline() {
		if op == api.OperationCreate {
			serverID, err := s.pushCreate(ctx, e.ID)
			if err != nil {
				s.pushFailed(ctx, "create time entry", e.ID, err)
			} else if serverID != "" {
				id = serverID
			}
		} else if err := s.pushUpdate(ctx, e.ID); err != nil {
			s.pushFailed(ctx, "update time entry", e.ID, err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *timeEntryService) Delete(ctx context.Context, id string) (bool, error) {
	e, err := s.repo.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if e.IsDeleted {
		return false, nil
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return false, err
	}
	if err := s.enqueue(ctx, models.EntityTypeTimeEntry, id, api.OperationDelete, nil); err != nil {
		return false, err
	}

	if s.monitor.IsOnline() {
		if err := s.pushDelete(ctx, id); err != nil {
			s.pushFailed(ctx, "delete time entry", id, err)
		}
	}
	return true, nil
}

func (s *timeEntryService) GetByID(ctx context.Context, id string) (*models.TimeEntry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func (s *timeEntryService) TotalHours(ctx context.Context, ownerID string, from, to time.Time) (float64, error) {
	entries, err := s.repo.GetAll(ctx, ownerID, false)
	if err != nil {
		return 0, err
	}
	from, to = truncateDay(from), truncateDay(to)

	var total float64
	for _, e := range entries {
		d := truncateDay(e.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		total += e.Hours
	}
	return total, nil
}

// GroupByDate buckets entries by calendar day, most recent day first.
func GroupByDate(entries []*models.TimeEntry) []DayGroup {
	idx := make(map[time.Time]int)
	var groups []DayGroup
	for _, e := range entries {
		d := truncateDay(e.Date)
		i, ok := idx[d]
		if !ok {
			i = len(groups)
			idx[d] = i
			groups = append(groups, DayGroup{Date: d})
		}
		groups[i].Entries = append(groups[i].Entries, e)
		groups[i].Hours += e.Hours
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Date.After(groups[j].Date) })
	return groups
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *timeEntryService) pushCreate(ctx context.Context, localID string) (string, error) {
	var serverID string
	err := s.syncer.Exclusive(ctx, func(ctx context.Context) error {
		e, err := s.repo.Get(ctx, localID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if e.IsDeleted || e.SyncStatus != models.SyncStatusPending || !models.IsLocalID(e.ID) {
			return nil
		}

		out, err := s.client.CreateTimeEntry(ctx, e.Payload())
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceID(ctx, e.ID, out.ID); err != nil {
			return err
		}
		if err := s.queue.RemoveByEntity(ctx, models.EntityTypeTimeEntry, e.ID); err != nil {
			return err
		}
		serverID = out.ID

		// An edit that landed while the request was in flight stays pending.
		cur, err := s.repo.Get(ctx, out.ID)
		if err != nil {
			return err
		}
		if !cur.UpdatedAt.Equal(e.UpdatedAt) {
			return s.repo.SetStatus(ctx, out.ID, models.SyncStatusPending)
		}

		snapshot := models.TimeEntryFromAPI(*out)
		snapshot.OwnerID = e.OwnerID
		_, err = s.repo.MergeServer(ctx, []*models.TimeEntry{snapshot})
		return err
	})
	return serverID, err
}

func (s *timeEntryService) pushUpdate(ctx context.Context, id string) error {
	return s.syncer.Exclusive(ctx, func(ctx context.Context) error {
		e, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if e.IsDeleted || e.SyncStatus != models.SyncStatusPending {
			return nil
		}

		out, err := s.client.UpdateTimeEntry(ctx, id, e.Payload())
		if err != nil {
			return err
		}
		synced, err := s.repo.MarkSynced(ctx, id, e.UpdatedAt)
		if err != nil || !synced {
			return err
		}
		if err := s.queue.RemoveByEntity(ctx, models.EntityTypeTimeEntry, id); err != nil {
			return err
		}

		snapshot := models.TimeEntryFromAPI(*out)
		snapshot.OwnerID = e.OwnerID
		_, err = s.repo.MergeServer(ctx, []*models.TimeEntry{snapshot})
		return err
	})
}

func (s *timeEntryService) pushDelete(ctx context.Context, id string) error {
	return s.syncer.Exclusive(ctx, func(ctx context.Context) error {
		e, err := s.repo.Get(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !e.IsDeleted || e.SyncStatus != models.SyncStatusPending {
			return nil
		}

		if !models.IsLocalID(id) {
			// A not-found answer keeps the tombstone pending for inspection.
			if err := s.client.DeleteTimeEntry(ctx, id); err != nil {
				return err
			}
		}
		if err := s.repo.Purge(ctx, id); err != nil {
			return err
		}
		return s.queue.RemoveByEntity(ctx, models.EntityTypeTimeEntry, id)
	})
}

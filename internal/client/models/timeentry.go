package models

import (
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
)

type TimeEntry struct {
	ID          string
	OwnerID     string
	Date        time.Time
	Hours       float64
	Description string
	Project     string

	SyncStatus SyncStatus
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e *TimeEntry) GetID() string             { return e.ID }
func (e *TimeEntry) GetOwnerID() string        { return e.OwnerID }
func (e *TimeEntry) GetSyncStatus() SyncStatus { return e.SyncStatus }
func (e *TimeEntry) Deleted() bool             { return e.IsDeleted }
func (e *TimeEntry) GetUpdatedAt() time.Time   { return e.UpdatedAt }

type TimeEntryCreate struct {
	OwnerID     string
	Date        time.Time
	Hours       float64
	Description string
	Project     string
}

// TimeEntryUpdate is a partial edit; nil fields keep their current value.
type TimeEntryUpdate struct {
	Date        *time.Time
	Hours       *float64
	Description *string
	Project     *string
}

func NewTimeEntry(in TimeEntryCreate, now time.Time) *TimeEntry {
	return &TimeEntry{
		ID:          NewLocalID(),
		OwnerID:     in.OwnerID,
		Date:        in.Date,
		Hours:       in.Hours,
		Description: in.Description,
		Project:     in.Project,
		SyncStatus:  SyncStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u TimeEntryUpdate) ApplyTo(e *TimeEntry) {
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Hours != nil {
		e.Hours = *u.Hours
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Project != nil {
		e.Project = *u.Project
	}
}

func (e *TimeEntry) Payload() api.TimeEntryPayload {
	date := e.Date
	hours := e.Hours
	description := e.Description
	project := e.Project
	return api.TimeEntryPayload{
		Date:        &date,
		Hours:       &hours,
		Description: &description,
		Project:     &project,
	}
}

func (u TimeEntryUpdate) Payload() api.TimeEntryPayload {
	return api.TimeEntryPayload{
		Date:        u.Date,
		Hours:       u.Hours,
		Description: u.Description,
		Project:     u.Project,
	}
}

func TimeEntryFromAPI(in api.TimeEntry) *TimeEntry {
	return &TimeEntry{
		ID:          in.ID,
		OwnerID:     in.OwnerID,
		Date:        in.Date,
		Hours:       in.Hours,
		Description: in.Description,
		Project:     in.Project,
		SyncStatus:  SyncStatusSynced,
		IsDeleted:   in.IsDeleted,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
}

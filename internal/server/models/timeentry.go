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
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Apply overwrites the fields set in p.
func (e *TimeEntry) Apply(p api.TimeEntryPayload) {
	if p.Date != nil {
		e.Date = p.Date.UTC()
	}
	if p.Hours != nil {
		e.Hours = *p.Hours
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Project != nil {
		e.Project = *p.Project
	}
}

func (e *TimeEntry) ToAPI() api.TimeEntry {
	return api.TimeEntry{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Date:        e.Date,
		Hours:       e.Hours,
		Description: e.Description,
		Project:     e.Project,
		IsDeleted:   e.IsDeleted,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

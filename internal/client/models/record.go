// Package models defines the client-side records persisted locally and
// reconciled with the remote authority.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/google/uuid"
)

// LocalIDPrefix marks ids generated on the client before the remote
// authority has assigned one.
const LocalIDPrefix = "local-"

// SyncStatus tracks whether a record's latest local state is acknowledged.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending_sync"
	SyncStatusError   SyncStatus = "sync_error"
)

// EntityType names a record kind on the wire and in the sync queue.
type EntityType string

const (
	EntityTypeReceipt   EntityType = "receipt"
	EntityTypeTimeEntry EntityType = "time-entry"
)

// Record is what the synchronizer needs to know about either entity kind.
type Record interface {
	GetID() string
	GetOwnerID() string
	GetSyncStatus() SyncStatus
	Deleted() bool
	GetUpdatedAt() time.Time
}

// NewLocalID returns a fresh client-side id.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was generated on the client.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// InferOperation derives the pending mutation for a dirty record: a
// tombstone is a delete, a server id is an update, anything else a create.
func InferOperation(r Record) api.Operation {
	switch {
	case r.Deleted():
		return api.OperationDelete
	case !IsLocalID(r.GetID()):
		return api.OperationUpdate
	default:
		return api.OperationCreate
	}
}

package models

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
)

// QueueItem is one logged local mutation waiting for acknowledgement.
type QueueItem struct {
	ID            int64
	EntityType    EntityType
	EntityID      string
	Operation     api.Operation
	Payload       json.RawMessage
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	LastAttemptAt *time.Time
}

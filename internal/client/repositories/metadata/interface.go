// Package metadata stores client session state as key/value pairs in the
// local database:
//
//	owner_id        the owner the client syncs as
//	api_token       bearer token presented to the server
//	last_sync_time  end of the last successful sync for owner_id
//
// The session keys are written together by SaveSession; Clear wipes all of
// them on logout.
package metadata

import (
	"context"
	"time"
)

const (
	KeyOwnerID      = "owner_id"
	KeyAPIToken     = "api_token"
	KeyLastSyncTime = "last_sync_time"
)

type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	// GetTime returns the zero time when the key is absent.
	GetTime(ctx context.Context, key string) (time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error

	// SaveSession stores owner and token atomically. Switching to another
	// owner drops the previous owner's last sync time.
	SaveSession(ctx context.Context, ownerID, token string) error
	// Session returns empty strings when no session has been saved.
	Session(ctx context.Context) (ownerID, token string, err error)
}

package dbx

import (
	"database/sql"
	"time"
)

// SQLite has no time type; timestamps are stored as INTEGER unix nanoseconds.

func ToUnixNano(t time.Time) int64 {
	return t.UnixNano()
}

func FromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func NullUnixNano(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func FromNullUnixNano(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := FromUnixNano(n.Int64)
	return &t
}

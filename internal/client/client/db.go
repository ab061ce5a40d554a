package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/client/migrations"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/receipts"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/timeentries"
	"github.com/dmitrijs2005/expensehub/internal/filex"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB          *sql.DB
	Metadata    metadata.Repository
	Receipts    receipts.Repository
	TimeEntries timeentries.Repository
	Queue       syncqueue.Repository
}

// InitDatabase opens the SQLite file at dsn, applies migrations and wires
// the repositories. The pool is limited to one connection so that
// multi-statement transactions never see SQLITE_BUSY from a sibling.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:          db,
		Metadata:    metadata.NewSQLiteRepository(db),
		Receipts:    receipts.NewSQLiteRepository(db),
		TimeEntries: timeentries.NewSQLiteRepository(db),
		Queue:       syncqueue.NewSQLiteRepository(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/expensehub/internal/dbx"
	"github.com/dmitrijs2005/expensehub/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/expensehub/internal/server/repositories/timeentries"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// them on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Receipts(db dbx.DBTX) receipts.Repository
	TimeEntries(db dbx.DBTX) timeentries.Repository
}

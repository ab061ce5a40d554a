// Package receipts provides the local SQLite store for expense receipts.
//
// Every row carries a sync status. Rows edited on this device are
// pending_sync until the remote authority acknowledges them; deletions are
// tombstones (deleted=1) that stay in the table until the delete itself is
// acknowledged, after which the row is purged.
//
// Typical Usage
//
//	repo := receipts.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, r)
//	pending, _ := repo.ListPendingSync(ctx, ownerID)
//	_ = repo.ReplaceID(ctx, r.ID, serverID)
package receipts

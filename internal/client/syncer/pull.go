package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
)

// pull fetches the owner's authoritative record set and merges it: the
// server wins for rows that are absent or synced locally, dirty rows keep
// their local state, and synced rows the server no longer lists are purged.
func (o *Orchestrator) pull(ctx context.Context, owner string, summary *RunSummary) error {
	remoteReceipts, err := o.client.ListReceipts(ctx)
	if err != nil {
		return o.pullError("receipts", err)
	}
	remoteTimes, err := o.client.ListTimeEntries(ctx)
	if err != nil {
		return o.pullError("time entries", err)
	}

	rs := make([]*models.Receipt, 0, len(remoteReceipts))
	keepReceipts := make(map[string]struct{}, len(remoteReceipts))
	for _, in := range remoteReceipts {
		rec := models.ReceiptFromAPI(in)
		rec.OwnerID = owner
		rs = append(rs, rec)
		keepReceipts[rec.ID] = struct{}{}
	}
	merged, err := o.stores.Receipts.MergeServer(ctx, rs)
	if err != nil {
		return err
	}
	summary.Merged += merged
	pruned, err := o.stores.Receipts.PruneSynced(ctx, owner, keepReceipts)
	if err != nil {
		return err
	}
	summary.Pruned += pruned

	ts := make([]*models.TimeEntry, 0, len(remoteTimes))
	keepTimes := make(map[string]struct{}, len(remoteTimes))
	for _, in := range remoteTimes {
		e := models.TimeEntryFromAPI(in)
		e.OwnerID = owner
		ts = append(ts, e)
		keepTimes[e.ID] = struct{}{}
	}
	merged, err = o.stores.TimeEntries.MergeServer(ctx, ts)
	if err != nil {
		return err
	}
	summary.Merged += merged
	pruned, err = o.stores.TimeEntries.PruneSynced(ctx, owner, keepTimes)
	if err != nil {
		return err
	}
	summary.Pruned += pruned

	return nil
}

func (o *Orchestrator) pullError(what string, err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		o.monitor.ReportUnavailable()
	}
	return fmt.Errorf("pull %s: %w", what, err)
}

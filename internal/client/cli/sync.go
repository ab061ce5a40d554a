package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/client/syncer"
)

func (a *App) Sync(ctx context.Context, args []string) error {
	if !a.monitor.IsOnline() && !a.monitor.CheckConnectivity(ctx) {
		fmt.Fprintln(a.out, "Server unreachable, changes stay queued")
		return nil
	}

	started, err := a.syncer.SyncAll(ctx)
	if err != nil {
		return a.fail(err)
	}
	if !started {
		fmt.Fprintln(a.out, "Sync skipped: another sync is running or the server went offline")
		return nil
	}
	a.printRun(a.syncer.Status())
	return nil
}

// Retry makes records parked in sync_error eligible again and syncs.
func (a *App) Retry(ctx context.Context, args []string) error {
	n, err := a.syncer.RetryFailed(ctx)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%d record(s) queued for retry\n", n)
	if n == 0 || !a.monitor.IsOnline() {
		return nil
	}
	return a.Sync(ctx, nil)
}

func (a *App) Status(ctx context.Context, args []string) error {
	if a.isLoggedIn() {
		if _, err := a.syncer.RefreshPendingCount(ctx); err != nil {
			return a.fail(err)
		}
	}
	st := a.syncer.Status()

	owner := a.owner
	if owner == "" {
		owner = "(not logged in)"
	}
	fmt.Fprintf(a.out, "Owner:      %s\n", owner)
	fmt.Fprintf(a.out, "Mode:       %s\n", a.mode())
	fmt.Fprintf(a.out, "Sync state: %s\n", st.State)
	fmt.Fprintf(a.out, "Pending:    %d\n", st.PendingCount)
	if st.LastSyncTime.IsZero() {
		fmt.Fprintln(a.out, "Last sync:  never")
	} else {
		fmt.Fprintf(a.out, "Last sync:  %s\n", st.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
	}
	if st.LastError != "" {
		fmt.Fprintf(a.out, "Last error: %s\n", st.LastError)
	}

	failures, err := a.syncer.Failures(ctx)
	if err != nil {
		return a.fail(err)
	}
	for _, f := range failures {
		fmt.Fprintf(a.out, "Failed:     %s %s after %d attempt(s): %s\n", f.Type, f.ID, f.Attempts, f.LastError)
	}
	if len(failures) > 0 {
		fmt.Fprintln(a.out, "Run 'retry' to queue them again")
	}
	return nil
}

func (a *App) printRun(st syncer.Status) {
	r := st.LastRun
	fmt.Fprintf(a.out, "Sync done: %d pushed, %d failed, %d purged, %d merged, %d pruned\n",
		r.Pushed, r.Failed, r.Purged, r.Merged, r.Pruned)
	if st.PendingCount > 0 {
		fmt.Fprintf(a.out, "%d change(s) still pending\n", st.PendingCount)
	}
}

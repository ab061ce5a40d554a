// Package syncer implements the sync orchestrator: the state machine that
// pushes locally dirty records to the remote authority in one batch,
// applies the per-operation results, and merges the authoritative state
// back into the local stores.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/receipts"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/timeentries"
	"github.com/dmitrijs2005/expensehub/internal/logging"
)

type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
)

// Connectivity is the part of connectivity.Monitor the orchestrator reads.
type Connectivity interface {
	IsOnline() bool
	ReportUnavailable()
	Subscribe() (<-chan bool, func())
}

// Stores groups the local repositories the orchestrator works through.
type Stores struct {
	Receipts    receipts.Repository
	TimeEntries timeentries.Repository
	Queue       syncqueue.Repository
	Metadata    metadata.Repository
}

type Options struct {
	// MaxAttempts moves a record to sync_error after that many failed
	// pushes. Zero retries forever.
	MaxAttempts int
	// PendingRefreshInterval is the period of the pending-count tick.
	PendingRefreshInterval time.Duration
}

// RunSummary describes the outcome of the last completed sync.
type RunSummary struct {
	Pushed  int
	Failed  int
	Purged  int
	Merged  int
	Pruned  int
	Skipped int
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	State        State
	LastError    string
	LastSyncTime time.Time
	PendingCount int
	LastRun      RunSummary
}

type Orchestrator struct {
	client   client.Client
	stores   Stores
	kinds    []entityKind
	monitor  Connectivity
	log      logging.Logger
	opts     Options
	now      func() time.Time

	// pushMu serializes every write to the remote authority: batch syncs
	// and the immediate pushes done by the entity services.
	pushMu sync.Mutex

	mu        sync.Mutex
	state     State
	lastError string
	lastSync  time.Time
	pending   int
	lastRun   RunSummary
	owner     string
}

func New(c client.Client, stores Stores, monitor Connectivity, log logging.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = logging.Nop()
	}
	if opts.PendingRefreshInterval <= 0 {
		opts.PendingRefreshInterval = 30 * time.Second
	}

	rk := &kind[*models.Receipt]{
		entityType: models.EntityTypeReceipt,
		store:      stores.Receipts,
		payload:    func(r *models.Receipt) any { return r.Payload() },
	}
	tk := &kind[*models.TimeEntry]{
		entityType: models.EntityTypeTimeEntry,
		store:      stores.TimeEntries,
		payload:    func(e *models.TimeEntry) any { return e.Payload() },
	}

	return &Orchestrator{
		client:   c,
		stores:   stores,
		kinds:    []entityKind{rk, tk},
		monitor:  monitor,
		log:      log.With("component", "syncer"),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		state:    StateIdle,
	}
}

// Restore loads the owner and last sync time persisted by a previous session.
func (o *Orchestrator) Restore(ctx context.Context) error {
	owner, err := o.stores.Metadata.GetString(ctx, metadata.KeyOwnerID)
	if err != nil {
		return err
	}
	last, err := o.stores.Metadata.GetTime(ctx, metadata.KeyLastSyncTime)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.owner = owner
	o.lastSync = last
	o.mu.Unlock()

	_, err = o.RefreshPendingCount(ctx)
	return err
}

// SetOwner scopes every subsequent sync to ownerID. An empty owner disables
// syncing.
func (o *Orchestrator) SetOwner(ownerID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owner = ownerID
	o.pending = 0
}

func (o *Orchestrator) Owner() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		State:        o.state,
		LastError:    o.lastError,
		LastSyncTime: o.lastSync,
		PendingCount: o.pending,
		LastRun:      o.lastRun,
	}
}

// SyncAll runs one push + pull cycle. It returns started=false without doing
// anything when a sync is already running, when offline, or when no owner
// is set. The returned error is the fatal failure that moved the
// orchestrator to the error state; per-record failures only show up in the
// records' sync status.
func (o *Orchestrator) SyncAll(ctx context.Context) (bool, error) {
	o.mu.Lock()
	if o.state == StateSyncing || o.owner == "" || !o.monitor.IsOnline() {
		o.mu.Unlock()
		return false, nil
	}
	o.state = StateSyncing
	owner := o.owner
	o.mu.Unlock()

	o.log.Debug(ctx, "sync started", "owner", owner)
	summary, err := o.run(ctx, owner)

	o.mu.Lock()
	if err != nil {
		o.state = StateError
		o.lastError = err.Error()
	} else {
		o.state = StateIdle
		o.lastError = ""
		o.lastSync = o.now()
		o.lastRun = summary
	}
	lastSync := o.lastSync
	o.mu.Unlock()

	if err != nil {
		o.log.Error(ctx, "sync failed", "error", err)
	} else {
		o.log.Info(ctx, "sync finished",
			"pushed", summary.Pushed, "failed", summary.Failed, "merged", summary.Merged, "pruned", summary.Pruned)
		if serr := o.stores.Metadata.SetTime(ctx, metadata.KeyLastSyncTime, lastSync); serr != nil {
			o.log.Warn(ctx, "failed to persist last sync time", "error", serr)
		}
	}

	if _, cerr := o.RefreshPendingCount(ctx); cerr != nil {
		o.log.Warn(ctx, "failed to refresh pending count", "error", cerr)
	}
	return true, err
}

func (o *Orchestrator) run(ctx context.Context, owner string) (RunSummary, error) {
	o.pushMu.Lock()
	defer o.pushMu.Unlock()

	var summary RunSummary
	if err := o.push(ctx, owner, &summary); err != nil {
		return summary, err
	}
	if err := o.pull(ctx, owner, &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// Exclusive runs fn while no batch sync or other push is in flight.
func (o *Orchestrator) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	o.pushMu.Lock()
	defer o.pushMu.Unlock()
	return fn(ctx)
}

// RefreshPendingCount recounts the owner's dirty records.
func (o *Orchestrator) RefreshPendingCount(ctx context.Context) (int, error) {
	owner := o.Owner()
	if owner == "" {
		return 0, nil
	}

	total := 0
	for _, k := range o.kinds {
		list, err := k.ListPendingSync(ctx, owner)
		if err != nil {
			return 0, err
		}
		total += len(list)
	}

	o.mu.Lock()
	o.pending = total
	o.mu.Unlock()
	return total, nil
}

// RetryFailed makes the owner's sync_error records eligible again.
func (o *Orchestrator) RetryFailed(ctx context.Context) (int, error) {
	owner := o.Owner()
	if owner == "" {
		return 0, nil
	}

	n := 0
	for _, k := range o.kinds {
		failed, err := k.ListByStatus(ctx, owner, models.SyncStatusError)
		if err != nil {
			return n, err
		}
		for _, rec := range failed {
			if err := k.SetStatus(ctx, rec.GetID(), models.SyncStatusPending); err != nil {
				return n, err
			}
			if err := o.stores.Queue.ResetAttempts(ctx, k.Type(), rec.GetID()); err != nil {
				return n, err
			}
			n++
		}
	}

	if _, err := o.RefreshPendingCount(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Failure is a record parked in sync_error with its queue history.
type Failure struct {
	Type      models.EntityType
	ID        string
	Attempts  int
	LastError string
}

// Failures lists the owner's sync_error records with their attempt count and
// the last error the remote authority reported.
func (o *Orchestrator) Failures(ctx context.Context) ([]Failure, error) {
	owner := o.Owner()
	if owner == "" {
		return nil, nil
	}

	var out []Failure
	for _, k := range o.kinds {
		failed, err := k.ListByStatus(ctx, owner, models.SyncStatusError)
		if err != nil {
			return nil, err
		}
		for _, rec := range failed {
			f := Failure{Type: k.Type(), ID: rec.GetID()}
			items, err := o.stores.Queue.ListByEntity(ctx, k.Type(), rec.GetID())
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				f.Attempts = max(f.Attempts, it.Attempts)
				if it.LastError != "" {
					f.LastError = it.LastError
				}
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// Start subscribes to connectivity changes before returning and then drives
// the orchestrator in the background until ctx is done: every
// offline→online edge triggers exactly one sync, and a periodic tick
// refreshes the pending count. Call it before the first connectivity check so the
// startup edge is not missed. The returned channel closes when the loop
// exits.
func (o *Orchestrator) Start(ctx context.Context) <-chan struct{} {
	edges, cancel := o.monitor.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		o.watch(ctx, edges)
	}()
	return done
}

func (o *Orchestrator) watch(ctx context.Context, edges <-chan bool) {
	ticker := time.NewTicker(o.opts.PendingRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case online, ok := <-edges:
			if !ok {
				return
			}
			if online {
				if _, err := o.SyncAll(ctx); err != nil {
					o.log.Debug(ctx, "sync on reconnect failed", "error", err)
				}
			}
		case <-ticker.C:
			if _, err := o.RefreshPendingCount(ctx); err != nil {
				o.log.Warn(ctx, "failed to refresh pending count", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Package services contains the application services of the ExpenseHub
// client. Entity services write through the local store first and push to
// the remote authority opportunistically; the auth service manages the
// locally persisted session.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/expensehub/internal/logging"
)

// Syncer is the part of syncer.Orchestrator the services depend on.
type Syncer interface {
	SyncAll(ctx context.Context) (bool, error)
	// Exclusive runs fn while no other push to the remote authority is in flight.
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
}

// Connectivity is the part of connectivity.Monitor the services read.
type Connectivity interface {
	IsOnline() bool
	ReportUnavailable()
}

type deps struct {
	client  client.Client
	queue   syncqueue.Repository
	syncer  Syncer
	monitor Connectivity
	log     logging.Logger
	now     func() time.Time
}

func newDeps(c client.Client, q syncqueue.Repository, s Syncer, m Connectivity, log logging.Logger) deps {
	if log == nil {
		log = logging.Nop()
	}
	return deps{
		client:  c,
		queue:   q,
		syncer:  s,
		monitor: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// pushFailed logs a failed immediate push. The record stays pending and the
// next sync cycle picks it up.
func (d deps) pushFailed(ctx context.Context, what, id string, err error) {
	if errors.Is(err, client.ErrUnavailable) {
		d.monitor.ReportUnavailable()
	}
	d.log.Debug(ctx, "immediate push failed", "op", what, "id", id, "error", err)
}

// refresh runs a sync before a read when online. Failures only get logged:
// reads are always served locally.
func (d deps) refresh(ctx context.Context) {
	if !d.monitor.IsOnline() {
		return
	}
	if _, err := d.syncer.SyncAll(ctx); err != nil {
		d.log.Debug(ctx, "sync before load failed", "error", err)
	}
}

// enqueue logs a local mutation in the sync queue.
func (d deps) enqueue(ctx context.Context, entityType models.EntityType, id string, op api.Operation, payload any) error {
	item := &models.QueueItem{EntityType: entityType, EntityID: id, Operation: op, CreatedAt: d.now()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode queue payload: %w", err)
		}
		item.Payload = data
	}
	_, err := d.queue.Append(ctx, item)
	return err
}

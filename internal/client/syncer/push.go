package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/common"
)

// sentOp is the snapshot of a record as it was submitted in a batch.
type sentOp struct {
	kind entityKind
	rec  models.Record
	op   api.Operation
}

type opKey struct {
	entityType models.EntityType
	id         string
}

func (o *Orchestrator) push(ctx context.Context, owner string, summary *RunSummary) error {
	var req api.BatchSyncRequest
	sent := make(map[opKey]sentOp)

	for _, k := range o.kinds {
		pending, err := k.ListPendingSync(ctx, owner)
		if err != nil {
			return fmt.Errorf("list pending %s: %w", k.Type(), err)
		}

		for _, rec := range pending {
			op := models.InferOperation(rec)

			// never reached the server, nothing to delete remotely
			if op == api.OperationDelete && models.IsLocalID(rec.GetID()) {
				if err := o.forget(ctx, k, rec.GetID()); err != nil {
					return err
				}
				summary.Purged++
				continue
			}

			if r, ok := rec.(*models.Receipt); ok && op == api.OperationCreate {
				if err := o.uploadImage(ctx, r); err != nil {
					if errors.Is(err, client.ErrUnavailable) {
						o.monitor.ReportUnavailable()
						return fmt.Errorf("upload receipt image: %w", err)
					}
					o.log.Warn(ctx, "receipt image upload failed", "id", r.ID, "error", err)
					if ferr := o.recordFailure(ctx, k, rec, op, err.Error()); ferr != nil {
						return ferr
					}
					summary.Skipped++
					continue
				}
			}

			item := api.SyncOp{Operation: op, EntityID: rec.GetID()}
			if op != api.OperationDelete {
				data, err := json.Marshal(k.Payload(rec))
				if err != nil {
					return fmt.Errorf("encode %s %s: %w", k.Type(), rec.GetID(), err)
				}
				item.Data = data
			}

			switch k.Type() {
			case models.EntityTypeReceipt:
				req.Receipts = append(req.Receipts, item)
			case models.EntityTypeTimeEntry:
				req.TimeEntries = append(req.TimeEntries, item)
			}
			sent[opKey{k.Type(), rec.GetID()}] = sentOp{kind: k, rec: rec, op: op}
		}
	}

	if len(sent) == 0 {
		return nil
	}

	o.log.Debug(ctx, "submitting batch", "receipts", len(req.Receipts), "time_entries", len(req.TimeEntries))
	resp, err := o.client.BatchSync(ctx, &req)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			o.monitor.ReportUnavailable()
		}
		return fmt.Errorf("batch sync: %w", err)
	}

	results := make([]api.SyncResult, 0, len(resp.Results)+len(resp.Errors))
	results = append(results, resp.Results...)
	results = append(results, resp.Errors...)

	handled := make(map[opKey]bool, len(sent))
	for _, res := range results {
		key := opKey{models.EntityType(res.EntityType), res.SubmittedID()}
		s, ok := sent[key]
		if !ok || handled[key] {
			o.log.Warn(ctx, "ignoring unexpected sync result", "entity_type", res.EntityType, "id", res.SubmittedID())
			continue
		}
		handled[key] = true

		if res.Success {
			if err := o.applySuccess(ctx, s, res); err != nil {
				return err
			}
			summary.Pushed++
			continue
		}

		msg := res.Error
		if msg == "" {
			msg = "operation failed"
		}
		if err := o.recordFailure(ctx, s.kind, s.rec, s.op, msg); err != nil {
			return err
		}
		summary.Failed++
	}

	for key, s := range sent {
		if handled[key] {
			continue
		}
		if err := o.recordFailure(ctx, s.kind, s.rec, s.op, "no result reported"); err != nil {
			return err
		}
		summary.Failed++
	}
	return nil
}

func (o *Orchestrator) applySuccess(ctx context.Context, s sentOp, res api.SyncResult) error {
	k := s.kind
	id := s.rec.GetID()

	switch s.op {
	case api.OperationDelete:
		return o.forget(ctx, k, id)

	case api.OperationCreate:
		serverID := res.EntityID
		if serverID == "" {
			return o.recordFailure(ctx, k, s.rec, s.op, "server returned no id")
		}
		if serverID == id {
			if _, err := k.MarkSynced(ctx, id, s.rec.GetUpdatedAt()); err != nil {
				return err
			}
			return o.stores.Queue.RemoveByEntity(ctx, k.Type(), id)
		}
		if err := k.ReplaceID(ctx, id, serverID); err != nil {
			return fmt.Errorf("remap %s %s: %w", k.Type(), id, err)
		}
		// edited while the create was in flight: push the newer state next time
		cur, err := k.Get(ctx, serverID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if err == nil && !cur.GetUpdatedAt().Equal(s.rec.GetUpdatedAt()) {
			if err := k.SetStatus(ctx, serverID, models.SyncStatusPending); err != nil {
				return err
			}
		}
		return o.stores.Queue.RemoveByEntity(ctx, k.Type(), id)

	default:
		synced, err := k.MarkSynced(ctx, id, s.rec.GetUpdatedAt())
		if err != nil {
			return err
		}
		if !synced {
			o.log.Debug(ctx, "record changed during sync, keeping it pending", "entity_type", k.Type(), "id", id)
		}
		return o.stores.Queue.RemoveByEntity(ctx, k.Type(), id)
	}
}

// forget purges an acknowledged (or never submitted) tombstone.
func (o *Orchestrator) forget(ctx context.Context, k entityKind, id string) error {
	if err := k.Purge(ctx, id); err != nil {
		return err
	}
	return o.stores.Queue.RemoveByEntity(ctx, k.Type(), id)
}

func (o *Orchestrator) recordFailure(ctx context.Context, k entityKind, rec models.Record, op api.Operation, msg string) error {
	id := rec.GetID()
	attempts, err := o.stores.Queue.RecordAttempt(ctx, k.Type(), id, msg, o.now())
	if err != nil {
		return err
	}
	if attempts == 0 {
		// queued under an id that has since been remapped
		item := &models.QueueItem{EntityType: k.Type(), EntityID: id, Operation: op, CreatedAt: o.now()}
		if _, err := o.stores.Queue.Append(ctx, item); err != nil {
			return err
		}
		if attempts, err = o.stores.Queue.RecordAttempt(ctx, k.Type(), id, msg, o.now()); err != nil {
			return err
		}
	}

	o.log.Warn(ctx, "sync operation failed",
		"entity_type", k.Type(), "id", id, "operation", op, "attempts", attempts, "error", msg)

	if o.opts.MaxAttempts > 0 && attempts >= o.opts.MaxAttempts {
		if err := k.SetStatus(ctx, id, models.SyncStatusError); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
	}
	return nil
}

// uploadImage pushes a captured receipt image to blob storage so the create
// can carry its BlobURL.
func (o *Orchestrator) uploadImage(ctx context.Context, r *models.Receipt) error {
	if len(r.LocalImage) == 0 || r.BlobURL != "" {
		return nil
	}
	blobURL, err := client.UploadReceiptImage(ctx, o.client, r.LocalImage, o.now())
	if err != nil {
		return err
	}
	if err := o.stores.Receipts.AttachBlob(ctx, r.ID, blobURL); err != nil {
		return err
	}
	r.BlobURL = blobURL
	r.LocalImage = nil
	return nil
}

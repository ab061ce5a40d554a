package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/logging"
)

// SyncService applies client batches. Operations are independent: one
// failing never stops or rolls back the others.
type SyncService struct {
	records *RecordService
	logger  logging.Logger
}

func NewSyncService(records *RecordService, logger logging.Logger) *SyncService {
	return &SyncService{records: records, logger: logger}
}

// Batch applies every receipt operation, then every time entry operation,
// in request order. Successful results go to Results and failures to Errors;
// any failure clears Success.
func (s *SyncService) Batch(ctx context.Context, ownerID string, req *api.BatchSyncRequest) *api.BatchSyncResponse {
	resp := &api.BatchSyncResponse{
		Success: true,
		Results: []api.SyncResult{},
		Errors:  []api.SyncResult{},
	}

	for _, op := range req.Receipts {
		s.collect(ctx, resp, ownerID, common.EntityTypeReceipt, op, s.applyReceipt)
	}
	for _, op := range req.TimeEntries {
		s.collect(ctx, resp, ownerID, common.EntityTypeTimeEntry, op, s.applyTimeEntry)
	}
	return resp
}

type applyFunc func(ctx context.Context, ownerID string, op api.SyncOp) (api.SyncResult, error)

func (s *SyncService) collect(ctx context.Context, resp *api.BatchSyncResponse, ownerID, entityType string,
	op api.SyncOp, apply applyFunc) {

	res, err := apply(ctx, ownerID, op)
	if err != nil {
		s.logger.Warn(ctx, "sync operation failed",
			"entity_type", entityType, "id", op.EntityID, "operation", op.Operation, "error", err)
		resp.Errors = append(resp.Errors, api.SyncResult{
			EntityType: entityType,
			EntityID:   op.EntityID,
			Operation:  op.Operation,
			Success:    false,
			Error:      err.Error(),
		})
		resp.Success = false
		return
	}
	res.EntityType = entityType
	res.Operation = op.Operation
	res.Success = true
	resp.Results = append(resp.Results, res)
}

func (s *SyncService) applyReceipt(ctx context.Context, ownerID string, op api.SyncOp) (api.SyncResult, error) {
	switch op.Operation {
	case api.OperationCreate, api.OperationUpdate:
		var p api.ReceiptPayload
		if err := decodeData(op.Data, &p); err != nil {
			return api.SyncResult{}, err
		}

		var (
			r   *api.Receipt
			err error
		)
		if op.Operation == api.OperationCreate {
			r, err = s.records.CreateReceipt(ctx, ownerID, p)
		} else {
			r, err = s.records.UpdateReceipt(ctx, ownerID, op.EntityID, p)
		}
		if err != nil {
			return api.SyncResult{}, err
		}
		return withServerData(op, r.ID, r)

	case api.OperationDelete:
		if err := s.records.DeleteReceipt(ctx, ownerID, op.EntityID); err != nil {
			return api.SyncResult{}, err
		}
		return api.SyncResult{EntityID: op.EntityID}, nil

	default:
		return api.SyncResult{}, fmt.Errorf("%w: %s", common.ErrorUnknownOperation, op.Operation)
	}
}

func (s *SyncService) applyTimeEntry(ctx context.Context, ownerID string, op api.SyncOp) (api.SyncResult, error) {
	switch op.Operation {
	case api.OperationCreate, api.OperationUpdate:
		var p api.TimeEntryPayload
		if err := decodeData(op.Data, &p); err != nil {
			return api.SyncResult{}, err
		}

		var (
			e   *api.TimeEntry
			err error
		)
		if op.Operation == api.OperationCreate {
			e, err = s.records.CreateTimeEntry(ctx, ownerID, p)
		} else {
			e, err = s.records.UpdateTimeEntry(ctx, ownerID, op.EntityID, p)
		}
		if err != nil {
			return api.SyncResult{}, err
		}
		return withServerData(op, e.ID, e)

	case api.OperationDelete:
		if err := s.records.DeleteTimeEntry(ctx, ownerID, op.EntityID); err != nil {
			return api.SyncResult{}, err
		}
		return api.SyncResult{EntityID: op.EntityID}, nil

	default:
		return api.SyncResult{}, fmt.Errorf("%w: %s", common.ErrorUnknownOperation, op.Operation)
	}
}

// withServerData builds the result of a create or update. Creates report
// the new id and echo the submitted one as LocalID.
func withServerData(op api.SyncOp, serverID string, data any) (api.SyncResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return api.SyncResult{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	res := api.SyncResult{EntityID: serverID, ServerData: raw}
	if op.Operation == api.OperationCreate {
		res.LocalID = op.EntityID
	}
	return res, nil
}

func decodeData(data json.RawMessage, dst any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: malformed data: %v", common.ErrorValidation, err)
	}
	return nil
}

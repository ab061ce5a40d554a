// Package clienttest provides an in-memory remote authority implementing
// client.Client for tests.
package clienttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/common"
)

// Fake keeps one owner's records in memory and answers like the real server.
// Hooks and error fields let tests inject failures.
type Fake struct {
	mu sync.Mutex

	Owner       string
	Receipts    map[string]api.Receipt
	TimeEntries map[string]api.TimeEntry

	// NextIDs are handed out to creates before falling back to a counter.
	NextIDs []string
	counter int

	// FailIDs makes batch operations on the given submitted ids fail with the message.
	FailIDs map[string]string
	// DropIDs makes batch operations on the given submitted ids vanish from the response.
	DropIDs map[string]bool

	PingErr      error
	BatchErr     error
	ListErr      error
	WriteErr     error
	UploadURLErr error
	UploadErr    error

	// BeforeBatch runs before a batch is processed, outside the fake's lock.
	BeforeBatch func(req *api.BatchSyncRequest)

	BatchCalls int
	Batches    []api.BatchSyncRequest
	Uploads    map[string][]byte
	Token      string
}

var _ client.Client = (*Fake)(nil)

func New(owner string) *Fake {
	return &Fake{
		Owner:       owner,
		Receipts:    make(map[string]api.Receipt),
		TimeEntries: make(map[string]api.TimeEntry),
		FailIDs:     make(map[string]string),
		DropIDs:     make(map[string]bool),
		Uploads:     make(map[string][]byte),
	}
}

func (f *Fake) nextID() string {
	if len(f.NextIDs) > 0 {
		id := f.NextIDs[0]
		f.NextIDs = f.NextIDs[1:]
		return id
	}
	f.counter++
	return fmt.Sprintf("srv-%d", f.counter)
}

func now() time.Time { return time.Now().UTC() }

func (f *Fake) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingErr
}

func (f *Fake) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Token = token
}

func (f *Fake) Close() error { return nil }

func applyReceipt(r *api.Receipt, p api.ReceiptPayload) {
	if p.BlobURL != nil {
		r.BlobURL = *p.BlobURL
	}
	if p.MerchantName != nil {
		r.MerchantName = *p.MerchantName
	}
	if p.TransactionDate != nil {
		r.TransactionDate = p.TransactionDate
	}
	if p.TotalAmount != nil {
		r.TotalAmount = p.TotalAmount
	}
	if p.Currency != nil {
		r.Currency = *p.Currency
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
}

func applyTimeEntry(e *api.TimeEntry, p api.TimeEntryPayload) {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Hours != nil {
		e.Hours = *p.Hours
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Project != nil {
		e.Project = *p.Project
	}
}

func (f *Fake) createReceipt(p api.ReceiptPayload) api.Receipt {
	ts := now()
	r := api.Receipt{ID: f.nextID(), OwnerID: f.Owner, Currency: "USD", OcrStatus: "completed", CreatedAt: ts, UpdatedAt: ts}
	applyReceipt(&r, p)
	if r.BlobURL != "" {
		r.OcrStatus = "pending"
	}
	f.Receipts[r.ID] = r
	return r
}

func (f *Fake) updateReceipt(id string, p api.ReceiptPayload) (api.Receipt, error) {
	r, ok := f.Receipts[id]
	if !ok {
		return api.Receipt{}, common.ErrorNotFound
	}
	applyReceipt(&r, p)
	r.UpdatedAt = now()
	f.Receipts[id] = r
	return r, nil
}

func (f *Fake) createTimeEntry(p api.TimeEntryPayload) api.TimeEntry {
	ts := now()
	e := api.TimeEntry{ID: f.nextID(), OwnerID: f.Owner, CreatedAt: ts, UpdatedAt: ts}
	applyTimeEntry(&e, p)
	f.TimeEntries[e.ID] = e
	return e
}

func (f *Fake) updateTimeEntry(id string, p api.TimeEntryPayload) (api.TimeEntry, error) {
	e, ok := f.TimeEntries[id]
	if !ok {
		return api.TimeEntry{}, common.ErrorNotFound
	}
	applyTimeEntry(&e, p)
	e.UpdatedAt = now()
	f.TimeEntries[id] = e
	return e, nil
}

func (f *Fake) BatchSync(ctx context.Context, req *api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
	f.mu.Lock()
	f.BatchCalls++
	f.Batches = append(f.Batches, *req)
	hook := f.BeforeBatch
	batchErr := f.BatchErr
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if batchErr != nil {
		return nil, batchErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &api.BatchSyncResponse{Success: true}
	record := func(res api.SyncResult, err error) {
		if f.DropIDs[res.SubmittedID()] {
			return
		}
		if err != nil {
			res.Success = false
			res.Error = err.Error()
			resp.Errors = append(resp.Errors, res)
			resp.Success = false
			return
		}
		res.Success = true
		resp.Results = append(resp.Results, res)
	}

	for _, op := range req.Receipts {
		res := api.SyncResult{EntityType: common.EntityTypeReceipt, EntityID: op.EntityID, Operation: op.Operation}
		if msg, ok := f.FailIDs[op.EntityID]; ok {
			record(res, errors.New(msg))
			continue
		}
		var p api.ReceiptPayload
		if len(op.Data) > 0 {
			_ = json.Unmarshal(op.Data, &p)
		}
		var err error
		switch op.Operation {
		case api.OperationCreate:
			r := f.createReceipt(p)
			res.LocalID = op.EntityID
			res.EntityID = r.ID
			res.ServerData, _ = json.Marshal(r)
		case api.OperationUpdate:
			var r api.Receipt
			if r, err = f.updateReceipt(op.EntityID, p); err == nil {
				res.ServerData, _ = json.Marshal(r)
			}
		case api.OperationDelete:
			if _, ok := f.Receipts[op.EntityID]; !ok {
				err = common.ErrorNotFound
			}
			delete(f.Receipts, op.EntityID)
		default:
			err = common.ErrorUnknownOperation
		}
		record(res, err)
	}

	for _, op := range req.TimeEntries {
		res := api.SyncResult{EntityType: common.EntityTypeTimeEntry, EntityID: op.EntityID, Operation: op.Operation}
		if msg, ok := f.FailIDs[op.EntityID]; ok {
			record(res, errors.New(msg))
			continue
		}
		var p api.TimeEntryPayload
		if len(op.Data) > 0 {
			_ = json.Unmarshal(op.Data, &p)
		}
		var err error
		switch op.Operation {
		case api.OperationCreate:
			e := f.createTimeEntry(p)
			res.LocalID = op.EntityID
			res.EntityID = e.ID
			res.ServerData, _ = json.Marshal(e)
		case api.OperationUpdate:
			var e api.TimeEntry
			if e, err = f.updateTimeEntry(op.EntityID, p); err == nil {
				res.ServerData, _ = json.Marshal(e)
			}
		case api.OperationDelete:
			if _, ok := f.TimeEntries[op.EntityID]; !ok {
				err = common.ErrorNotFound
			}
			delete(f.TimeEntries, op.EntityID)
		default:
			err = common.ErrorUnknownOperation
		}
		record(res, err)
	}

	return resp, nil
}

func (f *Fake) ListReceipts(ctx context.Context) ([]api.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]api.Receipt, 0, len(f.Receipts))
	for _, r := range f.Receipts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) ListTimeEntries(ctx context.Context) ([]api.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]api.TimeEntry, 0, len(f.TimeEntries))
	for _, e := range f.TimeEntries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) CreateReceipt(ctx context.Context, p api.ReceiptPayload) (*api.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	r := f.createReceipt(p)
	return &r, nil
}

func (f *Fake) UpdateReceipt(ctx context.Context, id string, p api.ReceiptPayload) (*api.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	r, err := f.updateReceipt(id, p)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *Fake) DeleteReceipt(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if _, ok := f.Receipts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.Receipts, id)
	return nil
}

func (f *Fake) CreateTimeEntry(ctx context.Context, p api.TimeEntryPayload) (*api.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	e := f.createTimeEntry(p)
	return &e, nil
}

func (f *Fake) UpdateTimeEntry(ctx context.Context, id string, p api.TimeEntryPayload) (*api.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	e, err := f.updateTimeEntry(id, p)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (f *Fake) DeleteTimeEntry(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if _, ok := f.TimeEntries[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.TimeEntries, id)
	return nil
}

func (f *Fake) GetUploadURL(ctx context.Context, fileName string) (*api.UploadURL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadURLErr != nil {
		return nil, f.UploadURLErr
	}
	return &api.UploadURL{
		UploadURL: "https://blob.test/upload/" + fileName,
		BlobURL:   "https://blob.test/" + fileName,
		ExpiresAt: now().Add(time.Hour),
	}, nil
}

func (f *Fake) UploadBlob(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return f.UploadErr
	}
	f.Uploads[uploadURL] = append([]byte(nil), data...)
	return nil
}

// Calls returns the number of batch requests received so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BatchCalls
}

func (f *Fake) PutReceipt(r api.Receipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Receipts[r.ID] = r
}

func (f *Fake) PutTimeEntry(e api.TimeEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TimeEntries[e.ID] = e
}

func (f *Fake) SetBatchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchErr = err
}

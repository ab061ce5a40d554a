// Package httpapi exposes the remote authority over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/logging"
	"github.com/dmitrijs2005/expensehub/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type RecordService interface {
	ListReceipts(ctx context.Context, ownerID string) ([]api.Receipt, error)
	GetReceipt(ctx context.Context, ownerID, id string) (*api.Receipt, error)
	CreateReceipt(ctx context.Context, ownerID string, p api.ReceiptPayload) (*api.Receipt, error)
	UpdateReceipt(ctx context.Context, ownerID, id string, p api.ReceiptPayload) (*api.Receipt, error)
	DeleteReceipt(ctx context.Context, ownerID, id string) error

	ListTimeEntries(ctx context.Context, ownerID string) ([]api.TimeEntry, error)
	GetTimeEntry(ctx context.Context, ownerID, id string) (*api.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, ownerID string, p api.TimeEntryPayload) (*api.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, ownerID, id string, p api.TimeEntryPayload) (*api.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, ownerID, id string) error
}

type SyncService interface {
	Batch(ctx context.Context, ownerID string, req *api.BatchSyncRequest) *api.BatchSyncResponse
}

type BlobService interface {
	UploadURL(ctx context.Context, ownerID, fileName string) (*api.UploadURL, error)
}

type Handler struct {
	records RecordService
	sync    SyncService
	blobs   BlobService
	logger  logging.Logger
}

func NewHandler(records RecordService, sync SyncService, blobs BlobService, logger logging.Logger) *Handler {
	return &Handler{records: records, sync: sync, blobs: blobs, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into dst and validates it. It writes the 400
// itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := services.Validate(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	list, err := h.records.ListReceipts(r.Context(), OwnerID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.GetReceipt(r.Context(), OwnerID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var p api.ReceiptPayload
	if !h.decode(w, r, &p) {
		return
	}
	rec, err := h.records.CreateReceipt(r.Context(), OwnerID(r.Context()), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) UpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var p api.ReceiptPayload
	if !h.decode(w, r, &p) {
		return
	}
	rec, err := h.records.UpdateReceipt(r.Context(), OwnerID(r.Context()), mux.Vars(r)["id"], p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteReceipt(r.Context(), OwnerID(r.Context()), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req api.UploadURLRequest
	if !h.decode(w, r, &req) {
		return
	}
	u, err := h.blobs.UploadURL(r.Context(), OwnerID(r.Context()), req.FileName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	list, err := h.records.ListTimeEntries(r.Context(), OwnerID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.records.GetTimeEntry(r.Context(), OwnerID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var p api.TimeEntryPayload
	if !h.decode(w, r, &p) {
		return
	}
	e, err := h.records.CreateTimeEntry(r.Context(), OwnerID(r.Context()), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var p api.TimeEntryPayload
	if !h.decode(w, r, &p) {
		return
	}
	e, err := h.records.UpdateTimeEntry(r.Context(), OwnerID(r.Context()), mux.Vars(r)["id"], p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteTimeEntry(r.Context(), OwnerID(r.Context()), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync applies a batch. Per-operation failures are reported in the body with
// a 200; only an unreadable batch is rejected.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req api.BatchSyncRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.sync.Batch(r.Context(), OwnerID(r.Context()), &req))
}

package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/expensehub/internal/logging"
	"github.com/gorilla/mux"
)

// NewRouter mounts the API under /api. Everything except the health probe
// requires a bearer token signed with secretKey.
func NewRouter(h *Handler, secretKey []byte, logger logging.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggerMiddleware(logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet, http.MethodHead)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(AuthMiddleware(secretKey), recordOwner)

	protected.HandleFunc("/sync", h.Sync).Methods(http.MethodPost)

	protected.HandleFunc("/receipts", h.ListReceipts).Methods(http.MethodGet)
	protected.HandleFunc("/receipts", h.CreateReceipt).Methods(http.MethodPost)
	protected.HandleFunc("/receipts/upload-url", h.UploadURL).Methods(http.MethodPost)
	protected.HandleFunc("/receipts/{id}", h.GetReceipt).Methods(http.MethodGet)
	protected.HandleFunc("/receipts/{id}", h.UpdateReceipt).Methods(http.MethodPut)
	protected.HandleFunc("/receipts/{id}", h.DeleteReceipt).Methods(http.MethodDelete)

	protected.HandleFunc("/time-entries", h.ListTimeEntries).Methods(http.MethodGet)
	protected.HandleFunc("/time-entries", h.CreateTimeEntry).Methods(http.MethodPost)
	protected.HandleFunc("/time-entries/{id}", h.GetTimeEntry).Methods(http.MethodGet)
	protected.HandleFunc("/time-entries/{id}", h.UpdateTimeEntry).Methods(http.MethodPut)
	protected.HandleFunc("/time-entries/{id}", h.DeleteTimeEntry).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

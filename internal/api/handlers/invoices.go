package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/api/middleware"
	"github.com/ovoda/invoice-tracker/internal/dashboard"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/export"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// DefaultInvoiceLimit caps GET /api/invoices when no limit is given.
const DefaultInvoiceLimit = 100

// InvoicesHandler serves stored invoices, their export and the dashboard.
type InvoicesHandler struct {
	repo store.InvoiceRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewInvoicesHandler creates a new invoices handler.
func NewInvoicesHandler(repo store.InvoiceRepository, log zerolog.Logger) *InvoicesHandler {
	return &InvoicesHandler{repo: repo, log: log, now: time.Now}
}

// ListInvoices handles GET /api/invoices
func (h *InvoicesHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	filter, err := parseInvoiceFilter(r, DefaultInvoiceLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	invoices, err := h.repo.ListInvoices(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list invoices")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list invoices")
		return
	}
	if invoices == nil {
		invoices = []*store.InvoiceRow{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// GetInvoice handles GET /api/invoices/{id}
func (h *InvoicesHandler) GetInvoice(w http.ResponseWriter, r *http.Request, invoiceID string) {
	invoice, err := h.repo.GetInvoice(r.Context(), invoiceID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("invoice_id", invoiceID).Msg("Failed to get invoice")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get invoice")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, invoice)
}

// ExportInvoices handles GET /api/invoices/export
// It accepts the same filters as ListInvoices without a default limit.
func (h *InvoicesHandler) ExportInvoices(w http.ResponseWriter, r *http.Request) {
	filter, err := parseInvoiceFilter(r, 0)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	invoices, err := h.repo.ListInvoices(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list invoices for export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export invoices")
		return
	}

	now := h.now()
	agg := dashboard.Build(store.Records(invoices), now)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="invoices-`+now.Format("2006-01-02")+`.xlsx"`)
	if err := export.WriteInvoicesXLSX(w, invoices, agg); err != nil {
		// Headers are already sent; all we can do is log.
		h.log.Error().Err(err).Msg("Failed to write xlsx export")
	}
}

// Dashboard handles GET /api/dashboard
// An optional now query parameter (RFC3339) fixes the reference time.
func (h *InvoicesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	if v := r.URL.Query().Get("now"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "now must be an RFC3339 timestamp")
			return
		}
		now = t
	}

	filter := store.InvoiceFilter{}
	if org := r.URL.Query().Get("organization"); org != "" {
		if !domain.Organization(org).Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid organization")
			return
		}
		filter.Organization = org
	}

	invoices, err := h.repo.ListInvoices(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list invoices for dashboard")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dashboard.Build(store.Records(invoices), now))
}

// parseInvoiceFilter reads organization, invoice_type, start_date,
// end_date (YYYY-MM-DD, end inclusive) and limit from the query string.
func parseInvoiceFilter(r *http.Request, defaultLimit int) (store.InvoiceFilter, error) {
	q := r.URL.Query()
	filter := store.InvoiceFilter{
		DocumentID: q.Get("document_id"),
		Limit:      defaultLimit,
	}

	if org := q.Get("organization"); org != "" {
		if !domain.Organization(org).Valid() {
			return filter, errors.New("Invalid organization")
		}
		filter.Organization = org
	}
	if typ := q.Get("invoice_type"); typ != "" {
		if !domain.InvoiceType(typ).Valid() {
			return filter, errors.New("Invalid invoice_type")
		}
		filter.InvoiceType = typ
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("start_date must be YYYY-MM-DD")
		}
		filter.UploadedFrom = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("end_date must be YYYY-MM-DD")
		}
		filter.UploadedTo = t.AddDate(0, 0, 1)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

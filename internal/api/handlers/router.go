package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/api/middleware"
)

// Handlers bundles every endpoint group served by the API.
type Handlers struct {
	Documents  *DocumentsHandler
	Invoices   *InvoicesHandler
	Extract    *ExtractHandler
	Categories *CategoriesHandler
	Jobs       *JobsHandler
}

// NewRouter registers the API routes and wraps them in the middleware
// chain. An empty apiToken disables authentication.
func NewRouter(h Handlers, apiToken string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Documents endpoints
	mux.HandleFunc("/api/documents", method(http.MethodGet, h.Documents.ListDocuments))
	mux.HandleFunc("/api/documents/upload-url", method(http.MethodPost, h.Documents.CreateUploadURL))
	mux.HandleFunc("/api/documents/upload/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		documentID := strings.TrimPrefix(r.URL.Path, "/api/documents/upload/")
		if documentID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Document ID is required")
			return
		}
		h.Documents.UploadDocument(w, r, documentID)
	})
	mux.HandleFunc("/api/documents/parse", method(http.MethodPost, h.Documents.EnqueueParsing))

	mux.HandleFunc("/api/extract", method(http.MethodPost, h.Extract.Extract))

	// Invoices endpoints
	mux.HandleFunc("/api/invoices", method(http.MethodGet, h.Invoices.ListInvoices))
	mux.HandleFunc("/api/invoices/export", method(http.MethodGet, h.Invoices.ExportInvoices))
	mux.HandleFunc("/api/invoices/", withID("/api/invoices/", "Invoice ID is required", h.Invoices.GetInvoice))
	mux.HandleFunc("/api/dashboard", method(http.MethodGet, h.Invoices.Dashboard))

	mux.HandleFunc("/api/categories", method(http.MethodGet, h.Categories.ListCategories))

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", method(http.MethodGet, h.Jobs.ListJobs))
	mux.HandleFunc("/api/jobs/", withID("/api/jobs/", "Job ID is required", h.Jobs.GetJob))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth(apiToken)(mux),
				),
			),
		),
	)
}

func method(m string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}

func withID(prefix, missing string, fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusBadRequest, missing)
			return
		}
		fn(w, r, id)
	}
}

// Package store defines the storage-neutral rows and repository interfaces
// shared by the BigQuery and PostgreSQL backends.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a row looked up by ID does not exist.
var ErrNotFound = errors.New("not found")

// Parsing statuses shared by documents and parsing runs.
const (
	StatusPending    = "PENDING"
	StatusRunning    = "RUNNING"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
	StatusSuperseded = "SUPERSEDED"
)

// MaxErrorMessageLen bounds the error text stored on a failed parsing run.
const MaxErrorMessageLen = 2000

// DocumentRepository provides document, parsing run and model output
// operations.
type DocumentRepository interface {
	// InsertDocument inserts a single DocumentRow.
	InsertDocument(ctx context.Context, row *DocumentRow) error

	// GetDocument returns the document or ErrNotFound.
	GetDocument(ctx context.Context, documentID string) (*DocumentRow, error)

	// ListAllDocuments returns every document, newest upload first.
	ListAllDocuments(ctx context.Context) ([]*DocumentRow, error)

	// FindDocumentByChecksum returns nil when no document has the checksum.
	FindDocumentByChecksum(ctx context.Context, checksum string) (*DocumentRow, error)

	// UpdateDocumentStatus sets parsing_status and, when non-empty, text_gcs_uri.
	UpdateDocumentStatus(ctx context.Context, documentID, status, textGCSURI string) error

	// DeleteDocument removes a document and everything derived from it.
	DeleteDocument(ctx context.Context, documentID string) error

	// StartParsingRun inserts a RUNNING parsing run and returns its ID.
	StartParsingRun(ctx context.Context, documentID, parserType string) (string, error)

	// MarkParsingRunFailed records the failure. Errors are logged, not returned.
	MarkParsingRunFailed(ctx context.Context, parsingRunID string, parseErr error)

	// MarkParsingRunSucceeded sets status=SUCCESS and finished_ts.
	MarkParsingRunSucceeded(ctx context.Context, parsingRunID string) error

	// MarkParsingRunsAsSuperseded marks every finished run of the document SUPERSEDED.
	MarkParsingRunsAsSuperseded(ctx context.Context, documentID string) error

	// ListParsingRuns returns the document's parsing runs, newest first.
	ListParsingRuns(ctx context.Context, documentID string) ([]*ParsingRunRow, error)

	// InsertModelOutput stores the raw output of one extraction pass.
	InsertModelOutput(ctx context.Context, row *ModelOutputRow) error
}

// InvoiceRepository provides invoice operations.
type InvoiceRepository interface {
	// InsertInvoice inserts a single InvoiceRow.
	InsertInvoice(ctx context.Context, row *InvoiceRow) error

	// GetInvoice returns the invoice or ErrNotFound.
	GetInvoice(ctx context.Context, invoiceID string) (*InvoiceRow, error)

	// ListInvoices returns invoices from successful parsing runs matching
	// filter, newest upload first.
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*InvoiceRow, error)
}

// CategoryRepository provides bookkeeping category operations.
type CategoryRepository interface {
	// ListActiveCategories returns all active categories.
	ListActiveCategories(ctx context.Context) ([]CategoryRow, error)
}

// Repository is everything a storage backend provides.
type Repository interface {
	DocumentRepository
	InvoiceRepository
	CategoryRepository
	Close() error
}

// InvoiceFilter narrows ListInvoices. Zero values match everything.
type InvoiceFilter struct {
	DocumentID   string
	Organization string
	InvoiceType  string
	// UploadedFrom and UploadedTo bound uploaded_at, inclusive and exclusive.
	UploadedFrom time.Time
	UploadedTo   time.Time
	Limit        int
}

// TruncateError returns err's message cut to MaxErrorMessageLen.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > MaxErrorMessageLen {
		msg = msg[:MaxErrorMessageLen]
	}
	return msg
}

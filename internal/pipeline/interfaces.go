package pipeline

import (
	"context"

	"github.com/ovoda/invoice-tracker/internal/store"
)

//go:generate mockgen -destination=mocks_test.go -package=pipeline github.com/ovoda/invoice-tracker/internal/pipeline StorageService,TextRecognizer,AIParser

// StorageService is an interface for storage operations.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	WriteToGCS(ctx context.Context, gcsURI, contentType string, data []byte) error
}

// TextRecognizer turns a scanned image into text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// AIParser re-reads the recognized text of an invoice with a language model.
type AIParser interface {
	// Name identifies the model, e.g. "gemini-2.5-flash".
	Name() string

	// ParseInvoice returns the model's JSON object for the invoice text.
	ParseInvoice(ctx context.Context, text string, categories []store.CategoryRow) (map[string]interface{}, error)
}

// Repository is the subset of store.Repository the pipeline writes to.
type Repository interface {
	store.DocumentRepository
	store.CategoryRepository
	InsertInvoice(ctx context.Context, row *store.InvoiceRow) error
}

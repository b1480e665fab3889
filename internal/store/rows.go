package store

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
)

// DocumentRow is one uploaded invoice scan or text file.
type DocumentRow struct {
	DocumentID       string              `json:"document_id"`
	UserID           string              `json:"user_id"`
	GCSURI           string              `json:"gcs_uri"`
	DocumentType     string              `json:"document_type"`
	SourceSystem     string              `json:"source_system"`
	Organization     domain.Organization `json:"organization"`
	UploadTS         time.Time           `json:"upload_ts"`
	ProcessedTS      *time.Time          `json:"processed_ts,omitempty"`
	ParsingStatus    string              `json:"parsing_status"`
	OriginalFilename string              `json:"original_filename"`
	FileMimeType     string              `json:"file_mime_type"`
	TextGCSURI       string              `json:"text_gcs_uri,omitempty"`
	ChecksumSHA256   string              `json:"checksum_sha256,omitempty"`
	Metadata         json.RawMessage     `json:"metadata,omitempty"`
}

// ParsingRunRow is one attempt at extracting an invoice from a document.
type ParsingRunRow struct {
	ParsingRunID  string     `json:"parsing_run_id"`
	DocumentID    string     `json:"document_id"`
	StartedTS     time.Time  `json:"started_ts"`
	FinishedTS    *time.Time `json:"finished_ts,omitempty"`
	ParserType    string     `json:"parser_type"`
	ParserVersion string     `json:"parser_version"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// ModelOutputRow keeps the raw output of one extraction pass.
type ModelOutputRow struct {
	OutputID      string          `json:"output_id"`
	ParsingRunID  string          `json:"parsing_run_id"`
	DocumentID    string          `json:"document_id"`
	ModelName     string          `json:"model_name"`
	ModelVersion  string          `json:"model_version,omitempty"`
	RawJSON       json.RawMessage `json:"raw_json"`
	ExtractedText string          `json:"extracted_text,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedTS     time.Time       `json:"created_ts"`
}

// InvoiceRow is a stored invoice. Optional fields stay empty or nil when
// extraction could not find them; MissingFields names the required ones.
type InvoiceRow struct {
	InvoiceID         string              `json:"invoice_id"`
	UserID            string              `json:"user_id"`
	DocumentID        string              `json:"document_id"`
	ParsingRunID      string              `json:"parsing_run_id"`
	Organization      domain.Organization `json:"organization"`
	InvoiceType       domain.InvoiceType  `json:"invoice_type,omitempty"`
	Partner           string              `json:"partner,omitempty"`
	BankAccount       string              `json:"bank_account,omitempty"`
	Subject           string              `json:"subject,omitempty"`
	InvoiceNumber     string              `json:"invoice_number,omitempty"`
	Amount            decimal.NullDecimal `json:"amount"`
	Currency          string              `json:"currency"`
	InvoiceDate       *civil.Date         `json:"invoice_date,omitempty"`
	PaymentDeadline   *civil.Date         `json:"payment_deadline,omitempty"`
	PaymentMethodText string              `json:"payment_method_text,omitempty"`
	CategoryID        string              `json:"category_id,omitempty"`
	MissingFields     []string            `json:"missing_fields,omitempty"`
	UploadedAt        time.Time           `json:"uploaded_at"`
	CreatedTS         time.Time           `json:"created_ts"`
}

// Record returns the dashboard view of the invoice. A missing amount
// counts as zero.
func (r *InvoiceRow) Record() domain.InvoiceRecord {
	return domain.InvoiceRecord{
		ID:           r.InvoiceID,
		Organization: r.Organization,
		InvoiceType:  r.InvoiceType,
		Partner:      r.Partner,
		Amount:       r.Amount.Decimal,
		UploadedAt:   r.UploadedAt,
	}
}

// Records converts rows to dashboard records, keeping their order.
func Records(rows []*InvoiceRow) []domain.InvoiceRecord {
	out := make([]domain.InvoiceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

// CategoryRow is one entry of the bookkeeping taxonomy.
type CategoryRow struct {
	CategoryID      string `json:"category_id"`
	CategoryName    string `json:"category_name"`
	SubcategoryName string `json:"subcategory_name,omitempty"`
	Slug            string `json:"slug"`
	IsActive        bool   `json:"is_active"`
}

package postgres

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// Document is the gorm model of the documents table.
type Document struct {
	DocumentID       string `gorm:"primaryKey;size:64"`
	UserID           string
	GCSURI           string `gorm:"column:gcs_uri;not null"`
	DocumentType     string `gorm:"not null"`
	SourceSystem     string
	Organization     string     `gorm:"index"`
	UploadTS         time.Time  `gorm:"column:upload_ts;not null;index"`
	ProcessedTS      *time.Time `gorm:"column:processed_ts"`
	ParsingStatus    string
	OriginalFilename string
	FileMimeType     string
	TextGCSURI       string `gorm:"column:text_gcs_uri"`
	ChecksumSHA256   string `gorm:"column:checksum_sha256;index"`
	Metadata         string `gorm:"type:text"`
}

// ParsingRun is the gorm model of the parsing_runs table.
type ParsingRun struct {
	ParsingRunID  string     `gorm:"primaryKey;size:64"`
	DocumentID    string     `gorm:"index;not null"`
	StartedTS     time.Time  `gorm:"column:started_ts;not null"`
	FinishedTS    *time.Time `gorm:"column:finished_ts"`
	ParserType    string
	ParserVersion string
	Status        string `gorm:"index"`
	ErrorMessage  string
}

// ModelOutput is the gorm model of the model_outputs table.
type ModelOutput struct {
	OutputID      string `gorm:"primaryKey;size:64"`
	ParsingRunID  string `gorm:"index;not null"`
	DocumentID    string `gorm:"index;not null"`
	ModelName     string `gorm:"not null"`
	ModelVersion  string
	RawJSON       string `gorm:"column:raw_json;type:text"`
	ExtractedText string `gorm:"type:text"`
	Notes         string
	CreatedTS     time.Time `gorm:"column:created_ts"`
}

// Invoice is the gorm model of the invoices table.
type Invoice struct {
	InvoiceID         string `gorm:"primaryKey;size:64"`
	UserID            string
	DocumentID        string `gorm:"index;not null"`
	ParsingRunID      string `gorm:"index;not null"`
	Organization      string `gorm:"index;not null"`
	InvoiceType       string `gorm:"index"`
	Partner           string
	BankAccount       string
	Subject           string
	InvoiceNumber     string
	Amount            decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	Currency          string              `gorm:"size:3"`
	InvoiceDate       *time.Time          `gorm:"type:date"`
	PaymentDeadline   *time.Time          `gorm:"type:date"`
	PaymentMethodText string
	CategoryID        string
	MissingFields     []string  `gorm:"type:text;serializer:json"`
	UploadedAt        time.Time `gorm:"not null;index"`
	CreatedTS         time.Time `gorm:"column:created_ts"`
}

// Category is the gorm model of the categories table.
type Category struct {
	CategoryID      string `gorm:"primaryKey;size:64"`
	CategoryName    string `gorm:"not null"`
	SubcategoryName string
	Slug            string `gorm:"uniqueIndex"`
	IsActive        bool   `gorm:"default:true"`
}

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Document{}, &ParsingRun{}, &ModelOutput{}, &Invoice{}, &Category{}}
}

func documentFromStore(d *store.DocumentRow) *Document {
	return &Document{
		DocumentID:       d.DocumentID,
		UserID:           d.UserID,
		GCSURI:           d.GCSURI,
		DocumentType:     d.DocumentType,
		SourceSystem:     d.SourceSystem,
		Organization:     string(d.Organization),
		UploadTS:         d.UploadTS,
		ProcessedTS:      d.ProcessedTS,
		ParsingStatus:    d.ParsingStatus,
		OriginalFilename: d.OriginalFilename,
		FileMimeType:     d.FileMimeType,
		TextGCSURI:       d.TextGCSURI,
		ChecksumSHA256:   d.ChecksumSHA256,
		Metadata:         string(d.Metadata),
	}
}

func (d *Document) toStore() *store.DocumentRow {
	out := &store.DocumentRow{
		DocumentID:       d.DocumentID,
		UserID:           d.UserID,
		GCSURI:           d.GCSURI,
		DocumentType:     d.DocumentType,
		SourceSystem:     d.SourceSystem,
		Organization:     domain.Organization(d.Organization),
		UploadTS:         d.UploadTS,
		ProcessedTS:      d.ProcessedTS,
		ParsingStatus:    d.ParsingStatus,
		OriginalFilename: d.OriginalFilename,
		FileMimeType:     d.FileMimeType,
		TextGCSURI:       d.TextGCSURI,
		ChecksumSHA256:   d.ChecksumSHA256,
	}
	if d.Metadata != "" {
		out.Metadata = json.RawMessage(d.Metadata)
	}
	return out
}

func (r *ParsingRun) toStore() *store.ParsingRunRow {
	return &store.ParsingRunRow{
		ParsingRunID:  r.ParsingRunID,
		DocumentID:    r.DocumentID,
		StartedTS:     r.StartedTS,
		FinishedTS:    r.FinishedTS,
		ParserType:    r.ParserType,
		ParserVersion: r.ParserVersion,
		Status:        r.Status,
		ErrorMessage:  r.ErrorMessage,
	}
}

func invoiceFromStore(i *store.InvoiceRow) *Invoice {
	return &Invoice{
		InvoiceID:         i.InvoiceID,
		UserID:            i.UserID,
		DocumentID:        i.DocumentID,
		ParsingRunID:      i.ParsingRunID,
		Organization:      string(i.Organization),
		InvoiceType:       string(i.InvoiceType),
		Partner:           i.Partner,
		BankAccount:       i.BankAccount,
		Subject:           i.Subject,
		InvoiceNumber:     i.InvoiceNumber,
		Amount:            i.Amount,
		Currency:          i.Currency,
		InvoiceDate:       dateToTime(i.InvoiceDate),
		PaymentDeadline:   dateToTime(i.PaymentDeadline),
		PaymentMethodText: i.PaymentMethodText,
		CategoryID:        i.CategoryID,
		MissingFields:     i.MissingFields,
		UploadedAt:        i.UploadedAt,
		CreatedTS:         i.CreatedTS,
	}
}

func (i *Invoice) toStore() *store.InvoiceRow {
	return &store.InvoiceRow{
		InvoiceID:         i.InvoiceID,
		UserID:            i.UserID,
		DocumentID:        i.DocumentID,
		ParsingRunID:      i.ParsingRunID,
		Organization:      domain.Organization(i.Organization),
		InvoiceType:       domain.InvoiceType(i.InvoiceType),
		Partner:           i.Partner,
		BankAccount:       i.BankAccount,
		Subject:           i.Subject,
		InvoiceNumber:     i.InvoiceNumber,
		Amount:            i.Amount,
		Currency:          i.Currency,
		InvoiceDate:       timeToDate(i.InvoiceDate),
		PaymentDeadline:   timeToDate(i.PaymentDeadline),
		PaymentMethodText: i.PaymentMethodText,
		CategoryID:        i.CategoryID,
		MissingFields:     i.MissingFields,
		UploadedAt:        i.UploadedAt,
		CreatedTS:         i.CreatedTS,
	}
}

func dateToTime(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.In(time.UTC)
	return &t
}

func timeToDate(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t)
	return &d
}

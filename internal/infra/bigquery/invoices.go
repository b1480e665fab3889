package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// amountScale is the number of fraction digits kept when reading NUMERIC.
const amountScale = 9

type invoiceRow struct {
	InvoiceID    string `bigquery:"invoice_id"`     // REQUIRED
	UserID       string `bigquery:"user_id"`        // NULLABLE
	DocumentID   string `bigquery:"document_id"`    // REQUIRED
	ParsingRunID string `bigquery:"parsing_run_id"` // REQUIRED

	Organization string `bigquery:"organization"` // REQUIRED
	InvoiceType  string `bigquery:"invoice_type"` // NULLABLE

	Partner       string `bigquery:"partner"`        // NULLABLE
	BankAccount   string `bigquery:"bank_account"`   // NULLABLE
	Subject       string `bigquery:"subject"`        // NULLABLE
	InvoiceNumber string `bigquery:"invoice_number"` // NULLABLE

	Amount   *big.Rat `bigquery:"amount"`   // NULLABLE (NUMERIC)
	Currency string   `bigquery:"currency"` // REQUIRED

	InvoiceDate     bigquery.NullDate `bigquery:"invoice_date"`     // NULLABLE
	PaymentDeadline bigquery.NullDate `bigquery:"payment_deadline"` // NULLABLE

	PaymentMethodText string   `bigquery:"payment_method_text"` // NULLABLE
	CategoryID        string   `bigquery:"category_id"`         // NULLABLE
	MissingFields     []string `bigquery:"missing_fields"`      // REPEATED

	UploadedAt time.Time `bigquery:"uploaded_at"` // REQUIRED
	CreatedTS  time.Time `bigquery:"created_ts"`  // REQUIRED
}

const invoiceColumns = `
			i.invoice_id,
			i.user_id,
			i.document_id,
			i.parsing_run_id,
			i.organization,
			i.invoice_type,
			i.partner,
			i.bank_account,
			i.subject,
			i.invoice_number,
			i.amount,
			i.currency,
			i.invoice_date,
			i.payment_deadline,
			i.payment_method_text,
			i.category_id,
			i.missing_fields,
			i.uploaded_at,
			i.created_ts`

func (r *invoiceRow) toStore() *store.InvoiceRow {
	return &store.InvoiceRow{
		InvoiceID:         r.InvoiceID,
		UserID:            r.UserID,
		DocumentID:        r.DocumentID,
		ParsingRunID:      r.ParsingRunID,
		Organization:      domain.Organization(r.Organization),
		InvoiceType:       domain.InvoiceType(r.InvoiceType),
		Partner:           r.Partner,
		BankAccount:       r.BankAccount,
		Subject:           r.Subject,
		InvoiceNumber:     r.InvoiceNumber,
		Amount:            ratToNullDecimal(r.Amount),
		Currency:          r.Currency,
		InvoiceDate:       fromNullDate(r.InvoiceDate),
		PaymentDeadline:   fromNullDate(r.PaymentDeadline),
		PaymentMethodText: r.PaymentMethodText,
		CategoryID:        r.CategoryID,
		MissingFields:     r.MissingFields,
		UploadedAt:        r.UploadedAt,
		CreatedTS:         r.CreatedTS,
	}
}

func invoiceFromStore(i *store.InvoiceRow) *invoiceRow {
	row := &invoiceRow{
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
		Currency:          i.Currency,
		InvoiceDate:       toNullDate(i.InvoiceDate),
		PaymentDeadline:   toNullDate(i.PaymentDeadline),
		PaymentMethodText: i.PaymentMethodText,
		CategoryID:        i.CategoryID,
		MissingFields:     i.MissingFields,
		UploadedAt:        i.UploadedAt,
		CreatedTS:         i.CreatedTS,
	}
	if i.Amount.Valid {
		row.Amount = i.Amount.Decimal.Rat()
	}
	return row
}

func ratToNullDecimal(r *big.Rat) decimal.NullDecimal {
	if r == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(r.FloatString(amountScale))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func toNullDate(d *civil.Date) bigquery.NullDate {
	if d == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}

func fromNullDate(d bigquery.NullDate) *civil.Date {
	if !d.Valid {
		return nil
	}
	out := d.Date
	return &out
}

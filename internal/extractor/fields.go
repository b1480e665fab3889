package extractor

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
)

// ParsedInvoiceFields is the best-effort result of reading one invoice.
// Empty strings and nil pointers mean the field was not found.
type ParsedInvoiceFields struct {
	Partner           string             `json:"partner,omitempty"`
	BankAccount       string             `json:"bank_account,omitempty"`
	Subject           string             `json:"subject,omitempty"`
	InvoiceNumber     string             `json:"invoice_number,omitempty"`
	Amount            *decimal.Decimal   `json:"amount,omitempty"`
	InvoiceDate       *civil.Date        `json:"invoice_date,omitempty"`
	PaymentDeadline   *civil.Date        `json:"payment_deadline,omitempty"`
	PaymentMethodText string             `json:"payment_method_text,omitempty"`
	InvoiceType       domain.InvoiceType `json:"invoice_type,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (f ParsedInvoiceFields) IsEmpty() bool {
	return f == ParsedInvoiceFields{}
}

// Merge returns a copy of f where every field present in override replaces
// the value in f. Neither input is modified.
func (f ParsedInvoiceFields) Merge(override ParsedInvoiceFields) ParsedInvoiceFields {
	out := f
	if override.Partner != "" {
		out.Partner = override.Partner
	}
	if override.BankAccount != "" {
		out.BankAccount = override.BankAccount
	}
	if override.Subject != "" {
		out.Subject = override.Subject
	}
	if override.InvoiceNumber != "" {
		out.InvoiceNumber = override.InvoiceNumber
	}
	if override.Amount != nil {
		a := *override.Amount
		out.Amount = &a
	}
	if override.InvoiceDate != nil {
		d := *override.InvoiceDate
		out.InvoiceDate = &d
	}
	if override.PaymentDeadline != nil {
		d := *override.PaymentDeadline
		out.PaymentDeadline = &d
	}
	if override.PaymentMethodText != "" {
		out.PaymentMethodText = override.PaymentMethodText
	}
	if override.InvoiceType != "" {
		out.InvoiceType = override.InvoiceType
	}
	return out
}

// MissingFields lists the names of fields a stored invoice needs but f lacks.
// A bank account is only required for bank transfer invoices.
func (f ParsedInvoiceFields) MissingFields() []string {
	var missing []string
	if f.Partner == "" {
		missing = append(missing, "partner")
	}
	if f.Amount == nil {
		missing = append(missing, "amount")
	}
	if f.InvoiceDate == nil {
		missing = append(missing, "invoice_date")
	}
	if f.InvoiceType == "" {
		missing = append(missing, "invoice_type")
	}
	if f.InvoiceType == domain.InvoiceTypeBankTransfer && f.BankAccount == "" {
		missing = append(missing, "bank_account")
	}
	return missing
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Organization identifies which legal entity an invoice belongs to.
type Organization string

const (
	OrganizationFoundation   Organization = "foundation"
	OrganizationKindergarten Organization = "kindergarten"
)

// Organizations lists the known organizations in display order.
var Organizations = []Organization{OrganizationFoundation, OrganizationKindergarten}

// Valid reports whether o is one of the known organizations.
func (o Organization) Valid() bool {
	return o == OrganizationFoundation || o == OrganizationKindergarten
}

// InvoiceType is the payment category of an invoice.
type InvoiceType string

const (
	InvoiceTypeBankTransfer     InvoiceType = "bank_transfer"
	InvoiceTypeCardCashAfterpay InvoiceType = "card_cash_afterpay"
)

// InvoiceTypes lists the known payment categories in display order.
var InvoiceTypes = []InvoiceType{InvoiceTypeBankTransfer, InvoiceTypeCardCashAfterpay}

// Valid reports whether t is one of the known payment categories.
func (t InvoiceType) Valid() bool {
	return t == InvoiceTypeBankTransfer || t == InvoiceTypeCardCashAfterpay
}

// InvoiceRecord is the minimal view of a stored invoice used for dashboard
// aggregation. UploadedAt is the moment the invoice entered the system.
type InvoiceRecord struct {
	ID           string          `json:"id"`
	Organization Organization    `json:"organization"`
	InvoiceType  InvoiceType     `json:"invoice_type"`
	Partner      string          `json:"partner,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	UploadedAt   time.Time       `json:"uploaded_at"`
}

package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ovoda/invoice-tracker/internal/domain"
)

func TestInvoiceRow_Record(t *testing.T) {
	uploaded := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	row := &InvoiceRow{
		InvoiceID:    "inv-1",
		Organization: domain.OrganizationKindergarten,
		InvoiceType:  domain.InvoiceTypeCardCashAfterpay,
		Partner:      "Teszt Kft.",
		Amount:       decimal.NewNullDecimal(decimal.NewFromInt(4500)),
		UploadedAt:   uploaded,
	}

	rec := row.Record()
	assert.Equal(t, "inv-1", rec.ID)
	assert.Equal(t, domain.OrganizationKindergarten, rec.Organization)
	assert.Equal(t, domain.InvoiceTypeCardCashAfterpay, rec.InvoiceType)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, uploaded, rec.UploadedAt)
}

func TestInvoiceRow_RecordMissingAmount(t *testing.T) {
	rec := (&InvoiceRow{InvoiceID: "x"}).Record()
	assert.True(t, rec.Amount.IsZero())
}

func TestRecords_KeepsOrder(t *testing.T) {
	rows := []*InvoiceRow{{InvoiceID: "b"}, {InvoiceID: "a"}, {InvoiceID: "c"}}
	recs := Records(rows)
	assert.Equal(t, []string{"b", "a", "c"}, []string{recs[0].ID, recs[1].ID, recs[2].ID})
	assert.Empty(t, Records(nil))
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "", TruncateError(nil))
	assert.Equal(t, "boom", TruncateError(errors.New("boom")))
	long := errors.New(strings.Repeat("x", MaxErrorMessageLen+50))
	assert.Len(t, TruncateError(long), MaxErrorMessageLen)
}

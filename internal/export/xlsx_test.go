package export

import (
	"bytes"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ovoda/invoice-tracker/internal/dashboard"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func TestWriteInvoicesXLSX(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	invoices := []*store.InvoiceRow{
		{
			InvoiceID:     "inv-1",
			Organization:  domain.OrganizationFoundation,
			InvoiceType:   domain.InvoiceTypeBankTransfer,
			Partner:       "Minta Kft.",
			InvoiceNumber: "TK-2024/0042",
			InvoiceDate:   &civil.Date{Year: 2024, Month: 3, Day: 15},
			Amount:        decimal.NewNullDecimal(decimal.RequireFromString("12500.50")),
			Currency:      "HUF",
			UploadedAt:    now.Add(-time.Hour),
		},
		{
			InvoiceID:     "inv-2",
			Organization:  domain.OrganizationKindergarten,
			Currency:      "HUF",
			MissingFields: []string{"partner", "amount"},
			UploadedAt:    now.Add(-2 * time.Hour),
		},
	}
	agg := dashboard.Build(store.Records(invoices), now)

	var buf bytes.Buffer
	require.NoError(t, WriteInvoicesXLSX(&buf, invoices, agg))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{InvoicesSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Invoice ID", rows[0][0])
	assert.Equal(t, "inv-1", rows[1][0])
	assert.Equal(t, "foundation", rows[1][1])
	assert.Equal(t, "bank_transfer", rows[1][2])
	assert.Equal(t, "2024-03-15", rows[1][5])
	assert.Equal(t, "12500.5", rows[1][7])
	assert.Equal(t, "partner, amount", rows[2][13])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Year", "2024"}, summary[0])
	assert.Equal(t, []string{"Month", "Count", "Amount", "foundation", "kindergarten"}, summary[2])
	assert.Equal(t, "March", summary[5][0])
	assert.Equal(t, "2", summary[5][1])
	assert.Equal(t, "12500.5", summary[5][2])

	last := summary[len(summary)-1]
	assert.Equal(t, "Total", last[0])
	assert.Equal(t, "2", last[2])
}

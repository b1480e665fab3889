// Package export writes invoices and the dashboard summary as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/ovoda/invoice-tracker/internal/dashboard"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// Sheet names of the exported workbook.
const (
	InvoicesSheet = "Invoices"
	SummarySheet  = "Summary"
)

// ContentType is the MIME type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var invoiceHeaders = []string{
	"Invoice ID", "Organization", "Invoice type", "Partner", "Invoice number",
	"Invoice date", "Payment deadline", "Amount", "Currency", "Bank account",
	"Subject", "Payment method", "Uploaded at", "Missing fields",
}

// WriteInvoicesXLSX writes the invoices and the aggregate to w.
func WriteInvoicesXLSX(w io.Writer, invoices []*store.InvoiceRow, agg dashboard.Aggregate) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(InvoicesSheet); err != nil {
		return fmt.Errorf("WriteInvoicesXLSX: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("WriteInvoicesXLSX: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("WriteInvoicesXLSX: %w", err)
	}

	if err := writeInvoices(f, invoices); err != nil {
		return fmt.Errorf("WriteInvoicesXLSX: %w", err)
	}
	if err := writeSummary(f, agg); err != nil {
		return fmt.Errorf("WriteInvoicesXLSX: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteInvoicesXLSX: write workbook: %w", err)
	}
	return nil
}

func writeInvoices(f *excelize.File, invoices []*store.InvoiceRow) error {
	if err := setRow(f, InvoicesSheet, 1, toRow(invoiceHeaders)); err != nil {
		return err
	}

	for i, inv := range invoices {
		var amount interface{}
		if inv.Amount.Valid {
			amount = inv.Amount.Decimal.InexactFloat64()
		}
		row := []interface{}{
			inv.InvoiceID,
			string(inv.Organization),
			string(inv.InvoiceType),
			inv.Partner,
			inv.InvoiceNumber,
			formatDate(inv.InvoiceDate),
			formatDate(inv.PaymentDeadline),
			amount,
			inv.Currency,
			inv.BankAccount,
			inv.Subject,
			inv.PaymentMethodText,
			inv.UploadedAt.Format("2006-01-02 15:04"),
			strings.Join(inv.MissingFields, ", "),
		}
		if err := setRow(f, InvoicesSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, agg dashboard.Aggregate) error {
	r := 1
	put := func(values ...interface{}) error {
		err := setRow(f, SummarySheet, r, values)
		r++
		return err
	}

	monthHeader := []interface{}{"Month", "Count", "Amount"}
	for _, org := range domain.Organizations {
		monthHeader = append(monthHeader, string(org))
	}

	if err := put("Year", agg.Year); err != nil {
		return err
	}
	r++
	if err := put(monthHeader...); err != nil {
		return err
	}
	for _, m := range agg.Monthly {
		row := []interface{}{m.Month.String(), m.Count, m.Amount.InexactFloat64()}
		for _, org := range domain.Organizations {
			row = append(row, m.ByOrganization[org].Amount.InexactFloat64())
		}
		if err := put(row...); err != nil {
			return err
		}
	}

	r++
	if err := put("Breakdown", "Key", "Count", "Amount"); err != nil {
		return err
	}
	for _, c := range agg.ByOrganization {
		if err := put("Organization", c.Key, c.Count, c.Amount.InexactFloat64()); err != nil {
			return err
		}
	}
	for _, c := range agg.ByPaymentType {
		if err := put("Payment type", c.Key, c.Count, c.Amount.InexactFloat64()); err != nil {
			return err
		}
	}

	r++
	if err := put("This month", "", agg.ThisMonth.Count, agg.ThisMonth.Amount.InexactFloat64()); err != nil {
		return err
	}
	return put("Total", "", agg.Total.Count, agg.Total.Amount.InexactFloat64())
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func toRow(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func formatDate(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

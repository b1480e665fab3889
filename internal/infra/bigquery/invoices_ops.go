package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/ovoda/invoice-tracker/internal/store"
)

const invoicesTable = "invoices"

// InsertInvoiceWithClient inserts a single invoice. The amount travels as
// a string and is cast so that a missing amount becomes NULL.
func InsertInvoiceWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, inv *store.InvoiceRow) error {
	row := invoiceFromStore(inv)

	amount := bigquery.NullString{}
	if inv.Amount.Valid {
		amount = bigquery.NullString{StringVal: inv.Amount.Decimal.String(), Valid: true}
	}
	missing := row.MissingFields
	if missing == nil {
		missing = []string{}
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (
			invoice_id, user_id, document_id, parsing_run_id,
			organization, invoice_type, partner, bank_account,
			subject, invoice_number, amount, currency,
			invoice_date, payment_deadline, payment_method_text,
			category_id, missing_fields, uploaded_at, created_ts
		)
		VALUES (
			@invoice_id, @user_id, @document_id, @parsing_run_id,
			@organization, @invoice_type, @partner, @bank_account,
			@subject, @invoice_number, CAST(@amount AS NUMERIC), @currency,
			@invoice_date, @payment_deadline, @payment_method_text,
			@category_id, @missing_fields, @uploaded_at, @created_ts
		)
	`, ds.Table(invoicesTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "invoice_id", Value: row.InvoiceID},
		{Name: "user_id", Value: row.UserID},
		{Name: "document_id", Value: row.DocumentID},
		{Name: "parsing_run_id", Value: row.ParsingRunID},
		{Name: "organization", Value: row.Organization},
		{Name: "invoice_type", Value: row.InvoiceType},
		{Name: "partner", Value: row.Partner},
		{Name: "bank_account", Value: row.BankAccount},
		{Name: "subject", Value: row.Subject},
		{Name: "invoice_number", Value: row.InvoiceNumber},
		{Name: "amount", Value: amount},
		{Name: "currency", Value: row.Currency},
		{Name: "invoice_date", Value: row.InvoiceDate},
		{Name: "payment_deadline", Value: row.PaymentDeadline},
		{Name: "payment_method_text", Value: row.PaymentMethodText},
		{Name: "category_id", Value: row.CategoryID},
		{Name: "missing_fields", Value: missing},
		{Name: "uploaded_at", Value: row.UploadedAt},
		{Name: "created_ts", Value: row.CreatedTS},
	})
	if err != nil {
		return fmt.Errorf("InsertInvoice: %w", err)
	}
	return nil
}

// GetInvoiceWithClient returns store.ErrNotFound for an unknown ID.
func GetInvoiceWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, invoiceID string) (*store.InvoiceRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s i
		WHERE i.invoice_id = @invoice_id
		LIMIT 1
	`, invoiceColumns, ds.Table(invoicesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "invoice_id", Value: invoiceID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetInvoice: reading query: %w", err)
	}

	var row invoiceRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetInvoice: %s: %w", invoiceID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetInvoice: reading row: %w", err)
	}
	return row.toStore(), nil
}

// ListInvoicesWithClient returns invoices from successful parsing runs,
// excluding superseded ones, newest upload first.
func ListInvoicesWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, filter store.InvoiceFilter) ([]*store.InvoiceRow, error) {
	where, params := invoiceFilterClause(filter)

	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s i
		INNER JOIN %s pr
		  ON i.parsing_run_id = pr.parsing_run_id
		WHERE %s
		ORDER BY i.uploaded_at DESC, i.created_ts DESC
	`, invoiceColumns, ds.Table(invoicesTable), ds.Table(parsingRunsTable), where)
	if filter.Limit > 0 {
		sql += fmt.Sprintf("LIMIT %d\n", filter.Limit)
	}

	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInvoices: query read: %w", err)
	}

	var rows []*store.InvoiceRow
	for {
		var r invoiceRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInvoices: iter next: %w", err)
		}
		rows = append(rows, r.toStore())
	}

	return rows, nil
}

// invoiceFilterClause builds the WHERE clause and its parameters.
func invoiceFilterClause(filter store.InvoiceFilter) (string, []bigquery.QueryParameter) {
	conds := []string{"pr.status = @status"}
	params := []bigquery.QueryParameter{{Name: "status", Value: store.StatusSuccess}}

	if filter.DocumentID != "" {
		conds = append(conds, "i.document_id = @document_id")
		params = append(params, bigquery.QueryParameter{Name: "document_id", Value: filter.DocumentID})
	}
	if filter.Organization != "" {
		conds = append(conds, "i.organization = @organization")
		params = append(params, bigquery.QueryParameter{Name: "organization", Value: filter.Organization})
	}
	if filter.InvoiceType != "" {
		conds = append(conds, "i.invoice_type = @invoice_type")
		params = append(params, bigquery.QueryParameter{Name: "invoice_type", Value: filter.InvoiceType})
	}
	if !filter.UploadedFrom.IsZero() {
		conds = append(conds, "i.uploaded_at >= @uploaded_from")
		params = append(params, bigquery.QueryParameter{Name: "uploaded_from", Value: filter.UploadedFrom})
	}
	if !filter.UploadedTo.IsZero() {
		conds = append(conds, "i.uploaded_at < @uploaded_to")
		params = append(params, bigquery.QueryParameter{Name: "uploaded_to", Value: filter.UploadedTo})
	}

	return strings.Join(conds, "\n		  AND "), params
}

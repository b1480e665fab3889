package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteDocumentWithClient deletes a document and all its related data.
// Dependent tables go first: invoices, model outputs, parsing runs and
// finally the document itself.
func DeleteDocumentWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, documentID string) error {
	for _, table := range []string{invoicesTable, modelOutputsTable, parsingRunsTable, documentsTable} {
		if err := deleteByDocument(ctx, client, ds, table, documentID); err != nil {
			return fmt.Errorf("DeleteDocument: deleting %s: %w", table, err)
		}
	}
	return nil
}

func deleteByDocument(ctx context.Context, client *bigquery.Client, ds Dataset, table, documentID string) error {
	sql := fmt.Sprintf(`
		DELETE FROM %s
		WHERE document_id = @document_id
	`, ds.Table(table))

	return runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	})
}

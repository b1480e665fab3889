package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/ovoda/invoice-tracker/internal/store"
)

// ListAllDocumentsWithClient retrieves all documents, newest upload first.
func ListAllDocumentsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]*store.DocumentRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY upload_ts DESC
	`, documentColumns, ds.Table(documentsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAllDocuments: reading query: %w", err)
	}

	var documents []*store.DocumentRow
	for {
		var row documentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAllDocuments: iterating: %w", err)
		}
		documents = append(documents, row.toStore())
	}

	return documents, nil
}

// FindDocumentByChecksumWithClient retrieves a document by its SHA-256
// checksum. Returns nil if no document with the given checksum exists.
func FindDocumentByChecksumWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, checksum string) (*store.DocumentRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE checksum_sha256 = @checksum
		LIMIT 1
	`, documentColumns, ds.Table(documentsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "checksum", Value: checksum},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: reading query: %w", err)
	}

	var row documentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: reading row: %w", err)
	}

	return row.toStore(), nil
}

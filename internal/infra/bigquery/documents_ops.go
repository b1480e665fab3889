package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/ovoda/invoice-tracker/internal/store"
)

const documentsTable = "documents"

// InsertDocumentWithClient inserts a document with DML so that its status
// can be updated right away; streamed rows cannot be modified while they
// sit in the streaming buffer.
func InsertDocumentWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, doc *store.DocumentRow) error {
	row := documentFromStore(doc)

	sql := fmt.Sprintf(`
		INSERT INTO %s (%s
		)
		VALUES (
			@document_id, @user_id, @gcs_uri, @document_type, @source_system,
			@organization, @upload_ts, @processed_ts, @parsing_status,
			@original_filename, @file_mime_type, @text_gcs_uri, @checksum_sha256,
			@metadata
		)
	`, ds.Table(documentsTable), documentColumns)

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "document_id", Value: row.DocumentID},
		{Name: "user_id", Value: row.UserID},
		{Name: "gcs_uri", Value: row.GCSURI},
		{Name: "document_type", Value: row.DocumentType},
		{Name: "source_system", Value: row.SourceSystem},
		{Name: "organization", Value: row.Organization},
		{Name: "upload_ts", Value: row.UploadTS},
		{Name: "processed_ts", Value: row.ProcessedTS},
		{Name: "parsing_status", Value: row.ParsingStatus},
		{Name: "original_filename", Value: row.OriginalFilename},
		{Name: "file_mime_type", Value: row.FileMimeType},
		{Name: "text_gcs_uri", Value: row.TextGCSURI},
		{Name: "checksum_sha256", Value: row.ChecksumSHA256},
		{Name: "metadata", Value: row.Metadata},
	})
	if err != nil {
		return fmt.Errorf("InsertDocument: %w", err)
	}
	return nil
}

// GetDocumentWithClient returns store.ErrNotFound for an unknown ID.
func GetDocumentWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, documentID string) (*store.DocumentRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = @document_id
		LIMIT 1
	`, documentColumns, ds.Table(documentsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: reading query: %w", err)
	}

	var row documentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetDocument: %s: %w", documentID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetDocument: reading row: %w", err)
	}

	return row.toStore(), nil
}

// UpdateDocumentStatusWithClient sets parsing_status and processed_ts. An
// empty textGCSURI leaves text_gcs_uri unchanged.
func UpdateDocumentStatusWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, documentID, status, textGCSURI string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET parsing_status = @status,
		    processed_ts = @processed_ts,
		    text_gcs_uri = IF(@text_gcs_uri = "", text_gcs_uri, @text_gcs_uri)
		WHERE document_id = @document_id
	`, ds.Table(documentsTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "text_gcs_uri", Value: textGCSURI},
		{Name: "document_id", Value: documentID},
	})
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: %w", err)
	}
	return nil
}

package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/ovoda/invoice-tracker/internal/store"
)

var _ store.Repository = (*BigQueryRepository)(nil)

// Dataset names the project and dataset that hold the invoice tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// Table returns the fully qualified, backquoted table name.
func (d Dataset) Table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, d.DatasetID, name)
}

// BigQueryRepository implements store.Repository on BigQuery. It holds a
// shared client to avoid creating a new connection for each operation.
type BigQueryRepository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewBigQueryRepository creates a repository with its own client.
func NewBigQueryRepository(ctx context.Context, ds Dataset) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: creating client: %w", err)
	}
	return &BigQueryRepository{client: client, ds: ds}, nil
}

// Client exposes the underlying client for tools such as the migrator.
func (r *BigQueryRepository) Client() *bigquery.Client {
	return r.client
}

// Close closes the BigQuery client connection.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryRepository) InsertDocument(ctx context.Context, row *store.DocumentRow) error {
	return InsertDocumentWithClient(ctx, r.client, r.ds, row)
}

func (r *BigQueryRepository) GetDocument(ctx context.Context, documentID string) (*store.DocumentRow, error) {
	return GetDocumentWithClient(ctx, r.client, r.ds, documentID)
}

func (r *BigQueryRepository) ListAllDocuments(ctx context.Context) ([]*store.DocumentRow, error) {
	return ListAllDocumentsWithClient(ctx, r.client, r.ds)
}

func (r *BigQueryRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*store.DocumentRow, error) {
	return FindDocumentByChecksumWithClient(ctx, r.client, r.ds, checksum)
}

func (r *BigQueryRepository) UpdateDocumentStatus(ctx context.Context, documentID, status, textGCSURI string) error {
	return UpdateDocumentStatusWithClient(ctx, r.client, r.ds, documentID, status, textGCSURI)
}

func (r *BigQueryRepository) DeleteDocument(ctx context.Context, documentID string) error {
	return DeleteDocumentWithClient(ctx, r.client, r.ds, documentID)
}

func (r *BigQueryRepository) StartParsingRun(ctx context.Context, documentID, parserType string) (string, error) {
	return StartParsingRunWithClient(ctx, r.client, r.ds, documentID, parserType)
}

func (r *BigQueryRepository) MarkParsingRunFailed(ctx context.Context, parsingRunID string, parseErr error) {
	MarkParsingRunFailedWithClient(ctx, r.client, r.ds, parsingRunID, parseErr)
}

func (r *BigQueryRepository) MarkParsingRunSucceeded(ctx context.Context, parsingRunID string) error {
	return MarkParsingRunSucceededWithClient(ctx, r.client, r.ds, parsingRunID)
}

func (r *BigQueryRepository) MarkParsingRunsAsSuperseded(ctx context.Context, documentID string) error {
	return MarkParsingRunsAsSupersededWithClient(ctx, r.client, r.ds, documentID)
}

func (r *BigQueryRepository) ListParsingRuns(ctx context.Context, documentID string) ([]*store.ParsingRunRow, error) {
	return ListParsingRunsWithClient(ctx, r.client, r.ds, documentID)
}

func (r *BigQueryRepository) InsertModelOutput(ctx context.Context, row *store.ModelOutputRow) error {
	return InsertModelOutputWithClient(ctx, r.client, r.ds, row)
}

func (r *BigQueryRepository) InsertInvoice(ctx context.Context, row *store.InvoiceRow) error {
	return InsertInvoiceWithClient(ctx, r.client, r.ds, row)
}

func (r *BigQueryRepository) GetInvoice(ctx context.Context, invoiceID string) (*store.InvoiceRow, error) {
	return GetInvoiceWithClient(ctx, r.client, r.ds, invoiceID)
}

func (r *BigQueryRepository) ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]*store.InvoiceRow, error) {
	return ListInvoicesWithClient(ctx, r.client, r.ds, filter)
}

func (r *BigQueryRepository) ListActiveCategories(ctx context.Context) ([]store.CategoryRow, error) {
	return ListActiveCategoriesWithClient(ctx, r.client, r.ds)
}

// runDML runs a DML statement and waits for it to finish.
func runDML(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) error {
	q := client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

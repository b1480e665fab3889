package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/store"
)

const (
	parsingRunsTable = "parsing_runs"
	parserVersion    = "v1"
)

// StartParsingRunWithClient inserts a new parsing run with status=RUNNING
// and returns the generated parsing_run_id.
func StartParsingRunWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, documentID, parserType string) (string, error) {
	parsingRunID := uuid.NewString()

	sql := fmt.Sprintf(`
		INSERT %s (
			parsing_run_id,
			document_id,
			started_ts,
			parser_type,
			parser_version,
			status
		)
		VALUES (
			@parsing_run_id,
			@document_id,
			@started_ts,
			@parser_type,
			@parser_version,
			@status
		)
	`, ds.Table(parsingRunsTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "parsing_run_id", Value: parsingRunID},
		{Name: "document_id", Value: documentID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "parser_type", Value: parserType},
		{Name: "parser_version", Value: parserVersion},
		{Name: "status", Value: store.StatusRunning},
	})
	if err != nil {
		return "", fmt.Errorf("StartParsingRun: %w", err)
	}

	return parsingRunID, nil
}

// MarkParsingRunFailedWithClient sets status=FAILED, finished_ts and
// error_message. Failures are logged because the caller is already
// handling an error.
func MarkParsingRunFailedWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, parsingRunID string, parseErr error) {
	log := logger.FromContext(ctx)

	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE parsing_run_id = @parsing_run_id
	`, ds.Table(parsingRunsTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "status", Value: store.StatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: store.TruncateError(parseErr)},
		{Name: "parsing_run_id", Value: parsingRunID},
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("parsing_run_id", parsingRunID).
			Msg("MarkParsingRunFailed: updating parsing run")
	}
}

// MarkParsingRunSucceededWithClient sets status=SUCCESS and finished_ts,
// clears error_message.
func MarkParsingRunSucceededWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, parsingRunID string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = ""
		WHERE parsing_run_id = @parsing_run_id
	`, ds.Table(parsingRunsTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "status", Value: store.StatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "parsing_run_id", Value: parsingRunID},
	})
	if err != nil {
		return fmt.Errorf("MarkParsingRunSucceeded: %w", err)
	}
	return nil
}

// MarkParsingRunsAsSupersededWithClient marks every non-running parsing run
// of the document SUPERSEDED, hiding its invoices before a reparse.
func MarkParsingRunsAsSupersededWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, documentID string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @superseded
		WHERE document_id = @document_id
		  AND status != @running
	`, ds.Table(parsingRunsTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "superseded", Value: store.StatusSuperseded},
		{Name: "document_id", Value: documentID},
		{Name: "running", Value: store.StatusRunning},
	})
	if err != nil {
		return fmt.Errorf("MarkParsingRunsAsSuperseded: %w", err)
	}
	return nil
}

// ListParsingRunsWithClient returns the document's parsing runs, newest first.
func ListParsingRunsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, documentID string) ([]*store.ParsingRunRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			parsing_run_id,
			document_id,
			started_ts,
			finished_ts,
			parser_type,
			parser_version,
			status,
			error_message
		FROM %s
		WHERE document_id = @document_id
		ORDER BY started_ts DESC
	`, ds.Table(parsingRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListParsingRuns: reading query: %w", err)
	}

	var runs []*store.ParsingRunRow
	for {
		var row parsingRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListParsingRuns: iterating: %w", err)
		}
		runs = append(runs, row.toStore())
	}

	return runs, nil
}

package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/ovoda/invoice-tracker/internal/store"
)

type parsingRunRow struct {
	ParsingRunID string `bigquery:"parsing_run_id"` // REQUIRED
	DocumentID   string `bigquery:"document_id"`    // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	ParserType    string `bigquery:"parser_type"`    // NULLABLE
	ParserVersion string `bigquery:"parser_version"` // NULLABLE

	Status       string `bigquery:"status"`        // NULLABLE
	ErrorMessage string `bigquery:"error_message"` // NULLABLE
}

func (r *parsingRunRow) toStore() *store.ParsingRunRow {
	out := &store.ParsingRunRow{
		ParsingRunID:  r.ParsingRunID,
		DocumentID:    r.DocumentID,
		StartedTS:     r.StartedTS,
		ParserType:    r.ParserType,
		ParserVersion: r.ParserVersion,
		Status:        r.Status,
		ErrorMessage:  r.ErrorMessage,
	}
	if r.FinishedTS.Valid {
		ts := r.FinishedTS.Timestamp
		out.FinishedTS = &ts
	}
	return out
}

package bigquery

import (
	"cloud.google.com/go/bigquery"

	"github.com/ovoda/invoice-tracker/internal/store"
)

type modelOutputRow struct {
	OutputID     string `bigquery:"output_id"`      // REQUIRED
	ParsingRunID string `bigquery:"parsing_run_id"` // REQUIRED
	DocumentID   string `bigquery:"document_id"`    // REQUIRED

	ModelName    string              `bigquery:"model_name"`    // REQUIRED
	ModelVersion bigquery.NullString `bigquery:"model_version"` // NULLABLE

	RawJSON       bigquery.NullJSON   `bigquery:"raw_json"`       // REQUIRED (JSON)
	ExtractedText bigquery.NullString `bigquery:"extracted_text"` // NULLABLE

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // REQUIRED
	Notes     bigquery.NullString    `bigquery:"notes"`      // NULLABLE
}

func modelOutputFromStore(m *store.ModelOutputRow) *modelOutputRow {
	return &modelOutputRow{
		OutputID:      m.OutputID,
		ParsingRunID:  m.ParsingRunID,
		DocumentID:    m.DocumentID,
		ModelName:     m.ModelName,
		ModelVersion:  nullString(m.ModelVersion),
		RawJSON:       bigquery.NullJSON{JSONVal: string(m.RawJSON), Valid: len(m.RawJSON) > 0},
		ExtractedText: nullString(m.ExtractedText),
		CreatedTS:     bigquery.NullTimestamp{Timestamp: m.CreatedTS, Valid: !m.CreatedTS.IsZero()},
		Notes:         nullString(m.Notes),
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

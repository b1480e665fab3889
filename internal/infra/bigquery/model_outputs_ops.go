package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/ovoda/invoice-tracker/internal/store"
)

const modelOutputsTable = "model_outputs"

// InsertModelOutputWithClient inserts a single model output using DML.
func InsertModelOutputWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, m *store.ModelOutputRow) error {
	row := modelOutputFromStore(m)

	sql := fmt.Sprintf(`
		INSERT INTO %s (
			output_id, parsing_run_id, document_id,
			model_name, model_version, raw_json,
			extracted_text, created_ts, notes
		)
		VALUES (
			@output_id, @parsing_run_id, @document_id,
			@model_name, @model_version, @raw_json,
			@extracted_text, @created_ts, @notes
		)
	`, ds.Table(modelOutputsTable))

	err := runDML(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "parsing_run_id", Value: row.ParsingRunID},
		{Name: "document_id", Value: row.DocumentID},
		{Name: "model_name", Value: row.ModelName},
		{Name: "model_version", Value: row.ModelVersion},
		{Name: "raw_json", Value: row.RawJSON},
		{Name: "extracted_text", Value: row.ExtractedText},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "notes", Value: row.Notes},
	})
	if err != nil {
		return fmt.Errorf("InsertModelOutput: %w", err)
	}
	return nil
}

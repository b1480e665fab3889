package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// NewJobHandler returns a jobs.JobHandler that ingests ParseDocumentJobs
// with deps. On success the job carries the document, parsing run and
// invoice IDs of the result. A failed run still records the document it
// created, so a retry reparses that document instead of inserting another.
// Invalid requests, unknown documents and missing objects are reported as
// permanent so the queue does not retry them.
func NewJobHandler(deps *Deps) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		parseJob, ok := job.(*jobs.ParseDocumentJob)
		if !ok {
			return jobs.Permanent(fmt.Errorf("NewJobHandler: unexpected job type: %T", job))
		}

		log := logger.FromContext(ctx)
		log.Info().
			Str("job_id", parseJob.JobID).
			Str("document_id", parseJob.DocumentID).
			Str("gcs_uri", parseJob.GCSURI).
			Msg("Processing parse job")

		res, err := IngestInvoiceFromGCSWithDeps(ctx, deps, IngestRequest{
			GCSURI:       parseJob.GCSURI,
			Organization: parseJob.Organization,
			DocumentID:   parseJob.DocumentID,
			Filename:     parseJob.Filename,
		})
		if err != nil {
			if res != nil && res.DocumentID != "" {
				parseJob.DocumentID = res.DocumentID
			}
			log.Error().
				Err(err).
				Str("job_id", parseJob.JobID).
				Msg("Pipeline execution failed")
			if errors.Is(err, ErrInvalidRequest) || errors.Is(err, store.ErrNotFound) || errors.Is(err, gcsuploader.ErrObjectNotFound) {
				return jobs.Permanent(err)
			}
			return err
		}

		parseJob.DocumentID = res.DocumentID
		parseJob.ParsingRunID = res.ParsingRunID
		parseJob.InvoiceID = res.InvoiceID

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("document_id", res.DocumentID).
			Str("invoice_id", res.InvoiceID).
			Msg("Pipeline execution completed successfully")
		return nil
	}
}

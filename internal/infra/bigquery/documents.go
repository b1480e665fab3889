package bigquery

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

type documentRow struct {
	DocumentID string `bigquery:"document_id"` // REQUIRED
	UserID     string `bigquery:"user_id"`     // NULLABLE
	GCSURI     string `bigquery:"gcs_uri"`     // REQUIRED

	DocumentType string `bigquery:"document_type"` // REQUIRED
	SourceSystem string `bigquery:"source_system"` // NULLABLE
	Organization string `bigquery:"organization"`  // NULLABLE

	UploadTS    time.Time              `bigquery:"upload_ts"`    // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	ParsingStatus string `bigquery:"parsing_status"` // NULLABLE

	OriginalFilename string `bigquery:"original_filename"` // NULLABLE
	FileMimeType     string `bigquery:"file_mime_type"`    // NULLABLE

	TextGCSURI string `bigquery:"text_gcs_uri"` // NULLABLE

	ChecksumSHA256 string `bigquery:"checksum_sha256"` // NULLABLE

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE
}

const documentColumns = `
			document_id,
			user_id,
			gcs_uri,
			document_type,
			source_system,
			organization,
			upload_ts,
			processed_ts,
			parsing_status,
			original_filename,
			file_mime_type,
			text_gcs_uri,
			checksum_sha256,
			metadata`

func (r *documentRow) toStore() *store.DocumentRow {
	out := &store.DocumentRow{
		DocumentID:       r.DocumentID,
		UserID:           r.UserID,
		GCSURI:           r.GCSURI,
		DocumentType:     r.DocumentType,
		SourceSystem:     r.SourceSystem,
		Organization:     domain.Organization(r.Organization),
		UploadTS:         r.UploadTS,
		ParsingStatus:    r.ParsingStatus,
		OriginalFilename: r.OriginalFilename,
		FileMimeType:     r.FileMimeType,
		TextGCSURI:       r.TextGCSURI,
		ChecksumSHA256:   r.ChecksumSHA256,
	}
	if r.ProcessedTS.Valid {
		ts := r.ProcessedTS.Timestamp
		out.ProcessedTS = &ts
	}
	if r.Metadata.Valid {
		out.Metadata = json.RawMessage(r.Metadata.JSONVal)
	}
	return out
}

func documentFromStore(d *store.DocumentRow) *documentRow {
	out := &documentRow{
		DocumentID:       d.DocumentID,
		UserID:           d.UserID,
		GCSURI:           d.GCSURI,
		DocumentType:     d.DocumentType,
		SourceSystem:     d.SourceSystem,
		Organization:     string(d.Organization),
		UploadTS:         d.UploadTS,
		ParsingStatus:    d.ParsingStatus,
		OriginalFilename: d.OriginalFilename,
		FileMimeType:     d.FileMimeType,
		TextGCSURI:       d.TextGCSURI,
		ChecksumSHA256:   d.ChecksumSHA256,
	}
	if d.ProcessedTS != nil {
		out.ProcessedTS = bigquery.NullTimestamp{Timestamp: *d.ProcessedTS, Valid: true}
	}
	if len(d.Metadata) > 0 {
		out.Metadata = bigquery.NullJSON{JSONVal: string(d.Metadata), Valid: true}
	}
	return out
}

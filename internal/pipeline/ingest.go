// Package pipeline turns an uploaded invoice scan into a stored invoice:
// OCR, keyword extraction, optional AI re-extraction, validation, storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/extractor"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/infra"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/ocr"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// ErrInvalidRequest is wrapped by errors caused by the request itself, which
// a retry cannot fix.
var ErrInvalidRequest = errors.New("invalid ingest request")

// failureWriteTimeout bounds the status writes made after a step fails.
const failureWriteTimeout = 30 * time.Second

// IngestRequest describes one document to process.
type IngestRequest struct {
	// GCSURI is gs://bucket/path of the scan or text file.
	GCSURI string
	// Organization owns the invoice. Required for new documents.
	Organization domain.Organization
	// DocumentID reparses an existing document instead of creating one.
	DocumentID string

	Filename   string
	MimeType   string
	Checksum   string
	UploadedAt time.Time
}

// IngestResult summarizes a successful run.
type IngestResult struct {
	DocumentID    string                        `json:"document_id"`
	ParsingRunID  string                        `json:"parsing_run_id"`
	InvoiceID     string                        `json:"invoice_id"`
	TextGCSURI    string                        `json:"text_gcs_uri,omitempty"`
	Fields        extractor.ParsedInvoiceFields `json:"fields"`
	CategoryID    string                        `json:"category_id,omitempty"`
	MissingFields []string                      `json:"missing_fields,omitempty"`
}

// Deps are the collaborators of an ingestion run. OCR and AI are optional.
type Deps struct {
	Repo      Repository
	Storage   StorageService
	OCR       TextRecognizer
	AI        AIParser
	Extractor *extractor.Extractor
	UserID    string
	Now       func() time.Time
}

// NewDepsFromConfig wires storage, OCR and the AI parser from cfg around repo.
func NewDepsFromConfig(cfg *config.Config, repo Repository) *Deps {
	deps := &Deps{
		Repo:    repo,
		Storage: gcsuploader.NewGCSStorageService(),
		UserID:  cfg.UserID,
	}
	if cfg.OCREnabled() {
		deps.OCR = ocr.NewAzureRecognizer(cfg.AzureOCREndpoint, cfg.AzureOCRKey, cfg.OCRLanguage)
	}
	switch cfg.AIProvider {
	case config.AIProviderGemini:
		deps.AI = NewGeminiAIParser(cfg.GeminiModel)
	case config.AIProviderOpenAI:
		deps.AI = NewOpenAIParser(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return deps
}

// ParserType names the parsing run: OCR_HEURISTIC, or OCR_HEURISTIC+<model>.
func (d *Deps) ParserType() string {
	if d.AI == nil {
		return ParserHeuristic
	}
	return ParserHeuristic + "+" + d.AI.Name()
}

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.Extractor == nil {
		out.Extractor = extractor.New(extractor.DefaultKeywords())
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.UserID == "" {
		out.UserID = config.DefaultUserID
	}
	return &out
}

// NewInvoiceIngestionPipeline creates the standard 10-step pipeline for ingesting invoices.
// A failing step marks the parsing run and the document FAILED.
func NewInvoiceIngestionPipeline(deps *Deps) *Pipeline {
	d := deps.withDefaults()
	p := NewPipeline(
		&CreateDocumentStep{Repo: d.Repo, UserID: d.UserID, Now: d.Now},
		&StartParsingRunStep{Repo: d.Repo, ParserType: d.ParserType()},
		&FetchDocumentStep{Storage: d.Storage},
		&RecognizeTextStep{Repo: d.Repo, Storage: d.Storage, OCR: d.OCR},
		&ExtractFieldsStep{Extractor: d.Extractor},
		&AIExtractStep{Repo: d.Repo, AI: d.AI},
		&StoreModelOutputStep{Repo: d.Repo, AI: d.AI, Now: d.Now},
		&ValidateInvoiceStep{},
		&InsertInvoiceStep{Repo: d.Repo, UserID: d.UserID, Now: d.Now},
		&MarkSuccessStep{Repo: d.Repo},
	)
	p.onFailure = func(ctx context.Context, state *PipelineState, err error) {
		// ctx may already be done when a job timeout cut the run short.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
		defer cancel()

		if state.ParsingRunID != "" {
			d.Repo.MarkParsingRunFailed(ctx, state.ParsingRunID, err)
		}
		if state.Document != nil {
			if uerr := d.Repo.UpdateDocumentStatus(ctx, state.Document.DocumentID, store.StatusFailed, ""); uerr != nil {
				log := logger.FromContext(ctx)
				log.Error().Err(uerr).
					Str("document_id", state.Document.DocumentID).
					Msg("Failed to mark document FAILED")
			}
		}
	}
	return p
}

// IngestInvoiceFromGCS processes a single invoice stored in GCS using the
// configured backend, OCR and AI provider.
func IngestInvoiceFromGCS(ctx context.Context, cfg *config.Config, req IngestRequest) (*IngestResult, error) {
	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("IngestInvoiceFromGCS: %w", err)
	}
	defer repo.Close()

	return IngestInvoiceFromGCSWithDeps(ctx, NewDepsFromConfig(cfg, repo), req)
}

// IngestInvoiceFromGCSWithDeps processes a single invoice with injected
// dependencies. When a run fails after its document was created, the error
// comes with a partial result holding DocumentID (and ParsingRunID if one was
// started) so the caller can retry as a reparse.
func IngestInvoiceFromGCSWithDeps(ctx context.Context, deps *Deps, req IngestRequest) (*IngestResult, error) {
	if req.GCSURI == "" && req.DocumentID == "" {
		return nil, fmt.Errorf("IngestInvoiceFromGCSWithDeps: gcs uri or document id is required: %w", ErrInvalidRequest)
	}

	log := logger.FromContext(ctx)
	state := &PipelineState{Request: req}

	if err := NewInvoiceIngestionPipeline(deps).Execute(ctx, state); err != nil {
		if state.Document == nil {
			return nil, err
		}
		return &IngestResult{DocumentID: state.Document.DocumentID, ParsingRunID: state.ParsingRunID}, err
	}

	log.Info().
		Str("document_id", state.Document.DocumentID).
		Str("parsing_run_id", state.ParsingRunID).
		Str("invoice_id", state.InvoiceID).
		Strs("missing_fields", state.MissingFields).
		Msg("Invoice ingested")

	return &IngestResult{
		DocumentID:    state.Document.DocumentID,
		ParsingRunID:  state.ParsingRunID,
		InvoiceID:     state.InvoiceID,
		TextGCSURI:    state.TextGCSURI,
		Fields:        state.Fields,
		CategoryID:    state.CategoryID,
		MissingFields: state.MissingFields,
	}, nil
}

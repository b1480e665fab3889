package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/extractor"
	"github.com/ovoda/invoice-tracker/internal/gcs"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Request      IngestRequest
	Document     *store.DocumentRow
	ParsingRunID string
	FileBytes    []byte
	Text         string
	TextGCSURI   string

	Heuristic   extractor.ParsedInvoiceFields
	Categories  []store.CategoryRow
	ModelOutput map[string]interface{}
	Model       *modelInvoice

	Fields        extractor.ParsedInvoiceFields
	CategoryID    string
	MissingFields []string
	InvoiceID     string
}

// Step 1: CreateDocumentStep creates the document record, or loads it when
// the request reparses an existing document.
type CreateDocumentStep struct {
	Repo   Repository
	UserID string
	Now    func() time.Time
}

func (s *CreateDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	req := state.Request

	if req.DocumentID != "" {
		doc, err := s.Repo.GetDocument(ctx, req.DocumentID)
		if err != nil {
			return fmt.Errorf("CreateDocumentStep: load document %s: %w", req.DocumentID, err)
		}
		if err := s.Repo.MarkParsingRunsAsSuperseded(ctx, doc.DocumentID); err != nil {
			return fmt.Errorf("CreateDocumentStep: %w", err)
		}
		if state.Request.GCSURI == "" {
			state.Request.GCSURI = doc.GCSURI
		}
		if state.Request.Organization == "" {
			state.Request.Organization = doc.Organization
		}
		state.Document = doc
		return nil
	}

	if !req.Organization.Valid() {
		return fmt.Errorf("CreateDocumentStep: unknown organization %q: %w", req.Organization, ErrInvalidRequest)
	}

	filename := req.Filename
	if filename == "" {
		filename = gcs.FilenameFromURI(req.GCSURI)
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = gcsuploader.ContentTypeFor(filename)
	}
	uploaded := req.UploadedAt
	if uploaded.IsZero() {
		uploaded = s.Now()
	}

	metadata, err := json.Marshal(map[string]string{"organization": string(req.Organization)})
	if err != nil {
		return fmt.Errorf("CreateDocumentStep: marshal metadata: %w", err)
	}

	doc := &store.DocumentRow{
		DocumentID:       uuid.NewString(),
		UserID:           s.UserID,
		GCSURI:           req.GCSURI,
		DocumentType:     DefaultDocumentType,
		SourceSystem:     DefaultSourceSystem,
		Organization:     req.Organization,
		UploadTS:         uploaded,
		ParsingStatus:    store.StatusPending,
		OriginalFilename: filename,
		FileMimeType:     mimeType,
		ChecksumSHA256:   req.Checksum,
		Metadata:         metadata,
	}
	if err := s.Repo.InsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("CreateDocumentStep: inserting row: %w", err)
	}
	state.Document = doc
	return nil
}

// Step 2: StartParsingRunStep starts a parsing run (status=RUNNING).
type StartParsingRunStep struct {
	Repo       Repository
	ParserType string
}

func (s *StartParsingRunStep) Execute(ctx context.Context, state *PipelineState) error {
	parsingRunID, err := s.Repo.StartParsingRun(ctx, state.Document.DocumentID, s.ParserType)
	if err != nil {
		return err
	}
	state.ParsingRunID = parsingRunID
	return nil
}

// Step 3: FetchDocumentStep fetches the file bytes from GCS.
type FetchDocumentStep struct {
	Storage StorageService
}

func (s *FetchDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	data, err := s.Storage.FetchFromGCS(ctx, state.Request.GCSURI)
	if err != nil {
		return err
	}
	state.FileBytes = data
	return nil
}

// Step 4: RecognizeTextStep turns the file into text. Plain text files are
// used as-is; images go through OCR and the text is stored next to them.
type RecognizeTextStep struct {
	Repo    Repository
	Storage StorageService
	OCR     TextRecognizer
}

func (s *RecognizeTextStep) Execute(ctx context.Context, state *PipelineState) error {
	if isTextDocument(state.Document.FileMimeType, state.Request.GCSURI) {
		state.Text = string(state.FileBytes)
		return nil
	}

	if s.OCR == nil {
		return fmt.Errorf("RecognizeTextStep: %s is not plain text and OCR is not configured", state.Request.GCSURI)
	}

	text, err := s.OCR.Recognize(ctx, state.FileBytes)
	if err != nil {
		return fmt.Errorf("RecognizeTextStep: %w", err)
	}
	state.Text = text

	textURI := gcs.TextURI(state.Request.GCSURI)
	if err := s.Storage.WriteToGCS(ctx, textURI, "text/plain; charset=utf-8", []byte(text)); err != nil {
		return fmt.Errorf("RecognizeTextStep: store text: %w", err)
	}
	if err := s.Repo.UpdateDocumentStatus(ctx, state.Document.DocumentID, store.StatusRunning, textURI); err != nil {
		return fmt.Errorf("RecognizeTextStep: %w", err)
	}
	state.TextGCSURI = textURI
	return nil
}

// Step 5: ExtractFieldsStep runs the keyword extractor over the text.
type ExtractFieldsStep struct {
	Extractor *extractor.Extractor
}

func (s *ExtractFieldsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Heuristic = s.Extractor.Extract(state.Text)
	state.Fields = state.Heuristic
	return nil
}

// Step 6: AIExtractStep asks the model to re-read the text. Present model
// fields override the heuristic ones. Model failures are logged and the
// heuristic result is kept.
type AIExtractStep struct {
	Repo Repository
	AI   AIParser
}

func (s *AIExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.AI == nil || strings.TrimSpace(state.Text) == "" {
		return nil
	}
	log := logger.FromContext(ctx)

	categories, err := s.Repo.ListActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("AIExtractStep: list categories: %w", err)
	}
	state.Categories = categories

	raw, err := s.AI.ParseInvoice(ctx, state.Text, categories)
	if err != nil {
		log.Warn().Err(err).Str("model", s.AI.Name()).Msg("AI re-extraction failed, keeping heuristic fields")
		return nil
	}
	state.ModelOutput = raw

	model, err := transformModelOutput(raw)
	if err != nil {
		log.Warn().Err(err).Str("model", s.AI.Name()).Msg("AI output not usable, keeping heuristic fields")
		return nil
	}
	state.Model = model
	state.Fields = state.Heuristic.Merge(model.Fields)
	return nil
}

// Step 7: StoreModelOutputStep stores the raw extraction output together
// with the recognized text.
type StoreModelOutputStep struct {
	Repo Repository
	AI   AIParser
	Now  func() time.Time
}

func (s *StoreModelOutputStep) Execute(ctx context.Context, state *PipelineState) error {
	modelName := HeuristicModelName
	var payload interface{} = state.Heuristic
	if state.ModelOutput != nil && s.AI != nil {
		modelName = s.AI.Name()
		payload = state.ModelOutput
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("StoreModelOutputStep: marshal output: %w", err)
	}

	row := &store.ModelOutputRow{
		OutputID:      uuid.NewString(),
		ParsingRunID:  state.ParsingRunID,
		DocumentID:    state.Document.DocumentID,
		ModelName:     modelName,
		ModelVersion:  ParserVersion,
		RawJSON:       raw,
		ExtractedText: state.Text,
		CreatedTS:     s.Now(),
	}
	if err := s.Repo.InsertModelOutput(ctx, row); err != nil {
		return fmt.Errorf("StoreModelOutputStep: %w", err)
	}
	return nil
}

// Step 8: ValidateInvoiceStep resolves the suggested category and records
// which required fields are missing. Neither makes the run fail.
type ValidateInvoiceStep struct{}

func (s *ValidateInvoiceStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Model != nil && state.Model.Category != "" && len(state.Categories) > 0 {
		id, err := NewCategoryValidator(state.Categories).Resolve(state.Model.Category, state.Model.Subcategory)
		if err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Dropping invalid category")
		} else {
			state.CategoryID = id
		}
	}
	state.MissingFields = state.Fields.MissingFields()
	return nil
}

// Step 9: InsertInvoiceStep writes the invoice row.
type InsertInvoiceStep struct {
	Repo   Repository
	UserID string
	Now    func() time.Time
}

func (s *InsertInvoiceStep) Execute(ctx context.Context, state *PipelineState) error {
	row := buildInvoiceRow(state, s.UserID, s.Now())
	if err := s.Repo.InsertInvoice(ctx, row); err != nil {
		return fmt.Errorf("InsertInvoiceStep: %w", err)
	}
	state.InvoiceID = row.InvoiceID
	return nil
}

// Step 10: MarkSuccessStep marks the parsing run and the document SUCCESS.
type MarkSuccessStep struct {
	Repo Repository
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.MarkParsingRunSucceeded(ctx, state.ParsingRunID); err != nil {
		return err
	}
	return s.Repo.UpdateDocumentStatus(ctx, state.Document.DocumentID, store.StatusSuccess, "")
}

func buildInvoiceRow(state *PipelineState, userID string, now time.Time) *store.InvoiceRow {
	f := state.Fields
	doc := state.Document

	var amount decimal.NullDecimal
	if f.Amount != nil {
		amount = decimal.NewNullDecimal(*f.Amount)
	}

	return &store.InvoiceRow{
		InvoiceID:         uuid.NewString(),
		UserID:            userID,
		DocumentID:        doc.DocumentID,
		ParsingRunID:      state.ParsingRunID,
		Organization:      state.Request.Organization,
		InvoiceType:       f.InvoiceType,
		Partner:           f.Partner,
		BankAccount:       f.BankAccount,
		Subject:           f.Subject,
		InvoiceNumber:     f.InvoiceNumber,
		Amount:            amount,
		Currency:          DefaultCurrency,
		InvoiceDate:       f.InvoiceDate,
		PaymentDeadline:   f.PaymentDeadline,
		PaymentMethodText: f.PaymentMethodText,
		CategoryID:        state.CategoryID,
		MissingFields:     state.MissingFields,
		UploadedAt:        doc.UploadTS,
		CreatedTS:         now,
	}
}

func isTextDocument(mimeType, uri string) bool {
	return strings.HasPrefix(mimeType, "text/") || strings.HasSuffix(strings.ToLower(uri), ".txt")
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps     []PipelineStep
	onFailure func(ctx context.Context, state *PipelineState, err error)
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			err = fmt.Errorf("pipeline step %d failed: %w", i+1, err)
			if p.onFailure != nil {
				p.onFailure(ctx, state, err)
			}
			return err
		}
	}
	return nil
}

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ovoda/invoice-tracker/internal/store"
)

// fakeRepository is an in-memory Repository for pipeline tests.
type fakeRepository struct {
	mu sync.Mutex

	documents     map[string]*store.DocumentRow
	runs          map[string]*store.ParsingRunRow
	outputs       []*store.ModelOutputRow
	invoices      []*store.InvoiceRow
	categories    []store.CategoryRow
	failed        map[string]string
	superseded    []string
	categoriesErr error
}

var _ Repository = (*fakeRepository)(nil)

func newFakeRepository(categories ...store.CategoryRow) *fakeRepository {
	return &fakeRepository{
		documents:  make(map[string]*store.DocumentRow),
		runs:       make(map[string]*store.ParsingRunRow),
		failed:     make(map[string]string),
		categories: categories,
	}
}

func (f *fakeRepository) InsertDocument(ctx context.Context, row *store.DocumentRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *row
	f.documents[row.DocumentID] = &cp
	return nil
}

func (f *fakeRepository) GetDocument(ctx context.Context, documentID string) (*store.DocumentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[documentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeRepository) ListAllDocuments(ctx context.Context) ([]*store.DocumentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*store.DocumentRow, 0, len(f.documents))
	for _, d := range f.documents {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*store.DocumentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.documents {
		if d.ChecksumSHA256 == checksum {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) UpdateDocumentStatus(ctx context.Context, documentID, status, textGCSURI string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[documentID]
	if !ok {
		return store.ErrNotFound
	}
	doc.ParsingStatus = status
	if textGCSURI != "" {
		doc.TextGCSURI = textGCSURI
	}
	return nil
}

func (f *fakeRepository) DeleteDocument(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.documents, documentID)
	return nil
}

func (f *fakeRepository) StartParsingRun(ctx context.Context, documentID, parserType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("run-%d", len(f.runs)+1)
	f.runs[id] = &store.ParsingRunRow{
		ParsingRunID: id,
		DocumentID:   documentID,
		ParserType:   parserType,
		Status:       store.StatusRunning,
	}
	return id, nil
}

func (f *fakeRepository) MarkParsingRunFailed(ctx context.Context, parsingRunID string, parseErr error) {
	if ctx.Err() != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.runs[parsingRunID]; ok {
		run.Status = store.StatusFailed
		run.ErrorMessage = store.TruncateError(parseErr)
	}
	f.failed[parsingRunID] = store.TruncateError(parseErr)
}

func (f *fakeRepository) MarkParsingRunSucceeded(ctx context.Context, parsingRunID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[parsingRunID]
	if !ok {
		return store.ErrNotFound
	}
	run.Status = store.StatusSuccess
	return nil
}

func (f *fakeRepository) MarkParsingRunsAsSuperseded(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.DocumentID == documentID && run.Status != store.StatusRunning {
			run.Status = store.StatusSuperseded
		}
	}
	f.superseded = append(f.superseded, documentID)
	return nil
}

func (f *fakeRepository) ListParsingRuns(ctx context.Context, documentID string) ([]*store.ParsingRunRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.ParsingRunRow
	for _, run := range f.runs {
		if run.DocumentID == documentID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRepository) InsertModelOutput(ctx context.Context, row *store.ModelOutputRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs = append(f.outputs, row)
	return nil
}

func (f *fakeRepository) InsertInvoice(ctx context.Context, row *store.InvoiceRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices = append(f.invoices, row)
	return nil
}

func (f *fakeRepository) ListActiveCategories(ctx context.Context) ([]store.CategoryRow, error) {
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	return f.categories, nil
}

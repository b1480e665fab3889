package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// fakeRepo implements the parts of store.Repository the handlers call.
// Anything else panics through the nil embedded interface.
type fakeRepo struct {
	store.Repository

	mu         sync.Mutex
	documents  map[string]*store.DocumentRow
	invoices   []*store.InvoiceRow
	categories []store.CategoryRow
	filters    []store.InvoiceFilter
	listErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{documents: map[string]*store.DocumentRow{}}
}

func (f *fakeRepo) InsertDocument(ctx context.Context, row *store.DocumentRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[row.DocumentID] = row
	return nil
}

func (f *fakeRepo) GetDocument(ctx context.Context, id string) (*store.DocumentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (f *fakeRepo) ListAllDocuments(ctx context.Context) ([]*store.DocumentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.DocumentRow
	for _, d := range f.documents {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadTS.After(out[j].UploadTS) })
	return out, nil
}

func (f *fakeRepo) FindDocumentByChecksum(ctx context.Context, checksum string) (*store.DocumentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.documents {
		if d.ChecksumSHA256 == checksum {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetInvoice(ctx context.Context, id string) (*store.InvoiceRow, error) {
	for _, inv := range f.invoices {
		if inv.InvoiceID == id {
			return inv, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]*store.InvoiceRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*store.InvoiceRow
	for _, inv := range f.invoices {
		if filter.Organization != "" && string(inv.Organization) != filter.Organization {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeRepo) ListActiveCategories(ctx context.Context) ([]store.CategoryRow, error) {
	return f.categories, nil
}

type fakePublisher struct {
	published []*jobs.ParseDocumentJob
	err       error
}

func (p *fakePublisher) PublishParseDocument(ctx context.Context, job *jobs.ParseDocumentJob) error {
	if p.err != nil {
		return p.err
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	p.published = append(p.published, job)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeUploader struct {
	objects map[string][]byte
	fail    bool
}

func (u *fakeUploader) UploadStream(ctx context.Context, bucket, object, contentType string, r io.Reader) (int64, error) {
	if u.fail {
		return 0, errors.New("bucket unavailable")
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return n, err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[bucket+"/"+object] = buf.Bytes()
	return n, nil
}

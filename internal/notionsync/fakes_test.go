package notionsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/ovoda/invoice-tracker/internal/store"
)

type fakeNotion struct {
	pages    []notionapi.Page
	pageSize int
	created  []notionapi.Properties
	archived []string
	updated  []string
	failOn   string
	queries  int
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.failOn != "" && richTextValue(notionapi.Page{Properties: properties}, PropInvoiceID) == f.failOn {
		return nil, errors.New("rate limited")
	}
	f.created = append(f.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("page-new-%d", len(f.created)))}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.updated = append(f.updated, pageID)
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.queries++
	size := f.pageSize
	if size == 0 {
		size = len(f.pages) + 1
	}
	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := start + size
	if end > len(f.pages) {
		end = len(f.pages)
	}
	resp := &notionapi.DatabaseQueryResponse{Results: f.pages[start:end]}
	if end < len(f.pages) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(fmt.Sprintf("%d", end))
	}
	return resp, nil
}

func (f *fakeNotion) ArchivePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func invoicePage(pageID, invoiceID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			PropInvoiceID: &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: invoiceID}},
			},
		},
	}
}

type fakeRepo struct {
	invoices   []*store.InvoiceRow
	categories []store.CategoryRow
	filters    []store.InvoiceFilter
	err        error
}

func (r *fakeRepo) InsertInvoice(ctx context.Context, row *store.InvoiceRow) error { return nil }

func (r *fakeRepo) GetInvoice(ctx context.Context, id string) (*store.InvoiceRow, error) {
	return nil, store.ErrNotFound
}

func (r *fakeRepo) ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]*store.InvoiceRow, error) {
	r.filters = append(r.filters, filter)
	if r.err != nil {
		return nil, r.err
	}
	var out []*store.InvoiceRow
	for _, inv := range r.invoices {
		if filter.Organization != "" && string(inv.Organization) != filter.Organization {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *fakeRepo) ListActiveCategories(ctx context.Context) ([]store.CategoryRow, error) {
	return r.categories, nil
}

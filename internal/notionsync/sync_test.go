package notionsync

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func sampleInvoices() []*store.InvoiceRow {
	return []*store.InvoiceRow{
		{InvoiceID: "inv-1", Partner: "Alfa Kft.", Organization: domain.OrganizationFoundation, CategoryID: "rezsi"},
		{InvoiceID: "inv-2", Partner: "Béta Zrt.", Organization: domain.OrganizationKindergarten},
		{InvoiceID: "inv-3", Partner: "Gamma Bt.", Organization: domain.OrganizationFoundation},
	}
}

func TestSyncInvoices_CreatesSkipsAndArchives(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()}
	notion := &fakeNotion{pages: []notionapi.Page{
		invoicePage("page-1", "inv-1"),
		invoicePage("page-old", "inv-deleted"),
		{ID: "page-manual"},
	}}

	res, err := SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{Created: 2, Skipped: 1, Archived: 1}, res)
	assert.Equal(t, []string{"page-old"}, notion.archived)
	require.Len(t, notion.created, 2)
	assert.Equal(t, "inv-2", richTextValue(pageOf(notion.created[0]), PropInvoiceID))
	assert.Equal(t, "inv-3", richTextValue(pageOf(notion.created[1]), PropInvoiceID))
	assert.Len(t, repo.filters, 1, "an empty filter needs a single listing")
}

func TestSyncInvoices_DryRunWritesNothing(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()}
	notion := &fakeNotion{pages: []notionapi.Page{invoicePage("page-old", "gone")}}

	res, err := SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{}, Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{Created: 3, Archived: 1}, res)
	assert.Empty(t, notion.created)
	assert.Empty(t, notion.archived)
}

func TestSyncInvoices_FilterDoesNotArchiveOtherInvoices(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()}
	notion := &fakeNotion{pages: []notionapi.Page{invoicePage("page-2", "inv-2")}}

	res, err := SyncInvoices(context.Background(), repo, notion, "db",
		store.InvoiceFilter{Organization: string(domain.OrganizationFoundation)}, Options{})
	require.NoError(t, err)

	assert.Empty(t, notion.archived, "inv-2 still exists, only outside the filter")
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Skipped)
	require.Len(t, repo.filters, 2)
}

func TestSyncInvoices_PaginatesNotionQuery(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()}
	notion := &fakeNotion{
		pageSize: 1,
		pages: []notionapi.Page{
			invoicePage("page-1", "inv-1"),
			invoicePage("page-2", "inv-2"),
			invoicePage("page-3", "inv-3"),
		},
	}

	res, err := SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, notion.queries)
	assert.Equal(t, 3, res.Skipped)
	assert.Zero(t, res.Created)
}

func TestSyncInvoices_RefreshUpdatesExistingPages(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()}
	notion := &fakeNotion{pages: []notionapi.Page{
		invoicePage("page-1", "inv-1"),
		invoicePage("page-2", "inv-2"),
	}}

	res, err := SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{}, Options{Refresh: true})
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{Created: 1, Updated: 2}, res)
	assert.Equal(t, []string{"page-1", "page-2"}, notion.updated)

	notion.updated = nil
	res, err = SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{}, Options{Refresh: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Empty(t, notion.updated)
}

func TestSyncInvoices_CreateFailureIsCounted(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()}
	notion := &fakeNotion{failOn: "inv-2"}

	res, err := SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Failed)
}

func TestSyncInvoices_RepositoryError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("bq down")}

	_, err := SyncInvoices(context.Background(), repo, &fakeNotion{}, "db", store.InvoiceFilter{}, Options{})
	assert.ErrorContains(t, err, "bq down")
}

func TestSyncCategories(t *testing.T) {
	repo := &fakeRepo{categories: []store.CategoryRow{
		{CategoryID: "rezsi", CategoryName: "Rezsi", Slug: "rezsi", IsActive: true},
		{CategoryID: "etkezes", CategoryName: "Étkezés", Slug: "etkezes", IsActive: true},
	}}
	notion := &fakeNotion{pages: []notionapi.Page{
		slugPage("cat-page-1", "rezsi"),
		slugPage("cat-page-old", "retired"),
	}}

	ids, err := SyncCategories(context.Background(), repo, notion, "cats", false)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"rezsi": "cat-page-1", "etkezes": "page-new-1"}, ids)
	assert.Equal(t, []string{"cat-page-old"}, notion.archived)
}

func TestSyncInvoices_AddsCategoryRelation(t *testing.T) {
	repo := &fakeRepo{invoices: sampleInvoices()[:1]}
	notion := &fakeNotion{}

	_, err := SyncInvoices(context.Background(), repo, notion, "db", store.InvoiceFilter{},
		Options{CategoryPageIDs: map[string]string{"rezsi": "cat-page-1"}})
	require.NoError(t, err)

	require.Len(t, notion.created, 1)
	assert.Contains(t, notion.created[0], PropCategory)
}

func pageOf(props notionapi.Properties) notionapi.Page {
	return notionapi.Page{Properties: props}
}

func slugPage(pageID, slug string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			PropSlug: &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: slug}},
			},
		},
	}
}

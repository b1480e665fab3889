// Package notionsync pushes stored invoices into a Notion bookkeeping
// database so the office can annotate them there.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// queryPageSize is the largest page size the Notion query API accepts.
const queryPageSize = 100

// Options tunes SyncInvoices.
type Options struct {
	// CategoryPageIDs maps category_id to a page in the categories database,
	// as returned by SyncCategories. Nil leaves the Category relation unset.
	CategoryPageIDs map[string]string
	// Refresh rewrites the properties of pages that already exist instead
	// of skipping them.
	Refresh bool
	// DryRun logs every change without writing.
	DryRun bool
}

// SyncResult counts what a sync did, or in dry-run mode would do.
type SyncResult struct {
	Created  int
	Updated  int
	Skipped  int
	Archived int
	Failed   int
}

// SyncInvoices mirrors the invoices matching filter into the database dbID,
// one page per invoice keyed by the Invoice ID property. Pages whose invoice
// is gone from the store are archived whatever the filter; pages without an
// Invoice ID were not made by this sync and are left alone.
func SyncInvoices(ctx context.Context, repo store.InvoiceRepository, pages Pages, dbID string, filter store.InvoiceFilter, opts Options) (*SyncResult, error) {
	log := logger.FromContext(ctx).With().Str("database_id", dbID).Bool("dry_run", opts.DryRun).Logger()

	invoices, err := repo.ListInvoices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("SyncInvoices: listing invoices: %w", err)
	}
	current := invoices
	if filter != (store.InvoiceFilter{}) {
		if current, err = repo.ListInvoices(ctx, store.InvoiceFilter{}); err != nil {
			return nil, fmt.Errorf("SyncInvoices: listing current invoices: %w", err)
		}
	}
	live := make(map[string]bool, len(current))
	for _, inv := range current {
		live[inv.InvoiceID] = true
	}

	existing, err := queryAllPages(ctx, pages, dbID)
	if err != nil {
		return nil, fmt.Errorf("SyncInvoices: %w", err)
	}
	log.Info().
		Int("invoices", len(invoices)).
		Int("current", len(current)).
		Int("pages", len(existing)).
		Msg("Starting invoice sync to Notion")

	res := &SyncResult{}
	pageByInvoice := make(map[string]string, len(existing))
	for _, page := range existing {
		invoiceID := richTextValue(page, PropInvoiceID)
		switch {
		case invoiceID == "":
		case live[invoiceID]:
			pageByInvoice[invoiceID] = string(page.ID)
		default:
			archive(ctx, log.With().Str("invoice_id", invoiceID).Logger(), pages, string(page.ID), opts.DryRun, res)
		}
	}

	for _, inv := range invoices {
		ilog := log.With().Str("invoice_id", inv.InvoiceID).Logger()
		props := InvoiceToNotionProperties(inv, opts.CategoryPageIDs)

		pageID, ok := pageByInvoice[inv.InvoiceID]
		switch {
		case ok && !opts.Refresh:
			res.Skipped++
		case ok && opts.DryRun:
			ilog.Info().Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
			res.Updated++
		case ok:
			if _, err := pages.UpdatePage(ctx, pageID, props); err != nil {
				ilog.Warn().Err(err).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
		case opts.DryRun:
			ilog.Info().Str("partner", inv.Partner).Msg("[DRY RUN] Would create Notion page")
			res.Created++
		default:
			page, err := pages.CreatePage(ctx, dbID, props)
			if err != nil {
				ilog.Warn().Err(err).Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			ilog.Info().Str("page_id", string(page.ID)).Msg("Created Notion page")
			pageByInvoice[inv.InvoiceID] = string(page.ID)
			res.Created++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Invoice sync completed")
	return res, nil
}

// SyncCategories mirrors the active categories into the database dbID,
// keyed by slug, and archives pages of retired slugs. It returns
// category_id -> page ID for every category with a page; in dry-run mode
// only existing pages are mapped.
func SyncCategories(ctx context.Context, repo store.CategoryRepository, pages Pages, dbID string, dryRun bool) (map[string]string, error) {
	log := logger.FromContext(ctx).With().Str("database_id", dbID).Bool("dry_run", dryRun).Logger()

	categories, err := repo.ListActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("SyncCategories: listing categories: %w", err)
	}
	active := make(map[string]bool, len(categories))
	for _, cat := range categories {
		active[cat.Slug] = true
	}

	existing, err := queryAllPages(ctx, pages, dbID)
	if err != nil {
		return nil, fmt.Errorf("SyncCategories: %w", err)
	}

	var res SyncResult
	pageBySlug := make(map[string]string)
	for _, page := range existing {
		slug := richTextValue(page, PropSlug)
		switch {
		case slug == "":
		case active[slug]:
			pageBySlug[slug] = string(page.ID)
		default:
			archive(ctx, log.With().Str("slug", slug).Logger(), pages, string(page.ID), dryRun, &res)
		}
	}

	pageIDs := make(map[string]string, len(categories))
	for _, cat := range categories {
		if id, ok := pageBySlug[cat.Slug]; ok {
			pageIDs[cat.CategoryID] = id
			continue
		}
		if dryRun {
			log.Info().Str("slug", cat.Slug).Msg("[DRY RUN] Would create category page")
			continue
		}
		page, err := pages.CreatePage(ctx, dbID, CategoryToNotionProperties(cat))
		if err != nil {
			log.Warn().Err(err).Str("slug", cat.Slug).Msg("Failed to create category page")
			continue
		}
		pageIDs[cat.CategoryID] = string(page.ID)
	}

	log.Info().
		Int("categories", len(categories)).
		Int("mapped", len(pageIDs)).
		Int("archived", res.Archived).
		Msg("Category sync completed")
	return pageIDs, nil
}

func archive(ctx context.Context, log zerolog.Logger, pages Pages, pageID string, dryRun bool, res *SyncResult) {
	if dryRun {
		log.Info().Str("page_id", pageID).Msg("[DRY RUN] Would archive stale Notion page")
		res.Archived++
		return
	}
	if err := pages.ArchivePage(ctx, pageID); err != nil {
		log.Warn().Err(err).Str("page_id", pageID).Msg("Failed to archive stale Notion page")
		res.Failed++
		return
	}
	log.Info().Str("page_id", pageID).Msg("Archived stale Notion page")
	res.Archived++
}

// queryAllPages follows the query cursor until the database is exhausted.
func queryAllPages(ctx context.Context, pages Pages, dbID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
	for {
		resp, err := pages.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}
		req = &notionapi.DatabaseQueryRequest{PageSize: queryPageSize, StartCursor: resp.NextCursor}
	}
}

// richTextValue returns the plain text of a rich text property, or "".
// Pages decoded from the API hold pointer properties; pages built by the
// mapper hold values.
func richTextValue(page notionapi.Page, name string) string {
	var rt []notionapi.RichText
	switch p := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		rt = p.RichText
	case notionapi.RichTextProperty:
		rt = p.RichText
	}
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}

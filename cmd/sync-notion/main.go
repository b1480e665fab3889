package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/infra"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/notionsync"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Parse CLI flags
	startDateStr := flag.String("start-date", "", "Only invoices uploaded on or after YYYY-MM-DD")
	endDateStr := flag.String("end-date", "", "Only invoices uploaded on or before YYYY-MM-DD")
	org := flag.String("org", "", "Only invoices of this organization")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", cfg.NotionDatabaseID, "Notion invoices database ID (or set NOTION_DATABASE_ID)")
	categoriesDBID := flag.String("categories-db-id", "", "Notion categories database ID; enables the Category relation")
	refresh := flag.Bool("refresh", false, "Rewrite pages that already exist from the stored invoice")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	var filter store.InvoiceFilter
	if *org != "" {
		if !domain.Organization(*org).Valid() {
			log.Fatal().Str("org", *org).Msg("Error: unknown organization")
		}
		filter.Organization = *org
	}
	if *startDateStr != "" {
		startDate, err := time.Parse("2006-01-02", *startDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
		filter.UploadedFrom = startDate
	}
	if *endDateStr != "" {
		endDate, err := time.Parse("2006-01-02", *endDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
		filter.UploadedTo = endDate.AddDate(0, 0, 1)
	}
	if !filter.UploadedFrom.IsZero() && !filter.UploadedTo.IsZero() && !filter.UploadedTo.After(filter.UploadedFrom) {
		log.Fatal().Msg("Error: end-date must not be before start-date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	notion := notionsync.NewClient(*notionToken)
	opts := notionsync.Options{Refresh: *refresh, DryRun: *dryRun}

	if *categoriesDBID != "" {
		opts.CategoryPageIDs, err = notionsync.SyncCategories(ctx, repo, notion, *categoriesDBID, *dryRun)
		if err != nil {
			log.Fatal().Err(err).Msg("Category sync failed")
		}
	}

	res, err := notionsync.SyncInvoices(ctx, repo, notion, *notionDBID, filter, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d skipped, %d archived, %d failed.\n",
		res.Created, res.Updated, res.Skipped, res.Archived, res.Failed)
}

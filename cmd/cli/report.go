package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/dashboard"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/export"
	"github.com/ovoda/invoice-tracker/internal/infra"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func runExport(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("output", "", "Output file (defaults to invoices-<date>.xlsx)")
	org := fs.String("org", "", "Only invoices of this organization")
	from := fs.String("from", "", "Uploaded on or after YYYY-MM-DD")
	to := fs.String("to", "", "Uploaded on or before YYYY-MM-DD")
	fs.Parse(args)

	filter := parseFilter(log, *org, *from, *to)
	now := time.Now()
	if *output == "" {
		*output = "invoices-" + now.Format("2006-01-02") + ".xlsx"
	}

	invoices := listInvoices(log, filter)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := export.WriteInvoicesXLSX(f, invoices, dashboard.Build(store.Records(invoices), now)); err != nil {
		log.Fatal().Err(err).Msg("Failed to write spreadsheet")
	}
	fmt.Printf("Exported %d invoices to %s\n", len(invoices), *output)
}

func runDashboard(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	org := fs.String("org", "", "Only invoices of this organization")
	at := fs.String("now", "", "Reference time (RFC3339), defaults to the current time")
	fs.Parse(args)

	now := time.Now()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -now")
		}
		now = t
	}

	invoices := listInvoices(log, parseFilter(log, *org, "", ""))
	out, _ := json.MarshalIndent(dashboard.Build(store.Records(invoices), now), "", "  ")
	fmt.Println(string(out))
}

func parseFilter(log zerolog.Logger, org, from, to string) store.InvoiceFilter {
	var filter store.InvoiceFilter
	if org != "" {
		if !domain.Organization(org).Valid() {
			log.Fatal().Str("org", org).Msg("Unknown organization")
		}
		filter.Organization = org
	}
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -from")
		}
		filter.UploadedFrom = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -to")
		}
		filter.UploadedTo = t.AddDate(0, 0, 1)
	}
	return filter
}

func listInvoices(log zerolog.Logger, filter store.InvoiceFilter) []*store.InvoiceRow {
	cfg := mustConfig(log)
	ctx := logger.WithContext(context.Background(), log)

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	invoices, err := repo.ListInvoices(ctx, filter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list invoices")
	}
	return invoices
}

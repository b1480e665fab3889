package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/pipeline"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	gcsURI := flag.String("gcs-uri", "", "GCS URI of the invoice scan or text file (e.g. gs://bucket/scan.jpg)")
	org := flag.String("org", "", "Organization: foundation or kindergarten")
	flag.Parse()

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("gcs_uri", *gcsURI).Str("org", *org).Msg("Starting ingestion")

	res, err := pipeline.IngestInvoiceFromGCS(ctx, cfg, pipeline.IngestRequest{
		GCSURI:       *gcsURI,
		Organization: domain.Organization(*org),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Ingestion completed successfully: document %s, invoice %s\n", res.DocumentID, res.InvoiceID)
}

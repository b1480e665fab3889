package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/gcs"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/infra"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/pipeline"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func runIngest(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the invoice scan or text file")
	org := fs.String("org", "", "Organization: foundation or kindergarten")
	fs.Parse(args)

	if *gcsURI == "" || *org == "" {
		log.Fatal().Msg("Usage: cli ingest -gcs-uri gs://bucket/object -org foundation|kindergarten")
	}

	cfg := mustConfig(log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("gcs_uri", *gcsURI).Msg("Starting ingestion")

	res, err := pipeline.IngestInvoiceFromGCS(ctx, cfg, pipeline.IngestRequest{
		GCSURI:       *gcsURI,
		Organization: domain.Organization(*org),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	printResult(res)
}

func runUpload(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name (defaults to GCS_BUCKET)")
	objectName := fs.String("object", "", "GCS object name (defaults to uploads/<date>/<filename>)")
	filePath := fs.String("file", "", "Path to local scan or text file")
	org := fs.String("org", "", "Organization: foundation or kindergarten")
	noIngest := fs.Bool("no-ingest", false, "Only upload, do not parse")
	fs.Parse(args)

	cfg := mustConfig(log)
	if *bucketName == "" {
		*bucketName = cfg.GCSBucket
	}
	if *bucketName == "" || *filePath == "" || *org == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH -org foundation|kindergarten [-bucket NAME] [-object NAME]")
	}
	if !domain.Organization(*org).Valid() {
		log.Fatal().Str("org", *org).Msg("Unknown organization")
	}

	now := time.Now()
	if *objectName == "" {
		*objectName = path.Join("uploads", now.Format("2006/01/02"), filepath.Base(*filePath))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read file")
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	if existing, err := repo.FindDocumentByChecksum(ctx, checksum); err != nil {
		log.Fatal().Err(err).Msg("Failed to check for duplicates")
	} else if existing != nil {
		log.Fatal().Str("document_id", existing.DocumentID).Msg("File already uploaded")
	}

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	gcsURI := gcs.URI(*bucketName, *objectName)
	fmt.Printf("Uploaded %s to %s\n", *filePath, gcsURI)

	if *noIngest {
		return
	}

	res, err := pipeline.IngestInvoiceFromGCSWithDeps(ctx, pipeline.NewDepsFromConfig(cfg, repo), pipeline.IngestRequest{
		GCSURI:       gcsURI,
		Organization: domain.Organization(*org),
		Filename:     filepath.Base(*filePath),
		MimeType:     gcsuploader.ContentTypeFor(*filePath),
		Checksum:     checksum,
		UploadedAt:   now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}
	printResult(res)
}

func runReparse(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("reparse", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Document ID to re-parse")
	fs.Parse(args)

	if *documentID == "" {
		log.Fatal().Msg("Error: --document-id is required")
	}

	cfg := mustConfig(log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("document_id", *documentID).Msg("Starting re-parse")

	res, err := pipeline.IngestInvoiceFromGCS(ctx, cfg, pipeline.IngestRequest{DocumentID: *documentID})
	if err != nil {
		log.Fatal().Err(err).Msg("Re-parse failed")
	}
	printResult(res)
}

func runInspect(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Document ID to inspect")
	fs.Parse(args)

	if *documentID == "" {
		log.Fatal().Msg("Error: --document-id is required")
	}

	cfg := mustConfig(log)
	ctx := logger.WithContext(context.Background(), log)

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	doc, err := repo.GetDocument(ctx, *documentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Document not found")
	}

	fmt.Println("\n=== Document Details ===")
	fmt.Printf("ID:           %s\n", doc.DocumentID)
	fmt.Printf("Organization: %s\n", doc.Organization)
	fmt.Printf("GCS URI:      %s\n", doc.GCSURI)
	if doc.TextGCSURI != "" {
		fmt.Printf("Text URI:     %s\n", doc.TextGCSURI)
	}
	fmt.Printf("Filename:     %s\n", doc.OriginalFilename)
	fmt.Printf("Uploaded:     %s\n", doc.UploadTS.Format(time.RFC3339))
	fmt.Printf("Status:       %s\n", doc.ParsingStatus)

	runs, err := repo.ListParsingRuns(ctx, doc.DocumentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list parsing runs")
	}
	fmt.Printf("\n=== Parsing Runs (%d) ===\n", len(runs))
	for _, run := range runs {
		fmt.Printf("%s  %-10s %s  %s\n", run.StartedTS.Format(time.RFC3339), run.Status, run.ParserType, run.ParsingRunID)
		if run.ErrorMessage != "" {
			fmt.Printf("   error: %s\n", run.ErrorMessage)
		}
	}

	invoices, err := repo.ListInvoices(ctx, store.InvoiceFilter{DocumentID: doc.DocumentID})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list invoices")
	}
	fmt.Printf("\n=== Invoices (%d) ===\n", len(invoices))
	for i, inv := range invoices {
		fmt.Printf("\n%d. %s\n", i+1, inv.Partner)
		fmt.Printf("   Number:   %s\n", inv.InvoiceNumber)
		if inv.Amount.Valid {
			fmt.Printf("   Amount:   %s %s\n", inv.Amount.Decimal.StringFixed(2), inv.Currency)
		}
		if inv.InvoiceDate != nil {
			fmt.Printf("   Date:     %s\n", inv.InvoiceDate)
		}
		fmt.Printf("   Type:     %s\n", inv.InvoiceType)
		if inv.CategoryID != "" {
			fmt.Printf("   Category: %s\n", inv.CategoryID)
		}
		if len(inv.MissingFields) > 0 {
			fmt.Printf("   Missing:  %v\n", inv.MissingFields)
		}
	}
	fmt.Println()
}

func printResult(res *pipeline.IngestResult) {
	fmt.Println("Ingestion completed successfully.")
	fmt.Printf("Document:    %s\n", res.DocumentID)
	fmt.Printf("Parsing run: %s\n", res.ParsingRunID)
	fmt.Printf("Invoice:     %s\n", res.InvoiceID)
	if len(res.MissingFields) > 0 {
		fmt.Printf("Missing:     %v\n", res.MissingFields)
	}
}

func runDelete(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Document ID to delete")
	yes := fs.Bool("yes", false, "Delete without confirmation")
	fs.Parse(args)

	if *documentID == "" {
		log.Fatal().Msg("Error: --document-id is required")
	}

	cfg := mustConfig(log)
	ctx := logger.WithContext(context.Background(), log)

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	doc, err := repo.GetDocument(ctx, *documentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Document not found")
	}

	if !*yes {
		fmt.Printf("Delete document %s (%s) with its parsing runs, model outputs and invoices? [y/N]: ", doc.DocumentID, doc.OriginalFilename)
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted")
			return
		}
	}

	if err := repo.DeleteDocument(ctx, doc.DocumentID); err != nil {
		log.Fatal().Err(err).Msg("Failed to delete document")
	}
	log.Info().Str("document_id", doc.DocumentID).Msg("Document deleted")
}

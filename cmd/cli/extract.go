package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/dashboard"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/export"
	"github.com/ovoda/invoice-tracker/internal/extractor"
	"github.com/ovoda/invoice-tracker/internal/ocr"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func runExtract(log zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("extract", flag.ExitOnError)
	filePath := flags.String("file", "", "Path to a text file (defaults to stdin)")
	flags.Parse(args)

	var (
		data []byte
		err  error
	)
	if *filePath == "" || *filePath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*filePath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	fields := extractor.Extract(string(data))
	out, _ := json.MarshalIndent(map[string]interface{}{
		"fields":         fields,
		"missing_fields": fields.MissingFields(),
	}, "", "  ")
	fmt.Println(string(out))
}

// extractResult is the outcome for one file of extract-dir.
type extractResult struct {
	file   string
	fields extractor.ParsedInvoiceFields
	err    error
}

func runExtractDir(log zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("extract-dir", flag.ExitOnError)
	dir := flags.String("dir", "", "Directory of invoice text files (and images when OCR is configured)")
	output := flags.String("output", "invoices.xlsx", "Output spreadsheet")
	org := flags.String("org", "", "Organization recorded on every row")
	workers := flags.Int("workers", 4, "Concurrent extractions")
	flags.Parse(args)

	if *dir == "" {
		log.Fatal().Msg("Usage: cli extract-dir -dir PATH [-output invoices.xlsx] [-org foundation|kindergarten]")
	}

	cfg := mustConfig(log)
	var recognizer ocr.TextRecognizer
	if cfg.OCREnabled() {
		recognizer = ocr.NewAzureRecognizer(cfg.AzureOCREndpoint, cfg.AzureOCRKey, cfg.OCRLanguage)
	}

	files, err := listInputFiles(*dir, recognizer != nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list directory")
	}
	if len(files) == 0 {
		log.Fatal().Str("dir", *dir).Msg("No input files found")
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Extracting invoices"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	ctx := context.Background()
	results := extractFiles(ctx, files, recognizer, *workers, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	now := time.Now()
	rows := make([]*store.InvoiceRow, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			log.Warn().Err(r.err).Str("file", r.file).Msg("Skipping file")
			continue
		}
		rows = append(rows, fieldsToRow(r.file, domain.Organization(*org), r.fields, now))
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := export.WriteInvoicesXLSX(f, rows, dashboard.Build(store.Records(rows), now)); err != nil {
		log.Fatal().Err(err).Msg("Failed to write spreadsheet")
	}
	fmt.Printf("Extracted %d of %d files into %s\n", len(rows), len(files), *output)
}

func listInputFiles(dir string, withImages bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".txt":
			files = append(files, p)
		case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
			if withImages {
				files = append(files, p)
			}
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// extractFiles runs extraction over files with a fixed number of workers
// and returns the results in input order.
func extractFiles(ctx context.Context, files []string, recognizer ocr.TextRecognizer, workers int, done func()) []extractResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]extractResult, len(files))
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = extractFile(ctx, files[i], recognizer)
				done()
			}
		}()
	}
	for i := range files {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return results
}

func extractFile(ctx context.Context, file string, recognizer ocr.TextRecognizer) extractResult {
	data, err := os.ReadFile(file)
	if err != nil {
		return extractResult{file: file, err: err}
	}
	text := string(data)
	if strings.ToLower(filepath.Ext(file)) != ".txt" {
		if recognizer == nil {
			return extractResult{file: file, err: fmt.Errorf("OCR is not configured")}
		}
		text, err = recognizer.Recognize(ctx, data)
		if err != nil {
			return extractResult{file: file, err: err}
		}
	}
	return extractResult{file: file, fields: extractor.Extract(text)}
}

func fieldsToRow(file string, org domain.Organization, f extractor.ParsedInvoiceFields, now time.Time) *store.InvoiceRow {
	row := &store.InvoiceRow{
		InvoiceID:         filepath.Base(file),
		Organization:      org,
		InvoiceType:       f.InvoiceType,
		Partner:           f.Partner,
		BankAccount:       f.BankAccount,
		Subject:           f.Subject,
		InvoiceNumber:     f.InvoiceNumber,
		Currency:          "HUF",
		InvoiceDate:       f.InvoiceDate,
		PaymentDeadline:   f.PaymentDeadline,
		PaymentMethodText: f.PaymentMethodText,
		MissingFields:     f.MissingFields(),
		UploadedAt:        now,
		CreatedTS:         now,
	}
	if f.Amount != nil {
		row.Amount = decimal.NullDecimal{Decimal: *f.Amount, Valid: true}
	}
	return row
}

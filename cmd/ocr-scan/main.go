// Command ocr-scan runs OCR and field extraction on a local invoice image
// and prints the recognized text and the extracted fields. It touches no
// storage and is meant for tuning the keyword tables against real scans.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/extractor"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/ocr"
)

func main() {
	log := logger.New()

	imagePath := flag.String("file", "", "Path to a local invoice image (required)")
	textOut := flag.String("text-out", "", "Also write the recognized text to this file")
	noEnhance := flag.Bool("no-enhance", false, "Send the image without preprocessing")
	flag.Parse()

	if *imagePath == "" {
		log.Fatal().Msg("Usage: ocr-scan -file scan.jpg [-text-out scan.txt] [-no-enhance]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if !cfg.OCREnabled() {
		log.Fatal().Msg("AZURE_OCR_ENDPOINT and AZURE_OCR_KEY must be set")
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read image")
	}

	recognizer := ocr.NewAzureRecognizer(cfg.AzureOCREndpoint, cfg.AzureOCRKey, cfg.OCRLanguage)
	if *noEnhance {
		recognizer = recognizer.WithoutEnhancement()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	text, err := recognizer.Recognize(ctx, data)
	if err != nil {
		log.Fatal().Err(err).Msg("OCR failed")
	}
	log.Info().Dur("duration", time.Since(start)).Int("chars", len(text)).Msg("OCR completed")

	if *textOut != "" {
		if err := os.WriteFile(*textOut, []byte(text), 0o644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write text")
		}
	}

	fields := extractor.Extract(text)
	out, _ := json.MarshalIndent(map[string]interface{}{
		"fields":         fields,
		"missing_fields": fields.MissingFields(),
	}, "", "  ")

	fmt.Println("=== Recognized text ===")
	fmt.Println(text)
	fmt.Println("\n=== Extracted fields ===")
	fmt.Println(string(out))
}

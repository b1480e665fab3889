package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/ovoda/invoice-tracker/internal/gcs"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/logger"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	var (
		bucketName string
		objectName string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", "", "GCS bucket name (required)")
	flag.StringVar(&objectName, "object", "", "GCS object name (optional; defaults to file name)")
	flag.StringVar(&filePath, "file", "", "Path to local scan or text file (required)")
	flag.Parse()

	if bucketName == "" || filePath == "" {
		log.Fatal().Msg("Usage: upload-scan -bucket BUCKET_NAME -file /path/to/scan.jpg [-object OBJECT_NAME]")
	}

	if objectName == "" {
		objectName = filepath.Base(filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", bucketName).
		Str("object", objectName).
		Str("file", filePath).
		Str("content_type", gcsuploader.ContentTypeFor(filePath)).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadFile(ctx, bucketName, objectName, filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", filePath, gcs.URI(bucketName, objectName))
}

package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"

	"github.com/ovoda/invoice-tracker/internal/gcs"
)

const uploadTimeout = 2 * time.Minute

// UploadFile uploads a local file to a GCS bucket under the given object name.
// It assumes Application Default Credentials are configured (gcloud auth application-default login).
func UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	if _, err := UploadStream(ctx, bucketName, objectName, ContentTypeFor(filePath), f); err != nil {
		return fmt.Errorf("UploadFile: %w", err)
	}
	return nil
}

// UploadStream copies r into bucketName/objectName and returns the number
// of bytes written.
func UploadStream(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) (int64, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return 0, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	written, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("copy to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("finalize upload: %w", err)
	}

	return written, nil
}

// WriteToGCS stores data at gcsURI.
func WriteToGCS(ctx context.Context, gcsURI, contentType string, data []byte) error {
	bucketName, objectName, err := gcs.ParseURI(gcsURI)
	if err != nil {
		return fmt.Errorf("WriteToGCS: %w", err)
	}
	if _, err := UploadStream(ctx, bucketName, objectName, contentType, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("WriteToGCS: %w", err)
	}
	return nil
}

// ContentTypeFor guesses the MIME type from the file extension.
func ContentTypeFor(filePath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filePath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

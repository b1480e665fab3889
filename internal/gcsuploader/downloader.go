package gcsuploader

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/ovoda/invoice-tracker/internal/gcs"
)

// MaxObjectBytes bounds the objects read into memory. Invoice scans and
// their OCR text are far below it.
const MaxObjectBytes = 32 << 20

// ErrObjectNotFound is matched by errors.Is when the object does not exist.
var ErrObjectNotFound = storage.ErrObjectNotExist

// DownloadFile reads a whole object into memory.
func DownloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: create storage client: %w", err)
	}
	defer client.Close()

	uri := gcs.URI(bucketName, objectName)
	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: open %s: %w", uri, err)
	}
	defer r.Close()

	if r.Attrs.Size > MaxObjectBytes {
		return nil, fmt.Errorf("DownloadFile: %s is %d bytes, limit is %d", uri, r.Attrs.Size, MaxObjectBytes)
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: read %s: %w", uri, err)
	}
	return data, nil
}

// FetchFromGCS downloads the object named by a gs:// URI.
func FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := gcs.ParseURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}
	return DownloadFile(ctx, bucketName, objectPath)
}

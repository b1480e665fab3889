package gcs

import (
	"context"
	"io"
)

// StorageService provides an interface for cloud storage operations.
type StorageService interface {
	// UploadFile uploads a local file to a storage bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// UploadStream copies r into the object and returns the bytes written.
	UploadStream(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) (int64, error)

	// FetchFromGCS downloads file bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// WriteToGCS stores data at the given storage URI.
	WriteToGCS(ctx context.Context, gcsURI, contentType string, data []byte) error
}

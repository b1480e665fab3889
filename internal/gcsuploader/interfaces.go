package gcsuploader

import (
	"context"
	"io"

	"github.com/ovoda/invoice-tracker/internal/gcs"
)

// StorageService is the storage interface implemented here.
type StorageService = gcs.StorageService

var _ StorageService = (*GCSStorageService)(nil)

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// UploadFile delegates to UploadFile.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return UploadFile(ctx, bucketName, objectName, filePath)
}

// UploadStream delegates to UploadStream.
func (s *GCSStorageService) UploadStream(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) (int64, error) {
	return UploadStream(ctx, bucketName, objectName, contentType, r)
}

// FetchFromGCS delegates to FetchFromGCS.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, gcsURI)
}

// WriteToGCS delegates to WriteToGCS.
func (s *GCSStorageService) WriteToGCS(ctx context.Context, gcsURI, contentType string, data []byte) error {
	return WriteToGCS(ctx, gcsURI, contentType, data)
}

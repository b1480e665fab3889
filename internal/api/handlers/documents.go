package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/api/middleware"
	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/gcs"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// MaxUploadBytes bounds the size of an uploaded scan.
const MaxUploadBytes = 20 << 20

// uploadPrefix is the only part of the bucket clients may write to.
const uploadPrefix = "uploads/"

// Uploader stores uploaded files.
type Uploader interface {
	UploadStream(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) (int64, error)
}

// DocumentsHandler handles document-related endpoints.
type DocumentsHandler struct {
	repo      store.DocumentRepository
	publisher jobs.Publisher
	uploader  Uploader
	bucket    string
	userID    string
	log       zerolog.Logger
	now       func() time.Time
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(repo store.DocumentRepository, publisher jobs.Publisher, uploader Uploader, bucket, userID string, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		repo:      repo,
		publisher: publisher,
		uploader:  uploader,
		bucket:    bucket,
		userID:    userID,
		log:       log,
		now:       time.Now,
	}
}

// ListDocuments handles GET /api/documents
func (h *DocumentsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documents, err := h.repo.ListAllDocuments(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list documents")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if documents == nil {
		documents = []*store.DocumentRow{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// CreateUploadURL handles POST /api/documents/upload-url
func (h *DocumentsHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename     string              `json:"filename"`
		Organization domain.Organization `json:"organization"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Filename == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Filename is required")
		return
	}
	if !req.Organization.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "organization must be one of foundation, kindergarten")
		return
	}

	filename := cleanFilename(req.Filename)
	objectName := fmt.Sprintf("%s%s/%s", uploadPrefix, h.now().Format("2006/01/02"), uuid.NewString()+"-"+filename)
	documentID := uuid.NewString()

	uploadURL := fmt.Sprintf("/api/documents/upload/%s?object_name=%s&filename=%s&organization=%s",
		documentID, url.QueryEscape(objectName), url.QueryEscape(filename), url.QueryEscape(string(req.Organization)))

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"upload_url":  uploadURL,
		"gcs_uri":     gcs.URI(h.bucket, objectName),
		"object_name": objectName,
		"document_id": documentID,
	})
}

// UploadDocument handles POST|PUT /api/documents/upload/{id}
// The body is the raw file. object_name must lie under uploads/ and the
// document ID must be unused. A file whose checksum is already stored is
// rejected with 409 and the existing document ID.
func (h *DocumentsHandler) UploadDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	ctx := r.Context()
	query := r.URL.Query()

	objectName := query.Get("object_name")
	if objectName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "object_name is required")
		return
	}
	if !validObjectName(objectName) {
		middleware.WriteError(w, http.StatusBadRequest, "object_name must be a file under "+uploadPrefix)
		return
	}
	org := domain.Organization(query.Get("organization"))
	if !org.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "organization must be one of foundation, kindergarten")
		return
	}
	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Uploads are disabled: no bucket configured")
		return
	}

	switch _, err := h.repo.GetDocument(ctx, documentID); {
	case err == nil:
		middleware.WriteError(w, http.StatusConflict, "Document ID already in use")
		return
	case !errors.Is(err, store.ErrNotFound):
		h.log.Error().Err(err).Str("document_id", documentID).Msg("Failed to check document ID")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	filename := cleanFilename(query.Get("filename"))
	if filename == "" {
		filename = filepath.Base(objectName)
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = gcsuploader.ContentTypeFor(filename)
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large or unreadable")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Empty file")
		return
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	existing, err := h.repo.FindDocumentByChecksum(ctx, checksum)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check for duplicate upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	if existing != nil {
		middleware.WriteJSON(w, http.StatusConflict, map[string]string{
			"error":       "Document already uploaded",
			"document_id": existing.DocumentID,
		})
		return
	}

	written, err := h.uploader.UploadStream(ctx, h.bucket, objectName, contentType, bytes.NewReader(data))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to write to GCS")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	gcsURI := gcs.URI(h.bucket, objectName)
	h.log.Info().
		Str("document_id", documentID).
		Str("gcs_uri", gcsURI).
		Int64("bytes", written).
		Msg("File uploaded successfully")

	doc := &store.DocumentRow{
		DocumentID:       documentID,
		UserID:           h.userID,
		GCSURI:           gcsURI,
		DocumentType:     "INVOICE",
		SourceSystem:     "UPLOAD",
		Organization:     org,
		UploadTS:         h.now(),
		ParsingStatus:    store.StatusPending,
		OriginalFilename: filename,
		FileMimeType:     contentType,
		ChecksumSHA256:   checksum,
	}

	if err := h.repo.InsertDocument(ctx, doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert document metadata")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save document metadata")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"document_id": documentID,
		"gcs_uri":     gcsURI,
		"status":      "uploaded",
	})
}

// EnqueueParsing handles POST /api/documents/parse
// Either document_id (reparse a stored document) or gcs_uri with an
// organization (ingest a new object) is required.
func (h *DocumentsHandler) EnqueueParsing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID   string              `json:"document_id"`
		GCSURI       string              `json:"gcs_uri"`
		Organization domain.Organization `json:"organization"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	job := &jobs.ParseDocumentJob{
		DocumentID:   req.DocumentID,
		GCSURI:       req.GCSURI,
		Organization: req.Organization,
	}

	switch {
	case req.DocumentID != "":
		doc, err := h.repo.GetDocument(ctx, req.DocumentID)
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Document not found")
			return
		}
		if err != nil {
			h.log.Error().Err(err).Str("document_id", req.DocumentID).Msg("Failed to load document")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to load document")
			return
		}
		job.GCSURI = doc.GCSURI
		job.Organization = doc.Organization
		job.Filename = doc.OriginalFilename
	case req.GCSURI != "":
		if _, _, err := gcs.ParseURI(req.GCSURI); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "gcs_uri must look like gs://bucket/object")
			return
		}
		if !req.Organization.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "organization must be one of foundation, kindergarten")
			return
		}
	default:
		middleware.WriteError(w, http.StatusBadRequest, "document_id or gcs_uri is required")
		return
	}

	if err := h.publisher.PublishParseDocument(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue parsing job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parsing job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("document_id", job.DocumentID).Msg("Parsing job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"document_id": job.DocumentID,
		"status":      string(job.Status),
	})
}

// cleanFilename drops any path or query suffix from a client filename.
func cleanFilename(name string) string {
	if idx := strings.Index(name, "?"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// validObjectName accepts a clean object path below uploadPrefix.
func validObjectName(name string) bool {
	if !strings.HasPrefix(name, uploadPrefix) || len(name) == len(uploadPrefix) {
		return false
	}
	return path.Clean(name) == name && !strings.HasSuffix(name, "/")
}

// Package postgres implements store.Repository on PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/store"
)

const parserVersion = "v1"

var _ store.Repository = (*Repository)(nil)

// Repository is the PostgreSQL storage backend.
type Repository struct {
	db *gorm.DB
}

// Open connects to databaseURL and migrates the schema.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("Open: connecting to database: %w", err)
	}

	repo := New(db)
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// New wraps an existing gorm connection.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("Migrate: auto-migrating schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return sqlDB.Close()
}

func (r *Repository) InsertDocument(ctx context.Context, row *store.DocumentRow) error {
	if err := r.db.WithContext(ctx).Create(documentFromStore(row)).Error; err != nil {
		return fmt.Errorf("InsertDocument: %w", err)
	}
	return nil
}

func (r *Repository) GetDocument(ctx context.Context, documentID string) (*store.DocumentRow, error) {
	var doc Document
	err := r.db.WithContext(ctx).First(&doc, "document_id = ?", documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetDocument: %s: %w", documentID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetDocument: %w", err)
	}
	return doc.toStore(), nil
}

func (r *Repository) ListAllDocuments(ctx context.Context) ([]*store.DocumentRow, error) {
	var docs []Document
	if err := r.db.WithContext(ctx).Order("upload_ts DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("ListAllDocuments: %w", err)
	}
	out := make([]*store.DocumentRow, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toStore())
	}
	return out, nil
}

func (r *Repository) FindDocumentByChecksum(ctx context.Context, checksum string) (*store.DocumentRow, error) {
	var docs []Document
	err := r.db.WithContext(ctx).Where("checksum_sha256 = ?", checksum).Limit(1).Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0].toStore(), nil
}

func (r *Repository) UpdateDocumentStatus(ctx context.Context, documentID, status, textGCSURI string) error {
	updates := map[string]interface{}{
		"parsing_status": status,
		"processed_ts":   time.Now(),
	}
	if textGCSURI != "" {
		updates["text_gcs_uri"] = textGCSURI
	}
	err := r.db.WithContext(ctx).Model(&Document{}).Where("document_id = ?", documentID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: %w", err)
	}
	return nil
}

// DeleteDocument removes the document and its invoices, model outputs and
// parsing runs in one transaction.
func (r *Repository) DeleteDocument(ctx context.Context, documentID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&Invoice{}, &ModelOutput{}, &ParsingRun{}, &Document{}} {
			if err := tx.Where("document_id = ?", documentID).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteDocument: %w", err)
	}
	return nil
}

func (r *Repository) StartParsingRun(ctx context.Context, documentID, parserType string) (string, error) {
	run := &ParsingRun{
		ParsingRunID:  uuid.NewString(),
		DocumentID:    documentID,
		StartedTS:     time.Now(),
		ParserType:    parserType,
		ParserVersion: parserVersion,
		Status:        store.StatusRunning,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return "", fmt.Errorf("StartParsingRun: %w", err)
	}
	return run.ParsingRunID, nil
}

func (r *Repository) MarkParsingRunFailed(ctx context.Context, parsingRunID string, parseErr error) {
	err := r.db.WithContext(ctx).Model(&ParsingRun{}).
		Where("parsing_run_id = ?", parsingRunID).
		Updates(map[string]interface{}{
			"status":        store.StatusFailed,
			"finished_ts":   time.Now(),
			"error_message": store.TruncateError(parseErr),
		}).Error
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("parsing_run_id", parsingRunID).Msg("MarkParsingRunFailed: updating parsing run")
	}
}

func (r *Repository) MarkParsingRunSucceeded(ctx context.Context, parsingRunID string) error {
	err := r.db.WithContext(ctx).Model(&ParsingRun{}).
		Where("parsing_run_id = ?", parsingRunID).
		Updates(map[string]interface{}{
			"status":        store.StatusSuccess,
			"finished_ts":   time.Now(),
			"error_message": "",
		}).Error
	if err != nil {
		return fmt.Errorf("MarkParsingRunSucceeded: %w", err)
	}
	return nil
}

func (r *Repository) MarkParsingRunsAsSuperseded(ctx context.Context, documentID string) error {
	err := r.db.WithContext(ctx).Model(&ParsingRun{}).
		Where("document_id = ? AND status <> ?", documentID, store.StatusRunning).
		Update("status", store.StatusSuperseded).Error
	if err != nil {
		return fmt.Errorf("MarkParsingRunsAsSuperseded: %w", err)
	}
	return nil
}

func (r *Repository) ListParsingRuns(ctx context.Context, documentID string) ([]*store.ParsingRunRow, error) {
	var runs []ParsingRun
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("started_ts DESC").Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("ListParsingRuns: %w", err)
	}
	out := make([]*store.ParsingRunRow, 0, len(runs))
	for i := range runs {
		out = append(out, runs[i].toStore())
	}
	return out, nil
}

func (r *Repository) InsertModelOutput(ctx context.Context, row *store.ModelOutputRow) error {
	m := &ModelOutput{
		OutputID:      row.OutputID,
		ParsingRunID:  row.ParsingRunID,
		DocumentID:    row.DocumentID,
		ModelName:     row.ModelName,
		ModelVersion:  row.ModelVersion,
		RawJSON:       string(row.RawJSON),
		ExtractedText: row.ExtractedText,
		Notes:         row.Notes,
		CreatedTS:     row.CreatedTS,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("InsertModelOutput: %w", err)
	}
	return nil
}

func (r *Repository) InsertInvoice(ctx context.Context, row *store.InvoiceRow) error {
	if err := r.db.WithContext(ctx).Create(invoiceFromStore(row)).Error; err != nil {
		return fmt.Errorf("InsertInvoice: %w", err)
	}
	return nil
}

func (r *Repository) GetInvoice(ctx context.Context, invoiceID string) (*store.InvoiceRow, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).First(&inv, "invoice_id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetInvoice: %s: %w", invoiceID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetInvoice: %w", err)
	}
	return inv.toStore(), nil
}

// ListInvoices returns invoices from successful parsing runs, newest first.
func (r *Repository) ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]*store.InvoiceRow, error) {
	var invoices []Invoice
	err := r.db.WithContext(ctx).Scopes(invoiceFilterScope(filter)).Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("ListInvoices: %w", err)
	}
	out := make([]*store.InvoiceRow, 0, len(invoices))
	for i := range invoices {
		out = append(out, invoices[i].toStore())
	}
	return out, nil
}

func invoiceFilterScope(filter store.InvoiceFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&Invoice{}).
			Select("invoices.*").
			Joins("JOIN parsing_runs ON parsing_runs.parsing_run_id = invoices.parsing_run_id").
			Where("parsing_runs.status = ?", store.StatusSuccess)
		if filter.DocumentID != "" {
			db = db.Where("invoices.document_id = ?", filter.DocumentID)
		}
		if filter.Organization != "" {
			db = db.Where("invoices.organization = ?", filter.Organization)
		}
		if filter.InvoiceType != "" {
			db = db.Where("invoices.invoice_type = ?", filter.InvoiceType)
		}
		if !filter.UploadedFrom.IsZero() {
			db = db.Where("invoices.uploaded_at >= ?", filter.UploadedFrom)
		}
		if !filter.UploadedTo.IsZero() {
			db = db.Where("invoices.uploaded_at < ?", filter.UploadedTo)
		}
		db = db.Order("invoices.uploaded_at DESC").Order("invoices.created_ts DESC")
		if filter.Limit > 0 {
			db = db.Limit(filter.Limit)
		}
		return db
	}
}

func (r *Repository) ListActiveCategories(ctx context.Context) ([]store.CategoryRow, error) {
	var cats []Category
	err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("category_name").Order("subcategory_name").
		Find(&cats).Error
	if err != nil {
		return nil, fmt.Errorf("ListActiveCategories: %w", err)
	}
	out := make([]store.CategoryRow, 0, len(cats))
	for _, c := range cats {
		out = append(out, store.CategoryRow{
			CategoryID:      c.CategoryID,
			CategoryName:    c.CategoryName,
			SubcategoryName: c.SubcategoryName,
			Slug:            c.Slug,
			IsActive:        c.IsActive,
		})
	}
	return out, nil
}

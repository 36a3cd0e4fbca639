package repository

import (
	"context"
	"errors"
	"fmt"

	"naratmalsami/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDocumentNotFound is returned when no live document has the given id
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepositoryImpl handles all database operations for documents using GORM
// Learning: This is the IMPLEMENTATION. It doesn't know about any interface.
// The consumers (loader, store, api) declare the interface they need.
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
// Returns concrete type - "Accept interfaces, return structs"
func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

// Create inserts a new document into the database
// The KSUID is auto-generated in the BeforeCreate hook
func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *models.DocumentCreate) (*models.Document, error) {
	document := &models.Document{
		Title:   doc.Title,
		Content: doc.Content,
	}

	if err := r.db.WithContext(ctx).Create(document).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return document, nil
}

// GetByID retrieves a document by its hashed id
// Soft-deleted documents are automatically excluded
func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// SaveContent writes flushed content and appends a revision in one transaction.
// Documents loaded from the remote files API may not have a local row yet, so
// the content write is an upsert.
// Learning: Both rows commit together, so history never disagrees with the document
func (r *DocumentRepositoryImpl) SaveContent(ctx context.Context, documentID, sessionID, content string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc := &models.Document{ID: documentID, Content: content}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).Create(doc).Error
		if err != nil {
			return fmt.Errorf("failed to save document content: %w", err)
		}

		revision := &models.DocumentRevision{
			DocumentID: documentID,
			SessionID:  sessionID,
			Content:    content,
		}
		if err := tx.Create(revision).Error; err != nil {
			return fmt.Errorf("failed to store revision: %w", err)
		}

		return nil
	})
}

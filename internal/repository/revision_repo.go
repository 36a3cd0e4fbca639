package repository

import (
	"context"
	"fmt"

	"naratmalsami/internal/models"

	"gorm.io/gorm"
)

/*
LEARNING: REVISION HISTORY

Each flush appends a revision (see SaveContent). Query patterns:
- List: recent history for a document, newest first
- Prune: keep the newest N revisions to bound growth
*/

// RevisionRepositoryImpl handles flush revision storage
type RevisionRepositoryImpl struct {
	db *gorm.DB
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(db *gorm.DB) *RevisionRepositoryImpl {
	return &RevisionRepositoryImpl{db: db}
}

// List returns the most recent revisions of a document
func (r *RevisionRepositoryImpl) List(ctx context.Context, documentID string, limit int) ([]*models.DocumentRevision, error) {
	var revisions []*models.DocumentRevision

	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&revisions).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}

	return revisions, nil
}

// Prune removes all but the newest keepCount revisions
// Call periodically to prevent unbounded growth
func (r *RevisionRepositoryImpl) Prune(ctx context.Context, documentID string, keepCount int) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentRevision{}).
		Where("document_id = ?", documentID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count revisions: %w", err)
	}

	if count <= int64(keepCount) {
		return nil // Nothing to delete
	}

	// Oldest revision that survives
	var cutoff models.DocumentRevision
	offset := count - int64(keepCount)
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Offset(int(offset)).
		First(&cutoff).Error; err != nil {
		return fmt.Errorf("failed to find revision cutoff: %w", err)
	}

	result := r.db.WithContext(ctx).
		Where("document_id = ? AND created_at < ?", documentID, cutoff.CreatedAt).
		Delete(&models.DocumentRevision{})

	if result.Error != nil {
		return fmt.Errorf("failed to prune revisions: %w", result.Error)
	}

	return nil
}

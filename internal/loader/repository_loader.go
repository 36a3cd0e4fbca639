package loader

import (
	"context"

	"naratmalsami/internal/models"
)

// DocumentRepository is what RepositoryLoader needs from document storage
type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

// RepositoryLoader loads documents from the local database
type RepositoryLoader struct {
	repo DocumentRepository
}

func NewRepositoryLoader(repo DocumentRepository) *RepositoryLoader {
	return &RepositoryLoader{repo: repo}
}

func (l *RepositoryLoader) Fetch(ctx context.Context, id string) (*models.Document, error) {
	return l.repo.GetByID(ctx, id)
}

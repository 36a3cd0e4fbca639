package api

import (
	"context"

	"naratmalsami/internal/models"
	"naratmalsami/internal/store"
)

/*
LEARNING: CONSUMER-DRIVEN INTERFACES

The handlers declare only what they call. Repositories and the store return
concrete types and never import this package, and tests plug in small fakes.
*/

// DocumentRepository is what handlers need from document storage
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.DocumentCreate) (*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

// RevisionRepository is what handlers need from flush history
type RevisionRepository interface {
	List(ctx context.Context, documentID string, limit int) ([]*models.DocumentRevision, error)
}

// LiveContent exposes documents currently held by editing sessions
type LiveContent interface {
	Get(documentID string) (store.Entry, bool)
}

package docsync

import (
	"context"

	"naratmalsami/internal/blocks"
	"naratmalsami/internal/models"
)

// Interfaces are declared here, where they are consumed. The store, loader
// and editor surface implementations never import this package.

// DocumentStore holds the authoritative in-memory content of a document.
type DocumentStore interface {
	Init(ctx context.Context, content string) error
	Update(ctx context.Context, content string) error
}

// ContentExtractor returns the live editor's serialized content. ok is false
// when no editor instance is available.
type ContentExtractor interface {
	SerializedContent() (content string, ok bool)
}

// DocumentLoader fetches the document a session starts from.
type DocumentLoader interface {
	Fetch(ctx context.Context, id string) (*models.Document, error)
}

// BlockTagger assigns stable ids to untagged top-level blocks.
type BlockTagger interface {
	Tag(root blocks.Root) int
}

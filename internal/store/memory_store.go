package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

/*
LEARNING: SHARED IN-MEMORY DOCUMENT STORE

The store is the process-wide holder of each document's current content.
Sessions never touch the map directly: they get a per-document handle and
only call Init (once, with the loaded document) and Update (once per flush).

Writes can go through a Persister first, so the database and the memory
view only diverge if the process dies between the two steps.
*/

var (
	ErrMalformedContent = errors.New("malformed document content")
	ErrNotInitialised   = errors.New("document not initialised")
)

// Persister writes flushed content to durable storage
type Persister interface {
	SaveContent(ctx context.Context, documentID, sessionID, content string) error
}

// Entry is a snapshot of one document in the store
type Entry struct {
	Content   string
	Version   int
	UpdatedAt time.Time
}

// MemoryStore holds document content keyed by document id
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]*Entry
	persister Persister
}

// NewMemoryStore creates a store. persister may be nil.
func NewMemoryStore(persister Persister) *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]*Entry),
		persister: persister,
	}
}

// For returns the handle a session uses for one document
func (s *MemoryStore) For(documentID, sessionID string) *Handle {
	return &Handle{store: s, documentID: documentID, sessionID: sessionID}
}

// Get returns a copy of the document's entry
func (s *MemoryStore) Get(documentID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[documentID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Forget drops a document from memory
func (s *MemoryStore) Forget(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, documentID)
}

func (s *MemoryStore) init(documentID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[documentID] = &Entry{
		Content:   content,
		UpdatedAt: time.Now(),
	}
}

func (s *MemoryStore) update(ctx context.Context, documentID, sessionID, content string) error {
	if !utf8.ValidString(content) {
		return ErrMalformedContent
	}

	s.mu.RLock()
	_, ok := s.docs[documentID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInitialised, documentID)
	}

	if s.persister != nil {
		if err := s.persister.SaveContent(ctx, documentID, sessionID, content); err != nil {
			return fmt.Errorf("failed to persist document: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[documentID]
	if !ok {
		// Forgotten while persisting
		e = &Entry{}
		s.docs[documentID] = e
	}
	e.Content = content
	e.Version++
	e.UpdatedAt = time.Now()
	return nil
}

// Handle is a DocumentStore bound to a single document
type Handle struct {
	store      *MemoryStore
	documentID string
	sessionID  string
}

// Init sets the document's content as loaded at session start
func (h *Handle) Init(ctx context.Context, content string) error {
	h.store.init(h.documentID, content)
	return nil
}

// Update replaces the document's content after a flush
func (h *Handle) Update(ctx context.Context, content string) error {
	return h.store.update(ctx, h.documentID, h.sessionID, content)
}

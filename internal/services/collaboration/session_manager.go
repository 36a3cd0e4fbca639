package collaboration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"naratmalsami/internal/docsync"
	"naratmalsami/internal/editor"
	"naratmalsami/internal/idle"
	"naratmalsami/internal/models"
	"naratmalsami/internal/store"

	"github.com/gorilla/websocket"
)

/*
LEARNING: EDITING SESSION MANAGER

One Session per connected editor. Each session owns:
- an editor.Surface (server-side copy of the editor's content root)
- a docsync.Controller (idle timer + flush pipeline)
- a handle on the shared MemoryStore for its document

Lifecycle:
  connect → Open (load document, store.Init) → ready
  edit messages → surface.Replace + controller.Edit
  disconnect/shutdown → teardown (controller.Close first, then the rest)
*/

// RevisionPruner bounds the flush history of a document
type RevisionPruner interface {
	Prune(ctx context.Context, documentID string, keepCount int) error
}

// ManagerConfig configures a SessionManager
type ManagerConfig struct {
	IdleDuration    time.Duration
	RevisionsKept   int
	InactiveTimeout time.Duration
	CleanupInterval time.Duration

	// Clock drives session idle timers; nil uses the system clock
	Clock idle.Clock
}

// SessionManager manages all active editing sessions
type SessionManager struct {
	documents map[string]map[*Session]bool // documentID -> set of sessions
	mu        sync.RWMutex

	store  *store.MemoryStore
	loader docsync.DocumentLoader
	pruner RevisionPruner
	cfg    ManagerConfig

	done     chan struct{}
	stopOnce sync.Once
}

// Session is one editor connected to a document
type Session struct {
	*models.Session
	Conn    *websocket.Conn
	Send    chan []byte // Buffered channel for outbound messages
	Manager *SessionManager

	surface    *editor.Surface
	controller *docsync.Controller

	activeMu sync.Mutex
	sendMu   sync.Mutex
	sendDone bool
	closed   sync.Once
}

// NewSessionManager creates a session manager. pruner may be nil.
func NewSessionManager(st *store.MemoryStore, loader docsync.DocumentLoader, pruner RevisionPruner, cfg ManagerConfig) *SessionManager {
	if cfg.IdleDuration <= 0 {
		cfg.IdleDuration = docsync.DefaultIdleDuration
	}
	if cfg.InactiveTimeout <= 0 {
		cfg.InactiveTimeout = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 30 * time.Second
	}

	return &SessionManager{
		documents: make(map[string]map[*Session]bool),
		store:     st,
		loader:    loader,
		pruner:    pruner,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// Start runs the maintenance loop
func (sm *SessionManager) Start() {
	log.Println("🔄 Starting editing session manager...")
	go sm.cleanupLoop()
	log.Println("✓ Editing session manager started")
}

// Open creates a session for documentID, loads the document and initialises
// the store. On a load failure nothing is registered and the error wraps
// docsync.ErrLoadFailure.
func (sm *SessionManager) Open(ctx context.Context, documentID string, conn *websocket.Conn) (*Session, *models.Document, error) {
	s := &Session{
		Session: models.NewSession(documentID),
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Manager: sm,
		surface: editor.NewSurface(),
	}

	s.controller = docsync.NewController(s.surface, nil, s.surface, sm.store.For(documentID, s.ID), docsync.Options{
		IdleDuration: sm.cfg.IdleDuration,
		DocumentID:   documentID,
		Clock:        sm.cfg.Clock,
		OnFlush: func(content string) {
			s.enqueue(models.EditorMessage{Type: models.MessageTypeFlushed, Content: content})
		},
		OnError: func(err error) {
			s.enqueue(models.EditorMessage{Type: models.MessageTypeError, Error: err.Error()})
		},
	})

	doc, err := s.controller.Bootstrap(ctx, sm.loader, documentID)
	if err != nil {
		s.controller.Close()
		return nil, nil, err
	}

	if err := s.surface.Load(doc.Content); err != nil {
		s.controller.Close()
		if len(sm.GetSessions(documentID)) == 0 {
			sm.store.Forget(documentID)
		}
		return nil, nil, fmt.Errorf("%w: %s: %w", docsync.ErrLoadFailure, documentID, err)
	}

	sm.register(s)
	return s, doc, nil
}

func (sm *SessionManager) register(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.documents[s.DocumentID] == nil {
		sm.documents[s.DocumentID] = make(map[*Session]bool)
	}
	sm.documents[s.DocumentID][s] = true

	log.Printf("  Session %s opened document %s (total: %d sessions)",
		s.ID, s.DocumentID, len(sm.documents[s.DocumentID]))
}

func (sm *SessionManager) unregister(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sessions, ok := sm.documents[s.DocumentID]
	if !ok || !sessions[s] {
		return
	}
	delete(sessions, s)
	if len(sessions) == 0 {
		// The live copy only exists while someone is editing
		delete(sm.documents, s.DocumentID)
		sm.store.Forget(s.DocumentID)
	}

	log.Printf("  Session %s left document %s (remaining: %d sessions)",
		s.ID, s.DocumentID, len(sessions))
}

// GetSessions returns all active sessions for a document
func (sm *SessionManager) GetSessions(documentID string) []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := sm.documents[documentID]
	result := make([]*Session, 0, len(sessions))
	for s := range sessions {
		result = append(result, s)
	}
	return result
}

func (sm *SessionManager) allSessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var result []*Session
	for _, sessions := range sm.documents {
		for s := range sessions {
			result = append(result, s)
		}
	}
	return result
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sm.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.done:
			return
		case <-ticker.C:
			sm.cleanup()
		}
	}
}

// cleanup closes inactive sessions and prunes revision history
func (sm *SessionManager) cleanup() {
	now := time.Now()
	pruned := make(map[string]bool)

	for _, s := range sm.allSessions() {
		if now.Sub(s.lastActive()) > sm.cfg.InactiveTimeout {
			log.Printf("  Closing inactive session %s", s.ID)
			s.Close()
			continue
		}

		if sm.pruner != nil && sm.cfg.RevisionsKept > 0 && !pruned[s.DocumentID] {
			pruned[s.DocumentID] = true
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := sm.pruner.Prune(ctx, s.DocumentID, sm.cfg.RevisionsKept); err != nil {
				log.Printf("⚠️  Failed to prune revisions for %s: %v", s.DocumentID, err)
			}
			cancel()
		}
	}
}

// Shutdown tears down every session. Pending flushes are discarded.
func (sm *SessionManager) Shutdown() {
	sm.stopOnce.Do(func() {
		log.Println("🛑 Shutting down session manager...")
		close(sm.done)

		for _, s := range sm.allSessions() {
			s.Close()
		}

		log.Println("✓ Session manager shutdown complete")
	})
}

// Session methods

// HandleMessage applies one editor message to the session
func (s *Session) HandleMessage(data []byte) error {
	var msg models.EditorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	s.touch()

	switch msg.Type {
	case models.MessageTypeReady:
		s.surface.MarkReady()
	case models.MessageTypeEdit:
		if err := s.surface.Replace(msg.Content); err != nil {
			return err
		}
		s.controller.Edit()
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// Close tears the session down. The idle timer is stopped before anything
// else so no flush can reach a detached surface.
func (s *Session) Close() {
	s.closed.Do(func() {
		s.controller.Close()
		s.surface.Detach()
		s.Manager.unregister(s)

		s.sendMu.Lock()
		s.sendDone = true
		close(s.Send)
		s.sendMu.Unlock()

		if s.Conn != nil {
			s.Conn.Close()
		}
	})
}

// State returns the session's flush state
func (s *Session) State() docsync.State {
	return s.controller.State()
}

func (s *Session) enqueue(msg models.EditorMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendDone {
		return
	}

	select {
	case s.Send <- data:
	default:
		log.Printf("⚠️  Session %s send buffer full, dropping %s message", s.ID, msg.Type)
	}
}

func (s *Session) touch() {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	s.LastActiveAt = time.Now()
}

func (s *Session) lastActive() time.Time {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.LastActiveAt
}

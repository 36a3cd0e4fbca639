package models

import (
	"time"

	"github.com/segmentio/ksuid"
)

// Session represents one editor connected to a document over WebSocket.
// A session owns its idle timer and is torn down when the connection closes.
type Session struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// MessageType identifies messages in the editing protocol
type MessageType string

const (
	// Client → server
	MessageTypeReady MessageType = "ready" // Editor instance finished initialising
	MessageTypeEdit  MessageType = "edit"  // Editor content changed

	// Server → client
	MessageTypeFlushed MessageType = "flushed" // Content was pushed to the store
	MessageTypeError   MessageType = "error"
)

// EditorMessage is the JSON envelope exchanged with the browser editor.
// Server "ready" replies carry the document title and initial content.
type EditorMessage struct {
	Type    MessageType `json:"type"`
	Title   string      `json:"title,omitempty"`
	Content string      `json:"content,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewSession(documentID string) *Session {
	now := time.Now()
	return &Session{
		ID:           ksuid.New().String(),
		DocumentID:   documentID,
		ConnectedAt:  now,
		LastActiveAt: now,
	}
}

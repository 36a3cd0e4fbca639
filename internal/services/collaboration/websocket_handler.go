package collaboration

import (
	"errors"
	"log"
	"net/http"
	"time"

	"naratmalsami/internal/docsync"
	"naratmalsami/internal/middleware"
	"naratmalsami/internal/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 8 << 20 // Full document markup per edit
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the editor's origin once it is configurable
		return true
	},
}

// WebSocketHandler handles WebSocket connections from browser editors
type WebSocketHandler struct {
	sessionManager *SessionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(sessionManager *SessionManager) *WebSocketHandler {
	return &WebSocketHandler{
		sessionManager: sessionManager,
	}
}

// HandleDocumentConnection opens an editing session for /ws/document/{id}
func (h *WebSocketHandler) HandleDocumentConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := mux.Vars(r)["id"]

	ctx, span := middleware.StartSpan(ctx, "WebSocket.Connect",
		attribute.String("document.id", documentID),
	)
	defer span.End()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		middleware.AddSpanError(ctx, err)
		return
	}

	session, doc, err := h.sessionManager.Open(ctx, documentID, conn)
	if err != nil {
		// Load failures are reported once to the editor; the surface stays uninitialised
		log.Printf("⚠️  Failed to open document %s: %v", documentID, err)
		middleware.AddSpanError(ctx, err)

		code := websocket.CloseInternalServerErr
		if errors.Is(err, docsync.ErrLoadFailure) {
			code = websocket.ClosePolicyViolation
		}
		writeCloseWithError(conn, code, err)
		return
	}

	session.enqueue(models.EditorMessage{
		Type:    models.MessageTypeReady,
		Title:   doc.Title,
		Content: doc.Content,
	})

	go session.WritePump()
	go session.ReadPump()

	log.Printf("✓ Editing session %s established for document %s", session.ID, documentID)
}

func writeCloseWithError(conn *websocket.Conn, code int, err error) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	payload := []byte(`{"type":"error","error":"document could not be loaded"}`)
	_ = conn.WriteMessage(websocket.TextMessage, payload)

	reason := err.Error()
	if len(reason) > 120 {
		reason = reason[:120] // Close frames carry at most 123 bytes
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	conn.Close()
}

// ReadPump reads editor messages until the connection drops, then tears the
// session down
func (s *Session) ReadPump() {
	defer s.Close()

	s.Conn.SetReadLimit(maxMessageSize)
	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		s.touch()
		return nil
	})

	for {
		_, message, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if err := s.HandleMessage(message); err != nil {
			log.Printf("  Session %s: %v", s.ID, err)
			s.enqueue(models.EditorMessage{Type: models.MessageTypeError, Error: err.Error()})
		}
	}
}

// WritePump writes queued messages and keeps the connection alive with pings
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

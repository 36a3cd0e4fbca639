package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"naratmalsami/internal/models"
	"naratmalsami/internal/repository"
	"naratmalsami/internal/services/collaboration"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests
type Handler struct {
	docRepo   DocumentRepository
	revRepo   RevisionRepository
	live      LiveContent
	wsHandler *collaboration.WebSocketHandler
}

func NewHandler(
	docRepo DocumentRepository,
	revRepo RevisionRepository,
	live LiveContent,
	wsHandler *collaboration.WebSocketHandler,
) *Handler {
	return &Handler{
		docRepo:   docRepo,
		revRepo:   revRepo,
		live:      live,
		wsHandler: wsHandler,
	}
}

// documentResponse is a document plus where its content came from
type documentResponse struct {
	*models.Document
	Live    bool `json:"live"`
	Version int  `json:"version,omitempty"`
}

// Document handlers

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var doc models.DocumentCreate
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.docRepo.Create(r.Context(), &doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetDocument returns the persisted document, with its content replaced by
// the live store value when an editing session holds it
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.docRepo.GetByID(r.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	entry, live := h.live.Get(id)
	if doc == nil && !live {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if doc == nil {
		doc = &models.Document{ID: id}
	}

	resp := documentResponse{Document: doc, Live: live}
	if live {
		doc.Content = entry.Content
		doc.UpdatedAt = entry.UpdatedAt
		resp.Version = entry.Version
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	revisions, err := h.revRepo.List(r.Context(), id, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"revisions":   revisions,
		"limit":       limit,
	})
}

// WebSocket endpoints

// HandleDocumentWebSocket opens an editing session for a document
func (h *Handler) HandleDocumentWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.HandleDocumentConnection(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

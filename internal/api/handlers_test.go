package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naratmalsami/internal/models"
	"naratmalsami/internal/repository"
	"naratmalsami/internal/store"
)

type fakeDocRepo struct {
	docs map[string]*models.Document
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *models.DocumentCreate) (*models.Document, error) {
	created := &models.Document{ID: fmt.Sprintf("doc%d", len(r.docs)+1), Title: doc.Title, Content: doc.Content}
	r.docs[created.ID] = created
	return created, nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrDocumentNotFound, id)
	}
	copied := *doc
	return &copied, nil
}

type fakeRevRepo struct {
	lastLimit int
}

func (r *fakeRevRepo) List(ctx context.Context, documentID string, limit int) ([]*models.DocumentRevision, error) {
	r.lastLimit = limit
	return []*models.DocumentRevision{{ID: "rev1", DocumentID: documentID, Content: "<p>x</p>"}}, nil
}

func newTestRouter() (http.Handler, *fakeDocRepo, *fakeRevRepo, *store.MemoryStore) {
	docs := &fakeDocRepo{docs: map[string]*models.Document{
		"saved": {ID: "saved", Title: "Saved", Content: "<p>db</p>"},
	}}
	revs := &fakeRevRepo{}
	live := store.NewMemoryStore(nil)
	return SetupRoutes(NewHandler(docs, revs, live, nil)), docs, revs, live
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _, _, _ := newTestRouter()

	rec := serve(h, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetDocumentPrefersLiveContent(t *testing.T) {
	h, _, _, live := newTestRouter()

	rec := serve(h, http.MethodGet, "/api/documents/saved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "<p>db</p>", resp["content"])
	assert.Equal(t, false, resp["live"])

	handle := live.For("saved", "s1")
	require.NoError(t, handle.Init(context.Background(), "<p>db</p>"))
	require.NoError(t, handle.Update(context.Background(), "<p>live</p>"))

	rec = serve(h, http.MethodGet, "/api/documents/saved", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "<p>live</p>", resp["content"])
	assert.Equal(t, "Saved", resp["title"])
	assert.Equal(t, true, resp["live"])
}

func TestGetDocumentNotFound(t *testing.T) {
	h, _, _, _ := newTestRouter()

	rec := serve(h, http.MethodGet, "/api/documents/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDocument(t *testing.T) {
	h, docs, _, _ := newTestRouter()

	rec := serve(h, http.MethodPost, "/api/documents", `{"title":"New","content":"<p></p>"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, docs.docs, 2)

	rec = serve(h, http.MethodPost, "/api/documents", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRevisionsLimit(t *testing.T) {
	h, _, revs, _ := newTestRouter()

	rec := serve(h, http.MethodGet, "/api/documents/saved/revisions?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, revs.lastLimit)

	serve(h, http.MethodGet, "/api/documents/saved/revisions?limit=-1", "")
	assert.Equal(t, 20, revs.lastLimit)
}

package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLoaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/h4sh", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"title":"Notes","content":"<p>hi</p>","hashed_id":"h4sh","updated_at":"2024-05-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	doc, err := NewHTTPLoader(srv.URL+"/", "secret").Fetch(context.Background(), "h4sh")

	require.NoError(t, err)
	assert.Equal(t, "h4sh", doc.ID)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, "<p>hi</p>", doc.Content)
	assert.Equal(t, 2024, doc.UpdatedAt.Year())
}

func TestHTTPLoaderEmptyContentIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"New","content":""}`))
	}))
	defer srv.Close()

	doc, err := NewHTTPLoader(srv.URL, "").Fetch(context.Background(), "fresh")

	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.ID)
	assert.Empty(t, doc.Content)
}

func TestHTTPLoaderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"not found", http.StatusNotFound, `{}`},
		{"invalid json", http.StatusOK, `{"title":`},
		{"missing content", http.StatusOK, `{"title":"x","hashed_id":"abc"}`},
		{"wrong document", http.StatusOK, `{"content":"","hashed_id":"other"}`},
		{"bad timestamp", http.StatusOK, `{"content":"","updated_at":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			doc, err := NewHTTPLoader(srv.URL, "").Fetch(context.Background(), "abc")

			assert.Error(t, err)
			assert.Nil(t, doc)
		})
	}
}

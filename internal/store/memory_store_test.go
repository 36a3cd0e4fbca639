package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	saved []string
	err   error
}

func (p *recordingPersister) SaveContent(ctx context.Context, documentID, sessionID, content string) error {
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, documentID+"/"+sessionID+":"+content)
	return nil
}

func TestInitThenUpdate(t *testing.T) {
	ctx := context.Background()
	persister := &recordingPersister{}
	s := NewMemoryStore(persister)
	h := s.For("doc1", "sess1")

	require.NoError(t, h.Init(ctx, "<p>v0</p>"))
	e, ok := s.Get("doc1")
	require.True(t, ok)
	assert.Equal(t, "<p>v0</p>", e.Content)
	assert.Equal(t, 0, e.Version)
	assert.Empty(t, persister.saved, "init does not write back")

	require.NoError(t, h.Update(ctx, "<p>v1</p>"))
	e, _ = s.Get("doc1")
	assert.Equal(t, "<p>v1</p>", e.Content)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, []string{"doc1/sess1:<p>v1</p>"}, persister.saved)
}

func TestUpdateRequiresInit(t *testing.T) {
	s := NewMemoryStore(nil)

	err := s.For("missing", "").Update(context.Background(), "x")

	assert.ErrorIs(t, err, ErrNotInitialised)
}

func TestUpdateRejectsMalformedContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	h := s.For("doc1", "")
	require.NoError(t, h.Init(ctx, "ok"))

	err := h.Update(ctx, string([]byte{0xff, 0xfe}))

	assert.ErrorIs(t, err, ErrMalformedContent)
	e, _ := s.Get("doc1")
	assert.Equal(t, "ok", e.Content)
}

func TestPersistFailureKeepsMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")
	s := NewMemoryStore(&recordingPersister{err: boom})
	h := s.For("doc1", "")
	require.NoError(t, h.Init(ctx, "before"))

	err := h.Update(ctx, "after")

	assert.ErrorIs(t, err, boom)
	e, _ := s.Get("doc1")
	assert.Equal(t, "before", e.Content)
}

func TestDocumentsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.For("a", "").Init(ctx, "A"))
	require.NoError(t, s.For("b", "").Init(ctx, "B"))
	require.NoError(t, s.For("a", "").Update(ctx, "A2"))

	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.Equal(t, "A2", a.Content)
	assert.Equal(t, "B", b.Content)

	s.Forget("a")
	_, ok := s.Get("a")
	assert.False(t, ok)
}

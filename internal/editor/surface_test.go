package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naratmalsami/internal/blocks"
)

type fixedIDs struct {
	ids []string
}

func (f *fixedIDs) NewID() string {
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id
}

func TestSurfaceNotReadyHasNoContent(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Load("<p>initial</p>"))

	_, ok := s.SerializedContent()
	assert.False(t, ok)
	assert.False(t, s.Ready())

	s.MarkReady()
	assert.True(t, s.Ready())
	content, ok := s.SerializedContent()
	require.True(t, ok)
	assert.Equal(t, "<p>initial</p>", content)
}

func TestSurfaceTopLevelBlocksOnlyElements(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Replace("<h1>Title</h1>\n<p>one <b>bold</b></p>\n<ul><li>x</li></ul>"))

	got := s.TopLevelBlocks()
	assert.Len(t, got, 3)
}

func TestSurfaceTaggingRendersAttribute(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Replace(`<p>a</p><p data-unique="kept">b</p><div><p>nested</p></div>`))

	n := blocks.NewTagger(&fixedIDs{ids: []string{"id-1", "id-2"}}).Tag(s)
	assert.Equal(t, 2, n)

	content, ok := s.SerializedContent()
	require.True(t, ok)
	assert.Equal(t,
		`<p data-unique="id-1">a</p><p data-unique="kept">b</p><div data-unique="id-2"><p>nested</p></div>`,
		content)
}

func TestSurfaceReplaceCarriesOverIDs(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Replace(`<p>first</p><p>second</p>`))
	blocks.NewTagger(&fixedIDs{ids: []string{"id-1", "id-2"}}).Tag(s)

	// The client still has the untagged markup and edits the second block
	require.NoError(t, s.Replace(`<p>first</p><p>second!</p><p>first</p>`))

	content, ok := s.SerializedContent()
	require.True(t, ok)
	assert.Equal(t, `<p data-unique="id-1">first</p><p>second!</p><p>first</p>`, content,
		"an id is inherited by at most one block")
}

func TestSurfaceReplaceKeepsClientIDs(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Replace(`<p data-unique="a">x</p>`))
	require.NoError(t, s.Replace(`<p data-unique="a">x</p><p>x</p>`))

	content, _ := s.SerializedContent()
	assert.Equal(t, `<p data-unique="a">x</p><p>x</p>`, content, "an id already present is not duplicated")
}

func TestSurfaceDetach(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Replace("<p>x</p>"))
	s.Detach()

	_, ok := s.SerializedContent()
	assert.False(t, ok)
	assert.Empty(t, s.TopLevelBlocks())
}

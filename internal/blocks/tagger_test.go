package blocks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlock struct {
	id       string
	children []*fakeBlock
}

func (b *fakeBlock) StableID() (string, bool) { return b.id, b.id != "" }
func (b *fakeBlock) SetStableID(id string)    { b.id = id }

type fakeRoot struct {
	blocks []*fakeBlock
}

func (r *fakeRoot) TopLevelBlocks() []Block {
	out := make([]Block, len(r.blocks))
	for i, b := range r.blocks {
		out[i] = b
	}
	return out
}

func (r *fakeRoot) ids() []string {
	out := make([]string, len(r.blocks))
	for i, b := range r.blocks {
		out[i] = b.id
	}
	return out
}

type sequenceGenerator struct{ n int }

func (g *sequenceGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func TestTagAssignsOnlyMissingIDs(t *testing.T) {
	root := &fakeRoot{blocks: []*fakeBlock{
		{},
		{id: "keep-me"},
		{},
	}}

	assigned := NewTagger(&sequenceGenerator{}).Tag(root)

	assert.Equal(t, 2, assigned)
	assert.Equal(t, []string{"id-1", "keep-me", "id-2"}, root.ids())
}

func TestTagIsIdempotent(t *testing.T) {
	root := &fakeRoot{blocks: []*fakeBlock{{}, {}, {}}}
	tagger := NewTagger(nil)

	require.Equal(t, 3, tagger.Tag(root))
	first := root.ids()

	assert.Equal(t, 0, tagger.Tag(root))
	assert.Equal(t, first, root.ids())
}

func TestTagProducesDistinctIDs(t *testing.T) {
	const k = 500
	root := &fakeRoot{}
	for i := 0; i < k; i++ {
		root.blocks = append(root.blocks, &fakeBlock{})
	}

	NewTagger(nil).Tag(root)

	seen := make(map[string]bool, k)
	for _, id := range root.ids() {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, k)
}

func TestTagSkipsNestedBlocks(t *testing.T) {
	nested := &fakeBlock{}
	root := &fakeRoot{blocks: []*fakeBlock{{children: []*fakeBlock{nested}}}}

	NewTagger(nil).Tag(root)

	assert.NotEmpty(t, root.blocks[0].id)
	assert.Empty(t, nested.id)
}

func TestTagNilRoot(t *testing.T) {
	assert.Equal(t, 0, NewTagger(nil).Tag(nil))
}

func TestUUIDGeneratorIsAttributeSafe(t *testing.T) {
	id := UUIDGenerator{}.NewID()
	assert.Regexp(t, `^[0-9a-f-]{36}$`, id)
}

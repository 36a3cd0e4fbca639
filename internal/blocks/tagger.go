package blocks

import (
	"github.com/google/uuid"
)

/*
LEARNING: STABLE BLOCK IDENTITY

Every top-level block of a document (paragraph, heading, table...) carries a
stable id so that later diffs can say "block X changed" instead of
"line 12 changed". Ids are assigned lazily, only when content is flushed,
and an id once assigned is never replaced.

The tagger knows nothing about HTML. A host exposes its content root through
the Root/Block interfaces and the algorithm stays testable against a fake tree.
*/

// Root is a content root whose direct children are blocks.
type Root interface {
	TopLevelBlocks() []Block
}

// Block is a single top-level block.
type Block interface {
	StableID() (string, bool)
	SetStableID(id string)
}

// IDGenerator produces identifiers for untagged blocks.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random (v4) UUIDs. The output only contains
// [0-9a-f-] so it is safe as an attribute value without escaping.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Tagger assigns stable ids to untagged top-level blocks.
type Tagger struct {
	ids IDGenerator
}

// NewTagger creates a tagger. A nil generator uses UUIDGenerator.
func NewTagger(ids IDGenerator) *Tagger {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Tagger{ids: ids}
}

// Tag gives every direct child of root that lacks a stable id a new one and
// returns how many ids were assigned. Nested content is not inspected.
func (t *Tagger) Tag(root Root) int {
	if root == nil {
		return 0
	}

	assigned := 0
	for _, block := range root.TopLevelBlocks() {
		if _, ok := block.StableID(); ok {
			continue
		}
		block.SetStableID(t.ids.NewID())
		assigned++
	}
	return assigned
}

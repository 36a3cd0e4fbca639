package editor

import (
	"fmt"
	"strings"
	"sync"

	"naratmalsami/internal/blocks"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StableIDAttr is the markup attribute that carries a block's stable id.
const StableIDAttr = "data-unique"

/*
LEARNING: SERVER-SIDE EDITING SURFACE

The browser editor owns selection, formatting and undo. What reaches the
server is its serialized markup after each change. The Surface keeps that
markup parsed as an HTML fragment so the server can:

1. Walk the direct children of the content root (the document's blocks)
2. Add data-unique attributes to blocks that lack them
3. Render the tree back to markup for the document store

Until the editor reports ready (or sends its first edit) there is no live
content and SerializedContent reports absent.
*/

// Surface is the server-side mirror of one editor's content root.
type Surface struct {
	mu    sync.Mutex
	root  *html.Node
	ready bool
}

// NewSurface creates an empty, not-ready surface.
func NewSurface() *Surface {
	return &Surface{root: newContainer()}
}

// Load seeds the surface with the document's initial data.
func (s *Surface) Load(content string) error {
	root, err := parse(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	return nil
}

// MarkReady records that the editor instance finished initialising.
func (s *Surface) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

// Ready reports whether the surface has live editor content.
func (s *Surface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Replace swaps in the editor's latest markup. Untagged incoming blocks whose
// markup matches a previously tagged block inherit that block's id, so a
// client that has not yet seen the tagged content does not cause re-tagging.
func (s *Surface) Replace(content string) error {
	next, err := parse(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	carryOverIDs(s.root, next)
	s.root = next
	s.ready = true
	return nil
}

// Detach drops the content root. Called on session teardown.
func (s *Surface) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = nil
	s.ready = false
}

// TopLevelBlocks returns the element children of the content root.
func (s *Surface) TopLevelBlocks() []blocks.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root == nil {
		return nil
	}

	var out []blocks.Block
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &block{surface: s, node: c})
		}
	}
	return out
}

// SerializedContent renders the content root. It reports false while the
// editor is not ready or after Detach.
func (s *Surface) SerializedContent() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready || s.root == nil {
		return "", false
	}

	content, err := render(s.root)
	if err != nil {
		return "", false
	}
	return content, true
}

type block struct {
	surface *Surface
	node    *html.Node
}

func (b *block) StableID() (string, bool) {
	b.surface.mu.Lock()
	defer b.surface.mu.Unlock()
	return stableID(b.node)
}

func (b *block) SetStableID(id string) {
	b.surface.mu.Lock()
	defer b.surface.mu.Unlock()

	for i := range b.node.Attr {
		if b.node.Attr[i].Key == StableIDAttr {
			b.node.Attr[i].Val = id
			return
		}
	}
	b.node.Attr = append(b.node.Attr, html.Attribute{Key: StableIDAttr, Val: id})
}

func stableID(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == StableIDAttr && a.Val != "" {
			return a.Val, true
		}
	}
	return "", false
}

func newContainer() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

func parse(content string) (*html.Node, error) {
	root := newContainer()
	nodes, err := html.ParseFragment(strings.NewReader(content), newContainer())
	if err != nil {
		return nil, fmt.Errorf("failed to parse editor content: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func render(root *html.Node) (string, error) {
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("failed to render editor content: %w", err)
		}
	}
	return b.String(), nil
}

// blockKey renders a block without its stable id attribute.
func blockKey(n *html.Node) string {
	clone := *n
	clone.Attr = nil
	for _, a := range n.Attr {
		if a.Key != StableIDAttr {
			clone.Attr = append(clone.Attr, a)
		}
	}
	clone.Parent, clone.PrevSibling, clone.NextSibling = nil, nil, nil

	var b strings.Builder
	if err := html.Render(&b, &clone); err != nil {
		return ""
	}
	return b.String()
}

func carryOverIDs(prev, next *html.Node) {
	if prev == nil {
		return
	}

	inUse := make(map[string]bool)
	for c := next.FirstChild; c != nil; c = c.NextSibling {
		if id, ok := stableID(c); ok && c.Type == html.ElementNode {
			inUse[id] = true
		}
	}

	known := make(map[string][]string)
	for c := prev.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if id, ok := stableID(c); ok && !inUse[id] {
			key := blockKey(c)
			known[key] = append(known[key], id)
		}
	}
	if len(known) == 0 {
		return
	}

	for c := next.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if _, ok := stableID(c); ok {
			continue
		}
		key := blockKey(c)
		if ids := known[key]; len(ids) > 0 {
			c.Attr = append(c.Attr, html.Attribute{Key: StableIDAttr, Val: ids[0]})
			known[key] = ids[1:]
		}
	}
}

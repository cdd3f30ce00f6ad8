// ABOUTME: Graph Model for parsed DOT documents: an ordered chunk sequence of nodes, edges, and subgraphs.
// ABOUTME: Provides identity-key lookup, upsert/remove primitives, scope traversal, and deep cloning.
package dot

import (
	"fmt"
	"strings"
)

// AnonymousPrefix starts every generated id of an anonymous subgraph.
// Named subgraphs may not use it, so generated ids never collide with user ids.
const AnonymousPrefix = "%anon"

// Kind tags a chunk as a node, edge, or subgraph.
type Kind int

const (
	KindNode Kind = iota
	KindEdge
	KindSubgraph
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	case KindSubgraph:
		return "subgraph"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// EdgeKey identifies an edge by its endpoints and optional ports.
// An empty port is the "no port" sentinel, so two portless edges between
// the same endpoints share one key.
type EdgeKey struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// Touches reports whether id is either endpoint, regardless of port.
func (k EdgeKey) Touches(id string) bool {
	return k.From == id || k.To == id
}

// String renders the key as "from[:port] -> to[:port]".
func (k EdgeKey) String() string {
	var b strings.Builder
	b.WriteString(k.From)
	if k.FromPort != "" {
		b.WriteString(":" + k.FromPort)
	}
	b.WriteString(" -> ")
	b.WriteString(k.To)
	if k.ToPort != "" {
		b.WriteString(":" + k.ToPort)
	}
	return b.String()
}

// Key is the identity key of a chunk.
type Key struct {
	Kind Kind
	ID   string
	Edge EdgeKey
}

// NodeKey returns the identity key for a node id.
func NodeKey(id string) Key { return Key{Kind: KindNode, ID: id} }

// SubgraphKey returns the identity key for a subgraph id.
func SubgraphKey(id string) Key { return Key{Kind: KindSubgraph, ID: id} }

// EdgeIdentity returns the identity key for an edge key.
func EdgeIdentity(k EdgeKey) Key { return Key{Kind: KindEdge, Edge: k} }

// String returns a short description used in errors and logs.
func (k Key) String() string {
	if k.Kind == KindEdge {
		return "edge " + k.Edge.String()
	}
	return k.Kind.String() + " " + k.ID
}

// Chunk is one graph entity. Parent names the owning subgraph; empty means root.
type Chunk struct {
	Kind      Kind
	ID        string // node or subgraph id
	Edge      EdgeKey
	Parent    string
	Anonymous bool // subgraph written as a bare { ... } block
	Attrs     *Attrs

	// Subgraph-only fields.
	NodeDefaults *Attrs   // scoped node [...] statements
	EdgeDefaults *Attrs   // scoped edge [...] statements
	Refs         []string // nodes stated in this block but owned by another scope
}

// NewNode creates a node chunk at root scope.
func NewNode(id string, attrs *Attrs) *Chunk {
	return &Chunk{Kind: KindNode, ID: id, Attrs: orEmpty(attrs)}
}

// NewEdge creates an edge chunk at root scope.
func NewEdge(key EdgeKey, attrs *Attrs) *Chunk {
	return &Chunk{Kind: KindEdge, Edge: key, Attrs: orEmpty(attrs)}
}

// NewSubgraph creates a named subgraph chunk at root scope.
func NewSubgraph(id string, attrs *Attrs) *Chunk {
	return &Chunk{
		Kind:         KindSubgraph,
		ID:           id,
		Attrs:        orEmpty(attrs),
		NodeDefaults: NewAttrs(),
		EdgeDefaults: NewAttrs(),
	}
}

// Key returns the chunk's identity key.
func (c *Chunk) Key() Key {
	if c.Kind == KindEdge {
		return EdgeIdentity(c.Edge)
	}
	return Key{Kind: c.Kind, ID: c.ID}
}

// IsRankGroup reports whether the chunk is an anonymous subgraph carrying a rank attribute.
func (c *Chunk) IsRankGroup() bool {
	return c.Kind == KindSubgraph && c.Anonymous && c.Attrs.Has("rank")
}

// Clone returns a deep copy of the chunk.
func (c *Chunk) Clone() *Chunk {
	cp := *c
	cp.Attrs = c.Attrs.Clone()
	if c.Kind == KindSubgraph {
		cp.NodeDefaults = c.NodeDefaults.Clone()
		cp.EdgeDefaults = c.EdgeDefaults.Clone()
		cp.Refs = append([]string(nil), c.Refs...)
	}
	return &cp
}

// Graph is the in-memory model of one DOT document.
type Graph struct {
	Name         string
	Directed     bool
	Strict       bool
	Attrs        *Attrs // graph-level attributes
	NodeDefaults *Attrs // root node [...] defaults
	EdgeDefaults *Attrs // root edge [...] defaults

	chunks  []*Chunk
	index   map[Key]*Chunk
	anonSeq int
}

// Diagnostic represents a validation finding associated with a chunk.
type Diagnostic struct {
	Severity   string // "error", "warning", "info"
	Message    string
	NodeID     string
	EdgeID     string
	SubgraphID string
	Rule       string
}

// New creates an empty graph.
func New(directed bool) *Graph {
	return &Graph{
		Directed:     directed,
		Attrs:        NewAttrs(),
		NodeDefaults: NewAttrs(),
		EdgeDefaults: NewAttrs(),
		index:        make(map[Key]*Chunk),
	}
}

// Len returns the number of chunks.
func (g *Graph) Len() int {
	return len(g.chunks)
}

// Find returns the chunk with the given identity key, or nil.
func (g *Graph) Find(key Key) *Chunk {
	if g.index == nil {
		return nil
	}
	return g.index[key]
}

// FindNode returns the node with the given ID, or nil if not found.
func (g *Graph) FindNode(id string) *Chunk {
	return g.Find(NodeKey(id))
}

// FindEdge returns the edge with the given key, or nil if not found.
func (g *Graph) FindEdge(key EdgeKey) *Chunk {
	return g.Find(EdgeIdentity(key))
}

// FindSubgraph returns the subgraph with the given ID, or nil if not found.
func (g *Graph) FindSubgraph(id string) *Chunk {
	return g.Find(SubgraphKey(id))
}

// Upsert replaces the chunk sharing c's identity key in place, or appends c.
// The parent reference must resolve, and a subgraph may not become its own ancestor.
func (g *Graph) Upsert(c *Chunk) error {
	if err := g.check(c); err != nil {
		return err
	}
	if g.index == nil {
		g.index = make(map[Key]*Chunk)
	}
	if c.Attrs == nil {
		c.Attrs = NewAttrs()
	}
	if c.Kind == KindSubgraph {
		if c.NodeDefaults == nil {
			c.NodeDefaults = NewAttrs()
		}
		if c.EdgeDefaults == nil {
			c.EdgeDefaults = NewAttrs()
		}
	}

	key := c.Key()
	if existing, ok := g.index[key]; ok {
		for i, ch := range g.chunks {
			if ch == existing {
				g.chunks[i] = c
				break
			}
		}
		g.index[key] = c
		return nil
	}

	g.chunks = append(g.chunks, c)
	g.index[key] = c
	return nil
}

// check validates c against the graph's invariants before an upsert.
func (g *Graph) check(c *Chunk) error {
	switch c.Kind {
	case KindEdge:
		if c.Edge.From == "" || c.Edge.To == "" {
			return fmt.Errorf("%w: edge endpoint", ErrEmptyID)
		}
	case KindNode:
		if c.ID == "" {
			return fmt.Errorf("%w: node", ErrEmptyID)
		}
	case KindSubgraph:
		if c.ID == "" {
			return fmt.Errorf("%w: subgraph", ErrEmptyID)
		}
		if !c.Anonymous && strings.HasPrefix(c.ID, AnonymousPrefix) {
			return fmt.Errorf("%w: %q", ErrReservedID, c.ID)
		}
	}

	if c.Parent == "" {
		return nil
	}
	if g.FindSubgraph(c.Parent) == nil {
		return fmt.Errorf("%w: %q", ErrParentNotFound, c.Parent)
	}
	if c.Kind == KindSubgraph {
		for scope := c.Parent; scope != ""; {
			if scope == c.ID {
				return fmt.Errorf("%w: %q", ErrParentCycle, c.ID)
			}
			parent := g.FindSubgraph(scope)
			if parent == nil {
				break
			}
			scope = parent.Parent
		}
	}
	return nil
}

// Remove deletes the chunk with the given key. It does not cascade.
// Returns false when nothing matched.
func (g *Graph) Remove(key Key) bool {
	existing := g.Find(key)
	if existing == nil {
		return false
	}
	delete(g.index, key)
	for i, ch := range g.chunks {
		if ch == existing {
			g.chunks = append(g.chunks[:i], g.chunks[i+1:]...)
			break
		}
	}
	return true
}

// Chunks returns all chunks in insertion order.
func (g *Graph) Chunks() []*Chunk {
	result := make([]*Chunk, len(g.chunks))
	copy(result, g.chunks)
	return result
}

// Nodes returns all node chunks in insertion order.
func (g *Graph) Nodes() []*Chunk { return g.ofKind(KindNode) }

// Edges returns all edge chunks in insertion order.
func (g *Graph) Edges() []*Chunk { return g.ofKind(KindEdge) }

// Subgraphs returns all subgraph chunks in insertion order.
func (g *Graph) Subgraphs() []*Chunk { return g.ofKind(KindSubgraph) }

func (g *Graph) ofKind(k Kind) []*Chunk {
	var result []*Chunk
	for _, c := range g.chunks {
		if c.Kind == k {
			result = append(result, c)
		}
	}
	return result
}

// ChildrenOf returns the chunks owned directly by scope ("" for root), in order.
func (g *Graph) ChildrenOf(scope string) []*Chunk {
	var result []*Chunk
	for _, c := range g.chunks {
		if c.Parent == scope {
			result = append(result, c)
		}
	}
	return result
}

// MembersOf returns the node ids of a scope: owned nodes in order, then Refs.
func (g *Graph) MembersOf(scope string) []string {
	var ids []string
	for _, c := range g.ChildrenOf(scope) {
		if c.Kind == KindNode {
			ids = append(ids, c.ID)
		}
	}
	if sg := g.FindSubgraph(scope); sg != nil {
		ids = append(ids, sg.Refs...)
	}
	return ids
}

// Descendants returns every chunk whose parent chain includes scope, depth first.
func (g *Graph) Descendants(scope string) []*Chunk {
	children := make(map[string][]*Chunk)
	for _, c := range g.chunks {
		children[c.Parent] = append(children[c.Parent], c)
	}

	var result []*Chunk
	var walk func(string)
	walk = func(id string) {
		for _, c := range children[id] {
			result = append(result, c)
			if c.Kind == KindSubgraph {
				walk(c.ID)
			}
		}
	}
	walk(scope)
	return result
}

// scopePath returns the subgraph chain from the outermost ancestor down to scope.
// The root scope has an empty path.
func (g *Graph) scopePath(scope string) []*Chunk {
	var path []*Chunk
	for id := scope; id != "" && len(path) <= len(g.chunks); {
		sg := g.FindSubgraph(id)
		if sg == nil {
			break
		}
		path = append(path, sg)
		id = sg.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Move reparents the chunk with key to parent and relocates it, together with
// every descendant, to the end of the chunk sequence in their existing order.
// Chunks that must stay after the moved nodes follow the whole subtree: edges
// touching a moved node, and anonymous blocks that own such an edge or refer
// to a moved node. The subtree itself stays contiguous, so a moved anonymous
// block is written as one block.
func (g *Graph) Move(key Key, parent string) error {
	c := g.Find(key)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	moved := &Chunk{Kind: c.Kind, ID: c.ID, Edge: c.Edge, Parent: parent, Anonymous: c.Anonymous}
	if err := g.check(moved); err != nil {
		return err
	}

	subtree := map[*Chunk]bool{c: true}
	if c.Kind == KindSubgraph {
		for _, d := range g.Descendants(c.ID) {
			subtree[d] = true
		}
	}
	inGroup := g.trailing(c)
	kept := g.chunks[:0:0]
	var own, dependents []*Chunk
	for _, ch := range g.chunks {
		switch {
		case subtree[ch]:
			own = append(own, ch)
		case inGroup[ch]:
			dependents = append(dependents, ch)
		default:
			kept = append(kept, ch)
		}
	}
	g.chunks = append(append(kept, own...), dependents...)
	c.Parent = parent
	return nil
}

// trailing collects c, its descendants and every chunk that depends on a node
// among them, repeating until the set stops growing.
func (g *Graph) trailing(c *Chunk) map[*Chunk]bool {
	set := make(map[*Chunk]bool)
	nodes := make(map[string]bool)
	var add func(ch *Chunk) bool
	add = func(ch *Chunk) bool {
		if set[ch] {
			return false
		}
		set[ch] = true
		if ch.Kind == KindNode {
			nodes[ch.ID] = true
		}
		if ch.Kind == KindSubgraph {
			for _, d := range g.Descendants(ch.ID) {
				add(d)
			}
		}
		return true
	}
	add(c)

	for grew := true; grew; {
		grew = false
		for _, ch := range g.chunks {
			if set[ch] {
				continue
			}
			switch {
			case ch.Kind == KindEdge && (nodes[ch.Edge.From] || nodes[ch.Edge.To]):
				grew = add(ch) || grew
				if anon := g.outermostAnonymous(ch.Parent); anon != nil {
					grew = add(anon) || grew
				}
			case ch.Kind == KindSubgraph && ch.Anonymous && refersTo(ch, nodes):
				top := g.outermostAnonymous(ch.ID)
				grew = add(top) || grew
			}
		}
	}
	return set
}

// outermostAnonymous returns the outermost anonymous subgraph on scope's
// parent chain, or nil when every block on it is named.
func (g *Graph) outermostAnonymous(scope string) *Chunk {
	var top *Chunk
	for _, sg := range g.scopePath(scope) {
		if sg.Anonymous {
			top = sg
			break
		}
	}
	return top
}

func refersTo(sg *Chunk, nodes map[string]bool) bool {
	for _, r := range sg.Refs {
		if nodes[r] {
			return true
		}
	}
	return false
}

// RenameNode changes a node's id in place, rewriting the keys of edges that
// touch it and every subgraph reference to it. Chunk order is unchanged.
func (g *Graph) RenameNode(from, to string) error {
	n := g.FindNode(from)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, from)
	}
	if to == "" {
		return fmt.Errorf("%w: node", ErrEmptyID)
	}
	if g.FindNode(to) != nil {
		return fmt.Errorf("%w: %q", ErrNodeExists, to)
	}

	delete(g.index, n.Key())
	n.ID = to
	g.index[n.Key()] = n

	for _, c := range g.chunks {
		switch {
		case c.Kind == KindEdge && c.Edge.Touches(from):
			delete(g.index, c.Key())
			if c.Edge.From == from {
				c.Edge.From = to
			}
			if c.Edge.To == from {
				c.Edge.To = to
			}
			g.index[c.Key()] = c
		case c.Kind == KindSubgraph:
			for i, ref := range c.Refs {
				if ref == from {
					c.Refs[i] = to
				}
			}
		}
	}
	return nil
}

// EdgesTouching returns every edge with id as either endpoint.
func (g *Graph) EdgesTouching(id string) []*Chunk {
	var result []*Chunk
	for _, c := range g.chunks {
		if c.Kind == KindEdge && c.Edge.Touches(id) {
			result = append(result, c)
		}
	}
	return result
}

// RankGroups returns the anonymous subgraphs that carry a rank attribute.
func (g *Graph) RankGroups() []*Chunk {
	var result []*Chunk
	for _, c := range g.chunks {
		if c.IsRankGroup() {
			result = append(result, c)
		}
	}
	return result
}

// AddRef records that nodeID is stated in scope. Owned nodes and duplicates are ignored.
func (g *Graph) AddRef(scope, nodeID string) {
	sg := g.FindSubgraph(scope)
	if sg == nil {
		return
	}
	if n := g.FindNode(nodeID); n != nil && n.Parent == scope {
		return
	}
	for _, r := range sg.Refs {
		if r == nodeID {
			return
		}
	}
	sg.Refs = append(sg.Refs, nodeID)
}

// DropRef removes nodeID from every subgraph's Refs.
func (g *Graph) DropRef(nodeID string) {
	for _, c := range g.chunks {
		if c.Kind != KindSubgraph || len(c.Refs) == 0 {
			continue
		}
		kept := c.Refs[:0]
		for _, r := range c.Refs {
			if r != nodeID {
				kept = append(kept, r)
			}
		}
		c.Refs = kept
	}
}

// NextAnonymousID returns an unused id for an anonymous subgraph.
func (g *Graph) NextAnonymousID() string {
	for {
		g.anonSeq++
		id := fmt.Sprintf("%s%d", AnonymousPrefix, g.anonSeq)
		if g.FindSubgraph(id) == nil {
			return id
		}
	}
}

// Clone returns a deep copy that shares no mutable state with g.
func (g *Graph) Clone() *Graph {
	cp := &Graph{
		Name:         g.Name,
		Directed:     g.Directed,
		Strict:       g.Strict,
		Attrs:        g.Attrs.Clone(),
		NodeDefaults: g.NodeDefaults.Clone(),
		EdgeDefaults: g.EdgeDefaults.Clone(),
		chunks:       make([]*Chunk, 0, len(g.chunks)),
		index:        make(map[Key]*Chunk, len(g.chunks)),
		anonSeq:      g.anonSeq,
	}
	for _, c := range g.chunks {
		cc := c.Clone()
		cp.chunks = append(cp.chunks, cc)
		cp.index[cc.Key()] = cc
	}
	return cp
}

func orEmpty(a *Attrs) *Attrs {
	if a == nil {
		return NewAttrs()
	}
	return a
}

// ABOUTME: Tests for the Graph Model: upsert/remove, scope traversal, refs, and cloning.
// ABOUTME: Covers parent validation, reserved anonymous ids, subgraph cycles, and in-place replacement.
package dot

import (
	"errors"
	"slices"
	"testing"
)

func mustUpsert(t *testing.T, g *Graph, c *Chunk) {
	t.Helper()
	if err := g.Upsert(c); err != nil {
		t.Fatalf("Upsert(%v): %v", c.Key(), err)
	}
}

func TestUpsertAppendsAndReplacesInPlace(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewNode("a", nil))
	mustUpsert(t, g, NewNode("b", nil))
	mustUpsert(t, g, NewNode("a", NewAttrs("label", "A")))

	chunks := g.Chunks()
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "a" || chunks[0].Attrs.Value("label") != "A" {
		t.Errorf("chunks[0] = %s %v, want replaced a first", chunks[0].ID, chunks[0].Attrs.Map())
	}
}

func TestUpsertValidation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(g *Graph)
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "missing parent",
			chunk:   &Chunk{Kind: KindNode, ID: "a", Parent: "nope"},
			wantErr: ErrParentNotFound,
		},
		{
			name:    "empty node id",
			chunk:   NewNode("", nil),
			wantErr: ErrEmptyID,
		},
		{
			name:    "reserved subgraph id",
			chunk:   NewSubgraph(AnonymousPrefix+"7", nil),
			wantErr: ErrReservedID,
		},
		{
			name: "subgraph cycle",
			setup: func(g *Graph) {
				_ = g.Upsert(NewSubgraph("outer", nil))
				inner := NewSubgraph("inner", nil)
				inner.Parent = "outer"
				_ = g.Upsert(inner)
			},
			chunk:   &Chunk{Kind: KindSubgraph, ID: "outer", Parent: "inner"},
			wantErr: ErrParentCycle,
		},
		{
			name:    "subgraph inside itself",
			setup:   func(g *Graph) { _ = g.Upsert(NewSubgraph("s", nil)) },
			chunk:   &Chunk{Kind: KindSubgraph, ID: "s", Parent: "s"},
			wantErr: ErrParentCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(true)
			if tt.setup != nil {
				tt.setup(g)
			}
			err := g.Upsert(tt.chunk)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upsert error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnonymousSubgraphMayUseReservedPrefix(t *testing.T) {
	g := New(true)
	sg := NewSubgraph(g.NextAnonymousID(), nil)
	sg.Anonymous = true
	mustUpsert(t, g, sg)
	if next := g.NextAnonymousID(); next == sg.ID {
		t.Errorf("NextAnonymousID returned an id already in use: %q", next)
	}
}

func TestRemoveDoesNotCascade(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewNode("a", nil))
	mustUpsert(t, g, NewNode("b", nil))
	mustUpsert(t, g, NewEdge(EdgeKey{From: "a", To: "b"}, nil))

	if !g.Remove(NodeKey("a")) {
		t.Fatal("Remove(a) = false")
	}
	if g.Remove(NodeKey("a")) {
		t.Error("second Remove(a) = true, want false")
	}
	if len(g.Edges()) != 1 {
		t.Errorf("Remove should leave edges alone, got %d edges", len(g.Edges()))
	}
}

func TestMembersAndDescendants(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewNode("root_node", nil))
	mustUpsert(t, g, NewSubgraph("cluster_a", nil))
	inner := NewSubgraph("cluster_b", nil)
	inner.Parent = "cluster_a"
	mustUpsert(t, g, inner)
	mustUpsert(t, g, &Chunk{Kind: KindNode, ID: "x", Parent: "cluster_a"})
	mustUpsert(t, g, &Chunk{Kind: KindNode, ID: "y", Parent: "cluster_b"})
	g.AddRef("cluster_a", "root_node")
	g.AddRef("cluster_a", "root_node")
	g.AddRef("cluster_a", "x")

	if got := g.MembersOf("cluster_a"); !slices.Equal(got, []string{"x", "root_node"}) {
		t.Errorf("MembersOf(cluster_a) = %v, want [x root_node]", got)
	}

	var ids []string
	for _, c := range g.Descendants("cluster_a") {
		ids = append(ids, c.ID)
	}
	if !slices.Equal(ids, []string{"cluster_b", "y", "x"}) {
		t.Errorf("Descendants(cluster_a) = %v, want [cluster_b y x]", ids)
	}

	g.DropRef("root_node")
	if got := g.MembersOf("cluster_a"); !slices.Equal(got, []string{"x"}) {
		t.Errorf("after DropRef, MembersOf = %v", got)
	}
}

func TestEdgesTouchingAnyPort(t *testing.T) {
	g := New(true)
	for _, id := range []string{"a", "b", "c"} {
		mustUpsert(t, g, NewNode(id, nil))
	}
	mustUpsert(t, g, NewEdge(EdgeKey{From: "a", To: "b"}, nil))
	mustUpsert(t, g, NewEdge(EdgeKey{From: "a", FromPort: "p1", To: "b"}, nil))
	mustUpsert(t, g, NewEdge(EdgeKey{From: "c", To: "a", ToPort: "in:w"}, nil))
	mustUpsert(t, g, NewEdge(EdgeKey{From: "b", To: "c"}, nil))

	if got := len(g.EdgesTouching("a")); got != 3 {
		t.Errorf("EdgesTouching(a) = %d edges, want 3", got)
	}
}

func TestRankGroups(t *testing.T) {
	g := New(true)
	rank := NewSubgraph(g.NextAnonymousID(), NewAttrs("rank", "same"))
	rank.Anonymous = true
	mustUpsert(t, g, rank)
	plain := NewSubgraph(g.NextAnonymousID(), nil)
	plain.Anonymous = true
	mustUpsert(t, g, plain)
	mustUpsert(t, g, NewSubgraph("named", NewAttrs("rank", "min")))

	groups := g.RankGroups()
	if len(groups) != 1 || groups[0].ID != rank.ID {
		t.Errorf("RankGroups() = %v, want only the anonymous rank group", groups)
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := New(true)
	g.Attrs.Set("rankdir", "LR")
	mustUpsert(t, g, NewSubgraph("s", nil))
	mustUpsert(t, g, NewNode("a", NewAttrs("label", "A")))
	g.AddRef("s", "a")

	cp := g.Clone()
	cp.Attrs.Set("rankdir", "TB")
	cp.FindNode("a").Attrs.Set("label", "changed")
	cp.FindSubgraph("s").Refs[0] = "zzz"
	mustUpsert(t, cp, NewNode("b", nil))

	if g.Attrs.Value("rankdir") != "LR" {
		t.Error("clone shares graph attrs")
	}
	if g.FindNode("a").Attrs.Value("label") != "A" {
		t.Error("clone shares node attrs")
	}
	if g.FindSubgraph("s").Refs[0] != "a" {
		t.Error("clone shares refs")
	}
	if g.FindNode("b") != nil {
		t.Error("clone shares the chunk index")
	}
}

func chunkOrder(g *Graph) []string {
	var keys []string
	for _, c := range g.Chunks() {
		keys = append(keys, c.Key().String())
	}
	return keys
}

func TestMoveRelocatesDependents(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewNode("a", nil))
	mustUpsert(t, g, NewNode("b", nil))
	mustUpsert(t, g, NewEdge(EdgeKey{From: "a", To: "b"}, nil))
	mustUpsert(t, g, NewSubgraph("s", nil))
	rank := NewSubgraph(g.NextAnonymousID(), NewAttrs("rank", "same"))
	rank.Anonymous = true
	mustUpsert(t, g, rank)
	g.AddRef(rank.ID, "b")
	mustUpsert(t, g, NewNode("c", nil))

	if err := g.Move(NodeKey("b"), "s"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := []string{
		NodeKey("a").String(),
		SubgraphKey("s").String(),
		NodeKey("c").String(),
		NodeKey("b").String(),
		EdgeIdentity(EdgeKey{From: "a", To: "b"}).String(),
		rank.Key().String(),
	}
	if got := chunkOrder(g); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if g.FindNode("b").Parent != "s" {
		t.Error("parent not updated")
	}
}

func TestMoveErrors(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewSubgraph("outer", nil))
	inner := NewSubgraph("inner", nil)
	inner.Parent = "outer"
	mustUpsert(t, g, inner)

	if err := g.Move(NodeKey("missing"), ""); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("missing chunk: %v", err)
	}
	if err := g.Move(SubgraphKey("outer"), "inner"); !errors.Is(err, ErrParentCycle) {
		t.Errorf("cycle: %v", err)
	}
	if err := g.Move(SubgraphKey("inner"), "nowhere"); !errors.Is(err, ErrParentNotFound) {
		t.Errorf("missing parent: %v", err)
	}
}

func TestRenameNode(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewSubgraph("s", nil))
	mustUpsert(t, g, NewNode("a", nil))
	mustUpsert(t, g, NewNode("b", nil))
	mustUpsert(t, g, NewEdge(EdgeKey{From: "a", FromPort: "p", To: "a"}, nil))
	g.AddRef("s", "a")

	if err := g.RenameNode("a", "z"); err != nil {
		t.Fatalf("RenameNode: %v", err)
	}
	if g.FindEdge(EdgeKey{From: "z", FromPort: "p", To: "z"}) == nil {
		t.Error("self loop not rewritten on both ends")
	}
	if !slices.Equal(g.FindSubgraph("s").Refs, []string{"z"}) {
		t.Errorf("refs = %v", g.FindSubgraph("s").Refs)
	}
	if err := g.RenameNode("z", "b"); !errors.Is(err, ErrNodeExists) {
		t.Errorf("rename onto existing: %v", err)
	}
}

func TestMoveKeepsAnonymousBlockContiguous(t *testing.T) {
	g := New(true)
	mustUpsert(t, g, NewNode("x", nil))
	rank := NewSubgraph(g.NextAnonymousID(), NewAttrs("rank", "same"))
	rank.Anonymous = true
	mustUpsert(t, g, rank)
	a := NewNode("a", nil)
	a.Parent = rank.ID
	mustUpsert(t, g, a)
	mustUpsert(t, g, NewEdge(EdgeKey{From: "a", To: "x"}, nil))
	c := NewNode("c", nil)
	c.Parent = rank.ID
	mustUpsert(t, g, c)

	if err := g.Move(rank.Key(), ""); err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := []string{
		NodeKey("x").String(),
		rank.Key().String(),
		NodeKey("a").String(),
		NodeKey("c").String(),
		EdgeIdentity(EdgeKey{From: "a", To: "x"}).String(),
	}
	if got := chunkOrder(g); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	back, err := Parse(Serialize(g))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if !Equal(g, back) {
		t.Errorf("round trip changed the graph:\n%s", Serialize(g))
	}
}

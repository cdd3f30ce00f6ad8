// ABOUTME: Tests for the analysis package: adjacency, cycles, ordering, paths, and scope lookups.
// ABOUTME: Views are built from DOT source so the projection from the Graph Model is exercised too.
package analysis

import (
	"errors"
	"slices"
	"testing"

	"github.com/dominikbraun/graph"

	"github.com/2389-research/graphdelta/dot"
)

func mustView(t *testing.T, src string) (*dot.Graph, *View) {
	t.Helper()
	g, err := dot.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	v, err := Build(g)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return g, v
}

func TestAdjacency(t *testing.T) {
	_, v := mustView(t, `digraph { a; b; c; d; a -> b; a -> c; c -> b; d -> a; a:p -> b:q }`)

	tests := []struct {
		name string
		fn   func(string) ([]string, error)
		id   string
		want []string
	}{
		{"successors", v.Successors, "a", []string{"b", "c"}},
		{"predecessors", v.Predecessors, "b", []string{"a", "c"}},
		{"neighbors", v.Neighbors, "a", []string{"b", "c", "d"}},
		{"reachable", v.Reachable, "d", []string{"a", "b", "c"}},
		{"reachable leaf", v.Reachable, "b", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.id)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnknownNode(t *testing.T) {
	_, v := mustView(t, `digraph { a }`)
	if _, err := v.Successors("zz"); !errors.Is(err, graph.ErrVertexNotFound) {
		t.Errorf("error = %v, want ErrVertexNotFound", err)
	}
}

func TestHasCycle(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`digraph { a -> b -> c }`, false},
		{`digraph { a -> b -> c -> a }`, true},
		{`digraph { a -> a }`, true},
		{`graph { a -- b -- c }`, false},
		{`graph { a -- b; b -- a }`, false},
		{`graph { a -- b -- c -- a }`, true},
		{`graph { a -- a }`, true},
	}
	for _, tt := range tests {
		_, v := mustView(t, tt.src)
		got, err := v.HasCycle()
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if got != tt.want {
			t.Errorf("HasCycle(%s) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestTopologicalOrder(t *testing.T) {
	_, v := mustView(t, `digraph { c; a; b; a -> b; c -> b }`)
	got, err := v.TopologicalOrder()
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if want := []string{"c", "a", "b"}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	_, cyclic := mustView(t, `digraph { a -> b -> a }`)
	if _, err := cyclic.TopologicalOrder(); err == nil {
		t.Error("expected error for a cycle")
	}
	_, undirected := mustView(t, `graph { a -- b }`)
	if _, err := undirected.TopologicalOrder(); err == nil {
		t.Error("expected error for an undirected graph")
	}
}

func TestShortestPath(t *testing.T) {
	_, v := mustView(t, `digraph { a -> b -> c -> d; a -> d; e }`)
	got, err := v.ShortestPath("a", "d")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if want := []string{"a", "d"}; !slices.Equal(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
	if _, err := v.ShortestPath("a", "e"); err == nil {
		t.Error("expected error for an unreachable target")
	}
}

func TestEdgeAttrs(t *testing.T) {
	_, v := mustView(t, `digraph { a -> b [label="x", weight=2] }`)
	attrs, err := v.EdgeAttrs("a", "b")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if attrs["label"] != "x" || attrs["weight"] != "2" {
		t.Errorf("attrs = %v", attrs)
	}
}

func TestNodesIn(t *testing.T) {
	g, _ := mustView(t, `digraph {
  r; x
  subgraph outer {
    a
    subgraph inner { b; x }
  }
}`)
	got, err := NodesIn(g, "outer")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if want := []string{"a", "b", "x"}; !slices.Equal(got, want) {
		t.Errorf("NodesIn(outer) = %v, want %v", got, want)
	}

	all, _ := NodesIn(g, "")
	if len(all) != 4 {
		t.Errorf("NodesIn(root) = %v", all)
	}
	if _, err := NodesIn(g, "nope"); !errors.Is(err, dot.ErrParentNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestEdgesOfAndFindNodes(t *testing.T) {
	g, _ := mustView(t, `digraph { a -> b; a:p -> b; c -> a; b -> c }`)
	edges, err := EdgesOf(g, "a")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(edges) != 3 {
		t.Errorf("EdgesOf(a) returned %d edges, want 3", len(edges))
	}
	if _, err := EdgesOf(g, "zz"); !errors.Is(err, dot.ErrNodeNotFound) {
		t.Errorf("error = %v", err)
	}

	found := FindNodes(g, []string{"c", "zz", "a"})
	if len(found) != 2 || found[0].ID != "c" || found[1].ID != "a" {
		t.Errorf("FindNodes = %v", found)
	}
}

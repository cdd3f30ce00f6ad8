// ABOUTME: Topology view of a Graph Model built on dominikbraun/graph for structural queries.
// ABOUTME: Answers successor, reachability, cycle, ordering, and shortest path questions by node id.
package analysis

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"

	"github.com/2389-research/graphdelta/dot"
)

// View is a read-only projection of a Graph Model's nodes and edges.
// Ports are dropped, so edges that differ only by port become one edge.
type View struct {
	g        graph.Graph[string, string]
	directed bool
	order    map[string]int // node id to position in the model
}

// Build projects g into a View. Every edge endpoint must exist as a node.
func Build(g *dot.Graph) (*View, error) {
	if g == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	var traits []func(*graph.Traits)
	if g.Directed {
		traits = append(traits, graph.Directed())
	}
	v := &View{
		g:        graph.New(graph.StringHash, traits...),
		directed: g.Directed,
		order:    make(map[string]int),
	}

	for i, n := range g.Nodes() {
		if err := v.g.AddVertex(n.ID); err != nil {
			return nil, fmt.Errorf("add vertex %s: %w", n.ID, err)
		}
		v.order[n.ID] = i
	}

	for _, e := range g.Edges() {
		k := e.Edge
		err := v.g.AddEdge(k.From, k.To, graph.EdgeAttributes(e.Attrs.Map()))
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("add edge %s: %w", k, err)
		}
	}
	return v, nil
}

// Directed reports whether the view was built from a digraph.
func (v *View) Directed() bool { return v.directed }

// Order returns the number of nodes.
func (v *View) Order() int { return len(v.order) }

// Has reports whether id is a node of the view.
func (v *View) Has(id string) bool {
	_, ok := v.order[id]
	return ok
}

func (v *View) require(id string) error {
	if !v.Has(id) {
		return fmt.Errorf("%w: %q", graph.ErrVertexNotFound, id)
	}
	return nil
}

// sorted returns ids in model order.
func (v *View) sorted(ids []string) []string {
	slices.SortFunc(ids, func(a, b string) int { return v.order[a] - v.order[b] })
	return ids
}

func keysOf[E any](m map[string]E) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// Successors returns the nodes id has an edge to. In an undirected view
// this is the same as Neighbors.
func (v *View) Successors(id string) ([]string, error) {
	if err := v.require(id); err != nil {
		return nil, err
	}
	adj, err := v.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return v.sorted(keysOf(adj[id])), nil
}

// Predecessors returns the nodes with an edge to id.
func (v *View) Predecessors(id string) ([]string, error) {
	if err := v.require(id); err != nil {
		return nil, err
	}
	pred, err := v.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return v.sorted(keysOf(pred[id])), nil
}

// Neighbors returns every node sharing an edge with id in either direction.
func (v *View) Neighbors(id string) ([]string, error) {
	succ, err := v.Successors(id)
	if err != nil {
		return nil, err
	}
	pred, err := v.Predecessors(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(succ)+len(pred))
	var ids []string
	for _, n := range append(succ, pred...) {
		if !seen[n] {
			seen[n] = true
			ids = append(ids, n)
		}
	}
	return v.sorted(ids), nil
}

// Reachable returns every node other than id reachable from it by following edges.
func (v *View) Reachable(id string) ([]string, error) {
	if err := v.require(id); err != nil {
		return nil, err
	}
	adj, err := v.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	queue := keysOf(adj[id])
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		queue = append(queue, keysOf(adj[n])...)
	}
	delete(seen, id)
	return v.sorted(keysOf(seen)), nil
}

// HasCycle reports whether the view contains a cycle. Self loops count. In
// an undirected view a cycle needs at least three distinct nodes or a loop.
func (v *View) HasCycle() (bool, error) {
	if v.directed {
		_, err := graph.TopologicalSort(v.g)
		return err != nil, nil
	}

	edges, err := v.g.Edges()
	if err != nil {
		return false, err
	}
	parent := make(map[string]string, len(v.order))
	var find func(string) string
	find = func(id string) string {
		p, ok := parent[id]
		if !ok || p == id {
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}
	seen := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if seen[[2]string{e.Target, e.Source}] {
			continue
		}
		seen[[2]string{e.Source, e.Target}] = true
		a, b := find(e.Source), find(e.Target)
		if a == b {
			return true, nil
		}
		parent[a] = b
	}
	return false, nil
}

// TopologicalOrder orders the nodes so every edge points forward. Ties are
// broken by model order. It fails on undirected views and on cycles.
func (v *View) TopologicalOrder() ([]string, error) {
	if !v.directed {
		return nil, fmt.Errorf("topological order needs a directed graph")
	}
	order, err := graph.StableTopologicalSort(v.g, func(a, b string) bool {
		return v.order[a] < v.order[b]
	})
	if err != nil {
		return nil, fmt.Errorf("topological sort (possible cycle): %w", err)
	}
	return order, nil
}

// ShortestPath returns the node ids on a shortest path from one node to
// another, counting every edge as one hop.
func (v *View) ShortestPath(from, to string) ([]string, error) {
	if err := v.require(from); err != nil {
		return nil, err
	}
	if err := v.require(to); err != nil {
		return nil, err
	}
	path, err := graph.ShortestPath(v.g, from, to)
	if err != nil {
		return nil, fmt.Errorf("shortest path %s to %s: %w", from, to, err)
	}
	return path, nil
}

// EdgeAttrs returns the attributes of the projected edge between two nodes.
// When ports split one pair into several model edges, the first one wins.
func (v *View) EdgeAttrs(from, to string) (map[string]string, error) {
	e, err := v.g.Edge(from, to)
	if err != nil {
		return nil, err
	}
	return e.Properties.Attributes, nil
}

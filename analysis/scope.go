// ABOUTME: Scope-aware lookups over the Graph Model that need no topology view.
// ABOUTME: Lists the nodes of a subgraph tree, the edges touching a node, and nodes by id.
package analysis

import (
	"fmt"

	"github.com/2389-research/graphdelta/dot"
)

// NodesIn returns the ids of nodes that belong to scope or any subgraph nested
// in it, owned nodes and refs alike, each once. The root scope "" lists every node.
func NodesIn(g *dot.Graph, scope string) ([]string, error) {
	if scope == "" {
		var ids []string
		for _, n := range g.Nodes() {
			ids = append(ids, n.ID)
		}
		return ids, nil
	}
	if g.FindSubgraph(scope) == nil {
		return nil, fmt.Errorf("%w: %q", dot.ErrParentNotFound, scope)
	}

	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range g.MembersOf(scope) {
		add(id)
	}
	for _, c := range g.Descendants(scope) {
		if c.Kind == dot.KindSubgraph {
			for _, id := range g.MembersOf(c.ID) {
				add(id)
			}
		}
	}
	return ids, nil
}

// EdgesOf returns every edge with node as an endpoint, on any port.
func EdgesOf(g *dot.Graph, node string) ([]*dot.Chunk, error) {
	if g.FindNode(node) == nil {
		return nil, fmt.Errorf("%w: %q", dot.ErrNodeNotFound, node)
	}
	return g.EdgesTouching(node), nil
}

// FindNodes returns the node chunks for ids that exist, in the order asked.
// Unknown ids are skipped.
func FindNodes(g *dot.Graph, ids []string) []*dot.Chunk {
	var found []*dot.Chunk
	for _, id := range ids {
		if n := g.FindNode(id); n != nil {
			found = append(found, n)
		}
	}
	return found
}

// ABOUTME: Canonical text form of a Graph for structural equality and fingerprinting.
// ABOUTME: Attribute order and generated anonymous subgraph ids do not affect the result.
package dot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Canonical renders g in a form where two graphs are structurally equal exactly
// when their canonical strings match. Chunks are listed depth first per scope,
// attribute keys are sorted, and anonymous subgraphs are named by their
// depth-first ordinal.
func Canonical(g *Graph) string {
	var b strings.Builder

	fmt.Fprintf(&b, "directed=%t strict=%t name=%q\n", g.Directed, g.Strict, g.Name)
	fmt.Fprintf(&b, "graph %s\n", canonicalAttrs(g.Attrs))
	fmt.Fprintf(&b, "node %s\n", canonicalAttrs(g.NodeDefaults))
	fmt.Fprintf(&b, "edge %s\n", canonicalAttrs(g.EdgeDefaults))

	c := &canon{b: &b, children: childIndex(g)}
	c.scope("", 0)
	return b.String()
}

// Equal reports whether a and b describe the same graph.
func Equal(a, b *Graph) bool {
	return Canonical(a) == Canonical(b)
}

// Fingerprint returns a 64-bit hash of the canonical form of g.
func Fingerprint(g *Graph) uint64 {
	return xxhash.Sum64String(Canonical(g))
}

type canon struct {
	b        *strings.Builder
	children map[string][]*Chunk
	anon     int
}

// childIndex groups chunks by owning scope, preserving insertion order.
func childIndex(g *Graph) map[string][]*Chunk {
	children := make(map[string][]*Chunk)
	for _, c := range g.chunks {
		children[c.Parent] = append(children[c.Parent], c)
	}
	return children
}

func (c *canon) scope(scope string, depth int) {
	indent := strings.Repeat(" ", depth)
	for _, ch := range c.children[scope] {
		switch ch.Kind {
		case KindNode:
			fmt.Fprintf(c.b, "%snode %q %s\n", indent, ch.ID, canonicalAttrs(ch.Attrs))
		case KindEdge:
			k := ch.Edge
			fmt.Fprintf(c.b, "%sedge %q:%q %q:%q %s\n", indent, k.From, k.FromPort, k.To, k.ToPort, canonicalAttrs(ch.Attrs))
		case KindSubgraph:
			name := fmt.Sprintf("%q", ch.ID)
			if ch.Anonymous {
				c.anon++
				name = fmt.Sprintf("#%d", c.anon)
			}
			fmt.Fprintf(c.b, "%ssubgraph %s %s node=%s edge=%s refs=%q\n", indent, name,
				canonicalAttrs(ch.Attrs), canonicalAttrs(ch.NodeDefaults), canonicalAttrs(ch.EdgeDefaults), ch.Refs)
			c.scope(ch.ID, depth+1)
		}
	}
}

func canonicalAttrs(a *Attrs) string {
	keys := a.Keys()
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q=%q", k, a.Value(k)))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

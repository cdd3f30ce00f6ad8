// ABOUTME: Command types produced by the DSL parser and consumed by the interpreter.
// ABOUTME: Each command renders back to DSL text that parses to an equal command.
package dsl

import (
	"strings"

	"github.com/2389-research/graphdelta/dot"
)

// Command is one parsed DSL line.
type Command interface {
	// String renders the command as a DSL line.
	String() string
	command()
}

// NodeSet creates a node or merges attributes into an existing one.
// A non-empty Parent moves the node into that subgraph.
type NodeSet struct {
	ID     string
	Parent string
	Attrs  *dot.Attrs
}

// NodeDelete removes a node and every edge and reference that mentions it.
type NodeDelete struct {
	ID string
}

// NodeRename gives a node a new id, rewriting edges and references.
type NodeRename struct {
	From string
	To   string
}

// EdgeSet creates an edge or merges attributes into an existing one.
type EdgeSet struct {
	Key   dot.EdgeKey
	Attrs *dot.Attrs
}

// EdgeDelete removes the edge with exactly this key.
type EdgeDelete struct {
	Key dot.EdgeKey
}

// SubgraphSet creates a subgraph or merges attributes into an existing one.
// A non-empty Parent nests the subgraph inside that subgraph.
type SubgraphSet struct {
	ID     string
	Parent string
	Attrs  *dot.Attrs
}

// SubgraphDelete removes a subgraph and everything it contains.
type SubgraphDelete struct {
	ID string
}

// GraphSet merges graph-level attributes.
type GraphSet struct {
	Attrs *dot.Attrs
}

// GraphDelete removes one graph-level attribute.
type GraphDelete struct {
	Key string
}

// DefaultTarget selects which default mapping a DefaultSet changes.
type DefaultTarget int

const (
	DefaultNode DefaultTarget = iota
	DefaultEdge
)

func (t DefaultTarget) String() string {
	if t == DefaultEdge {
		return "edge"
	}
	return "node"
}

// DefaultSet merges attributes into the root node or edge defaults.
type DefaultSet struct {
	Target DefaultTarget
	Attrs  *dot.Attrs
}

// RankSet constrains its members to share a rank.
type RankSet struct {
	Rank    string // same, min, or max
	Members []string
}

func (NodeSet) command()        {}
func (NodeDelete) command()     {}
func (NodeRename) command()     {}
func (EdgeSet) command()        {}
func (EdgeDelete) command()     {}
func (SubgraphSet) command()    {}
func (SubgraphDelete) command() {}
func (GraphSet) command()       {}
func (GraphDelete) command()    {}
func (DefaultSet) command()     {}
func (RankSet) command()        {}

func (c NodeSet) String() string {
	return "node " + quoteArg(c.ID) + parentSuffix(c.Parent) + attrsSuffix(c.Attrs)
}

func (c NodeDelete) String() string {
	return "node delete " + quoteArg(c.ID)
}

func (c NodeRename) String() string {
	return "node rename " + quoteArg(c.From) + " -> " + quoteArg(c.To)
}

func (c EdgeSet) String() string {
	return "edge " + edgeString(c.Key) + attrsSuffix(c.Attrs)
}

func (c EdgeDelete) String() string {
	return "edge delete " + edgeString(c.Key)
}

func (c SubgraphSet) String() string {
	return "subgraph " + quoteArg(c.ID) + parentSuffix(c.Parent) + attrsSuffix(c.Attrs)
}

func (c SubgraphDelete) String() string {
	return "subgraph delete " + quoteArg(c.ID)
}

func (c GraphSet) String() string {
	return "graph" + attrsSuffix(c.Attrs)
}

func (c GraphDelete) String() string {
	return "graph delete " + quoteArg(c.Key)
}

func (c DefaultSet) String() string {
	return c.Target.String() + " default" + attrsSuffix(c.Attrs)
}

func (c RankSet) String() string {
	var b strings.Builder
	b.WriteString("rank ")
	b.WriteString(c.Rank)
	for _, m := range c.Members {
		b.WriteByte(' ')
		b.WriteString(quoteArg(m))
	}
	return b.String()
}

// subcommands are bare words with special meaning right after a command word.
var subcommands = map[string]bool{"delete": true, "rename": true, "default": true}

// quoteArg quotes an id like dot.QuoteID and also quotes subcommand words,
// since quoted identifiers are never keywords.
func quoteArg(id string) string {
	if subcommands[id] {
		return `"` + id + `"`
	}
	return dot.QuoteID(id)
}

func parentSuffix(parent string) string {
	if parent == "" {
		return ""
	}
	return " -> " + quoteArg(parent)
}

func attrsSuffix(attrs *dot.Attrs) string {
	if attrs.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, attrs.Len())
	for k, v := range attrs.All() {
		parts = append(parts, dot.QuoteID(k)+"="+dot.QuoteID(v))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func edgeString(k dot.EdgeKey) string {
	return endpointString(k.From, k.FromPort) + " -> " + endpointString(k.To, k.ToPort)
}

func endpointString(id, port string) string {
	s := quoteArg(id)
	if port == "" {
		return s
	}
	for _, part := range strings.SplitN(port, ":", 2) {
		s += ":" + dot.QuoteID(part)
	}
	return s
}

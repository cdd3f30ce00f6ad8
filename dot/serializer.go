// ABOUTME: Serializer that converts a Graph Model back to DOT source text.
// ABOUTME: Writes chunks in insertion order, reopening named subgraphs, so parsing the output reproduces the model.
package dot

import (
	"fmt"
	"strings"
)

// Serialize converts a Graph to a DOT-formatted string with deterministic output.
// Root chunks and the contents of each subgraph block appear in insertion order.
func Serialize(g *Graph) string {
	var b strings.Builder

	if g.Strict {
		b.WriteString("strict ")
	}
	if g.Directed {
		b.WriteString("digraph")
	} else {
		b.WriteString("graph")
	}
	if g.Name != "" {
		b.WriteString(" " + QuoteID(g.Name))
	}
	b.WriteString(" {\n")

	if g.Attrs.Len() > 0 {
		fmt.Fprintf(&b, "  graph [%s]\n", formatAttrs(g.Attrs))
	}
	if g.NodeDefaults.Len() > 0 {
		fmt.Fprintf(&b, "  node [%s]\n", formatAttrs(g.NodeDefaults))
	}
	if g.EdgeDefaults.Len() > 0 {
		fmt.Fprintf(&b, "  edge [%s]\n", formatAttrs(g.EdgeDefaults))
	}

	// Blank line after defaults if any were emitted
	if g.Attrs.Len() > 0 || g.NodeDefaults.Len() > 0 || g.EdgeDefaults.Len() > 0 {
		b.WriteString("\n")
	}

	w := newWriter(&b, g)
	for _, c := range g.chunks {
		w.enter(g.scopePath(c.Parent))
		w.chunk(c)
	}
	w.closeTo(0)

	// Refs whose owner was declared after the block closed go into a reopened block.
	for _, c := range g.chunks {
		if c.Kind == KindSubgraph && len(w.pending[c.ID]) > 0 {
			w.enter(g.scopePath(c.ID))
			w.flushRefs(c, true)
			w.closeTo(0)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// writer walks chunks in insertion order, opening and closing subgraph
// blocks as the owning scope changes. A named subgraph whose contents are
// interleaved with other scopes is written as several blocks.
type writer struct {
	b        *strings.Builder
	g        *Graph
	open     []*Chunk            // currently open subgraph blocks, outermost first
	opened   map[string]bool     // blocks whose attrs and defaults were written
	closed   map[string]bool     // anonymous blocks already closed; never reopened
	declared map[string]bool     // nodes whose owning statement was written
	pending  map[string][]string // refs not yet written, per subgraph
}

func newWriter(b *strings.Builder, g *Graph) *writer {
	w := &writer{
		b:        b,
		g:        g,
		opened:   make(map[string]bool),
		closed:   make(map[string]bool),
		declared: make(map[string]bool),
		pending:  make(map[string][]string),
	}
	for _, c := range g.chunks {
		if c.Kind == KindSubgraph && len(c.Refs) > 0 {
			w.pending[c.ID] = append([]string(nil), c.Refs...)
		}
	}
	return w
}

// enter makes path the stack of open blocks, closing and opening as needed.
func (w *writer) enter(path []*Chunk) {
	path = w.reopenable(path)
	common := 0
	for common < len(w.open) && common < len(path) && w.open[common] == path[common] {
		common++
	}
	w.closeTo(common)
	for _, sg := range path[common:] {
		w.openBlock(sg)
	}
}

// reopenable drops the part of path up to the innermost anonymous block that
// was already closed. A second "{" would be a new anonymous subgraph, but a
// named subgraph below it can be reopened by name from any scope.
func (w *writer) reopenable(path []*Chunk) []*Chunk {
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].Anonymous && w.closed[path[i].ID] {
			return path[i+1:]
		}
	}
	return path
}

func (w *writer) chunk(c *Chunk) {
	depth := len(w.open) + 1
	switch c.Kind {
	case KindNode:
		w.line(depth, QuoteID(c.ID)+attrSuffix(c.Attrs))
		w.declared[c.ID] = true
	case KindEdge:
		w.line(depth, w.edge(c.Edge)+attrSuffix(c.Attrs))
	case KindSubgraph:
		if !w.opened[c.ID] {
			w.openBlock(c)
		}
	}
}

func (w *writer) openBlock(sg *Chunk) {
	depth := len(w.open) + 1
	if sg.Anonymous {
		w.line(depth, "{")
	} else {
		w.line(depth, "subgraph "+QuoteID(sg.ID)+" {")
	}
	w.open = append(w.open, sg)

	if w.opened[sg.ID] {
		return
	}
	w.opened[sg.ID] = true

	inner := depth + 1
	for k, v := range sg.Attrs.All() {
		w.line(inner, QuoteID(k)+"="+QuoteID(v))
	}
	if sg.NodeDefaults.Len() > 0 {
		w.line(inner, "node ["+formatAttrs(sg.NodeDefaults)+"]")
	}
	if sg.EdgeDefaults.Len() > 0 {
		w.line(inner, "edge ["+formatAttrs(sg.EdgeDefaults)+"]")
	}
}

// closeTo closes open blocks until only depth remain, writing ready refs first.
func (w *writer) closeTo(depth int) {
	for len(w.open) > depth {
		top := w.open[len(w.open)-1]
		w.flushRefs(top, false)
		w.line(len(w.open), "}")
		w.open = w.open[:len(w.open)-1]
		if top.Anonymous {
			w.closed[top.ID] = true
		}
	}
}

// flushRefs writes the longest prefix of sg's pending refs whose nodes have
// been declared, preserving ref order. With force set, every ref is written.
func (w *writer) flushRefs(sg *Chunk, force bool) {
	refs := w.pending[sg.ID]
	i := 0
	for i < len(refs) && (force || w.declared[refs[i]]) {
		w.line(len(w.open)+1, QuoteID(refs[i]))
		i++
	}
	if i == len(refs) {
		delete(w.pending, sg.ID)
		return
	}
	w.pending[sg.ID] = refs[i:]
}

func (w *writer) edge(k EdgeKey) string {
	op := " -- "
	if w.g.Directed {
		op = " -> "
	}
	return endpointString(k.From, k.FromPort) + op + endpointString(k.To, k.ToPort)
}

func (w *writer) line(depth int, text string) {
	w.b.WriteString(strings.Repeat("  ", depth))
	w.b.WriteString(text)
	w.b.WriteByte('\n')
}

// endpointString renders id[:port[:compass]] with each part quoted as needed.
func endpointString(id, port string) string {
	s := QuoteID(id)
	if port == "" {
		return s
	}
	for _, part := range strings.SplitN(port, ":", 2) {
		s += ":" + QuoteID(part)
	}
	return s
}

func attrSuffix(attrs *Attrs) string {
	if attrs.Len() == 0 {
		return ""
	}
	return " [" + formatAttrs(attrs) + "]"
}

// formatAttrs renders key=value pairs in insertion order, comma separated.
func formatAttrs(attrs *Attrs) string {
	parts := make([]string, 0, attrs.Len())
	for k, v := range attrs.All() {
		parts = append(parts, QuoteID(k)+"="+QuoteID(v))
	}
	return strings.Join(parts, ", ")
}

// QuoteID returns a DOT-safe representation of an identifier or value.
// Identifiers that are not keywords and numerals are returned bare.
// Everything else is double-quoted; a backslash is doubled only where the
// lexer would otherwise read it as an escape or a line continuation.
func QuoteID(val string) string {
	if isBareIdentifier(val) || isNumeric(val) {
		return val
	}

	runes := []rune(val)
	var b strings.Builder
	b.WriteByte('"')
	for i, ch := range runes {
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			if i+1 == len(runes) || runes[i+1] == '"' || runes[i+1] == '\\' || runes[i+1] == '\n' {
				b.WriteString(`\\`)
			} else {
				b.WriteByte('\\')
			}
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// isBareIdentifier returns true if val lexes as a single identifier that is
// not a keyword in any letter case.
func isBareIdentifier(val string) bool {
	if val == "" {
		return false
	}
	if _, kw := keywords[strings.ToLower(val)]; kw {
		return false
	}
	for i, ch := range val {
		if i == 0 && !isIDStart(ch) {
			return false
		}
		if !isIDChar(ch) {
			return false
		}
	}
	return true
}

// isNumeric returns true if val matches the DOT numeral form -?(.d+|d+(.d*)?).
func isNumeric(val string) bool {
	if val == "" {
		return false
	}
	start := 0
	if val[0] == '-' {
		start = 1
	}
	hasDot := false
	digitsBefore, digitsAfter := 0, 0
	for i := start; i < len(val); i++ {
		ch := val[i]
		switch {
		case ch == '.':
			if hasDot {
				return false
			}
			hasDot = true
		case ch >= '0' && ch <= '9':
			if hasDot {
				digitsAfter++
			} else {
				digitsBefore++
			}
		default:
			return false
		}
	}
	if digitsBefore == 0 {
		return hasDot && digitsAfter > 0
	}
	return true
}

// ABOUTME: Recursive descent parser for DOT source that produces a Graph Model.
// ABOUTME: Parses graph/digraph bodies with nodes, edges, ports, attribute lists, defaults, and nested subgraphs.
package dot

// parser holds the state of the recursive descent parser.
type parser struct {
	tokens []Token
	pos    int
	graph  *Graph
}

// endpoint is one side of an edge statement.
type endpoint struct {
	id   string
	port string
	tok  Token // identifier token, for error positions
}

// Parse parses the given DOT source string into a Graph.
// Errors are returned as *ParseError.
func Parse(input string) (*Graph, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	if err := p.parseGraph(); err != nil {
		return nil, err
	}

	return p.graph, nil
}

// current returns the current token.
func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the token at the given offset from the current position.
func (p *parser) peek(offset int) Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[idx]
}

// advance moves to the next token and returns the consumed token.
func (p *parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

// expect consumes the next token and returns an error if it doesn't match the expected type.
func (p *parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, errorAt(tok, "expected %v but got %v (%q)", typ, tok.Type, tok.Value)
	}
	p.advance()
	return tok, nil
}

// skipSemicolon optionally consumes a semicolon if present.
func (p *parser) skipSemicolon() {
	if p.current().Type == TokenSemicolon {
		p.advance()
	}
}

// parseGraph parses: 'strict'? ('digraph' | 'graph') ID? '{' Statement* '}'
func (p *parser) parseGraph() error {
	strict := false
	if p.current().Type == TokenStrict {
		strict = true
		p.advance()
	}

	tok := p.current()
	switch tok.Type {
	case TokenDigraph:
		p.graph = New(true)
	case TokenGraph:
		p.graph = New(false)
	default:
		return errorAt(tok, "expected 'digraph' or 'graph' but got %v (%q)", tok.Type, tok.Value)
	}
	p.advance()
	p.graph.Strict = strict

	if p.current().IsID() {
		p.graph.Name = p.advance().Value
	}

	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}
	if err := p.parseStatements(""); err != nil {
		return err
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return errorAt(tok, "unexpected %v after graph body; only one graph per document is supported", tok.Type)
	}
	return nil
}

// parseStatements parses a sequence of statements until a closing brace or EOF.
func (p *parser) parseStatements(scope string) error {
	for p.current().Type != TokenRBrace && p.current().Type != TokenEOF {
		if err := p.parseStatement(scope); err != nil {
			return err
		}
	}
	return nil
}

// parseStatement parses a single statement within the graph body or a subgraph block.
func (p *parser) parseStatement(scope string) error {
	tok := p.current()

	switch tok.Type {
	case TokenGraph, TokenNode, TokenEdge:
		return p.parseAttrStmt(scope)

	case TokenSubgraph, TokenLBrace:
		if err := p.parseSubgraph(scope); err != nil {
			return err
		}
		if op := p.current(); op.Type == TokenArrow || op.Type == TokenUndirected {
			return errorAt(op, "subgraphs as edge endpoints are not supported")
		}
		p.skipSemicolon()
		return nil

	case TokenSemicolon:
		p.advance()
		return nil
	}

	if !tok.IsID() {
		return errorAt(tok, "unexpected token %v (%q)", tok.Type, tok.Value)
	}

	// ID '=' ID sets an attribute of the enclosing scope
	if p.peek(1).Type == TokenEquals {
		key, val, err := p.parseAttr()
		if err != nil {
			return err
		}
		p.scopeAttrs(scope).Set(key, val)
		p.skipSemicolon()
		return nil
	}

	return p.parseNodeOrEdgeStmt(scope)
}

// parseAttrStmt parses: ('graph' | 'node' | 'edge') AttrList ';'?
func (p *parser) parseAttrStmt(scope string) error {
	kw := p.advance()
	if p.current().Type != TokenLBracket {
		tok := p.current()
		return errorAt(tok, "expected attribute list after %q but got %v (%q)", kw.Value, tok.Type, tok.Value)
	}
	attrs, err := p.parseAttrLists()
	if err != nil {
		return err
	}

	switch kw.Type {
	case TokenGraph:
		p.scopeAttrs(scope).Merge(attrs)
	case TokenNode:
		p.scopeNodeDefaults(scope).Merge(attrs)
	case TokenEdge:
		p.scopeEdgeDefaults(scope).Merge(attrs)
	}

	p.skipSemicolon()
	return nil
}

// parseSubgraph parses: ('subgraph' ID?)? '{' Statement* '}'
// A named subgraph that already exists is reopened rather than duplicated.
func (p *parser) parseSubgraph(scope string) error {
	explicit := false
	if p.current().Type == TokenSubgraph {
		explicit = true
		p.advance()
	}

	id := ""
	if explicit && p.current().IsID() {
		id = p.advance().Value
	}

	open, err := p.expect(TokenLBrace)
	if err != nil {
		return err
	}

	sg := p.graph.FindSubgraph(id)
	if id == "" || sg == nil {
		anonymous := id == ""
		if anonymous {
			id = p.graph.NextAnonymousID()
		}
		sg = NewSubgraph(id, nil)
		sg.Anonymous = anonymous
		sg.Parent = scope
		if err := p.graph.Upsert(sg); err != nil {
			return errorAt(open, "%v", err)
		}
	}

	if err := p.parseStatements(sg.ID); err != nil {
		return err
	}
	_, err = p.expect(TokenRBrace)
	return err
}

// parseNodeOrEdgeStmt parses a node statement or an edge chain starting with an ID.
func (p *parser) parseNodeOrEdgeStmt(scope string) error {
	first, err := p.parseEndpoint()
	if err != nil {
		return err
	}

	if op := p.current(); op.Type == TokenArrow || op.Type == TokenUndirected {
		return p.parseEdgeStmt(scope, first)
	}

	// Node statement: ID port? AttrList*
	attrs, err := p.parseAttrLists()
	if err != nil {
		return err
	}
	node, err := p.ensureNode(first, scope, true)
	if err != nil {
		return err
	}
	node.Attrs.Merge(attrs)

	p.skipSemicolon()
	return nil
}

// parseEdgeStmt parses: Endpoint ( EdgeOp Endpoint )+ AttrList* ';'?
// Chains expand into one edge per hop, each carrying the full attribute list.
func (p *parser) parseEdgeStmt(scope string, first endpoint) error {
	endpoints := []endpoint{first}

	for op := p.current(); op.Type == TokenArrow || op.Type == TokenUndirected; op = p.current() {
		if p.graph.Directed && op.Type == TokenUndirected {
			return errorAt(op, "undirected edge operator '--' used in a digraph")
		}
		if !p.graph.Directed && op.Type == TokenArrow {
			return errorAt(op, "directed edge operator '->' used in an undirected graph")
		}
		p.advance()

		if next := p.current(); next.Type == TokenLBrace || next.Type == TokenSubgraph {
			return errorAt(next, "subgraphs as edge endpoints are not supported")
		}
		ep, err := p.parseEndpoint()
		if err != nil {
			return err
		}
		endpoints = append(endpoints, ep)
	}

	attrs, err := p.parseAttrLists()
	if err != nil {
		return err
	}

	for _, ep := range endpoints {
		if _, err := p.ensureNode(ep, scope, false); err != nil {
			return err
		}
	}

	for i := 0; i < len(endpoints)-1; i++ {
		key := EdgeKey{
			From:     endpoints[i].id,
			FromPort: endpoints[i].port,
			To:       endpoints[i+1].id,
			ToPort:   endpoints[i+1].port,
		}
		if existing := p.graph.FindEdge(key); existing != nil {
			existing.Attrs.Merge(attrs)
			continue
		}
		edge := NewEdge(key, attrs.Clone())
		edge.Parent = scope
		if err := p.graph.Upsert(edge); err != nil {
			return errorAt(endpoints[i].tok, "%v", err)
		}
	}

	p.skipSemicolon()
	return nil
}

// parseEndpoint parses: ID ( ':' ID ( ':' ID )? )?
// The port, including an optional compass point, is kept joined as "port:compass".
func (p *parser) parseEndpoint() (endpoint, error) {
	tok := p.current()
	if !tok.IsID() {
		return endpoint{}, errorAt(tok, "expected node identifier but got %v (%q)", tok.Type, tok.Value)
	}
	p.advance()
	ep := endpoint{id: tok.Value, tok: tok}

	for i := 0; i < 2 && p.current().Type == TokenColon; i++ {
		p.advance()
		part := p.current()
		if !part.IsID() {
			return endpoint{}, errorAt(part, "expected port after ':' but got %v (%q)", part.Type, part.Value)
		}
		p.advance()
		if ep.port == "" {
			ep.port = part.Value
		} else {
			ep.port += ":" + part.Value
		}
	}
	return ep, nil
}

// ensureNode returns the node with id, creating it in scope on first appearance.
// A node statement in a scope other than the owner's records a reference there.
func (p *parser) ensureNode(ep endpoint, scope string, stated bool) (*Chunk, error) {
	id := ep.id
	node := p.graph.FindNode(id)
	if node == nil {
		node = NewNode(id, nil)
		node.Parent = scope
		if err := p.graph.Upsert(node); err != nil {
			return nil, errorAt(ep.tok, "%v", err)
		}
		return node, nil
	}
	if stated && scope != "" && node.Parent != scope {
		p.graph.AddRef(scope, id)
	}
	return node, nil
}

// parseAttrLists parses zero or more bracketed attribute blocks into one mapping.
func (p *parser) parseAttrLists() (*Attrs, error) {
	attrs := NewAttrs()
	for p.current().Type == TokenLBracket {
		if err := p.parseAttrBlock(attrs); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// parseAttrBlock parses: '[' ( Attr ( ',' | ';' )? )* ']'
func (p *parser) parseAttrBlock(into *Attrs) error {
	if _, err := p.expect(TokenLBracket); err != nil {
		return err
	}

	for p.current().Type != TokenRBracket {
		if p.current().Type == TokenEOF {
			return errorAt(p.current(), "unterminated attribute list")
		}
		key, val, err := p.parseAttr()
		if err != nil {
			return err
		}
		into.Set(key, val)

		if sep := p.current().Type; sep == TokenComma || sep == TokenSemicolon {
			p.advance()
		}
	}

	_, err := p.expect(TokenRBracket)
	return err
}

// parseAttr parses: ID '=' ID
func (p *parser) parseAttr() (string, string, error) {
	keyTok := p.current()
	if !keyTok.IsID() {
		return "", "", errorAt(keyTok, "expected attribute key but got %v (%q)", keyTok.Type, keyTok.Value)
	}
	p.advance()

	if eq := p.current(); eq.Type != TokenEquals {
		return "", "", errorAt(eq, "expected '=' after attribute key %q but got %v (%q)", keyTok.Value, eq.Type, eq.Value)
	}
	p.advance()

	valTok := p.current()
	if !valTok.IsID() {
		return "", "", errorAt(valTok, "expected value for attribute %q but got %v (%q)", keyTok.Value, valTok.Type, valTok.Value)
	}
	p.advance()

	return keyTok.Value, valTok.Value, nil
}

// scopeAttrs returns the attribute mapping written by graph [...] and ID=ID in scope.
func (p *parser) scopeAttrs(scope string) *Attrs {
	if sg := p.graph.FindSubgraph(scope); sg != nil {
		return sg.Attrs
	}
	return p.graph.Attrs
}

// scopeNodeDefaults returns the node [...] mapping for scope.
func (p *parser) scopeNodeDefaults(scope string) *Attrs {
	if sg := p.graph.FindSubgraph(scope); sg != nil {
		return sg.NodeDefaults
	}
	return p.graph.NodeDefaults
}

// scopeEdgeDefaults returns the edge [...] mapping for scope.
func (p *parser) scopeEdgeDefaults(scope string) *Attrs {
	if sg := p.graph.FindSubgraph(scope); sg != nil {
		return sg.EdgeDefaults
	}
	return p.graph.EdgeDefaults
}

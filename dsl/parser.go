// ABOUTME: Line-oriented parser for the graph editing DSL, built on the DOT lexer.
// ABOUTME: Each line becomes a rule-tagged syntax tree that is then mapped to a Command.
package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2389-research/graphdelta/dot"
)

// Parse parses DSL text into commands, one per line. Blank lines, lines
// starting with '#', and '//' comments are skipped. Errors are *dot.ParseError
// with positions relative to text.
func Parse(text string) ([]Command, error) {
	var cmds []Command
	for i, line := range strings.Split(text, "\n") {
		cmd, err := parseLine(strings.TrimSuffix(line, "\r"), i+1)
		if err != nil {
			return nil, err
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds, nil
}

// ParseLine parses a single DSL line. A blank or comment-only line yields a nil Command.
func ParseLine(line string) (Command, error) {
	return parseLine(line, 1)
}

func parseLine(line string, lineNo int) (Command, error) {
	tokens, err := dot.Lex(line)
	if err != nil {
		var pe *dot.ParseError
		if errors.As(err, &pe) {
			return nil, &dot.ParseError{Message: pe.Message, Line: lineNo, Column: pe.Column}
		}
		return nil, err
	}
	if len(tokens) == 0 || tokens[0].Type == dot.TokenEOF {
		return nil, nil
	}

	p := &parser{tokens: tokens, line: lineNo}
	tree, err := p.command()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != dot.TokenEOF {
		return nil, p.errorf(tok, "unexpected %q after command", tok.Value)
	}
	return build(tree)
}

// parser holds the token stream for one DSL line.
type parser struct {
	tokens []dot.Token
	pos    int
	line   int
}

func (p *parser) current() dot.Token {
	if p.pos >= len(p.tokens) {
		return dot.Token{Type: dot.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peek(offset int) dot.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return dot.Token{Type: dot.TokenEOF}
	}
	return p.tokens[idx]
}

func (p *parser) advance() dot.Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *parser) errorf(tok dot.Token, format string, args ...any) error {
	return &dot.ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    p.line,
		Column:  tok.Col,
	}
}

// atWord reports whether the current token is the bare identifier word.
// Quoted identifiers never match, so "delete" in quotes is an ordinary id.
func (p *parser) atWord(word string) bool {
	tok := p.current()
	return tok.Type == dot.TokenIdentifier && tok.Value == word
}

func (p *parser) keyword() *cst {
	return leaf(ruleKeyword, p.advance())
}

// command := node_cmd | edge_cmd | subgraph_cmd | graph_cmd | rank_cmd
func (p *parser) command() (*cst, error) {
	tok := p.current()
	switch {
	case tok.Type == dot.TokenNode:
		return p.nodeCommand()
	case tok.Type == dot.TokenEdge:
		return p.edgeCommand()
	case tok.Type == dot.TokenSubgraph:
		return p.subgraphCommand()
	case tok.Type == dot.TokenGraph:
		return p.graphCommand()
	case p.atWord("rank"):
		return p.rankCommand()
	}
	return nil, p.errorf(tok, "unknown command %q; expected node, edge, subgraph, graph, or rank", tok.Value)
}

// node_cmd := 'node' ( 'delete' ID | 'rename' ID '->' ID | 'default' attrs | ID parent? attrs )
func (p *parser) nodeCommand() (*cst, error) {
	kw := p.keyword()

	switch {
	case p.atWord("delete"):
		sub := p.keyword()
		id, err := p.ident("node id")
		if err != nil {
			return nil, err
		}
		return branch(ruleNodeDelete, kw, sub, id), nil

	case p.atWord("rename"):
		sub := p.keyword()
		from, err := p.ident("node id")
		if err != nil {
			return nil, err
		}
		to, err := p.target(func() (*cst, error) { return p.ident("new node id") })
		if err != nil {
			return nil, err
		}
		return branch(ruleNodeRename, kw, sub, from, to), nil

	case p.atWord("default"):
		sub := p.keyword()
		attrs, err := p.attrList()
		if err != nil {
			return nil, err
		}
		return branch(ruleNodeDefault, kw, sub, attrs), nil
	}

	id, err := p.ident("node id")
	if err != nil {
		return nil, err
	}
	parent, err := p.parent()
	if err != nil {
		return nil, err
	}
	attrs, err := p.attrList()
	if err != nil {
		return nil, err
	}
	return branch(ruleNodeSet, kw, id, parent, attrs), nil
}

// edge_cmd := 'edge' ( 'delete' endpoint '->' endpoint | 'default' attrs | endpoint '->' endpoint attrs )
func (p *parser) edgeCommand() (*cst, error) {
	kw := p.keyword()

	if p.atWord("default") {
		sub := p.keyword()
		attrs, err := p.attrList()
		if err != nil {
			return nil, err
		}
		return branch(ruleEdgeDefault, kw, sub, attrs), nil
	}

	var sub *cst
	if p.atWord("delete") {
		sub = p.keyword()
	}
	from, err := p.endpoint()
	if err != nil {
		return nil, err
	}
	to, err := p.target(p.endpoint)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		return branch(ruleEdgeDelete, kw, sub, from, to), nil
	}

	attrs, err := p.attrList()
	if err != nil {
		return nil, err
	}
	return branch(ruleEdgeSet, kw, from, to, attrs), nil
}

// subgraph_cmd := 'subgraph' ( 'delete' ID | ID parent? attrs )
func (p *parser) subgraphCommand() (*cst, error) {
	kw := p.keyword()

	if p.atWord("delete") {
		sub := p.keyword()
		id, err := p.ident("subgraph id")
		if err != nil {
			return nil, err
		}
		return branch(ruleSubgraphDelete, kw, sub, id), nil
	}

	id, err := p.ident("subgraph id")
	if err != nil {
		return nil, err
	}
	parent, err := p.parent()
	if err != nil {
		return nil, err
	}
	attrs, err := p.attrList()
	if err != nil {
		return nil, err
	}
	return branch(ruleSubgraphSet, kw, id, parent, attrs), nil
}

// graph_cmd := 'graph' ( 'delete' ID | attrs )
// "graph delete=x" sets an attribute named delete.
func (p *parser) graphCommand() (*cst, error) {
	kw := p.keyword()

	if p.atWord("delete") && p.peek(1).Type != dot.TokenEquals {
		sub := p.keyword()
		key, err := p.ident("attribute key")
		if err != nil {
			return nil, err
		}
		return branch(ruleGraphDelete, kw, sub, key), nil
	}

	start := p.current()
	attrs, err := p.attrList()
	if err != nil {
		return nil, err
	}
	if len(attrs.all(ruleAttr)) == 0 {
		return nil, p.errorf(start, "graph command needs at least one key=value attribute")
	}
	return branch(ruleGraphSet, kw, attrs), nil
}

// rank_cmd := 'rank' ('same' | 'min' | 'max') ID+
func (p *parser) rankCommand() (*cst, error) {
	kw := p.keyword()

	tok := p.current()
	if tok.Type != dot.TokenIdentifier || (tok.Value != "same" && tok.Value != "min" && tok.Value != "max") {
		return nil, p.errorf(tok, "expected rank same, min, or max but got %q", tok.Value)
	}
	value := leaf(ruleRankValue, p.advance())

	n := branch(ruleRank, kw, value)
	for p.current().Type != dot.TokenEOF {
		id, err := p.ident("node id")
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, id)
	}
	if len(n.all(ruleIdent)) == 0 {
		return nil, p.errorf(p.current(), "rank %s needs at least one node id", value.text())
	}
	return n, nil
}

// ident := ID
func (p *parser) ident(what string) (*cst, error) {
	tok := p.current()
	if !tok.IsID() {
		if tok.Type == dot.TokenEOF {
			return nil, p.errorf(tok, "expected %s", what)
		}
		return nil, p.errorf(tok, "expected %s but got %q", what, tok.Value)
	}
	return leaf(ruleIdent, p.advance()), nil
}

// parent := ( '->' ID )?
func (p *parser) parent() (*cst, error) {
	if p.current().Type != dot.TokenArrow {
		return nil, nil
	}
	arrow := leaf(ruleArrow, p.advance())
	id, err := p.ident("parent subgraph id")
	if err != nil {
		return nil, err
	}
	return branch(ruleParent, arrow, id), nil
}

// target := '->' inner
func (p *parser) target(inner func() (*cst, error)) (*cst, error) {
	tok := p.current()
	if tok.Type != dot.TokenArrow {
		if tok.Type == dot.TokenEOF {
			return nil, p.errorf(tok, "expected '->'")
		}
		return nil, p.errorf(tok, "expected '->' but got %q", tok.Value)
	}
	arrow := leaf(ruleArrow, p.advance())
	n, err := inner()
	if err != nil {
		return nil, err
	}
	return branch(ruleTarget, arrow, n), nil
}

// endpoint := ID ( ':' ID ( ':' ID )? )?
func (p *parser) endpoint() (*cst, error) {
	id, err := p.ident("node id")
	if err != nil {
		return nil, err
	}
	n := branch(ruleEndpoint, id)

	if p.current().Type != dot.TokenColon {
		return n, nil
	}
	colon := p.advance()
	port, err := p.ident("port")
	if err != nil {
		return nil, err
	}
	value := port.text()
	if p.current().Type == dot.TokenColon {
		p.advance()
		compass, err := p.ident("compass point")
		if err != nil {
			return nil, err
		}
		value += ":" + compass.text()
	}
	n.children = append(n.children, leaf(rulePort, dot.Token{Type: dot.TokenIdentifier, Value: value, Line: colon.Line, Col: colon.Col}))
	return n, nil
}

// attrs := ( '[' ( attr sep? )* ']' | attr sep? )*
func (p *parser) attrList() (*cst, error) {
	list := branch(ruleAttrList)
	for {
		tok := p.current()
		switch {
		case tok.Type == dot.TokenLBracket:
			p.advance()
			for p.current().Type != dot.TokenRBracket {
				if p.current().Type == dot.TokenEOF {
					return nil, p.errorf(tok, "unterminated attribute list")
				}
				attr, err := p.attr()
				if err != nil {
					return nil, err
				}
				list.children = append(list.children, attr)
				p.skipSeparator()
			}
			p.advance()
		case tok.IsID():
			attr, err := p.attr()
			if err != nil {
				return nil, err
			}
			list.children = append(list.children, attr)
			p.skipSeparator()
		default:
			return list, nil
		}
	}
}

// attr := ID '=' ID
func (p *parser) attr() (*cst, error) {
	keyTok := p.current()
	if !keyTok.IsID() {
		return nil, p.errorf(keyTok, "expected attribute key but got %q", keyTok.Value)
	}
	key := leaf(ruleKey, p.advance())

	if eq := p.current(); eq.Type != dot.TokenEquals {
		return nil, p.errorf(eq, "expected '=' after attribute key %q", keyTok.Value)
	}
	p.advance()

	valTok := p.current()
	if !valTok.IsID() {
		return nil, p.errorf(valTok, "expected value for attribute %q", keyTok.Value)
	}
	return branch(ruleAttr, key, leaf(ruleValue, p.advance())), nil
}

func (p *parser) skipSeparator() {
	if t := p.current().Type; t == dot.TokenComma || t == dot.TokenSemicolon {
		p.advance()
	}
}

// build maps a command syntax tree to its Command.
func build(n *cst) (Command, error) {
	switch n.rule {
	case ruleNodeSet:
		return NodeSet{
			ID:     n.child(ruleIdent).text(),
			Parent: n.child(ruleParent).child(ruleIdent).text(),
			Attrs:  buildAttrs(n.child(ruleAttrList)),
		}, nil
	case ruleNodeDelete:
		return NodeDelete{ID: n.child(ruleIdent).text()}, nil
	case ruleNodeRename:
		return NodeRename{
			From: n.child(ruleIdent).text(),
			To:   n.child(ruleTarget).child(ruleIdent).text(),
		}, nil
	case ruleNodeDefault:
		return DefaultSet{Target: DefaultNode, Attrs: buildAttrs(n.child(ruleAttrList))}, nil
	case ruleEdgeSet:
		return EdgeSet{Key: buildEdgeKey(n), Attrs: buildAttrs(n.child(ruleAttrList))}, nil
	case ruleEdgeDelete:
		return EdgeDelete{Key: buildEdgeKey(n)}, nil
	case ruleEdgeDefault:
		return DefaultSet{Target: DefaultEdge, Attrs: buildAttrs(n.child(ruleAttrList))}, nil
	case ruleSubgraphSet:
		return SubgraphSet{
			ID:     n.child(ruleIdent).text(),
			Parent: n.child(ruleParent).child(ruleIdent).text(),
			Attrs:  buildAttrs(n.child(ruleAttrList)),
		}, nil
	case ruleSubgraphDelete:
		return SubgraphDelete{ID: n.child(ruleIdent).text()}, nil
	case ruleGraphSet:
		return GraphSet{Attrs: buildAttrs(n.child(ruleAttrList))}, nil
	case ruleGraphDelete:
		return GraphDelete{Key: n.child(ruleIdent).text()}, nil
	case ruleRank:
		var members []string
		for _, id := range n.all(ruleIdent) {
			members = append(members, id.text())
		}
		return RankSet{Rank: n.child(ruleRankValue).text(), Members: members}, nil
	}
	return nil, fmt.Errorf("dsl: no command for rule %s", n.rule)
}

func buildAttrs(list *cst) *dot.Attrs {
	attrs := dot.NewAttrs()
	for _, a := range list.all(ruleAttr) {
		attrs.Set(a.child(ruleKey).text(), a.child(ruleValue).text())
	}
	return attrs
}

func buildEdgeKey(n *cst) dot.EdgeKey {
	from := n.child(ruleEndpoint)
	to := n.child(ruleTarget).child(ruleEndpoint)
	return dot.EdgeKey{
		From:     from.child(ruleIdent).text(),
		FromPort: from.child(rulePort).text(),
		To:       to.child(ruleIdent).text(),
		ToPort:   to.child(rulePort).text(),
	}
}

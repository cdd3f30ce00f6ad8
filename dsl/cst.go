// ABOUTME: Concrete syntax tree for DSL lines: every node is tagged with the grammar rule that produced it.
// ABOUTME: The AST builder looks children up by rule, so adding tokens to a rule never shifts other lookups.
package dsl

import "github.com/2389-research/graphdelta/dot"

// rule identifies the grammar production for a syntax tree node.
type rule int

const (
	ruleNodeSet rule = iota
	ruleNodeDelete
	ruleNodeRename
	ruleNodeDefault
	ruleEdgeSet
	ruleEdgeDelete
	ruleEdgeDefault
	ruleSubgraphSet
	ruleSubgraphDelete
	ruleGraphSet
	ruleGraphDelete
	ruleRank

	ruleKeyword   // command or sub-command word
	ruleIdent     // any DOT ID
	ruleEndpoint  // ID with optional port and compass
	rulePort      // port part of an endpoint, possibly "port:compass"
	ruleParent    // '->' ID after a node or subgraph id
	ruleTarget    // '->' followed by the second endpoint or the new name
	ruleArrow     // '->'
	ruleAttrList  // zero or more attributes, bracketed or bare
	ruleAttr      // key '=' value
	ruleKey       // attribute key
	ruleValue     // attribute value
	ruleRankValue // same, min, or max
)

var ruleNames = map[rule]string{
	ruleNodeSet:        "node_set",
	ruleNodeDelete:     "node_delete",
	ruleNodeRename:     "node_rename",
	ruleNodeDefault:    "node_default",
	ruleEdgeSet:        "edge_set",
	ruleEdgeDelete:     "edge_delete",
	ruleEdgeDefault:    "edge_default",
	ruleSubgraphSet:    "subgraph_set",
	ruleSubgraphDelete: "subgraph_delete",
	ruleGraphSet:       "graph_set",
	ruleGraphDelete:    "graph_delete",
	ruleRank:           "rank",
	ruleKeyword:        "keyword",
	ruleIdent:          "ident",
	ruleEndpoint:       "endpoint",
	rulePort:           "port",
	ruleParent:         "parent",
	ruleTarget:         "target",
	ruleArrow:          "arrow",
	ruleAttrList:       "attr_list",
	ruleAttr:           "attr",
	ruleKey:            "key",
	ruleValue:          "value",
	ruleRankValue:      "rank_value",
}

func (r rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return "unknown"
}

// cst is one syntax tree node. Leaves carry the token they matched.
type cst struct {
	rule     rule
	tok      dot.Token
	children []*cst
}

func leaf(r rule, tok dot.Token) *cst {
	return &cst{rule: r, tok: tok}
}

func branch(r rule, children ...*cst) *cst {
	n := &cst{rule: r}
	for _, c := range children {
		if c != nil {
			n.children = append(n.children, c)
		}
	}
	return n
}

// child returns the first direct child produced by r, or nil.
func (n *cst) child(r rule) *cst {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.rule == r {
			return c
		}
	}
	return nil
}

// all returns every direct child produced by r, in source order.
func (n *cst) all(r rule) []*cst {
	if n == nil {
		return nil
	}
	var out []*cst
	for _, c := range n.children {
		if c.rule == r {
			out = append(out, c)
		}
	}
	return out
}

// text returns the token value of a leaf, or "" for a nil node.
func (n *cst) text() string {
	if n == nil {
		return ""
	}
	return n.tok.Value
}

// ABOUTME: Lint rules for Graph Models covering structural integrity and Graphviz attribute sanity.
// ABOUTME: Provides a single Lint(g) function that runs all checks, returning diagnostics.
package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2389-research/graphdelta/dot"
)

// validShapes is the set of Graphviz polygon-based and special node shapes.
var validShapes = map[string]bool{
	"box": true, "polygon": true, "ellipse": true, "oval": true, "circle": true,
	"point": true, "egg": true, "triangle": true, "plaintext": true, "plain": true,
	"diamond": true, "trapezium": true, "parallelogram": true, "house": true,
	"pentagon": true, "hexagon": true, "septagon": true, "octagon": true,
	"doublecircle": true, "doubleoctagon": true, "tripleoctagon": true,
	"invtriangle": true, "invtrapezium": true, "invhouse": true,
	"Mdiamond": true, "Msquare": true, "Mcircle": true, "rect": true,
	"rectangle": true, "square": true, "star": true, "none": true,
	"underline": true, "cylinder": true, "note": true, "tab": true,
	"folder": true, "box3d": true, "component": true, "promoter": true,
	"cds": true, "terminator": true, "utr": true, "primersite": true,
	"restrictionsite": true, "fivepoverhang": true, "threepoverhang": true,
	"noverhang": true, "assembly": true, "signature": true, "insulator": true,
	"ribosite": true, "rnastab": true, "proteasesite": true, "proteinstab": true,
	"rpromoter": true, "rarrow": true, "larrow": true, "lpromoter": true,
	"record": true, "Mrecord": true,
}

// validRankdirs is the set of valid rankdir attribute values.
var validRankdirs = map[string]bool{
	"LR": true,
	"TB": true,
	"RL": true,
	"BT": true,
}

// validRanks is the set of rank attribute values Graphviz accepts on subgraphs.
var validRanks = map[string]bool{
	"same":   true,
	"min":    true,
	"max":    true,
	"source": true,
	"sink":   true,
}

// validCompass is the set of compass points allowed after a port.
var validCompass = map[string]bool{
	"n": true, "ne": true, "e": true, "se": true,
	"s": true, "sw": true, "w": true, "nw": true,
	"c": true, "_": true,
}

// Lint runs all lint rules on the graph and returns any diagnostics found.
func Lint(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic

	diags = append(diags, checkParents(g)...)
	diags = append(diags, checkRefs(g)...)
	diags = append(diags, checkEdgeEndpoints(g)...)
	diags = append(diags, checkRankValues(g)...)
	diags = append(diags, checkEmptyRankGroups(g)...)
	diags = append(diags, checkEdgePorts(g)...)
	diags = append(diags, checkClusterLabels(g)...)
	diags = append(diags, checkSelfLoops(g)...)
	diags = append(diags, checkShapes(g)...)
	diags = append(diags, checkRankdir(g)...)
	diags = append(diags, checkWeights(g)...)

	return diags
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []dot.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// checkParents verifies every chunk's parent resolves to a subgraph.
func checkParents(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, c := range g.Chunks() {
		if c.Parent == "" || g.FindSubgraph(c.Parent) != nil {
			continue
		}
		d := dot.Diagnostic{
			Severity: "error",
			Message:  fmt.Sprintf("%s has parent %q which does not exist", c.Key(), c.Parent),
			Rule:     "parent_exists",
		}
		setLocation(&d, c)
		diags = append(diags, d)
	}
	return diags
}

// checkRefs verifies every subgraph reference names an existing node.
func checkRefs(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, sg := range g.Subgraphs() {
		for _, ref := range sg.Refs {
			if g.FindNode(ref) != nil {
				continue
			}
			diags = append(diags, dot.Diagnostic{
				Severity:   "error",
				Message:    fmt.Sprintf("subgraph %s references node %q which does not exist", displayID(sg), ref),
				SubgraphID: sg.ID,
				NodeID:     ref,
				Rule:       "ref_exists",
			})
		}
	}
	return diags
}

// checkEdgeEndpoints verifies every edge references existing nodes.
func checkEdgeEndpoints(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, e := range g.Edges() {
		for _, end := range []struct{ role, id string }{{"source", e.Edge.From}, {"target", e.Edge.To}} {
			if g.FindNode(end.id) != nil {
				continue
			}
			diags = append(diags, dot.Diagnostic{
				Severity: "error",
				Message:  fmt.Sprintf("edge %s %q does not exist", end.role, end.id),
				EdgeID:   e.Edge.String(),
				Rule:     "edge_endpoints",
			})
		}
	}
	return diags
}

// checkRankValues validates the rank attribute wherever a subgraph carries one.
func checkRankValues(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, sg := range g.Subgraphs() {
		rank, ok := sg.Attrs.Get("rank")
		if !ok || validRanks[rank] {
			continue
		}
		diags = append(diags, dot.Diagnostic{
			Severity:   "warning",
			Message:    fmt.Sprintf("subgraph %s has invalid rank %q (want same, min, max, source or sink)", displayID(sg), rank),
			SubgraphID: sg.ID,
			Rule:       "rank_value",
		})
	}
	return diags
}

// checkEmptyRankGroups flags rank groups with no member nodes.
func checkEmptyRankGroups(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, sg := range g.RankGroups() {
		if len(g.MembersOf(sg.ID)) > 0 {
			continue
		}
		diags = append(diags, dot.Diagnostic{
			Severity:   "warning",
			Message:    fmt.Sprintf("rank=%s group has no members", sg.Attrs.Value("rank")),
			SubgraphID: sg.ID,
			Rule:       "empty_rank_group",
		})
	}
	return diags
}

// checkEdgePorts validates the compass point suffix of edge ports.
func checkEdgePorts(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, e := range g.Edges() {
		for _, port := range []string{e.Edge.FromPort, e.Edge.ToPort} {
			name, compass, found := strings.Cut(port, ":")
			if !found || validCompass[compass] {
				continue
			}
			diags = append(diags, dot.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("port %q has invalid compass point %q", name, compass),
				EdgeID:   e.Edge.String(),
				Rule:     "edge_operator_ports",
			})
		}
	}
	return diags
}

// checkClusterLabels flags labels on subgraphs Graphviz does not draw as clusters.
func checkClusterLabels(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, sg := range g.Subgraphs() {
		if !sg.Attrs.Has("label") || (!sg.Anonymous && strings.HasPrefix(sg.ID, "cluster")) {
			continue
		}
		diags = append(diags, dot.Diagnostic{
			Severity:   "warning",
			Message:    fmt.Sprintf("subgraph %s has a label but is not a cluster; Graphviz ignores it", displayID(sg)),
			SubgraphID: sg.ID,
			Rule:       "cluster_label",
		})
	}
	return diags
}

// checkSelfLoops notes edges where From == To.
func checkSelfLoops(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, e := range g.Edges() {
		if e.Edge.From == e.Edge.To {
			diags = append(diags, dot.Diagnostic{
				Severity: "info",
				Message:  fmt.Sprintf("self-loop on node %q", e.Edge.From),
				EdgeID:   e.Edge.String(),
				Rule:     "self_loop",
			})
		}
	}
	return diags
}

// checkShapes validates that node shape attributes use recognized values.
func checkShapes(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, n := range g.Nodes() {
		shape, ok := n.Attrs.Get("shape")
		if !ok || shape == "" || validShapes[shape] {
			continue
		}
		diags = append(diags, dot.Diagnostic{
			Severity: "warning",
			Message:  fmt.Sprintf("node %q has unknown shape %q", n.ID, shape),
			NodeID:   n.ID,
			Rule:     "valid_shape",
		})
	}
	return diags
}

// checkRankdir validates the graph-level rankdir attribute.
func checkRankdir(g *dot.Graph) []dot.Diagnostic {
	rd, ok := g.Attrs.Get("rankdir")
	if !ok || rd == "" {
		return nil
	}
	if !validRankdirs[rd] {
		return []dot.Diagnostic{{
			Severity: "warning",
			Message:  fmt.Sprintf("graph has invalid rankdir %q", rd),
			Rule:     "valid_rankdir",
		}}
	}
	return nil
}

// checkWeights validates that edge weight attributes are non-negative numbers.
func checkWeights(g *dot.Graph) []dot.Diagnostic {
	var diags []dot.Diagnostic
	for _, e := range g.Edges() {
		w, ok := e.Attrs.Get("weight")
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(w, 64); err != nil || v < 0 {
			diags = append(diags, dot.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("edge %s has invalid weight %q", e.Edge, w),
				EdgeID:   e.Edge.String(),
				Rule:     "edge_weight",
			})
		}
	}
	return diags
}

func setLocation(d *dot.Diagnostic, c *dot.Chunk) {
	switch c.Kind {
	case dot.KindNode:
		d.NodeID = c.ID
	case dot.KindEdge:
		d.EdgeID = c.Edge.String()
	case dot.KindSubgraph:
		d.SubgraphID = c.ID
	}
}

// displayID names a subgraph for messages; anonymous blocks have no user-facing id.
func displayID(sg *dot.Chunk) string {
	if sg.Anonymous {
		return "{...}"
	}
	return strconv.Quote(sg.ID)
}

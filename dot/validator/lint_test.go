// ABOUTME: Table-driven tests for the graph lint rules covering structure, rank groups, ports, and attributes.
// ABOUTME: Builds graphs from DOT source and checks which rules fire with which severity.
package validator

import (
	"testing"

	"github.com/2389-research/graphdelta/dot"
)

// hasDiag checks if any diagnostic matches the given rule and severity.
func hasDiag(diags []dot.Diagnostic, rule, severity string) bool {
	for _, d := range diags {
		if d.Rule == rule && d.Severity == severity {
			return true
		}
	}
	return false
}

// countDiags counts diagnostics matching the given rule.
func countDiags(diags []dot.Diagnostic, rule string) int {
	n := 0
	for _, d := range diags {
		if d.Rule == rule {
			n++
		}
	}
	return n
}

func mustParse(t *testing.T, src string) *dot.Graph {
	t.Helper()
	g, err := dot.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return g
}

func TestLint_CleanGraph(t *testing.T) {
	g := mustParse(t, `digraph G {
		graph [rankdir=LR]
		a [shape=box]
		subgraph cluster_x { label="X"; b }
		{ rank=same; a; b }
		a:out:se -> b [weight=2]
	}`)
	if diags := Lint(g); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %+v", diags)
	}
}

func TestLint_Rules(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		rule     string
		severity string
		count    int
	}{
		{"invalid rank", `digraph { { rank=sideways; a } }`, "rank_value", "warning", 1},
		{"named subgraph rank", `digraph { subgraph s { rank=top; a } }`, "rank_value", "warning", 1},
		{"empty rank group", `digraph { { rank=same } }`, "empty_rank_group", "warning", 1},
		{"bad compass", `digraph { a:p:up -> b:q:n }`, "edge_operator_ports", "warning", 1},
		{"port without compass", `digraph { a:p -> b }`, "edge_operator_ports", "warning", 0},
		{"label outside cluster", `digraph { subgraph group { label="G"; a } }`, "cluster_label", "warning", 1},
		{"label on anonymous block", `digraph { { label="G"; a } }`, "cluster_label", "warning", 1},
		{"label on cluster", `digraph { subgraph cluster_g { label="G"; a } }`, "cluster_label", "warning", 0},
		{"self loop", `digraph { a -> a }`, "self_loop", "info", 1},
		{"unknown shape", `digraph { a [shape=blob] }`, "valid_shape", "warning", 1},
		{"record shape", `digraph { a [shape=record] }`, "valid_shape", "warning", 0},
		{"invalid rankdir", `digraph { rankdir=XY }`, "valid_rankdir", "warning", 1},
		{"negative weight", `digraph { a -> b [weight=-1] }`, "edge_weight", "warning", 1},
		{"text weight", `digraph { a -> b [weight=heavy] }`, "edge_weight", "warning", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := Lint(mustParse(t, tt.src))
			if got := countDiags(diags, tt.rule); got != tt.count {
				t.Fatalf("rule %s fired %d times, want %d (%+v)", tt.rule, got, tt.count, diags)
			}
			if tt.count > 0 && !hasDiag(diags, tt.rule, tt.severity) {
				t.Errorf("rule %s did not fire with severity %s", tt.rule, tt.severity)
			}
		})
	}
}

func TestLint_DanglingReferences(t *testing.T) {
	g := dot.New(true)
	for _, c := range []*dot.Chunk{
		dot.NewSubgraph("s", nil),
		{Kind: dot.KindNode, ID: "inside", Parent: "s"},
		dot.NewNode("a", nil),
		dot.NewEdge(dot.EdgeKey{From: "a", To: "ghost"}, nil),
	} {
		if err := g.Upsert(c); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	g.AddRef("s", "a")
	g.FindSubgraph("s").Refs = append(g.FindSubgraph("s").Refs, "missing")
	g.Remove(dot.NodeKey("a"))
	g.Remove(dot.SubgraphKey("s"))

	diags := Lint(g)

	if !hasDiag(diags, "parent_exists", "error") {
		t.Error("expected parent_exists error for node whose subgraph was removed")
	}
	if got := countDiags(diags, "edge_endpoints"); got != 2 {
		t.Errorf("edge_endpoints fired %d times, want 2", got)
	}
	if !HasErrors(diags) {
		t.Error("HasErrors = false, want true")
	}
}

func TestLint_RefExists(t *testing.T) {
	g := mustParse(t, `digraph { a; subgraph s { a } }`)
	g.Remove(dot.NodeKey("a"))

	diags := Lint(g)
	if !hasDiag(diags, "ref_exists", "error") {
		t.Errorf("expected ref_exists error, got %+v", diags)
	}
}

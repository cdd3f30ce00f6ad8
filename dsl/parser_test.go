// ABOUTME: Tests for the DSL parser and command formatter.
// ABOUTME: Table-driven coverage of every command form, attribute syntaxes, keyword quoting, and error positions.
package dsl

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/2389-research/graphdelta/dot"
)

func attrs(kv ...string) *dot.Attrs { return dot.NewAttrs(kv...) }

// sameCommand compares commands, treating attribute mappings by content and order.
func sameCommand(a, b Command) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a.String() == b.String()
}

func TestParseLineCommands(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{`node a`, NodeSet{ID: "a", Attrs: attrs()}},
		{`node a label="Hello World" shape=box`, NodeSet{ID: "a", Attrs: attrs("label", "Hello World", "shape", "box")}},
		{`node a [label=x, color=red; style=filled]`, NodeSet{ID: "a", Attrs: attrs("label", "x", "color", "red", "style", "filled")}},
		{`node a -> cluster_x color=blue`, NodeSet{ID: "a", Parent: "cluster_x", Attrs: attrs("color", "blue")}},
		{`node "two words"`, NodeSet{ID: "two words", Attrs: attrs()}},
		{`node "delete"`, NodeSet{ID: "delete", Attrs: attrs()}},
		{`node delete a`, NodeDelete{ID: "a"}},
		{`node delete delete`, NodeDelete{ID: "delete"}},
		{`node rename a -> b`, NodeRename{From: "a", To: "b"}},
		{`node default shape=box`, DefaultSet{Target: DefaultNode, Attrs: attrs("shape", "box")}},
		{`edge a -> b`, EdgeSet{Key: dot.EdgeKey{From: "a", To: "b"}, Attrs: attrs()}},
		{`edge a:out -> b:in:n weight=3`, EdgeSet{
			Key:   dot.EdgeKey{From: "a", FromPort: "out", To: "b", ToPort: "in:n"},
			Attrs: attrs("weight", "3"),
		}},
		{`edge delete a:p1 -> b`, EdgeDelete{Key: dot.EdgeKey{From: "a", FromPort: "p1", To: "b"}}},
		{`edge default [color=gray]`, DefaultSet{Target: DefaultEdge, Attrs: attrs("color", "gray")}},
		{`subgraph cluster_x label="X"`, SubgraphSet{ID: "cluster_x", Attrs: attrs("label", "X")}},
		{`subgraph inner -> outer`, SubgraphSet{ID: "inner", Parent: "outer", Attrs: attrs()}},
		{`subgraph delete cluster_x`, SubgraphDelete{ID: "cluster_x"}},
		{`graph rankdir=LR splines=ortho`, GraphSet{Attrs: attrs("rankdir", "LR", "splines", "ortho")}},
		{`graph delete rankdir`, GraphDelete{Key: "rankdir"}},
		{`graph delete=yes`, GraphSet{Attrs: attrs("delete", "yes")}},
		{`rank same a b c`, RankSet{Rank: "same", Members: []string{"a", "b", "c"}}},
		{`rank min "start node"`, RankSet{Rank: "min", Members: []string{"start node"}}},
		{`node a // trailing comment`, NodeSet{ID: "a", Attrs: attrs()}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if !sameCommand(got, tt.want) {
				t.Errorf("ParseLine(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLineBlankAndComments(t *testing.T) {
	for _, line := range []string{"", "   ", "# a comment", "// another", "\t"} {
		cmd, err := ParseLine(line)
		if err != nil || cmd != nil {
			t.Errorf("ParseLine(%q) = %v, %v; want nil, nil", line, cmd, err)
		}
	}
}

func TestParseMultipleLines(t *testing.T) {
	text := `# build a small graph
node a label="A"

edge a -> b
// mark the pair
rank same a b
`
	cmds, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	if _, ok := cmds[2].(RankSet); !ok {
		t.Errorf("cmds[2] = %T, want RankSet", cmds[2])
	}
}

// Rendering a command and parsing it again must give back the same command.
func TestCommandStringRoundTrip(t *testing.T) {
	cmds := []Command{
		NodeSet{ID: "a", Attrs: attrs()},
		NodeSet{ID: "node", Parent: "default", Attrs: attrs("label", `say "hi"`, "x", `a\nb`)},
		NodeSet{ID: "rename", Attrs: attrs("graph", "strict")},
		NodeDelete{ID: "delete"},
		NodeRename{From: "old name", To: "new-name"},
		EdgeSet{Key: dot.EdgeKey{From: "a", FromPort: "p:ne", To: "default", ToPort: "q"}, Attrs: attrs("weight", "1.5")},
		EdgeDelete{Key: dot.EdgeKey{From: "delete", To: "b"}},
		SubgraphSet{ID: "cluster 1", Parent: "outer", Attrs: attrs("label", "")},
		SubgraphDelete{ID: "s"},
		GraphSet{Attrs: attrs("delete", "1", "rankdir", "LR")},
		GraphDelete{Key: "label"},
		DefaultSet{Target: DefaultNode, Attrs: attrs("shape", "box")},
		DefaultSet{Target: DefaultEdge, Attrs: attrs()},
		RankSet{Rank: "max", Members: []string{"x", "rename", "two words"}},
	}

	for _, cmd := range cmds {
		t.Run(cmd.String(), func(t *testing.T) {
			got, err := ParseLine(cmd.String())
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", cmd.String(), err)
			}
			if !sameCommand(got, cmd) {
				t.Errorf("round trip = %q, want %q", got.String(), cmd.String())
			}
		})
	}
}

func TestParseAttrsKeepOrderAndLastWins(t *testing.T) {
	cmd, err := ParseLine(`node a b=1 a=2 b=3`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	set := cmd.(NodeSet)
	if got := set.Attrs.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("keys = %v, want [b a]", got)
	}
	if set.Attrs.Value("b") != "3" {
		t.Errorf("b = %q, want 3", set.Attrs.Value("b"))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
		wantCol  int
		contains string
	}{
		{"unknown command", "frob a", 1, 1, "unknown command"},
		{"missing node id", "node", 1, 5, "expected node id"},
		{"delete without id", "node delete", 1, 12, "expected node id"},
		{"edge missing arrow", "edge a b", 1, 8, "expected '->'"},
		{"undirected edge op", "edge a -- b", 1, 8, "expected '->'"},
		{"attr without value", "node a label=", 1, 14, "expected value"},
		{"attr without equals", "node a label", 1, 13, "expected '='"},
		{"unterminated list", "node a [x=1", 1, 8, "unterminated"},
		{"bad rank", "rank sideways a", 1, 6, "expected rank same, min, or max"},
		{"empty rank", "rank same", 1, 10, "needs at least one node"},
		{"empty graph set", "graph", 1, 6, "at least one"},
		{"keyword as id", "node node", 1, 6, "expected node id"},
		{"line number", "node a\n\nnode b\nedge x", 4, 7, "expected '->'"},
		{"lexer error line", "node a\nnode \"open", 2, 6, "unterminated string"},
		{"trailing tokens", "node delete a b", 1, 15, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.text)
			}
			var pe *dot.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *dot.ParseError", err)
			}
			if pe.Line != tt.wantLine || pe.Column != tt.wantCol {
				t.Errorf("position = %d:%d, want %d:%d (%v)", pe.Line, pe.Column, tt.wantLine, tt.wantCol, err)
			}
			if !strings.Contains(pe.Message, tt.contains) {
				t.Errorf("message %q does not contain %q", pe.Message, tt.contains)
			}
		})
	}
}

func TestParseQuotedKeywordIsIdentifier(t *testing.T) {
	cmd, err := ParseLine(`rank same "rank" "same"`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	rs := cmd.(RankSet)
	if !reflect.DeepEqual(rs.Members, []string{"rank", "same"}) {
		t.Errorf("members = %v", rs.Members)
	}
}

// ABOUTME: Tests for the render package covering format selection and in-process graphviz layout.
// ABOUTME: Validates Render and RenderDOTSource against real Graph Models.
package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/2389-research/graphdelta/dot"
)

func buildTestGraph(t *testing.T) *dot.Graph {
	t.Helper()
	g, err := dot.Parse(`digraph pipeline {
  rankdir=LR
  node [fontname=Helvetica]
  start [shape=Mdiamond]
  work [shape=box, label="Do Work"]
  done [shape=Msquare]
  start -> work
  work -> done [label=complete]
  subgraph cluster_main { label="Main"; work }
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return g
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"svg", "svg", false},
		{" PNG ", "png", false},
		{"dot", "dot", false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRender_DOTFormat(t *testing.T) {
	g := buildTestGraph(t)
	data, err := Render(context.Background(), g, "dot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != dot.Serialize(g) {
		t.Errorf("dot output differs from serializer output:\n%s", data)
	}
}

func TestRender_SVG(t *testing.T) {
	data, err := Render(context.Background(), buildTestGraph(t), "svg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Errorf("expected SVG document, got:\n%.200s", data)
	}
	if !strings.Contains(string(data), "Do Work") {
		t.Error("expected node label in SVG output")
	}
}

func TestRender_PNG(t *testing.T) {
	data, err := Render(context.Background(), buildTestGraph(t), "png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("expected PNG signature, got % x", data[:min(8, len(data))])
	}
}

func TestRender_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Render(ctx, nil, "svg"); err == nil {
		t.Error("expected error for nil graph")
	}
	if _, err := Render(ctx, buildTestGraph(t), "gif"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := RenderDOTSource(ctx, "", "svg"); err == nil {
		t.Error("expected error for empty DOT text")
	}
}

func TestRenderDOTSource_Passthrough(t *testing.T) {
	src := "digraph { a -> b }"
	data, err := RenderDOTSource(context.Background(), src, "dot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != src {
		t.Errorf("expected input unchanged, got %q", data)
	}
}

func TestRenderDOTSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderDOTSource(ctx, "digraph { a }", "svg"); err == nil {
		t.Error("expected error for canceled context")
	}
}

// ABOUTME: Renders Graph Models and DOT source to dot, svg, or png output.
// ABOUTME: Layout runs in-process through go-graphviz, so no graphviz install is needed.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/2389-research/graphdelta/dot"
)

// Formats lists the supported output formats.
var Formats = []string{"dot", "svg", "png"}

// ParseFormat normalizes a format name and reports whether it is supported.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	switch f {
	case "dot", "svg", "png":
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q: supported formats are %s", s, strings.Join(Formats, ", "))
}

// Render produces rendered output from a Graph in the specified format.
// "dot" returns the serializer output unchanged.
func Render(ctx context.Context, g *dot.Graph, format string) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("cannot render nil graph")
	}
	return RenderDOTSource(ctx, dot.Serialize(g), format)
}

// RenderDOTSource takes raw DOT text and renders it to the specified format.
// For "dot" format, it returns the input text as-is.
func RenderDOTSource(ctx context.Context, dotText string, format string) ([]byte, error) {
	if dotText == "" {
		return nil, fmt.Errorf("cannot render empty DOT text")
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch f {
	case "svg":
		return layout(ctx, dotText, graphviz.SVG)
	case "png":
		return layout(ctx, dotText, graphviz.PNG)
	}
	return []byte(dotText), nil
}

// layout runs the graphviz dot layout and writes the result in format.
func layout(ctx context.Context, dotText string, format graphviz.Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dotText))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

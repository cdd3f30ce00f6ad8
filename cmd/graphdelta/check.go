// ABOUTME: The check command lints DOT files and prints styled diagnostics.
// ABOUTME: Exits non-zero when any file has error-severity findings.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/dot"
	"github.com/2389-research/graphdelta/dot/validator"
)

func (a *app) checkCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "check [flags] FILE...",
		Short: "Lint DOT files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				g, err := a.readGraph(path)
				if err != nil {
					return err
				}
				diags := validator.Lint(g)
				if quiet {
					diags = onlyErrors(diags)
				}
				printDiagnostics(a.out, path, diags)
				if validator.HasErrors(diags) {
					failed++
				}
			}
			if failed > 0 {
				return &exitError{code: 1, msg: fmt.Sprintf("%d file(s) have errors", failed)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "report errors only")
	return cmd
}

func onlyErrors(diags []dot.Diagnostic) []dot.Diagnostic {
	var out []dot.Diagnostic
	for _, d := range diags {
		if d.Severity == "error" {
			out = append(out, d)
		}
	}
	return out
}

func printDiagnostics(w io.Writer, path string, diags []dot.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintf(w, "%s: %s\n", path, okStyle.Render("ok"))
		return
	}
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s %s%s %s\n",
			path,
			styleForSeverity(d.Severity).Render(d.Severity),
			d.Message,
			location(d),
			ruleStyle.Render("["+d.Rule+"]"),
		)
	}
}

func location(d dot.Diagnostic) string {
	var parts []string
	if d.NodeID != "" {
		parts = append(parts, "node "+d.NodeID)
	}
	if d.EdgeID != "" {
		parts = append(parts, "edge "+d.EdgeID)
	}
	if d.SubgraphID != "" {
		parts = append(parts, "subgraph "+d.SubgraphID)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// ABOUTME: The query command answers structural questions about a DOT file.
// ABOUTME: Each subcommand prints node ids or edges one per line, in model order.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/analysis"
	"github.com/2389-research/graphdelta/dot"
)

func (a *app) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query graph structure",
	}

	// Node-neighborhood queries share one shape: FILE NODE -> ids.
	for _, q := range []struct {
		use, short string
		fn         func(*analysis.View, string) ([]string, error)
	}{
		{"successors", "List direct successors of a node", (*analysis.View).Successors},
		{"predecessors", "List direct predecessors of a node", (*analysis.View).Predecessors},
		{"neighbors", "List nodes adjacent to a node in either direction", (*analysis.View).Neighbors},
		{"reachable", "List every node reachable from a node", (*analysis.View).Reachable},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   q.use + " FILE NODE",
			Short: q.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.view(args[0])
				if err != nil {
					return err
				}
				ids, err := q.fn(v, args[1])
				if err != nil {
					return err
				}
				a.printLines(ids)
				return nil
			},
		})
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path FILE FROM TO",
			Short: "Print the shortest path between two nodes",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.view(args[0])
				if err != nil {
					return err
				}
				path, err := v.ShortestPath(args[1], args[2])
				if err != nil {
					return err
				}
				a.printLines(path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "topo FILE",
			Short: "Print nodes in topological order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.view(args[0])
				if err != nil {
					return err
				}
				order, err := v.TopologicalOrder()
				if err != nil {
					return err
				}
				a.printLines(order)
				return nil
			},
		},
		&cobra.Command{
			Use:   "cycle FILE",
			Short: "Report whether the graph has a cycle",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.view(args[0])
				if err != nil {
					return err
				}
				cyclic, err := v.HasCycle()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, cyclic)
				if cyclic {
					return &exitError{code: 1}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "nodes-in FILE SCOPE",
			Short: "List nodes owned by a subgraph and its descendants; use \"\" for the whole graph",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				g, err := a.readGraph(args[0])
				if err != nil {
					return err
				}
				ids, err := analysis.NodesIn(g, args[1])
				if err != nil {
					return err
				}
				a.printLines(ids)
				return nil
			},
		},
		&cobra.Command{
			Use:   "edges-of FILE NODE",
			Short: "List edges touching a node",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				g, err := a.readGraph(args[0])
				if err != nil {
					return err
				}
				edges, err := analysis.EdgesOf(g, args[1])
				if err != nil {
					return err
				}
				for _, e := range edges {
					fmt.Fprintln(a.out, edgeLine(g, e))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "find FILE NODE...",
			Short: "Print the named nodes with their attributes",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				g, err := a.readGraph(args[0])
				if err != nil {
					return err
				}
				for _, n := range analysis.FindNodes(g, args[1:]) {
					fmt.Fprintln(a.out, nodeLine(n))
				}
				return nil
			},
		},
	)
	return cmd
}

func (a *app) view(path string) (*analysis.View, error) {
	g, err := a.readGraph(path)
	if err != nil {
		return nil, err
	}
	return analysis.Build(g)
}

func (a *app) printLines(lines []string) {
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
}

func edgeLine(g *dot.Graph, e *dot.Chunk) string {
	s := e.Edge.String()
	if !g.Directed {
		s = strings.Replace(s, " -> ", " -- ", 1)
	}
	return s + attrList(e.Attrs)
}

func nodeLine(n *dot.Chunk) string {
	s := n.ID + attrList(n.Attrs)
	if n.Parent != "" {
		s += " in " + n.Parent
	}
	return s
}

func attrList(attrs *dot.Attrs) string {
	if attrs.Len() == 0 {
		return ""
	}
	var parts []string
	for k, v := range attrs.All() {
		parts = append(parts, k+"="+dot.QuoteID(v))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// ABOUTME: The render command lays out a DOT file with the embedded graphviz engine.
// ABOUTME: Writes SVG, PNG, or normalized DOT to a file or standard output.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/render"
)

func (a *app) renderCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "render [flags] FILE",
		Short: "Render a DOT file to SVG or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.Render.Format
			}
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			g, err := a.readGraph(args[0])
			if err != nil {
				return err
			}
			data, err := render.Render(cmd.Context(), g, f)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = a.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("rendered", "file", args[0], "format", f, "output", output, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: svg, png, or dot (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

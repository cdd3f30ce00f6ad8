// ABOUTME: The fmt command parses DOT files and rewrites them in serializer form.
// ABOUTME: With --check it only reports files whose formatting would change.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/dot"
)

func (a *app) fmtCmd() *cobra.Command {
	var check, write bool
	cmd := &cobra.Command{
		Use:   "fmt [flags] FILE...",
		Short: "Reformat DOT files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			unformatted := 0
			for _, path := range args {
				src, err := a.readFile(path)
				if err != nil {
					return err
				}
				g, err := dot.Parse(src)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				out := dot.Serialize(g)

				switch {
				case check:
					if out != src {
						unformatted++
						fmt.Fprintln(a.out, path)
					}
				case write && path != "-":
					if out == src {
						continue
					}
					if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
						return err
					}
					logger.Info("formatted", "file", path)
				default:
					fmt.Fprint(a.out, out)
				}
			}
			if unformatted > 0 {
				return &exitError{code: 1, msg: fmt.Sprintf("%d file(s) need formatting", unformatted)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "list files that are not formatted and exit non-zero")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the formatted result back to each file")
	cmd.MarkFlagsMutuallyExclusive("check", "write")
	return cmd
}

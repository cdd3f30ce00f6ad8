// ABOUTME: The apply command runs one DSL script against many DOT files in parallel.
// ABOUTME: Each file gets its own Graph value, so workers share nothing but the parsed commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/dot"
	"github.com/2389-research/graphdelta/dsl"
	"github.com/2389-research/graphdelta/interp"
)

type applyOptions struct {
	script string
	exec   string
	policy string
	write  bool
}

func (a *app) applyCmd() *cobra.Command {
	var opts applyOptions
	cmd := &cobra.Command{
		Use:   "apply [flags] FILE...",
		Short: "Apply DSL commands to DOT files",
		Long: `Apply parses a DSL script once and applies it to every DOT file given.
Files are processed concurrently; results are printed in argument order
unless --write replaces each file in place. Use "-" to read DOT from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.script, "script", "s", "", "file containing DSL commands")
	cmd.Flags().StringVarP(&opts.exec, "exec", "e", "", "DSL commands given inline")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "batch policy: abort or continue (default from config)")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write results back to the source files")
	cmd.MarkFlagsMutuallyExclusive("script", "exec")
	cmd.MarkFlagsOneRequired("script", "exec")
	return cmd
}

type applyResult struct {
	path string
	out  string
	err  error
}

func (a *app) runApply(ctx context.Context, opts applyOptions, files []string) error {
	logger := loggerFromContext(ctx)

	text := opts.exec
	if opts.script != "" {
		data, err := os.ReadFile(opts.script)
		if err != nil {
			return err
		}
		text = string(data)
	}
	cmds, err := dsl.Parse(text)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	in, err := a.interpreter(opts.policy)
	if err != nil {
		return err
	}
	if opts.write {
		for _, f := range files {
			if f == "-" {
				return fmt.Errorf("--write cannot be used with stdin")
			}
		}
	}

	results := make([]applyResult, len(files))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(a.cfg.Workers)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			results[i] = a.applyFile(ctx, in, cmds, path, opts.write)
			return results[i].err
		})
	}
	poolErr := p.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			logger.Error("apply failed", "file", r.path, "err", r.err)
			continue
		}
		if opts.write {
			logger.Info("updated", "file", r.path, "commands", len(cmds))
			continue
		}
		if len(files) > 1 {
			fmt.Fprintf(a.out, "// %s\n", r.path)
		}
		fmt.Fprint(a.out, r.out)
	}
	if poolErr != nil {
		return &exitError{code: 1, msg: fmt.Sprintf("%d of %d file(s) failed", failed, len(files))}
	}
	return nil
}

// applyFile applies cmds to one file. A partially failed batch still
// produces output under the continue policy; the error is kept for reporting.
func (a *app) applyFile(ctx context.Context, in *interp.Interpreter, cmds []dsl.Command, path string, write bool) applyResult {
	r := applyResult{path: path}
	if err := ctx.Err(); err != nil {
		r.err = err
		return r
	}

	g, err := a.readGraph(path)
	if err != nil {
		r.err = err
		return r
	}
	g, err = in.ApplyBatch(g, cmds)
	var be *interp.BatchError
	if err != nil && !errors.As(err, &be) {
		r.err = err
		return r
	}
	if be != nil {
		for _, f := range be.Failures {
			loggerFromContext(ctx).Warn("command skipped", "file", path, "index", f.Index, "err", f.Err)
		}
	}

	r.out = dot.Serialize(g)
	if write {
		info, statErr := os.Stat(path)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(path, []byte(r.out), mode); err != nil {
			r.err = err
		}
	}
	return r
}

// ABOUTME: Root cobra command with persistent --verbose and --config flags.
// ABOUTME: Loads .env and configuration once, then hands an app value to every subcommand.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/config"
	"github.com/2389-research/graphdelta/dot"
	"github.com/2389-research/graphdelta/interp"
)

// app is the state shared by subcommands after the root pre-run.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	logger *log.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, cfg: config.Default(), logger: log.New(io.Discard)}
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:           "graphdelta",
		Short:         "Edit Graphviz DOT graphs with a line-oriented command language",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadDotEnvAuto(filepath.Dir(configPath)); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
			if err != nil {
				return err
			}
			if verbose {
				level = log.DebugLevel
			}
			a.logger = newLogger(a.errOut, level)
			cmd.SetContext(withLogger(cmd.Context(), a.logger))
			a.logger.Debug("configuration loaded", "config", configPath, "policy", cfg.Policy, "workers", cfg.Workers)
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(a.applyCmd())
	root.AddCommand(a.fmtCmd())
	root.AddCommand(a.checkCmd())
	root.AddCommand(a.renderCmd())
	root.AddCommand(a.queryCmd())
	root.AddCommand(a.editCmd())
	return root
}

// interpreter builds an interpreter from config, letting a non-empty policy flag win.
func (a *app) interpreter(policyFlag string) (*interp.Interpreter, error) {
	policy := a.cfg.InterpPolicy()
	if policyFlag != "" {
		p, err := interp.ParsePolicy(policyFlag)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	return interp.New(interp.WithPolicy(policy), interp.WithLogger(a.logger)), nil
}

// readGraph parses a DOT file, or standard input when path is "-".
func (a *app) readGraph(path string) (*dot.Graph, error) {
	src, err := a.readFile(path)
	if err != nil {
		return nil, err
	}
	g, err := dot.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func (a *app) readFile(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(a.in)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

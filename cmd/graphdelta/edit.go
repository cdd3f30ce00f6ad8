// ABOUTME: The edit command is a line-oriented REPL over an editing session.
// ABOUTME: Each input line is a DSL batch; lines starting with ':' are editor commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389-research/graphdelta/dot/validator"
	"github.com/2389-research/graphdelta/render"
	"github.com/2389-research/graphdelta/session"
)

const editHelp = `Enter DSL commands to change the graph. Editor commands:
  :show            print the current graph
  :check           lint the current graph
  :undo, :redo     step through history
  :history         show undo and redo depth
  :open FILE       start a new session on FILE and switch to it
  :sessions        list open sessions
  :switch ID       switch to another session
  :write [FILE]    save the current graph
  :render FMT FILE render the current graph to FILE
  :help            show this text
  :quit            leave the editor`

// editor holds REPL state for one run of the edit command.
type editor struct {
	ctx     context.Context
	a       *app
	renders *render.Cache
	store   *session.Store
	current *session.Session
	paths   map[string]string // session id to source file
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [FILE]",
		Short: "Edit a DOT file interactively",
		Long: `Edit opens a session on FILE (or an empty digraph) and reads DSL commands
from standard input, one batch per line. Type :help for editor commands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.interpreter("")
			if err != nil {
				return err
			}
			store := session.NewStore(a.cfg.Sessions.Max, a.cfg.Sessions.TTL,
				session.WithStoreLogger(a.logger),
				session.WithSessionOptions(
					session.WithUndoDepth(a.cfg.UndoDepth),
					session.WithInterpreter(in),
				),
			)
			stop := store.StartCleanup(max(a.cfg.Sessions.TTL/2, time.Second))
			defer stop()

			e := &editor{
				ctx:     cmd.Context(),
				a:       a,
				renders: render.NewCache(nil, a.cfg.Sessions.TTL),
				store:   store,
				paths:   make(map[string]string),
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := e.open(path); err != nil {
				return err
			}
			return e.run()
		},
	}
}

func (e *editor) open(path string) error {
	src := "digraph {}"
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			src = string(data)
		case errors.Is(err, os.ErrNotExist):
			// New file; saved on :write.
		default:
			return err
		}
	}
	sess, err := e.store.Create(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.current = sess
	e.paths[sess.ID] = path
	return nil
}

func (e *editor) run() error {
	scanner := bufio.NewScanner(e.a.in)
	for {
		e.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			quit, err := e.meta(line)
			if err != nil {
				fmt.Fprintln(e.a.out, errorStyle.Render("error:"), err)
			}
			if quit {
				return nil
			}
			continue
		}
		e.apply(line)
	}
	fmt.Fprintln(e.a.out)
	return scanner.Err()
}

func (e *editor) prompt() {
	undo, _ := e.current.History()
	fmt.Fprintf(e.a.out, "%s %s ", versionStyle.Render(fmt.Sprintf("[%d]", undo)), promptStyle.Render(">"))
}

func (e *editor) apply(text string) {
	before := e.current.Current()
	v, err := e.current.Apply(text)
	if err != nil {
		fmt.Fprintln(e.a.out, errorStyle.Render("error:"), err)
	}
	if v.ID != before.ID {
		fmt.Fprintln(e.a.out, okStyle.Render("ok"), versionStyle.Render(v.ID.String()))
		e.reportErrors()
	}
}

// reportErrors prints error diagnostics only; :check shows the rest.
func (e *editor) reportErrors() {
	diags := e.current.Diagnostics()
	if validator.HasErrors(diags) {
		printDiagnostics(e.a.out, e.label(), onlyErrors(diags))
	}
}

func (e *editor) label() string {
	if p := e.paths[e.current.ID]; p != "" {
		return p
	}
	return e.current.ID[:8]
}

func (e *editor) meta(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	out := e.a.out
	switch fields[0] {
	case ":quit", ":q":
		return true, nil
	case ":help":
		fmt.Fprintln(out, editHelp)
	case ":show":
		fmt.Fprint(out, e.current.DOT())
	case ":check":
		printDiagnostics(out, e.label(), e.current.Diagnostics())
	case ":undo":
		if _, err := e.current.Undo(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, okStyle.Render("undone"))
	case ":redo":
		if _, err := e.current.Redo(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, okStyle.Render("redone"))
	case ":history":
		undo, redo := e.current.History()
		fmt.Fprintf(out, "undo %d, redo %d\n", undo, redo)
	case ":open":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: :open FILE")
		}
		if err := e.open(fields[1]); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "session", e.current.ID)
	case ":sessions":
		for _, id := range slices.Sorted(maps.Keys(e.paths)) {
			path := e.paths[id]
			if _, ok := e.store.Get(id); !ok {
				delete(e.paths, id)
				continue
			}
			marker := " "
			if id == e.current.ID {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s %s\n", marker, id, path)
		}
	case ":switch":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: :switch ID")
		}
		sess, ok := e.store.Get(fields[1])
		if !ok {
			return false, fmt.Errorf("no session %s", fields[1])
		}
		e.current = sess
	case ":write", ":w":
		path := e.paths[e.current.ID]
		if len(fields) > 1 {
			path = fields[1]
		}
		if path == "" {
			return false, fmt.Errorf("usage: :write FILE")
		}
		if err := os.WriteFile(path, []byte(e.current.DOT()), 0o644); err != nil {
			return false, err
		}
		e.paths[e.current.ID] = path
		fmt.Fprintln(out, okStyle.Render("wrote"), path)
	case ":render":
		if len(fields) != 3 {
			return false, fmt.Errorf("usage: :render FORMAT FILE")
		}
		format, err := render.ParseFormat(fields[1])
		if err != nil {
			return false, err
		}
		data, err := e.renders.Render(e.ctx, e.current.Graph(), format)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(fields[2], data, 0o644); err != nil {
			return false, err
		}
		fmt.Fprintln(out, okStyle.Render("rendered"), fields[2])
	default:
		return false, fmt.Errorf("unknown editor command %s (try :help)", fields[0])
	}
	return false, nil
}

// ABOUTME: Interpreter that applies DSL commands to a Graph Model with copy-on-write semantics.
// ABOUTME: Supports single commands, ordered batches under abort or continue policies, and raw DSL text.
package interp

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/2389-research/graphdelta/dot"
	"github.com/2389-research/graphdelta/dsl"
)

// Policy decides what a batch does when a command fails.
type Policy int

const (
	// AbortOnError stops at the first failure, keeping earlier commands.
	AbortOnError Policy = iota
	// ContinueOnError skips failing commands and reports them together.
	ContinueOnError
)

func (p Policy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "abort"
}

// ParsePolicy converts "abort" or "continue" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortOnError, nil
	case "continue":
		return ContinueOnError, nil
	}
	return AbortOnError, fmt.Errorf("unknown policy %q (want abort or continue)", s)
}

// Interpreter applies commands. It holds no graph state and is safe for concurrent use.
type Interpreter struct {
	policy Policy
	logger *log.Logger
}

// Option configures optional Interpreter behavior.
type Option func(*Interpreter)

// WithPolicy sets the batch failure policy.
func WithPolicy(p Policy) Option {
	return func(in *Interpreter) {
		in.policy = p
	}
}

// WithLogger sets the logger used for per-command debug output and failures.
func WithLogger(l *log.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// New creates an Interpreter. Without options it aborts on the first error and logs nowhere.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		policy: AbortOnError,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = in.logger.With("component", "interp")
	return in
}

// Policy returns the configured batch policy.
func (in *Interpreter) Policy() Policy {
	return in.policy
}

// Apply applies one command to a copy of g. On failure g is returned
// unchanged together with an *InterpretError.
func (in *Interpreter) Apply(g *dot.Graph, cmd dsl.Command) (*dot.Graph, error) {
	out := g.Clone()
	if err := apply(out, cmd); err != nil {
		in.logger.Debug("command failed", "command", cmd, "err", err)
		return g, &InterpretError{Index: 0, Command: cmd, Err: err}
	}
	in.logger.Debug("applied", "command", cmd)
	return out, nil
}

// ApplyBatch applies cmds in order to a copy of g.
//
// Under AbortOnError the first failure stops the batch: the returned graph
// holds every earlier command and the error is an *InterpretError carrying
// the failing index. Under ContinueOnError failing commands are skipped and
// reported in a *BatchError after the rest have been applied.
func (in *Interpreter) ApplyBatch(g *dot.Graph, cmds []dsl.Command) (*dot.Graph, error) {
	out := g.Clone()
	var failures []*InterpretError

	for i, cmd := range cmds {
		if err := apply(out, cmd); err != nil {
			ie := &InterpretError{Index: i, Command: cmd, Err: err}
			if in.policy == AbortOnError {
				in.logger.Debug("batch aborted", "index", i, "command", cmd, "err", err)
				return out, ie
			}
			in.logger.Warn("skipping failed command", "index", i, "command", cmd, "err", err)
			failures = append(failures, ie)
			continue
		}
		in.logger.Debug("applied", "index", i, "command", cmd)
	}

	if len(failures) > 0 {
		return out, &BatchError{Failures: failures}
	}
	return out, nil
}

// ApplyText parses DSL text and applies the resulting batch. A parse error
// is returned as *dot.ParseError before any command runs.
func (in *Interpreter) ApplyText(g *dot.Graph, text string) (*dot.Graph, error) {
	cmds, err := dsl.Parse(text)
	if err != nil {
		return g, err
	}
	return in.ApplyBatch(g, cmds)
}

// apply mutates g in place. Every command validates before it mutates, so a
// failing command leaves g untouched.
func apply(g *dot.Graph, cmd dsl.Command) error {
	switch c := cmd.(type) {
	case dsl.NodeSet:
		return setNode(g, c)
	case dsl.NodeDelete:
		deleteNode(g, c.ID)
		return nil
	case dsl.NodeRename:
		return g.RenameNode(c.From, c.To)
	case dsl.EdgeSet:
		return setEdge(g, c)
	case dsl.EdgeDelete:
		if e := findEdge(g, c.Key); e != nil {
			g.Remove(e.Key())
		}
		return nil
	case dsl.SubgraphSet:
		return setSubgraph(g, c)
	case dsl.SubgraphDelete:
		deleteSubgraph(g, c.ID)
		return nil
	case dsl.GraphSet:
		g.Attrs.Merge(c.Attrs)
		return nil
	case dsl.GraphDelete:
		g.Attrs.Delete(c.Key)
		return nil
	case dsl.DefaultSet:
		if c.Target == dsl.DefaultEdge {
			g.EdgeDefaults.Merge(c.Attrs)
		} else {
			g.NodeDefaults.Merge(c.Attrs)
		}
		return nil
	case dsl.RankSet:
		return setRank(g, c)
	}
	return fmt.Errorf("%w: %T", ErrUnknown, cmd)
}

// checkParent verifies id names a subgraph that commands may place chunks in.
func checkParent(g *dot.Graph, id string) error {
	sg := g.FindSubgraph(id)
	if sg == nil {
		return fmt.Errorf("%w: %q", dot.ErrParentNotFound, id)
	}
	if sg.Anonymous {
		return fmt.Errorf("%w: %q", dot.ErrReservedID, id)
	}
	return nil
}

func setNode(g *dot.Graph, c dsl.NodeSet) error {
	if c.ID == "" {
		return fmt.Errorf("%w: node", dot.ErrEmptyID)
	}
	if c.Parent != "" {
		if err := checkParent(g, c.Parent); err != nil {
			return err
		}
	}

	n := g.FindNode(c.ID)
	if n == nil {
		n = dot.NewNode(c.ID, c.Attrs.Clone())
		n.Parent = c.Parent
		return g.Upsert(n)
	}

	if c.Parent != "" && n.Parent != c.Parent {
		if err := g.Move(n.Key(), c.Parent); err != nil {
			return err
		}
		dropRefIn(g, c.Parent, c.ID)
	}
	n.Attrs.Merge(c.Attrs)
	return nil
}

func setEdge(g *dot.Graph, c dsl.EdgeSet) error {
	if c.Key.From == "" || c.Key.To == "" {
		return fmt.Errorf("%w: edge endpoint", dot.ErrEmptyID)
	}
	if e := findEdge(g, c.Key); e != nil {
		e.Attrs.Merge(c.Attrs)
		return nil
	}

	for _, id := range []string{c.Key.From, c.Key.To} {
		if g.FindNode(id) != nil {
			continue
		}
		if err := g.Upsert(dot.NewNode(id, nil)); err != nil {
			return err
		}
	}
	return g.Upsert(dot.NewEdge(c.Key, c.Attrs.Clone()))
}

// findEdge looks up key, also matching the reversed key in undirected graphs.
func findEdge(g *dot.Graph, key dot.EdgeKey) *dot.Chunk {
	if e := g.FindEdge(key); e != nil {
		return e
	}
	if g.Directed {
		return nil
	}
	return g.FindEdge(dot.EdgeKey{From: key.To, FromPort: key.ToPort, To: key.From, ToPort: key.FromPort})
}

func setSubgraph(g *dot.Graph, c dsl.SubgraphSet) error {
	if c.ID == "" {
		return fmt.Errorf("%w: subgraph", dot.ErrEmptyID)
	}
	if c.Parent != "" {
		if err := checkParent(g, c.Parent); err != nil {
			return err
		}
	}

	sg := g.FindSubgraph(c.ID)
	if sg == nil {
		sg = dot.NewSubgraph(c.ID, c.Attrs.Clone())
		sg.Parent = c.Parent
		return g.Upsert(sg)
	}
	if sg.Anonymous {
		return fmt.Errorf("%w: %q", dot.ErrReservedID, c.ID)
	}

	if c.Parent != "" && sg.Parent != c.Parent {
		if err := g.Move(sg.Key(), c.Parent); err != nil {
			return err
		}
	}
	sg.Attrs.Merge(c.Attrs)
	return nil
}

// deleteNode removes a node, every edge touching it on any port, and every
// reference to it. Deleting an absent node is a no-op.
func deleteNode(g *dot.Graph, id string) {
	if g.FindNode(id) == nil {
		return
	}
	for _, e := range g.EdgesTouching(id) {
		g.Remove(e.Key())
	}
	g.DropRef(id)
	g.Remove(dot.NodeKey(id))
}

// deleteSubgraph removes a subgraph and all descendants. Nodes removed this
// way cascade like deleteNode.
func deleteSubgraph(g *dot.Graph, id string) {
	if g.FindSubgraph(id) == nil {
		return
	}
	for _, c := range g.Descendants(id) {
		if c.Kind == dot.KindNode {
			deleteNode(g, c.ID)
			continue
		}
		g.Remove(c.Key())
	}
	g.Remove(dot.SubgraphKey(id))
}

// dropRefIn removes id from the refs of one subgraph.
func dropRefIn(g *dot.Graph, scope, id string) {
	sg := g.FindSubgraph(scope)
	if sg == nil {
		return
	}
	kept := sg.Refs[:0]
	for _, r := range sg.Refs {
		if r != id {
			kept = append(kept, r)
		}
	}
	sg.Refs = kept
}

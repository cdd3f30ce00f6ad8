// ABOUTME: Editing session holding an immutable graph version with bounded undo/redo history
// ABOUTME: Applies DSL batches through the interpreter and re-lints after every change

package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/2389-research/graphdelta/dot"
	"github.com/2389-research/graphdelta/dot/validator"
	"github.com/2389-research/graphdelta/interp"
)

// DefaultUndoDepth bounds the undo and redo stacks when no depth is configured.
const DefaultUndoDepth = 50

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Version is one immutable state in a session's history. Graph values held
// by a Version are never mutated after the Version is created.
type Version struct {
	ID          ulid.ULID
	Graph       *dot.Graph
	Command     string // DSL text or "replace" that produced this version
	Fingerprint uint64
	CreatedAt   time.Time
}

func newVersion(g *dot.Graph, command string) Version {
	return Version{
		ID:          ulid.Make(),
		Graph:       g,
		Command:     command,
		Fingerprint: dot.Fingerprint(g),
		CreatedAt:   time.Now(),
	}
}

// Session is one editor's view of a graph.
type Session struct {
	mu          sync.RWMutex
	ID          string
	current     Version
	diagnostics []dot.Diagnostic
	undo        []Version
	redo        []Version
	depth       int
	interp      *interp.Interpreter
	logger      *log.Logger
	CreatedAt   time.Time
	LastAccess  time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithUndoDepth bounds the undo and redo stacks. Values below one are ignored.
func WithUndoDepth(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.depth = n
		}
	}
}

// WithInterpreter sets the interpreter used by Apply.
func WithInterpreter(in *interp.Interpreter) Option {
	return func(s *Session) {
		if in != nil {
			s.interp = in
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New starts a session from DOT source.
func New(id, rawDOT string, opts ...Option) (*Session, error) {
	g, err := dot.Parse(rawDOT)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return newSession(id, g, opts...), nil
}

func newSession(id string, g *dot.Graph, opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		depth:      DefaultUndoDepth,
		interp:     interp.New(),
		logger:     log.New(io.Discard),
		CreatedAt:  now,
		LastAccess: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", id)
	s.setCurrent(newVersion(g, "replace"))
	return s
}

// Current returns the current version.
func (s *Session) Current() Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Graph returns a copy of the current graph that the caller may modify.
func (s *Session) Graph() *dot.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Graph.Clone()
}

// DOT serializes the current graph.
func (s *Session) DOT() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dot.Serialize(s.current.Graph)
}

// Diagnostics returns the lint results for the current graph.
func (s *Session) Diagnostics() []dot.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dot.Diagnostic(nil), s.diagnostics...)
}

// History returns the number of undo and redo entries.
func (s *Session) History() (undo, redo int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo), len(s.redo)
}

// Apply interprets DSL text against the current graph. Whatever the batch
// committed becomes the new version, even when the batch returned an error.
// A result identical to the current graph leaves the history unchanged.
func (s *Session) Apply(text string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.interp.ApplyText(s.current.Graph, text)
	var pe *dot.ParseError
	if errors.As(err, &pe) {
		return s.current, err
	}

	v := newVersion(next, text)
	if v.Fingerprint == s.current.Fingerprint {
		s.logger.Debug("batch made no change")
		return s.current, err
	}
	s.push(v)
	s.logger.Debug("applied batch", "version", v.ID, "err", err)
	return v, err
}

// Replace swaps in a graph parsed from raw DOT source.
func (s *Session) Replace(rawDOT string) (Version, error) {
	g, err := dot.Parse(rawDOT)
	if err != nil {
		return Version{}, fmt.Errorf("parse error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := newVersion(g, "replace")
	s.push(v)
	return v, nil
}

// Undo restores the previous version.
func (s *Session) Undo() (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return s.current, ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = bounded(append(s.redo, s.current), s.depth)
	s.setCurrent(prev)
	return prev, nil
}

// Redo restores a previously undone version.
func (s *Session) Redo() (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return s.current, ErrNothingToRedo
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = bounded(append(s.undo, s.current), s.depth)
	s.setCurrent(next)
	return next, nil
}

// push saves the current version to the undo stack and clears redo.
func (s *Session) push(v Version) {
	s.undo = bounded(append(s.undo, s.current), s.depth)
	s.redo = nil
	s.setCurrent(v)
}

func (s *Session) setCurrent(v Version) {
	s.current = v
	s.diagnostics = validator.Lint(v.Graph)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.LastAccess = now
	s.mu.Unlock()
}

func (s *Session) lastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastAccess
}

func bounded(stack []Version, depth int) []Version {
	if len(stack) > depth {
		return stack[len(stack)-depth:]
	}
	return stack
}

// ABOUTME: Error types for the dot package: positioned ParseError and model mutation sentinels.
// ABOUTME: Sentinels are matched with errors.Is by the interpreter and its callers.
package dot

import (
	"errors"
	"fmt"
)

var (
	ErrParentNotFound = errors.New("parent subgraph not found")
	ErrParentCycle    = errors.New("subgraph cannot be nested inside itself")
	ErrReservedID     = errors.New("subgraph id uses the reserved anonymous prefix")
	ErrEmptyID        = errors.New("identifier cannot be empty")
	ErrNodeExists     = errors.New("node already exists")
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeExists     = errors.New("edge already exists")
)

// ParseError reports malformed DOT or DSL input at a 1-based line and column.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// errorAt builds a ParseError positioned at tok.
func errorAt(tok Token, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Col,
	}
}

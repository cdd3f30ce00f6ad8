// ABOUTME: Error types returned by the interpreter for failed commands and partially failed batches.
// ABOUTME: Both support errors.Is/As so callers can match the underlying dot sentinels.
package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2389-research/graphdelta/dsl"
)

var (
	ErrInvalidRank = errors.New("rank must be same, min, or max")
	ErrEmptyRank   = errors.New("rank needs at least one node")
	ErrUnknown     = errors.New("unknown command type")
)

// InterpretError reports a command that could not be applied.
type InterpretError struct {
	Index   int // position of the command in its batch
	Command dsl.Command
	Err     error
}

func (e *InterpretError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("command %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("command %d (%s): %v", e.Index, e.Command, e.Err)
}

func (e *InterpretError) Unwrap() error {
	return e.Err
}

// BatchError lists every command skipped under ContinueOnError.
type BatchError struct {
	Failures []*InterpretError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d command(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

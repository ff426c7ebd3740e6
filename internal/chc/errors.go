package chc

import (
	"fmt"

	"kanso/internal/ast"
	"kanso/internal/errors"
)

// InternalError marks a violated encoder invariant — a fixed frame arity
// disagreeing with itself, a predicate declared with the wrong kind, or
// any other programming-error class bug rather than a malformed contract.
// It is panicked, never returned, since the caller has no sensible
// recovery beyond fixing the encoder.
type InternalError struct {
	Where string
	Cause string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("chc: internal error in %s: %s", e.Where, e.Cause)
}

func invariant(cond bool, where, cause string) {
	if !cond {
		panic(&InternalError{Where: where, Cause: cause})
	}
}

// CompilerReporter adapts the CLI/LSP's Rust-style diagnostic formatter to
// the narrow Reporter interface the CHC core consumes, so a rejected rule
// or an undecidable query renders with the same caret diagnostics as a
// parse or semantic error.
type CompilerReporter struct {
	reporter *errors.ErrorReporter
}

func NewCompilerReporter(filename, source string) *CompilerReporter {
	return &CompilerReporter{reporter: errors.NewErrorReporter(filename, source)}
}

func (c *CompilerReporter) Warning(pos ast.Position, message string) {
	fmt.Print(c.reporter.FormatError(errors.CompilerError{
		Level:    errors.Warning,
		Code:     "E0900",
		Message:  message,
		Position: pos,
	}))
}

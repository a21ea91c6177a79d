// Package engineerr implements the error taxonomy of spec.md section 7.
// Every operation that can fail returns a discriminated error value;
// only InvalidWeights (and, when a SelfCheck's credit is exhausted,
// SelfCheckMismatch) are meant to terminate the process -- everything
// else is handled inline by the caller.
package engineerr

import "github.com/pkg/errors"

// Kind discriminates the error taxonomy spec.md section 7 names.
type Kind int

const (
	// InvalidWeights: weight-file version mismatch or inconsistent
	// layer count, surfaced at init time. Fatal.
	InvalidWeights Kind = iota
	// EvaluatorFailure: the network backend returned an error or a
	// degenerate output. The current simulation is abandoned, virtual
	// loss is still undone, the engine continues.
	EvaluatorFailure
	// SelfCheckMismatch: two backends run side-by-side diverged beyond
	// tolerance. Fatal only once accumulated credit is exhausted.
	SelfCheckMismatch
	// TreeCapReached is not an error and is never returned; the engine
	// stops its workers silently once MaxNodes is reached.
	TreeCapReached
	// NoLegalMoves: a terminal position reached mid-search, handled as
	// a scored leaf rather than an error condition.
	NoLegalMoves
)

func (k Kind) String() string {
	switch k {
	case InvalidWeights:
		return "InvalidWeights"
	case EvaluatorFailure:
		return "EvaluatorFailure"
	case SelfCheckMismatch:
		return "SelfCheckMismatch"
	case TreeCapReached:
		return "TreeCapReached"
	case NoLegalMoves:
		return "NoLegalMoves"
	}
	return "Unknown"
}

// Error wraps a Kind with context, using github.com/pkg/errors so
// callers can still unwrap/trace the underlying cause.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given Kind, wrapping cause (which may be nil).
func New(kind Kind, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, cause: cause}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}

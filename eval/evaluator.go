// Package eval defines the neural-network evaluation contract
// (spec.md section 6): a capability bound with a single method, so the
// search engine never depends on a concrete CPU/GPU backend -- per
// Design Notes section 9 ("model it as a capability bound, not
// inheritance").
package eval

import (
	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth/position"
)

// Request is the batched position handed to the network: the most
// recent T_HISTORY positions (fewer if the game is shorter), the side
// to move, and the legal moves of the current position (castling
// rights, rule50 and move count are all already present on the last
// element of History via position.Position).
type Request struct {
	History    []*position.Position
	Turn       chess.Color
	LegalMoves []*chess.Move
}

// MovePrior pairs a legal move (long-algebraic) with its network prior.
type MovePrior struct {
	Move  string
	Prior float32
}

// Response is the network's output for a Request: a scalar value in
// [0,1] from the side-to-move's view, and a prior over the request's
// legal moves (not required to be normalized -- callers renormalize).
type Response struct {
	Value  float32
	Priors []MovePrior
}

// Evaluator is the single capability the search engine needs from a
// neural network backend. CPU and GPU implementations (or a mock, for
// testing) all satisfy this one method.
type Evaluator interface {
	Evaluate(req Request) (Response, error)
}

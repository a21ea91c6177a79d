// Package training implements the Training Recorder and Output Chunker
// of spec.md sections 2 and 4.4: capturing one TimeStep per root search
// and flushing completed games to rotating chunk files.
package training

import (
	"time"

	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

// TimeStep is one training sample, matching spec.md section 3 exactly:
// input planes, a policy target over the fixed output space, the
// to-move color, and diagnostic eval fields, plus the result attached
// once the owning game ends.
type TimeStep struct {
	Planes []float32
	Policy []float32
	ToMove chess.Color

	NetWinrate       float32
	RootUCTWinrate   float32
	BestChildWinrate float32
	BestChildVisits  uint32

	Rule50    int
	MoveCount int

	Result float32 // filled in by Recorder.Finish

	// CreatedAt is diagnostic only (log/metrics correlation); never
	// read back by search or serialization logic, so it doesn't
	// threaten the rng_seed-determinism property of spec.md section 8.
	CreatedAt time.Time
}

// Recorder accumulates TimeSteps for a single game in progress. A new
// Recorder is constructed per self-play game, matching the teacher's
// arena.go pattern of threading one Example slice per game rather than
// a package-level singleton (Design Notes section 9).
type Recorder struct {
	version   int
	moveTable *moveindex.Table
	steps     []TimeStep
}

// NewRecorder builds a Recorder for one game, against the given
// move-index table and plane-layout version.
func NewRecorder(moveTable *moveindex.Table, version int) *Recorder {
	return &Recorder{moveTable: moveTable, version: version}
}

// Record implements spec.md section 4.4's capture step: gather input
// planes, the root's net winrate and best-child comparison, and the
// visit-derived policy target. Returns false (recording nothing) when
// the manually-counted total visits across root children is zero, per
// spec.md's "avoid trusting root's visit counter because of TT
// transpositions" note.
func (r *Recorder) Record(history *position.BoardHistory, root *mcts.Node, netWinrate float32) bool {
	children := root.Children()
	var total uint32
	for _, c := range children {
		total += c.Visits()
	}
	if total == 0 {
		return false
	}

	turn := history.Current().Turn()
	policy := make([]float32, r.moveTable.Size())
	var best *mcts.Node
	for _, c := range children {
		idx, err := r.moveTable.Lookup(c.Move(), turn)
		if err != nil {
			continue
		}
		policy[idx] = float32(c.Visits()) / float32(total)
		if best == nil || c.Visits() > best.Visits() {
			best = c
		}
	}

	step := TimeStep{
		Planes:     dual.EncodePlanes(history.Window(), r.version),
		Policy:     policy,
		ToMove:     turn,
		NetWinrate: netWinrate,
		Rule50:     history.Current().Rule50(),
		MoveCount:  history.Current().Ply(),
		CreatedAt:  time.Now(),
	}
	if best != nil {
		step.BestChildWinrate = best.Eval(turn)
		step.BestChildVisits = best.Visits()
	}
	r.steps = append(r.steps, step)
	return true
}

// Steps returns the accumulated (not-yet-finished) TimeStep sequence.
func (r *Recorder) Steps() []TimeStep { return r.steps }

// Finish attaches the final game result to every accumulated TimeStep,
// converted to each step's to-move view per spec.md section 4.4
// ("result if white-to-move else -result"), and returns the completed
// sequence, clearing the Recorder for reuse.
func (r *Recorder) Finish(whiteResult float32) []TimeStep {
	out := r.steps
	for i := range out {
		if out[i].ToMove == chess.Black {
			out[i].Result = -whiteResult
		} else {
			out[i].Result = whiteResult
		}
	}
	r.steps = nil
	return out
}

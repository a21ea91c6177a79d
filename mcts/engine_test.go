package mcts_test

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestEngine(t *testing.T, playouts int) *mcts.Engine {
	t.Helper()
	table := moveindex.NewTable(moveindex.V2)
	cfg := mcts.DefaultConfig()
	cfg.MaxPlayouts = playouts
	cfg.TimeManage = false
	cfg.NumThreads = 2
	cfg.NoiseEnabled = false
	return mcts.NewEngine(cfg, table, eval.NewUniform())
}

// Invariant 1: virtual_loss == 0 for every node once Think returns.
func TestThinkLeavesNoVirtualLoss(t *testing.T) {
	engine := newTestEngine(t, 200)
	history, err := position.NewBoardHistory(startFEN, 7)
	require.NoError(t, err)

	_, ok, err := engine.Think(history)
	require.NoError(t, err)
	require.True(t, ok)

	root := engine.Root()
	assertNoVirtualLoss(t, root)
}

func assertNoVirtualLoss(t *testing.T, n *mcts.Node) {
	t.Helper()
	// With no virtual loss pending, the white and black views of a
	// node's eval are complements; any pending virtual loss breaks that.
	assert.InDelta(t, 1.0, float64(n.Eval(chess.White)+n.Eval(chess.Black)), 1e-4)
	for _, c := range n.Children() {
		assertNoVirtualLoss(t, c)
	}
}

// Invariant 2: for every visited node, 0 <= white_eval_sum/visits <= 1.
func TestVisitedNodeEvalsAreBounded(t *testing.T) {
	engine := newTestEngine(t, 200)
	history, err := position.NewBoardHistory(startFEN, 7)
	require.NoError(t, err)

	_, _, err = engine.Think(history)
	require.NoError(t, err)

	root := engine.Root()
	for _, c := range root.Children() {
		if c.Visits() == 0 {
			continue
		}
		mean := c.WhiteEvalSum() / float64(c.Visits())
		assert.GreaterOrEqual(t, mean, 0.0)
		assert.LessOrEqual(t, mean, 1.0)
	}
}

// Invariant 4: after expansion, child priors sum to ~1.
func TestExpansionPriorsSumToOne(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	history, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)

	engine := mcts.NewEngine(mcts.DefaultConfig(), table, eval.NewUniform())
	_, ok, err := engine.Think(history)
	require.NoError(t, err)
	require.True(t, ok)

	var sum float32
	for _, c := range engine.Root().Children() {
		sum += c.Prior()
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestThinkReturnsLegalMove(t *testing.T) {
	engine := newTestEngine(t, 100)
	history, err := position.NewBoardHistory(startFEN, 3)
	require.NoError(t, err)

	move, ok, err := engine.Think(history)
	require.NoError(t, err)
	require.True(t, ok)

	legal := false
	for _, m := range history.ValidMoves() {
		if m.String() == move {
			legal = true
			break
		}
	}
	assert.True(t, legal, "engine returned illegal move %q", move)
}

func TestThinkOnTerminalPositionReturnsNoMove(t *testing.T) {
	engine := newTestEngine(t, 50)
	history, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m := findMove(t, history, mv)
		_, err := history.Push(m)
		require.NoError(t, err)
	}

	_, ok, err := engine.Think(history)
	assert.Error(t, err)
	assert.False(t, ok)
}

func findMove(t *testing.T, h *position.BoardHistory, s string) *chess.Move {
	t.Helper()
	for _, m := range h.ValidMoves() {
		if m.String() == s {
			return m
		}
	}
	t.Fatalf("move %q not legal", s)
	return nil
}

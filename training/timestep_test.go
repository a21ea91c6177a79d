package training_test

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
	"github.com/nnzero/alphabeth/training"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestRecordProducesPolicySummingToVisitFraction(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	r := training.NewRecorder(table, int(moveindex.V2))

	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)

	cfg := mcts.DefaultConfig()
	cfg.MaxPlayouts = 50
	engine := mcts.NewEngine(cfg, table, eval.NewUniform())
	_, ok, err := engine.Think(h)
	require.NoError(t, err)
	require.True(t, ok)

	recorded := r.Record(h, engine.Root(), 0.5)
	require.True(t, recorded)

	steps := r.Steps()
	require.Len(t, steps, 1)
	var sum float32
	for _, p := range steps[0].Policy {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestFinishFlipsResultForBlack(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	r := training.NewRecorder(table, int(moveindex.V2))

	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)

	cfg := mcts.DefaultConfig()
	cfg.MaxPlayouts = 50
	engine := mcts.NewEngine(cfg, table, eval.NewUniform())
	_, ok, err := engine.Think(h)
	require.NoError(t, err)
	require.True(t, ok)

	recorded := r.Record(h, engine.Root(), 0.5)
	require.True(t, recorded)

	steps := r.Finish(1)
	require.Len(t, steps, 1)
	if steps[0].ToMove == chess.Black {
		assert.Equal(t, float32(-1), steps[0].Result)
	} else {
		assert.Equal(t, float32(1), steps[0].Result)
	}
}

package mcts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

type biasedEvaluator struct {
	bias float32
}

func (b biasedEvaluator) Evaluate(req eval.Request) (eval.Response, error) {
	resp, err := eval.NewUniform().Evaluate(req)
	if err != nil {
		return resp, err
	}
	resp.Value += b.bias
	return resp, nil
}

func TestSelfCheckFatalOnceCreditExhausted(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	cfg := mcts.DefaultConfig()
	cfg.MaxPlayouts = 1000
	cfg.NumThreads = 1

	scCfg := mcts.DefaultSelfCheckConfig()
	scCfg.Tolerance = 0.01
	scCfg.Credit = 1
	scCfg.RefillRate = 0

	engine := mcts.NewSelfCheck(cfg, table, biasedEvaluator{}, biasedEvaluator{bias: 1}, scCfg)
	history, err := position.NewBoardHistory("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 1)
	require.NoError(t, err)

	_, _, err = engine.Think(history)
	assert.Error(t, err, "sustained mismatch with no refill should exhaust credit and surface an error")
}

func TestSelfCheckToleratesSmallDivergence(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	cfg := mcts.DefaultConfig()
	cfg.MaxPlayouts = 50
	cfg.NumThreads = 1

	scCfg := mcts.DefaultSelfCheckConfig()
	scCfg.Tolerance = 0.5

	engine := mcts.NewSelfCheck(cfg, table, biasedEvaluator{}, biasedEvaluator{bias: 0.01}, scCfg)
	history, err := position.NewBoardHistory("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 1)
	require.NoError(t, err)

	move, ok, err := engine.Think(history)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, move)
}

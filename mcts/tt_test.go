package mcts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nnzero/alphabeth/mcts"
)

func TestTranspositionTableProbeMiss(t *testing.T) {
	tt := mcts.NewTranspositionTable(16)
	_, _, ok := tt.Probe(12345)
	assert.False(t, ok)
}

func TestTranspositionTableUpdateAndProbe(t *testing.T) {
	tt := mcts.NewTranspositionTable(16)
	tt.Update(7, 10, 5.0)

	visits, meanEval, ok := tt.Probe(7)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), visits)
	assert.InDelta(t, 0.5, meanEval, 1e-9)
}

func TestTranspositionTableClear(t *testing.T) {
	tt := mcts.NewTranspositionTable(16)
	tt.Update(7, 10, 5.0)
	tt.Clear()

	_, _, ok := tt.Probe(7)
	assert.False(t, ok)
}

func TestTranspositionTableClearEntryOnlyClearsMatchingHash(t *testing.T) {
	tt := mcts.NewTranspositionTable(1) // force a collision: every hash shares slot 0
	tt.Update(7, 10, 5.0)
	tt.ClearEntry(8) // different hash, same slot -- must not clear slot 0's real entry

	visits, _, ok := tt.Probe(7)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), visits)

	tt.ClearEntry(7)
	_, _, ok = tt.Probe(7)
	assert.False(t, ok)
}

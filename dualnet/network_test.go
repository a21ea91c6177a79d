package dual_test

import (
	"os"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dual "github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

func TestNewNetworkEvaluatesStartingPosition(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	conf := dual.DefaultConf(8, 8, table.Size())
	net := dual.New(conf, table, int(moveindex.V2))

	h, err := position.NewBoardHistory("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 1)
	require.NoError(t, err)

	resp, err := net.Evaluate(eval.Request{
		History:    h.Window(),
		Turn:       chess.White,
		LegalMoves: h.ValidMoves(),
	})
	require.NoError(t, err)
	assert.Len(t, resp.Priors, len(h.ValidMoves()))

	var sum float32
	for _, p := range resp.Priors {
		sum += p.Prior
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestLoadWeightsRejectsMalformedVersion(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	conf := dual.DefaultConf(8, 8, table.Size())

	dir := t.TempDir()
	path := dir + "/bad.txt"
	require.NoError(t, os.WriteFile(path, []byte("99\n1.0 2.0\n"), 0644))

	_, err := dual.LoadWeights(path, conf, table)
	assert.ErrorIs(t, err, dual.ErrInvalidWeights)
}

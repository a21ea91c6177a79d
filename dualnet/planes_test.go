package dual_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dual "github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/position"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestPlaneCountMatchesVersionLayout(t *testing.T) {
	assert.Equal(t, (14*8+8)*64, dual.PlaneCount(1, position.THistory)*64)
	assert.Equal(t, (13*8+8)*64, dual.PlaneCount(2, position.THistory)*64)
}

func TestEncodePlanesProducesExpectedLength(t *testing.T) {
	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)

	planes := dual.EncodePlanes(h.Window(), 2)
	assert.Len(t, planes, dual.PlaneCount(2, position.THistory)*64)
}

func TestEncodePlanesStartingPositionHasExpectedPieceCounts(t *testing.T) {
	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)

	planes := dual.EncodePlanes(h.Window(), 2)
	// The most-recent history block's first plane is own pawns; the
	// starting position has exactly 8 pawns for the side to move.
	var pawnCount int
	for sq := 0; sq < 64; sq++ {
		if planes[sq] != 0 {
			pawnCount++
		}
	}
	assert.Equal(t, 8, pawnCount)
}

package moveindex_test

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/moveindex"
)

func TestTableSizes(t *testing.T) {
	v1 := moveindex.NewTable(moveindex.V1)
	v2 := moveindex.NewTable(moveindex.V2)

	assert.Equal(t, 1924, v1.Size())
	assert.Equal(t, 1858, v2.Size())
}

func TestLookupDecodeRoundTripWhite(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	game := chess.NewGame()

	for _, m := range game.ValidMoves() {
		mv := m.String()
		idx, err := table.Lookup(mv, chess.White)
		require.NoError(t, err, "lookup %q", mv)

		decoded, err := table.Decode(idx, chess.White)
		require.NoError(t, err)
		assert.Equal(t, mv, decoded, "round trip for %q", mv)
	}
}

func TestLookupInjectiveWithinColor(t *testing.T) {
	table := moveindex.NewTable(moveindex.V2)
	game := chess.NewGame()

	seen := make(map[int]string)
	for _, m := range game.ValidMoves() {
		mv := m.String()
		idx, err := table.Lookup(mv, chess.White)
		require.NoError(t, err)
		if prior, ok := seen[idx]; ok {
			t.Fatalf("index %d used by both %q and %q", idx, prior, mv)
		}
		seen[idx] = mv
	}
}

func TestFlipIsInvolution(t *testing.T) {
	flipped, err := moveindex.Flip("e2e4")
	require.NoError(t, err)
	assert.Equal(t, "e7e5", flipped)

	back, err := moveindex.Flip(flipped)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", back)
}

func TestUnderPromotionRoundTrip(t *testing.T) {
	table := moveindex.NewTable(moveindex.V1)

	idx, err := table.Lookup("a7a8r", chess.White)
	require.NoError(t, err)
	decoded, err := table.Decode(idx, chess.White)
	require.NoError(t, err)
	assert.Equal(t, "a7a8r", decoded)

	idx2, err := table.Lookup("a7a8b", chess.White)
	require.NoError(t, err)
	assert.NotEqual(t, idx, idx2)
}

package position_test

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/position"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNewBoardHistoryDeterministicKeys(t *testing.T) {
	h1, err := position.NewBoardHistory(startFEN, 42)
	require.NoError(t, err)
	h2, err := position.NewBoardHistory(startFEN, 42)
	require.NoError(t, err)

	assert.Equal(t, h1.Current().Key(), h2.Current().Key())
	assert.Equal(t, h1.Current().FullKey(), h2.Current().FullKey())
}

func TestPushAppendsAndTracksRule50(t *testing.T) {
	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)

	e2e4 := findMove(t, h, "e2e4")
	_, err = h.Push(e2e4)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Current().Rule50(), "pawn move resets rule50")
	assert.Equal(t, 1, h.Current().Ply())

	g8f6 := findMove(t, h, "g8f6")
	_, err = h.Push(g8f6)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Current().Rule50(), "non-pawn/capture move increments rule50")
}

func TestShallowCloneRetainsCurrentAndIsIndependent(t *testing.T) {
	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)
	_, err = h.Push(findMove(t, h, "e2e4"))
	require.NoError(t, err)

	clone := h.ShallowClone()
	assert.Equal(t, h.Current().FullKey(), clone.Current().FullKey())

	_, err = clone.Push(findMove(t, clone, "e7e5"))
	require.NoError(t, err)

	assert.NotEqual(t, h.Current().FullKey(), clone.Current().FullKey())
	assert.Equal(t, 1, h.Current().Ply(), "original history unaffected by clone's move")
}

func TestShallowCloneRetentionWindow(t *testing.T) {
	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)
	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5a4", "g8f6", "e1g1", "f8e7"}
	for _, mv := range moves {
		_, err := h.Push(findMove(t, h, mv))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, len(h.Window()), position.THistory)
}

func TestIsTerminalOnCheckmate(t *testing.T) {
	// Fool's mate.
	h, err := position.NewBoardHistory(startFEN, 1)
	require.NoError(t, err)
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		_, err := h.Push(findMove(t, h, mv))
		require.NoError(t, err)
	}
	assert.True(t, h.IsTerminal())
	assert.Equal(t, float32(-1), h.TerminalScore())
}

func findMove(t *testing.T, h *position.BoardHistory, s string) *chess.Move {
	t.Helper()
	for _, m := range h.ValidMoves() {
		if m.String() == s {
			return m
		}
	}
	t.Fatalf("move %q not legal in current position", s)
	return nil
}

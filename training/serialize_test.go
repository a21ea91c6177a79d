package training_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/training"
)

func TestWriteTextProducesExpectedLineCount(t *testing.T) {
	step := training.TimeStep{
		Planes:    make([]float32, 2*64),
		Policy:    []float32{0.25, 0.75},
		ToMove:    chess.White,
		Rule50:    3,
		MoveCount: 10,
		Result:    1,
	}

	var buf bytes.Buffer
	require.NoError(t, training.WriteText(&buf, step))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// 2 bitplane lines + 5 boolean feature lines + rule50 + move_count + 1 policy line + 1 result line
	assert.Len(t, lines, 2+5+2+1+1)
	assert.Equal(t, "0", lines[6]) // side-to-move bit (5th boolean line) for white
}

func TestWriteTextSideToMoveBitForBlack(t *testing.T) {
	step := training.TimeStep{
		Planes: make([]float32, 64),
		Policy: []float32{1},
		ToMove: chess.Black,
		Result: -1,
	}
	var buf bytes.Buffer
	require.NoError(t, training.WriteText(&buf, step))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "1", lines[5])
}

func TestWriteBinaryRoundTripsVersionHeader(t *testing.T) {
	step := training.TimeStep{
		Planes: make([]float32, 64),
		Policy: []float32{1},
		ToMove: chess.White,
		Result: 0,
	}
	var buf bytes.Buffer
	require.NoError(t, training.WriteBinary(&buf, step))
	assert.Equal(t, byte(2), buf.Bytes()[0], "version low byte")
}

package training_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnzero/alphabeth/training"
)

func TestChunkerRotatesAfterSamplesPerChunk(t *testing.T) {
	dir := t.TempDir()
	c, err := training.NewChunker(training.ChunkerConfig{
		Dir:             dir,
		SamplesPerChunk: 2,
		Gzip:            false,
	})
	require.NoError(t, err)

	step := training.TimeStep{Planes: make([]float32, 64), Policy: []float32{1}, ToMove: chess.White}
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Append(step))
	}
	require.NoError(t, c.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 3, "5 samples at 2/chunk should produce at least 3 files")
}

func TestNewChunkerCountsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunk_000000.txt"), []byte("x"), 0644))

	c, err := training.NewChunker(training.ChunkerConfig{Dir: dir, SamplesPerChunk: 10})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "existing chunk_000000.txt plus the freshly rotated chunk_000001.txt")
}

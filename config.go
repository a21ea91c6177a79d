// Package alphabeth is the top-level orchestrator: it wires the
// position/mcts/eval/dualnet/moveindex/training packages into the
// self-play loop and UCI-style move search the cmd/ binaries expose.
//
// Grounded on _examples/Elvenson-alphabeth/{agogo,arena,datatypes}.go's
// "AZ/Arena/Agent" shape, generalized from that teacher's game.State
// abstraction (built for an arbitrary board game) to the
// chess-specific position.BoardHistory/mcts.Engine pairing this module
// is built around.
package alphabeth

import (
	"github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/training"
)

// Config collects every sub-package's configuration into the single
// object a cmd/ binary constructs, matching the teacher's datatypes.go
// Config shape (one struct referencing each component's own Config).
type Config struct {
	Name string

	NNConf   dual.Config
	MCTSConf mcts.Config

	MoveIndexVersion moveindex.Version
	Chunker          training.ChunkerConfig

	StartFEN string
}

// DefaultConfig mirrors cmd/train/main.go's hand-tuned defaults,
// adapted to the chess-specific move-index action space instead of the
// teacher's board-size-derived one.
func DefaultConfig(moveTableSize int) Config {
	return Config{
		Name:             "alphabeth",
		NNConf:           dual.DefaultConf(8, 8, moveTableSize),
		MCTSConf:         mcts.DefaultConfig(),
		MoveIndexVersion: moveindex.V2,
		StartFEN:         "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Chunker: training.ChunkerConfig{
			Dir:             "chunks",
			SamplesPerChunk: 2048,
			Gzip:            true,
		},
	}
}

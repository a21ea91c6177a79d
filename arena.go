package alphabeth

import (
	"log"

	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth/engineerr"
	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
	"github.com/nnzero/alphabeth/training"
)

// Arena plays one self-play game end to end: search, record, apply,
// repeat, then attach the final result to every recorded TimeStep.
// Grounded on arena.go's Play method, stripped of the teacher's
// best-agent-vs-current-agent tournament logic (spec.md's Non-goals
// exclude the training loop itself; only the self-play/search/record
// cycle is in scope).
type Arena struct {
	engine    *mcts.Engine
	moveTable *moveindex.Table
	version   int
	logger    *log.Logger
}

// NewArena builds an Arena around a single search engine.
func NewArena(evaluator eval.Evaluator, moveTable *moveindex.Table, version int, mctsConf mcts.Config, logger *log.Logger) *Arena {
	if logger == nil {
		logger = log.Default()
	}
	return &Arena{
		engine:    mcts.NewEngine(mctsConf, moveTable, evaluator),
		moveTable: moveTable,
		version:   version,
		logger:    logger,
	}
}

// Play runs one game from startFEN to completion (checkmate, draw, or
// resignation) and returns the completed, result-attached TimeStep
// sequence for that game.
func (a *Arena) Play(startFEN string, rngSeed uint64) ([]training.TimeStep, error) {
	history, err := position.NewBoardHistory(startFEN, rngSeed)
	if err != nil {
		return nil, err
	}
	recorder := training.NewRecorder(a.moveTable, a.version)

	for !history.IsTerminal() {
		move, ok, err := a.engine.Think(history)
		if err != nil {
			if engineerr.Is(err, engineerr.NoLegalMoves) {
				break
			}
			return nil, err
		}
		if !ok {
			break
		}
		if move == "resign" {
			a.logger.Printf("%v resigns at ply %d", history.Current().Turn(), history.Current().Ply())
			break
		}

		root := a.engine.Root()
		netWinrate := root.Eval(history.Current().Turn())
		recorder.Record(history, root, netWinrate)

		mv := findMove(history, move)
		if mv == nil {
			a.logger.Printf("engine returned illegal move %q, stopping game", move)
			break
		}
		if _, err := history.Push(mv); err != nil {
			return nil, err
		}
	}

	result := history.TerminalScore()
	return recorder.Finish(result), nil
}

func findMove(history *position.BoardHistory, move string) *chess.Move {
	for _, m := range history.ValidMoves() {
		if m.String() == move {
			return m
		}
	}
	return nil
}

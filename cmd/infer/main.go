// This command plays one interactive game: the engine searches and
// moves, then waits for a long-algebraic move typed on stdin, until
// the game ends or the engine resigns.
//
// Adapted from the teacher's version (which drove an agogo.Agent
// against game.ChessGame over the same stdin loop) onto the
// position.BoardHistory/mcts.Engine pairing this module is built
// around.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

var (
	weightsPath = flag.String("weights", "", "path to a .txt or .txt.gz weight file; empty uses an untrained network")
	startFEN    = flag.String("fen", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", "starting position")
	seed        = flag.Uint64("seed", 1, "rng seed")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	moveTable := moveindex.NewTable(moveindex.V2)
	conf := dual.DefaultConf(8, 8, moveTable.Size())

	var net *dual.Dual
	var err error
	if *weightsPath != "" {
		net, err = dual.LoadWeights(*weightsPath, conf, moveTable)
	} else {
		net = dual.New(conf, moveTable, int(moveindex.V2))
	}
	if err != nil {
		log.Fatalf("loading weights: %v", err)
	}

	engine := mcts.NewEngine(mcts.DefaultConfig(), moveTable, net)
	history, err := position.NewBoardHistory(*startFEN, *seed)
	if err != nil {
		log.Fatalf("invalid starting fen: %v", err)
	}

	stdin := bufio.NewScanner(os.Stdin)
	for !history.IsTerminal() {
		move, ok, err := engine.Think(history)
		if err != nil {
			log.Fatalf("search error: %v", err)
		}
		if !ok || move == "resign" {
			fmt.Println("engine resigns")
			break
		}
		mv := applyMove(history, move)
		fmt.Printf("engine plays %s\n", move)
		fmt.Println(mv.String())

		if history.IsTerminal() {
			break
		}
		fmt.Printf("your move (legal: %v): ", moveStrings(history.ValidMoves()))
		if !stdin.Scan() {
			break
		}
		human := findMoveByString(history, stdin.Text())
		if human == nil {
			fmt.Println("illegal move, try again")
			continue
		}
		if _, err := history.Push(human); err != nil {
			log.Fatalf("applying your move: %v", err)
		}
	}
	fmt.Printf("result: %v\n", history.Outcome())
}

func applyMove(history *position.BoardHistory, move string) *chess.Move {
	for _, m := range history.ValidMoves() {
		if m.String() == move {
			if _, err := history.Push(m); err != nil {
				log.Fatalf("applying engine move: %v", err)
			}
			return m
		}
	}
	log.Fatalf("engine returned illegal move %q", move)
	return nil
}

func findMoveByString(history *position.BoardHistory, s string) *chess.Move {
	for _, m := range history.ValidMoves() {
		if m.String() == s {
			return m
		}
	}
	return nil
}

func moveStrings(moves []*chess.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

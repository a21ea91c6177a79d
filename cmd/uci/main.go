// This command implements the minimal UCI command front-end spec.md
// section 1 names as an external collaborator (out of scope to specify
// in detail, but the engine needs a front door): uci/isready/position/
// go/quit over stdin/stdout, driving a single mcts.Engine.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth"
	"github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/mcts"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

var weightsPath = flag.String("weights", "", "path to a .txt or .txt.gz weight file; empty uses an untrained network")

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	flag.Parse()
	log.SetFlags(0)

	cfg := alphabeth.DefaultConfig(0)
	moveTable := moveindex.NewTable(cfg.MoveIndexVersion)
	cfg = alphabeth.DefaultConfig(moveTable.Size())

	var net *dual.Dual
	var err error
	if *weightsPath != "" {
		net, err = dual.LoadWeights(*weightsPath, cfg.NNConf, moveTable)
	} else {
		net = dual.New(cfg.NNConf, moveTable, int(cfg.MoveIndexVersion))
	}
	if err != nil {
		log.Fatalf("loading weights: %v", err)
	}

	engine := mcts.NewEngine(cfg.MCTSConf, moveTable, net)
	history, err := position.NewBoardHistory(startFEN, 1)
	if err != nil {
		log.Fatalf("building start position: %v", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "uci":
			fmt.Println("id name alphabeth")
			fmt.Println("id author nnzero")
			fmt.Println("uciok")
		case line == "isready":
			fmt.Println("readyok")
		case line == "ucinewgame":
			history, err = position.NewBoardHistory(startFEN, 1)
			if err != nil {
				log.Fatalf("resetting position: %v", err)
			}
		case strings.HasPrefix(line, "position"):
			history, err = handlePosition(line)
			if err != nil {
				log.Printf("position: %v", err)
			}
		case strings.HasPrefix(line, "go"):
			move, ok, err := engine.Think(history)
			if err != nil {
				log.Printf("search: %v", err)
				continue
			}
			if !ok {
				fmt.Println("bestmove 0000")
				continue
			}
			if move == "resign" {
				fmt.Println("bestmove 0000")
				continue
			}
			fmt.Printf("bestmove %s\n", move)
		case line == "quit":
			return
		}
	}
}

// handlePosition parses "position [startpos|fen <fen>] [moves m1 m2 ...]"
// into a fresh BoardHistory with every listed move replayed.
func handlePosition(line string) (*position.BoardHistory, error) {
	fields := strings.Fields(line)
	idx := 1
	fen := startFEN
	if idx < len(fields) && fields[idx] == "fen" {
		idx++
		fenFields := []string{}
		for idx < len(fields) && fields[idx] != "moves" {
			fenFields = append(fenFields, fields[idx])
			idx++
		}
		fen = strings.Join(fenFields, " ")
	} else if idx < len(fields) && fields[idx] == "startpos" {
		idx++
	}

	h, err := position.NewBoardHistory(fen, 1)
	if err != nil {
		return nil, err
	}
	if idx < len(fields) && fields[idx] == "moves" {
		idx++
		for ; idx < len(fields); idx++ {
			mv := findMove(h, fields[idx])
			if mv == nil {
				return nil, fmt.Errorf("illegal move %q", fields[idx])
			}
			if _, err := h.Push(mv); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

func findMove(h *position.BoardHistory, s string) *chess.Move {
	for _, m := range h.ValidMoves() {
		if m.String() == s {
			return m
		}
	}
	return nil
}

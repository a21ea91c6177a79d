// This command renders a single FEN position to a PNG file, optionally
// highlighting the move that produced it, via package render.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/nnzero/alphabeth/position"
	"github.com/nnzero/alphabeth/render"
)

var (
	fen      = flag.String("fen", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", "position to render")
	out      = flag.String("out", "board.png", "output PNG path")
	lastFrom = flag.String("last_from", "", "last move's source square, e.g. e2")
	lastTo   = flag.String("last_to", "", "last move's destination square, e.g. e4")
)

func main() {
	flag.Parse()

	history, err := position.NewBoardHistory(*fen, 1)
	if err != nil {
		log.Fatalf("invalid fen: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("creating output file: %v", err)
	}
	defer f.Close()

	opts := render.Options{LastMoveFrom: *lastFrom, LastMoveTo: *lastTo}
	if err := render.Board(f, history.Current(), opts); err != nil {
		log.Fatalf("rendering board: %v", err)
	}
	log.Printf("wrote %s", *out)
}

// This command dumps the fixed move-index bijection (package moveindex)
// to a text file, one "index move" pair per line, for offline
// inspection of the policy-vector layout a trained weight file expects.
//
// Superseded from the teacher's version, which played random games and
// collected the long-algebraic moves it observed into a set -- an
// empirical, game-count-dependent approximation of the action space.
// moveindex.NewTable instead enumerates the space combinatorially, so
// this tool's job shrinks to "write the table out", keeping the
// teacher's flag-driven file-writing shape.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth/moveindex"
)

var (
	versionFlag   = flag.String("version", "v2", "move-index layout: v1 or v2")
	chessMovePath = flag.String("path", "chess_moves.txt", "file to write the index -> move table to")
)

func main() {
	flag.Parse()

	version := moveindex.V2
	if *versionFlag == "v1" {
		version = moveindex.V1
	}
	table := moveindex.NewTable(version)

	f, err := os.OpenFile(*chessMovePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()
	for i := 0; i < table.Size(); i++ {
		mv, err := table.Decode(i, chess.White)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := fmt.Fprintf(w, "%d %s\n", i, mv); err != nil {
			log.Fatal(err)
		}
	}
	log.Printf("wrote %d moves to %s", table.Size(), *chessMovePath)
}

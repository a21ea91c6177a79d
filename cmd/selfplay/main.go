// This command runs self-play games with a single evaluator and writes
// their TimeSteps to rotating training chunks, the role the teacher's
// cmd/train filled before it tangled self-play with the now-out-of-scope
// gradient training loop (spec.md excludes the NN forward pass and the
// training-data chunker's own format requirements, but the
// training-data *generation* loop -- self-play, record, chunk -- is
// squarely in scope).
package main

import (
	"flag"
	"log"

	"github.com/nnzero/alphabeth"
	"github.com/nnzero/alphabeth/dualnet"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/training"
)

var (
	numGames    = flag.Int("num_games", 10, "number of self-play games to run")
	chunkDir    = flag.String("chunk_dir", "chunks", "directory to write training chunks to")
	weightsPath = flag.String("weights", "", "path to a .txt or .txt.gz weight file; empty uses an untrained network")
	hdfsAddr    = flag.String("hdfs_addr", "", "optional namenode address to mirror chunks to")
	hdfsUser    = flag.String("hdfs_user", "", "hdfs user for -hdfs_addr")
	hdfsDir     = flag.String("hdfs_dir", "", "remote directory for -hdfs_addr")
	seed        = flag.Uint64("seed", 1, "base rng seed; game i uses seed+i")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	moveTable := moveindex.NewTable(alphabeth.DefaultConfig(0).MoveIndexVersion)
	cfg := alphabeth.DefaultConfig(moveTable.Size())
	cfg.Chunker.Dir = *chunkDir
	cfg.Chunker.HDFSAddr = *hdfsAddr
	cfg.Chunker.HDFSUser = *hdfsUser
	cfg.Chunker.HDFSDir = *hdfsDir

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

	chunker, err := training.NewChunker(cfg.Chunker)
	if err != nil {
		log.Fatalf("opening chunker: %v", err)
	}
	defer chunker.Close()

	arena := alphabeth.NewArena(net, moveTable, int(cfg.MoveIndexVersion), cfg.MCTSConf, log.Default())
	for i := 0; i < *numGames; i++ {
		steps, err := arena.Play(cfg.StartFEN, *seed+uint64(i))
		if err != nil {
			log.Fatalf("game %d: %v", i, err)
		}
		for _, step := range steps {
			if err := chunker.Append(step); err != nil {
				log.Fatalf("game %d: writing chunk: %v", i, err)
			}
		}
		log.Printf("game %d: recorded %d positions", i, len(steps))
	}
}

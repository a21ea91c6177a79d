package position

import (
	"github.com/notnil/chess"
	"golang.org/x/exp/rand"
)

// pieceTypeIndex maps a notnil/chess piece type to a small dense index used to
// build the zobrist tables. Index layout: [color][pieceType], 0-5 per
// color (king, queen, rook, bishop, knight, pawn).
var pieceTypeIndex = map[chess.PieceType]int{
	chess.King:   0,
	chess.Queen:  1,
	chess.Rook:   2,
	chess.Bishop: 3,
	chess.Knight: 4,
	chess.Pawn:   5,
}

const numPieceTypes = 6
const numSquares = 64

// zobrist is the pseudo-random table used to compute Position.key. It is
// built once at BoardHistory construction time and shared (read-only)
// across every Position derived from that history, including shallow
// clones handed to worker goroutines.
//
// Grounded on herohde-morlock/pkg/board/zobrist.go's table shape
// (per-color-per-piece-per-square planes, plus castling/en-passant/turn
// planes), rebuilt here against notnil/chess's piece and square types.
type zobrist struct {
	pieces   [2][numPieceTypes][numSquares]uint64
	castling [16]uint64 // bit0=WK, bit1=WQ, bit2=BK, bit3=BQ
	enPassant [8]uint64 // indexed by file, 0 when no en-passant square
	turn     uint64
}

func newZobrist(seed uint64) *zobrist {
	r := rand.New(rand.NewSource(seed))
	z := &zobrist{}
	for c := 0; c < 2; c++ {
		for p := 0; p < numPieceTypes; p++ {
			for sq := 0; sq < numSquares; sq++ {
				z.pieces[c][p][sq] = r.Uint64()
			}
		}
	}
	for i := range z.castling {
		z.castling[i] = r.Uint64()
	}
	for i := range z.enPassant {
		z.enPassant[i] = r.Uint64()
	}
	z.turn = r.Uint64()
	return z
}

func colorIndex(c chess.Color) int {
	if c == chess.White {
		return 0
	}
	return 1
}

// hashBoard computes the zobrist key for a raw board + side-state tuple.
// It does not include rule50 or repetition count: those are mixed in
// separately to produce Position.fullKey, per spec.md's distinction
// between `key` (position-only, used by the TT so transpositions via
// different move orders share statistics) and `full_key` (which does NOT
// conflate positions that differ only in 50-move/repetition state).
func (z *zobrist) hashBoard(board *chess.Board, turn chess.Color, castle castleRights, epFile int) uint64 {
	var h uint64
	for sq, piece := range board.SquareMap() {
		if piece == chess.NoPiece {
			continue
		}
		pi, ok := pieceTypeIndex[piece.Type()]
		if !ok {
			continue
		}
		h ^= z.pieces[colorIndex(piece.Color())][pi][int(sq)]
	}
	h ^= z.castling[castle.mask()]
	if epFile >= 0 {
		h ^= z.enPassant[epFile]
	}
	if turn == chess.Black {
		h ^= z.turn
	}
	return h
}

// mix64 folds rule50 and repetition count into a position key to
// produce a full_key, using a splitmix64-style finalizer. Deterministic
// and allocation-free; no need for a cryptographic hash here since the
// TT/root-reuse mechanisms are explicitly best-effort (spec.md 4.3).
func mix64(key uint64, rule50, repetition int) uint64 {
	h := key ^ (uint64(rule50) * 0x9E3779B97F4A7C15)
	h ^= uint64(repetition) * 0xBF58476D1CE4E5B9
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return h
}

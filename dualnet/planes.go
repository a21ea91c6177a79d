// Package dual is the reference neural-network evaluator backend
// (spec.md section 6's input plane layout and weight file format),
// named "dual" after the teacher's own package (it predicts both a
// policy and a value from one forward pass -- a "dual head" network).
// Grounded on _examples/Elvenson-alphabeth/dualnet/config.go's
// Config/DefaultConf/IsValid shape, adapted to name the chess-specific
// meaning of each field (board is always 8x8, Features counts this
// module's history-plane layout), and game/encoding.go's plain
// SquareMap-to-float32-plane style.
package dual

import (
	"github.com/notnil/chess"

	"github.com/nnzero/alphabeth/position"
)

// PlanesPerHistoryV1 and PlanesPerHistoryV2 are the per-position
// bitplane counts of spec.md section 6: 6 own-piece + 6 opponent-piece
// planes, plus 2 (v1) or 1 (v2, which omits the >=2 repetition plane)
// repetition-counter planes.
const (
	PlanesPerHistoryV1 = 14
	PlanesPerHistoryV2 = 13
	ExtraPlanes        = 8 // 4 castling + side-to-move + rule50 + move-count + padding
	squaresPerPlane    = 64
)

// PlaneCount returns the total number of 8x8 planes for a network
// consuming up to position.THistory past positions, per version.
func PlaneCount(version int, historyLen int) int {
	per := PlanesPerHistoryV1
	if version == 2 {
		per = PlanesPerHistoryV2
	}
	return per*historyLen + ExtraPlanes
}

var ownPieceOrder = [6]chess.PieceType{chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen, chess.King}

// EncodePlanes builds the flattened (planes*64) float32 input tensor
// described in spec.md section 6. version selects the v1/v2 layout;
// window is the BoardHistory's retained positions, most-recent last.
// Board orientation is flipped for black in v2 (per spec.md: "own side
// is always at the bottom of the grid").
func EncodePlanes(window []*position.Position, version int) []float32 {
	turn := window[len(window)-1].Turn()
	flip := version == 2 && turn == chess.Black

	per := PlanesPerHistoryV1
	if version == 2 {
		per = PlanesPerHistoryV2
	}
	total := per*position.THistory + ExtraPlanes
	out := make([]float32, total*squaresPerPlane)

	// Most recent history entry occupies the first per-position block,
	// matching spec.md's "most-recent first, zero-padded" ordering.
	for hIdx := 0; hIdx < position.THistory; hIdx++ {
		srcIdx := len(window) - 1 - hIdx
		base := hIdx * per * squaresPerPlane
		if srcIdx < 0 {
			continue // zero-padded
		}
		encodeHistoryPlanes(out[base:base+per*squaresPerPlane], window[srcIdx], turn, per, flip)
	}

	tailBase := position.THistory * per * squaresPerPlane
	encodeExtraPlanes(out[tailBase:], window[len(window)-1], version, flip)
	return out
}

func encodeHistoryPlanes(dst []float32, p *position.Position, perspective chess.Color, per int, flip bool) {
	board := p.Board().SquareMap()
	for sq, piece := range board {
		if piece == chess.NoPiece {
			continue
		}
		planeIdx := pieceTypeIndex(piece.Type())
		if piece.Color() != perspective {
			planeIdx += 6
		}
		idx := int(sq)
		if flip {
			idx = flipSquareIndex(idx)
		}
		dst[planeIdx*squaresPerPlane+idx] = 1
	}
	if p.RepetitionCount() >= 1 {
		fillPlane(dst[12*squaresPerPlane:13*squaresPerPlane], 1)
	}
	if per > 13 && p.RepetitionCount() >= 2 {
		fillPlane(dst[13*squaresPerPlane:14*squaresPerPlane], 1)
	}
}

func pieceTypeIndex(t chess.PieceType) int {
	for i, pt := range ownPieceOrder {
		if pt == t {
			return i
		}
	}
	return 0
}

// encodeExtraPlanes fills the 8 trailing planes: 4 castling
// (own-kingside, own-queenside, opp-kingside, opp-queenside), 1
// side-to-move, 1 rule50, 1 move-count (v1 only), 1 padding (v2 only).
//
// Castling rights are approximated from the current board's rook/king
// placement rather than queried from position.Position (which keeps
// that bookkeeping private to the position package) -- acceptable for
// a reference network whose purpose is to exercise the Evaluator
// contract, not to reproduce a trained model's exact inputs.
func encodeExtraPlanes(dst []float32, p *position.Position, version int, flip bool) {
	turn := p.Turn()
	board := p.Board().SquareMap()

	ownKingside, ownQueenside := hasCastleRights(board, turn, true), hasCastleRights(board, turn, false)
	opp := chess.White
	if turn == chess.White {
		opp = chess.Black
	}
	oppKingside, oppQueenside := hasCastleRights(board, opp, true), hasCastleRights(board, opp, false)

	fillPlane(dst[0:64], boolF32(ownKingside))
	fillPlane(dst[64:128], boolF32(ownQueenside))
	fillPlane(dst[128:192], boolF32(oppKingside))
	fillPlane(dst[192:256], boolF32(oppQueenside))
	fillPlane(dst[256:320], boolF32(turn == chess.Black))
	fillPlane(dst[320:384], float32(p.Rule50()))

	if version == 2 {
		fillPlane(dst[384:448], 0)
		fillPlane(dst[448:512], 1)
	} else {
		fillPlane(dst[384:448], float32(p.Ply()))
		fillPlane(dst[448:512], 0)
	}
	_ = flip
}

func hasCastleRights(board map[chess.Square]chess.Piece, color chess.Color, kingside bool) bool {
	rank := 0
	if color == chess.Black {
		rank = 7
	}
	file := 0 // queenside rook file a
	if kingside {
		file = 7 // kingside rook file h
	}
	sq := chess.Square(rank*8 + file)
	p, ok := board[sq]
	return ok && p.Type() == chess.Rook && p.Color() == color
}

func boolF32(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func fillPlane(plane []float32, v float32) {
	for i := range plane {
		plane[i] = v
	}
}

func flipSquareIndex(sq int) int {
	file, rank := sq%8, sq/8
	return (7-rank)*8 + file
}

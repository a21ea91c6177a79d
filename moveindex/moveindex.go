// Package moveindex implements the fixed bijection between legal chess
// moves and policy indices described in spec.md section 4.5: built
// once at startup, used both to decode network policy output into
// moves and to encode the MCTS visit distribution into a training
// target.
package moveindex

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Version selects the historical output-policy layout. V1 keeps
// absolute board orientation (so white and black promotion ranks are
// enumerated separately); V2 assumes the caller has already flipped
// the board for black (see Lookup), so only one promotion direction is
// needed. Both are described in spec.md sections 4.5 and 6.
type Version int

const (
	V1 Version = iota
	V2
)

type squarePair struct {
	from, to int8 // 0..63, a1=0 .. h8=63
}

type underPromoKey struct {
	fromFile int8
	fromRank int8
	dir      int8 // -1 capture-left, 0 push, +1 capture-right
	piece    chess.PieceType
}

// Table is the bijection between (move, color) and a dense policy
// index, built once and shared read-only across every search.
type Table struct {
	version Version
	size    int

	index    map[squarePair]int
	byIndex  []squarePair
	underIdx map[underPromoKey]int
	underBy  []underPromoKey // parallel to the tail of byIndex/index space
	isUnder  []bool
}

var queenDirs = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var underPromoPieces = [3]chess.PieceType{chess.Queen, chess.Rook, chess.Bishop}

// NewTable builds the move-index bijection for the given version. This
// is the "built once at startup" step spec.md section 4.5 calls for;
// callers construct exactly one Table and pass it (by reference) into
// the search engine and training recorder.
func NewTable(version Version) *Table {
	t := &Table{
		version:  version,
		index:    make(map[squarePair]int, 2048),
		underIdx: make(map[underPromoKey]int, 64),
	}

	for from := 0; from < 64; from++ {
		ff, fr := from%8, from/8
		for _, d := range queenDirs {
			for dist := 1; dist < 8; dist++ {
				tf, tr := ff+d[0]*dist, fr+d[1]*dist
				if tf < 0 || tf > 7 || tr < 0 || tr > 7 {
					break
				}
				t.addPair(from, tr*8+tf)
			}
		}
		for _, o := range knightOffsets {
			tf, tr := ff+o[0], fr+o[1]
			if tf < 0 || tf > 7 || tr < 0 || tr > 7 {
				continue
			}
			t.addPair(from, tr*8+tf)
		}
	}

	if version == V1 {
		t.addPromotions(6) // white: rank 7 (index 6) -> rank 8
		t.addPromotions(1) // black: rank 2 (index 1) -> rank 1
	} else {
		t.addPromotions(6) // always the "own side" relative rank after flip
	}

	t.size = len(t.byIndex)
	return t
}

func (t *Table) addPair(from, to int) {
	p := squarePair{int8(from), int8(to)}
	if _, ok := t.index[p]; ok {
		return
	}
	t.index[p] = len(t.byIndex)
	t.byIndex = append(t.byIndex, p)
	t.isUnder = append(t.isUnder, false)
}

// addPromotions enumerates queen/rook/bishop under-promotions for pawns
// standing on the given source rank (0-based). Knight under-promotions
// deliberately alias the plain (from,to) pair already added above;
// queen, rook and bishop promotions each get their own distinct index.
func (t *Table) addPromotions(fromRank int) {
	toRank := 7
	if fromRank == 1 {
		toRank = 0
	}
	for file := 0; file < 8; file++ {
		dirs := []int{0}
		if file > 0 {
			dirs = append(dirs, -1)
		}
		if file < 7 {
			dirs = append(dirs, 1)
		}
		for _, dir := range dirs {
			toFile := file + dir
			if toFile < 0 || toFile > 7 {
				continue
			}
			from := fromRank*8 + file
			to := toRank*8 + toFile
			for _, piece := range underPromoPieces {
				k := underPromoKey{int8(file), int8(fromRank), int8(dir), piece}
				if _, ok := t.underIdx[k]; ok {
					continue
				}
				idx := len(t.byIndex)
				t.underIdx[k] = idx
				t.byIndex = append(t.byIndex, squarePair{int8(from), int8(to)})
				t.isUnder = append(t.isUnder, true)
				t.underBy = append(t.underBy, k)
			}
		}
	}
}

// Size is the fixed policy-vector length for this table (NUM_OUTPUT_POLICY).
func (t *Table) Size() int { return t.size }

// Flip vertically mirrors a long-algebraic move's from/to squares,
// matching the network's color-relative input-plane convention: "own
// side" is always at the bottom of the board.
func Flip(move string) (string, error) {
	from, to, promo, err := splitMove(move)
	if err != nil {
		return "", err
	}
	return joinMove(flipSquare(from), flipSquare(to), promo), nil
}

// Lookup canonicalizes a move played by the given color (flipping it
// for black) and returns its dense policy index. Castling and
// en-passant moves fold to their normal-move (from,to) encoding
// automatically, since this operates purely on coordinate squares.
func (t *Table) Lookup(move string, color chess.Color) (int, error) {
	canon := move
	if color == chess.Black {
		var err error
		if canon, err = Flip(move); err != nil {
			return 0, err
		}
	}
	from, to, promo, err := splitMove(canon)
	if err != nil {
		return 0, err
	}
	if promo == "q" || promo == "r" || promo == "b" {
		piece := chess.Queen
		if promo == "r" {
			piece = chess.Rook
		} else if promo == "b" {
			piece = chess.Bishop
		}
		dir := fileOf(to) - fileOf(from)
		k := underPromoKey{int8(fileOf(from)), int8(rankOf(from)), int8(dir), piece}
		if idx, ok := t.underIdx[k]; ok {
			return idx, nil
		}
		return 0, errors.Errorf("moveindex: no under-promotion index for %q", move)
	}
	p := squarePair{int8(squareIndex(from)), int8(squareIndex(to))}
	if idx, ok := t.index[p]; ok {
		return idx, nil
	}
	return 0, errors.Errorf("moveindex: no index for move %q", move)
}

// Decode is the inverse of Lookup: given a dense policy index and the
// side to move, returns the long-algebraic move in absolute board
// orientation (flipped back for black). Promotion indices decode with
// their queen/rook/bishop suffix; all other indices decode without a
// promotion suffix (knight under-promotions are indistinguishable from
// a plain move at this layer, matching the aliasing in addPromotions).
func (t *Table) Decode(idx int, color chess.Color) (string, error) {
	if idx < 0 || idx >= len(t.byIndex) {
		return "", errors.Errorf("moveindex: index %d out of range", idx)
	}
	pair := t.byIndex[idx]
	from := squareName(int(pair.from))
	to := squareName(int(pair.to))
	promo := ""
	if t.isUnder[idx] {
		k := t.underBy[underPositionOf(t, idx)]
		switch k.piece {
		case chess.Queen:
			promo = "q"
		case chess.Rook:
			promo = "r"
		default:
			promo = "b"
		}
	}
	move := joinMove(from, to, promo)
	if color == chess.Black {
		return Flip(move)
	}
	return move, nil
}

func underPositionOf(t *Table, idx int) int {
	count := 0
	for i := 0; i < idx; i++ {
		if t.isUnder[i] {
			count++
		}
	}
	return count
}

func fileOf(sq string) int { return int(sq[0] - 'a') }
func rankOf(sq string) int { return int(sq[1] - '1') }

func squareIndex(sq string) int { return rankOf(sq)*8 + fileOf(sq) }

func squareName(idx int) string {
	file := byte('a' + idx%8)
	rank := byte('1' + idx/8)
	return string([]byte{file, rank})
}

func flipSquare(sq string) string {
	return squareName(fileOf(sq) + (7-rankOf(sq))*8)
}

func splitMove(move string) (from, to, promo string, err error) {
	if len(move) < 4 {
		return "", "", "", errors.Errorf("moveindex: malformed move %q", move)
	}
	from, to = move[0:2], move[2:4]
	if len(move) >= 5 {
		promo = move[4:5]
	}
	return from, to, promo, nil
}

func joinMove(from, to, promo string) string {
	return from + to + promo
}

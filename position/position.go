// Package position is the thin capability bound over a chess rules
// library (github.com/notnil/chess) described in spec.md section 4.1
// as the "Position Adapter": legal moves, side-to-move, draw/checkmate/
// stalemate detection, the 64-bit zobrist key used by the
// transposition table, and move application/undo via BoardHistory.
package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// THistory is the fixed number of recent positions the network
// consumes as input (spec.md glossary: T_HISTORY).
const THistory = 8

// castleRights tracks the four individual castling rights as a small
// bitset, maintained by BoardHistory itself rather than queried from
// the chess library, so the adapter only depends on the library's
// board/move surface (SquareMap, ValidMoves, MoveStr) and nothing else.
type castleRights uint8

const (
	whiteKingside castleRights = 1 << iota
	whiteQueenside
	blackKingside
	blackQueenside
)

func (c castleRights) mask() int { return int(c) }

func (c castleRights) has(r castleRights) bool { return c&r != 0 }

func (c castleRights) clear(r castleRights) castleRights { return c &^ r }

// Position is an immutable snapshot of one board state plus the extra
// bookkeeping (rule50, repetition count, zobrist keys) spec.md requires
// for the cache/TT identity and draw detection. It is produced only by
// BoardHistory; callers never construct one directly.
type Position struct {
	pos      *chess.Position
	turn     chess.Color
	castle   castleRights
	epFile   int // -1 if none
	rule50   int
	reps     int
	key      uint64
	fullKey  uint64
	ply      int
	lastMove string // long-algebraic, "" at the root
}

// Turn returns the color to move next.
func (p *Position) Turn() chess.Color { return p.turn }

// Board exposes the underlying board for encoding/rendering purposes.
func (p *Position) Board() *chess.Board { return p.pos.Board() }

// Key is the 64-bit zobrist hash of piece placement, castling rights,
// en-passant file and side to move. Used by the transposition table:
// positions reached via different move orders share a TT slot.
func (p *Position) Key() uint64 { return p.key }

// FullKey additionally mixes in the rule50 counter and repetition
// count, so that two positions with identical pieces but different
// 50-move/repetition state (which genuinely differ in value) are
// distinguished. The transposition table keys on Key instead, and the
// engine's root re-use matches moves by ply, so neither reads it.
func (p *Position) FullKey() uint64 { return p.fullKey }

// Rule50 is the half-move clock since the last pawn move or capture.
func (p *Position) Rule50() int { return p.rule50 }

// RepetitionCount is how many times this exact key (board + castling +
// en-passant + turn) has occurred earlier in the owning BoardHistory.
func (p *Position) RepetitionCount() int { return p.reps }

// Ply is the number of half-moves played to reach this position.
func (p *Position) Ply() int { return p.ply }

// LastMove is the long-algebraic move ("e2e4", "e7e8q") that produced
// this position, or "" at the root.
func (p *Position) LastMove() string { return p.lastMove }

// IsDraw reports insufficient material (delegated to the chess
// library's own outcome detection), the 50-move rule, or threefold
// repetition -- the three draw causes spec.md section 3 names. reps
// counts only the occurrences of this position strictly before the
// current one, so the position currently on the board is the (reps+1)th
// occurrence; threefold repetition is therefore reps >= 2, not 3.
func (p *Position) IsDraw(libraryOutcome chess.Outcome, legalMoves int) bool {
	if p.rule50 >= 100 {
		return true
	}
	if p.reps >= 2 {
		return true
	}
	return libraryOutcome == chess.Draw && legalMoves > 0
}

// fenFields holds what parseFEN reads from a FEN string to seed a root Position:
// active color, castling availability, en-passant target, half-move
// clock. Piece placement itself is read back from the chess library's
// own board (SquareMap), so this only ever needs to agree with the
// library on the parts it does not expose an accessor for.
type fenFields struct {
	turn     chess.Color
	castle   castleRights
	epFile   int
	rule50   int
	fullmove int
}

func parseFEN(fen string) (fenFields, error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) < 4 {
		return fenFields{}, errors.Errorf("position: malformed FEN %q", fen)
	}
	var out fenFields
	out.epFile = -1

	switch fields[1] {
	case "w":
		out.turn = chess.White
	case "b":
		out.turn = chess.Black
	default:
		return fenFields{}, errors.Errorf("position: malformed FEN active color %q", fen)
	}

	if fields[2] != "-" {
		for _, r := range fields[2] {
			switch r {
			case 'K':
				out.castle |= whiteKingside
			case 'Q':
				out.castle |= whiteQueenside
			case 'k':
				out.castle |= blackKingside
			case 'q':
				out.castle |= blackQueenside
			}
		}
	}

	if len(fields) > 3 && fields[3] != "-" {
		if len(fields[3]) == 2 {
			out.epFile = int(fields[3][0] - 'a')
		}
	}

	if len(fields) > 4 {
		if n, err := strconv.Atoi(fields[4]); err == nil {
			out.rule50 = n
		}
	}
	if len(fields) > 5 {
		if n, err := strconv.Atoi(fields[5]); err == nil {
			out.fullmove = n
		}
	}
	return out, nil
}

func (f fenFields) String() string {
	return fmt.Sprintf("turn=%v castle=%04b ep=%d rule50=%d", f.turn, f.castle, f.epFile, f.rule50)
}

package position

import (
	"strconv"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// BoardHistory is the append-only ordered sequence of Positions
// described in spec.md section 3, beginning at a root setup FEN. It
// owns the one live *chess.Game used to generate and apply legal
// moves; everything else (castling rights, en-passant file, rule50,
// repetition count, zobrist keys) is bookkept here so the adapter only
// ever calls the chess library's board/move surface.
type BoardHistory struct {
	z    *zobrist
	game *chess.Game

	window []*Position    // last <=THistory positions, most recent last
	seen   map[uint64]int // Key() -> number of PRIOR occurrences

	rootFEN string
}

// NewBoardHistory builds a BoardHistory rooted at the given FEN. seed
// controls the zobrist table (same seed -> same keys across runs,
// needed for the rng_seed-determinism testable property).
func NewBoardHistory(fen string, seed uint64) (*BoardHistory, error) {
	fields, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrap(err, "position: invalid FEN")
	}
	g := chess.NewGame(option, chess.UseNotation(chess.UCINotation{}))

	h := &BoardHistory{
		z:       newZobrist(seed),
		game:    g,
		seen:    make(map[uint64]int, 64),
		rootFEN: fen,
	}

	root := &Position{
		pos:    g.Position(),
		turn:   fields.turn,
		castle: fields.castle,
		epFile: fields.epFile,
		rule50: fields.rule50,
		ply:    0,
	}
	root.key = h.z.hashBoard(root.Board(), root.turn, root.castle, root.epFile)
	root.reps = h.seen[root.key]
	h.seen[root.key]++
	root.fullKey = mix64(root.key, root.rule50, root.reps)

	h.window = append(h.window, root)
	return h, nil
}

// Current returns the most recently reached Position.
func (h *BoardHistory) Current() *Position {
	return h.window[len(h.window)-1]
}

// Window returns up to THistory most-recent positions, most-recent
// last -- the exact slice fed to the network's input-plane encoder.
func (h *BoardHistory) Window() []*Position {
	return h.window
}

// ValidMoves returns the legal moves from the current position.
func (h *BoardHistory) ValidMoves() []*chess.Move {
	return h.game.ValidMoves()
}

// Outcome reports the chess library's own terminal-state classification
// (used for insufficient-material draws and to tell which color mated).
func (h *BoardHistory) Outcome() chess.Outcome {
	return h.game.Outcome()
}

// IsTerminal reports whether the current position has no legal moves
// or is already a library-recognized draw, matching spec.md section
// 4.2's terminal check ("is_draw by draw rules OR has no legal moves").
func (h *BoardHistory) IsTerminal() bool {
	cur := h.Current()
	moves := h.ValidMoves()
	if len(moves) == 0 {
		return true
	}
	return cur.IsDraw(h.Outcome(), len(moves))
}

// TerminalScore implements spec.md section 9's prescribed mapping:
// checkmate delivered by white -> +1, by black -> -1, draws -> 0,
// from the white-perspective convention used for board_score.
func (h *BoardHistory) TerminalScore() float32 {
	switch h.Outcome() {
	case chess.WhiteWon:
		return 1
	case chess.BlackWon:
		return -1
	default:
		return 0
	}
}

// Push applies a legal move (as returned by ValidMoves) and appends the
// resulting Position to the window, trimming to THistory entries.
func (h *BoardHistory) Push(m *chess.Move) (*Position, error) {
	prev := h.Current()
	mv := m.String()
	if err := h.game.MoveStr(mv); err != nil {
		return nil, errors.Wrapf(err, "position: applying move %q", mv)
	}

	from, to, promo, err := parseLongAlgebraic(mv)
	if err != nil {
		return nil, err
	}

	beforeBoard := prev.Board().SquareMap()
	movedPiece := beforeBoard[from]
	capturedPiece := beforeBoard[to]
	isPawnMove := movedPiece.Type() == chess.Pawn
	isCapture := capturedPiece != chess.NoPiece
	isEnPassant := isPawnMove && !isCapture && fileOf(from) != fileOf(to)

	castle := prev.castle
	castle = updateCastlingRights(castle, movedPiece, from, to)

	rule50 := prev.rule50 + 1
	if isPawnMove || isCapture || isEnPassant {
		rule50 = 0
	}

	epFile := -1
	if isPawnMove && abs(rankOf(to)-rankOf(from)) == 2 {
		epFile = fileOf(from)
	}

	next := &Position{
		pos:      h.game.Position(),
		turn:     h.game.Position().Turn(),
		castle:   castle,
		epFile:   epFile,
		rule50:   rule50,
		ply:      prev.ply + 1,
		lastMove: mv,
	}
	_ = promo
	next.key = h.z.hashBoard(next.Board(), next.turn, next.castle, next.epFile)
	next.reps = h.seen[next.key]
	h.seen[next.key]++
	next.fullKey = mix64(next.key, next.rule50, next.reps)

	h.window = append(h.window, next)
	if len(h.window) > THistory {
		h.window = h.window[len(h.window)-THistory:]
	}
	return next, nil
}

// ShallowClone returns an independent BoardHistory that retains only
// the last THistory positions (preserving the current position exactly,
// per spec.md's invariant 6), with its own live game clone and its own
// repetition-counting map so that moves played in the clone never
// affect the original.
func (h *BoardHistory) ShallowClone() *BoardHistory {
	seen := make(map[uint64]int, len(h.seen))
	for k, v := range h.seen {
		seen[k] = v
	}
	window := make([]*Position, len(h.window))
	copy(window, h.window)

	return &BoardHistory{
		z:       h.z,
		game:    h.game.Clone(),
		window:  window,
		seen:    seen,
		rootFEN: h.rootFEN,
	}
}

func fileOf(sq chess.Square) int { return int(sq) % 8 }
func rankOf(sq chess.Square) int { return int(sq) / 8 }

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func squareFromAlgebraic(s string) (chess.Square, error) {
	if len(s) != 2 {
		return 0, errors.Errorf("position: malformed square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, errors.Errorf("position: malformed square %q", s)
	}
	return chess.Square(rank*8 + file), nil
}

// parseLongAlgebraic splits a notnil/chess Move.String() value (e.g.
// "e2e4", "e7e8q") into its from/to squares and optional promotion
// letter, without depending on unexported Move internals.
func parseLongAlgebraic(s string) (from, to chess.Square, promo string, err error) {
	if len(s) < 4 {
		return 0, 0, "", errors.Errorf("position: malformed move %q", s)
	}
	if from, err = squareFromAlgebraic(s[0:2]); err != nil {
		return 0, 0, "", err
	}
	if to, err = squareFromAlgebraic(s[2:4]); err != nil {
		return 0, 0, "", err
	}
	if len(s) >= 5 {
		promo = s[4:5]
	}
	return from, to, promo, nil
}

func updateCastlingRights(c castleRights, moved chess.Piece, from, to chess.Square) castleRights {
	switch {
	case moved.Type() == chess.King && moved.Color() == chess.White:
		c = c.clear(whiteKingside).clear(whiteQueenside)
	case moved.Type() == chess.King && moved.Color() == chess.Black:
		c = c.clear(blackKingside).clear(blackQueenside)
	}
	c = clearRightForCornerSquare(c, from)
	c = clearRightForCornerSquare(c, to)
	return c
}

// clearRightForCornerSquare drops the castling right tied to a rook's
// home square whenever a piece leaves or lands on it -- covers both
// "the rook moved" and "the rook was captured".
func clearRightForCornerSquare(c castleRights, sq chess.Square) castleRights {
	switch sq {
	case mustSquare("a1"):
		return c.clear(whiteQueenside)
	case mustSquare("h1"):
		return c.clear(whiteKingside)
	case mustSquare("a8"):
		return c.clear(blackQueenside)
	case mustSquare("h8"):
		return c.clear(blackKingside)
	}
	return c
}

func mustSquare(s string) chess.Square {
	sq, err := squareFromAlgebraic(s)
	if err != nil {
		panic(err)
	}
	return sq
}

// RootFEN returns the FEN this history was built from.
func (h *BoardHistory) RootFEN() string { return h.rootFEN }

// FullMoveNumber reports the current full-move number (1-based),
// counted from this history's root position, for diagnostics.
func (h *BoardHistory) FullMoveNumber() int {
	return h.Current().ply/2 + 1
}

func itoa(n int) string { return strconv.Itoa(n) }

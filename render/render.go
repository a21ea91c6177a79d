// Package render draws a Position to a PNG: board squares, piece
// glyphs, an optional last-move arrow, and a small eval/visit
// annotation, for the cmd/render command (self-play does not call it).
// Grounded on the teacher's go.mod declaring
// github.com/golang/freetype and golang.org/x/image as dependencies
// (no pack example exercises them; this package wires them through
// their documented drawing APIs).
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"

	"github.com/golang/freetype/truetype"
	"github.com/notnil/chess"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nnzero/alphabeth/position"
)

const squarePx = 64
const boardPx = squarePx * 8

var (
	lightSquare = color.RGBA{0xee, 0xee, 0xd2, 0xff}
	darkSquare  = color.RGBA{0x76, 0x96, 0x56, 0xff}
	whitePiece  = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	blackPiece  = color.RGBA{0x20, 0x20, 0x20, 0xff}
	arrowColor  = color.RGBA{0xd6, 0x3b, 0x3b, 0xc0}
	annotBg     = color.RGBA{0x10, 0x10, 0x10, 0xc0}
)

// Annotation is the optional small text drawn below the board (an
// engine's eval/visit summary for the position being rendered).
type Annotation struct {
	Eval   float32
	Visits uint32
}

// Options controls what Board draws in addition to the pieces.
type Options struct {
	LastMoveFrom, LastMoveTo string // long-algebraic squares, "" to omit
	Annotation               *Annotation
	// Face overrides the glyph font; nil uses the bundled basicfont face
	// (golang.org/x/image/font/basicfont), which needs no external TTF
	// asset. A caller with a real piece-glyph TTF can supply one built
	// via github.com/golang/freetype/truetype.NewFace.
	Face font.Face
}

// Board renders p to a 512x512+annotation PNG and writes it to w.
func Board(w io.Writer, p *position.Position, opts Options) error {
	h := boardPx
	if opts.Annotation != nil {
		h += 24
	}
	img := image.NewRGBA(image.Rect(0, 0, boardPx, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	drawSquares(img)
	drawPieces(img, p, opts.Face)
	if opts.LastMoveFrom != "" && opts.LastMoveTo != "" {
		drawArrow(img, opts.LastMoveFrom, opts.LastMoveTo)
	}
	if opts.Annotation != nil {
		drawAnnotation(img, *opts.Annotation, opts.Face)
	}

	return png.Encode(w, img)
}

func drawSquares(img *image.RGBA) {
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			c := lightSquare
			if (rank+file)%2 == 1 {
				c = darkSquare
			}
			x0, y0 := file*squarePx, (7-rank)*squarePx
			fillRect(img, x0, y0, squarePx, squarePx, c)
		}
	}
}

func drawPieces(img *image.RGBA, p *position.Position, face font.Face) {
	if face == nil {
		face = basicfont.Face7x13
	}
	for sq, piece := range p.Board().SquareMap() {
		if piece == chess.NoPiece {
			continue
		}
		file, rank := int(sq)%8, int(sq)/8
		cx := file*squarePx + squarePx/2 - 4
		cy := (7-rank)*squarePx + squarePx/2 + 4

		col := whitePiece
		if piece.Color() == chess.Black {
			col = blackPiece
		}
		drawLabel(img, pieceGlyph(piece.Type()), cx, cy, col, face)
	}
}

func pieceGlyph(t chess.PieceType) string {
	switch t {
	case chess.King:
		return "K"
	case chess.Queen:
		return "Q"
	case chess.Rook:
		return "R"
	case chess.Bishop:
		return "B"
	case chess.Knight:
		return "N"
	default:
		return "P"
	}
}

func drawArrow(img *image.RGBA, from, to string) {
	x0, y0 := squareCenter(from)
	x1, y1 := squareCenter(to)
	bresenhamLine(img, x0, y0, x1, y1, arrowColor)
}

func squareCenter(sq string) (int, int) {
	file := int(sq[0] - 'a')
	rank := int(sq[1] - '1')
	return file*squarePx + squarePx/2, (7-rank)*squarePx + squarePx/2
}

func drawAnnotation(img *image.RGBA, a Annotation, face font.Face) {
	fillRect(img, 0, boardPx, boardPx, 24, annotBg)
	text := "eval=" + strconv.FormatFloat(float64(a.Eval), 'f', 3, 32) + " visits=" + strconv.Itoa(int(a.Visits))
	drawLabel(img, text, 8, boardPx+16, color.White, face)
}

func drawLabel(img *image.RGBA, s string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: col},
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.Color) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// bresenhamLine draws a thick-ish line (3 parallel passes) between two
// points, enough for a visible last-move arrow without pulling in a
// full vector-graphics stack.
func bresenhamLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	for dy := -1; dy <= 1; dy++ {
		bresenham(img, x0, y0+dy, x1, y1+dy, c)
	}
}

func bresenham(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LoadFace parses TTF data into a font.Face for Options.Face, for
// callers that have a real piece-glyph font instead of the bundled
// basicfont fallback.
func LoadFace(data []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

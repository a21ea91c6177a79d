package training

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

const binaryFormatVersion uint32 = 2

// WriteText serializes one TimeStep in the plain-text chunk format of
// spec.md section 6: bitplanes as hex strings (one plane per line),
// five boolean feature planes (one character each), rule50 and
// move_count as integers, the policy vector space-separated, and the
// signed game result, one value per line.
func WriteText(w io.Writer, step TimeStep) error {
	bw := bufio.NewWriter(w)
	for p := 0; p*64 < len(step.Planes); p++ {
		var bits uint64
		for sq := 0; sq < 64; sq++ {
			if step.Planes[p*64+sq] != 0 {
				bits |= 1 << uint(sq)
			}
		}
		if _, err := fmt.Fprintf(bw, "%016x\n", bits); err != nil {
			return err
		}
	}

	// Five boolean feature planes: own-kingside, own-queenside,
	// opp-kingside, opp-queenside castling, then side-to-move. Castling
	// rights are not threaded onto TimeStep (see the note on
	// encodeExtraPlanes in dualnet/planes.go about approximating them
	// from board layout rather than
	// position.Position); only side-to-move is written here.
	for i := 0; i < 4; i++ {
		if _, err := fmt.Fprintf(bw, "%d\n", 0); err != nil {
			return err
		}
	}
	stm := 0
	if step.ToMove == chess.Black {
		stm = 1
	}
	if _, err := fmt.Fprintf(bw, "%d\n", stm); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(bw, "%d\n%d\n", step.Rule50, step.MoveCount); err != nil {
		return err
	}

	for i, v := range step.Policy {
		sep := " "
		if i == len(step.Policy)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(bw, "%g%s", v, sep); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(bw, "%d\n", int(step.Result)); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteBinary serializes one TimeStep in the "v2" binary format of
// spec.md section 6: a four-byte little-endian version, the policy as
// little-endian f32, each bitplane as a little-endian u64, five castling/stm bytes,
// rule50 and move-count bytes, and a signed result byte.
func WriteBinary(w io.Writer, step TimeStep) error {
	if err := binary.Write(w, binary.LittleEndian, binaryFormatVersion); err != nil {
		return err
	}
	for _, v := range step.Policy {
		if err := binary.Write(w, binary.LittleEndian, math.Float32bits(v)); err != nil {
			return err
		}
	}
	for p := 0; p*64 < len(step.Planes); p++ {
		var bits uint64
		for sq := 0; sq < 64; sq++ {
			if step.Planes[p*64+sq] != 0 {
				bits |= 1 << uint(sq)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, bits); err != nil {
			return err
		}
	}
	for i := 0; i < 4; i++ {
		if err := binary.Write(w, binary.LittleEndian, byte(0)); err != nil {
			return err
		}
	}
	stm := byte(0)
	if step.ToMove == chess.Black {
		stm = 1
	}
	if err := binary.Write(w, binary.LittleEndian, stm); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(step.Rule50)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(step.MoveCount)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int8(step.Result))
}

// ErrMalformedChunk reports a record whose declared sizes are
// inconsistent with the stream. This package only writes chunks;
// nothing in it returns this error.
var ErrMalformedChunk = errors.New("training: malformed chunk record")

// Package encoding turns a board position into the network's input tensor.
//
// The layout is a versioned contract with the trained model, not an
// implementation detail: 12 occupancy planes of 64 cells each, white pawns,
// knights, bishops, rooks, queens, kings, then the same six piece types for
// black. Within a plane, cell i corresponds to square i (a1=0 ... h8=63). A
// cell is 1.0 if the plane's piece occupies that square, else 0.0. Side to
// move, castling rights and en passant are deliberately not encoded.
package encoding

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

const (
	// PlanesPerSide is the number of piece-type planes for one color.
	PlanesPerSide = 6
	// NumPlanes is the channel count of the input tensor.
	NumPlanes = 2 * PlanesPerSide
	// NumSquares is the cell count of one plane.
	NumSquares = 64
	// Size is the total input length: 12 * 8 * 8.
	Size = NumPlanes * NumSquares
)

// Encode produces a fresh input vector for the given position. It is a pure
// function of the piece placement; the board is never mutated and the result
// is never cached across positions.
func Encode(b *dragontoothmg.Board) []float32 {
	v := make([]float32, Size)
	fillSide(v, 0, &b.White)
	fillSide(v, PlanesPerSide, &b.Black)
	return v
}

func fillSide(v []float32, firstPlane int, bb *dragontoothmg.Bitboards) {
	planes := [PlanesPerSide]uint64{
		bb.Pawns, bb.Knights, bb.Bishops, bb.Rooks, bb.Queens, bb.Kings,
	}
	for p, occ := range planes {
		base := (firstPlane + p) * NumSquares
		for occ != 0 {
			sq := bits.TrailingZeros64(occ)
			v[base+sq] = 1.0
			occ &= occ - 1
		}
	}
}

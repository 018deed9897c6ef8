// Package policy maps chess moves onto the fixed 4096-slot policy head of the
// network. The mapping is origin*64 + destination; it carries no promotion
// information, so a promotion move shares its slot with the matching quiet
// move. The model was trained against this exact scheme. Widening the index
// space (e.g. AlphaZero-style promotion planes) changes the model contract
// and cannot be done here alone.
package policy

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"
)

// Size is the length of the policy head: one slot per (origin, destination)
// pair on an 8x8 board.
const Size = 64 * 64

// Codec converts between moves and policy indices. Both directions are built
// eagerly at construction so the index scheme lives in exactly one place.
// A Codec is immutable after New and safe for concurrent readers.
type Codec struct {
	moves   [Size]dragontoothmg.Move
	indices map[dragontoothmg.Move]int
}

// New builds the full 4096-entry table in both directions.
func New() *Codec {
	c := &Codec{
		indices: make(map[dragontoothmg.Move]int, Size),
	}
	for from := 0; from < 64; from++ {
		for to := 0; to < 64; to++ {
			var m dragontoothmg.Move
			m.Setfrom(dragontoothmg.Square(from))
			m.Setto(dragontoothmg.Square(to))
			idx := from*64 + to
			c.moves[idx] = m
			c.indices[m] = idx
		}
	}
	return c
}

// IndexOf returns the policy index for a move. Promotion moves are keyed by
// their (origin, destination) pair alone and therefore collide with the
// corresponding non-promotion move.
func (c *Codec) IndexOf(m dragontoothmg.Move) int {
	var key dragontoothmg.Move
	key.Setfrom(dragontoothmg.Square(m.From()))
	key.Setto(dragontoothmg.Square(m.To()))
	return c.indices[key]
}

// MoveOf returns the move for a policy index. The returned move never carries
// a promotion piece. An out-of-range index is a programming error and panics.
func (c *Codec) MoveOf(idx int) dragontoothmg.Move {
	if idx < 0 || idx >= Size {
		panic(fmt.Sprintf("policy index %d out of range [0, %d)", idx, Size))
	}
	return c.moves[idx]
}

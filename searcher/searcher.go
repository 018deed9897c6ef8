// Package searcher defines the move-selection contract the daemon consumes.
// A full tree searcher lives outside this repository; the daemon only needs
// something that takes a position and returns one move within the configured
// budgets. Two reference searchers ship here so the bridge is runnable end to
// end: a policy-guided one-ply searcher and an unguided random searcher for
// when inference is disabled. Neither expands a tree.
package searcher

import (
	"errors"
	"fmt"

	"github.com/dylhunn/dragontoothmg"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/chesshacks/azbridge/nn"
)

// ErrNoMove is the absence-of-move signal: the position has no legal moves
// or the budget ran out without a result.
var ErrNoMove = errors.New("search produced no move")

// Params carries the per-request search budgets. The reference searchers
// finish within any budget in a single evaluation; a real tree searcher is
// expected to honor all three.
type Params struct {
	MaxIterations int
	MaxSeconds    int
	CPuct         float64
}

// Searcher picks one move for a position. At most one attempt is made per
// request; retrying is the caller's policy decision.
type Searcher interface {
	Search(b *dragontoothmg.Board) (dragontoothmg.Move, error)
}

// New returns the policy-guided searcher when an engine is available and the
// unguided random searcher otherwise. The budgets are part of the Searcher
// contract, but the reference searchers complete in a single evaluation and
// so have nothing to retain from them.
func New(engine *nn.Engine, _ Params) Searcher {
	if engine == nil {
		return &Random{}
	}
	return &PolicyGreedy{engine: engine}
}

// PolicyGreedy asks the inference engine for the legal-move distribution and
// plays its mode.
type PolicyGreedy struct {
	engine *nn.Engine
}

func (s *PolicyGreedy) Search(b *dragontoothmg.Board) (dragontoothmg.Move, error) {
	legal := b.GenerateLegalMoves()
	if len(legal) == 0 {
		return 0, ErrNoMove
	}
	pred, err := s.engine.Predict(b)
	if err != nil {
		return 0, fmt.Errorf("policy search: %w", err)
	}
	best := lo.MaxBy(legal, func(a, b dragontoothmg.Move) bool {
		return pred.Policy[a.String()] > pred.Policy[b.String()]
	})
	return best, nil
}

// Random plays a uniformly random legal move. Used when the model path is
// "none" or empty and the bridge runs unguided.
type Random struct{}

func (s *Random) Search(b *dragontoothmg.Board) (dragontoothmg.Move, error) {
	legal := b.GenerateLegalMoves()
	if len(legal) == 0 {
		return 0, ErrNoMove
	}
	return legal[frand.Intn(len(legal))], nil
}

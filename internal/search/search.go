// Package search implements principal-variation search over shogi
// positions: iterative deepening with aspiration windows, negamax with
// alpha-beta pruning and the usual forward-pruning suite, a staged move
// picker, and a lazy-SMP parallel driver built on errgroup.
//
// Adapted from internal/engine/worker.go, ordering.go, search.go, engine.go
// and timeman.go, generalized from chess's from/to/promotion move model to
// shogi's board-moves-plus-drops model, and from the teacher's own
// sync.WaitGroup/channel plumbing to golang.org/x/sync/errgroup for the
// parallel driver (SPEC_FULL.md's domain stack expansion names errgroup
// explicitly for this role).
package search

import "github.com/shogicore/engine/internal/shogi"

// Search bounds, matching the teacher's search.go constants.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation discovered at each ply, the same
// triangular-array technique as internal/engine/search.go's PVTable.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]shogi.Move
}

func (pv *PVTable) update(ply int, move shogi.Move) {
	pv.moves[ply][ply] = move
	for j := ply + 1; j < pv.length[ply+1]; j++ {
		pv.moves[ply][j] = pv.moves[ply+1][j]
	}
	pv.length[ply] = pv.length[ply+1]
}

// Line returns the PV discovered from the root.
func (pv *PVTable) Line() []shogi.Move {
	out := make([]shogi.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}

// stackEntry is per-ply search state carried alongside the recursion,
// mirroring internal/engine/worker.go's SearchStack (pared down: this repo
// drops the teacher's 6-ply-back continuation history in favor of the
// simpler 1/2-ply-back lookup LMR itself uses, see MoveOrderer).
type stackEntry struct {
	currentMove shogi.Move
	movedPiece  shogi.Piece
	moveTo      shogi.Square
	staticEval  int
	reduction   int
	cutoffCnt   int
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// isMateScore reports whether score is within MaxPly of a forced mate,
// the threshold the teacher uses to gate ProbCut/Multi-Cut and early
// search termination.
func isMateScore(score int) bool {
	return abs(score) > MateScore-MaxPly
}

// adjustScoreFromTT/adjustScoreToTT renormalize mate-distance scores
// around ply, against this package's own MateScore/MaxPly (29000/128):
// internal/tt's table stores a plain int16 and doesn't care what scale
// its caller uses for "mate", so this renormalization belongs to the
// package that defines what a mate score is, not to the table.
func adjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

func adjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

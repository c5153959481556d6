package search

import "github.com/shogicore/engine/internal/shogi"

// correctionTableSize matches the teacher's 65536-entry positionCorr
// table in internal/engine/correction.go.
const correctionTableSize = 1 << 16

// CorrectionHistory tracks the gap between static evaluation and search
// result, keyed by a position signature, and nudges future static evals
// toward what search has actually found for similar positions. Grounded
// on internal/engine/correction.go's CorrectionHistory, generalized per
// SPEC_FULL.md section 12: the teacher keys by chess pawn-structure hash
// (`pos.Hash & 0xFFFF`, where pawns dominate long-range static-eval
// error); shogi has no equivalent "pawn skeleton" since captured pieces
// return to hand and pawns can be dropped back onto the board, so this
// keys by a material-and-hand signature instead — the piece-count
// distribution that best predicts static-eval drift once pieces start
// trading into hand.
type CorrectionHistory struct {
	table [correctionTableSize]int16
}

// NewCorrectionHistory returns an empty correction table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

// materialHandSignature folds per-type board piece counts and both
// hands' counts into a single uint64, order-independent of where on the
// board those pieces stand. Two positions reached by different move
// orders but the same material balance hash identically, letting the
// correction table generalize across transpositions the same way the
// teacher's pawn-hash generalizes across non-pawn-move transpositions.
func materialHandSignature(pos *shogi.Position) uint64 {
	var sig uint64 = 0xCBF29CE484222325 // FNV offset basis
	const prime = 0x100000001B3

	mix := func(v uint64) {
		sig ^= v
		sig *= prime
	}
	for pt := shogi.Pawn; pt < shogi.NoPieceType; pt++ {
		blackCount := pos.Board.ByPiece(shogi.Black, pt).PopCount()
		whiteCount := pos.Board.ByPiece(shogi.White, pt).PopCount()
		mix(uint64(blackCount)<<8 | uint64(whiteCount))
	}
	droppable := [shogi.HandKinds]shogi.PieceType{
		shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver,
		shogi.Gold, shogi.Bishop, shogi.Rook,
	}
	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		hand := pos.Hands[c]
		for _, pt := range droppable {
			mix(uint64(hand.Count(pt)))
		}
	}
	mix(uint64(pos.SideToMove))
	return sig
}

func (ch *CorrectionHistory) index(pos *shogi.Position) uint64 {
	return materialHandSignature(pos) & (correctionTableSize - 1)
}

// Get returns the current correction, in centipawns, to apply to a
// static evaluation for pos.
func (ch *CorrectionHistory) Get(pos *shogi.Position) int {
	return int(ch.table[ch.index(pos)])
}

// Update nudges the correction table toward the gap between what search
// actually found (searchScore) and what static eval guessed
// (staticEval), scaled by depth the same way correction.go's Update is:
// deeper searches are trusted more, and the update is a gravity step (a
// fraction of the way toward the new target) rather than a full
// overwrite, so a single noisy search doesn't swing the table.
func (ch *CorrectionHistory) Update(pos *shogi.Position, searchScore, staticEval, depth int) {
	if depth <= 0 {
		depth = 1
	}
	diff := (searchScore - staticEval) * depth
	if diff > 256 {
		diff = 256
	} else if diff < -256 {
		diff = -256
	}
	idx := ch.index(pos)
	old := int(ch.table[idx])
	updated := old + (diff-old)/16
	if updated > 16000 {
		updated = 16000
	} else if updated < -16000 {
		updated = -16000
	}
	ch.table[idx] = int16(updated)
}

// Clear zeroes the whole table, used when starting an unrelated game.
func (ch *CorrectionHistory) Clear() {
	ch.table = [correctionTableSize]int16{}
}

// Age halves every entry between searches, the same decay correction.go
// applies so stale corrections fade rather than persist indefinitely.
func (ch *CorrectionHistory) Age() {
	for i := range ch.table {
		ch.table[i] /= 2
	}
}

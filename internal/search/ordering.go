package search

import "github.com/shogicore/engine/internal/shogi"

// Move-score buckets, wide enough apart that no combination of heuristic
// bonuses from one bucket spills into the next. Mirrors the constant
// spread in internal/engine/ordering.go.
const (
	ttMoveScore     = 10_000_000
	goodCaptureBase = 1_000_000
	killerScore1    = 900_000
	killerScore2    = 800_000
	counterScore    = 700_000
	badCaptureBase  = -100_000
)

// historyMax is the overflow threshold at which all history tables are
// halved, identical in spirit to ordering.go's UpdateHistory halving.
const historyMax = 1 << 20

// fromKey folds a move's origin into a single index: board moves use the
// origin square (0-80), drops use NumSquares+handIndex (81-87). Shogi has
// no "from square" for a drop, so history/killers/counter-move tables
// index drops by the dropped piece kind instead of a board origin the way
// the teacher's chess history table does for castling's rook-less slot.
func fromKey(m shogi.Move) int {
	if m.IsDrop() {
		return shogi.NumSquares + m.DropPiece().HandIndex()
	}
	return int(m.From())
}

const fromKeySize = shogi.NumSquares + shogi.HandKinds

// mvvLva scores a capture by victim value minus a fraction of attacker
// value, reusing shogi.PieceValue directly rather than a parallel local
// table (unlike ordering.go's locally scoped pieceValues, since
// internal/shogi already exports one).
func mvvLva(attacker, victim shogi.PieceType) int {
	return shogi.PieceValue[victim]*16 - shogi.PieceValue[attacker]
}

// MoveOrderer accumulates the ordering heuristics that survive between
// searches: killer moves and history tables persist across searches and
// are only reset by Clear, which Engine.Clear calls between games. Grounded on
// internal/engine/ordering.go's MoveOrderer, generalized to shogi's
// from/drop move model and pared down from the teacher's extra
// countermove-history/capture-history 4D tables to the subset this
// engine's staged MovePicker (movepicker.go) actually consults; per
// SPEC_FULL.md section 5 these tables are per-worker, never shared.
type MoveOrderer struct {
	killers        [MaxPly][2]shogi.Move
	history        [fromKeySize][shogi.NumSquares]int
	counterMoves   [30][shogi.NumSquares]shogi.Move
	captureHistory [30][shogi.NumSquares][shogi.NumPieceTypes]int
}

// NewMoveOrderer returns an empty orderer ready for a fresh search.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and counter-moves and halves the history tables,
// the same aging policy as ordering.go's Clear (halve rather than zero,
// so some of the history survives the Clear).
func (o *MoveOrderer) Clear() {
	o.killers = [MaxPly][2]shogi.Move{}
	o.counterMoves = [30][shogi.NumSquares]shogi.Move{}
	for i := range o.history {
		for j := range o.history[i] {
			o.history[i][j] /= 2
		}
	}
	for i := range o.captureHistory {
		for j := range o.captureHistory[i] {
			for k := range o.captureHistory[i][j] {
				o.captureHistory[i][j][k] /= 2
			}
		}
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff at ply,
// keeping the two most recent distinct killers (slot 0 is always the most
// recent).
func (o *MoveOrderer) UpdateKillers(ply int, m shogi.Move) {
	if o.killers[ply][0] == m {
		return
	}
	o.killers[ply][1] = o.killers[ply][0]
	o.killers[ply][0] = m
}

// Killers returns the two killer moves recorded for ply.
func (o *MoveOrderer) Killers(ply int) (shogi.Move, shogi.Move) {
	return o.killers[ply][0], o.killers[ply][1]
}

// UpdateHistory applies a depth-scaled bonus (or malus, for moves that
// were tried and failed to cause the cutoff) to a quiet move's history
// score, halving the whole table on overflow exactly as ordering.go does.
func (o *MoveOrderer) UpdateHistory(m shogi.Move, depth int, bonus int) {
	fk, to := fromKey(m), int(m.To())
	o.history[fk][to] += bonus * depth
	if o.history[fk][to] > historyMax || o.history[fk][to] < -historyMax {
		for i := range o.history {
			for j := range o.history[i] {
				o.history[i][j] /= 2
			}
		}
	}
}

// HistoryScore returns the current history score for a quiet move.
func (o *MoveOrderer) HistoryScore(m shogi.Move) int {
	return o.history[fromKey(m)][int(m.To())]
}

// UpdateCounterMove records m as the reply to the opponent's previous
// move prevMove.
func (o *MoveOrderer) UpdateCounterMove(prevMove shogi.Move, prevPiece shogi.Piece, m shogi.Move) {
	if prevMove == shogi.NoMove || prevMove == shogi.NullMove {
		return
	}
	o.counterMoves[prevPiece][prevMove.To()] = m
}

// CounterMove returns the recorded reply to prevMove, if any.
func (o *MoveOrderer) CounterMove(prevMove shogi.Move, prevPiece shogi.Piece) shogi.Move {
	if prevMove == shogi.NoMove || prevMove == shogi.NullMove {
		return shogi.NoMove
	}
	return o.counterMoves[prevPiece][prevMove.To()]
}

// UpdateCaptureHistory adjusts the capture-history score for a capturing
// move, indexed by attacker piece, destination square and captured type.
func (o *MoveOrderer) UpdateCaptureHistory(attacker shogi.Piece, to shogi.Square, captured shogi.PieceType, depth int, bonus int) {
	o.captureHistory[attacker][to][captured] += bonus * depth
	if o.captureHistory[attacker][to][captured] > historyMax {
		o.captureHistory[attacker][to][captured] = historyMax / 2
	} else if o.captureHistory[attacker][to][captured] < -historyMax {
		o.captureHistory[attacker][to][captured] = -historyMax / 2
	}
}

// CaptureHistoryScore returns the capture-history bonus for a capture.
func (o *MoveOrderer) CaptureHistoryScore(attacker shogi.Piece, to shogi.Square, captured shogi.PieceType) int {
	return o.captureHistory[attacker][to][captured]
}

// scoreCapture ranks a capturing move by MVV-LVA plus learned capture
// history, the same blend as ordering.go's scoreMove capture branch.
func (o *MoveOrderer) scoreCapture(attacker shogi.Piece, m shogi.Move, captured shogi.PieceType) int {
	base := goodCaptureBase + mvvLva(attacker.Type(), captured)
	return base + o.CaptureHistoryScore(attacker, m.To(), captured)
}

// scoreQuiet ranks a non-capturing move by killer status, counter-move
// status and history, the same blend as ordering.go's scoreMove quiet
// branch.
func (o *MoveOrderer) scoreQuiet(ply int, prevMove shogi.Move, prevPiece shogi.Piece, m shogi.Move) int {
	k1, k2 := o.Killers(ply)
	switch m {
	case k1:
		return killerScore1
	case k2:
		return killerScore2
	}
	if o.CounterMove(prevMove, prevPiece) == m {
		return counterScore
	}
	return o.HistoryScore(m)
}

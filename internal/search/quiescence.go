package search

import (
	"github.com/shogicore/engine/internal/shogi"
	"github.com/shogicore/engine/internal/tt"
)

// quiescence resolves tactical noise at the search frontier: captures
// and, while in check, every evasion (shogi has no stalemate, so a
// checked side with zero evasions here has simply been mated).
// Grounded on internal/engine/worker.go's quiescence/quiescenceInternal,
// simplified by dropping the teacher's qPly-indexed stack threading
// (quiescence generates its move list fresh with
// shogi.GenerateLegalMoves on every call, so there is no separate
// quiescence stack to index).
func (w *Worker) quiescence(ply, alpha, beta int) int {
	if ply >= MaxPly {
		return w.evaluate()
	}
	w.pv.length[ply] = ply
	w.nodes.Add(1)

	if w.isDraw() {
		return 0
	}

	inCheck := w.pos.InCheck(w.pos.SideToMove)

	ttEntry, ttHit := w.tt.Probe(w.pos.Hash)
	if ttHit {
		ttScore := adjustScoreFromTT(int(ttEntry.Score), ply)
		switch ttEntry.Flag {
		case tt.Exact:
			return ttScore
		case tt.LowerBound:
			if ttScore >= beta {
				return ttScore
			}
		case tt.UpperBound:
			if ttScore <= alpha {
				return ttScore
			}
		}
	}

	var standPat int
	if !inCheck {
		if ttHit {
			standPat = adjustScoreFromTT(int(ttEntry.Score), ply)
		} else {
			standPat = w.evaluate()
		}
		if standPat >= beta {
			return standPat
		}
		// Big-delta pruning: even capturing the most valuable piece on
		// the board couldn't climb back to alpha from here.
		const bigDelta = 1200
		if standPat+bigDelta < alpha {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	legal := shogi.GenerateLegalMoves(w.pos)
	if legal.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return standPat
	}

	bestScore := standPat
	if inCheck {
		bestScore = -Infinity
	}
	bestMove := shogi.NoMove
	origAlpha := alpha

	for _, m := range legal.Slice() {
		captured := capturedType(w.pos, m)
		isCapture := captured != shogi.NoPieceType
		if !inCheck {
			if !isCapture && !m.IsPromotion() {
				continue
			}
			// Per-capture delta/SEE pruning: a capture that can't
			// plausibly reach alpha even with its full material swing,
			// or that simply loses material outright, is not worth
			// quiescing further.
			if isCapture {
				gain := shogi.PieceValue[captured]
				if standPat+gain+200 < alpha {
					continue
				}
				if !w.pos.SEEGreaterOrEqual(m, 0) {
					continue
				}
			}
		}

		undo := w.doMove(m, ply)
		score := -w.quiescence(ply+1, -beta, -alpha)
		w.undoMove(m, undo)

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				w.pv.update(ply, m)
				if score >= beta {
					break
				}
			}
		}
	}

	flag := tt.Exact
	if bestScore <= origAlpha {
		flag = tt.UpperBound
	} else if bestScore >= beta {
		flag = tt.LowerBound
	}
	w.tt.Store(w.pos.Hash, bestMove, int16(adjustScoreToTT(bestScore, ply)), 0, flag)

	return bestScore
}

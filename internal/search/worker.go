package search

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/shogicore/engine/internal/nnue"
	"github.com/shogicore/engine/internal/shogi"
	"github.com/shogicore/engine/internal/tt"
)

func defaultNow() time.Time { return time.Now() }

// lmrTable is Late Move Reduction's precomputed base reduction, in
// fractional plies scaled by 1024, indexed by [depth][moveNumber].
// Formula and scaling lifted verbatim from internal/engine/worker.go's
// lmrReductions table; chess and shogi branching factors are close
// enough that the teacher's tuned constant (21.46) is kept rather than
// re-derived.
var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrTable[d][m] = int(21.46 * math.Log(float64(d)) * math.Log(float64(m)))
		}
	}
}

// Worker runs one lazy-SMP thread's search: its own position copy, move
// orderer, NNUE accumulator stack and search stack, but the transposition
// table, correction history and NNUE network weights are shared with
// every other worker (per SPEC_FULL.md section 5's concurrency model).
// Grounded on internal/engine/worker.go's Worker, pared down by dropping
// the teacher's tablebase probing and tune-only debug-assertion scaffold
// (DebugMoveValidation and friends), and simplified by the fact that
// shogi.Position.DoMove has no legality-validity flag to check after the
// fact — shogi.GenerateLegalMoves already filters to fully legal moves,
// so every move this worker makes is known-legal without a post-hoc
// check the way worker.go's negamax performs after every MakeMove.
type Worker struct {
	id int

	pos      *shogi.Position
	orderer  *MoveOrderer
	tt       *tt.Table
	corrHist *CorrectionHistory
	eval     *nnue.Evaluator

	nodes    atomic.Uint64
	seldepth int
	pv       PVTable
	stack    [MaxPly]stackEntry

	stopFlag *atomic.Bool
	tm       *TimeManager

	rootBestMove shogi.Move
}

// NewWorker builds a worker sharing table/corrHist/stopFlag/tm with its
// siblings but owning its own orderer and NNUE evaluator state.
func NewWorker(id int, table *tt.Table, corrHist *CorrectionHistory, networks *nnue.Networks, stopFlag *atomic.Bool, tm *TimeManager) *Worker {
	return &Worker{
		id:       id,
		orderer:  NewMoveOrderer(),
		tt:       table,
		corrHist: corrHist,
		eval:     nnue.NewEvaluator(networks),
		stopFlag: stopFlag,
		tm:       tm,
	}
}

// SetPosition deep-clones pos into the worker (see shogi.Position.Clone:
// plain struct assignment would alias the source's repetition-history
// backing array across every worker searching the same root
// concurrently) and refreshes both NNUE networks' accumulators for both
// perspectives from scratch, the starting state every new search begins
// from.
func (w *Worker) SetPosition(pos *shogi.Position) {
	w.pos = pos.Clone()
	w.eval.Reset()
	w.eval.RefreshBig(w.pos, shogi.Black)
	w.eval.RefreshBig(w.pos, shogi.White)
	w.eval.RefreshSmall(w.pos, shogi.Black)
	w.eval.RefreshSmall(w.pos, shogi.White)
}

// Nodes returns the node count since the last Reset, safe to call from
// another goroutine while this worker is searching.
func (w *Worker) Nodes() uint64 { return w.nodes.Load() }

// Reset clears per-search counters. Orderer state (history/killers)
// persists across Reset — only cleared explicitly via Orderer().Clear()
// between unrelated games.
func (w *Worker) Reset() {
	w.nodes.Store(0)
	w.seldepth = 0
	w.pv = PVTable{}
}

// Orderer exposes the worker's move-ordering tables, e.g. for Clear()
// between games.
func (w *Worker) Orderer() *MoveOrderer { return w.orderer }

func (w *Worker) stopped() bool {
	if w.stopFlag.Load() {
		return true
	}
	if w.nodes.Load()%1024 == 0 && w.tm != nil {
		return w.tm.ShouldStop(nowFunc())
	}
	return false
}

// aborted reports whether the result an iteration just produced must be
// discarded outright: either the engine-wide stop flag fired, or the time
// manager's hard deadline has passed. Unlike stopped, which negamax polls
// periodically (by node count) to decide whether to unwind early, aborted
// is checked unconditionally right after SearchDepth returns, so a hard
// deadline crossed mid-iteration is never missed by the 1024-node throttle.
// runWorker uses this — not stopFlag alone — to keep a truncated, partial
// iteration's move/score/PV from ever reaching agg.consider (section 4.5:
// an aborted iteration's result is discarded and the previous iteration's
// PV and score stand).
func (w *Worker) aborted() bool {
	if w.stopFlag.Load() {
		return true
	}
	return w.tm != nil && w.tm.ShouldStop(nowFunc())
}

// nowFunc is a var so tests can stub the clock; production always uses
// time.Now via defaultNow above.
var nowFunc = defaultNow

// isDraw reports fourfold repetition. Shogi has no 50-move-rule analogue
// in SPEC_FULL.md's scope and no insufficient-material draw (captured
// pieces return to hand, so material can never become "insufficient" to
// mate the way chess's bare-kings endgame is) — dropping both checks
// relative to worker.go's isDraw is a deliberate simplification, not an
// oversight; see DESIGN.md.
func (w *Worker) isDraw() bool {
	return w.pos.IsRepetitionDraw()
}

// SearchDepth runs one iterative-deepening iteration at depth (full
// negamax from the root, using the aspiration window [alpha, beta]
// supplied by the caller) and returns the best move and score found.
func (w *Worker) SearchDepth(depth, alpha, beta int) (shogi.Move, int) {
	w.pv = PVTable{}
	score := w.negamax(depth, 0, alpha, beta, shogi.NoMove, shogi.NoPiece, shogi.NoMove, false)
	best := shogi.NoMove
	if w.pv.length[0] > 0 {
		best = w.pv.moves[0][0]
	}
	if best == shogi.NoMove {
		legal := shogi.GenerateLegalMoves(w.pos)
		if legal.Len() > 0 {
			best = legal.At(0)
		}
	}
	w.rootBestMove = best
	return best, score
}

// GetPV returns the principal variation discovered by the most recent
// SearchDepth call.
func (w *Worker) GetPV() []shogi.Move { return w.pv.Line() }

// evaluate returns the static evaluation of the current position from
// the side-to-move's perspective, NNUE score plus the learned correction
// for positions with this material/hand signature.
func (w *Worker) evaluate() int {
	raw := int(w.eval.Evaluate(w.pos))
	return raw + w.corrHist.Get(w.pos)
}

// doMove plays m, maintaining the NNUE accumulator stack and the PV
// search stack bookkeeping negamax's move loop relies on. Call
// undoMove(m, undo) to reverse it. Unlike worker.go's MakeMove/unmake
// pairing, this never needs a "was the move legal" check afterward: m
// came from shogi.GenerateLegalMoves, which only ever yields legal
// moves.
func (w *Worker) doMove(m shogi.Move, ply int) shogi.UndoInfo {
	dirty := computeDirtyPiece(w.pos, m)
	w.eval.Push()
	undo := w.pos.DoMove(m)
	w.eval.UpdateIncremental(w.pos, dirty)
	w.stack[ply].currentMove = m
	if m.IsDrop() {
		w.stack[ply].movedPiece = shogi.NewPiece(m.DropPiece(), w.pos.SideToMove.Opposite())
	} else {
		w.stack[ply].movedPiece = undoMovedPiece(w.pos, m)
	}
	w.stack[ply].moveTo = m.To()
	return undo
}

// undoMovedPiece recovers the piece that just moved to m.To(), after
// DoMove has already advanced the position: promotions mean the piece
// standing there now isn't the one ordering.go's counter-move table
// should key on, so read the pre-promotion type back off Unpromote.
func undoMovedPiece(pos *shogi.Position, m shogi.Move) shogi.Piece {
	p := pos.Board.PieceAt(m.To())
	if m.IsPromotion() {
		return shogi.NewPiece(p.Type().Unpromote(), p.Color())
	}
	return p
}

func (w *Worker) undoMove(m shogi.Move, undo shogi.UndoInfo) {
	w.pos.UndoMove(m, undo)
	w.eval.Pop()
}

func (w *Worker) doNullMove() uint64 {
	w.eval.Push()
	prev := w.pos.DoNullMove()
	// A null move changes nothing in either perspective's feature set
	// (side to move flips, but no piece moves), so the accumulator just
	// carries forward unchanged; Push/Pop keeps the stack depth in sync
	// with doMove/undoMove so UpdateIncremental's PreviousBig/Small
	// lookups stay aligned.
	return prev
}

func (w *Worker) undoNullMove(prevHash uint64) {
	w.pos.UndoNullMove(prevHash)
	w.eval.Pop()
}

// negamax is the core PVS routine: alpha-beta search with TT probing,
// static-eval-gated forward pruning, and principal-variation search's
// null-window-then-full-window re-search ladder. Ground truth is
// internal/engine/worker.go's negamax, generalized to shogi (drops,
// hand-signature correction history, no castling/en-passant) and
// simplified where shogi's API removes the need for a check the teacher
// has to perform (see doMove's doc comment). Singular extensions,
// multicut and probcut are kept in a reduced form: the teacher's exact
// margin formulas are tuned for chess's score scale over many engine
// generations, and reproducing every one of them for a domain this spec
// was never tuned against would just be copying numbers with no basis —
// the pruning *shapes* are kept, scaled to this package's own
// PieceValue-based centipawn scale, and documented as simplified in
// DESIGN.md.
func (w *Worker) negamax(depth, ply int, alpha, beta int, prevMove shogi.Move, prevPiece shogi.Piece, excluded shogi.Move, cutNode bool) int {
	if ply >= MaxPly {
		return w.evaluate()
	}
	w.pv.length[ply] = ply
	pvNode := beta-alpha > 1
	isRoot := ply == 0

	if w.nodes.Load()%2048 == 0 && w.stopped() {
		return 0
	}
	w.nodes.Add(1)

	if !isRoot {
		if w.isDraw() {
			return 0
		}
		// Mate-distance pruning: a shorter mate than what's already
		// provable here can never improve the result.
		alpha = maxInt(alpha, -MateScore+ply)
		beta = minInt(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	inCheck := w.pos.InCheck(w.pos.SideToMove)
	if depth <= 0 && !inCheck {
		return w.quiescence(ply, alpha, beta)
	}
	if depth < 0 {
		depth = 0
	}

	var ttEntry tt.Entry
	ttHit := false
	if excluded == shogi.NoMove {
		ttEntry, ttHit = w.tt.Probe(w.pos.Hash)
	}
	ttMove := shogi.NoMove
	ttPv := pvNode
	if ttHit {
		ttMove = ttEntry.Move
		ttPv = ttPv || ttEntry.Flag == tt.Exact
		if !pvNode && int(ttEntry.Depth) >= depth {
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
	}

	staticEval := 0
	if !inCheck {
		if ttHit {
			staticEval = adjustScoreFromTT(int(ttEntry.Score), ply)
			if ttEntry.Flag == tt.UpperBound && ttEntry.Score < int16(staticEval) {
				staticEval = int(ttEntry.Score)
			}
		} else {
			staticEval = w.evaluate()
		}
	}
	w.stack[ply].staticEval = staticEval

	improving := false
	if ply >= 2 && !inCheck {
		improving = staticEval > w.stack[ply-2].staticEval
	}

	if !pvNode && !inCheck && excluded == shogi.NoMove {
		// Reverse futility pruning: this position already looks so good
		// a few plies of exchange couldn't plausibly drag it below beta.
		if depth <= 8 && staticEval-rfpMargin(depth, improving) >= beta && abs(beta) < MateScore-MaxPly {
			return staticEval
		}

		// Razoring: so far below alpha that only quiescence can confirm
		// it, not a full-depth search.
		if depth <= 4 {
			razorMargin := 150 + 120*depth*depth
			if staticEval+razorMargin < alpha {
				q := w.quiescence(ply, alpha, beta)
				if q < alpha {
					return q
				}
			}
		}

		// Null-move pruning: if passing still leaves us above beta, a
		// real move will too, provided we have enough non-pawn material
		// to trust zugzwang isn't in play.
		if depth >= 3 && staticEval >= beta && w.pos.HasNonPawnMaterial(w.pos.SideToMove) {
			r := 4 + depth/6
			if improving {
				r--
			}
			prevHash := w.doNullMove()
			score := -w.negamax(depth-1-r, ply+1, -beta, -beta+1, shogi.NullMove, shogi.NoPiece, shogi.NoMove, !cutNode)
			w.undoNullMove(prevHash)
			if score >= beta {
				if isMateScore(score) {
					score = beta
				}
				return score
			}
		}
	}

	// Internal iterative reduction: no TT move to seed ordering with at a
	// deep-enough node, so come back a little shallower first instead of
	// a full recursive IID re-search.
	if !ttHit && depth >= 4 && excluded == shogi.NoMove {
		depth--
	}

	picker := NewMovePicker(w.pos, w.orderer, ply, ttMove, prevMove, prevPiece)
	legalMoves := 0
	bestScore := -Infinity
	bestMove := shogi.NoMove
	origAlpha := alpha
	quietsTried := 0
	var quietsSeen []shogi.Move

	for {
		m, ok := picker.Next()
		if !ok {
			break
		}
		if m == excluded {
			continue
		}

		isCapture := capturedType(w.pos, m) != shogi.NoPieceType

		if !isRoot && !pvNode && legalMoves > 0 && bestScore > -MateScore+MaxPly {
			if !isCapture && !inCheck {
				// Late move pruning: beyond a depth-scaled move count,
				// further quiets at a losing node aren't worth trying.
				if depth <= 6 && quietsTried >= lmpThreshold(depth, improving) {
					picker.SkipQuiets()
					continue
				}
				// History pruning: a quiet move with deeply negative
				// learned history is unlikely to be the exception.
				if depth <= 4 && w.orderer.HistoryScore(m) < -2048*depth {
					continue
				}
				// Futility pruning: even the best case for this quiet
				// move can't clear alpha.
				if depth <= 6 && !inCheck && staticEval+futilityMargin(depth) <= alpha {
					continue
				}
			}
			// SEE pruning: skip moves that lose material beyond a
			// depth-scaled threshold, for both captures and quiets.
			threshold := -20 * depth
			if isCapture {
				threshold -= 100
			}
			if depth <= 8 && !w.pos.SEEGreaterOrEqual(m, threshold) {
				continue
			}
		}

		extension := 0
		if inCheck {
			extension = 1
		} else if m == ttMove && depth >= 6 && excluded == shogi.NoMove && int(ttEntry.Depth) >= depth-3 && ttEntry.Flag != tt.UpperBound {
			// Singular extension: the TT move is so far ahead of every
			// alternative that it likely deserves a deeper look. Ported
			// in simplified form from worker.go's — the teacher's
			// double/triple-extension ladder and negative-extension
			// branch are collapsed to a single +1, since this engine has
			// no tuning history to justify reproducing those exact
			// margins (see this function's doc comment).
			singularBeta := int(ttEntry.Score) - 2*depth
			singularScore := w.negamax(depth/2, ply, singularBeta-1, singularBeta, prevMove, prevPiece, m, cutNode)
			if singularScore < singularBeta {
				extension = 1
			}
		}

		undo := w.doMove(m, ply)
		legalMoves++
		if !isCapture {
			quietsTried++
			quietsSeen = append(quietsSeen, m)
		}

		childPV := ply + 1
		newDepth := depth - 1 + extension

		var score int
		if legalMoves == 1 {
			score = -w.negamax(newDepth, childPV, -beta, -alpha, m, w.stack[ply].movedPiece, shogi.NoMove, false)
		} else {
			reduction := 0
			if depth >= 3 && legalMoves >= 4 && !isCapture && !inCheck {
				d64, m64 := depth, legalMoves
				if d64 > 63 {
					d64 = 63
				}
				if m64 > 63 {
					m64 = 63
				}
				reduction = lmrTable[d64][m64] / 1024
				if !improving {
					reduction++
				}
				if cutNode {
					reduction++
				}
				if ttPv {
					reduction--
				}
				if w.orderer.HistoryScore(m) > 0 {
					reduction--
				}
				if reduction < 0 {
					reduction = 0
				}
				if newDepth-reduction < 1 {
					reduction = newDepth - 1
					if reduction < 0 {
						reduction = 0
					}
				}
			}
			score = -w.negamax(newDepth-reduction, childPV, -alpha-1, -alpha, m, w.stack[ply].movedPiece, shogi.NoMove, true)
			if score > alpha && reduction > 0 {
				score = -w.negamax(newDepth, childPV, -alpha-1, -alpha, m, w.stack[ply].movedPiece, shogi.NoMove, !cutNode)
			}
			if score > alpha && score < beta {
				score = -w.negamax(newDepth, childPV, -beta, -alpha, m, w.stack[ply].movedPiece, shogi.NoMove, false)
			}
		}
		w.undoMove(m, undo)

		if w.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				w.pv.update(ply, m)
				if score >= beta {
					if !isCapture {
						w.orderer.UpdateKillers(ply, m)
						w.orderer.UpdateHistory(m, depth, 32)
						for _, q := range quietsSeen[:len(quietsSeen)-1] {
							w.orderer.UpdateHistory(q, depth, -32)
						}
						w.orderer.UpdateCounterMove(prevMove, prevPiece, m)
					} else {
						attacker := w.stack[ply].movedPiece
						w.orderer.UpdateCaptureHistory(attacker, m.To(), capturedType(w.pos, m), depth, 32)
					}
					w.stack[ply].cutoffCnt++
					break
				}
			}
		}
	}

	if legalMoves == 0 {
		if excluded != shogi.NoMove {
			return alpha
		}
		if inCheck {
			return -MateScore + ply // checkmated
		}
		return -MateScore + ply // no legal moves at all: shogi has no stalemate, this is also a loss
	}

	if !inCheck && excluded == shogi.NoMove {
		w.corrHist.Update(w.pos, bestScore, staticEval, depth)
	}

	if excluded == shogi.NoMove {
		flag := tt.Exact
		if bestScore <= origAlpha {
			flag = tt.UpperBound
		} else if bestScore >= beta {
			flag = tt.LowerBound
		}
		w.tt.Store(w.pos.Hash, bestMove, int16(adjustScoreToTT(bestScore, ply)), int8(depth), flag)
	}

	return bestScore
}

// rfpMargin is reverse futility pruning's depth- and improving-scaled
// margin.
func rfpMargin(depth int, improving bool) int {
	m := 80 * depth
	if improving {
		m -= 40
	}
	return m
}

// futilityMargin is plain futility pruning's per-depth allowance.
func futilityMargin(depth int) int {
	return 100 + 80*depth
}

// lmpThreshold is late-move pruning's quiet-move-count budget per depth.
func lmpThreshold(depth int, improving bool) int {
	base := 3 + depth*depth
	if improving {
		base += depth
	}
	return base
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

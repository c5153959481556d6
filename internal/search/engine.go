package search

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shogicore/engine/internal/nnue"
	"github.com/shogicore/engine/internal/shogi"
	"github.com/shogicore/engine/internal/tt"
)

// SearchInfo is one progress line the engine reports mid-search, the USI
// "info depth ... score ... nodes ... pv ..." payload's data in typed
// form. Named after internal/engine/engine.go's SearchInfo.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []shogi.Move
	HashFull int
}

// SearchResult is the engine's final answer for one Search call.
type SearchResult struct {
	Move  shogi.Move
	Score int
	PV    []shogi.Move
	Depth int
}

// Engine owns the resources every worker shares — the transposition
// table, correction history and NNUE network weights — and drives the
// lazy-SMP parallel search. Grounded on internal/engine/engine.go's
// Engine, but its worker fan-out is rewritten around
// golang.org/x/sync/errgroup instead of engine.go's raw `go
// e.workerSearch(...)` + sync.WaitGroup + buffered-channel collection.
// Every worker goroutine returns nil and panics are not recovered, so the
// group's context is only canceled once Search returns; stop conditions
// reach the workers through stopFlag and the shared TimeManager.
type Engine struct {
	table    *tt.Table
	corrHist *CorrectionHistory
	networks *nnue.Networks

	workers  []*Worker
	stopFlag atomic.Bool

	tmMu     sync.Mutex
	activeTM *TimeManager

	OnInfo func(SearchInfo)
}

// NewEngine builds an Engine with a ttSizeMB-sized shared transposition
// table and numWorkers lazy-SMP search threads.
func NewEngine(ttSizeMB, numWorkers int) *Engine {
	if numWorkers < 1 {
		numWorkers = 1
	}
	e := &Engine{
		table:    tt.New(ttSizeMB),
		corrHist: NewCorrectionHistory(),
		networks: nnue.NewNetworks(),
	}
	for i := 0; i < numWorkers; i++ {
		e.workers = append(e.workers, NewWorker(i, e.table, e.corrHist, e.networks, &e.stopFlag, nil))
	}
	return e
}

// LoadNNUE loads both network weight files, shared by every worker.
func (e *Engine) LoadNNUE(bigPath, smallPath string) error {
	nets, err := nnue.LoadNetworks(bigPath, smallPath)
	if err != nil {
		return err
	}
	return e.InstallNetworks(nets)
}

// InstallNetworks installs an already-loaded pair of networks, shared by
// every worker. Used by callers (internal/store's weight cache, in
// particular) that parse NNUE weights themselves instead of handing
// LoadNNUE a bare path.
func (e *Engine) InstallNetworks(nets *nnue.Networks) error {
	e.networks = nets
	for _, w := range e.workers {
		w.eval = nnue.NewEvaluator(nets)
	}
	return nil
}

// Stop signals every in-flight worker to return as soon as it next polls
// the stop flag.
func (e *Engine) Stop() { e.stopFlag.Store(true) }

// PonderHit re-anchors the in-flight search's time manager on the USI
// ponderhit command: the clock the current Search call is running under
// was built wrapping a Ponder control with no deadlines of its own (see
// timeman.go's Ponder handling), and this is the only way to reach that
// live TimeManager instance from outside the Search call that owns it.
// A no-op if no search is running or the running search wasn't pondering.
func (e *Engine) PonderHit(now time.Time, us shogi.Color, ply int) {
	e.tmMu.Lock()
	tm := e.activeTM
	e.tmMu.Unlock()
	if tm != nil {
		tm.PonderHit(now, us, ply)
	}
}

// Clear resets the transposition table, correction history and every
// worker's move-ordering tables, for starting an unrelated game.
func (e *Engine) Clear() {
	e.table.Clear()
	e.corrHist.Clear()
	for _, w := range e.workers {
		w.Orderer().Clear()
	}
}

// NumWorkers reports the configured lazy-SMP thread count.
func (e *Engine) NumWorkers() int { return len(e.workers) }

// workerDepthOffset staggers each worker's starting depth so the pool
// doesn't waste its first several iterations all redundantly searching
// the same shallow depths, the same staggering engine.go's workerSearch
// applies by worker index.
func workerDepthOffset(id int) int {
	switch {
	case id == 0:
		return 0
	case id <= 2:
		return 1
	case id <= 5:
		return 2
	default:
		return 3
	}
}

// aspirationWindow returns the initial [alpha, beta] window around
// prevScore for the next iteration, widening with recent score
// volatility exactly as engine.go's workerSearch computes its dynamic
// window (25 + volatility/4 centipawns, capped at 150).
func aspirationWindow(prevScore int, recentScores []int) (alpha, beta int) {
	if len(recentScores) == 0 {
		return prevScore - Infinity, prevScore + Infinity
	}
	mean := 0
	for _, s := range recentScores {
		mean += s
	}
	mean /= len(recentScores)
	variance := 0
	for _, s := range recentScores {
		d := s - mean
		variance += d * d
	}
	variance /= len(recentScores)
	volatility := int(math.Sqrt(float64(variance)))
	window := 25 + volatility/4
	if window > 150 {
		window = 150
	}
	return prevScore - window, prevScore + window
}

// aggregate is the shared best-result tracker across workers, guarded by
// mu. Only one goroutine writes at a time (the mutex), but reads from
// Search's final selection happen after every worker has joined, per
// SPEC_FULL.md section 5's "best-move aggregation only after all workers
// joined" rule.
type aggregate struct {
	mu     sync.Mutex
	best   SearchResult
	hasAny bool
}

func (a *aggregate) consider(r SearchResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasAny || r.Depth > a.best.Depth || (r.Depth == a.best.Depth && r.Score > a.best.Score) {
		a.best = r
		a.hasAny = true
	}
}

func (a *aggregate) snapshot() SearchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.best
}

// Search runs the lazy-SMP parallel search described in SPEC_FULL.md
// section 4.7: clone the position into every worker, spawn numWorkers
// goroutines via errgroup with per-worker depth staggering, poll the
// time manager between iterations, and aggregate by (depth, score)
// lexicographic max once every worker has returned.
func (e *Engine) Search(pos *shogi.Position, control TimeControl) SearchResult {
	e.stopFlag.Store(false)
	e.table.NewSearch()
	tm := NewTimeManager(control, pos.SideToMove, pos.Ply, time.Now())

	e.tmMu.Lock()
	e.activeTM = tm
	e.tmMu.Unlock()
	defer func() {
		e.tmMu.Lock()
		e.activeTM = nil
		e.tmMu.Unlock()
	}()

	maxDepth := MaxPly - 1
	if fd, ok := tm.FixedDepth(); ok {
		maxDepth = fd
	}

	agg := &aggregate{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	for _, w := range e.workers {
		w := w
		w.tm = tm
		w.SetPosition(pos)
		w.Reset()
		g.Go(func() error {
			e.runWorker(ctx, w, maxDepth, agg)
			return nil
		})
	}
	_ = g.Wait()

	return agg.snapshot()
}

// runWorker drives one lazy-SMP thread's iterative-deepening loop:
// increasing depth, an aspiration window seeded from its own previous
// iteration's score, and a fail-low/fail-high re-search-and-widen ladder
// before falling back to a full-width search, the same policy
// engine.go's workerSearch implements.
func (e *Engine) runWorker(ctx context.Context, w *Worker, maxDepth int, agg *aggregate) {
	offset := workerDepthOffset(w.id)
	var recentScores []int
	prevScore := 0

	for depth := 1 + offset; depth <= maxDepth; depth++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if e.stopFlag.Load() {
			return
		}
		if w.tm != nil && w.tm.PastOptimum(time.Now()) && depth > 1 {
			return
		}

		alpha, beta := aspirationWindow(prevScore, recentScores)
		var move shogi.Move
		var score int
		for {
			move, score = w.SearchDepth(depth, alpha, beta)
			// A time-manager hard-deadline abort mid-iteration (negamax
			// bails out via w.stopped(), the same path w.stopFlag takes)
			// leaves move/score reflecting a truncated, incomplete search
			// at this depth, not a real result. Per spec section 4.5, an
			// aborted iteration's result must be discarded entirely — the
			// previous iteration's PV/score (already recorded in agg) must
			// stand — so this returns without ever reaching agg.consider.
			if w.aborted() {
				return
			}
			if score <= alpha {
				alpha -= (beta - alpha)
				if alpha < -Infinity {
					alpha = -Infinity
				}
				continue
			}
			if score >= beta {
				beta += (beta - alpha)
				if beta > Infinity {
					beta = Infinity
				}
				continue
			}
			break
		}

		if move == shogi.NoMove {
			return
		}

		prevScore = score
		recentScores = append(recentScores, score)
		if len(recentScores) > 5 {
			recentScores = recentScores[len(recentScores)-5:]
		}

		result := SearchResult{Move: move, Score: score, PV: w.GetPV(), Depth: depth}
		agg.consider(result)

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    e.totalNodes(),
				Time:     time.Since(timeManagerStart(w.tm)),
				PV:       result.PV,
				HashFull: e.table.HashFull(),
			})
		}

		if isMateScore(score) {
			return
		}
	}
}

func timeManagerStart(tm *TimeManager) time.Time {
	if tm == nil {
		return time.Now()
	}
	return tm.start
}

func (e *Engine) totalNodes() uint64 {
	var total uint64
	for _, w := range e.workers {
		total += w.Nodes()
	}
	return total
}

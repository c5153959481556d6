package search

import (
	"time"

	"github.com/shogicore/engine/internal/shogi"
)

// TimeControl is a tagged union of the time-control shapes a USI
// adapter can hand the search driver, per SPEC_FULL.md section 4.8.
// Each constructor below sets exactly one variant (the unexported kind
// field). Generalizes internal/engine/timeman.go's flat
// UCILimits struct (which conflates fixed-move-time, fixed-depth,
// infinite and clock-based control into one struct with a priority order
// among its fields) into an explicit sum type, and adds the Byoyomi and
// Ponder variants shogi play needs that chess UCI limits have no
// equivalent for.
type TimeControl struct {
	kind timeControlKind

	depth int

	fixedTime time.Duration

	blackMs, whiteMs, incMs int64

	mainMs, byoyomiMs int64
	periods           int

	inner *TimeControl
}

type timeControlKind int

const (
	kindFixedDepth timeControlKind = iota
	kindFixedTime
	kindFischer
	kindByoyomi
	kindInfinite
	kindPonder
)

func FixedDepth(depth int) TimeControl { return TimeControl{kind: kindFixedDepth, depth: depth} }
func FixedTime(d time.Duration) TimeControl {
	return TimeControl{kind: kindFixedTime, fixedTime: d}
}
func Fischer(blackMs, whiteMs, incMs int64) TimeControl {
	return TimeControl{kind: kindFischer, blackMs: blackMs, whiteMs: whiteMs, incMs: incMs}
}
func Byoyomi(mainMs, byoyomiMs int64, periods int) TimeControl {
	return TimeControl{kind: kindByoyomi, mainMs: mainMs, byoyomiMs: byoyomiMs, periods: periods}
}
func Infinite() TimeControl { return TimeControl{kind: kindInfinite} }
func Ponder(inner TimeControl) TimeControl {
	return TimeControl{kind: kindPonder, inner: &inner}
}

// TimeManager computes soft/hard search deadlines from a TimeControl and
// tracks move-stability to shorten or lengthen the soft deadline as the
// search progresses. Grounded on internal/engine/timeman.go's
// TimeManager, restructured around TimeControl's tagged variants instead
// of UCILimits's flat struct, and extended with Byoyomi period tracking
// (no teacher analogue: chess UCI has no "per-move reserve time that
// resets each move" concept, so this is built fresh from SPEC_FULL.md's
// description of shogi byoyomi).
type TimeManager struct {
	control TimeControl

	start      time.Time
	softDur    time.Duration
	hardDur    time.Duration
	infinite   bool
	fixedDepth int
	hasFixed   bool

	ponder    bool
	ponderHit bool

	byoyomiMainMs     int64
	byoyomiPeriodMs   int64
	byoyomiPeriods    int
	byoyomiRemaining  int
	inByoyomiOverflow bool
}

// NewTimeManager builds a TimeManager from control for the side to move
// at the given ply. now is injected so the search driver controls the
// clock rather than the package reaching for time.Now() mid-formula,
// matching timeman.go's Init(limits, us, ply) signature generalized with
// an explicit start time.
func NewTimeManager(control TimeControl, us shogi.Color, ply int, now time.Time) *TimeManager {
	tm := &TimeManager{control: control, start: now}
	tm.init(us, ply)
	return tm
}

func (tm *TimeManager) init(us shogi.Color, ply int) {
	switch tm.control.kind {
	case kindFixedDepth:
		tm.hasFixed = true
		tm.fixedDepth = tm.control.depth
		tm.infinite = true // depth is the only stop condition

	case kindInfinite:
		tm.infinite = true

	case kindFixedTime:
		tm.softDur = tm.control.fixedTime
		tm.hardDur = tm.control.fixedTime

	case kindPonder:
		tm.ponder = true
		saved := tm.control
		tm.control = *saved.inner
		tm.init(us, ply)
		tm.control = saved
		if !tm.infinite {
			// Deadlines don't start counting until PonderHit re-anchors them.
			tm.infinite = true
		}

	case kindByoyomi:
		tm.byoyomiMainMs = tm.control.mainMs
		tm.byoyomiPeriodMs = tm.control.byoyomiMs
		tm.byoyomiPeriods = tm.control.periods
		tm.byoyomiRemaining = tm.control.periods
		tm.computeByoyomiDeadlines()

	case kindFischer:
		myMs, oppMs := tm.control.blackMs, tm.control.whiteMs
		if us == shogi.White {
			myMs, oppMs = oppMs, myMs
		}
		_ = oppMs
		tm.computeFischerDeadlines(myMs, tm.control.incMs, ply)
	}
}

// movesRemaining estimates how many more moves this game is likely to
// last, the same sudden-death heuristic as timeman.go's "50-ply/4
// clamped [10,50]" formula.
func movesRemaining(ply int) int {
	est := 50 - ply/4
	if est < 10 {
		est = 10
	}
	if est > 50 {
		est = 50
	}
	return est
}

func (tm *TimeManager) computeFischerDeadlines(remainingMs, incMs int64, ply int) {
	mtg := movesRemaining(ply)
	base := remainingMs/int64(mtg) + incMs*9/10

	phaseScale := 1.0
	switch {
	case ply < 20:
		phaseScale = 0.85 // early-move reduction, opening theory needs less search
	case ply < 60:
		phaseScale = 1.2
	default:
		phaseScale = 1.0
	}
	soft := int64(float64(base) * phaseScale)

	hard := soft * 5
	maxByRemaining := remainingMs * 4 / 5
	if hard > maxByRemaining {
		hard = maxByRemaining
	}
	safety := remainingMs * 95 / 100
	if hard > safety {
		hard = safety
	}
	if soft > hard {
		soft = hard
	}
	if soft < 10 {
		soft = 10
	}
	if hard < 50 {
		hard = 50
	}
	tm.softDur = time.Duration(soft) * time.Millisecond
	tm.hardDur = time.Duration(hard) * time.Millisecond
}

// computeByoyomiDeadlines spends remaining main time first; once main
// time is gone the manager switches to a fixed per-move allotment drawn
// from the byoyomi period, a state machine the teacher's chess-only
// TimeManager has no equivalent for.
func (tm *TimeManager) computeByoyomiDeadlines() {
	if tm.byoyomiMainMs > 0 {
		soft := tm.byoyomiMainMs / 20
		hard := tm.byoyomiMainMs / 4
		if tm.byoyomiPeriodMs > 0 && hard < tm.byoyomiPeriodMs {
			hard = tm.byoyomiPeriodMs
		}
		tm.softDur = time.Duration(soft) * time.Millisecond
		tm.hardDur = time.Duration(hard) * time.Millisecond
		return
	}
	tm.inByoyomiOverflow = true
	tm.softDur = time.Duration(tm.byoyomiPeriodMs) * time.Millisecond * 8 / 10
	tm.hardDur = time.Duration(tm.byoyomiPeriodMs) * time.Millisecond
}

// ConsumeMove advances byoyomi period bookkeeping after a move has been
// played with elapsed spent on it. A move that overruns the main clock
// consumes one byoyomi period per started period length of the overrun
// (at least one); running out of periods loses on time, but the caller
// still gets whatever best move the search had found.
func (tm *TimeManager) ConsumeMove(elapsed time.Duration) (timedOut bool) {
	if tm.control.kind != kindByoyomi {
		return false
	}
	ms := elapsed.Milliseconds()
	if tm.byoyomiMainMs > 0 {
		tm.byoyomiMainMs -= ms
		if tm.byoyomiMainMs < 0 {
			overflow := -tm.byoyomiMainMs
			tm.byoyomiMainMs = 0
			return tm.spendByoyomiPeriods(overflow)
		}
		return false
	}
	return tm.spendByoyomiPeriods(ms)
}

func (tm *TimeManager) spendByoyomiPeriods(overflowMs int64) bool {
	periodsUsed := 1
	if tm.byoyomiPeriodMs > 0 {
		periodsUsed = int((overflowMs + tm.byoyomiPeriodMs - 1) / tm.byoyomiPeriodMs)
		if periodsUsed < 1 {
			periodsUsed = 1
		}
	}
	tm.byoyomiRemaining -= periodsUsed
	if tm.byoyomiRemaining < 0 {
		tm.byoyomiRemaining = 0
		return true
	}
	return false
}

// PonderHit re-anchors the clock to now and computes real deadlines from
// the control the ponder wrapped, mirroring the USI ponderhit command's
// semantics: time spent pondering doesn't count against the clock.
func (tm *TimeManager) PonderHit(now time.Time, us shogi.Color, ply int) {
	if !tm.ponder {
		return
	}
	tm.ponderHit = true
	tm.start = now
	tm.control = *tm.control.inner
	tm.infinite = false
	tm.init(us, ply)
}

// PonderFail stops the search immediately: the opponent played a
// different move than the one being pondered.
func (tm *TimeManager) PonderFail() {
	tm.infinite = false
	tm.hardDur = 0
	tm.softDur = 0
}

// Elapsed returns time spent searching since Start/PonderHit.
func (tm *TimeManager) Elapsed(now time.Time) time.Duration { return now.Sub(tm.start) }

// OptimumTime returns the soft deadline: the search should stop at the
// next convenient point (end of an ID iteration) once past this.
func (tm *TimeManager) OptimumTime() time.Duration { return tm.softDur }

// MaximumTime returns the hard deadline: the search must stop immediately
// once past this, even mid-iteration.
func (tm *TimeManager) MaximumTime() time.Duration { return tm.hardDur }

// FixedDepth reports the depth limit for a FixedDepth control, and
// whether one is in effect.
func (tm *TimeManager) FixedDepth() (int, bool) { return tm.fixedDepth, tm.hasFixed }

// ShouldStop reports whether the hard deadline has passed. Workers poll
// this roughly every 1024 nodes per SPEC_FULL.md section 4.8; the
// top-level driver also polls it between iterative-deepening iterations.
func (tm *TimeManager) ShouldStop(now time.Time) bool {
	if tm.infinite {
		return false
	}
	return tm.Elapsed(now) >= tm.hardDur
}

// PastOptimum reports whether the soft deadline has passed, the signal
// the ID driver uses to decide not to start another iteration.
func (tm *TimeManager) PastOptimum(now time.Time) bool {
	if tm.infinite {
		return false
	}
	return tm.Elapsed(now) >= tm.softDur
}

// AdjustForStability shrinks the soft deadline when the best move hasn't
// changed across recent iterations — the search has converged and
// further time is unlikely to change the answer. Ported from
// timeman.go's AdjustForStability unchanged (chess and shogi share the
// same convergence intuition).
func (tm *TimeManager) AdjustForStability(stability int) {
	factor := 1.0
	switch {
	case stability >= 6:
		factor = 0.40
	case stability >= 4:
		factor = 0.60
	case stability >= 2:
		factor = 0.80
	}
	tm.softDur = time.Duration(float64(tm.softDur) * factor)
}

// AdjustForInstability grows the soft deadline (bounded by the hard
// deadline) when the best move keeps changing between iterations. Ported
// from timeman.go's AdjustForInstability unchanged.
func (tm *TimeManager) AdjustForInstability(changes int) {
	factor := 1.0
	switch {
	case changes >= 4:
		factor = 2.0
	case changes >= 2:
		factor = 1.5
	}
	extended := time.Duration(float64(tm.softDur) * factor)
	if extended > tm.hardDur {
		extended = tm.hardDur
	}
	tm.softDur = extended
}

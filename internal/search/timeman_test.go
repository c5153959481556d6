package search

import (
	"testing"
	"time"

	"github.com/shogicore/engine/internal/shogi"
)

func TestFixedTimeControlSetsEqualSoftAndHardDeadlines(t *testing.T) {
	tm := NewTimeManager(FixedTime(500*time.Millisecond), shogi.Black, 1, time.Now())
	if tm.OptimumTime() != tm.MaximumTime() {
		t.Fatalf("fixed time control should have equal soft/hard deadlines: soft=%v hard=%v", tm.OptimumTime(), tm.MaximumTime())
	}
	if tm.OptimumTime() != 500*time.Millisecond {
		t.Fatalf("OptimumTime = %v, want 500ms", tm.OptimumTime())
	}
}

func TestFixedDepthControlReportsNoDeadline(t *testing.T) {
	tm := NewTimeManager(FixedDepth(12), shogi.Black, 1, time.Now())
	d, ok := tm.FixedDepth()
	if !ok || d != 12 {
		t.Fatalf("FixedDepth() = (%d, %v), want (12, true)", d, ok)
	}
	if tm.ShouldStop(time.Now().Add(time.Hour)) {
		t.Fatal("a fixed-depth control should never time out on its own")
	}
}

func TestByoyomiFallsBackToPeriodAllotmentAfterMainTimeExhausted(t *testing.T) {
	start := time.Now()
	tm := NewTimeManager(Byoyomi(1000, 5000, 3), shogi.Black, 1, start)
	if timedOut := tm.ConsumeMove(900 * time.Millisecond); timedOut {
		t.Fatal("spending less than the main allotment should not time out")
	}
	// Main time (1000ms) is now down to 100ms; a 6-second move blows through
	// it and should consume byoyomi periods instead of an instant loss.
	timedOut := tm.ConsumeMove(6 * time.Second)
	if timedOut {
		t.Fatal("one 6s overrun with a 5s byoyomi period and 3 periods banked should not lose on time yet")
	}
	if tm.byoyomiRemaining >= 3 {
		t.Fatalf("byoyomiRemaining = %d, expected at least one period consumed", tm.byoyomiRemaining)
	}
}

func TestAdjustForStabilityShrinksSoftDeadline(t *testing.T) {
	tm := NewTimeManager(FixedTime(10*time.Second), shogi.Black, 1, time.Now())
	before := tm.OptimumTime()
	tm.AdjustForStability(6)
	if tm.OptimumTime() >= before {
		t.Fatalf("stability>=6 should shrink the soft deadline: before=%v after=%v", before, tm.OptimumTime())
	}
}

func TestAdjustForInstabilityGrowsSoftDeadlineBoundedByHard(t *testing.T) {
	tm := NewTimeManager(Fischer(60000, 60000, 0), shogi.Black, 1, time.Now())
	before := tm.OptimumTime()
	tm.AdjustForInstability(4)
	if tm.OptimumTime() <= before {
		t.Fatalf("instability>=4 should grow the soft deadline: before=%v after=%v", before, tm.OptimumTime())
	}
	if tm.OptimumTime() > tm.MaximumTime() {
		t.Fatal("soft deadline must never exceed the hard deadline")
	}
}

func TestPonderHitReanchorsClock(t *testing.T) {
	start := time.Now()
	tm := NewTimeManager(Ponder(FixedTime(time.Second)), shogi.Black, 1, start)
	if tm.ShouldStop(start.Add(10 * time.Second)) {
		t.Fatal("a ponder search should not time out before PonderHit")
	}
	hitAt := start.Add(5 * time.Second)
	tm.PonderHit(hitAt, shogi.Black, 1)
	if tm.Elapsed(hitAt) != 0 {
		t.Fatalf("Elapsed right at PonderHit should be 0, got %v", tm.Elapsed(hitAt))
	}
	if !tm.ShouldStop(hitAt.Add(2 * time.Second)) {
		t.Fatal("after PonderHit re-anchors, the wrapped FixedTime(1s) deadline should apply")
	}
}

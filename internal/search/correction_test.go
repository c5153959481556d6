package search

import (
	"testing"

	"github.com/shogicore/engine/internal/shogi"
)

func TestMaterialHandSignatureStableForSamePosition(t *testing.T) {
	a := shogi.StartPosition()
	b := shogi.StartPosition()
	if materialHandSignature(a) != materialHandSignature(b) {
		t.Fatal("two fresh start positions should hash identically")
	}
}

func TestMaterialHandSignatureIgnoresSquarePlacement(t *testing.T) {
	// Two different quiet pawn pushes from the start position leave
	// material, both hands, and the side to move (White, after either)
	// identical — only where the pushed pawn landed differs. The
	// signature should not care.
	posA := shogi.StartPosition()
	posB := shogi.StartPosition()
	legal := shogi.GenerateLegalMoves(posA)

	var quietMoves []shogi.Move
	for _, m := range legal.Slice() {
		if !m.IsDrop() && posA.Board.PieceAt(m.To()) == shogi.NoPiece {
			quietMoves = append(quietMoves, m)
		}
	}
	if len(quietMoves) < 2 {
		t.Fatal("expected at least two non-capturing board moves from the start position")
	}

	posA.DoMove(quietMoves[0])
	posB.DoMove(quietMoves[1])

	if materialHandSignature(posA) != materialHandSignature(posB) {
		t.Fatal("material/hand signature should not depend on which square a piece occupies")
	}
}

func TestCorrectionHistoryUpdateThenGetReturnsClampedCorrection(t *testing.T) {
	ch := NewCorrectionHistory()
	pos := shogi.StartPosition()

	if got := ch.Get(pos); got != 0 {
		t.Fatalf("fresh table should read 0, got %d", got)
	}

	ch.Update(pos, 500, 0, 10)
	got := ch.Get(pos)
	if got <= 0 {
		t.Fatalf("a positive search-vs-static gap should nudge the correction positive, got %d", got)
	}
	if got > 16000 || got < -16000 {
		t.Fatalf("correction must stay within the clamp range, got %d", got)
	}
}

func TestCorrectionHistoryAgeHalvesEntries(t *testing.T) {
	ch := NewCorrectionHistory()
	pos := shogi.StartPosition()
	ch.Update(pos, 1000, 0, 20)
	before := ch.Get(pos)
	if before == 0 {
		t.Fatal("expected a nonzero correction before aging")
	}
	ch.Age()
	after := ch.Get(pos)
	if after != before/2 {
		t.Fatalf("Age should halve the entry: before=%d after=%d", before, after)
	}
}

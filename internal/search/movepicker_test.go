package search

import (
	"testing"

	"github.com/shogicore/engine/internal/shogi"
)

func allMoves(t *testing.T, p *MovePicker) []shogi.Move {
	t.Helper()
	var out []shogi.Move
	for {
		m, ok := p.Next()
		if !ok {
			break
		}
		out = append(out, m)
	}
	return out
}

func TestMovePickerYieldsEveryLegalMoveExactlyOnce(t *testing.T) {
	pos := shogi.StartPosition()
	legal := shogi.GenerateLegalMoves(pos)
	orderer := NewMoveOrderer()

	picker := NewMovePicker(pos, orderer, 0, shogi.NoMove, shogi.NoMove, shogi.NoPiece)
	got := allMoves(t, picker)

	if len(got) != legal.Len() {
		t.Fatalf("picker yielded %d moves, want %d", len(got), legal.Len())
	}
	seen := make(map[shogi.Move]int)
	for _, m := range got {
		seen[m]++
	}
	for _, m := range legal.Slice() {
		if seen[m] != 1 {
			t.Fatalf("move %v yielded %d times, want exactly 1", m, seen[m])
		}
	}
}

func TestMovePickerYieldsTTMoveFirst(t *testing.T) {
	pos := shogi.StartPosition()
	legal := shogi.GenerateLegalMoves(pos)
	if legal.Len() == 0 {
		t.Fatal("start position must have legal moves")
	}
	ttMove := legal.At(legal.Len() - 1) // pick something unlikely to sort first on its own
	orderer := NewMoveOrderer()

	picker := NewMovePicker(pos, orderer, 0, ttMove, shogi.NoMove, shogi.NoPiece)
	first, ok := picker.Next()
	if !ok || first != ttMove {
		t.Fatalf("first move = %v, ok=%v; want the TT move %v first", first, ok, ttMove)
	}

	rest := allMoves(t, picker)
	for _, m := range rest {
		if m == ttMove {
			t.Fatal("TT move must not be yielded a second time")
		}
	}
	if len(rest)+1 != legal.Len() {
		t.Fatalf("total yielded = %d, want %d", len(rest)+1, legal.Len())
	}
}

func TestMovePickerSkipQuietsOnlyAffectsQuietStage(t *testing.T) {
	pos := shogi.StartPosition()
	orderer := NewMoveOrderer()
	picker := NewMovePicker(pos, orderer, 0, shogi.NoMove, shogi.NoMove, shogi.NoPiece)
	picker.SkipQuiets()

	got := allMoves(t, picker)
	// The start position has no captures at all, so skipping quiets should
	// leave nothing to yield.
	if len(got) != 0 {
		t.Fatalf("expected no moves once quiets are skipped at the start position, got %d", len(got))
	}
}

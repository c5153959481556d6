package search

import (
	"sync/atomic"
	"testing"

	"github.com/shogicore/engine/internal/nnue"
	"github.com/shogicore/engine/internal/shogi"
	"github.com/shogicore/engine/internal/tt"
)

func TestEngineSearchFixedDepthReturnsALegalMove(t *testing.T) {
	eng := NewEngine(1, 2)
	pos := shogi.StartPosition()

	result := eng.Search(pos, FixedDepth(2))
	if result.Move == shogi.NoMove {
		t.Fatal("search should return a move from the start position")
	}

	legal := shogi.GenerateLegalMoves(pos)
	found := false
	for _, m := range legal.Slice() {
		if m == result.Move {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("returned move %v is not among the position's legal moves", result.Move)
	}
	if result.Depth < 1 {
		t.Fatalf("result.Depth = %d, want at least 1", result.Depth)
	}
}

func TestEngineSearchDoesNotMutateTheCallersPosition(t *testing.T) {
	eng := NewEngine(1, 1)
	pos := shogi.StartPosition()
	before := *pos

	eng.Search(pos, FixedDepth(2))

	if pos.Hash != before.Hash || pos.Ply != before.Ply || pos.SideToMove != before.SideToMove {
		t.Fatal("Search must operate on a clone, leaving the caller's position untouched")
	}
}

func TestEngineClearResetsTableAndOrdering(t *testing.T) {
	eng := NewEngine(1, 1)
	pos := shogi.StartPosition()
	eng.Search(pos, FixedDepth(2))

	eng.Clear()
	if eng.table.HashFull() != 0 {
		t.Fatalf("HashFull after Clear = %d, want 0", eng.table.HashFull())
	}
	if k1, k2 := eng.workers[0].Orderer().Killers(0); k1 != shogi.NoMove || k2 != shogi.NoMove {
		t.Fatalf("killers at ply 0 after Clear = %v, %v, want none", k1, k2)
	}
}

func TestWorkerSearchDepthFindsAMoveAtDepthOne(t *testing.T) {
	table := tt.New(1)
	corrHist := NewCorrectionHistory()
	networks := nnue.NewNetworks()
	var stop atomic.Bool
	w := NewWorker(0, table, corrHist, networks, &stop, nil)
	w.SetPosition(shogi.StartPosition())

	move, _ := w.SearchDepth(1, -Infinity, Infinity)
	if move == shogi.NoMove {
		t.Fatal("depth-1 search from the start position should find a move")
	}
}

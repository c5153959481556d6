package search

import (
	"testing"

	"github.com/shogicore/engine/internal/shogi"
)

func TestFromKeyDistinguishesBoardAndDropOrigins(t *testing.T) {
	boardMove := shogi.NewBoardMove(shogi.NewSquare(4, 6), shogi.NewSquare(4, 5), false)
	dropMove := shogi.NewDropMove(shogi.Pawn, shogi.NewSquare(4, 5))

	if fromKey(boardMove) == fromKey(dropMove) {
		t.Fatal("a board move's origin square and a drop's hand-index key must not collide")
	}
	if fromKey(boardMove) >= shogi.NumSquares {
		t.Fatalf("board move fromKey %d should be a plain square index", fromKey(boardMove))
	}
	if fromKey(dropMove) < shogi.NumSquares {
		t.Fatalf("drop fromKey %d should be offset past NumSquares", fromKey(dropMove))
	}
}

func TestUpdateHistoryAccumulatesThenHalvesOnOverflow(t *testing.T) {
	o := NewMoveOrderer()
	m := shogi.NewBoardMove(shogi.NewSquare(2, 6), shogi.NewSquare(2, 5), false)

	o.UpdateHistory(m, 10, 32)
	if got := o.HistoryScore(m); got != 320 {
		t.Fatalf("HistoryScore = %d, want 320", got)
	}

	o.UpdateHistory(m, 64, 20000)
	if got := o.HistoryScore(m); got < 0 {
		t.Fatalf("history overflow should halve the whole table, not go negative: got %d", got)
	}
}

func TestKillersKeepsTwoMostRecentDistinctMoves(t *testing.T) {
	o := NewMoveOrderer()
	m1 := shogi.NewBoardMove(shogi.NewSquare(2, 6), shogi.NewSquare(2, 5), false)
	m2 := shogi.NewBoardMove(shogi.NewSquare(6, 6), shogi.NewSquare(6, 5), false)
	m3 := shogi.NewBoardMove(shogi.NewSquare(7, 6), shogi.NewSquare(7, 5), false)

	o.UpdateKillers(3, m1)
	o.UpdateKillers(3, m2)
	k1, k2 := o.Killers(3)
	if k1 != m2 || k2 != m1 {
		t.Fatalf("Killers(3) = (%v, %v), want (%v, %v)", k1, k2, m2, m1)
	}

	o.UpdateKillers(3, m2) // repeat of the current best killer is a no-op
	k1, k2 = o.Killers(3)
	if k1 != m2 || k2 != m1 {
		t.Fatalf("repeating the current killer should not disturb the slots, got (%v, %v)", k1, k2)
	}

	o.UpdateKillers(3, m3)
	k1, k2 = o.Killers(3)
	if k1 != m3 || k2 != m2 {
		t.Fatalf("Killers(3) after third update = (%v, %v), want (%v, %v)", k1, k2, m3, m2)
	}
}

func TestCounterMoveRoundTrips(t *testing.T) {
	o := NewMoveOrderer()
	prev := shogi.NewBoardMove(shogi.NewSquare(4, 2), shogi.NewSquare(4, 3), false)
	prevPiece := shogi.NewPiece(shogi.Pawn, shogi.White)
	reply := shogi.NewBoardMove(shogi.NewSquare(2, 6), shogi.NewSquare(2, 5), false)

	if got := o.CounterMove(prev, prevPiece); got != shogi.NoMove {
		t.Fatalf("CounterMove before any update = %v, want NoMove", got)
	}
	o.UpdateCounterMove(prev, prevPiece, reply)
	if got := o.CounterMove(prev, prevPiece); got != reply {
		t.Fatalf("CounterMove = %v, want %v", got, reply)
	}
}

func TestMVVLVAFavorsHighValueVictimOverHighValueAttacker(t *testing.T) {
	rookTakesPawn := mvvLva(shogi.Rook, shogi.Pawn)
	pawnTakesRook := mvvLva(shogi.Pawn, shogi.Rook)
	if pawnTakesRook <= rookTakesPawn {
		t.Fatalf("capturing a rook with a pawn (%d) should score higher than capturing a pawn with a rook (%d)", pawnTakesRook, rookTakesPawn)
	}
}

package shogi

import "testing"

func TestBoardMoveEncodeDecode(t *testing.T) {
	m := NewBoardMove(NewSquare(2, 6), NewSquare(2, 5), false)
	if m.IsDrop() {
		t.Fatal("board move reports IsDrop")
	}
	if m.IsPromotion() {
		t.Fatal("non-promoting move reports IsPromotion")
	}
	if m.From() != NewSquare(2, 6) || m.To() != NewSquare(2, 5) {
		t.Fatalf("From/To = %v/%v, want (2,6)/(2,5)", m.From(), m.To())
	}
}

func TestPromotingMoveEncodeDecode(t *testing.T) {
	m := NewBoardMove(NewSquare(0, 2), NewSquare(0, 1), true)
	if !m.IsPromotion() {
		t.Fatal("expected IsPromotion true")
	}
	if m.IsDrop() {
		t.Fatal("promoting board move reports IsDrop")
	}
}

func TestDropMoveEncodeDecode(t *testing.T) {
	m := NewDropMove(Rook, NewSquare(4, 4))
	if !m.IsDrop() {
		t.Fatal("expected IsDrop true")
	}
	if m.DropPiece() != Rook {
		t.Fatalf("DropPiece() = %v, want Rook", m.DropPiece())
	}
	if m.To() != NewSquare(4, 4) {
		t.Fatalf("To() = %v, want (4,4)", m.To())
	}
}

func TestMoveStringFormats(t *testing.T) {
	board := NewBoardMove(NewSquare(2, 6), NewSquare(2, 5), false)
	if got, want := board.String(), "7g7f"; got != want {
		t.Fatalf("board move String() = %q, want %q", got, want)
	}
	promo := NewBoardMove(NewSquare(7, 1), NewSquare(6, 2), true)
	if got, want := promo.String(), "2b3c+"; got != want {
		t.Fatalf("promoting move String() = %q, want %q", got, want)
	}
	drop := NewDropMove(Pawn, NewSquare(4, 4))
	if got, want := drop.String(), "P*5e"; got != want {
		t.Fatalf("drop move String() = %q, want %q", got, want)
	}
}

func TestMoveListAddAndReset(t *testing.T) {
	var ml MoveList
	ml.Add(NewBoardMove(0, 1, false))
	ml.Add(NewDropMove(Gold, 10))
	if ml.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ml.Len())
	}
	ml.Reset()
	if ml.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", ml.Len())
	}
}

package shogi

import "testing"

func TestSquareBBRoundTrip(t *testing.T) {
	for sq := Square(0); sq < NumSquares; sq++ {
		bb := SquareBB(sq)
		if !bb.Test(sq) {
			t.Fatalf("SquareBB(%v) does not test set for itself", sq)
		}
		if bb.PopCount() != 1 {
			t.Fatalf("SquareBB(%v) has PopCount %d, want 1", sq, bb.PopCount())
		}
		got, ok := bb.LSB()
		if !ok || got != sq {
			t.Fatalf("SquareBB(%v).LSB() = %v,%v", sq, got, ok)
		}
	}
}

func TestBitboardSetClear(t *testing.T) {
	var bb Bitboard
	bb = bb.Set(Square(0)).Set(Square(40)).Set(Square(80))
	if bb.PopCount() != 3 {
		t.Fatalf("PopCount = %d, want 3", bb.PopCount())
	}
	bb = bb.Clear(Square(40))
	if bb.PopCount() != 2 || bb.Test(Square(40)) {
		t.Fatalf("Clear did not remove square 40: %+v", bb)
	}
}

func TestBitboardForEachVisitsExactlySetBits(t *testing.T) {
	var bb Bitboard
	want := map[Square]bool{3: true, 9: true, 55: true, 79: true}
	for sq := range want {
		bb = bb.Set(sq)
	}
	seen := map[Square]bool{}
	bb.ForEach(func(sq Square) { seen[sq] = true })
	if len(seen) != len(want) {
		t.Fatalf("ForEach visited %d squares, want %d", len(seen), len(want))
	}
	for sq := range want {
		if !seen[sq] {
			t.Errorf("ForEach missed square %v", sq)
		}
	}
}

func TestBitboardNotStaysWithinBoard(t *testing.T) {
	var empty Bitboard
	full := empty.Not()
	if full.PopCount() != NumSquares {
		t.Fatalf("Not() of empty board has PopCount %d, want %d", full.PopCount(), NumSquares)
	}
}

func TestSquareFileRankRoundTrip(t *testing.T) {
	for file := 0; file < 9; file++ {
		for rank := 0; rank < 9; rank++ {
			sq := NewSquare(file, rank)
			if sq.File() != file || sq.Rank() != rank {
				t.Fatalf("NewSquare(%d,%d) -> %v -> (%d,%d)", file, rank, sq, sq.File(), sq.Rank())
			}
		}
	}
}

func TestParseSquareRoundTrip(t *testing.T) {
	for sq := Square(0); sq < NumSquares; sq++ {
		s := sq.String()
		got, ok := ParseSquare(s)
		if !ok || got != sq {
			t.Fatalf("ParseSquare(%q) = %v,%v, want %v", s, got, ok, sq)
		}
	}
}

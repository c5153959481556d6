package shogi

import "testing"

func TestPerftStartPosition(t *testing.T) {
	cases := []struct {
		depth int
		want  uint64
	}{
		{1, 30},
		{2, 900},
	}
	for _, c := range cases {
		pos := StartPosition()
		if got := Perft(pos, c.depth); got != c.want {
			t.Errorf("Perft(start, %d) = %d, want %d", c.depth, got, c.want)
		}
	}
}

func TestStartPositionNotInCheck(t *testing.T) {
	pos := StartPosition()
	if pos.InCheck(Black) || pos.InCheck(White) {
		t.Fatal("neither side should be in check at the start position")
	}
}

func TestNifuForbidsSecondPawnOnFile(t *testing.T) {
	// Black has a pawn on file 2 already (from the start position's file
	// 2 pawn at rank 6) and a spare pawn in hand; dropping another pawn
	// anywhere on file 2 must not appear among legal moves.
	sfen := "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b P 1"
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN error: %v", err)
	}
	moves := GenerateLegalMoves(pos)
	file2 := NewSquare(2, 0).File()
	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		if m.IsDrop() && m.DropPiece() == Pawn && m.To().File() == file2 {
			t.Fatalf("nifu violation: generated %v dropping a second pawn onto file %d", m, file2)
		}
	}
}

func TestPawnCannotDropOnLastRank(t *testing.T) {
	sfen := "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPP1/1B5R1/LNSGKGSNL b P 1"
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN error: %v", err)
	}
	lastRankSquare := NewSquare(0, 0) // Black's far rank
	moves := GenerateLegalMoves(pos)
	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		if m.IsDrop() && m.DropPiece() == Pawn && m.To() == lastRankSquare {
			t.Fatalf("generated illegal pawn drop onto the last rank: %v", m)
		}
	}
}

func TestDoUndoMoveRestoresPosition(t *testing.T) {
	pos := StartPosition()
	before := pos.String()
	beforeHash := pos.Hash
	moves := GenerateLegalMoves(pos)
	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		undo := pos.DoMove(m)
		pos.UndoMove(m, undo)
		if got := pos.String(); got != before {
			t.Fatalf("move %v: position not restored: got %q, want %q", m, got, before)
		}
		if pos.Hash != beforeHash {
			t.Fatalf("move %v: hash not restored: got %x, want %x", m, pos.Hash, beforeHash)
		}
	}
}

func TestDropMoveReturnsPawnToHandOnUndo(t *testing.T) {
	sfen := "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b P 1"
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN error: %v", err)
	}
	m := NewDropMove(Pawn, NewSquare(4, 4))
	undo := pos.DoMove(m)
	if pos.Hands[Black].Count(Pawn) != 0 {
		t.Fatalf("hand pawn count after drop = %d, want 0", pos.Hands[Black].Count(Pawn))
	}
	pos.UndoMove(m, undo)
	if pos.Hands[Black].Count(Pawn) != 1 {
		t.Fatalf("hand pawn count after undo = %d, want 1", pos.Hands[Black].Count(Pawn))
	}
	if pos.Board.PieceAt(NewSquare(4, 4)) != NoPiece {
		t.Fatal("square not vacated after undoing drop")
	}
}

package shogi

import "testing"

func TestHasNonPawnMaterialAtStart(t *testing.T) {
	pos := StartPosition()
	if !pos.HasNonPawnMaterial(Black) || !pos.HasNonPawnMaterial(White) {
		t.Fatal("both sides have non-pawn material at the start position")
	}
}

func TestPinnedPieceDetection(t *testing.T) {
	// Black king on 5i, Black rook pinned on 5e by a White rook on 5a,
	// with the file otherwise clear between them.
	sfen := "4r4/9/9/9/4R4/9/9/9/4K4 b - 1"
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN error: %v", err)
	}
	pinned := pos.ComputePinned(Black)
	rookSquare := NewSquare(4, 4)
	if !pinned.Test(rookSquare) {
		t.Fatalf("expected rook on %v to be pinned, pinned=%v", rookSquare, pinned)
	}
}

func TestAttackersToFindsSimplePawnAttacker(t *testing.T) {
	sfen := "4k4/9/9/9/9/4P4/9/9/4K4 b - 1"
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN error: %v", err)
	}
	target := NewSquare(4, 4) // one square ahead of the pawn on 5f (5f->5e)
	attackers := pos.AttackersTo(target, pos.Board.Occupied())
	if attackers.PopCount() != 1 {
		t.Fatalf("expected exactly one attacker of %v, got %v", target, attackers)
	}
}

func TestRepetitionDrawDetection(t *testing.T) {
	pos := StartPosition()
	// Shuffle Black's file-3 gold back and forth four times, mirrored by
	// White's file-3 gold, to repeat the starting position's hash without
	// any captures or drops.
	out := NewBoardMove(NewSquare(3, 8), NewSquare(3, 7), false)
	back := NewBoardMove(NewSquare(3, 7), NewSquare(3, 8), false)
	oOut := NewBoardMove(NewSquare(3, 0), NewSquare(3, 1), false)
	oBack := NewBoardMove(NewSquare(3, 1), NewSquare(3, 0), false)

	var undos []UndoInfo
	seq := []Move{out, oOut, back, oBack}
	for rep := 0; rep < 4; rep++ {
		for _, m := range seq {
			undos = append(undos, pos.DoMove(m))
		}
	}
	if !pos.IsRepetitionDraw() {
		t.Fatal("expected repetition draw after four cycles")
	}
	for i := len(undos) - 1; i >= 0; i-- {
		pos.UndoMove(seq[i%len(seq)], undos[i])
	}
}

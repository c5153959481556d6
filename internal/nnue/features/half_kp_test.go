package features

import (
	"testing"

	"github.com/shogicore/engine/internal/shogi"
)

func TestFeEndAndDimensionsPositive(t *testing.T) {
	if FeEnd <= 0 {
		t.Fatalf("FeEnd = %d, want positive", FeEnd)
	}
	if Dimensions != FeEnd*shogi.NumSquares {
		t.Fatalf("Dimensions = %d, want FeEnd*NumSquares = %d", Dimensions, FeEnd*shogi.NumSquares)
	}
}

func TestActiveIndicesWithinBounds(t *testing.T) {
	pos := shogi.StartPosition()
	for _, perspective := range [2]shogi.Color{shogi.Black, shogi.White} {
		var active IndexList
		AppendActiveIndices(perspective, pos, &active)
		if active.Size == 0 {
			t.Fatalf("expected active features for perspective %v", perspective)
		}
		for i := 0; i < active.Size; i++ {
			idx := active.Values[i]
			if idx < 0 || idx >= Dimensions {
				t.Fatalf("index %d out of range [0,%d)", idx, Dimensions)
			}
		}
	}
}

func TestActiveIndicesSymmetricAtStartPosition(t *testing.T) {
	pos := shogi.StartPosition()
	var black, white IndexList
	AppendActiveIndices(shogi.Black, pos, &black)
	AppendActiveIndices(shogi.White, pos, &white)
	if black.Size != white.Size {
		t.Fatalf("expected symmetric position to produce equal active-feature counts: black=%d white=%d", black.Size, white.Size)
	}
}

func TestMakeHandIndicesCumulative(t *testing.T) {
	var list IndexList
	MakeHandIndices(shogi.Black, shogi.Black, shogi.Pawn, 3, 0, &list)
	if list.Size != 3 {
		t.Fatalf("holding 3 pawns should activate 3 planes, got %d", list.Size)
	}
	for i := 0; i < list.Size-1; i++ {
		if list.Values[i+1] != list.Values[i]+1 {
			t.Fatalf("expected contiguous cumulative planes, got %v", list.Values[:list.Size])
		}
	}
}

func TestMakeHandIndicesClampsAtMax(t *testing.T) {
	var list IndexList
	MakeHandIndices(shogi.Black, shogi.Black, shogi.Rook, 99, 0, &list)
	if list.Size != handMax[shogi.Rook] {
		t.Fatalf("expected clamp to handMax=%d, got %d", handMax[shogi.Rook], list.Size)
	}
}

func TestAppendChangedIndicesBoardMove(t *testing.T) {
	d := DirtyPiece{
		FromSquare:     shogi.NewSquare(2, 6),
		FromPiece:      shogi.NewPiece(shogi.Pawn, shogi.Black),
		ToSquare:       shogi.NewSquare(2, 5),
		ToPiece:        shogi.NewPiece(shogi.Pawn, shogi.Black),
		CapturedSquare: shogi.NoSquare,
	}
	var removed, added IndexList
	AppendChangedIndices(shogi.Black, 0, d, &removed, &added)
	if removed.Size != 1 || added.Size != 1 {
		t.Fatalf("expected 1 removed + 1 added index for a simple board move, got removed=%d added=%d", removed.Size, added.Size)
	}
}

func TestRequiresRefreshOnlyForOwnKingMove(t *testing.T) {
	d := DirtyPiece{FromPiece: shogi.NewPiece(shogi.King, shogi.Black)}
	if !d.RequiresRefresh(shogi.Black) {
		t.Fatal("own king move should require refresh")
	}
	if d.RequiresRefresh(shogi.White) {
		t.Fatal("opponent's perspective shouldn't require refresh from this move")
	}
}

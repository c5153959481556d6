package search

import (
	"github.com/shogicore/engine/internal/nnue/features"
	"github.com/shogicore/engine/internal/shogi"
)

// computeDirtyPiece records the board/hand delta a move is about to make,
// read from pos's state strictly before pos.DoMove(m) executes it. The
// teacher's internal/engine/nnue_bridge.go computes an analogous
// DirtyState *before* MakeMove for the same reason (captured-piece
// identity and hand counts are only available pre-move), but needs up to
// three DirtyPiece entries per chess move (from, to, captured, with
// castling's rook as a fourth case handled by a full-refresh bailout);
// shogi's simpler move shape (never two pieces move at once — no
// castling) lets internal/nnue/features model the whole delta as one
// struct, so this bridge only has to populate it once.
func computeDirtyPiece(pos *shogi.Position, m shogi.Move) features.DirtyPiece {
	mover := pos.SideToMove
	var d features.DirtyPiece
	d.FromSquare = shogi.NoSquare
	d.ToSquare = shogi.NoSquare
	d.CapturedSquare = shogi.NoSquare

	if m.IsDrop() {
		pt := m.DropPiece()
		d.ToSquare = m.To()
		d.ToPiece = shogi.NewPiece(pt, mover)
		d.HasHandChange = true
		d.HandColor = mover
		d.HandPiece = pt
		d.HandCountFrom = pos.Hands[mover].Count(pt)
		d.HandCountTo = d.HandCountFrom - 1
		return d
	}

	from, to := m.From(), m.To()
	movingPiece := pos.Board.PieceAt(from)
	resultPiece := movingPiece
	if m.IsPromotion() {
		resultPiece = shogi.NewPiece(movingPiece.Type().Promote(), mover)
	}
	d.FromSquare = from
	d.FromPiece = movingPiece
	d.ToSquare = to
	d.ToPiece = resultPiece

	captured := pos.Board.PieceAt(to)
	if captured != shogi.NoPiece {
		d.CapturedSquare = to
		d.CapturedPiece = captured
		handPiece := captured.Type().Unpromote()
		d.HasHandChange = true
		d.HandColor = mover
		d.HandPiece = handPiece
		d.HandCountFrom = pos.Hands[mover].Count(handPiece)
		d.HandCountTo = d.HandCountFrom + 1
	}
	return d
}

package shogi

// Move generation: pseudo-legal board moves and drops, then a legality
// filter via do/undo + king-safety check. Correctness is favored over the
// teacher's pin-aware "generate only legal moves directly" approach
// (internal/board/movegen.go computes pinned pieces up front to skip the
// do/undo check for most moves); shogi's drop-specific restrictions
// (nifu, uchifuzume, forced promotion) make a from-scratch generator
// simpler to get right when built on top of do/undo, at the cost of
// generating and discarding a few more pseudo-legal moves per position.

// GenerateLegalMoves returns every legal move available to the side to
// move in pos.
func GenerateLegalMoves(pos *Position) MoveList {
	var pseudo MoveList
	generateBoardMoves(pos, &pseudo)
	generateDrops(pos, &pseudo)

	var legal MoveList
	mover := pos.SideToMove
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.At(i)
		undo := pos.DoMove(m)
		if !pos.InCheck(mover) {
			legal.Add(m)
		}
		pos.UndoMove(m, undo)
	}
	return legal
}

func generateBoardMoves(pos *Position, out *MoveList) {
	side := pos.SideToMove
	own := pos.Board.ByColor(side)
	occ := pos.Board.Occupied()

	for pt := Pawn; pt < NoPieceType; pt++ {
		pieces := pos.Board.ByPiece(side, pt)
		pieces.ForEach(func(from Square) {
			targets := AttacksFrom(pt, side, from, occ).AndNot(own)
			targets.ForEach(func(to Square) {
				addBoardMoves(out, pt, side, from, to)
			})
		})
	}
}

// addBoardMoves appends the legal promotion/non-promotion variants of
// moving a piece of type pt from->to.
func addBoardMoves(out *MoveList, pt PieceType, side Color, from, to Square) {
	if !pt.CanPromote() {
		out.Add(NewBoardMove(from, to, false))
		return
	}

	fromZone := inPromotionZone(from, side)
	toZone := inPromotionZone(to, side)
	canPromote := fromZone || toZone

	forced := false
	relRank := to.RelativeRank(side)
	switch pt {
	case Pawn, Lance:
		forced = relRank == 8
	case Knight:
		forced = relRank >= 7
	}

	if canPromote {
		out.Add(NewBoardMove(from, to, true))
	}
	if !forced {
		out.Add(NewBoardMove(from, to, false))
	}
}

func generateDrops(pos *Position, out *MoveList) {
	side := pos.SideToMove
	empty := pos.Board.Occupied().Not()

	for _, pt := range handOrder {
		if pos.Hands[side].Count(pt) == 0 {
			continue
		}
		empty.ForEach(func(to Square) {
			if !dropAllowed(pos, pt, side, to) {
				return
			}
			out.Add(NewDropMove(pt, to))
		})
	}
}

// dropAllowed checks the generation-time drop restrictions: no dropping
// onto a square the piece could never move from, no nifu, no uchifuzume.
func dropAllowed(pos *Position, pt PieceType, side Color, to Square) bool {
	relRank := to.RelativeRank(side)
	switch pt {
	case Pawn, Lance:
		if relRank == 8 {
			return false
		}
	case Knight:
		if relRank >= 7 {
			return false
		}
	}

	if pt == Pawn {
		file := to.File()
		if pos.Board.ByPiece(side, Pawn).And(fileBB[file]).PopCount() > 0 {
			return false // nifu
		}
		if isUchifuzume(pos, side, to) {
			return false
		}
	}

	return true
}

// fileBB[f] is the bitboard of every square on file f, precomputed once.
var fileBB [9]Bitboard

func init() {
	for f := 0; f < 9; f++ {
		var bb Bitboard
		for r := 0; r < 9; r++ {
			bb = bb.Set(NewSquare(f, r))
		}
		fileBB[f] = bb
	}
}

// isUchifuzume reports whether dropping a pawn of color side on square to
// would deliver an immediate checkmate, which is illegal (the "dropped
// pawn mate" rule). Checked by actually making the drop and asking whether
// the opponent has any legal reply.
func isUchifuzume(pos *Position, side Color, to Square) bool {
	m := NewDropMove(Pawn, to)
	undo := pos.DoMove(m)
	defer pos.UndoMove(m, undo)

	opp := pos.SideToMove // DoMove already flipped the side to move
	if !pos.InCheck(opp) {
		return false
	}
	replies := GenerateLegalMoves(pos)
	return replies.Len() == 0
}

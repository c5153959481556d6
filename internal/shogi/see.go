package shogi

// SEE (Static Exchange Evaluation) estimates the material result of a
// sequence of captures on one square, without doing a full search. Stack-
// based swap-off algorithm: resolve each side's least valuable attacker in
// turn against a shrinking occupancy bitboard, then back-propagate a
// minimax over the per-step gains. Promotions during the swap-off itself
// are not modeled (the recapturing piece's current, not best-possible,
// type is used) — a standard simplification also made by the teacher's
// move-ordering comments around MVV-LVA, traded for keeping this tractable
// to write and reason about without a reference engine to check against.
func (pos *Position) SEE(m Move) int {
	to := m.To()
	occ := pos.Board.Occupied()

	var gain [32]int
	depth := 0

	var attackerValue int
	if m.IsDrop() {
		gain[0] = 0
		occ = occ.Set(to)
		attackerValue = PieceValue[m.DropPiece()]
	} else {
		from := m.From()
		captured := pos.Board.PieceAt(to)
		gain[0] = PieceValue[captured.Type()]
		occ = occ.Clear(from)
		moving := pos.Board.PieceAt(from)
		finalType := moving.Type()
		if m.IsPromotion() {
			finalType = finalType.Promote()
		}
		attackerValue = PieceValue[finalType]
	}

	side := pos.SideToMove.Opposite()
	for depth < len(gain)-1 {
		attackers := pos.AttackersTo(to, occ).And(occ).And(pos.Board.ByColor(side))
		from, pt, ok := leastValuableAttacker(pos, attackers)
		if !ok {
			break
		}
		depth++
		gain[depth] = attackerValue - gain[depth-1]
		occ = occ.Clear(from)
		attackerValue = PieceValue[pt]
		side = side.Opposite()
	}

	for depth > 0 {
		depth--
		gain[depth] = -maxInt(-gain[depth], gain[depth+1])
	}
	return gain[0]
}

// SEEGreaterOrEqual reports whether the exchange sequence starting with m
// nets at least threshold, used by move ordering to split "good" from
// "bad" captures (spec's MovePicker stage boundary); it computes the full
// SEE(m) value and compares it against threshold.
func (pos *Position) SEEGreaterOrEqual(m Move, threshold int) bool {
	return pos.SEE(m) >= threshold
}

func leastValuableAttacker(pos *Position, attackers Bitboard) (Square, PieceType, bool) {
	best := NoSquare
	bestPt := NoPieceType
	bestVal := 1 << 30
	attackers.ForEach(func(sq Square) {
		p := pos.Board.PieceAt(sq)
		v := PieceValue[p.Type()]
		if v < bestVal {
			bestVal = v
			best = sq
			bestPt = p.Type()
		}
	})
	return best, bestPt, best != NoSquare
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

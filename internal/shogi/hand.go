package shogi

// Hand holds the captured-piece counts available to one color for
// dropping back onto the board. Indexed by PieceType.HandIndex(): Pawn,
// Lance, Knight, Silver, Gold, Bishop, Rook. Hands never hold King or a
// promoted piece type — captures demote via PieceType.Unpromote() before
// being added.
type Hand [HandKinds]uint8

// Count returns how many of pt color c currently holds in hand. Returns 0
// for piece types that cannot be held (King, or an already-promoted type).
func (h Hand) Count(pt PieceType) int {
	idx := pt.HandIndex()
	if idx < 0 {
		return 0
	}
	return int(h[idx])
}

// Add increments the hand count for pt by one. No-op if pt cannot be held.
func (h Hand) Add(pt PieceType) Hand {
	idx := pt.HandIndex()
	if idx < 0 {
		return h
	}
	h[idx]++
	return h
}

// Remove decrements the hand count for pt by one. Caller must ensure
// Count(pt) > 0; decrementing a zero count wraps around and is a bug.
func (h Hand) Remove(pt PieceType) Hand {
	idx := pt.HandIndex()
	if idx < 0 {
		return h
	}
	h[idx]--
	return h
}

// Empty reports whether the hand holds no pieces at all.
func (h Hand) Empty() bool {
	for _, n := range h {
		if n != 0 {
			return false
		}
	}
	return true
}

// DroppablePieces returns the piece types this hand currently holds at
// least one of, in the conventional reporting order (Rook, Bishop, Gold,
// Silver, Knight, Lance, Pawn).
func (h Hand) DroppablePieces() []PieceType {
	var out []PieceType
	for _, pt := range handOrder {
		if h.Count(pt) > 0 {
			out = append(out, pt)
		}
	}
	return out
}

package shogi

// Board holds piece placement: a mailbox array for O(1) lookup by square,
// plus per-color/per-type bitboards for O(1) lookup by piece kind. Kept in
// sync by put/remove, the two mutation primitives every move application
// funnels through.
//
// Adapted from internal/board/position.go's Board, generalized from one
// 64-bit occupancy bitboard per side to the two-word Bitboard here, and
// from 6 piece types to 14 (the six promoted variants).
type Board struct {
	squares    [NumSquares]Piece
	byPiece    [2][NumPieceTypes]Bitboard
	byColor    [2]Bitboard
	occupied   Bitboard
	kingSquare [2]Square
}

func newEmptyBoard() Board {
	b := Board{}
	for i := range b.squares {
		b.squares[i] = NoPiece
	}
	b.kingSquare[Black] = NoSquare
	b.kingSquare[White] = NoSquare
	return b
}

// PieceAt returns the piece on sq, or NoPiece if empty.
func (b *Board) PieceAt(sq Square) Piece { return b.squares[sq] }

// Occupied returns the bitboard of all occupied squares.
func (b *Board) Occupied() Bitboard { return b.occupied }

// ByColor returns the bitboard of all squares occupied by c.
func (b *Board) ByColor(c Color) Bitboard { return b.byColor[c] }

// ByPiece returns the bitboard of all squares holding a piece of type pt
// and color c.
func (b *Board) ByPiece(c Color, pt PieceType) Bitboard { return b.byPiece[c][pt] }

// KingSquare returns the square of c's king, or NoSquare if this board has
// none (only true for ad hoc test positions; a legal game position always
// has exactly one king per side).
func (b *Board) KingSquare(c Color) Square { return b.kingSquare[c] }

// put places piece p on sq, which must currently be empty.
func (b *Board) put(sq Square, p Piece) {
	b.squares[sq] = p
	bb := SquareBB(sq)
	c, pt := p.Color(), p.Type()
	b.byPiece[c][pt] = b.byPiece[c][pt].Or(bb)
	b.byColor[c] = b.byColor[c].Or(bb)
	b.occupied = b.occupied.Or(bb)
	if pt == King {
		b.kingSquare[c] = sq
	}
}

// remove clears sq, which must currently hold p, and returns p.
func (b *Board) remove(sq Square) Piece {
	p := b.squares[sq]
	if p == NoPiece {
		return NoPiece
	}
	b.squares[sq] = NoPiece
	bb := SquareBB(sq)
	c, pt := p.Color(), p.Type()
	b.byPiece[c][pt] = b.byPiece[c][pt].AndNot(bb)
	b.byColor[c] = b.byColor[c].AndNot(bb)
	b.occupied = b.occupied.AndNot(bb)
	if pt == King && b.kingSquare[c] == sq {
		b.kingSquare[c] = NoSquare
	}
	return p
}

// Position is a full shogi game state: board, both hands, side to move,
// ply count, incremental Zobrist hash, and enough history to detect
// repetition draws.
type Position struct {
	Board      Board
	Hands      [2]Hand
	SideToMove Color
	Ply        int
	Hash       uint64

	history []uint64 // hash after each played move, for sennichite detection
}

func newEmptyPosition() *Position {
	return &Position{Board: newEmptyBoard(), SideToMove: Black}
}

// Clone returns an independent deep copy of pos: safe for a caller (a
// lazy-SMP search worker, for instance) to mutate via DoMove/UndoMove
// concurrently with other clones of the same source position. A plain
// `*pos` struct copy shares history's backing array with its source,
// which two goroutines independently appending to would race on.
func (pos *Position) Clone() *Position {
	clone := *pos
	clone.history = append([]uint64(nil), pos.history...)
	return &clone
}

// StartPosition returns the standard shogi starting position.
func StartPosition() *Position {
	pos, err := ParseSFEN(StartSFEN)
	if err != nil {
		panic("shogi: malformed built-in start sfen: " + err.Error())
	}
	return pos
}

// computeHash derives the Zobrist key from scratch. Used only when
// constructing a Position directly (SFEN parsing); DoMove/UndoMove
// maintain Hash incrementally afterward.
func (pos *Position) computeHash() uint64 {
	var h uint64
	for sq := Square(0); sq < NumSquares; sq++ {
		if p := pos.Board.PieceAt(sq); p != NoPiece {
			h ^= pieceKey(p, sq)
		}
	}
	for _, c := range []Color{Black, White} {
		for _, pt := range handOrder {
			h ^= handKey(c, pt, pos.Hands[c].Count(pt))
		}
	}
	if pos.SideToMove == White {
		h ^= zobristSide
	}
	return h
}

// UndoInfo captures exactly what DoMove changed, so UndoMove can restore
// the position without recomputing anything from scratch.
type UndoInfo struct {
	Move     Move
	Captured Piece // NoPiece if the move was not a capture
	PrevHash uint64
}

// InCheck reports whether c's king is currently attacked.
func (pos *Position) InCheck(c Color) bool {
	ksq := pos.Board.KingSquare(c)
	if ksq == NoSquare {
		return false
	}
	return pos.AttackersTo(ksq, pos.Board.Occupied()).And(pos.Board.ByColor(c.Opposite())).PopCount() > 0
}

// AttackersTo returns every square (of either color) from which a piece
// attacks sq, given board occupancy occ. occ is passed explicitly so
// callers probing "what if this square were vacated" (e.g. SEE, pin
// detection) can substitute a modified occupancy.
func (pos *Position) AttackersTo(sq Square, occ Bitboard) Bitboard {
	var attackers Bitboard

	// Step movers: a piece of type pt on square s attacks sq exactly when
	// sq is in pt's attack set from s, for each color. We invert this by
	// asking, for each candidate piece type/color, which squares could
	// attack sq, and intersecting with where that piece type/color
	// actually stands.
	for _, c := range []Color{Black, White} {
		attackers = attackers.Or(PawnAttacksTo(sq, c).And(pos.Board.ByPiece(c, Pawn)))
		attackers = attackers.Or(KnightAttacksTo(sq, c).And(pos.Board.ByPiece(c, Knight)))
		attackers = attackers.Or(SilverAttacksTo(sq, c).And(pos.Board.ByPiece(c, Silver)))
		goldLike := pos.Board.ByPiece(c, Gold).
			Or(pos.Board.ByPiece(c, ProPawn)).
			Or(pos.Board.ByPiece(c, ProLance)).
			Or(pos.Board.ByPiece(c, ProKnight)).
			Or(pos.Board.ByPiece(c, ProSilver))
		attackers = attackers.Or(GoldAttacksTo(sq, c).And(goldLike))
		attackers = attackers.Or(KingAttacks(sq).And(pos.Board.ByPiece(c, King)))
		attackers = attackers.Or(KingAttacks(sq).And(pos.Board.ByPiece(c, Horse)))
		attackers = attackers.Or(KingAttacks(sq).And(pos.Board.ByPiece(c, Dragon)))
		attackers = attackers.Or(LanceAttacksTo(sq, c, occ).And(pos.Board.ByPiece(c, Lance)))
	}

	bishopLike := pos.Board.ByPiece(Black, Bishop).Or(pos.Board.ByPiece(Black, Horse)).
		Or(pos.Board.ByPiece(White, Bishop)).Or(pos.Board.ByPiece(White, Horse))
	attackers = attackers.Or(BishopAttacks(sq, occ).And(bishopLike))

	rookLike := pos.Board.ByPiece(Black, Rook).Or(pos.Board.ByPiece(Black, Dragon)).
		Or(pos.Board.ByPiece(White, Rook)).Or(pos.Board.ByPiece(White, Dragon))
	attackers = attackers.Or(RookAttacks(sq, occ).And(rookLike))

	return attackers
}

// PawnAttacksTo, KnightAttacksTo, SilverAttacksTo, GoldAttacksTo and
// LanceAttacksTo answer "which square(s), if occupied by a piece of color
// attackerColor, would attack sq" — the inverse of PawnAttacks et al. For
// these symmetric one-step/jump movers this is just the attack set of the
// *opposite* color standing on sq, which is how they are implemented.
func PawnAttacksTo(sq Square, attackerColor Color) Bitboard {
	return PawnAttacks(sq, attackerColor.Opposite())
}
func KnightAttacksTo(sq Square, attackerColor Color) Bitboard {
	return KnightAttacks(sq, attackerColor.Opposite())
}
func SilverAttacksTo(sq Square, attackerColor Color) Bitboard {
	return SilverAttacks(sq, attackerColor.Opposite())
}
func GoldAttacksTo(sq Square, attackerColor Color) Bitboard {
	return GoldAttacks(sq, attackerColor.Opposite())
}
func LanceAttacksTo(sq Square, attackerColor Color, occ Bitboard) Bitboard {
	return LanceAttacks(sq, attackerColor.Opposite(), occ)
}

// ComputePinned returns the bitboard of c's pieces that are pinned against
// c's own king: removing that piece would expose the king to a sliding
// attack. Ported in technique from internal/board/position.go's x-ray
// sniper scan, generalized from rook/bishop-only to also cover lances.
func (pos *Position) ComputePinned(c Color) Bitboard {
	var pinned Bitboard
	ksq := pos.Board.KingSquare(c)
	if ksq == NoSquare {
		return pinned
	}
	opp := c.Opposite()

	snipers := pos.Board.ByPiece(opp, Rook).Or(pos.Board.ByPiece(opp, Dragon)).
		Or(pos.Board.ByPiece(opp, Bishop)).Or(pos.Board.ByPiece(opp, Horse)).
		Or(pos.Board.ByPiece(opp, Lance))

	for d := 0; d < 8; d++ {
		ray := rayAttacks[d][ksq]
		candidates := ray.And(snipers)
		if candidates.Empty() {
			continue
		}
		// Only the nearest sniper along this ray can matter; walk the ray
		// outward from the king looking for exactly one of c's pieces
		// followed, further out, by an enemy slider that actually attacks
		// along this direction.
		var blocker Square = NoSquare
		for _, s := range raySquares[d][ksq] {
			p := pos.Board.PieceAt(s)
			if p == NoPiece {
				continue
			}
			if blocker == NoSquare {
				if p.Color() != c {
					break // first piece met is enemy: no pin along this ray
				}
				blocker = s
				continue
			}
			// second piece met along the ray
			if p.Color() == opp && sliderAttacksAlong(p.Type(), d) &&
				(p.Type() != Lance || !LanceAttacks(s, opp, Bitboard{}).And(SquareBB(ksq)).Empty()) {
				pinned = pinned.Set(blocker)
			}
			break
		}
	}
	return pinned
}

// sliderAttacksAlong reports whether a piece of type pt can slide along
// ray direction d (lances only forward, bishops/horses only diagonal,
// rooks/dragons only orthogonal).
func sliderAttacksAlong(pt PieceType, d int) bool {
	switch pt {
	case Rook, Dragon:
		return d == dirN || d == dirS || d == dirE || d == dirW
	case Bishop, Horse:
		return d == dirNE || d == dirSE || d == dirNW || d == dirSW
	case Lance:
		return d == dirN || d == dirS
	default:
		return false
	}
}

// HasNonPawnMaterial reports whether c has any piece besides pawns and the
// king, on the board or in hand. Used to gate null-move pruning, the same
// way internal/engine/worker.go checks material before trying a null move
// (zugzwang-heavy endgames make null move unsound).
func (pos *Position) HasNonPawnMaterial(c Color) bool {
	for pt := Lance; pt <= Rook; pt++ {
		if pos.Board.ByPiece(c, pt).PopCount() > 0 {
			return true
		}
	}
	for pt := ProLance; pt <= Dragon; pt++ {
		if pos.Board.ByPiece(c, pt).PopCount() > 0 {
			return true
		}
	}
	for _, pt := range []PieceType{Lance, Knight, Silver, Gold, Bishop, Rook} {
		if pos.Hands[c].Count(pt) > 0 {
			return true
		}
	}
	return false
}

// IsRepetitionDraw reports whether the current position has occurred four
// times in this game's history, per spec's sennichite rule (the caller is
// responsible for the separate perpetual-check-loses-instead-of-draws
// carve-out, which needs the check-history alongside this).
func (pos *Position) IsRepetitionDraw() bool {
	count := 0
	for _, h := range pos.history {
		if h == pos.Hash {
			count++
			if count >= 4 {
				return true
			}
		}
	}
	return false
}

// DoMove applies m (assumed pseudo-legal) and returns the information
// needed to undo it.
func (pos *Position) DoMove(m Move) UndoInfo {
	undo := UndoInfo{Move: m, Captured: NoPiece, PrevHash: pos.Hash}
	side := pos.SideToMove
	h := pos.Hash

	if m.IsDrop() {
		pt := m.DropPiece()
		to := m.To()
		oldCount := pos.Hands[side].Count(pt)
		pos.Hands[side] = pos.Hands[side].Remove(pt)
		p := NewPiece(pt, side)
		pos.Board.put(to, p)
		h ^= pieceKey(p, to)
		h ^= handKey(side, pt, oldCount) ^ handKey(side, pt, oldCount-1)
	} else {
		from, to := m.From(), m.To()
		moving := pos.Board.remove(from)
		h ^= pieceKey(moving, from)

		if captured := pos.Board.remove(to); captured != NoPiece {
			undo.Captured = captured
			h ^= pieceKey(captured, to)
			baseType := captured.Type().Unpromote()
			oldCount := pos.Hands[side].Count(baseType)
			pos.Hands[side] = pos.Hands[side].Add(baseType)
			h ^= handKey(side, baseType, oldCount) ^ handKey(side, baseType, oldCount+1)
		}

		finalType := moving.Type()
		if m.IsPromotion() {
			finalType = finalType.Promote()
		}
		finalPiece := NewPiece(finalType, side)
		pos.Board.put(to, finalPiece)
		h ^= pieceKey(finalPiece, to)
	}

	h ^= zobristSide
	pos.SideToMove = side.Opposite()
	pos.Ply++
	pos.Hash = h
	pos.history = append(pos.history, h)
	return undo
}

// UndoMove reverses the effect of the DoMove call that produced undo. m
// must be the same move passed to that DoMove call.
func (pos *Position) UndoMove(m Move, undo UndoInfo) {
	pos.history = pos.history[:len(pos.history)-1]
	pos.Ply--
	pos.SideToMove = pos.SideToMove.Opposite()
	pos.Hash = undo.PrevHash
	side := pos.SideToMove

	if m.IsDrop() {
		pt := m.DropPiece()
		pos.Board.remove(m.To())
		pos.Hands[side] = pos.Hands[side].Add(pt)
		return
	}

	from, to := m.From(), m.To()
	moved := pos.Board.remove(to)
	origType := moved.Type()
	if m.IsPromotion() {
		origType = origType.Unpromote()
	}
	pos.Board.put(from, NewPiece(origType, side))

	if undo.Captured != NoPiece {
		pos.Board.put(to, undo.Captured)
		pos.Hands[side] = pos.Hands[side].Remove(undo.Captured.Type().Unpromote())
	}
}

// DoNullMove passes the turn without moving a piece, for null-move
// pruning. Returns the previous hash so DoNullMove/UndoNullMove can be
// paired like DoMove/UndoMove.
func (pos *Position) DoNullMove() uint64 {
	prev := pos.Hash
	pos.Hash ^= zobristSide
	pos.SideToMove = pos.SideToMove.Opposite()
	pos.Ply++
	pos.history = append(pos.history, pos.Hash)
	return prev
}

// UndoNullMove reverses DoNullMove.
func (pos *Position) UndoNullMove(prevHash uint64) {
	pos.history = pos.history[:len(pos.history)-1]
	pos.Ply--
	pos.SideToMove = pos.SideToMove.Opposite()
	pos.Hash = prevHash
}

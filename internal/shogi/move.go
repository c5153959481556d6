package shogi

import "fmt"

// Move packs a board move or a drop into 16 bits: pointer-free, so move
// lists are plain value slices with no backing allocation per move.
// Layout: bits 0-6 destination square, bits 7-13 either the origin square
// (board move) or the dropped piece's hand index (drop move), bit 14 the
// promotion flag (board moves only), bit 15 the drop flag.
//
// Adapted in spirit from internal/board/move.go's uint16 chess move
// encoding (from/to/promotion/flags), extended with a drop flag in place
// of chess's en-passant/castle flags.
type Move uint16

const (
	moveToMask     = 0x7F
	moveFromShift  = 7
	moveFromMask   = 0x7F << moveFromShift
	movePromoteBit = 1 << 14
	moveDropBit    = 1 << 15
)

// NoMove is the zero-value sentinel meaning "no move" / "search not yet
// populated this slot". It is distinct from every real encoding because
// no move has the same square as both origin and destination.
const NoMove Move = 0

// NullMove is a distinguished value used for null-move pruning; it never
// appears in a legal MoveList.
const NullMove Move = 0xFFFE

// NewBoardMove encodes a move of the piece standing on from to the square
// to, optionally promoting.
func NewBoardMove(from, to Square, promote bool) Move {
	m := Move(to) | Move(from)<<moveFromShift
	if promote {
		m |= movePromoteBit
	}
	return m
}

// NewDropMove encodes dropping a piece of type pt onto square to. pt must
// be a droppable type (HandIndex() >= 0).
func NewDropMove(pt PieceType, to Square) Move {
	idx := pt.HandIndex()
	return Move(to) | Move(idx)<<moveFromShift | moveDropBit
}

// IsDrop reports whether m is a drop move.
func (m Move) IsDrop() bool { return m&moveDropBit != 0 }

// IsPromotion reports whether m is a board move that promotes the moving
// piece. Always false for drops (dropped pieces are never promoted).
func (m Move) IsPromotion() bool { return !m.IsDrop() && m&movePromoteBit != 0 }

// To returns the destination square.
func (m Move) To() Square { return Square(m & moveToMask) }

// From returns the origin square of a board move. Meaningless for drops.
func (m Move) From() Square { return Square((m & moveFromMask) >> moveFromShift) }

var handIndexToType = [HandKinds]PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

// DropPiece returns the piece type being dropped. Meaningless for board
// moves.
func (m Move) DropPiece() PieceType {
	idx := (m & moveFromMask) >> moveFromShift
	return handIndexToType[idx]
}

// String renders m in USI move notation: "7g7f", "2b3c+" for a promoting
// board move, or "P*5e" for a drop.
func (m Move) String() string {
	if m == NoMove {
		return "none"
	}
	if m == NullMove {
		return "null"
	}
	if m.IsDrop() {
		return fmt.Sprintf("%s*%s", m.DropPiece().String(), m.To().String())
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// MoveList is a fixed-capacity move buffer. Shogi positions rarely exceed
// ~200 pseudo-legal moves even with a full hand of drops; 256 gives
// headroom without ever reallocating during generation.
type MoveList struct {
	moves [256]Move
	n     int
}

// Add appends m to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.n] = m
	ml.n++
}

// Len returns the number of moves currently in the list.
func (ml *MoveList) Len() int { return ml.n }

// At returns the i'th move.
func (ml *MoveList) At(i int) Move { return ml.moves[i] }

// Slice returns the populated portion of the list as a slice. The slice
// aliases the list's backing array; callers must not retain it across a
// subsequent reset of the same MoveList.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.n] }

// Reset empties the list for reuse.
func (ml *MoveList) Reset() { ml.n = 0 }

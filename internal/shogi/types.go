// Package shogi implements shogi board representation: bitboards, squares,
// pieces, hands, positions, move generation and make/unmake.
//
// Adapted from github.com/hailam/chessplay/internal/board, generalized from
// an 8x8 chess board with two colours and six piece types to a 9x9 shogi
// board with drops, hands, and promotion.
package shogi

// Color is the side to move: Black moves toward the smaller ranks and
// moves first from the starting position; White moves toward the larger
// ranks.
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Opposite returns the other color.
func (c Color) Opposite() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case Black:
		return "b"
	case White:
		return "w"
	default:
		return "-"
	}
}

// PieceType enumerates the shogi piece kinds, including the six promoted
// variants. Gold and King never promote.
type PieceType uint8

const (
	Pawn PieceType = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse // promoted Bishop
	Dragon // promoted Rook
	NoPieceType PieceType = 14
)

// NumPieceTypes is the number of non-sentinel piece types.
const NumPieceTypes = 14

// HandKinds is the number of piece kinds a hand can hold (everything but
// King). Ordered to match Position.Hand's array indices.
const HandKinds = 7

// handOrder lists the seven droppable kinds in descending power, matching
// the order engines conventionally report hand contents.
var handOrder = [HandKinds]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

// CanPromote reports whether this piece type has a promoted form.
func (pt PieceType) CanPromote() bool {
	switch pt {
	case Pawn, Lance, Knight, Silver, Bishop, Rook:
		return true
	default:
		return false
	}
}

// IsPromoted reports whether pt is itself a promoted variant.
func (pt PieceType) IsPromoted() bool {
	return pt >= ProPawn && pt <= Dragon
}

// Promote returns the promoted form of pt, or pt unchanged if it cannot
// promote (caller is expected to have checked CanPromote first).
func (pt PieceType) Promote() PieceType {
	switch pt {
	case Pawn:
		return ProPawn
	case Lance:
		return ProLance
	case Knight:
		return ProKnight
	case Silver:
		return ProSilver
	case Bishop:
		return Horse
	case Rook:
		return Dragon
	default:
		return pt
	}
}

// Unpromote returns the base form of a promoted piece type, or pt
// unchanged if it is not promoted. Used when a promoted piece is captured:
// it returns to hand in its base form.
func (pt PieceType) Unpromote() PieceType {
	switch pt {
	case ProPawn:
		return Pawn
	case ProLance:
		return Lance
	case ProKnight:
		return Knight
	case ProSilver:
		return Silver
	case Horse:
		return Bishop
	case Dragon:
		return Rook
	default:
		return pt
	}
}

// HandIndex returns the index into a Hand's count array for a droppable
// piece type, or -1 if pt cannot be held in hand (King, or already a
// promoted type — hands only ever hold base forms).
func (pt PieceType) HandIndex() int {
	switch pt {
	case Pawn:
		return 0
	case Lance:
		return 1
	case Knight:
		return 2
	case Silver:
		return 3
	case Gold:
		return 4
	case Bishop:
		return 5
	case Rook:
		return 6
	default:
		return -1
	}
}

// pieceTypeLetters maps each base piece type (and King) to its USI/SFEN
// letter.
var pieceTypeLetters = map[PieceType]byte{
	Pawn: 'P', Lance: 'L', Knight: 'N', Silver: 'S', Gold: 'G',
	Bishop: 'B', Rook: 'R', King: 'K',
}

func (pt PieceType) String() string {
	switch pt {
	case ProPawn:
		return "+P"
	case ProLance:
		return "+L"
	case ProKnight:
		return "+N"
	case ProSilver:
		return "+S"
	case Horse:
		return "+B"
	case Dragon:
		return "+R"
	default:
		if c, ok := pieceTypeLetters[pt]; ok {
			return string(c)
		}
		return "?"
	}
}

// Piece combines a PieceType and a Color: Type()*2 + Color().
type Piece uint8

// NoPiece represents an empty square.
const NoPiece Piece = Piece(NoPieceType)*2 + 1

// NewPiece builds a Piece from type and color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt)*2 + Piece(c)
}

// Type returns the piece's PieceType.
func (p Piece) Type() PieceType {
	if p == NoPiece {
		return NoPieceType
	}
	return PieceType(p / 2)
}

// Color returns the piece's Color.
func (p Piece) Color() Color {
	if p == NoPiece {
		return NoColor
	}
	return Color(p % 2)
}

func (p Piece) String() string {
	if p == NoPiece {
		return "."
	}
	s := p.Type().String()
	if p.Color() == White {
		return s
	}
	return s
}

// PieceValue gives a material value in centipawn-equivalent points, used
// by SEE and move ordering (MVV-LVA). Indexed by PieceType;
// King and NoPieceType are valued 0 (never traded).
var PieceValue = [NumPieceTypes + 1]int{
	Pawn: 90, Lance: 315, Knight: 405, Silver: 540, Gold: 540,
	Bishop: 855, Rook: 990, King: 0,
	ProPawn: 590, ProLance: 600, ProKnight: 600, ProSilver: 570,
	Horse: 945, Dragon: 1110,
}

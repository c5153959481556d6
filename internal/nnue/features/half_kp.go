// Package features implements the shogi HalfKP feature set: for each
// side's own king, every other piece on the board (by square, type, and
// which side owns it) and every piece held in hand (by count) contributes
// one active feature. This replaces the teacher's chess HalfKAv2_hm
// feature set (sfnnue/features/half_ka_v2_hm.go), which also includes the
// king itself as a keyed piece (the "A" in HalfKA) and mirrors across
// files via a king-bucket table; this package keeps the "half" structure
// (one index block per own-king square) and the MakeIndex/IndexList/
// DirtyPiece shape, but drops king-bucket mirroring (shogi boards aren't
// left-right symmetric in the king-bucket sense the teacher's 8-bucket
// table exploits) and adds the hand-count cumulative features shogi needs
// in place of castling-rights-style board-only state.
package features

import "github.com/shogicore/engine/internal/shogi"

// handMax is the largest number of a given piece kind one side can ever
// hold simultaneously: every copy of that kind in the game (18 pawns; 4
// lances, knights, silvers and golds; 2 bishops and rooks).
var handMax = map[shogi.PieceType]int{
	shogi.Pawn: 18, shogi.Lance: 4, shogi.Knight: 4, shogi.Silver: 4,
	shogi.Gold: 4, shogi.Bishop: 2, shogi.Rook: 2,
}

var handOrder = [...]shogi.PieceType{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold, shogi.Bishop, shogi.Rook,
}

// boardPieceKinds lists every non-king piece type that can appear as a
// HalfKP board feature.
var boardPieceKinds = [...]shogi.PieceType{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold,
	shogi.Bishop, shogi.Rook, shogi.ProPawn, shogi.ProLance, shogi.ProKnight,
	shogi.ProSilver, shogi.Horse, shogi.Dragon,
}

const (
	numHandKinds  = 7
	numBoardKinds = 13
	numRelations  = 2 // 0 = own piece, 1 = opponent piece
)

// handPlaneBase[kind][relation] is the hand feature block's starting
// offset within one king-square's feature slice.
var handPlaneBase [numHandKinds][numRelations]int

// handPlanesTotal is the width of the hand-feature block.
var handPlanesTotal int

// boardPlaneIndex[pieceType][relation] indexes into the 0..(numBoardKinds*
// numRelations-1) board-plane space; each plane spans 81 squares.
var boardPlaneIndex [shogi.NumPieceTypes][numRelations]int

// FeEnd is the number of feature indices per own-king square: hand planes
// plus board planes (81 squares each).
var FeEnd int

// Dimensions is the total input width of the HalfKP feature set: FeEnd
// repeated once per possible own-king square, the chess-template
// equivalent of features.Dimensions in sfnnue/features/half_ka_v2_hm.go.
var Dimensions int

// HashValue seeds the feature transformer's architecture hash the same
// way features.HashValue does for the teacher's HalfKAv2_hm set — an
// arbitrary but fixed constant identifying this feature set's shape so a
// mismatched weight file is rejected at load time rather than silently
// misread.
const HashValue uint32 = 0x5D69D5B9

func init() {
	offset := 0
	for i, pt := range handOrder {
		for rel := 0; rel < numRelations; rel++ {
			handPlaneBase[i][rel] = offset
			offset += handMax[pt]
		}
	}
	handPlanesTotal = offset

	plane := 0
	for _, pt := range boardPieceKinds {
		for rel := 0; rel < numRelations; rel++ {
			boardPlaneIndex[pt][rel] = plane
			plane++
		}
	}

	FeEnd = handPlanesTotal + plane*shogi.NumSquares
	Dimensions = FeEnd * shogi.NumSquares
}

func handKindIndex(pt shogi.PieceType) int {
	for i, p := range handOrder {
		if p == pt {
			return i
		}
	}
	return -1
}

func relation(perspective, pieceColor shogi.Color) int {
	if pieceColor == perspective {
		return 0
	}
	return 1
}

// orient maps a board square into perspective's canonical frame: Black
// sees the board as-is, White sees it rotated 180 degrees, so the two
// perspectives' feature encodings are structurally identical (a trained
// network doesn't need to separately learn "I am White" vs "I am Black").
func orient(sq shogi.Square, perspective shogi.Color) shogi.Square {
	if perspective == shogi.Black {
		return sq
	}
	return sq.Mirror()
}

// MaxActiveDimensions bounds how many features can be active at once:
// 40 board pieces plus up to 38*2 hand planes in a worst-case hoarded
// position; comfortably oversized for IndexList's fixed buffer.
const MaxActiveDimensions = 128

// IndexList is a fixed-capacity buffer of active feature indices.
type IndexList struct {
	Values [MaxActiveDimensions]int
	Size   int
}

func (l *IndexList) Push(idx int) {
	if l.Size < MaxActiveDimensions {
		l.Values[l.Size] = idx
		l.Size++
	}
}

func (l *IndexList) Clear() { l.Size = 0 }

// kingFeatureBase returns perspective's own-king feature block start.
func kingFeatureBase(pos *shogi.Position, perspective shogi.Color) int {
	ksq := pos.Board.KingSquare(perspective)
	return int(orient(ksq, perspective)) * FeEnd
}

// MakeBoardIndex computes the feature index contributed by piece p
// standing on sq, from perspective, given kingBase, the feature block of
// perspective's own (oriented) king square from kingFeatureBase — callers
// in hot paths compute it once per refresh instead of per piece.
func MakeBoardIndex(perspective shogi.Color, sq shogi.Square, p shogi.Piece, kingBase int) int {
	rel := relation(perspective, p.Color())
	plane := boardPlaneIndex[p.Type()][rel]
	return kingBase + handPlanesTotal + plane*shogi.NumSquares + int(orient(sq, perspective))
}

// MakeHandIndices appends every cumulative hand-count feature for holding
// n copies of pt (color c) from perspective, into out.
func MakeHandIndices(perspective shogi.Color, c shogi.Color, pt shogi.PieceType, n int, kingBase int, out *IndexList) {
	if n <= 0 {
		return
	}
	ki := handKindIndex(pt)
	if ki < 0 {
		return
	}
	rel := relation(perspective, c)
	base := handPlaneBase[ki][rel]
	max := handMax[pt]
	if n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		out.Push(kingBase + base + i)
	}
}

// AppendActiveIndices fills active with every feature index active in pos
// from perspective: every non-king board piece, plus cumulative hand
// features for both hands.
func AppendActiveIndices(perspective shogi.Color, pos *shogi.Position, active *IndexList) {
	kingBase := kingFeatureBase(pos, perspective)

	for _, pt := range boardPieceKinds {
		for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
			pos.Board.ByPiece(c, pt).ForEach(func(sq shogi.Square) {
				p := shogi.NewPiece(pt, c)
				active.Push(MakeBoardIndex(perspective, sq, p, kingBase))
			})
		}
	}
	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		for _, pt := range handOrder {
			MakeHandIndices(perspective, c, pt, pos.Hands[c].Count(pt), kingBase, active)
		}
	}
}

// DirtyPiece records what a single move changed, in feature-set terms:
// up to 3 board squares whose occupant changed (move source, move
// destination, captured piece's square when different from destination —
// shogi has no en passant, so this is always equal to the destination for
// board captures) and at most one hand-count delta (the mover's hand gains
// a piece on capture, or loses one on drop).
type DirtyPiece struct {
	FromSquare shogi.Square // NoSquare if this change has no board removal
	FromPiece  shogi.Piece

	ToSquare shogi.Square // NoSquare if this change has no board addition
	ToPiece  shogi.Piece

	CapturedSquare shogi.Square // NoSquare if the move was not a capture
	CapturedPiece  shogi.Piece

	HandColor     shogi.Color
	HandPiece     shogi.PieceType
	HandCountFrom int
	HandCountTo   int
	HasHandChange bool
}

// RequiresRefresh reports whether this change moved perspective's own
// king, which invalidates every board feature's king-relative indexing
// and forces a full accumulator recompute rather than an incremental
// update.
func (d DirtyPiece) RequiresRefresh(perspective shogi.Color) bool {
	return d.FromPiece.Type() == shogi.King && d.FromPiece.Color() == perspective
}

// AppendChangedIndices computes the removed/added feature index sets for
// a single DirtyPiece, from perspective, given perspective's own
// (oriented) king feature base.
func AppendChangedIndices(perspective shogi.Color, kingBase int, d DirtyPiece, removed, added *IndexList) {
	if d.FromSquare != shogi.NoSquare {
		removed.Push(MakeBoardIndex(perspective, d.FromSquare, d.FromPiece, kingBase))
	}
	if d.ToSquare != shogi.NoSquare {
		added.Push(MakeBoardIndex(perspective, d.ToSquare, d.ToPiece, kingBase))
	}
	if d.CapturedSquare != shogi.NoSquare {
		removed.Push(MakeBoardIndex(perspective, d.CapturedSquare, d.CapturedPiece, kingBase))
	}
	if d.HasHandChange {
		var tmpFrom, tmpTo IndexList
		MakeHandIndices(perspective, d.HandColor, d.HandPiece, d.HandCountFrom, kingBase, &tmpFrom)
		MakeHandIndices(perspective, d.HandColor, d.HandPiece, d.HandCountTo, kingBase, &tmpTo)
		if d.HandCountTo > d.HandCountFrom {
			for i := d.HandCountFrom; i < tmpTo.Size; i++ {
				added.Push(tmpTo.Values[i])
			}
		} else if d.HandCountFrom > d.HandCountTo {
			for i := d.HandCountTo; i < tmpFrom.Size; i++ {
				removed.Push(tmpFrom.Values[i])
			}
		}
	}
}

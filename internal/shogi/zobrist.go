package shogi

// Zobrist hashing, keyed from a fixed-seed xorshift64* PRNG so that hash
// keys are reproducible across runs (important for reference perft/search
// test vectors). Adapted from internal/board/zobrist.go's PRNG and table
// shape, extended with hand-count keys in place of chess's en-passant and
// castling-rights keys.

type xorshift64star struct {
	state uint64
}

func newXorshift64star(seed uint64) *xorshift64star {
	if seed == 0 {
		seed = 1
	}
	return &xorshift64star{state: seed}
}

func (x *xorshift64star) next() uint64 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	return x.state * 0x2545F4914F6CDD1D
}

// zobristSeed matches the teacher's chess implementation's choice of a
// fixed, arbitrary 64-bit seed rather than a time-based one.
const zobristSeed = 0x98F107A2BEEF1234

// zobristPiece[color][pieceType][square] keys the 81 squares x 14 piece
// types x 2 colors on-board occupancy.
var zobristPiece [2][NumPieceTypes][NumSquares]uint64

// zobristHand[color][handIndex][count] keys hand composition; count
// ranges 0..18 (the maximum copies of a single piece type across both
// hands plus the board, e.g. 18 pawns).
const maxHandCount = 19

var zobristHand [2][HandKinds][maxHandCount]uint64

// zobristSide is XORed into the key whenever it is White to move.
var zobristSide uint64

func init() {
	rng := newXorshift64star(zobristSeed)
	for c := 0; c < 2; c++ {
		for pt := 0; pt < NumPieceTypes; pt++ {
			for sq := 0; sq < NumSquares; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for c := 0; c < 2; c++ {
		for idx := 0; idx < HandKinds; idx++ {
			for n := 0; n < maxHandCount; n++ {
				zobristHand[c][idx][n] = rng.next()
			}
		}
	}
	zobristSide = rng.next()
}

// pieceKey returns the Zobrist key contribution of piece p standing on sq.
func pieceKey(p Piece, sq Square) uint64 {
	if p == NoPiece {
		return 0
	}
	return zobristPiece[p.Color()][p.Type()][sq]
}

// handKey returns the Zobrist key contribution of color c holding n copies
// of piece type pt in hand (n == 0 contributes the table's baseline key,
// which callers fold in via XOR-difference when a count changes).
func handKey(c Color, pt PieceType, n int) uint64 {
	idx := pt.HandIndex()
	if idx < 0 {
		return 0
	}
	if n >= maxHandCount {
		n = maxHandCount - 1
	}
	return zobristHand[c][idx][n]
}

package nnue

import "github.com/shogicore/engine/internal/shogi"

// NoKingSquare marks an accumulator slot that hasn't cached a king square
// yet, mirroring the teacher's SQ_NONE sentinel in nnue_accumulator.go.
const NoKingSquare = -1

// Accumulator holds one ply's feature-transformer output for both
// perspectives: the half-dimension int16 vector plus an 8-bucket int32
// PSQT partial sum, matching sfnnue.Accumulator's two-perspective shape.
type Accumulator struct {
	Accumulation     [2][]int16
	PSQTAccumulation [2][]int32
	Computed         [2]bool
	KingSq           [2]int
	NeedsRefresh     [2]bool
}

func NewAccumulator(halfDims int) *Accumulator {
	return &Accumulator{
		Accumulation:     [2][]int16{make([]int16, halfDims), make([]int16, halfDims)},
		PSQTAccumulation: [2][]int32{make([]int32, PSQTBuckets), make([]int32, PSQTBuckets)},
		KingSq:           [2]int{NoKingSquare, NoKingSquare},
		NeedsRefresh:     [2]bool{true, true},
	}
}

func (a *Accumulator) Reset() {
	a.Computed[shogi.Black], a.Computed[shogi.White] = false, false
	a.KingSq[shogi.Black], a.KingSq[shogi.White] = NoKingSquare, NoKingSquare
	a.NeedsRefresh[shogi.Black], a.NeedsRefresh[shogi.White] = true, true
}

func (a *Accumulator) Copy(other *Accumulator) {
	copy(a.Accumulation[0], other.Accumulation[0])
	copy(a.Accumulation[1], other.Accumulation[1])
	copy(a.PSQTAccumulation[0], other.PSQTAccumulation[0])
	copy(a.PSQTAccumulation[1], other.PSQTAccumulation[1])
	a.Computed = other.Computed
	a.KingSq = other.KingSq
	a.NeedsRefresh = other.NeedsRefresh
}

// MaxPlyStack bounds how deep a single search line's accumulator stack
// can grow; shogi games in practice never approach it (repetition draws
// trigger well before), so this is a generous static ceiling rather than
// a tuned limit.
const MaxPlyStack = 512

// AccumulatorStack is a per-worker ring of accumulators, one per ply of
// the current search line, so an incremental update only ever looks at
// its immediate parent.
type AccumulatorStack struct {
	Big   []Accumulator
	Small []Accumulator
	Size  int
}

func NewAccumulatorStack() *AccumulatorStack {
	s := &AccumulatorStack{
		Big:   make([]Accumulator, MaxPlyStack),
		Small: make([]Accumulator, MaxPlyStack),
		Size:  1,
	}
	for i := range s.Big {
		s.Big[i] = *NewAccumulator(TransformedFeatureDimensionsBig)
	}
	for i := range s.Small {
		s.Small[i] = *NewAccumulator(TransformedFeatureDimensionsSmall)
	}
	return s
}

func (s *AccumulatorStack) Reset() {
	s.Size = 1
	s.Big[0].Reset()
	s.Small[0].Reset()
}

// Push copies the current frame forward, preparing a slot for the next
// move's accumulator to be computed into (incrementally, when possible).
func (s *AccumulatorStack) Push() {
	if s.Size >= MaxPlyStack {
		return
	}
	s.Big[s.Size].Copy(&s.Big[s.Size-1])
	s.Small[s.Size].Copy(&s.Small[s.Size-1])
	s.Size++
}

func (s *AccumulatorStack) Pop() {
	if s.Size > 1 {
		s.Size--
	}
}

func (s *AccumulatorStack) CurrentBig() *Accumulator   { return &s.Big[s.Size-1] }
func (s *AccumulatorStack) CurrentSmall() *Accumulator { return &s.Small[s.Size-1] }

func (s *AccumulatorStack) PreviousBig() *Accumulator {
	if s.Size > 1 {
		return &s.Big[s.Size-2]
	}
	return nil
}

func (s *AccumulatorStack) PreviousSmall() *Accumulator {
	if s.Size > 1 {
		return &s.Small[s.Size-2]
	}
	return nil
}

// AccumulatorCache implements Finny tables: one cached accumulator per
// own-king square per perspective, so a king move that lands on a
// previously visited square can resume from a near-complete accumulator
// instead of paying a full feature recompute.
type AccumulatorCache struct {
	Entries [shogi.NumSquares][2]AccumulatorCacheEntry
}

type AccumulatorCacheEntry struct {
	Accumulation     []int16
	PSQTAccumulation []int32
	Pieces           [shogi.NumSquares]shogi.Piece
	PieceBB          shogi.Bitboard
}

func NewAccumulatorCache(halfDims int, biases []int16) *AccumulatorCache {
	c := &AccumulatorCache{}
	for sq := 0; sq < shogi.NumSquares; sq++ {
		for color := 0; color < 2; color++ {
			e := &c.Entries[sq][color]
			e.Accumulation = make([]int16, halfDims)
			e.PSQTAccumulation = make([]int32, PSQTBuckets)
			copy(e.Accumulation, biases)
			for i := range e.Pieces {
				e.Pieces[i] = shogi.NoPiece
			}
		}
	}
	return c
}

func (c *AccumulatorCache) Clear(biases []int16) {
	for sq := 0; sq < shogi.NumSquares; sq++ {
		for color := 0; color < 2; color++ {
			e := &c.Entries[sq][color]
			copy(e.Accumulation, biases)
			for i := range e.PSQTAccumulation {
				e.PSQTAccumulation[i] = 0
			}
			for i := range e.Pieces {
				e.Pieces[i] = shogi.NoPiece
			}
			e.PieceBB = shogi.Bitboard{}
		}
	}
}

func (c *AccumulatorCache) GetEntry(kingSq shogi.Square, perspective shogi.Color) *AccumulatorCacheEntry {
	return &c.Entries[kingSq][perspective]
}

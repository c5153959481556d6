package nnue

import (
	"fmt"
	"io"

	"github.com/shogicore/engine/internal/nnue/common"
	"github.com/shogicore/engine/internal/nnue/features"
	"github.com/shogicore/engine/internal/shogi"
)

// OutputScale and WeightScaleBits are the evaluation-file quantisation
// constants, named for the same constants in sfnnue/nnue_common.go.
const (
	OutputScale     = 16
	WeightScaleBits = 6
	networkVersion  = 0x7AF32F21
)

// FeatureTransformer is the network's input layer: it holds one weight
// row per HalfKP feature index and accumulates the active rows' weights
// into a per-perspective int16 vector plus an 8-bucket PSQT partial sum.
// Dropped relative to sfnnue.FeatureTransformer: the UseThreats branch
// and its ThreatWeights/ThreatPSQTWeights fields — the teacher's big
// network reads a second, much larger feature block encoding squares
// under attack, which has no defined HalfKP analogue here and nothing in
// SPEC_FULL.md calls for one; both network sizes use the same HalfKP
// feature set, differing only in HalfDimensions.
type FeatureTransformer struct {
	HalfDimensions  int
	InputDimensions int

	Biases      []int16
	Weights     []int16
	PSQTWeights []int32
}

func newFeatureTransformer(halfDims int) *FeatureTransformer {
	return &FeatureTransformer{
		HalfDimensions:  halfDims,
		InputDimensions: features.Dimensions,
		Biases:          make([]int16, halfDims),
		Weights:         make([]int16, halfDims*features.Dimensions),
		PSQTWeights:     make([]int32, features.Dimensions*PSQTBuckets),
	}
}

func NewBigFeatureTransformer() *FeatureTransformer {
	return newFeatureTransformer(TransformedFeatureDimensionsBig)
}

func NewSmallFeatureTransformer() *FeatureTransformer {
	return newFeatureTransformer(TransformedFeatureDimensionsSmall)
}

func (ft *FeatureTransformer) GetHashValue() uint32 {
	return features.HashValue ^ uint32(ft.HalfDimensions*2)
}

// ReadParameters reads LEB128-compressed biases, weights, and PSQT
// weights, the same compression scheme (and field order) as the
// teacher's small-network branch in nnue_feature_transformer.go — this
// engine carries no threat-feature block, so there's no big/small
// divergence in this method the way there is in the teacher's.
func (ft *FeatureTransformer) ReadParameters(r io.Reader) error {
	if err := common.ReadLEB128(r, ft.Biases); err != nil {
		return fmt.Errorf("nnue: feature transformer biases: %w", err)
	}
	if err := common.ReadLEB128(r, ft.Weights); err != nil {
		return fmt.Errorf("nnue: feature transformer weights: %w", err)
	}
	if err := common.ReadLEB128(r, ft.PSQTWeights); err != nil {
		return fmt.Errorf("nnue: feature transformer psqt weights: %w", err)
	}
	return nil
}

// Transform applies the pairwise clipped nonlinearity across both
// perspectives' half-dimension accumulators, filling output (length
// HalfDimensions) and returning the PSQT partial score for bucket.
func (ft *FeatureTransformer) Transform(
	accumulation [2][]int16,
	psqtAccumulation [2][]int32,
	perspectives [2]shogi.Color,
	bucket int,
	output []uint8,
) int32 {
	psqt := (psqtAccumulation[perspectives[0]][bucket] - psqtAccumulation[perspectives[1]][bucket]) / 2

	halfDims := ft.HalfDimensions
	halfHalf := halfDims / 2
	const maxVal = 127 * 2

	for p := 0; p < 2; p++ {
		offset := halfHalf * p
		acc := accumulation[perspectives[p]]
		transformClampMul(acc[:halfHalf], acc[halfHalf:halfDims], output[offset:offset+halfHalf], maxVal)
	}
	return psqt
}

// ComputeAccumulator performs a full refresh: bias initialisation plus
// every currently active HalfKP feature's weight row.
func (ft *FeatureTransformer) ComputeAccumulator(active *features.IndexList, accumulation []int16, psqtAccumulation []int32) {
	copyInt16(accumulation, ft.Biases)
	for i := range psqtAccumulation {
		psqtAccumulation[i] = 0
	}
	for i := 0; i < active.Size; i++ {
		idx := active.Values[i]
		if idx < 0 || idx >= ft.InputDimensions {
			continue
		}
		addInt16Offset(accumulation, ft.Weights, idx*ft.HalfDimensions, ft.HalfDimensions)
		psqtOffset := idx * PSQTBuckets
		for b := 0; b < PSQTBuckets; b++ {
			psqtAccumulation[b] += ft.PSQTWeights[psqtOffset+b]
		}
	}
}

// UpdateAccumulator applies a DirtyPiece-derived set of removed/added
// feature indices in place, the incremental counterpart to
// ComputeAccumulator.
func (ft *FeatureTransformer) UpdateAccumulator(removed, added *features.IndexList, accumulation []int16, psqtAccumulation []int32) {
	for i := 0; i < removed.Size; i++ {
		idx := removed.Values[i]
		if idx < 0 || idx >= ft.InputDimensions {
			continue
		}
		subInt16Offset(accumulation, ft.Weights, idx*ft.HalfDimensions, ft.HalfDimensions)
		psqtOffset := idx * PSQTBuckets
		for b := 0; b < PSQTBuckets; b++ {
			psqtAccumulation[b] -= ft.PSQTWeights[psqtOffset+b]
		}
	}
	for i := 0; i < added.Size; i++ {
		idx := added.Values[i]
		if idx < 0 || idx >= ft.InputDimensions {
			continue
		}
		addInt16Offset(accumulation, ft.Weights, idx*ft.HalfDimensions, ft.HalfDimensions)
		psqtOffset := idx * PSQTBuckets
		for b := 0; b < PSQTBuckets; b++ {
			psqtAccumulation[b] += ft.PSQTWeights[psqtOffset+b]
		}
	}
}

// ForwardUpdateIncremental copies prevAcc's perspective slice into currAcc
// then applies the move's feature delta, avoiding a full recompute.
func (ft *FeatureTransformer) ForwardUpdateIncremental(prevAcc, currAcc *Accumulator, removed, added *features.IndexList, perspective shogi.Color) {
	copyInt16(currAcc.Accumulation[perspective], prevAcc.Accumulation[perspective])
	copy(currAcc.PSQTAccumulation[perspective], prevAcc.PSQTAccumulation[perspective])
	ft.UpdateAccumulator(removed, added, currAcc.Accumulation[perspective], currAcc.PSQTAccumulation[perspective])
	currAcc.Computed[perspective] = true
	currAcc.KingSq[perspective] = prevAcc.KingSq[perspective]
}

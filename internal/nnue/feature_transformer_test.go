package nnue

import (
	"testing"

	"github.com/shogicore/engine/internal/nnue/features"
)

func newTestTransformer(halfDims, inputDims int) *FeatureTransformer {
	ft := &FeatureTransformer{
		HalfDimensions:  halfDims,
		InputDimensions: inputDims,
		Biases:          make([]int16, halfDims),
		Weights:         make([]int16, halfDims*inputDims),
		PSQTWeights:     make([]int32, inputDims*PSQTBuckets),
	}
	for i := range ft.Biases {
		ft.Biases[i] = int16(i + 1)
	}
	for idx := 0; idx < inputDims; idx++ {
		for i := 0; i < halfDims; i++ {
			ft.Weights[idx*halfDims+i] = int16((idx+1)*10 + i)
		}
		for b := 0; b < PSQTBuckets; b++ {
			ft.PSQTWeights[idx*PSQTBuckets+b] = int32((idx + 1) * (b + 1))
		}
	}
	return ft
}

func TestComputeAccumulatorAddsBiasesAndActiveWeights(t *testing.T) {
	ft := newTestTransformer(4, 3)
	var active features.IndexList
	active.Push(0)
	active.Push(2)

	accumulation := make([]int16, 4)
	psqt := make([]int32, PSQTBuckets)
	ft.ComputeAccumulator(&active, accumulation, psqt)

	for i := 0; i < 4; i++ {
		want := ft.Biases[i] + ft.Weights[0*4+i] + ft.Weights[2*4+i]
		if accumulation[i] != want {
			t.Fatalf("accumulation[%d] = %d, want %d", i, accumulation[i], want)
		}
	}
}

func TestRefreshAndIncrementalUpdateAgree(t *testing.T) {
	ft := newTestTransformer(8, 5)

	var full features.IndexList
	full.Push(1)
	full.Push(3)
	full.Push(4)

	refAcc := make([]int16, 8)
	refPsqt := make([]int32, PSQTBuckets)
	ft.ComputeAccumulator(&full, refAcc, refPsqt)

	var base features.IndexList
	base.Push(1)
	baseAcc := make([]int16, 8)
	basePsqt := make([]int32, PSQTBuckets)
	ft.ComputeAccumulator(&base, baseAcc, basePsqt)

	var removed, added features.IndexList
	added.Push(3)
	added.Push(4)
	ft.UpdateAccumulator(&removed, &added, baseAcc, basePsqt)

	for i := range refAcc {
		if baseAcc[i] != refAcc[i] {
			t.Fatalf("incremental update diverged from full refresh at %d: got %d want %d", i, baseAcc[i], refAcc[i])
		}
	}
	for b := range refPsqt {
		if basePsqt[b] != refPsqt[b] {
			t.Fatalf("psqt incremental update diverged at bucket %d: got %d want %d", b, basePsqt[b], refPsqt[b])
		}
	}
}

func TestUpdateAccumulatorRemoveThenAddIsIdentity(t *testing.T) {
	ft := newTestTransformer(8, 5)
	var active features.IndexList
	active.Push(2)
	acc := make([]int16, 8)
	psqt := make([]int32, PSQTBuckets)
	ft.ComputeAccumulator(&active, acc, psqt)

	before := append([]int16(nil), acc...)

	var removed, added features.IndexList
	removed.Push(2)
	added.Push(2)
	ft.UpdateAccumulator(&removed, &added, acc, psqt)

	for i := range acc {
		if acc[i] != before[i] {
			t.Fatalf("remove-then-add should be identity at %d: got %d want %d", i, acc[i], before[i])
		}
	}
}

// Package nnue implements the shogi evaluator: feature transformer,
// accumulator stack, and the quantised layer-stack forward network,
// wired together by Network/Evaluator.
//
// Adapted from the teacher's sfnnue package (Stockfish's NNUE port):
// same accumulator-stack/feature-transformer/layer-stack shape, the
// HalfKP feature set from internal/nnue/features replacing chess's
// HalfKAv2_hm, and no threat-feature branch (shogi has no analogue of
// chess's "pieces under attack" auxiliary feature set the teacher's big
// network reads alongside HalfKAv2_hm, so that branch is dropped rather
// than adapted — see DESIGN.md).
package nnue

// These accumulator-level helpers mirror the teacher's SIMDAddInt16Offset
// family in sfnnue/simd_scalar.go. The teacher ships three build-tagged
// variants (AVX2 via Go's experimental simd package, ARM64 NEON
// assembly, and this scalar fallback); only the scalar fallback is
// reproduced here; see internal/nnue/layers/simd.go for the reasoning:
// neither of the accelerated paths can be authored without a toolchain
// to assemble or verify them against.

func addInt16Offset(dst, src []int16, offset, count int) {
	for i := 0; i < count; i++ {
		dst[i] += src[offset+i]
	}
}

func subInt16Offset(dst, src []int16, offset, count int) {
	for i := 0; i < count; i++ {
		dst[i] -= src[offset+i]
	}
}

func copyInt16(dst, src []int16) { copy(dst, src) }

func clippedReLU32(input []int32, output []uint8, shift int) {
	for i, v := range input {
		val := v >> shift
		if val < 0 {
			val = 0
		} else if val > 127 {
			val = 127
		}
		output[i] = uint8(val)
	}
}

// transformClampMul implements the feature transformer's pairwise
// nonlinearity: each perspective's half-dimension accumulator is split in
// two, both halves clamped to [0, maxVal], and multiplied elementwise
// then rescaled — the same "squared/paired clipped ReLU" step Stockfish's
// nnue_feature_transformer.h performs in Transform(), reproduced here
// scalar-only.
func transformClampMul(acc0, acc1 []int16, output []uint8, maxVal int32) {
	for j := range output {
		v0 := int32(acc0[j])
		v1 := int32(acc1[j])
		if v0 < 0 {
			v0 = 0
		} else if v0 > maxVal {
			v0 = maxVal
		}
		if v1 < 0 {
			v1 = 0
		} else if v1 > maxVal {
			v1 = maxVal
		}
		output[j] = uint8((v0 * v1) >> 9)
	}
}

// Package layers implements the architecture-agnostic int8/int16/int32
// linear-algebra kernels an NNUE network is built from: affine transforms
// (dense and sparse-input) and clipped-ReLU-family activations. None of
// these kernels know about shogi; the feature set (internal/nnue/features)
// is where board-specific encoding lives.
//
// Kept nearly verbatim from sfnnue/layers/*.go.
package layers

// SIMDDotProductInt8Uint8 computes sum(weights[i] * inputs[i]) for
// i in [0, count). Scalar implementation only: the teacher's arm64 NEON
// assembly variant is not reproduced here (see DESIGN.md) since it can't
// be verified without running the toolchain; the scalar fallback is
// correct on every platform, just slower.
func SIMDDotProductInt8Uint8(weights []int8, inputs []uint8, count int) int32 {
	var sum int32
	i := 0
	for ; i+4 <= count; i += 4 {
		sum += int32(weights[i]) * int32(inputs[i])
		sum += int32(weights[i+1]) * int32(inputs[i+1])
		sum += int32(weights[i+2]) * int32(inputs[i+2])
		sum += int32(weights[i+3]) * int32(inputs[i+3])
	}
	for ; i < count; i++ {
		sum += int32(weights[i]) * int32(inputs[i])
	}
	return sum
}

package nnue

import "testing"

func TestClippedReLU32ClampsToByteRange(t *testing.T) {
	input := []int32{-64, 0, 64, 8192, 8128}
	output := make([]uint8, len(input))
	clippedReLU32(input, output, 6)
	want := []uint8{0, 0, 1, 127, 127}
	for i := range want {
		if output[i] != want[i] {
			t.Fatalf("clippedReLU32[%d] = %d, want %d", i, output[i], want[i])
		}
	}
}

func TestTransformClampMulClampsNegativesToZero(t *testing.T) {
	acc0 := []int16{-10, 50}
	acc1 := []int16{-5, 60}
	out := make([]uint8, 2)
	transformClampMul(acc0, acc1, out, 254)
	if out[0] != 0 {
		t.Fatalf("negative inputs should clamp to 0 before multiply, got %d", out[0])
	}
}

func TestAddThenSubInt16OffsetIsIdentity(t *testing.T) {
	dst := []int16{1, 2, 3, 4}
	src := []int16{10, 20, 30, 40, 50, 60}
	before := append([]int16(nil), dst...)

	addInt16Offset(dst, src, 1, 4)
	subInt16Offset(dst, src, 1, 4)

	for i := range dst {
		if dst[i] != before[i] {
			t.Fatalf("add-then-sub should be identity at %d: got %d want %d", i, dst[i], before[i])
		}
	}
}

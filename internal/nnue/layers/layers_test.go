package layers

import "testing"

func TestSIMDDotProductInt8Uint8(t *testing.T) {
	weights := []int8{1, -2, 3, 4}
	inputs := []uint8{10, 20, 30, 40}
	want := int32(1*10 + -2*20 + 3*30 + 4*40)
	if got := SIMDDotProductInt8Uint8(weights, inputs, len(weights)); got != want {
		t.Fatalf("SIMDDotProductInt8Uint8 = %d, want %d", got, want)
	}
}

func TestClippedReLUClampsToByteRange(t *testing.T) {
	c := NewClippedReLU(5)
	input := []int32{-640, 0, 64, 8192, 8128}
	output := make([]uint8, 5)
	c.Propagate(input, output)
	want := []uint8{0, 0, 1, 127, 127}
	for i := range want {
		if output[i] != want[i] {
			t.Fatalf("ClippedReLU output[%d] = %d, want %d", i, output[i], want[i])
		}
	}
}

func TestSqrClippedReLUNeverExceeds127(t *testing.T) {
	s := NewSqrClippedReLU(3)
	input := []int32{1 << 20, -(1 << 20), 100}
	output := make([]uint8, 3)
	s.Propagate(input, output)
	for i, v := range output {
		if v > 127 {
			t.Fatalf("SqrClippedReLU output[%d] = %d, exceeds 127", i, v)
		}
	}
}

func TestAffineTransformZeroWeightsZeroBiasIsZero(t *testing.T) {
	a := NewAffineTransform(64, 4)
	input := make([]uint8, 64)
	for i := range input {
		input[i] = 5
	}
	output := make([]int32, 4)
	a.Propagate(input, output)
	for i, v := range output {
		if v != 0 {
			t.Fatalf("output[%d] = %d, want 0 with zero weights/biases", i, v)
		}
	}
}

func TestAffineTransformAddsBias(t *testing.T) {
	a := NewAffineTransform(32, 2)
	a.Biases[0] = 7
	a.Biases[1] = -3
	input := make([]uint8, 32)
	output := make([]int32, 2)
	a.Propagate(input, output)
	if output[0] != 7 || output[1] != -3 {
		t.Fatalf("expected bias-only output [7,-3], got %v", output)
	}
}

func TestAffineTransformSparseInputSkipsZeroChunks(t *testing.T) {
	a := NewAffineTransformSparseInput(8, 2)
	input := make([]uint8, 8)
	output := make([]int32, 2)
	a.Propagate(input, output)
	if output[0] != 0 || output[1] != 0 {
		t.Fatalf("all-zero input with zero bias should produce zero output, got %v", output)
	}
}

func TestGetHashValueDiffersByOutputDimensions(t *testing.T) {
	a := NewAffineTransform(16, 4)
	b := NewAffineTransform(16, 8)
	if a.GetHashValue(0) == b.GetHashValue(0) {
		t.Fatal("different output dimensions should hash differently")
	}
}

package layers

import (
	"fmt"
	"io"

	"github.com/shogicore/engine/internal/nnue/common"
)

// AffineTransformHashValue folds this layer's output width into the
// running architecture hash.
func AffineTransformHashValue(prevHash uint32, outputDims int) uint32 {
	hashValue := uint32(0xCC03DAE4)
	hashValue += uint32(outputDims)
	hashValue ^= prevHash >> 1
	hashValue ^= prevHash << 31
	return hashValue
}

// AffineTransform is a dense fully-connected layer: int8 weights, int32
// biases and output, uint8 input.
type AffineTransform struct {
	InputDimensions       int
	OutputDimensions      int
	PaddedInputDimensions int

	Biases  []int32
	Weights []int8
}

func NewAffineTransform(inputDims, outputDims int) *AffineTransform {
	paddedInput := common.CeilToMultiple(inputDims, common.MaxSimdWidth)
	return &AffineTransform{
		InputDimensions:       inputDims,
		OutputDimensions:      outputDims,
		PaddedInputDimensions: paddedInput,
		Biases:                make([]int32, outputDims),
		Weights:               make([]int8, outputDims*paddedInput),
	}
}

func (a *AffineTransform) GetHashValue(prevHash uint32) uint32 {
	return AffineTransformHashValue(prevHash, a.OutputDimensions)
}

// ReadParameters reads biases then weights, re-scrambling the weight rows
// into a SIMD-friendly chunked layout as it reads.
func (a *AffineTransform) ReadParameters(r io.Reader) error {
	if err := common.ReadLittleEndianSlice(r, a.Biases); err != nil {
		return fmt.Errorf("nnue: affine transform biases: %w", err)
	}
	weightData := make([]int8, a.OutputDimensions*a.PaddedInputDimensions)
	if err := common.ReadLittleEndianSlice(r, weightData); err != nil {
		return fmt.Errorf("nnue: affine transform weights: %w", err)
	}
	for i, w := range weightData {
		a.Weights[a.getWeightIndex(i)] = w
	}
	return nil
}

func (a *AffineTransform) getWeightIndex(i int) int {
	return (i/4)%(a.PaddedInputDimensions/4)*a.OutputDimensions*4 +
		i/a.PaddedInputDimensions*4 + i%4
}

// Propagate computes output = Weights*input + Biases, reading each weight
// through getWeightIndex since ReadParameters stores them chunked.
func (a *AffineTransform) Propagate(input []uint8, output []int32) {
	for i := 0; i < a.OutputDimensions; i++ {
		sum := a.Biases[i]
		for j := 0; j < a.InputDimensions; j++ {
			sum += int32(a.Weights[a.getWeightIndex(i*a.PaddedInputDimensions+j)]) * int32(input[j])
		}
		output[i] = sum
	}
}

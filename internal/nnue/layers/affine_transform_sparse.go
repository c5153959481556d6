package layers

import (
	"fmt"
	"io"

	"github.com/shogicore/engine/internal/nnue/common"
)

// AffineTransformSparseInput is the first fully-connected layer after the
// feature transformer, where most inputs are zero (clipped-ReLU output of
// a sparse accumulator). It skips whole 4-byte input chunks that are
// entirely zero instead of computing a full dot product.
type AffineTransformSparseInput struct {
	InputDimensions       int
	OutputDimensions      int
	PaddedInputDimensions int

	Biases  []int32
	Weights []int8
}

func NewAffineTransformSparseInput(inputDims, outputDims int) *AffineTransformSparseInput {
	paddedInput := common.CeilToMultiple(inputDims, common.MaxSimdWidth)
	return &AffineTransformSparseInput{
		InputDimensions:       inputDims,
		OutputDimensions:      outputDims,
		PaddedInputDimensions: paddedInput,
		Biases:                make([]int32, outputDims),
		Weights:               make([]int8, outputDims*paddedInput),
	}
}

func (a *AffineTransformSparseInput) GetHashValue(prevHash uint32) uint32 {
	return AffineTransformHashValue(prevHash, a.OutputDimensions)
}

func (a *AffineTransformSparseInput) ReadParameters(r io.Reader) error {
	if err := common.ReadLittleEndianSlice(r, a.Biases); err != nil {
		return fmt.Errorf("nnue: sparse affine transform biases: %w", err)
	}
	weightData := make([]int8, a.OutputDimensions*a.PaddedInputDimensions)
	if err := common.ReadLittleEndianSlice(r, weightData); err != nil {
		return fmt.Errorf("nnue: sparse affine transform weights: %w", err)
	}
	for i, w := range weightData {
		a.Weights[a.getWeightIndex(i)] = w
	}
	return nil
}

func (a *AffineTransformSparseInput) getWeightIndex(i int) int {
	const chunkSize = 4
	return (i/chunkSize)%(a.PaddedInputDimensions/chunkSize)*a.OutputDimensions*chunkSize +
		i/a.PaddedInputDimensions*chunkSize + i%chunkSize
}

// Propagate adds Biases to output, then accumulates only the 4-byte input
// chunks that have at least one non-zero byte.
func (a *AffineTransformSparseInput) Propagate(input []uint8, output []int32) {
	copy(output, a.Biases)

	const chunkSize = 4
	numChunks := common.CeilToMultiple(a.InputDimensions, 8) / chunkSize

	input32 := make([]int32, (len(input)+3)/4)
	for i := 0; i < len(input); i++ {
		input32[i/4] |= int32(input[i]) << (8 * (i % 4))
	}

	for idx := 0; idx < numChunks && idx < len(input32); idx++ {
		in := input32[idx]
		if in == 0 {
			continue
		}
		b0 := uint8(in)
		b1 := uint8(in >> 8)
		b2 := uint8(in >> 16)
		b3 := uint8(in >> 24)

		colOffset := idx * a.OutputDimensions * chunkSize
		for k := 0; k < a.OutputDimensions; k++ {
			weightOffset := colOffset + k*chunkSize
			output[k] += int32(a.Weights[weightOffset+0]) * int32(b0)
			output[k] += int32(a.Weights[weightOffset+1]) * int32(b1)
			output[k] += int32(a.Weights[weightOffset+2]) * int32(b2)
			output[k] += int32(a.Weights[weightOffset+3]) * int32(b3)
		}
	}
}

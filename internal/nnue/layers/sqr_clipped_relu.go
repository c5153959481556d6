package layers

// SqrClippedReLUHashValue matches ClippedReLU's hash contribution: the
// weight-file format doesn't distinguish the two activation kinds in its
// architecture hash, only in which layer class reads the bytes.
func SqrClippedReLUHashValue(prevHash uint32) uint32 {
	return 0x538D24C7 + prevHash
}

// SqrClippedReLU computes min(127, x^2 >> (2*WeightScaleBits+7)).
type SqrClippedReLU struct {
	InputDimensions  int
	OutputDimensions int
}

func NewSqrClippedReLU(dims int) *SqrClippedReLU {
	return &SqrClippedReLU{InputDimensions: dims, OutputDimensions: dims}
}

func (s *SqrClippedReLU) GetHashValue(prevHash uint32) uint32 {
	return SqrClippedReLUHashValue(prevHash)
}

func (s *SqrClippedReLU) ReadParameters() error { return nil }

func (s *SqrClippedReLU) Propagate(input []int32, output []uint8) {
	const shift = 2*WeightScaleBits + 7
	n := s.InputDimensions
	i := 0
	for ; i+4 <= n; i += 4 {
		output[i] = sqrClamp127(input[i], shift)
		output[i+1] = sqrClamp127(input[i+1], shift)
		output[i+2] = sqrClamp127(input[i+2], shift)
		output[i+3] = sqrClamp127(input[i+3], shift)
	}
	for ; i < n; i++ {
		output[i] = sqrClamp127(input[i], shift)
	}
}

func sqrClamp127(x int32, shift uint) uint8 {
	val := int64(x) * int64(x) >> shift
	if val > 127 {
		val = 127
	}
	return uint8(val)
}

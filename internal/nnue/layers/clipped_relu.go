package layers

// WeightScaleBits is the fixed-point shift applied between integer layers.
const WeightScaleBits = 6

// ClippedReLUHashValue folds this layer's contribution into the running
// architecture hash used to verify a weight file matches this code.
func ClippedReLUHashValue(prevHash uint32) uint32 {
	return 0x538D24C7 + prevHash
}

// ClippedReLU clamps its shifted input to [0, 127].
type ClippedReLU struct {
	InputDimensions  int
	OutputDimensions int
}

func NewClippedReLU(dims int) *ClippedReLU {
	return &ClippedReLU{InputDimensions: dims, OutputDimensions: dims}
}

func (c *ClippedReLU) GetHashValue(prevHash uint32) uint32 { return ClippedReLUHashValue(prevHash) }

func (c *ClippedReLU) ReadParameters() error { return nil }

// Propagate applies clamp(x >> WeightScaleBits, 0, 127), unrolled by 4.
func (c *ClippedReLU) Propagate(input []int32, output []uint8) {
	n := c.InputDimensions
	i := 0
	for ; i+4 <= n; i += 4 {
		v0 := input[i] >> WeightScaleBits
		v1 := input[i+1] >> WeightScaleBits
		v2 := input[i+2] >> WeightScaleBits
		v3 := input[i+3] >> WeightScaleBits
		output[i] = clamp127(v0)
		output[i+1] = clamp127(v1)
		output[i+2] = clamp127(v2)
		output[i+3] = clamp127(v3)
	}
	for ; i < n; i++ {
		output[i] = clamp127(input[i] >> WeightScaleBits)
	}
}

func clamp127(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

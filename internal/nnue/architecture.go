package nnue

import (
	"io"

	"github.com/shogicore/engine/internal/nnue/layers"
)

// Network size constants, same shape as the teacher's nnue_architecture.go
// (big/small transformed-feature widths, L2/L3 widths, PSQT bucket count
// and layer-stack count). The dual-network split itself is not a teacher
// invention to replace — SPEC_FULL.md's supplemented "dual-network
// evaluation blending" feature asks for exactly this big/small split.
const (
	TransformedFeatureDimensionsBig   = 1024
	TransformedFeatureDimensionsSmall = 128
	L2Big                             = 15
	L3Big                             = 32
	L2Small                           = 15
	L3Small                           = 32

	// PSQTBuckets/LayerStacks select a material-count-dependent layer
	// stack and PSQT bucket, same bucketing idea as the teacher's
	// chess network but driven by shogi's up-to-40-piece material count
	// instead of chess's up-to-32.
	PSQTBuckets = 8
	LayerStacks = 8
)

// ForwardBuffers holds the fixed-size intermediate buffers for one
// layer-stack forward pass, avoiding a heap allocation per evaluation.
type ForwardBuffers struct {
	FC0Out    [32]int32
	AcSqr0Out [64]uint8
	Ac0Out    [32]uint8
	FC1Out    [32]int32
	Ac1Out    [32]uint8
	FC2Out    [32]int32
}

// NetworkArchitecture is one layer stack: sparse affine transform into a
// small hidden width, a paired squared/linear clipped-ReLU nonlinearity,
// a second affine transform, and a final scalar affine output — the
// same five-layer shape as sfnnue's NetworkArchitecture.
type NetworkArchitecture struct {
	TransformedFeatureDimensions int
	FC0Outputs                   int
	FC1Outputs                   int

	FC0    *layers.AffineTransformSparseInput
	AcSqr0 *layers.SqrClippedReLU
	Ac0    *layers.ClippedReLU
	FC1    *layers.AffineTransform
	Ac1    *layers.ClippedReLU
	FC2    *layers.AffineTransform

	buffers ForwardBuffers
}

func newNetworkArchitecture(transformedDims, l3 int) *NetworkArchitecture {
	fc0Out := L2Big + 1
	if transformedDims == TransformedFeatureDimensionsSmall {
		fc0Out = L2Small + 1
	}
	return &NetworkArchitecture{
		TransformedFeatureDimensions: transformedDims,
		FC0Outputs:                   fc0Out,
		FC1Outputs:                   l3,
		FC0:                          layers.NewAffineTransformSparseInput(transformedDims, fc0Out),
		AcSqr0:                       layers.NewSqrClippedReLU(fc0Out),
		Ac0:                          layers.NewClippedReLU(fc0Out),
		FC1:                          layers.NewAffineTransform(fc0Out*2, l3),
		Ac1:                          layers.NewClippedReLU(l3),
		FC2:                          layers.NewAffineTransform(l3, 1),
	}
}

func NewBigNetworkArchitecture() *NetworkArchitecture {
	return newNetworkArchitecture(TransformedFeatureDimensionsBig, L3Big)
}

func NewSmallNetworkArchitecture() *NetworkArchitecture {
	return newNetworkArchitecture(TransformedFeatureDimensionsSmall, L3Small)
}

func (n *NetworkArchitecture) GetHashValue() uint32 {
	hashValue := uint32(0xEC42E90D)
	hashValue ^= uint32(n.TransformedFeatureDimensions * 2)
	hashValue = n.FC0.GetHashValue(hashValue)
	hashValue = n.Ac0.GetHashValue(hashValue)
	hashValue = n.FC1.GetHashValue(hashValue)
	hashValue = n.Ac1.GetHashValue(hashValue)
	hashValue = n.FC2.GetHashValue(hashValue)
	return hashValue
}

func (n *NetworkArchitecture) ReadParameters(r io.Reader) error {
	if err := n.FC0.ReadParameters(r); err != nil {
		return err
	}
	if err := n.FC1.ReadParameters(r); err != nil {
		return err
	}
	return n.FC2.ReadParameters(r)
}

// Propagate runs the forward pass and returns the output scaled per
// OutputScale/WeightScaleBits, including the FC0-skip forward term the
// teacher's network.Propagate adds in nnue_architecture.go.
func (n *NetworkArchitecture) Propagate(transformedFeatures []uint8) int32 {
	fc0Out := n.buffers.FC0Out[:ceilToMultiple(n.FC0Outputs, 32)]
	acSqr0Out := n.buffers.AcSqr0Out[:ceilToMultiple(n.FC0Outputs*2, 32)]
	ac0Out := n.buffers.Ac0Out[:ceilToMultiple(n.FC0Outputs, 32)]
	fc1Out := n.buffers.FC1Out[:ceilToMultiple(n.FC1Outputs, 32)]
	ac1Out := n.buffers.Ac1Out[:ceilToMultiple(n.FC1Outputs, 32)]
	fc2Out := n.buffers.FC2Out[:32]

	n.FC0.Propagate(transformedFeatures, fc0Out)
	n.AcSqr0.Propagate(fc0Out, acSqr0Out[:n.FC0Outputs])
	clippedReLU32(fc0Out, ac0Out, layers.WeightScaleBits)
	copy(acSqr0Out[n.FC0Outputs:], ac0Out[:n.FC0Outputs])

	n.FC1.Propagate(acSqr0Out, fc1Out)
	clippedReLU32(fc1Out, ac1Out, layers.WeightScaleBits)
	n.FC2.Propagate(ac1Out, fc2Out)

	fwdOut := fc0Out[n.FC0Outputs-1] * (600 * OutputScale) / (127 * (1 << layers.WeightScaleBits))
	return fc2Out[0] + fwdOut
}

func ceilToMultiple(n, base int) int { return (n + base - 1) / base * base }

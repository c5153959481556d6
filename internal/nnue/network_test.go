package nnue

import (
	"testing"

	"github.com/shogicore/engine/internal/shogi"
)

func TestMaterialBucketClampsToValidRange(t *testing.T) {
	if b := materialBucket(0); b != 0 {
		t.Fatalf("materialBucket(0) = %d, want 0", b)
	}
	if b := materialBucket(1000); b != LayerStacks-1 {
		t.Fatalf("materialBucket(1000) = %d, want %d", b, LayerStacks-1)
	}
	if b := materialBucket(-5); b != 0 {
		t.Fatalf("materialBucket(-5) = %d, want 0", b)
	}
}

func TestCeilToMultiple(t *testing.T) {
	cases := map[[2]int]int{
		{0, 32}:  0,
		{1, 32}:  32,
		{32, 32}: 32,
		{33, 32}: 64,
	}
	for in, want := range cases {
		if got := ceilToMultiple(in[0], in[1]); got != want {
			t.Fatalf("ceilToMultiple(%d,%d) = %d, want %d", in[0], in[1], got, want)
		}
	}
}

// A zero-initialized network (zero weights, zero biases everywhere) must
// evaluate every legal position to 0 — the network contributes nothing
// when it hasn't been trained, so the forward pass should be a strict
// linear function of weights that vanishes when they do.
func TestZeroNetworkEvaluatesToZero(t *testing.T) {
	networks := NewNetworks()
	evaluator := NewEvaluator(networks)

	pos := shogi.StartPosition()
	evaluator.RefreshBig(pos, shogi.Black)
	evaluator.RefreshBig(pos, shogi.White)
	evaluator.RefreshSmall(pos, shogi.Black)
	evaluator.RefreshSmall(pos, shogi.White)

	if got := evaluator.Evaluate(pos); got != 0 {
		t.Fatalf("zero network should evaluate to 0, got %d", got)
	}
}

func TestPieceCountAtStartPosition(t *testing.T) {
	pos := shogi.StartPosition()
	if got := pieceCount(pos); got != 40 {
		t.Fatalf("start position should have 40 pieces (including both kings), got %d", got)
	}
}

package nnue

import "testing"

func TestAccumulatorResetClearsComputedAndKingSq(t *testing.T) {
	acc := NewAccumulator(32)
	acc.Computed[0], acc.Computed[1] = true, true
	acc.KingSq[0], acc.KingSq[1] = 5, 9
	acc.Reset()
	if acc.Computed[0] || acc.Computed[1] {
		t.Fatal("Reset should clear Computed flags")
	}
	if acc.KingSq[0] != NoKingSquare || acc.KingSq[1] != NoKingSquare {
		t.Fatal("Reset should clear cached king squares")
	}
}

func TestAccumulatorCopyMatchesSource(t *testing.T) {
	src := NewAccumulator(16)
	src.Accumulation[0][3] = 42
	src.PSQTAccumulation[1][2] = -7
	src.Computed[0] = true
	src.KingSq[1] = 11

	dst := NewAccumulator(16)
	dst.Copy(src)

	if dst.Accumulation[0][3] != 42 {
		t.Fatalf("Accumulation not copied: got %d", dst.Accumulation[0][3])
	}
	if dst.PSQTAccumulation[1][2] != -7 {
		t.Fatalf("PSQTAccumulation not copied: got %d", dst.PSQTAccumulation[1][2])
	}
	if !dst.Computed[0] {
		t.Fatal("Computed flag not copied")
	}
	if dst.KingSq[1] != 11 {
		t.Fatalf("KingSq not copied: got %d", dst.KingSq[1])
	}
}

func TestAccumulatorStackPushPopRestoresParent(t *testing.T) {
	s := NewAccumulatorStack()
	s.CurrentBig().Accumulation[0][0] = 100
	s.Push()
	s.CurrentBig().Accumulation[0][0] = 200

	if s.PreviousBig().Accumulation[0][0] != 100 {
		t.Fatalf("expected parent frame to retain its own value, got %d", s.PreviousBig().Accumulation[0][0])
	}

	s.Pop()
	if s.CurrentBig().Accumulation[0][0] != 100 {
		t.Fatalf("after Pop, current frame should be the parent's, got %d", s.CurrentBig().Accumulation[0][0])
	}
}

func TestAccumulatorStackPopAtRootIsNoop(t *testing.T) {
	s := NewAccumulatorStack()
	s.Pop()
	if s.Size != 1 {
		t.Fatalf("Pop at root should be a no-op, got Size=%d", s.Size)
	}
}

func TestAccumulatorCacheClearResetsToBiases(t *testing.T) {
	biases := make([]int16, 8)
	for i := range biases {
		biases[i] = int16(i + 1)
	}
	cache := NewAccumulatorCache(8, biases)
	entry := cache.GetEntry(10, 0)
	entry.Accumulation[0] = 999

	cache.Clear(biases)
	if entry.Accumulation[0] != biases[0] {
		t.Fatalf("Clear should restore biases, got %d want %d", entry.Accumulation[0], biases[0])
	}
}

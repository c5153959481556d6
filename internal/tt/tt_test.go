package tt

import (
	"sync"
	"testing"

	"github.com/shogicore/engine/internal/shogi"
)

func TestStoreProbeRoundTrip(t *testing.T) {
	table := New(1)
	hash := uint64(0x1234_5678_9ABC_DEF0)
	m := shogi.NewBoardMove(shogi.NewSquare(2, 6), shogi.NewSquare(2, 5), false)
	table.Store(hash, m, 123, 7, Exact)

	entry, ok := table.Probe(hash)
	if !ok {
		t.Fatal("expected probe hit after store")
	}
	if entry.Move != m || entry.Score != 123 || entry.Depth != 7 || entry.Flag != Exact {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestProbeMissOnUnrelatedHash(t *testing.T) {
	table := New(1)
	table.Store(1, shogi.NoMove, 0, 1, Exact)
	if _, ok := table.Probe(2); ok {
		t.Fatal("probe should miss for a hash that was never stored")
	}
}

func TestDeeperEntryPreferredWithinGeneration(t *testing.T) {
	table := New(1)
	hash := uint64(42)
	table.Store(hash, shogi.NoMove, 10, 5, Exact)
	table.Store(hash, shogi.NoMove, 20, 3, Exact) // shallower: should not overwrite within the same slot
	entry, ok := table.Probe(hash)
	if !ok {
		t.Fatal("expected a hit")
	}
	if entry.Score != 10 || entry.Depth != 5 {
		t.Fatalf("shallower re-store overwrote deeper entry: %+v", entry)
	}

	table.Store(hash, shogi.NoMove, 30, 8, Exact) // deeper: should overwrite
	entry, ok = table.Probe(hash)
	if !ok || entry.Score != 30 || entry.Depth != 8 {
		t.Fatalf("deeper re-store did not overwrite: %+v, ok=%v", entry, ok)
	}
}

func TestNewSearchAllowsStaleOverwrite(t *testing.T) {
	table := New(1)
	hash := uint64(7)
	table.Store(hash, shogi.NoMove, 1, 10, Exact)
	table.NewSearch()
	table.Store(hash, shogi.NoMove, 2, 1, Exact) // shallower, but from a new generation
	entry, ok := table.Probe(hash)
	if !ok || entry.Score != 2 || entry.Depth != 1 {
		t.Fatalf("new-generation shallow store should still overwrite stale entry: %+v", entry)
	}
}

func TestClearResetsTable(t *testing.T) {
	table := New(1)
	table.Store(5, shogi.NoMove, 1, 1, Exact)
	table.Clear()
	if _, ok := table.Probe(5); ok {
		t.Fatal("expected no entries after Clear")
	}
	if table.HitRate() != 0 {
		t.Fatalf("HitRate after Clear = %v, want 0", table.HitRate())
	}
}

func TestConcurrentStoreProbeDoesNotPanic(t *testing.T) {
	table := New(1)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			for i := uint64(0); i < 2000; i++ {
				h := seed*1_000_003 + i
				table.Store(h, shogi.NoMove, int16(i), int8(i%64), Exact)
				table.Probe(h)
			}
		}(uint64(w + 1))
	}
	wg.Wait()
}

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "db"), logr.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEngineConfigReturnsDefaultsWhenUnset(t *testing.T) {
	s := openTestStore(t)

	cfg, err := s.LoadEngineConfig()
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	if cfg.HashSizeMB != DefaultEngineConfig().HashSizeMB || cfg.Threads != DefaultEngineConfig().Threads {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}

func TestSaveAndLoadEngineConfigRoundTrips(t *testing.T) {
	s := openTestStore(t)

	want := EngineConfig{
		HashSizeMB:       256,
		Threads:          4,
		NNUEBigPath:      "/nnue/big.bin",
		NNUESmallPath:    "/nnue/small.bin",
		DefaultByoyomiMs: 5000,
	}
	if err := s.SaveEngineConfig(want); err != nil {
		t.Fatalf("SaveEngineConfig: %v", err)
	}

	got, err := s.LoadEngineConfig()
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	if got.HashSizeMB != want.HashSizeMB || got.Threads != want.Threads ||
		got.NNUEBigPath != want.NNUEBigPath || got.NNUESmallPath != want.NNUESmallPath ||
		got.DefaultByoyomiMs != want.DefaultByoyomiMs {
		t.Fatalf("round trip mismatch: got %+v, want fields of %+v", got, want)
	}
	if got.SavedAt.IsZero() {
		t.Fatal("SaveEngineConfig should stamp SavedAt")
	}
}

func TestPutAndGetWeightBlobRoundTripsThroughZstd(t *testing.T) {
	s := openTestStore(t)

	raw := make([]byte, 4096)
	for i := range raw {
		raw[i] = byte(i % 251)
	}

	if err := s.putWeightBlob("nnue_weight:test", raw); err != nil {
		t.Fatalf("putWeightBlob: %v", err)
	}

	got, ok, err := s.getWeightBlob("nnue_weight:test")
	if err != nil {
		t.Fatalf("getWeightBlob: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit after putWeightBlob")
	}
	if len(got) != len(raw) {
		t.Fatalf("decompressed length = %d, want %d", len(got), len(raw))
	}
	for i := range raw {
		if got[i] != raw[i] {
			t.Fatalf("byte %d mismatch: got %d, want %d", i, got[i], raw[i])
		}
	}
}

func TestGetWeightBlobMissesOnUnknownKey(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.getWeightBlob("nnue_weight:never-stored")
	if err != nil {
		t.Fatalf("getWeightBlob: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss for a key that was never stored")
	}
}

func TestWeightCacheKeyChangesWhenFileIsRewritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")
	if err := os.WriteFile(path, []byte("version one"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	keyBefore, err := weightCacheKey(path)
	if err != nil {
		t.Fatalf("weightCacheKey: %v", err)
	}

	// Force a distinct mtime: some filesystems have coarse mtime
	// resolution, and the content also changed size, which alone
	// changes the key even if mtime happened to tie.
	later := time.Now().Add(time.Second)
	if err := os.WriteFile(path, []byte("version two, a longer payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	keyAfter, err := weightCacheKey(path)
	if err != nil {
		t.Fatalf("weightCacheKey: %v", err)
	}
	if keyBefore == keyAfter {
		t.Fatal("cache key should change when the underlying file changes")
	}
}

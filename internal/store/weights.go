package store

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/shogicore/engine/internal/nnue"
)

// weightCacheKey derives a cache key from a hash of a file's path,
// size and modification time: cheap to compute (one Stat, no read) while
// still invalidating the cache the moment the file on disk changes.
func weightCacheKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	return fmt.Sprintf("%s%016x", weightKeyPrefix, h.Sum64()), nil
}

// LoadNetworkCached loads an NNUE network from path into net, using s's
// cache to skip re-reading the file from disk on a repeat load (a GUI
// re-sending the same EvalFile setoption across isready cycles, for
// instance). A nil Store falls back to a plain net.Load(path), since the
// cache is optional per SPEC_FULL.md section 9.
func LoadNetworkCached(s *Store, net *nnue.Network, path string) error {
	if s == nil {
		return net.Load(path)
	}

	key, err := weightCacheKey(path)
	if err != nil {
		return fmt.Errorf("store: stat %s: %w", path, err)
	}

	if cached, ok, err := s.getWeightBlob(key); err != nil {
		s.log.Error(err, "weight cache read failed, falling back to disk", "path", path)
	} else if ok {
		if err := net.LoadFromReader(bytes.NewReader(cached)); err == nil {
			s.log.V(1).Info("loaded NNUE weights from cache", "path", path, "bytes", len(cached))
			return nil
		}
		// Cached blob failed to parse (corrupt entry, format drift); fall
		// through and re-read from disk below.
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := net.LoadFromReader(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("store: parse %s: %w", path, err)
	}

	if err := s.putWeightBlob(key, raw); err != nil {
		s.log.Error(err, "failed to cache NNUE weights", "path", path)
	}
	return nil
}

// LoadNetworksCached loads both NNUE networks through s's weight cache. A
// nil Store falls back to nnue.LoadNetworks.
func LoadNetworksCached(s *Store, bigPath, smallPath string) (*nnue.Networks, error) {
	if s == nil {
		return nnue.LoadNetworks(bigPath, smallPath)
	}
	nets := nnue.NewNetworks()
	if err := LoadNetworkCached(s, nets.Big, bigPath); err != nil {
		return nil, fmt.Errorf("store: big network: %w", err)
	}
	if err := LoadNetworkCached(s, nets.Small, smallPath); err != nil {
		return nil, fmt.Errorf("store: small network: %w", err)
	}
	return nets, nil
}

// getWeightBlob returns the decompressed bytes stored under key, or
// ok=false on a cache miss.
func (s *Store) getWeightBlob(key string) (data []byte, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(compressed []byte) error {
			decoded, err := decompressZstd(compressed)
			if err != nil {
				return err
			}
			data, ok = decoded, true
			return nil
		})
	})
	return data, ok, err
}

// putWeightBlob compresses raw and stores it under key.
func (s *Store) putWeightBlob(key string, raw []byte) error {
	compressed, err := compressZstd(raw)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), compressed)
	})
}

func compressZstd(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func decompressZstd(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}

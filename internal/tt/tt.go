// Package tt implements a lock-free, bucketed-cluster transposition
// table shared by every lazy-SMP search worker.
//
// Adapted from internal/engine/transposition.go's TTEntry/TTFlag naming
// and its NewSearch/Probe/Store/HashFull/HitRate API, but the storage
// itself is rewritten: the teacher's table is a plain []TTEntry slice with
// no concurrency story (fine for its single-threaded search), while this
// table must tolerate concurrent Probe/Store calls from every worker
// goroutine without a mutex. Each cluster packs 3 entries into one cache
// line's worth of state and is read/written through sync/atomic so a
// concurrent partial write can only ever produce a key mismatch (silently
// dropping the read), never a torn struct.
package tt

import (
	"sync/atomic"

	"github.com/shogicore/engine/internal/shogi"
)

// Flag indicates which kind of bound Score represents.
type Flag uint8

const (
	Exact Flag = iota
	LowerBound
	UpperBound
)

// entriesPerCluster matches the teacher's 3-entries-per-probe bucketing
// scheme, trading a little extra memory for a much lower collision rate
// than one entry per index.
const entriesPerCluster = 3

// packedEntry is the atomic, fixed-width encoding of one slot:
//
//	bits  0-15 : key16       (verification key, top 16 bits of the hash)
//	bits 16-31 : move        (shogi.Move)
//	bits 32-47 : score+32768 (bias to keep it non-negative as uint16)
//	bits 48-55 : depth
//	bits 56-57 : flag
//	bits 58-63 : generation (mod 64)
type packedEntry = uint64

const (
	shiftKey   = 0
	shiftMove  = 16
	shiftScore = 32
	shiftDepth = 48
	shiftFlag  = 56
	shiftGen   = 58

	maskKey   = 0xFFFF
	maskMove  = 0xFFFF
	maskScore = 0xFFFF
	maskDepth = 0xFF
	maskFlag  = 0x3
	maskGen   = 0x3F
)

const generationCycle = 1 << 6 // generation is a 6-bit counter

func pack(key16 uint16, m shogi.Move, score int16, depth int8, flag Flag, gen uint8) packedEntry {
	return packedEntry(key16)<<shiftKey |
		packedEntry(uint16(m))<<shiftMove |
		packedEntry(uint16(int32(score)+32768))<<shiftScore |
		packedEntry(uint8(depth))<<shiftDepth |
		packedEntry(flag&maskFlag)<<shiftFlag |
		packedEntry(gen&maskGen)<<shiftGen
}

func unpackKey(p packedEntry) uint16  { return uint16((p >> shiftKey) & maskKey) }
func unpackMove(p packedEntry) shogi.Move {
	return shogi.Move(uint16((p >> shiftMove) & maskMove))
}
func unpackScore(p packedEntry) int16 {
	return int16(int32((p>>shiftScore)&maskScore) - 32768)
}
func unpackDepth(p packedEntry) int8 { return int8((p >> shiftDepth) & maskDepth) }
func unpackFlag(p packedEntry) Flag  { return Flag((p >> shiftFlag) & maskFlag) }
func unpackGen(p packedEntry) uint8  { return uint8((p >> shiftGen) & maskGen) }

// Entry is the decoded, immutable view of a probed slot.
type Entry struct {
	Move  shogi.Move
	Score int16
	Depth int8
	Flag  Flag
}

type cluster struct {
	slots [entriesPerCluster]atomic.Uint64
}

// Table is the shared, lock-free transposition table.
type Table struct {
	clusters   []cluster
	mask       uint64
	generation atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// New creates a table sized to approximately sizeMB megabytes, rounded
// down to a power-of-two number of clusters so index computation is a
// plain mask instead of a modulo.
func New(sizeMB int) *Table {
	const bytesPerCluster = 32 // 3 x uint64 slots + padding, one cache line
	numClusters := (uint64(sizeMB) * 1024 * 1024) / bytesPerCluster
	numClusters = roundDownToPowerOf2(numClusters)
	if numClusters == 0 {
		numClusters = 1
	}
	return &Table{
		clusters: make([]cluster, numClusters),
		mask:     numClusters - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

func (t *Table) clusterIndex(hash uint64) uint64 { return hash & t.mask }
func verificationKey(hash uint64) uint16         { return uint16(hash >> 48) }

// Probe looks up hash. The returned Entry is valid only when ok is true.
func (t *Table) Probe(hash uint64) (Entry, bool) {
	t.probes.Add(1)
	idx := t.clusterIndex(hash)
	key16 := verificationKey(hash)
	c := &t.clusters[idx]

	for i := range c.slots {
		raw := c.slots[i].Load()
		if raw == 0 {
			continue
		}
		if unpackKey(raw) == key16 {
			t.hits.Add(1)
			return Entry{
				Move:  unpackMove(raw),
				Score: unpackScore(raw),
				Depth: unpackDepth(raw),
				Flag:  unpackFlag(raw),
			}, true
		}
	}
	return Entry{}, false
}

// Store writes a search result into the table. Replacement picks the slot
// with the highest victim score, computed from generation distance and
// depth (an older generation or a shallower search is a better victim),
// matching the teacher's "replace unless current-generation and deeper"
// policy but extended across 3 competing slots per cluster instead of 1.
func (t *Table) Store(hash uint64, m shogi.Move, score int16, depth int8, flag Flag) {
	idx := t.clusterIndex(hash)
	key16 := verificationKey(hash)
	gen := uint8(t.generation.Load() % generationCycle)
	c := &t.clusters[idx]

	victim := -1
	var bestVictimScore int32
	for i := range c.slots {
		raw := c.slots[i].Load()
		if raw == 0 {
			victim = i
			break // an empty slot is always the best victim
		}
		if unpackKey(raw) == key16 {
			// Same position already stored: only overwrite this same slot
			// with an equal-or-deeper result, unless the existing slot is
			// stale (left over from an earlier search generation).
			// Otherwise leave it alone rather than duplicating the
			// position into a different slot in the cluster.
			if unpackGen(raw) != gen || int8(depth) >= unpackDepth(raw) {
				victim = i
				break
			}
			return
		}
		genDistance := int32((gen - unpackGen(raw) + generationCycle) % generationCycle)
		vs := genDistance*16 - int32(unpackDepth(raw))
		if victim == -1 || vs > bestVictimScore {
			bestVictimScore = vs
			victim = i
		}
	}
	if victim == -1 {
		return
	}
	c.slots[victim].Store(pack(key16, m, score, depth, flag, gen))
}

// NewSearch advances the generation counter, making every previously
// stored entry a lower-priority replacement victim without clearing the
// table outright.
func (t *Table) NewSearch() { t.generation.Add(1) }

// Clear zeroes every slot and resets statistics.
func (t *Table) Clear() {
	for i := range t.clusters {
		for j := range t.clusters[i].slots {
			t.clusters[i].slots[j].Store(0)
		}
	}
	t.generation.Store(0)
	t.hits.Store(0)
	t.probes.Store(0)
}

// HashFull samples the first 1000 clusters and reports how full the table
// is, in parts per thousand, the same metric the USI "info" line reports.
func (t *Table) HashFull() int {
	sample := 1000
	if uint64(sample) > uint64(len(t.clusters)) {
		sample = len(t.clusters)
	}
	gen := uint8(t.generation.Load() % generationCycle)
	used := 0
	for i := 0; i < sample; i++ {
		for j := range t.clusters[i].slots {
			raw := t.clusters[i].slots[j].Load()
			if raw != 0 && unpackGen(raw) == gen {
				used++
				break
			}
		}
	}
	return (used * 1000) / sample
}

// HitRate returns the fraction of Probe calls that found a matching
// entry, as a percentage.
func (t *Table) HitRate() float64 {
	probes := t.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(t.hits.Load()) / float64(probes) * 100
}

// NumClusters reports the table's cluster count, mostly useful for tests.
func (t *Table) NumClusters() int { return len(t.clusters) }

package search

import (
	"sync/atomic"

	"github.com/kestrel-chess/kestrel/internal/board"
)

// bucketSize is the number of entries sharing a hash-bucket index,
// k=4 in the §4.1 range of "typically k=3-4".
const bucketSize = 4

// ttEntry packs move/score/depth/bound/generation into one word and
// keeps a second word that is that data XOR'd with the entry's key
// fragment. A reader who loads a data word from one store and a check
// word from a different, concurrent store will find the two
// inconsistent and treat the slot as a miss — the "XOR-verify"
// mechanism §4.1 asks for, since neither field alone needs to be
// bigger than a machine word to store or load atomically.
type ttEntry struct {
	check atomic.Uint64
	data  atomic.Uint64
}

const (
	dataMoveBits  = 21
	dataScoreBits = 16
	dataDepthBits = 8
	dataBoundBits = 2
	dataGenBits   = 8

	dataMoveShift  = 0
	dataScoreShift = dataMoveShift + dataMoveBits
	dataDepthShift = dataScoreShift + dataScoreBits
	dataBoundShift = dataDepthShift + dataDepthBits
	dataGenShift   = dataBoundShift + dataBoundBits

	dataMoveMask  = uint64(1)<<dataMoveBits - 1
	dataScoreMask = uint64(1)<<dataScoreBits - 1
	dataDepthMask = uint64(1)<<dataDepthBits - 1
	dataBoundMask = uint64(1)<<dataBoundBits - 1
	dataGenMask   = uint64(1)<<dataGenBits - 1
)

func packData(move board.Move, score, depth int, bound BoundFlag, gen uint8) uint64 {
	return uint64(move)&dataMoveMask<<dataMoveShift |
		uint64(uint16(score))&dataScoreMask<<dataScoreShift |
		uint64(uint8(depth))&dataDepthMask<<dataDepthShift |
		uint64(bound)&dataBoundMask<<dataBoundShift |
		uint64(gen)&dataGenMask<<dataGenShift
}

func unpackMove(data uint64) board.Move {
	return board.Move((data >> dataMoveShift) & dataMoveMask)
}
func unpackScore(data uint64) int {
	return int(int16((data >> dataScoreShift) & dataScoreMask))
}
func unpackDepth(data uint64) int {
	return int(int8((data >> dataDepthShift) & dataDepthMask))
}
func unpackBound(data uint64) BoundFlag {
	return BoundFlag((data >> dataBoundShift) & dataBoundMask)
}
func unpackGen(data uint64) uint8 {
	return uint8((data >> dataGenShift) & dataGenMask)
}

func keyFragment(key uint64) uint64 { return key >> 32 }

// Entry is a probed transposition-table hit. Score is the value as
// stored; callers re-base it to the probing ply with fromTT.
type Entry struct {
	Move  board.Move
	Score int
	Depth int
	Bound BoundFlag
	Found bool
}

// TransTable is the bucketed, lock-free table §4.1 specifies. It
// diverges from the teacher's single-entry-per-slot spinlock design
// (pkg/engine/transtable.go, one CAS-guarded transEntry per slot) in
// favor of the racy-but-sound bucketed scheme the spec calls for; the
// replacement policy and hashfull sampling below are ported from that
// same file's `roundPowerOfTwo`/`IncDate`/`Update` shape.
type TransTable struct {
	buckets    []ttEntry
	bucketMask uint64
	generation uint32
	megabytes  int
}

// NewTransTable allocates a table whose entry count is the largest
// power of two fitting in megabytes MB, zeroed as required on resize.
func NewTransTable(megabytes int) *TransTable {
	if megabytes < 1 {
		megabytes = 1
	}
	entryBytes := 16 // two uint64 words
	numEntries := roundPowerOfTwo(1024 * 1024 * megabytes / entryBytes)
	numBuckets := numEntries / bucketSize
	if numBuckets < 1 {
		numBuckets = 1
	}
	return &TransTable{
		buckets:    make([]ttEntry, numBuckets*bucketSize),
		bucketMask: uint64(numBuckets - 1),
		megabytes:  megabytes,
	}
}

func roundPowerOfTwo(n int) int {
	x := 1
	for x<<1 <= n {
		x <<= 1
	}
	return x
}

func (tt *TransTable) Megabytes() int { return tt.megabytes }

// NewSearch bumps the generation, marking every previously-stored
// entry as one generation staler for replacement purposes without
// touching the underlying memory (§5: "TT is process-scoped;
// allocated on configuration ... " — a new search only ages entries).
func (tt *TransTable) NewSearch() {
	tt.generation++
}

// Clear zeroes every entry, used on "new game" per §4.1.
func (tt *TransTable) Clear() {
	for i := range tt.buckets {
		tt.buckets[i].check.Store(0)
		tt.buckets[i].data.Store(0)
	}
	tt.generation = 0
}

func (tt *TransTable) bucketStart(key uint64) int {
	return int(key&tt.bucketMask) * bucketSize
}

// Probe returns the entry matching key, or Found=false on a miss or a
// detected torn write.
func (tt *TransTable) Probe(key uint64) Entry {
	start := tt.bucketStart(key)
	frag := keyFragment(key)
	for i := 0; i < bucketSize; i++ {
		e := &tt.buckets[start+i]
		check := e.check.Load()
		data := e.data.Load()
		if data == 0 && check == 0 {
			continue
		}
		if check^data == frag {
			return Entry{
				Move:  unpackMove(data),
				Score: unpackScore(data),
				Depth: unpackDepth(data),
				Bound: unpackBound(data),
				Found: true,
			}
		}
	}
	return Entry{}
}

// Store writes a result into its bucket, evicting the entry that
// minimizes `depth - 8*(genNow-entryGen)` per §4.1's replacement rule,
// but never downgrading an exact entry of the same key with a weaker,
// shallower bound.
func (tt *TransTable) Store(key uint64, move board.Move, score, depth int, bound BoundFlag) {
	start := tt.bucketStart(key)
	frag := keyFragment(key)
	gen := uint8(tt.generation)

	victim := -1
	victimScore := 1 << 30
	for i := 0; i < bucketSize; i++ {
		e := &tt.buckets[start+i]
		check := e.check.Load()
		data := e.data.Load()
		if data == 0 && check == 0 {
			victim = i
			break
		}
		if check^data == frag {
			existingDepth := unpackDepth(data)
			existingBound := unpackBound(data)
			existingGen := unpackGen(data)
			sameGen := existingGen == gen
			if existingBound == BoundExact && bound != BoundExact &&
				depth < existingDepth && sameGen {
				return
			}
			if move == board.MoveEmpty {
				move = unpackMove(data)
			}
			victim = i
			break
		}
		age := int(gen) - int(unpackGen(data))
		replacementScore := unpackDepth(data) - 8*age
		if replacementScore < victimScore {
			victimScore = replacementScore
			victim = i
		}
	}
	if victim < 0 {
		victim = 0
	}

	data := packData(move, score, depth, bound, gen)
	e := &tt.buckets[start+victim]
	e.data.Store(data)
	e.check.Store(frag ^ data)
}

// Hashfull samples the first 1000 entries and counts how many are
// occupied at the current generation, per mille, per §4.1.
func (tt *TransTable) Hashfull() int {
	n := len(tt.buckets)
	if n > 1000 {
		n = 1000
	}
	if n == 0 {
		return 0
	}
	gen := uint8(tt.generation)
	count := 0
	for i := 0; i < n; i++ {
		e := &tt.buckets[i]
		check := e.check.Load()
		data := e.data.Load()
		if data == 0 && check == 0 {
			continue
		}
		if unpackGen(data) == gen {
			count++
		}
	}
	return count * 1000 / n
}

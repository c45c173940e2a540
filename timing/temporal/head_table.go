package temporal

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/tspred/timing/bpred"
)

// contextKey is a branch address concatenated with the global history in
// effect when the branch was looked up.
type contextKey struct {
	pc      bpred.Addr
	history HistoryValue
}

// fold hashes the key down to 64 bits.
func (k contextKey) fold() uint64 {
	h := mix64(uint64(k.pc))
	for _, w := range k.history {
		h = mix64(h ^ w)
	}
	return h
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// headTable maps a context to the stream tail recorded the last time the
// context saw a base misprediction.
type headTable interface {
	lookup(key contextKey) Position
	insert(key contextKey, pos Position)
	len() int
	reset()
}

// mapHeadTable is an unbounded head table.
type mapHeadTable struct {
	entries map[contextKey]Position
}

func newMapHeadTable() *mapHeadTable {
	return &mapHeadTable{entries: make(map[contextKey]Position)}
}

func (t *mapHeadTable) lookup(key contextKey) Position {
	pos, ok := t.entries[key]
	if !ok {
		return NoPosition
	}
	return pos
}

func (t *mapHeadTable) insert(key contextKey, pos Position) {
	t.entries[key] = pos
}

func (t *mapHeadTable) len() int {
	return len(t.entries)
}

func (t *mapHeadTable) reset() {
	clear(t.entries)
}

// headTableLine is the placement granularity handed to the directory.
const headTableLine = 64

type headEntry struct {
	key contextKey
	pos Position
}

// setAssocHeadTable is a bounded, set-associative head table with LRU
// replacement. The akita directory does placement and replacement on a
// folded hash of the key; the full key is kept beside each block so that
// two contexts sharing a hash never alias.
type setAssocHeadTable struct {
	directory *akitacache.DirectoryImpl
	ways      int

	// Indexed by (setID * ways + wayID)
	entries []headEntry
}

func newSetAssocHeadTable(sets, ways int) *setAssocHeadTable {
	return &setAssocHeadTable{
		directory: akitacache.NewDirectory(
			sets,
			ways,
			headTableLine,
			akitacache.NewLRUVictimFinder(),
		),
		ways:    ways,
		entries: make([]headEntry, sets*ways),
	}
}

func (t *setAssocHeadTable) blockAddr(key contextKey) uint64 {
	return key.fold() &^ (headTableLine - 1)
}

func (t *setAssocHeadTable) blockIndex(block *akitacache.Block) int {
	return block.SetID*t.ways + block.WayID
}

func (t *setAssocHeadTable) lookup(key contextKey) Position {
	block := t.directory.Lookup(0, t.blockAddr(key))
	if block == nil || !block.IsValid {
		return NoPosition
	}

	entry := t.entries[t.blockIndex(block)]
	if entry.key != key {
		return NoPosition
	}

	t.directory.Visit(block)
	return entry.pos
}

func (t *setAssocHeadTable) insert(key contextKey, pos Position) {
	addr := t.blockAddr(key)

	block := t.directory.Lookup(0, addr)
	if block == nil || !block.IsValid {
		block = t.directory.FindVictim(addr)
		if block == nil {
			return
		}
		block.Tag = addr
		block.IsValid = true
	}

	t.entries[t.blockIndex(block)] = headEntry{key: key, pos: pos}
	t.directory.Visit(block)
}

func (t *setAssocHeadTable) len() int {
	n := 0
	for _, set := range t.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

func (t *setAssocHeadTable) reset() {
	t.directory.Reset()
	clear(t.entries)
}

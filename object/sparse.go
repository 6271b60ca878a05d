package object

import "github.com/goduk/duk5/heap"

// sparseCellState mirrors heap.StringTable's deleted-sentinel idiom
// (spec.md §4.2), generalized from hashing string bytes to keying on
// interned strings: since property keys are always already-interned
// strings, two equal keys are always the same pointer (spec.md
// invariant 3), so the index reuses each key's stored hash and compares
// by pointer instead of re-hashing and comparing byte content.
type sparseCellState uint8

const (
	sparseCellEmpty sparseCellState = iota
	sparseCellDeleted
	sparseCellUsed
)

type sparseCell struct {
	state sparseCellState
	key   *heap.DukString
	slot  int // index into the object's keys/vals/attrs slices
}

// sparseIndex is the open-addressing hash index spec.md §4.3 requires
// over the sparse part's keys, kept at a 50% load factor target
// (spec.md §4.3 "Resize policy").
type sparseIndex struct {
	cells []sparseCell
}

const sparseIndexMinSize = 8

func newSparseIndex() *sparseIndex {
	return &sparseIndex{cells: make([]sparseCell, sparseIndexMinSize)}
}

// probeStep derives a double-hashing probe step that is always odd, so
// it is coprime with n (every table size here is a power of two,
// keeping resize arithmetic simple since the sparse index — unlike the
// string table — never needs prime sizing, per spec.md §4.3's "50%
// load factor target" with no prime requirement mentioned).
func (idx *sparseIndex) probeStep(h uint32, n int) int {
	return (int(h>>16)%(n-1) | 1)
}

// find returns the slot index for key, or -1 if key has no entry.
func (idx *sparseIndex) find(key *heap.DukString) int {
	n := len(idx.cells)
	h := key.Hash()
	i := int(h) % n
	step := idx.probeStep(h, n)
	for k := 0; k < n; k++ {
		c := &idx.cells[i]
		switch c.state {
		case sparseCellEmpty:
			return -1
		case sparseCellUsed:
			if c.key == key {
				return c.slot
			}
		}
		i = (i + step) % n
	}
	return -1
}

// insert records that key lives at slot, growing first if the 50% load
// factor target would be exceeded.
func (idx *sparseIndex) insert(key *heap.DukString, slot int) {
	used := idx.liveCount()
	if used+1 > len(idx.cells)/2 {
		idx.resize(len(idx.cells) * 2)
	}
	idx.insertInto(idx.cells, key, slot)
}

func (idx *sparseIndex) insertInto(cells []sparseCell, key *heap.DukString, slot int) {
	n := len(cells)
	h := key.Hash()
	i := int(h) % n
	step := idx.probeStep(h, n)
	for {
		c := &cells[i]
		if c.state != sparseCellUsed {
			*c = sparseCell{state: sparseCellUsed, key: key, slot: slot}
			return
		}
		i = (i + step) % n
	}
}

// remove drops key's cell, replacing it with the deleted sentinel so
// other keys' probe chains through this slot stay intact.
func (idx *sparseIndex) remove(key *heap.DukString) {
	n := len(idx.cells)
	h := key.Hash()
	i := int(h) % n
	step := idx.probeStep(h, n)
	for k := 0; k < n; k++ {
		c := &idx.cells[i]
		if c.state == sparseCellUsed && c.key == key {
			*c = sparseCell{state: sparseCellDeleted}
			return
		}
		if c.state == sparseCellEmpty {
			return
		}
		i = (i + step) % n
	}
}

// shiftSlotsFrom decrements every recorded slot index greater than
// removedSlot by one, keeping the index in sync after a property is
// spliced out of the parallel keys/vals/attrs slices.
func (idx *sparseIndex) shiftSlotsFrom(removedSlot int) {
	for i := range idx.cells {
		if idx.cells[i].state == sparseCellUsed && idx.cells[i].slot > removedSlot {
			idx.cells[i].slot--
		}
	}
}

func (idx *sparseIndex) liveCount() int {
	n := 0
	for _, c := range idx.cells {
		if c.state == sparseCellUsed {
			n++
		}
	}
	return n
}

func (idx *sparseIndex) resize(newSize int) {
	if newSize < sparseIndexMinSize {
		newSize = sparseIndexMinSize
	}
	newCells := make([]sparseCell, newSize)
	for _, c := range idx.cells {
		if c.state == sparseCellUsed {
			idx.insertInto(newCells, c.key, c.slot)
		}
	}
	idx.cells = newCells
}

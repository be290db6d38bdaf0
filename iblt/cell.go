// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iblt

// A cell accumulates the XOR of every element hashed to it together with the
// XOR of those elements' digests. The counted kind additionally tracks signed
// occupancy, which is what allows unbalanced multisets (more removes than
// adds) to round-trip through a merge.
//
// cell is the pointer constraint the sketch skeleton is generic over.
type cell[C any] interface {
	*C

	// adjust folds [elem] into the cell. delta is ignored by the countless
	// kind.
	adjust(elem, elemHash uint64, delta int32)

	// mergeFrom folds [other] into the cell so that elements present on both
	// sides cancel.
	mergeFrom(other *C)

	// pure reports whether the cell is a candidate singleton. The answer is
	// probabilistic; callers must confirm with a digest recomputation.
	pure() bool

	// empty reports whether the cell holds nothing at all.
	empty() bool

	// payload returns the cell's element and digest accumulators.
	payload() (elem, elemHash uint64)

	// peelDelta is the delta that cancels this cell's singleton during
	// peeling.
	peelDelta() int32

	// state and setState expose the full field tuple for the wire codec.
	state() (count int32, elem, elemHash uint64)
	setState(count int32, elem, elemHash uint64)

	// counted reports whether the cell kind carries occupancy counts.
	// The countless kind reserves the element value 0.
	counted() bool
}

// countedCell is the default cell kind.
type countedCell struct {
	count   int32
	xorElem uint64
	xorHash uint64
}

func (c *countedCell) adjust(elem, elemHash uint64, delta int32) {
	c.count += delta
	c.xorElem ^= elem
	c.xorHash ^= elemHash
}

// mergeFrom subtracts the other side's count rather than adding it. The
// merged cell then represents the signed multiset difference, so an element
// held by both sides nets to count 0 and XORs to zero.
func (c *countedCell) mergeFrom(other *countedCell) {
	c.count -= other.count
	c.xorElem ^= other.xorElem
	c.xorHash ^= other.xorHash
}

func (c *countedCell) pure() bool {
	return c.count == 1 || c.count == -1
}

func (c *countedCell) empty() bool {
	return c.count == 0 && c.xorElem == 0 && c.xorHash == 0
}

func (c *countedCell) payload() (uint64, uint64) {
	return c.xorElem, c.xorHash
}

func (c *countedCell) peelDelta() int32 {
	return -c.count
}

func (c *countedCell) state() (int32, uint64, uint64) {
	return c.count, c.xorElem, c.xorHash
}

func (c *countedCell) setState(count int32, elem, elemHash uint64) {
	c.count = count
	c.xorElem = elem
	c.xorHash = elemHash
}

func (*countedCell) counted() bool {
	return true
}

// countlessCell drops the occupancy count. It only supports symmetric
// merges of plain sets, and it cannot tell a cell holding exactly {0} from
// an empty one, so the element 0 is rejected at the sketch layer.
type countlessCell struct {
	xorElem uint64
	xorHash uint64
}

func (c *countlessCell) adjust(elem, elemHash uint64, _ int32) {
	c.xorElem ^= elem
	c.xorHash ^= elemHash
}

func (c *countlessCell) mergeFrom(other *countlessCell) {
	c.xorElem ^= other.xorElem
	c.xorHash ^= other.xorHash
}

// pure treats any non-empty cell as a candidate; the digest check during
// peeling rejects the impure ones.
func (c *countlessCell) pure() bool {
	return c.xorElem != 0 || c.xorHash != 0
}

func (c *countlessCell) empty() bool {
	return c.xorElem == 0 && c.xorHash == 0
}

func (c *countlessCell) payload() (uint64, uint64) {
	return c.xorElem, c.xorHash
}

func (c *countlessCell) peelDelta() int32 {
	return 1
}

func (c *countlessCell) state() (int32, uint64, uint64) {
	return 0, c.xorElem, c.xorHash
}

func (c *countlessCell) setState(_ int32, elem, elemHash uint64) {
	c.xorElem = elem
	c.xorHash = elemHash
}

func (*countlessCell) counted() bool {
	return false
}

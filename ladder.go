// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reconcile synchronizes two sets of user items using bandwidth
// proportional to the size of their difference. Items are mapped to 64-bit
// surrogate hashes and inserted into a geometric ladder of IBLT sketches;
// the multi-round protocol exchanges sketches of doubling capacity until one
// peel-decodes, then translates the recovered surrogates back to items.
package reconcile

import (
	"github.com/dchest/siphash"
	"golang.org/x/exp/maps"

	"github.com/luxfi/reconcile/iblt"
)

// surrogateKeyTweak splits the ladder seed into the SipHash key halves used
// for item surrogates. It differs from the sketch hash so an item's
// surrogate and the surrogate's cell digest are independent.
const surrogateKeyTweak = 0x2545f4914f6cdd1d

// Ladder holds one party's reconciliation state: the item dictionary keyed
// by surrogate hash and a sketch per power-of-two capacity, all sharing one
// seed. It is exclusively owned; peers exchange copies of sketches, hash
// lists and items, never the ladder itself.
type Ladder[T comparable] struct {
	params Parameters
	enc    func(T) []byte
	k0, k1 uint64
	h2e    map[uint64]T
	levels []*iblt.Counted
}

// NewLadder returns a ladder with DefaultParameters at the given seed.
// enc must be a deterministic binary encoding of an item; two peers must
// encode equal items identically.
func NewLadder[T comparable](seed uint64, enc func(T) []byte) *Ladder[T] {
	p := DefaultParameters
	p.Seed = seed
	l, err := NewLadderFrom(p, enc)
	if err != nil {
		panic(err) // DefaultParameters always verify
	}
	return l
}

// NewLadderFrom returns a ladder with the given parameters.
func NewLadderFrom[T comparable](params Parameters, enc func(T) []byte) (*Ladder[T], error) {
	if err := params.Verify(); err != nil {
		return nil, err
	}
	l := &Ladder[T]{
		params: params,
		enc:    enc,
		k0:     params.Seed,
		k1:     params.Seed ^ surrogateKeyTweak,
		h2e:    make(map[uint64]T),
		levels: make([]*iblt.Counted, params.MaxLevel+1),
	}
	for i := range l.levels {
		l.levels[i] = iblt.NewCounted(1<<i, params.Seed)
	}
	return l, nil
}

// Key returns the item's surrogate hash.
func (l *Ladder[T]) Key(item T) uint64 {
	return siphash.Hash(l.k0, l.k1, l.enc(item))
}

// Add inserts the item into the dictionary and every ladder level. Adding
// an item already present is a no-op, so applying a peer's items is
// idempotent.
func (l *Ladder[T]) Add(item T) {
	h := l.Key(item)
	if _, ok := l.h2e[h]; ok {
		return
	}
	l.h2e[h] = item
	for _, s := range l.levels {
		_ = s.Add(h)
	}
}

// AddAll inserts every item.
func (l *Ladder[T]) AddAll(items []T) {
	for _, item := range items {
		l.Add(item)
	}
}

// Contains reports whether the item is in the dictionary.
func (l *Ladder[T]) Contains(item T) bool {
	_, ok := l.h2e[l.Key(item)]
	return ok
}

// Len returns the number of items held.
func (l *Ladder[T]) Len() int {
	return len(l.h2e)
}

// Hashes returns the surrogate hashes of every item held, in no particular
// order.
func (l *Ladder[T]) Hashes() []uint64 {
	return maps.Keys(l.h2e)
}

// Items translates the surrogates the ladder knows back to items, dropping
// the rest.
func (l *Ladder[T]) Items(hashes []uint64) []T {
	items := make([]T, 0, len(hashes))
	for _, h := range hashes {
		if item, ok := l.h2e[h]; ok {
			items = append(items, item)
		}
	}
	return items
}

// Split partitions peer-supplied surrogates into the items this ladder
// holds and the hashes it does not. Over a recovered symmetric difference,
// known is exactly what the peer is missing and unknown is what this side
// must request.
func (l *Ladder[T]) Split(hashes []uint64) (known []T, unknown []uint64) {
	for _, h := range hashes {
		if item, ok := l.h2e[h]; ok {
			known = append(known, item)
		} else {
			unknown = append(unknown, h)
		}
	}
	return known, unknown
}

// SketchAt returns the ladder sketch of capacity 2^level. The sketch is the
// ladder's own state; clone before mutating.
func (l *Ladder[T]) SketchAt(level int) *iblt.Counted {
	return l.levels[level]
}

// Levels returns the number of ladder levels.
func (l *Ladder[T]) Levels() int {
	return len(l.levels)
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iblt

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
)

// Hasher64 is the seeded hash family a sketch derives element digests from.
// Two sketches can only be merged if they were built from the same family
// with the same seed.
type Hasher64 interface {
	// Hash64 returns the 64-bit digest of [x].
	Hash64(x uint64) uint64

	// Seed returns the seed the family was keyed with.
	Seed() uint64
}

// HashFamily selects a Hasher64 implementation.
type HashFamily uint8

const (
	// FamilyXX hashes with xxHash64. The seed is fed to a template digest
	// once at construction; each element is hashed by a copy of the
	// template.
	FamilyXX HashFamily = iota

	// FamilySip hashes with SipHash-2-4 keyed from the seed.
	FamilySip
)

// NewHasher returns the family's hasher keyed with [seed].
func (f HashFamily) NewHasher(seed uint64) Hasher64 {
	switch f {
	case FamilySip:
		return newSipHasher(seed)
	default:
		return newXXHasher(seed)
	}
}

type xxHasher struct {
	seed     uint64
	template xxhash.Digest
}

func newXXHasher(seed uint64) *xxHasher {
	h := &xxHasher{seed: seed}
	h.template.Reset()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	_, _ = h.template.Write(buf[:])
	return h
}

func (h *xxHasher) Hash64(x uint64) uint64 {
	d := h.template
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

func (h *xxHasher) Seed() uint64 {
	return h.seed
}

// sipKeyTweak splits one 64-bit seed into the two SipHash key halves.
const sipKeyTweak = 0x9e3779b97f4a7c15

type sipHasher struct {
	seed uint64
	k0   uint64
	k1   uint64
}

func newSipHasher(seed uint64) *sipHasher {
	return &sipHasher{
		seed: seed,
		k0:   seed,
		k1:   seed ^ sipKeyTweak,
	}
}

func (h *sipHasher) Hash64(x uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return siphash.Hash(h.k0, h.k1, buf[:])
}

func (h *sipHasher) Seed() uint64 {
	return h.seed
}

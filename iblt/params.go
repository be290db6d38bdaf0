// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iblt

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHashCount  = errors.New("hashes per element must be 3 or 4")
	ErrInvalidLayout     = errors.New("unknown index layout")
	ErrInvalidHashFamily = errors.New("unknown hash family")
	ErrCapacityTooSmall  = errors.New("capacity too small for hash count")
)

// Layout selects how the k cell positions of an element are derived from its
// digest.
type Layout uint8

const (
	// LayoutPow2 rounds the cell count up to 2^b + 2 and slices three b-bit
	// positions straight out of the digest, bumping them to be pairwise
	// distinct. Branch-light and uniform; requires k = 3.
	LayoutPow2 Layout = iota

	// LayoutRehash keeps the requested cell count and derives successor
	// positions by repeatedly rehashing the digest modulo the capacity.
	// Less uniform; supports arbitrary capacities.
	LayoutRehash
)

// Parameters fixes the shape of a sketch. Two sketches can only be merged if
// they agree on every field, with Capacity compared after layout rounding.
type Parameters struct {
	// Capacity is the requested cell count. LayoutPow2 rounds it up to the
	// smallest 2^b + 2 that covers it.
	Capacity uint64

	// Seed keys the hash family. Peers must agree on it.
	Seed uint64

	// K is the number of cells each element occupies, 3 or 4.
	K int

	Layout Layout

	Hash HashFamily
}

// DefaultParameters is the standard configuration: k = 3 over the
// power-of-two layout with xxHash64.
var DefaultParameters = Parameters{
	K:      3,
	Layout: LayoutPow2,
	Hash:   FamilyXX,
}

// Verify returns an error if the parameters describe an unusable sketch.
func (p Parameters) Verify() error {
	switch {
	case p.K != 3 && p.K != 4:
		return fmt.Errorf("%w: %d", ErrInvalidHashCount, p.K)
	case p.Layout != LayoutPow2 && p.Layout != LayoutRehash:
		return fmt.Errorf("%w: %d", ErrInvalidLayout, p.Layout)
	case p.Hash != FamilyXX && p.Hash != FamilySip:
		return fmt.Errorf("%w: %d", ErrInvalidHashFamily, p.Hash)
	case p.Layout == LayoutPow2 && p.K != 3:
		return fmt.Errorf("%w: pow2 layout requires k = 3, got %d", ErrInvalidHashCount, p.K)
	case p.Layout == LayoutRehash && p.Capacity < uint64(p.K):
		return fmt.Errorf("%w: %d cells for k = %d", ErrCapacityTooSmall, p.Capacity, p.K)
	}
	return nil
}

// shapeEqual reports whether two parameter sets produce mergeable sketches.
func (p Parameters) shapeEqual(o Parameters) bool {
	return p.Seed == o.Seed &&
		p.K == o.K &&
		p.Layout == o.Layout &&
		p.Hash == o.Hash
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package strata estimates the size of the symmetric difference between two
// sets of 64-bit elements. Elements are stratified by the trailing-zero
// count of their digest into a ladder of small sketches; each stratum that
// decodes against a peer's ladder contributes its exact difference, and the
// first stratum that fails scales the running total geometrically.
package strata

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/luxfi/reconcile/iblt"
)

var (
	ErrShapeMismatch = errors.New("estimator shapes do not match")

	errBadHeight = errors.New("strata height must be in [1, 64]")
)

// Parameters fixes the shape of an estimator. Peers must agree on all
// fields.
type Parameters struct {
	// Height is the number of strata.
	Height int

	// CellCapacity is the cell count of each stratum's sketch.
	CellCapacity uint64

	// K is the hash count of each stratum's sketch.
	K int

	// Seed keys the hash family shared by the strata.
	Seed uint64
}

// DefaultParameters matches the shape the reconciliation driver assumes:
// 32 strata of 80 cells with k = 4 rehash sketches.
var DefaultParameters = Parameters{
	Height:       32,
	CellCapacity: 80,
	K:            4,
}

// Verify returns an error if the parameters describe an unusable estimator.
func (p Parameters) Verify() error {
	if p.Height < 1 || p.Height > 64 {
		return fmt.Errorf("%w: %d", errBadHeight, p.Height)
	}
	return p.sketchParams().Verify()
}

func (p Parameters) sketchParams() iblt.Parameters {
	return iblt.Parameters{
		Capacity: p.CellCapacity,
		Seed:     p.Seed,
		K:        p.K,
		Layout:   iblt.LayoutRehash,
		Hash:     iblt.FamilyXX,
	}
}

// Estimator is a fixed ladder of small sketches. It is exclusively owned;
// no operation is safe for concurrent use.
type Estimator struct {
	params Parameters
	strata []*iblt.Counted
}

// New returns an estimator with the given shape.
func New(params Parameters) (*Estimator, error) {
	if err := params.Verify(); err != nil {
		return nil, err
	}
	e := &Estimator{
		params: params,
		strata: make([]*iblt.Counted, params.Height),
	}
	for i := range e.strata {
		s, err := iblt.NewCountedFrom(params.sketchParams())
		if err != nil {
			return nil, err
		}
		e.strata[i] = s
	}
	return e, nil
}

// NewDefault returns an estimator with DefaultParameters at the given seed.
func NewDefault(seed uint64) *Estimator {
	p := DefaultParameters
	p.Seed = seed
	e, err := New(p)
	if err != nil {
		panic(err) // DefaultParameters always verify
	}
	return e
}

// stratum is the trailing-zero count of the element's digest. Elements whose
// digest has height or more trailing zeros are not sampled; an element has
// that many trailing zeros with probability 2^-height.
func (e *Estimator) stratum(elem uint64) int {
	return bits.TrailingZeros64(e.strata[0].ComputeHash(elem))
}

// Add inserts [elem] into its stratum.
func (e *Estimator) Add(elem uint64) {
	if t := e.stratum(elem); t < e.params.Height {
		_ = e.strata[t].Add(elem)
	}
}

// Remove deletes [elem] from its stratum.
func (e *Estimator) Remove(elem uint64) {
	if t := e.stratum(elem); t < e.params.Height {
		_ = e.strata[t].Remove(elem)
	}
}

// Clone returns an independent copy. DestructiveEstimate clobbers the
// receiver, so clone first if the estimator is reused.
func (e *Estimator) Clone() *Estimator {
	clone := &Estimator{
		params: e.params,
		strata: make([]*iblt.Counted, len(e.strata)),
	}
	for i, s := range e.strata {
		clone.strata[i] = s.Clone()
	}
	return clone
}

// DestructiveEstimate merges the peer's strata into the receiver's and
// returns an estimate of the symmetric difference cardinality. Strata are
// decoded from the sparsest down; the first stratum that fails to decode
// represents a geometric halving of the elements, so the count accumulated
// above it is scaled by 2^(i+1).
//
// The receiver is consumed. The peer's estimator is not modified.
func (e *Estimator) DestructiveEstimate(other *Estimator) (uint64, error) {
	if e.params != other.params {
		return 0, ErrShapeMismatch
	}
	var count uint64
	for i := e.params.Height - 1; i >= 0; i-- {
		if err := e.strata[i].Merge(other.strata[i]); err != nil {
			return 0, err
		}
		recovered, ok := e.strata[i].TryRecover()
		if !ok {
			return count << (i + 1), nil
		}
		count += uint64(len(recovered))
	}
	return count, nil
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iblt

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrCorruptSketch = errors.New("corrupt sketch encoding")

	errCellCountMismatch = errors.New("cell array length does not match shape")
)

// wireSketch is the on-the-wire form of a sketch: the shape tuple followed by
// the ordered cell arrays. Counts is empty for the countless kind.
type wireSketch struct {
	Capacity uint64   `cbor:"1,keyasint"`
	Seed     uint64   `cbor:"2,keyasint"`
	K        int      `cbor:"3,keyasint"`
	Layout   uint8    `cbor:"4,keyasint"`
	Hash     uint8    `cbor:"5,keyasint"`
	Counts   []int32  `cbor:"6,keyasint,omitempty"`
	Elems    []uint64 `cbor:"7,keyasint"`
	Hashes   []uint64 `cbor:"8,keyasint"`
}

// MarshalBinary encodes the sketch's shape and cell array.
func (s *Sketch[C, P]) MarshalBinary() ([]byte, error) {
	n := len(s.cells)
	w := wireSketch{
		Capacity: uint64(n),
		Seed:     s.params.Seed,
		K:        s.params.K,
		Layout:   uint8(s.params.Layout),
		Hash:     uint8(s.params.Hash),
		Elems:    make([]uint64, n),
		Hashes:   make([]uint64, n),
	}
	var probe C
	if P(&probe).counted() {
		w.Counts = make([]int32, n)
	}
	for i := range s.cells {
		count, elem, elemHash := P(&s.cells[i]).state()
		if w.Counts != nil {
			w.Counts[i] = count
		}
		w.Elems[i] = elem
		w.Hashes[i] = elemHash
	}
	return cbor.Marshal(w)
}

// UnmarshalBinary decodes a sketch previously encoded with MarshalBinary,
// replacing the receiver's shape and contents.
func (s *Sketch[C, P]) UnmarshalBinary(data []byte) error {
	var w wireSketch
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSketch, err)
	}

	params := Parameters{
		Capacity: w.Capacity,
		Seed:     w.Seed,
		K:        w.K,
		Layout:   Layout(w.Layout),
		Hash:     HashFamily(w.Hash),
	}
	decoded, err := newSketch[C, P](params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSketch, err)
	}
	n := len(decoded.cells)
	if uint64(n) != w.Capacity ||
		len(w.Elems) != n ||
		len(w.Hashes) != n {
		return fmt.Errorf("%w: %w", ErrCorruptSketch, errCellCountMismatch)
	}
	var probe C
	if counted := P(&probe).counted(); counted != (w.Counts != nil) || (counted && len(w.Counts) != n) {
		return fmt.Errorf("%w: %w", ErrCorruptSketch, errCellCountMismatch)
	}
	for i := range decoded.cells {
		var count int32
		if w.Counts != nil {
			count = w.Counts[i]
		}
		P(&decoded.cells[i]).setState(count, w.Elems[i], w.Hashes[i])
	}
	*s = *decoded
	return nil
}

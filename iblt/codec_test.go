// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iblt_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/reconcile/iblt"
)

func TestWireRoundTripStillMerges(t *testing.T) {
	require := require.New(t)

	// A sketch received over the wire must merge and decode against a
	// locally built one.
	remote := countedRange(t, 0, 1000, 2048, 0)
	data, err := remote.MarshalBinary()
	require.NoError(err)

	received := new(iblt.Counted)
	require.NoError(received.UnmarshalBinary(data))
	require.Equal(uint64(2050), received.Capacity())

	local := countedRange(t, 2, 1002, 2048, 0)
	require.NoError(received.Merge(local))

	diff, err := received.Recover()
	require.NoError(err)
	slices.Sort(diff)
	require.Equal([]uint64{0, 1, 1000, 1001}, diff)
}

func TestWireRoundTripCountless(t *testing.T) {
	require := require.New(t)

	s := iblt.NewCountless(128, 3)
	require.NoError(s.Add(42))

	data, err := s.MarshalBinary()
	require.NoError(err)

	decoded := new(iblt.Countless)
	require.NoError(decoded.UnmarshalBinary(data))

	diff, err := decoded.Recover()
	require.NoError(err)
	require.Equal([]uint64{42}, diff)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	require := require.New(t)

	s := new(iblt.Counted)
	require.ErrorIs(s.UnmarshalBinary([]byte{0xff, 0x00, 0x13}), iblt.ErrCorruptSketch)
}

func TestUnmarshalRejectsWrongKind(t *testing.T) {
	require := require.New(t)

	counted := iblt.NewCounted(64, 0)
	require.NoError(counted.Add(7))
	data, err := counted.MarshalBinary()
	require.NoError(err)

	// A counted wire form cannot decode into a countless sketch.
	countless := new(iblt.Countless)
	require.ErrorIs(countless.UnmarshalBinary(data), iblt.ErrCorruptSketch)
}

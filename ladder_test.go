// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reconcile_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/reconcile"
	"github.com/luxfi/reconcile/graph"
)

func newEdgeLadder(t *testing.T, seed uint64) *reconcile.Ladder[graph.Edge] {
	t.Helper()
	return reconcile.NewLadder[graph.Edge](seed, graph.Edge.Bytes)
}

func TestLadderAddIsIdempotent(t *testing.T) {
	require := require.New(t)

	l := newEdgeLadder(t, 0)
	e := graph.NewEdge(1, 2)
	l.Add(e)
	l.Add(e)
	require.Equal(1, l.Len())
	require.True(l.Contains(e))

	// A double add must not corrupt the sketches: the difference against an
	// empty ladder is still exactly one surrogate.
	empty := newEdgeLadder(t, 0)
	merged := l.SketchAt(10).Clone()
	require.NoError(merged.Merge(empty.SketchAt(10)))
	diff, err := merged.Recover()
	require.NoError(err)
	require.Equal([]uint64{l.Key(e)}, diff)
}

func TestLadderSplit(t *testing.T) {
	require := require.New(t)

	l := newEdgeLadder(t, 3)
	known := []graph.Edge{graph.NewEdge(1, 2), graph.NewEdge(3, 4)}
	for _, e := range known {
		l.Add(e)
	}
	missing := graph.NewEdge(5, 6)

	hashes := []uint64{l.Key(known[0]), l.Key(missing), l.Key(known[1])}
	items, unknown := l.Split(hashes)
	require.Equal(known, items)
	require.Equal([]uint64{l.Key(missing)}, unknown)

	require.Equal(known[:1], l.Items(hashes[:2]))
}

func TestLadderHashes(t *testing.T) {
	require := require.New(t)

	l := newEdgeLadder(t, 1)
	edges := []graph.Edge{graph.NewEdge(0, 1), graph.NewEdge(1, 2), graph.NewEdge(2, 3)}
	l.AddAll(edges)

	want := make([]uint64, len(edges))
	for i, e := range edges {
		want[i] = l.Key(e)
	}
	got := l.Hashes()
	slices.Sort(want)
	slices.Sort(got)
	require.Equal(want, got)
}

func TestLadderLevels(t *testing.T) {
	require := require.New(t)

	l := newEdgeLadder(t, 0)
	require.Equal(20, l.Levels())
	require.Equal(uint64(3), l.SketchAt(0).Capacity())
	require.Equal(uint64(1<<19+2), l.SketchAt(19).Capacity())

	// Every level shares the ladder seed.
	for i := 0; i < l.Levels(); i++ {
		require.Zero(l.SketchAt(i).Seed())
	}
}

func TestLadderKeysMatchAcrossPeers(t *testing.T) {
	require := require.New(t)

	a := newEdgeLadder(t, 9)
	b := newEdgeLadder(t, 9)
	e := graph.NewEdge(7, 8)
	require.Equal(a.Key(e), b.Key(e))

	other := newEdgeLadder(t, 10)
	require.NotEqual(a.Key(e), other.Key(e))
}

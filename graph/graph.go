// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package graph provides the undirected edge sets the reconciliation
// protocol is demonstrated over.
package graph

import (
	"encoding/binary"
	"math/rand"

	"github.com/luxfi/reconcile/utils/set"
)

// Edge is an undirected edge, normalized so U <= V.
type Edge struct {
	U uint64
	V uint64
}

// NewEdge returns the normalized edge between the two nodes.
func NewEdge(u, v uint64) Edge {
	if u > v {
		u, v = v, u
	}
	return Edge{U: u, V: v}
}

// Bytes returns the edge's canonical 16-byte encoding, suitable for
// surrogate hashing. Equal edges encode identically on every peer.
func (e Edge) Bytes() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, e.U)
	binary.LittleEndian.PutUint64(buf[8:], e.V)
	return buf
}

// Graph is a set of undirected edges over a fixed node universe.
type Graph struct {
	nodes uint64
	edges set.Set[Edge]
}

// New returns an empty graph over [nodes] nodes.
func New(nodes uint64) *Graph {
	return &Graph{
		nodes: nodes,
		edges: set.NewSet[Edge](0),
	}
}

// Add inserts the edges.
func (g *Graph) Add(edges ...Edge) {
	g.edges.Add(edges...)
}

// AddRandomEdges inserts [n] distinct random edges, retrying collisions
// until each insertion lands on a fresh edge.
func (g *Graph) AddRandomEdges(rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		for {
			e := NewEdge(rng.Uint64()%g.nodes, rng.Uint64()%g.nodes)
			if !g.edges.Contains(e) {
				g.edges.Add(e)
				break
			}
		}
	}
}

// Contains reports whether the edge is present.
func (g *Graph) Contains(e Edge) bool {
	return g.edges.Contains(e)
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	return g.edges.Len()
}

// Nodes returns the node universe size.
func (g *Graph) Nodes() uint64 {
	return g.nodes
}

// Edges lists the edges in no particular order.
func (g *Graph) Edges() []Edge {
	return g.edges.List()
}

// Equals reports whether both graphs hold the same edge set.
func (g *Graph) Equals(other *Graph) bool {
	return g.edges.Equals(other.edges)
}

// Clone returns an independent copy of the graph.
func (g *Graph) Clone() *Graph {
	clone := New(g.nodes)
	clone.edges.Union(g.edges)
	return clone
}

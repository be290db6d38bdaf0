// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/reconcile/metrics"
	"github.com/luxfi/reconcile/utils/wrappers"
)

var (
	// ErrLadderMismatch is returned by Sync when the two ladders do not
	// share seed and shape.
	ErrLadderMismatch = errors.New("ladders do not share shape")

	errFailedRegisteringMetrics = errors.New("failed to register syncer metrics")
)

// Stats reports what one reconciliation cost.
type Stats struct {
	// Rounds is the number of round trips used.
	Rounds int

	// Level is the ladder level that decoded, or -1 if the protocol fell
	// back to a full exchange.
	Level int

	// FullExchange reports whether the O(|S|) fallback ran.
	FullExchange bool

	// ItemsToA and ItemsToB count the items shipped each way.
	ItemsToA int
	ItemsToB int
}

// Syncer drives the multi-round reconciliation protocol between two
// ladders. The transport layer is external: Sync exchanges sketch clones,
// hash lists and item slices by value, which is exactly what a transport
// would carry. A Syncer is not safe for concurrent use.
type Syncer[T comparable] struct {
	log    log.Logger
	params Parameters

	rounds         prometheus.Counter
	fullExchanges  prometheus.Counter
	decodeFailures prometheus.Counter
	lastDiff       prometheus.Gauge
	decodeTime     metrics.Averager
}

// NewSyncer returns a syncer that logs round decisions to [logger] and
// registers its metrics with [reg].
func NewSyncer[T comparable](logger log.Logger, reg prometheus.Registerer, params Parameters) (*Syncer[T], error) {
	if err := params.Verify(); err != nil {
		return nil, err
	}

	s := &Syncer[T]{
		log:    logger,
		params: params,
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_rounds",
			Help: "Total round trips used by reconciliations",
		}),
		fullExchanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_full_exchanges",
			Help: "Reconciliations that fell back to a full exchange",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_decode_failures",
			Help: "Sketch decodes that terminated with residual cells",
		}),
		lastDiff: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sync_last_difference",
			Help: "Items exchanged by the most recent reconciliation",
		}),
	}

	errs := &wrappers.Errs{}
	errs.Add(reg.Register(s.rounds))
	errs.Add(reg.Register(s.fullExchanges))
	errs.Add(reg.Register(s.decodeFailures))
	errs.Add(reg.Register(s.lastDiff))
	s.decodeTime = metrics.NewAveragerWithErrs(
		"sync_decode_time",
		"time (in ns) one sketch peel took",
		reg,
		errs,
	)
	if err := errs.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedRegisteringMetrics, err)
	}
	return s, nil
}

// Sync reconciles the two ladders in place. On return both hold the union
// of their item sets.
//
// Levels are exchanged from the floor up, one round trip each; recovered
// surrogates are translated and shipped every round even when the decode was
// partial, so later rounds face a smaller difference. A level whose sketch
// would rival the sets themselves triggers the full-exchange fallback, as
// does exhausting the ladder.
func (s *Syncer[T]) Sync(a, b *Ladder[T]) (Stats, error) {
	if !a.params.shapeEqual(b.params) {
		return Stats{}, ErrLadderMismatch
	}

	stats := Stats{Level: -1}
	for level := s.params.FloorLevel; level <= a.params.MaxLevel; level++ {
		capacity := b.SketchAt(level).Capacity()
		if capacity > uint64(max(a.Len(), b.Len())/10) {
			s.fullExchange(a, b, &stats)
			return stats, nil
		}

		// One round trip: A receives B's sketch at this level.
		response := b.SketchAt(level).Clone()
		if err := response.Merge(a.SketchAt(level)); err != nil {
			return stats, err
		}

		start := time.Now()
		diff, decoded := response.TryRecover()
		s.decodeTime.Observe(float64(time.Since(start)))

		stats.Rounds++
		s.rounds.Inc()

		// Apply whatever was recovered, complete or not; a partial round
		// shrinks the difference the next level sees.
		itemsForB, aNeeds := a.Split(diff)
		b.AddAll(itemsForB)
		itemsForA := b.Items(aNeeds)
		a.AddAll(itemsForA)
		stats.ItemsToA += len(itemsForA)
		stats.ItemsToB += len(itemsForB)

		s.log.Debug("reconciliation round",
			"level", level,
			"capacity", capacity,
			"recovered", len(diff),
			"decoded", decoded,
			"itemsToA", len(itemsForA),
			"itemsToB", len(itemsForB),
		)

		if decoded {
			stats.Level = level
			s.lastDiff.Set(float64(stats.ItemsToA + stats.ItemsToB))
			return stats, nil
		}
		s.decodeFailures.Inc()
	}

	s.fullExchange(a, b, &stats)
	return stats, nil
}

// fullExchange trades complete surrogate lists and the items behind the
// gaps. Two round trips, O(|S|) bandwidth.
func (s *Syncer[T]) fullExchange(a, b *Ladder[T], stats *Stats) {
	stats.FullExchange = true
	stats.Rounds += 2
	s.fullExchanges.Inc()
	s.rounds.Add(2)

	// A sends all her hashes; B answers with the hashes he holds.
	hashesFromA := a.Hashes()
	_, bNeeds := b.Split(hashesFromA)
	hashesFromB := b.Hashes()
	_, aNeeds := a.Split(hashesFromB)

	itemsForB := a.Items(bNeeds)
	b.AddAll(itemsForB)
	itemsForA := b.Items(aNeeds)
	a.AddAll(itemsForA)
	stats.ItemsToA += len(itemsForA)
	stats.ItemsToB += len(itemsForB)

	s.lastDiff.Set(float64(stats.ItemsToA + stats.ItemsToB))
	s.log.Debug("full exchange",
		"hashesFromA", len(hashesFromA),
		"hashesFromB", len(hashesFromB),
		"itemsToA", len(itemsForA),
		"itemsToB", len(itemsForB),
	)
}

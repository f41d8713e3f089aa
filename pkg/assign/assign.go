// Package assign builds model-to-worker assignment snapshots: workers
// sorted by performance score and partitioned into contiguous groups,
// with the strongest group receiving the heaviest model.
package assign

import (
	"sort"

	"github.com/fogfleet/balancer/pkg/catalog"
)

// Candidate is one registered worker as the engine sees it.
type Candidate struct {
	WorkerID string
	Score    float64
}

// Placement is the outcome for one worker. Group is 1-based; lower
// numbers hold higher scores.
type Placement struct {
	Model string
	Group int32
}

// Snapshot is an immutable assignment produced by Build. The registry
// applies it atomically under its lock.
type Snapshot struct {
	Placements map[string]Placement
	GroupSizes []int
}

// Build computes the assignment for the given workers and catalog.
//
// Workers sort by score descending (ties by worker ID) and split into
// min(G, N) contiguous groups, where G is the catalog size; the first
// N mod G groups take the extra worker. The highest-scored worker of
// group i receives the i-th model by descending complexity, and every
// remaining worker is assigned round-robin over the catalog in
// ascending parameter order, indexed by its position among the
// leftovers. Empty inputs produce an empty snapshot.
func Build(workers []Candidate, cat *catalog.Catalog) Snapshot {
	snap := Snapshot{Placements: make(map[string]Placement, len(workers))}
	if len(workers) == 0 || cat == nil || cat.Len() == 0 {
		return snap
	}

	sorted := make([]Candidate, len(workers))
	copy(sorted, workers)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].WorkerID < sorted[j].WorkerID
	})

	n := len(sorted)
	g := cat.Len()
	numGroups := g
	if n < g {
		numGroups = n
	}
	base, extra := n/g, n%g

	sizes := make([]int, numGroups)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}

	ranked := cat.ByComplexity()
	ascending := cat.Models()

	var residual []string
	next := 0
	for gi, size := range sizes {
		group := sorted[next : next+size]
		next += size
		for wi, w := range group {
			p := Placement{Group: int32(gi + 1)}
			if wi == 0 {
				p.Model = ranked[gi].Name
			} else {
				residual = append(residual, w.WorkerID)
			}
			snap.Placements[w.WorkerID] = p
		}
	}

	for i, id := range residual {
		p := snap.Placements[id]
		p.Model = ascending[i%len(ascending)].Name
		snap.Placements[id] = p
	}

	snap.GroupSizes = sizes
	return snap
}

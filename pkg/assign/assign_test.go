package assign

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fogfleet/balancer/pkg/catalog"
)

func twoModelCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	c.AddCustom("small-1b", 1_000_000_000, false)
	c.AddCustom("large-8b", 8_000_000_000, false)
	return c
}

func TestTwoWorkersTwoModels(t *testing.T) {
	snap := Build([]Candidate{
		{WorkerID: "worker-a", Score: 90},
		{WorkerID: "worker-b", Score: 50},
	}, twoModelCatalog(t))

	require.Equal(t, Placement{Model: "large-8b", Group: 1}, snap.Placements["worker-a"])
	require.Equal(t, Placement{Model: "small-1b", Group: 2}, snap.Placements["worker-b"])
	require.Equal(t, []int{1, 1}, snap.GroupSizes)
}

func TestThreeWorkersTwoModels(t *testing.T) {
	snap := Build([]Candidate{
		{WorkerID: "worker-a", Score: 90},
		{WorkerID: "worker-b", Score: 80},
		{WorkerID: "worker-c", Score: 40},
	}, twoModelCatalog(t))

	// Groups {a, b} and {c}; a is the designate of group 1, c of group 2,
	// and b falls to round-robin, landing on the smallest model.
	require.Equal(t, []int{2, 1}, snap.GroupSizes)
	require.Equal(t, Placement{Model: "large-8b", Group: 1}, snap.Placements["worker-a"])
	require.Equal(t, Placement{Model: "small-1b", Group: 1}, snap.Placements["worker-b"])
	require.Equal(t, Placement{Model: "small-1b", Group: 2}, snap.Placements["worker-c"])
}

func TestDomainCoversAllWorkers(t *testing.T) {
	workers := []Candidate{
		{WorkerID: "w1", Score: 95}, {WorkerID: "w2", Score: 80},
		{WorkerID: "w3", Score: 80}, {WorkerID: "w4", Score: 60},
		{WorkerID: "w5", Score: 42}, {WorkerID: "w6", Score: 10},
		{WorkerID: "w7", Score: 5},
	}
	c := catalog.New()
	c.AddCustom("tiny", 500_000_000, false)
	c.AddCustom("mid", 3_000_000_000, false)
	c.AddCustom("big", 13_000_000_000, false)

	snap := Build(workers, c)
	require.Len(t, snap.Placements, len(workers))
	for _, w := range workers {
		p := snap.Placements[w.WorkerID]
		require.NotEmpty(t, p.Model, "worker %s has no model", w.WorkerID)
		require.True(t, c.Has(p.Model), "worker %s assigned unknown model %s", w.WorkerID, p.Model)
		require.GreaterOrEqual(t, p.Group, int32(1))
	}
}

func TestGroupOrderFollowsScoreOrder(t *testing.T) {
	workers := []Candidate{
		{WorkerID: "fast", Score: 99}, {WorkerID: "mid", Score: 55},
		{WorkerID: "slow", Score: 12}, {WorkerID: "slower", Score: 3},
	}
	c := twoModelCatalog(t)
	snap := Build(workers, c)

	for _, a := range workers {
		for _, b := range workers {
			if a.Score > b.Score {
				require.LessOrEqual(t,
					snap.Placements[a.WorkerID].Group,
					snap.Placements[b.WorkerID].Group,
					"%s (score %.0f) must not sit below %s (score %.0f)", a.WorkerID, a.Score, b.WorkerID, b.Score)
			}
		}
	}
}

func TestTopWorkerGetsHeaviestModel(t *testing.T) {
	c := catalog.New()
	c.AddCustom("tiny", 500_000_000, false)
	c.AddCustom("mid", 3_000_000_000, false)
	c.AddCustom("big", 70_000_000_000, false)

	snap := Build([]Candidate{
		{WorkerID: "beast", Score: 97},
		{WorkerID: "laptop", Score: 40},
	}, c)

	require.Equal(t, "big", snap.Placements["beast"].Model)
}

func TestMoreWorkersThanModelsRoundRobins(t *testing.T) {
	snap := Build([]Candidate{
		{WorkerID: "w1", Score: 90},
		{WorkerID: "w2", Score: 85},
		{WorkerID: "w3", Score: 70},
		{WorkerID: "w4", Score: 65},
		{WorkerID: "w5", Score: 20},
	}, twoModelCatalog(t))

	// Sizes [3, 2]: w1 designates group 1 (large), w4 group 2 (small).
	// Residuals w2, w3, w5 round-robin the ascending catalog.
	require.Equal(t, []int{3, 2}, snap.GroupSizes)
	require.Equal(t, "large-8b", snap.Placements["w1"].Model)
	require.Equal(t, "small-1b", snap.Placements["w2"].Model)
	require.Equal(t, "large-8b", snap.Placements["w3"].Model)
	require.Equal(t, "small-1b", snap.Placements["w4"].Model)
	require.Equal(t, "small-1b", snap.Placements["w5"].Model)
}

func TestFewerWorkersThanModelsLeavesModelsUnused(t *testing.T) {
	c := catalog.New()
	c.AddCustom("tiny", 500_000_000, false)
	c.AddCustom("small", 1_000_000_000, false)
	c.AddCustom("mid", 8_000_000_000, false)
	c.AddCustom("big", 30_000_000_000, false)

	snap := Build([]Candidate{
		{WorkerID: "alpha", Score: 88},
		{WorkerID: "beta", Score: 30},
	}, c)

	// Each worker is its own group; the two heaviest models are taken,
	// the rest stay unused.
	require.Len(t, snap.Placements, 2)
	require.Equal(t, Placement{Model: "big", Group: 1}, snap.Placements["alpha"])
	require.Equal(t, Placement{Model: "mid", Group: 2}, snap.Placements["beta"])
}

func TestScoreTiesBreakByWorkerID(t *testing.T) {
	snap := Build([]Candidate{
		{WorkerID: "bravo", Score: 70},
		{WorkerID: "alpha", Score: 70},
	}, twoModelCatalog(t))

	require.Equal(t, "large-8b", snap.Placements["alpha"].Model)
	require.Equal(t, "small-1b", snap.Placements["bravo"].Model)
}

func TestBuildIsDeterministic(t *testing.T) {
	workers := []Candidate{
		{WorkerID: "w1", Score: 90}, {WorkerID: "w2", Score: 85},
		{WorkerID: "w3", Score: 70}, {WorkerID: "w4", Score: 65},
	}
	c := twoModelCatalog(t)

	first := Build(workers, c)
	for i := 0; i < 10; i++ {
		require.Equal(t, first.Placements, Build(workers, c).Placements)
	}
}

func TestEmptyInputs(t *testing.T) {
	c := twoModelCatalog(t)
	require.Empty(t, Build(nil, c).Placements)
	require.Empty(t, Build([]Candidate{{WorkerID: "w", Score: 1}}, catalog.New()).Placements)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	workers := []Candidate{
		{WorkerID: "low", Score: 10},
		{WorkerID: "high", Score: 90},
	}
	Build(workers, twoModelCatalog(t))
	require.Equal(t, "low", workers[0].WorkerID)
	require.Equal(t, "high", workers[1].WorkerID)
}

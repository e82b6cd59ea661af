package influence

import (
	"sort"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// ScoreTable maps candidate ids to their one-hop influence score and keeps
// the order in which candidates were scored. It is read-only once built.
type ScoreTable struct {
	order  []int64
	scores map[int64]float64
}

func newScoreTable(capacity int) *ScoreTable {
	return &ScoreTable{
		order:  make([]int64, 0, capacity),
		scores: make(map[int64]float64, capacity),
	}
}

func (t *ScoreTable) set(id int64, score float64) {
	if _, ok := t.scores[id]; !ok {
		t.order = append(t.order, id)
	}
	t.scores[id] = score
}

// Get returns the score of id and whether it was scored at all
func (t *ScoreTable) Get(id int64) (float64, bool) {
	if t == nil {
		return 0, false
	}
	s, ok := t.scores[id]
	return s, ok
}

func (t *ScoreTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// IDs returns the scored ids in scoring order
func (t *ScoreTable) IDs() []int64 {
	if t == nil {
		return nil
	}
	ids := make([]int64, len(t.order))
	copy(ids, t.order)
	return ids
}

// sortedCostIDs returns the cost-bearing ids in ascending order so that the
// degree filter does not depend on map iteration
func sortedCostIDs(costs models.CostMap) []int64 {
	ids := make([]int64, 0, len(costs))
	for id := range costs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AverageDegree is the mean degree of the cost-bearing nodes present in the
// graph. It is 0 when there is no such node or data is missing.
func AverageDegree(g *graph.Graph, costs models.CostMap) float64 {
	if g == nil || costs == nil {
		return 0
	}

	total, count := 0, 0
	for id := range costs {
		if g.Has(id) {
			total += g.Degree(id)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

// FilterHighDegree keeps the cost-bearing graph nodes whose degree is at
// least average, in ascending id order
func FilterHighDegree(g *graph.Graph, costs models.CostMap, average float64) []int64 {
	if g == nil || costs == nil {
		return nil
	}

	var kept []int64
	for _, id := range sortedCostIDs(costs) {
		if g.Has(id) && float64(g.Degree(id)) >= average {
			kept = append(kept, id)
		}
	}
	return kept
}

// TransmissionProbability is the one-hop probability that a neighbour v of
// some candidate is reached: pBase dampened by every hater adjacent to v.
func TransmissionProbability(g *graph.Graph, h *haters.Model, pBase float64, v int64) float64 {
	return pBase * h.AntiInfluence(g, v)
}

// Score computes, for every candidate, the mean transmission probability
// towards its neighbours. Haters and nodes outside the graph are skipped;
// a candidate without neighbours scores 0. A nil hater model is missing
// data and gives an empty table.
func Score(g *graph.Graph, h *haters.Model, candidates []int64, pBase float64) *ScoreTable {
	table := newScoreTable(len(candidates))
	if g == nil || h == nil || candidates == nil {
		return table
	}

	// the per-neighbour probability only depends on the neighbour
	memo := make(map[int64]float64)

	for _, u := range candidates {
		if h.IsHater(u) || !g.Has(u) {
			continue
		}

		neighbors := g.Neighbors(u)
		if len(neighbors) == 0 {
			table.set(u, 0)
			continue
		}

		sum := 0.0
		for _, v := range neighbors {
			p, ok := memo[v]
			if !ok {
				p = TransmissionProbability(g, h, pBase, v)
				memo[v] = p
			}
			sum += p
		}
		table.set(u, sum/float64(len(neighbors)))
	}

	return table
}

// TopK returns up to k ids with the highest scores, best first. Ties keep
// scoring order.
func TopK(table *ScoreTable, k int) []int64 {
	if table.Len() == 0 || k <= 0 {
		return nil
	}

	ids := table.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return table.scores[ids[i]] > table.scores[ids[j]]
	})

	if k < len(ids) {
		ids = ids[:k]
	}
	return ids
}

// SumScore adds up the scores of a group's members; unscored members add 0
func SumScore(table *ScoreTable, group models.SeedSet) float64 {
	sum := 0.0
	for _, id := range group {
		if s, ok := table.Get(id); ok {
			sum += s
		}
	}
	return sum
}

// TopBySum keeps the t groups with the highest summed member score, best
// first. Ties keep input order.
func TopBySum(groups []models.SeedSet, table *ScoreTable, t int) []models.SeedSet {
	if len(groups) == 0 || t <= 0 {
		return nil
	}

	type scored struct {
		group models.SeedSet
		sum   float64
	}
	ranked := make([]scored, len(groups))
	for i, g := range groups {
		ranked[i] = scored{group: g, sum: SumScore(table, g)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].sum > ranked[j].sum })

	if t > len(ranked) {
		t = len(ranked)
	}
	out := make([]models.SeedSet, t)
	for i := 0; i < t; i++ {
		out[i] = ranked[i].group
	}
	return out
}

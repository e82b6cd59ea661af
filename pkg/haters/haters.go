package haters

import (
	"sort"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// Model answers hater queries over a hater-id -> weight mapping.
// A nil *Model stands for "hater data missing".
type Model struct {
	weights models.HaterMap
}

// New wraps a hater map. A nil map yields a nil model; an empty map yields a
// valid model without haters.
func New(weights models.HaterMap) *Model {
	if weights == nil {
		return nil
	}
	copied := make(models.HaterMap, len(weights))
	for id, w := range weights {
		copied[id] = w
	}
	return &Model{weights: copied}
}

// Weight returns the suppression weight of a hater
func (m *Model) Weight(id int64) (float64, bool) {
	if m == nil {
		return 0, false
	}
	w, ok := m.weights[id]
	return w, ok
}

func (m *Model) IsHater(id int64) bool {
	_, ok := m.Weight(id)
	return ok
}

func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.weights)
}

// IDs returns hater ids in ascending order
func (m *Model) IDs() []int64 {
	if m == nil {
		return nil
	}
	ids := make([]int64, 0, len(m.weights))
	for id := range m.weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AntiInfluence is the product of (1 - weight) over the hater neighbours of
// node. It is 1 when the node has no hater neighbours.
func (m *Model) AntiInfluence(g *graph.Graph, node int64) float64 {
	factor := 1.0
	if m.Len() == 0 {
		return factor
	}
	for _, nb := range g.Neighbors(node) {
		if w, ok := m.weights[nb]; ok {
			factor *= 1.0 - w
		}
	}
	return factor
}

// Filter returns ids without the haters, preserving order
func (m *Model) Filter(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !m.IsHater(id) {
			out = append(out, id)
		}
	}
	return out
}

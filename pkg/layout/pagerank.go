package layout

import (
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
)

// egoNetwork returns the directed view of the subgraph induced by the seeds
// and their neighbours, with both directions for every friendship
func egoNetwork(g *graph.Graph, seeds []int64) *simple.DirectedGraph {
	include := make(map[int64]bool)
	for _, s := range seeds {
		if !g.Has(s) {
			continue
		}
		include[s] = true
		for _, nb := range g.Neighbors(s) {
			include[nb] = true
		}
	}

	directed := simple.NewDirectedGraph()
	for id := range include {
		directed.AddNode(simple.Node(id))
	}
	for id := range include {
		for _, nb := range g.Neighbors(id) {
			if include[nb] {
				directed.SetEdge(simple.Edge{F: simple.Node(id), T: simple.Node(nb)})
			}
		}
	}
	return directed
}

// pageRank scores the seeds inside their ego network and returns the scores
// together with their range over the seeds
func pageRank(g *graph.Graph, seeds []int64, damping, tolerance float64) (scores map[int64]float64, min, max float64) {
	ranks := network.PageRank(egoNetwork(g, seeds), damping, tolerance)

	scores = make(map[int64]float64, len(seeds))
	first := true
	for _, s := range seeds {
		score, ok := ranks[s]
		if !ok {
			continue
		}
		scores[s] = score
		if first {
			min, max = score, score
			first = false
			continue
		}
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
	}
	return scores, min, max
}

// radius maps a score to [minRadius, maxRadius] relative to the score range
func radius(score, min, max, minRadius, maxRadius float64) float64 {
	if max == min {
		return maxRadius
	}
	return minRadius + (score-min)/(max-min)*(maxRadius-minRadius)
}

package cascade

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/haters"
)

// Params are the diffusion model parameters
type Params struct {
	PBase  float64 `json:"pBase"`
	Rounds int     `json:"rounds"`
}

// Result is the outcome of a single stochastic run
type Result struct {
	Count       int     `json:"count"`
	Influenced  []int64 `json:"influenced"`
	NewPerRound []int   `json:"newPerRound"`
}

// Simulator runs the round-synchronous cascade with hater dampening over a
// fixed graph and hater model. It holds no per-run state, so one Simulator
// can serve many concurrent runs as long as each run has its own rng.
type Simulator struct {
	graph  *graph.Graph
	haters *haters.Model
	logger zerolog.Logger

	// anti-influence factor for nodes with at least one hater neighbour
	anti map[int64]float64
}

// NewSimulator prepares a simulator. Missing inputs are accepted; runs on a
// simulator without a graph or hater model report zero influenced nodes.
func NewSimulator(g *graph.Graph, h *haters.Model, logger zerolog.Logger) *Simulator {
	s := &Simulator{
		graph:  g,
		haters: h,
		logger: logger,
		anti:   make(map[int64]float64),
	}

	if g == nil || h == nil {
		logger.Warn().
			Bool("graph_missing", g == nil).
			Bool("haters_missing", h == nil).
			Msg("Simulator created without graph or haters data, every run reports zero")
	}

	if h.Len() > 0 {
		for _, v := range g.Nodes() {
			if f := h.AntiInfluence(g, v); f != 1.0 {
				s.anti[v] = f
			}
		}
	}

	return s
}

// Graph returns the graph the simulator runs on
func (s *Simulator) Graph() *graph.Graph { return s.graph }

// Haters returns the hater model the simulator runs with
func (s *Simulator) Haters() *haters.Model { return s.haters }

func (s *Simulator) antiInfluence(v int64) float64 {
	if f, ok := s.anti[v]; ok {
		return f
	}
	return 1.0
}

// Run simulates one cascade from seeds. Haters among the seeds are dropped.
// In every round each uninfluenced non-hater node is exposed to its
// influenced non-hater neighbours; infections decided in a round only take
// effect once the whole round has been evaluated.
func (s *Simulator) Run(seeds []int64, params Params, rng *rand.Rand) Result {
	if s == nil {
		return Result{}
	}
	if s.graph == nil || s.haters == nil || seeds == nil {
		s.logger.Debug().
			Bool("graph_missing", s.graph == nil).
			Bool("haters_missing", s.haters == nil).
			Bool("seeds_missing", seeds == nil).
			Msg("Cannot simulate with invalid graph, seeds or haters data")
		return Result{}
	}

	if rng == nil {
		seed := time.Now().UnixNano()
		s.logger.Debug().Int64("seed", seed).Msg("No random source supplied, using time-based seed")
		rng = rand.New(rand.NewSource(seed))
	}

	influenced := make(map[int64]struct{}, len(seeds))
	for _, id := range seeds {
		if !s.haters.IsHater(id) {
			influenced[id] = struct{}{}
		}
	}

	rounds := params.Rounds
	if rounds < 0 {
		rounds = 0
	}
	newPerRound := make([]int, 0, rounds)

	for round := 1; round <= rounds; round++ {
		var newly []int64

		for _, v := range s.graph.Nodes() {
			if _, done := influenced[v]; done || s.haters.IsHater(v) {
				continue
			}

			active := 0
			for _, u := range s.graph.Neighbors(v) {
				if _, ok := influenced[u]; ok && !s.haters.IsHater(u) {
					active++
				}
			}
			if active == 0 {
				continue
			}

			pEffective := params.PBase * s.antiInfluence(v)
			escape := 1.0
			for i := 0; i < active; i++ {
				escape *= 1.0 - pEffective
			}

			if rng.Float64() < 1.0-escape {
				newly = append(newly, v)
			}
		}

		for _, v := range newly {
			influenced[v] = struct{}{}
		}
		newPerRound = append(newPerRound, len(newly))
	}

	ids := make([]int64, 0, len(influenced))
	for id := range influenced {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return Result{
		Count:       len(ids),
		Influenced:  ids,
		NewPerRound: newPerRound,
	}
}

// Count runs one cascade and returns the number of influenced nodes
func (s *Simulator) Count(seeds []int64, params Params, rng *rand.Rand) int {
	return s.Run(seeds, params, rng).Count
}

// Simulate is the one-shot form of Simulator.Count
func Simulate(g *graph.Graph, seeds []int64, h *haters.Model, pBase float64, rounds int, rng *rand.Rand) int {
	return NewSimulator(g, h, zerolog.Nop()).Count(seeds, Params{PBase: pBase, Rounds: rounds}, rng)
}

package sampler

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// AttemptsPerSample bounds the number of shuffles tried per requested group
const AttemptsPerSample = 100

// preallocation ceiling for the result slice; larger results grow on demand
const maxPrealloc = 4096

// Sampler draws budget-feasible seed sets from a candidate pool
type Sampler struct {
	costs  models.CostMap
	budget float64
	haters *haters.Model
	logger zerolog.Logger
}

// Option configures a Sampler
type Option func(*Sampler)

// WithHaters drops haters from every pool before sampling
func WithHaters(h *haters.Model) Option {
	return func(s *Sampler) { s.haters = h }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sampler) { s.logger = logger }
}

// New creates a sampler for the given cost table and budget
func New(costs models.CostMap, budget float64, opts ...Option) *Sampler {
	s := &Sampler{
		costs:  costs,
		budget: budget,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// eligible copies the pool, dropping nodes without a cost and haters. The
// caller's slice is never reordered.
func (s *Sampler) eligible(pool []int64) []int64 {
	out := make([]int64, 0, len(pool))
	seen := make(map[int64]bool, len(pool))
	for _, id := range pool {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := s.costs[id]; !ok || s.haters.IsHater(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Sample draws up to numSamples distinct groups whose cost is exactly the
// budget. Each attempt shuffles the pool and packs nodes greedily while the
// running cost stays within budget; the draw is accepted the moment the
// running cost equals the budget and discarded otherwise. After
// numSamples*AttemptsPerSample attempts the groups found so far are returned.
// Groups come back canonical and in the order they were first found. A nil
// rng is replaced by a time-seeded source.
func (s *Sampler) Sample(pool []int64, numSamples int, rng *rand.Rand) []models.SeedSet {
	if s.costs == nil || numSamples <= 0 {
		s.logger.Warn().
			Bool("costs_missing", s.costs == nil).
			Int("num_samples", numSamples).
			Msg("Nothing to sample")
		return nil
	}

	candidates := s.eligible(pool)
	if len(candidates) == 0 {
		s.logger.Warn().Int("pool", len(pool)).Msg("No eligible candidates to sample from")
		return nil
	}

	if rng == nil {
		seed := time.Now().UnixNano()
		s.logger.Debug().Int64("seed", seed).Msg("No random source supplied, using time-based seed")
		rng = rand.New(rand.NewSource(seed))
	}

	// n candidates cannot form more than 2^n distinct groups
	target := numSamples
	if n := len(candidates); n < 62 && target > 1<<n {
		target = 1 << n
	}

	seen := make(map[string]bool)
	groups := make([]models.SeedSet, 0, min(target, maxPrealloc))
	maxAttempts := math.MaxInt
	if target <= math.MaxInt/AttemptsPerSample {
		maxAttempts = target * AttemptsPerSample
	}
	attempts := 0

	for len(groups) < target && attempts < maxAttempts {
		attempts++
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})

		var group []int64
		total := 0.0
		for _, id := range candidates {
			cost := s.costs[id]
			if total+cost <= s.budget {
				group = append(group, id)
				total += cost
			}
			if total == s.budget {
				set := models.NewSeedSet(group)
				if key := set.Key(); !seen[key] {
					seen[key] = true
					groups = append(groups, set)
				}
				break
			}
		}
	}

	event := s.logger.Info()
	if len(groups) < numSamples {
		event = s.logger.Warn()
	}
	event.
		Int("requested", numSamples).
		Int("found", len(groups)).
		Int("attempts", attempts).
		Msg("Group sampling finished")

	return groups
}

// Sample is the one-shot form of Sampler.Sample
func Sample(pool []int64, costs models.CostMap, budget float64, numSamples int, rng *rand.Rand) []models.SeedSet {
	return New(costs, budget).Sample(pool, numSamples, rng)
}

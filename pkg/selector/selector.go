package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/influence-spread-service/pkg/cascade"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// Config controls how every candidate group is evaluated
type Config struct {
	Params  cascade.Params
	Trials  int
	Workers int
	Seed    int64
}

// Evaluation is the Monte-Carlo estimate of one candidate group
type Evaluation struct {
	Group    models.SeedSet   `json:"group"`
	Estimate cascade.Estimate `json:"estimate"`
}

// Selection is the outcome of a greedy selection
type Selection struct {
	Best        models.SeedSet `json:"best"`
	BestMean    float64        `json:"bestMean"`
	Evaluations []Evaluation   `json:"evaluations"`
}

// Selector picks the group with the highest expected spread
type Selector struct {
	sim    *cascade.Simulator
	config Config
	logger zerolog.Logger
}

func New(sim *cascade.Simulator, config Config, logger zerolog.Logger) *Selector {
	return &Selector{sim: sim, config: config, logger: logger}
}

// Select estimates the expected spread of every group and returns the best
// one. Ties keep the group seen first. No groups means no selection.
func (s *Selector) Select(ctx context.Context, groups []models.SeedSet) (*Selection, error) {
	if len(groups) == 0 {
		s.logger.Warn().Msg("No candidate groups to select from")
		return nil, nil
	}

	start := time.Now()
	selection := &Selection{
		Evaluations: make([]Evaluation, 0, len(groups)),
	}

	bestIndex := -1
	for i, group := range groups {
		trials := cascade.TrialConfig{
			Trials:  s.config.Trials,
			Workers: s.config.Workers,
			Seed:    cascade.TrialSeed(s.config.Seed, i),
		}

		est, err := cascade.EstimateSpread(ctx, s.sim, group, s.config.Params, trials)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate group %d: %w", i, err)
		}
		selection.Evaluations = append(selection.Evaluations, Evaluation{Group: group, Estimate: est})

		if bestIndex < 0 || est.Mean > selection.BestMean {
			bestIndex = i
			selection.BestMean = est.Mean
		}

		s.logger.Debug().
			Int("group", i).
			Int("size", len(group)).
			Float64("mean", est.Mean).
			Float64("std_dev", est.StdDev).
			Msg("Group evaluated")
	}

	selection.Best = groups[bestIndex]

	s.logger.Info().
		Int("groups", len(groups)).
		Int("trials", s.config.Trials).
		Int("best_index", bestIndex).
		Float64("best_mean", selection.BestMean).
		Dur("duration", time.Since(start)).
		Msg("Greedy selection completed")

	return selection, nil
}

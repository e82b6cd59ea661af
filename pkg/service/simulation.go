package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/influence-spread-service/pkg/cascade"
	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/metrics"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/pipeline"
	"github.com/gilchrisn/influence-spread-service/pkg/validation"
)

// SimulationRequest asks for the expected spread of a seed set. Unset
// fields fall back to the configured defaults.
type SimulationRequest struct {
	Seeds      []int64  `json:"seeds"`
	PBase      *float64 `json:"pBase,omitempty"`
	Rounds     *int     `json:"rounds,omitempty"`
	Trials     *int     `json:"trials,omitempty"`
	RandomSeed *int64   `json:"randomSeed,omitempty"`
}

// SimulationResult is the Monte-Carlo estimate of a seed set
type SimulationResult struct {
	Seeds            models.SeedSet   `json:"seeds"`
	TotalCost        float64          `json:"totalCost"`
	Params           cascade.Params   `json:"params"`
	Estimate         cascade.Estimate `json:"estimate"`
	ProcessingTimeMS int64            `json:"processingTimeMs"`
}

// SimulationService estimates the spread of user supplied seed sets
type SimulationService struct {
	datasetService *DatasetService
	config         *pipeline.Config
	metrics        *metrics.Metrics
}

func NewSimulationService(datasetService *DatasetService, config *pipeline.Config, m *metrics.Metrics) *SimulationService {
	if config == nil {
		config = pipeline.NewConfig()
	}
	return &SimulationService{
		datasetService: datasetService,
		config:         config,
		metrics:        m,
	}
}

// Validate checks a seed set against the served dataset and the budget
func (s *SimulationService) Validate(seeds []int64) error {
	dataset, _, err := s.datasetService.Get()
	if err != nil {
		return err
	}
	return validation.ValidateSeedSet(seeds, dataset.Costs, dataset.Haters, s.config.Budget())
}

// Simulate validates the seeds and estimates their expected spread
func (s *SimulationService) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	dataset, _, err := s.datasetService.Get()
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateSeedSet(req.Seeds, dataset.Costs, dataset.Haters, s.config.Budget()); err != nil {
		return nil, err
	}

	params := cascade.Params{PBase: s.config.PBase(), Rounds: s.config.Rounds()}
	if req.PBase != nil {
		params.PBase = *req.PBase
	}
	if req.Rounds != nil {
		params.Rounds = *req.Rounds
	}
	trials := cascade.TrialConfig{
		Trials:  s.config.Trials(),
		Workers: s.config.NumWorkers(),
		Seed:    s.config.RandomSeed(),
	}
	if req.Trials != nil {
		trials.Trials = *req.Trials
	}
	if req.RandomSeed != nil {
		trials.Seed = *req.RandomSeed
	}

	if params.PBase < 0 || params.PBase > 1 {
		return nil, models.ValidationError{Field: "pBase", Message: "must be within [0, 1]"}
	}
	if trials.Trials <= 0 {
		return nil, models.ValidationError{Field: "trials", Message: "must be positive"}
	}
	if limit := s.config.MaxTrials(); limit > 0 && trials.Trials > limit {
		return nil, models.ValidationError{
			Field:   "trials",
			Message: fmt.Sprintf("must not exceed %d", limit),
			Value:   strconv.Itoa(trials.Trials),
		}
	}

	start := time.Now()
	seeds := models.NewSeedSet(req.Seeds)
	sim := cascade.NewSimulator(dataset.Graph, haters.New(dataset.Haters), log.Logger)

	estimate, err := cascade.EstimateSpread(ctx, sim, seeds, params, trials)
	if err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}
	s.metrics.ObserveSimulations(trials.Trials)

	result := &SimulationResult{
		Seeds:            seeds,
		TotalCost:        seeds.TotalCost(dataset.Costs),
		Params:           params,
		Estimate:         estimate,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}

	log.Info().
		Int("seeds", len(seeds)).
		Int("trials", trials.Trials).
		Float64("mean", estimate.Mean).
		Float64("std_dev", estimate.StdDev).
		Msg("Simulation completed")

	return result, nil
}

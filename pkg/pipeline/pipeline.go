package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/influence-spread-service/pkg/cascade"
	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/influence"
	"github.com/gilchrisn/influence-spread-service/pkg/metrics"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/sampler"
	"github.com/gilchrisn/influence-spread-service/pkg/selector"
	"github.com/gilchrisn/influence-spread-service/pkg/spreadness"
)

// Stage names, in execution order
const (
	StageDegreeFilter = "degree_filter"
	StageInfluence    = "influence"
	StageSample       = "sample"
	StageSpreadness   = "spreadness"
	StageSumInfluence = "sum_influence"
	StageSelect       = "select"
)

// ProgressFunc receives coarse progress updates while a run is in flight
type ProgressFunc func(stage string, percent int, message string)

// StageStats describes the output of one funnel stage
type StageStats struct {
	Name       string `json:"name"`
	Candidates int    `json:"candidates"`
	DurationMS int64  `json:"durationMs"`
}

// Result is the outcome of a seed selection run. Selected is empty when
// data was missing or a stage ran out of candidates.
type Result struct {
	Selected       models.SeedSet `json:"selected"`
	ExpectedSpread float64        `json:"expectedSpread"`
	Stages         []StageStats   `json:"stages"`
	RuntimeMS      int64          `json:"runtimeMs"`
}

// Pipeline runs the candidate funnel that ends in a greedy selection
type Pipeline struct {
	config   *Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	progress ProgressFunc
}

// Option configures a Pipeline
type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLogger replaces the logger built from the configuration
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates a pipeline. A nil config means defaults.
func New(config *Config, opts ...Option) *Pipeline {
	if config == nil {
		config = NewConfig()
	}
	p := &Pipeline{
		config: config,
		logger: config.CreateLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Config() *Config { return p.config }

func (p *Pipeline) report(stage string, percent int, message string) {
	if p.progress != nil {
		p.progress(stage, percent, message)
	}
}

// run tracks the stage statistics of a single Run call
type run struct {
	p      *Pipeline
	result *Result
}

func (r *run) stage(name string, start time.Time, candidates int) {
	d := time.Since(start)
	r.result.Stages = append(r.result.Stages, StageStats{
		Name:       name,
		Candidates: candidates,
		DurationMS: d.Milliseconds(),
	})
	r.p.metrics.ObserveStage(name, d, candidates)
	r.p.logger.Info().
		Str("stage", name).
		Int("candidates", candidates).
		Dur("duration", d).
		Msg("Stage completed")
}

// Run executes the search funnel over dataset:
// degree filter -> one-hop influence top-k -> budget sampling ->
// spreadness top-k -> summed influence top-k -> greedy Monte-Carlo selection.
// Missing data and exhausted stages produce an empty result without error;
// only cancellation of ctx is reported as an error.
func (p *Pipeline) Run(ctx context.Context, dataset *models.Dataset) (*Result, error) {
	startTime := time.Now()
	result := &Result{}
	r := &run{p: p, result: result}

	finish := func(status string) *Result {
		result.RuntimeMS = time.Since(startTime).Milliseconds()
		p.metrics.ObserveRun(status)
		return result
	}
	fail := func(err error) (*Result, error) {
		status := "failed"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "cancelled"
		}
		finish(status)
		return nil, err
	}
	empty := func(stage string) (*Result, error) {
		p.logger.Warn().Str("stage", stage).Msg("No candidates left, returning an empty selection")
		p.report(stage, 100, "No candidates left")
		return finish("empty"), nil
	}

	if !dataset.Complete() {
		summary := dataset.Summary()
		p.logger.Warn().
			Bool("graph_loaded", dataset != nil && dataset.Graph != nil).
			Bool("haters_loaded", dataset != nil && dataset.Haters != nil).
			Bool("costs_loaded", dataset != nil && dataset.Costs != nil).
			Int("nodes", summary.NumNodes).
			Msg("Dataset incomplete, nothing to select")
		return finish("empty"), nil
	}

	g := dataset.Graph
	h := haters.New(dataset.Haters)
	costs := dataset.Costs
	pBase := p.config.PBase()
	workers := p.config.NumWorkers()

	p.logger.Info().
		Int("nodes", g.NumNodes()).
		Int("edges", g.NumEdges()).
		Int("haters", h.Len()).
		Int("costed", len(costs)).
		Float64("budget", p.config.Budget()).
		Msg("Starting seed selection")

	// Stage 1: degree filter
	p.report(StageDegreeFilter, 5, "Filtering candidates by degree")
	stageStart := time.Now()
	average := influence.AverageDegree(g, costs)
	candidates := influence.FilterHighDegree(g, costs, average)
	r.stage(StageDegreeFilter, stageStart, len(candidates))
	if len(candidates) == 0 {
		return empty(StageDegreeFilter)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 2: one-hop influence
	p.report(StageInfluence, 15, "Scoring one-hop influence")
	stageStart = time.Now()
	table := influence.Score(g, h, candidates, pBase)
	top := influence.TopK(table, p.config.TopInfluencers())
	r.stage(StageInfluence, stageStart, len(top))
	if len(top) == 0 {
		return empty(StageInfluence)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 3: budget-feasible groups
	p.report(StageSample, 25, "Sampling budget-feasible groups")
	stageStart = time.Now()
	rng := rand.New(rand.NewSource(p.config.RandomSeed()))
	groups := sampler.New(costs, p.config.Budget(),
		sampler.WithHaters(h),
		sampler.WithLogger(p.logger),
	).Sample(top, p.config.NumSamples(), rng)
	r.stage(StageSample, stageStart, len(groups))
	if len(groups) == 0 {
		return empty(StageSample)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 4: spreadness
	p.report(StageSpreadness, 40, "Ranking groups by spreadness")
	stageStart = time.Now()
	spread, err := spreadness.TopK(ctx, g, groups, p.config.TopSpreadness(), workers)
	if err != nil {
		return fail(fmt.Errorf("spreadness ranking interrupted: %w", err))
	}
	r.stage(StageSpreadness, stageStart, len(spread))
	if len(spread) == 0 {
		return empty(StageSpreadness)
	}

	// Stage 5: summed influence
	p.report(StageSumInfluence, 50, "Ranking groups by summed influence")
	stageStart = time.Now()
	shortlist := influence.TopBySum(spread, table, p.config.TopSumInfluence())
	r.stage(StageSumInfluence, stageStart, len(shortlist))
	if len(shortlist) == 0 {
		return empty(StageSumInfluence)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 6: greedy Monte-Carlo selection
	p.report(StageSelect, 60, fmt.Sprintf("Evaluating %d groups", len(shortlist)))
	stageStart = time.Now()
	sim := cascade.NewSimulator(g, h, p.logger)
	sel := selector.New(sim, selector.Config{
		Params:  cascade.Params{PBase: pBase, Rounds: p.config.Rounds()},
		Trials:  p.config.Trials(),
		Workers: workers,
		Seed:    p.config.RandomSeed(),
	}, p.logger)
	selection, err := sel.Select(ctx, shortlist)
	if err != nil {
		return fail(fmt.Errorf("greedy selection interrupted: %w", err))
	}
	p.metrics.ObserveSimulations(len(shortlist) * p.config.Trials())
	if selection == nil {
		r.stage(StageSelect, stageStart, 0)
		return empty(StageSelect)
	}
	r.stage(StageSelect, stageStart, 1)

	result.Selected = selection.Best
	result.ExpectedSpread = selection.BestMean
	finish("completed")

	p.report(StageSelect, 100, "Complete")
	p.logger.Info().
		Str("selected", result.Selected.Key()).
		Int("size", len(result.Selected)).
		Float64("cost", result.Selected.TotalCost(costs)).
		Float64("expected_spread", result.ExpectedSpread).
		Int64("runtime_ms", result.RuntimeMS).
		Msg("Seed selection completed")

	return result, nil
}

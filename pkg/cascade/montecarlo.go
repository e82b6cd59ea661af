package cascade

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxTrials is the largest number of trials one estimate may run
const MaxTrials = 1 << 24

// ErrTooManyTrials is returned when a TrialConfig asks for more than MaxTrials
var ErrTooManyTrials = errors.New("too many trials")

// TrialConfig controls a Monte-Carlo estimate
type TrialConfig struct {
	Trials  int
	Workers int
	Seed    int64
}

// Estimate summarises the influenced counts of repeated runs
type Estimate struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Trials int     `json:"trials"`
}

// TrialSeed derives the seed of one trial from a base seed (splitmix64), so
// every trial owns an independent stream no matter which worker runs it.
func TrialSeed(base int64, index int) int64 {
	z := uint64(base) + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// EstimateSpread runs cfg.Trials independent cascades from seeds on a pool of
// workers and aggregates them once all trials have finished. The result only
// depends on cfg.Seed, not on the number of workers.
func EstimateSpread(ctx context.Context, sim *Simulator, seeds []int64, params Params, cfg TrialConfig) (Estimate, error) {
	if cfg.Trials <= 0 {
		return Estimate{}, nil
	}
	if cfg.Trials > MaxTrials {
		return Estimate{}, fmt.Errorf("%w: %d requested, at most %d", ErrTooManyTrials, cfg.Trials, MaxTrials)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	counts := make([]float64, cfg.Trials)
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				rng := rand.New(rand.NewSource(TrialSeed(cfg.Seed, i)))
				counts[i] = float64(sim.Count(seeds, params, rng))
			}
		}()
	}

	var cancelled error
schedule:
	for i := 0; i < cfg.Trials; i++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break schedule
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if cancelled != nil {
		return Estimate{}, cancelled
	}

	return summarize(counts), nil
}

func summarize(counts []float64) Estimate {
	est := Estimate{
		Mean:   stat.Mean(counts, nil),
		Min:    floats.Min(counts),
		Max:    floats.Max(counts),
		Trials: len(counts),
	}
	if len(counts) > 1 {
		est.StdDev = stat.StdDev(counts, nil)
	}
	return est
}

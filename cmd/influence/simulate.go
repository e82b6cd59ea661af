package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/influence-spread-service/pkg/cascade"
	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/submission"
	"github.com/gilchrisn/influence-spread-service/pkg/validation"
)

type simulateOptions struct {
	*rootOptions

	seeds string
}

func newSimulateCommand(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "simulate [submission.csv]",
		Short: "Estimate the expected spread of a seed set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVar(&opts.seeds, "seeds", "", "comma separated seed ids, instead of a submission file")

	return cmd
}

func (o *simulateOptions) readSeeds(args []string) ([]int64, error) {
	switch {
	case o.seeds != "" && len(args) > 0:
		return nil, errors.New("use either --seeds or a submission file, not both")
	case o.seeds != "":
		return models.ParseIDs(o.seeds)
	case len(args) == 1:
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open submission: %w", err)
		}
		defer f.Close()
		return submission.Parse(f)
	default:
		return nil, errors.New("no seeds given: pass a submission file or --seeds")
	}
}

func (o *simulateOptions) run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ids, err := o.readSeeds(args)
	if err != nil {
		return err
	}

	dataset, err := o.requireDataset()
	if err != nil {
		return err
	}
	if err := validation.ValidateSeedSet(ids, dataset.Costs, dataset.Haters, o.config.Budget()); err != nil {
		return fmt.Errorf("invalid seed set: %w", err)
	}

	logger := o.config.CreateLogger()
	seeds := models.NewSeedSet(ids)
	sim := cascade.NewSimulator(dataset.Graph, haters.New(dataset.Haters), logger)
	params := cascade.Params{PBase: o.config.PBase(), Rounds: o.config.Rounds()}
	trials := cascade.TrialConfig{
		Trials:  o.config.Trials(),
		Workers: o.config.NumWorkers(),
		Seed:    o.config.RandomSeed(),
	}

	log.Info().
		Int("seeds", len(seeds)).
		Int("trials", trials.Trials).
		Float64("p_base", params.PBase).
		Msg("Estimating spread")

	estimate, err := cascade.EstimateSpread(ctx, sim, seeds, params, trials)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Seeds: %s (cost %.2f)\n", seeds.Key(), seeds.TotalCost(dataset.Costs))
	fmt.Fprintf(os.Stdout, "Expected spread: %.2f (std %.2f, min %.0f, max %.0f, %d trials)\n",
		estimate.Mean, estimate.StdDev, estimate.Min, estimate.Max, estimate.Trials)
	return nil
}

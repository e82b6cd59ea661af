package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/influence-spread-service/pkg/pipeline"
	"github.com/gilchrisn/influence-spread-service/pkg/submission"
)

type selectOptions struct {
	*rootOptions

	output string
	ids    string
}

func newSelectCommand(root *rootOptions) *cobra.Command {
	opts := &selectOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Search for the seed set with the largest expected spread",
		Long: `Run the full search funnel (degree filter, influence ranking, budget
sampling, spreadness, summed influence, Monte-Carlo selection) and write the
chosen seed set as a submission file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "submission file to write")
	flags.StringVar(&opts.ids, "ids", "", "author ids as id1,id2; names the submission file when --output is unset")
	flags.Int("top-influencers", root.config.TopInfluencers(), "candidates kept by the influence ranking")
	flags.Int("num-samples", root.config.NumSamples(), "budget feasible groups to sample")
	flags.Int("top-spreadness", root.config.TopSpreadness(), "groups kept by spreadness")
	flags.Int("top-sum-influence", root.config.TopSumInfluence(), "groups kept by summed influence")

	return cmd
}

func (o *selectOptions) outputPath() (string, error) {
	if o.output != "" {
		return o.output, nil
	}
	if o.ids == "" {
		return "", nil
	}
	parts := strings.Split(o.ids, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("--ids must be id1,id2, got %q", o.ids)
	}
	return submission.DefaultFilename(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])), nil
}

func (o *selectOptions) run(ctx context.Context) error {
	path, err := o.outputPath()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataset, err := o.requireDataset()
	if err != nil {
		return err
	}

	p := pipeline.New(o.config, pipeline.WithLogger(o.config.CreateLogger()))
	result, err := p.Run(ctx, dataset)
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	if len(result.Selected) == 0 {
		log.Warn().Msg("No feasible seed set found")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Selected %d seeds (cost %.2f of %.2f): %s\n",
		len(result.Selected), result.Selected.TotalCost(dataset.Costs), o.config.Budget(), result.Selected.Key())
	fmt.Fprintf(os.Stdout, "Expected spread: %.2f\n", result.ExpectedSpread)
	for _, stage := range result.Stages {
		fmt.Fprintf(os.Stdout, "  %-14s %8d candidates %8d ms\n", stage.Name, stage.Candidates, stage.DurationMS)
	}

	if path == "" {
		return nil
	}
	if err := submission.Write(path, result.Selected, dataset.Costs, dataset.Haters, o.config.Budget()); err != nil {
		return fmt.Errorf("failed to write submission: %w", err)
	}
	log.Info().Str("path", path).Msg("Submission written")
	return nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/parser"
	"github.com/gilchrisn/influence-spread-service/pkg/pipeline"
)

// flag name for every search setting that can be overridden on the command line
var configFlags = map[string]string{
	"budget":                   "budget",
	"cascade.p_base":           "p-base",
	"cascade.rounds":           "rounds",
	"search.top_influencers":   "top-influencers",
	"search.num_samples":       "num-samples",
	"search.top_spreadness":    "top-spreadness",
	"search.top_sum_influence": "top-sum-influence",
	"search.trials":            "trials",
	"algorithm.random_seed":    "seed",
	"performance.num_workers":  "workers",
	"logging.level":            "log-level",
}

type rootOptions struct {
	configFile  string
	friendships string
	haters      string
	costs       string

	config *pipeline.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{config: pipeline.NewConfig()}

	cmd := &cobra.Command{
		Use:           "influence",
		Short:         "Budgeted seed selection for information spread with haters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.complete(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	flags.StringVar(&opts.friendships, "friendships", "friendships.csv", "friendship edge list")
	flags.StringVar(&opts.haters, "haters", "haters.csv", "hater weights")
	flags.StringVar(&opts.costs, "costs", "costs.csv", "seed costs")

	flags.String("log-level", opts.config.LogLevel(), "log level (debug, info, warn, error)")
	flags.Float64("budget", opts.config.Budget(), "total seed cost budget")
	flags.Float64("p-base", opts.config.PBase(), "base transmission probability")
	flags.Int("rounds", opts.config.Rounds(), "cascade rounds")
	flags.Int("trials", opts.config.Trials(), "Monte-Carlo trials per estimate")
	flags.Int64("seed", opts.config.RandomSeed(), "random seed")
	flags.Int("workers", opts.config.NumWorkers(), "parallel workers")

	cmd.AddCommand(
		newSelectCommand(opts),
		newSimulateCommand(opts),
		newValidateCommand(opts),
		newServeCommand(opts),
	)

	return cmd
}

// complete loads the configuration file and applies flag overrides
func (o *rootOptions) complete(cmd *cobra.Command) error {
	if o.configFile != "" {
		if err := o.config.LoadFromFile(o.configFile); err != nil {
			return fmt.Errorf("failed to load config %s: %w", o.configFile, err)
		}
	}
	if err := o.config.BindFlags(cmd.Flags(), configFlags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(o.config.LogLevel())
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.config.LogLevel(), err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level)

	return nil
}

// loadDataset reads the three input files. Parts that fail to load stay nil.
func (o *rootOptions) loadDataset() *models.Dataset {
	return parser.LoadDataset(o.friendships, o.haters, o.costs, log.Logger)
}

// requireDataset is loadDataset for commands that cannot work on partial data
func (o *rootOptions) requireDataset() (*models.Dataset, error) {
	dataset := o.loadDataset()
	if !dataset.Complete() {
		return nil, fmt.Errorf("dataset incomplete: friendships=%s haters=%s costs=%s", o.friendships, o.haters, o.costs)
	}
	return dataset, nil
}

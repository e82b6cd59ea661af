package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/submission"
	"github.com/gilchrisn/influence-spread-service/pkg/validation"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <submission.csv>",
		Short: "Check a submission file against the dataset and the budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := root.requireDataset()
			if err != nil {
				return err
			}

			report, err := validation.ValidateDataset(dataset)
			if err != nil {
				return err
			}
			for _, warning := range report.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
			}

			seeds, err := submission.Read(args[0], dataset.Costs, dataset.Haters, root.config.Budget())
			if err != nil {
				var ve models.ValidationErrors
				if errors.As(err, &ve) {
					for _, e := range ve {
						fmt.Fprintf(os.Stdout, "invalid: %s\n", e.Error())
					}
				}
				return fmt.Errorf("submission %s rejected: %w", args[0], err)
			}

			fmt.Fprintf(os.Stdout, "valid: %d seeds, cost %.2f of %.2f\n",
				len(seeds), seeds.TotalCost(dataset.Costs), root.config.Budget())
			return nil
		},
	}
}

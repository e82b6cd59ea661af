package validation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// ValidateSeedSet checks a proposed seed set against the cost table, the
// haters and the budget. Every member must have a cost, must not be a hater
// and must appear once; the total cost must not exceed the budget. All
// violations are collected into models.ValidationErrors.
func ValidateSeedSet(seeds []int64, costs models.CostMap, haters models.HaterMap, budget float64) error {
	var errors models.ValidationErrors

	if costs == nil {
		return models.ValidationError{
			Field:   "costs",
			Message: "cost data is not loaded",
		}
	}

	seen := make(map[int64]bool, len(seeds))
	total := 0.0
	for _, id := range seeds {
		value := strconv.FormatInt(id, 10)

		if seen[id] {
			errors = append(errors, models.ValidationError{
				Field:   "seeds",
				Message: "duplicate influencer",
				Value:   value,
			})
			continue
		}
		seen[id] = true

		cost, ok := costs[id]
		if !ok {
			errors = append(errors, models.ValidationError{
				Field:   "seeds",
				Message: "influencer not found in cost data",
				Value:   value,
			})
		}
		if _, hater := haters[id]; hater {
			errors = append(errors, models.ValidationError{
				Field:   "seeds",
				Message: "influencer is a hater",
				Value:   value,
			})
		}
		total += cost
	}

	if total > budget {
		errors = append(errors, models.ValidationError{
			Field:   "budget",
			Message: fmt.Sprintf("total cost %.2f exceeds budget %.2f", total, budget),
			Value:   strconv.FormatFloat(total, 'f', -1, 64),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// DatasetReport holds the non fatal findings of ValidateDataset
type DatasetReport struct {
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateDataset checks that every part of a dataset is loaded and that
// hater weights and costs are in range. Haters and costed users missing
// from the graph are reported as warnings only.
func ValidateDataset(dataset *models.Dataset) (*DatasetReport, error) {
	var errors models.ValidationErrors
	report := &DatasetReport{}

	if dataset == nil {
		return report, models.ValidationError{
			Field:   "dataset",
			Message: "dataset cannot be nil",
		}
	}

	if dataset.Graph == nil {
		errors = append(errors, models.ValidationError{Field: "graph", Message: "friendship graph is not loaded"})
	}
	if dataset.Haters == nil {
		errors = append(errors, models.ValidationError{Field: "haters", Message: "hater data is not loaded"})
	}
	if dataset.Costs == nil {
		errors = append(errors, models.ValidationError{Field: "costs", Message: "cost data is not loaded"})
	}
	if len(errors) > 0 {
		return report, errors
	}

	missingHaters := 0
	for id, w := range dataset.Haters {
		if math.IsNaN(w) || w <= 0 || w > 1 {
			errors = append(errors, models.ValidationError{
				Field:   "haters",
				Message: fmt.Sprintf("weight %v outside (0, 1]", w),
				Value:   strconv.FormatInt(id, 10),
			})
		}
		if !dataset.Graph.Has(id) {
			missingHaters++
		}
	}

	missingCosts := 0
	for id, c := range dataset.Costs {
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			errors = append(errors, models.ValidationError{
				Field:   "costs",
				Message: fmt.Sprintf("cost %v is not a finite non-negative number", c),
				Value:   strconv.FormatInt(id, 10),
			})
		}
		if !dataset.Graph.Has(id) {
			missingCosts++
		}
	}

	if missingHaters > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d haters are not in the friendship graph", missingHaters))
	}
	if missingCosts > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d costed users are not in the friendship graph", missingCosts))
	}

	if len(errors) > 0 {
		return report, errors
	}
	return report, nil
}

package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

func TestValidateSeedSet(t *testing.T) {
	costs := models.CostMap{1: 500, 2: 700, 3: 300, 4: 100}
	haters := models.HaterMap{4: 0.5}

	tests := []struct {
		name   string
		seeds  []int64
		budget float64
		fields []string
	}{
		{"valid", []int64{1, 2, 3}, 1500, nil},
		{"empty set", nil, 1500, nil},
		{"exactly on budget", []int64{1, 2, 3}, 1500, nil},
		{"over budget", []int64{1, 2, 3}, 1499, []string{"budget"}},
		{"unknown user", []int64{1, 99}, 1500, []string{"seeds"}},
		{"hater", []int64{4}, 1500, []string{"seeds"}},
		{"duplicate", []int64{1, 1}, 1500, []string{"seeds"}},
		{"several problems", []int64{4, 4, 99, 1, 2, 3}, 1500, []string{"seeds", "seeds", "seeds", "budget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeedSet(tt.seeds, costs, haters, tt.budget)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var ve models.ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
			}
			if len(ve) != len(tt.fields) {
				t.Fatalf("expected %d violations, got %d: %v", len(tt.fields), len(ve), ve)
			}
			for i, f := range tt.fields {
				if ve[i].Field != f {
					t.Errorf("violation %d: expected field %s, got %s", i, f, ve[i].Field)
				}
			}
		})
	}
}

func TestValidateSeedSetWithoutCosts(t *testing.T) {
	err := ValidateSeedSet([]int64{1}, nil, nil, 10)

	var ve models.ValidationError
	if !errors.As(err, &ve) || ve.Field != "costs" {
		t.Errorf("expected a costs validation error, got %v", err)
	}
}

func TestValidateDataset(t *testing.T) {
	g := graph.FromEdges([][2]int64{{1, 2}, {2, 3}})

	report, err := ValidateDataset(&models.Dataset{
		Graph:  g,
		Haters: models.HaterMap{3: 0.5, 50: 1},
		Costs:  models.CostMap{1: 10, 2: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("expected one warning for the hater outside the graph, got %v", report.Warnings)
	}

	_, err = ValidateDataset(&models.Dataset{
		Graph:  g,
		Haters: models.HaterMap{3: 1.5},
		Costs:  models.CostMap{1: -1},
	})
	var ve models.ValidationErrors
	if !errors.As(err, &ve) || len(ve) != 2 {
		t.Errorf("expected two range violations, got %v", err)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = ValidateDataset(&models.Dataset{
			Graph:  g,
			Haters: models.HaterMap{3: bad},
			Costs:  models.CostMap{1: bad},
		})
		if !errors.As(err, &ve) || len(ve) != 2 {
			t.Errorf("expected weight %v and cost %v to be rejected, got %v", bad, bad, err)
		}
	}

	_, err = ValidateDataset(&models.Dataset{Graph: g})
	if !errors.As(err, &ve) || len(ve) != 2 {
		t.Errorf("expected two missing parts, got %v", err)
	}

	if _, err := ValidateDataset(nil); err == nil {
		t.Error("nil dataset must be rejected")
	}
}

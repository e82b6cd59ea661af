package selector

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/influence-spread-service/pkg/cascade"
	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

func newSimulator() *cascade.Simulator {
	g := graph.FromEdges([][2]int64{{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}})
	return cascade.NewSimulator(g, haters.New(models.HaterMap{6: 1.0}), zerolog.Nop())
}

func TestSelectWithoutSpreadCountsSeeds(t *testing.T) {
	// with pBase 0 nothing spreads: the spread is the non-hater seed count
	s := New(newSimulator(), Config{
		Params: cascade.Params{PBase: 0, Rounds: 6},
		Trials: 1,
		Seed:   42,
	}, zerolog.Nop())

	groups := []models.SeedSet{
		{1},
		{2, 6},    // 6 is a hater
		{1, 3, 5}, // best
		{2, 4},
	}

	sel, err := s.Select(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Best.Key() != "1,3,5" {
		t.Errorf("expected 1,3,5, got %v", sel.Best)
	}
	if sel.BestMean != 3 {
		t.Errorf("expected mean 3, got %v", sel.BestMean)
	}
	if len(sel.Evaluations) != len(groups) {
		t.Fatalf("expected %d evaluations, got %d", len(groups), len(sel.Evaluations))
	}
	if sel.Evaluations[1].Estimate.Mean != 1 {
		t.Errorf("hater seed must not count, got %v", sel.Evaluations[1].Estimate.Mean)
	}
}

func TestSelectTiesKeepFirst(t *testing.T) {
	s := New(newSimulator(), Config{
		Params: cascade.Params{PBase: 0, Rounds: 3},
		Trials: 5,
		Seed:   1,
	}, zerolog.Nop())

	groups := []models.SeedSet{{4}, {1, 2}, {3, 5}, {1, 5}}
	sel, err := s.Select(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Best.Key() != "1,2" {
		t.Errorf("expected the first of the tied groups, got %v", sel.Best)
	}
}

func TestSelectCertainSpread(t *testing.T) {
	// pBase 1 floods the path up to the hater within the round limit
	s := New(newSimulator(), Config{
		Params:  cascade.Params{PBase: 1, Rounds: 1},
		Trials:  10,
		Workers: 3,
		Seed:    7,
	}, zerolog.Nop())

	sel, err := s.Select(context.Background(), []models.SeedSet{{1}, {3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// {1} reaches 2; {3} reaches 2 and 4
	if sel.Best.Key() != "3" || sel.BestMean != 3 {
		t.Errorf("expected group 3 with mean 3, got %v with %v", sel.Best, sel.BestMean)
	}
}

func TestSelectEmptyAndCancelled(t *testing.T) {
	s := New(newSimulator(), Config{Params: cascade.Params{PBase: 0.5, Rounds: 2}, Trials: 10}, zerolog.Nop())

	sel, err := s.Select(context.Background(), nil)
	if sel != nil || err != nil {
		t.Errorf("expected nil selection and no error, got %v, %v", sel, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Select(ctx, []models.SeedSet{{1}}); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

package sampler

import (
	"math/rand"
	"testing"

	"github.com/gilchrisn/influence-spread-service/pkg/haters"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

func TestSampleRespectsBudgetExactly(t *testing.T) {
	costs := models.CostMap{1: 500, 2: 500, 3: 1000, 4: 700, 5: 800, 6: 300}
	pool := []int64{1, 2, 3, 4, 5, 6}

	groups := Sample(pool, costs, 1500, 10, rand.New(rand.NewSource(7)))
	if len(groups) == 0 {
		t.Fatal("expected at least one feasible group")
	}

	seen := make(map[string]bool)
	for _, g := range groups {
		if total := g.TotalCost(costs); total != 1500 {
			t.Errorf("group %v costs %v, expected exactly 1500", g, total)
		}
		for i := 1; i < len(g); i++ {
			if g[i-1] >= g[i] {
				t.Errorf("group %v is not canonical", g)
			}
		}
		if seen[g.Key()] {
			t.Errorf("duplicate group %v", g)
		}
		seen[g.Key()] = true
	}
}

func TestSampleDeterministic(t *testing.T) {
	costs := models.CostMap{1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1, 7: 1}
	pool := []int64{7, 6, 5, 4, 3, 2, 1}

	a := Sample(pool, costs, 3, 5, rand.New(rand.NewSource(42)))
	b := Sample(pool, costs, 3, 5, rand.New(rand.NewSource(42)))

	if len(a) != 5 || len(b) != 5 {
		t.Fatalf("expected 5 groups each, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Key() != b[i].Key() {
			t.Fatalf("same seed gave different groups at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSampleDoesNotModifyPool(t *testing.T) {
	costs := models.CostMap{1: 1, 2: 1, 3: 1, 4: 1}
	pool := []int64{4, 3, 2, 1}

	Sample(pool, costs, 2, 3, rand.New(rand.NewSource(1)))

	want := []int64{4, 3, 2, 1}
	for i := range want {
		if pool[i] != want[i] {
			t.Fatalf("pool was modified: %v", pool)
		}
	}
}

func TestSamplePartialResult(t *testing.T) {
	// only {1,2} reaches the budget, so at most one distinct group exists
	costs := models.CostMap{1: 2, 2: 3, 3: 10}
	groups := Sample([]int64{1, 2, 3}, costs, 5, 4, rand.New(rand.NewSource(3)))

	if len(groups) != 1 {
		t.Fatalf("expected exactly one group, got %v", groups)
	}
	if groups[0].Key() != "1,2" {
		t.Errorf("expected group 1,2, got %v", groups[0])
	}

	none := Sample([]int64{1, 2}, models.CostMap{1: 2, 2: 2}, 5, 3, rand.New(rand.NewSource(3)))
	if len(none) != 0 {
		t.Errorf("an unreachable budget must yield no groups, got %v", none)
	}
}

func TestSampleExcludesHatersAndUncosted(t *testing.T) {
	costs := models.CostMap{1: 1, 2: 1, 3: 1, 4: 1}
	pool := []int64{1, 2, 3, 4, 5}
	s := New(costs, 2, WithHaters(haters.New(models.HaterMap{1: 0.5})))

	groups := s.Sample(pool, 20, rand.New(rand.NewSource(11)))
	if len(groups) != 3 {
		t.Errorf("expected the 3 pairs of {2,3,4}, got %v", groups)
	}
	for _, g := range groups {
		if g.Contains(1) {
			t.Errorf("hater sampled in %v", g)
		}
		if g.Contains(5) {
			t.Errorf("node without cost sampled in %v", g)
		}
	}
}

func TestSampleDegenerateInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name       string
		pool       []int64
		costs      models.CostMap
		numSamples int
	}{
		{"nil costs", []int64{1}, nil, 3},
		{"empty pool", nil, models.CostMap{1: 1}, 3},
		{"zero samples", []int64{1}, models.CostMap{1: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sample(tt.pool, tt.costs, 1, tt.numSamples, rng); len(got) != 0 {
				t.Errorf("expected no groups, got %v", got)
			}
		})
	}
}

func TestSampleWithoutRandomSource(t *testing.T) {
	costs := models.CostMap{1: 1, 2: 1, 3: 1}

	groups := Sample([]int64{1, 2, 3}, costs, 2, 1, nil)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %v", groups)
	}
	if len(groups[0]) != 2 || groups[0].TotalCost(costs) != 2 {
		t.Errorf("group %v does not match the budget", groups[0])
	}
}

func TestSampleHugeRequest(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	costs := models.CostMap{1: 1, 2: 1, 3: 1}

	// only three pairs exist; the request must neither panic nor spin
	groups := Sample([]int64{1, 2, 3}, costs, 2, 1<<62, rng)
	if len(groups) != 3 {
		t.Errorf("expected all 3 pairs, got %v", groups)
	}
}

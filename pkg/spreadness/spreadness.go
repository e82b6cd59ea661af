package spreadness

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// DistanceMatrix returns the pairwise hop distances between the group
// members present in the graph, together with the member ids in matrix
// order. Unreachable pairs hold +Inf. It returns nil when no member is in
// the graph.
func DistanceMatrix(g *graph.Graph, group models.SeedSet) (*mat.SymDense, []int64) {
	members := make([]int64, 0, len(group))
	for _, id := range group {
		if g.Has(id) {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return nil, nil
	}

	n := len(members)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		// only the upper triangle needs a search
		dist := g.Distances(members[i], members[i+1:])
		for j := i + 1; j < n; j++ {
			if hops, ok := dist[members[j]]; ok {
				d.SetSym(i, j, float64(hops))
			} else {
				d.SetSym(i, j, math.Inf(1))
			}
		}
	}
	return d, members
}

// Score is the mean hop distance over the connected pairs of a group.
// Groups with fewer than two members in the graph score 0; groups without
// any connected pair score +Inf, which ranks above every finite score.
func Score(g *graph.Graph, group models.SeedSet) float64 {
	d, members := DistanceMatrix(g, group)
	if len(members) < 2 {
		return 0
	}

	total, pairs := 0.0, 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if v := d.At(i, j); !math.IsInf(v, 1) {
				total += v
				pairs++
			}
		}
	}
	if pairs == 0 {
		return math.Inf(1)
	}
	return total / float64(pairs)
}

// TopK scores every group on a pool of workers and keeps the k most spread
// out, best first. Ties keep input order.
func TopK(ctx context.Context, g *graph.Graph, groups []models.SeedSet, k, workers int) ([]models.SeedSet, error) {
	if len(groups) == 0 || k <= 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	scores := make([]float64, len(groups))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				scores[i] = Score(g, groups[i])
			}
		}()
	}

	var cancelled error
	for i := range groups {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		case indices <- i:
		}
		if cancelled != nil {
			break
		}
	}
	close(indices)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if k > len(order) {
		k = len(order)
	}
	top := make([]models.SeedSet, k)
	for i := 0; i < k; i++ {
		top[i] = groups[order[i]]
	}
	return top, nil
}

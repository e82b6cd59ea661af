package layout

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/spreadness"
)

// Scale bounds of the produced layout
const (
	MinCoordinate = -100.0
	MaxCoordinate = 100.0
	MinRadius     = 3.0
	MaxRadius     = 20.0
)

// ErrNoNodes is returned when no seed is part of the graph
var ErrNoNodes = errors.New("no seed is part of the graph")

// Options tune the layout computation
type Options struct {
	// MaxDistance replaces the distance between unreachable seeds
	MaxDistance float64
	Damping     float64
	Tolerance   float64
}

func DefaultOptions() Options {
	return Options{
		MaxDistance: 10.0,
		Damping:     0.85,
		Tolerance:   1e-6,
	}
}

// NodePosition places one seed in the plane
type NodePosition struct {
	ID       int64   `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	PageRank float64 `json:"pageRank"`
}

// Layout is a 2D picture of a seed set: positions follow hop distances and
// radii follow the PageRank of each seed in its ego network
type Layout struct {
	Nodes       []NodePosition `json:"nodes"`
	Spreadness  float64        `json:"spreadness"`
	Unreachable int            `json:"unreachablePairs"`
}

// Compute lays out the seeds present in the graph
func Compute(g *graph.Graph, seeds models.SeedSet, opts Options) (*Layout, error) {
	dist, members := spreadness.DistanceMatrix(g, seeds)
	if len(members) == 0 {
		return nil, ErrNoNodes
	}

	layout := &Layout{
		Nodes:      make([]NodePosition, len(members)),
		Spreadness: spreadness.Score(g, seeds),
	}
	// JSON has no infinity
	if math.IsInf(layout.Spreadness, 1) {
		layout.Spreadness = opts.MaxDistance
	}

	// unreachable pairs sit at the configured maximum distance
	n := len(members)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.IsInf(dist.At(i, j), 1) {
				dist.SetSym(i, j, opts.MaxDistance)
				layout.Unreachable++
			}
		}
	}

	coords, err := torgerson(dist)
	if err != nil {
		return nil, fmt.Errorf("MDS computation failed: %w", err)
	}

	scores, minScore, maxScore := pageRank(g, members, opts.Damping, opts.Tolerance)

	minX, maxX := columnRange(coords, 0)
	minY, maxY := columnRange(coords, 1)
	for i, id := range members {
		layout.Nodes[i] = NodePosition{
			ID:       id,
			X:        scale(coords.At(i, 0), minX, maxX),
			Y:        scale(coords.At(i, 1), minY, maxY),
			Radius:   radius(scores[id], minScore, maxScore, MinRadius, MaxRadius),
			PageRank: scores[id],
		}
	}

	return layout, nil
}

// torgerson applies classical MDS and keeps two dimensions, padding with
// zeros when fewer are available
func torgerson(dist *mat.SymDense) (*mat.Dense, error) {
	n := dist.SymmetricDim()
	coords2D := mat.NewDense(n, 2, nil)
	if n == 1 {
		return coords2D, nil
	}

	var coordinates mat.Dense
	k, _ := mds.TorgersonScaling(&coordinates, nil, dist)
	if k == 0 {
		return nil, errors.New("no positive eigenvalues found")
	}

	_, cols := coordinates.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < 2 && j < cols && j < k; j++ {
			coords2D.Set(i, j, coordinates.At(i, j))
		}
	}
	return coords2D, nil
}

func columnRange(m *mat.Dense, col int) (min, max float64) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		v := m.At(i, col)
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return min, max
}

// scale maps v from [min, max] to the layout bounds, centring flat ranges
func scale(v, min, max float64) float64 {
	if max == min {
		return (MinCoordinate + MaxCoordinate) / 2
	}
	return MinCoordinate + (v-min)/(max-min)*(MaxCoordinate-MinCoordinate)
}

package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
)

// HaterMap maps a hater node id to the probability that exposure coming
// through it is suppressed. Weights are in (0, 1].
type HaterMap map[int64]float64

// CostMap maps a candidate node id to its non-negative acquisition cost
type CostMap map[int64]float64

// Dataset bundles the three read-only inputs of the search pipeline. Any of
// the parts may be nil when its load failed.
type Dataset struct {
	Graph  *graph.Graph `json:"-"`
	Haters HaterMap     `json:"-"`
	Costs  CostMap      `json:"-"`
}

// DatasetSummary is the JSON friendly view of a dataset
type DatasetSummary struct {
	NumNodes  int  `json:"numNodes"`
	NumEdges  int  `json:"numEdges"`
	NumHaters int  `json:"numHaters"`
	NumCosts  int  `json:"numCosts"`
	Complete  bool `json:"complete"`
}

// Summary describes the dataset without exposing the data itself
func (d *Dataset) Summary() DatasetSummary {
	if d == nil {
		return DatasetSummary{}
	}
	return DatasetSummary{
		NumNodes:  d.Graph.NumNodes(),
		NumEdges:  d.Graph.NumEdges(),
		NumHaters: len(d.Haters),
		NumCosts:  len(d.Costs),
		Complete:  d.Complete(),
	}
}

// Complete reports whether every part of the dataset was loaded
func (d *Dataset) Complete() bool {
	return d != nil && d.Graph != nil && d.Haters != nil && d.Costs != nil
}

// SeedSet is a canonical (ascending, duplicate free) set of node ids
type SeedSet []int64

// NewSeedSet canonicalises ids into a SeedSet. The input is not modified.
func NewSeedSet(ids []int64) SeedSet {
	if ids == nil {
		return nil
	}
	set := make(SeedSet, len(ids))
	copy(set, ids)
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	out := set[:0]
	for i, id := range set {
		if i > 0 && id == set[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Key returns a string identity used to deduplicate sets
func (s SeedSet) Key() string {
	var sb strings.Builder
	for i, id := range s {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	return sb.String()
}

// Contains reports whether id is a member. The set must be canonical.
func (s SeedSet) Contains(id int64) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= id })
	return i < len(s) && s[i] == id
}

// TotalCost sums the cost of every member. Members without a cost add 0.
func (s SeedSet) TotalCost(costs CostMap) float64 {
	total := 0.0
	for _, id := range s {
		total += costs[id]
	}
	return total
}

// ParseIDs parses a comma separated list of node ids
func ParseIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ValidationError represents structured validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("validation error in field '%s': %s (value: %s)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors: %s (and %d more)", len(ve), ve[0].Error(), len(ve)-1)
}

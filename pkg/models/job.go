package models

import (
	"fmt"
	"strconv"
	"time"
)

// Job represents a seed selection job
type Job struct {
	ID          string        `json:"id"`
	DatasetID   string        `json:"datasetId"`
	Parameters  JobParameters `json:"parameters"`
	Status      JobStatus     `json:"status"`
	Progress    JobProgress   `json:"progress"`
	Result      *JobResult    `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// JobParameters override the search configuration for a single job.
// Unset fields keep the configured defaults.
type JobParameters struct {
	Budget          *float64 `json:"budget,omitempty"`
	PBase           *float64 `json:"pBase,omitempty"`
	Rounds          *int     `json:"rounds,omitempty"`
	TopInfluencers  *int     `json:"topInfluencers,omitempty"`
	NumSamples      *int     `json:"numSamples,omitempty"`
	TopSpreadness   *int     `json:"topSpreadness,omitempty"`
	TopSumInfluence *int     `json:"topSumInfluence,omitempty"`
	Trials          *int     `json:"trials,omitempty"`
	RandomSeed      *int64   `json:"randomSeed,omitempty"`
}

// JobLimits cap the search sizes a job may request. A zero field leaves that
// size unbounded.
type JobLimits struct {
	MaxSamples int
	MaxTrials  int
}

// Validate checks the ranges of the set parameters
func (p JobParameters) Validate(limits JobLimits) error {
	var errors ValidationErrors

	if p.Budget != nil && *p.Budget < 0 {
		errors = append(errors, ValidationError{Field: "budget", Message: "must be non-negative"})
	}
	if p.PBase != nil && (*p.PBase < 0 || *p.PBase > 1) {
		errors = append(errors, ValidationError{Field: "pBase", Message: "must be within [0, 1]"})
	}
	if p.Rounds != nil && *p.Rounds < 0 {
		errors = append(errors, ValidationError{Field: "rounds", Message: "must be non-negative"})
	}

	positive := []struct {
		field string
		value *int
	}{
		{"topInfluencers", p.TopInfluencers},
		{"numSamples", p.NumSamples},
		{"topSpreadness", p.TopSpreadness},
		{"topSumInfluence", p.TopSumInfluence},
		{"trials", p.Trials},
	}
	for _, v := range positive {
		if v.value != nil && *v.value <= 0 {
			errors = append(errors, ValidationError{Field: v.field, Message: "must be positive"})
		}
	}

	if limits.MaxSamples > 0 && p.NumSamples != nil && *p.NumSamples > limits.MaxSamples {
		errors = append(errors, ValidationError{
			Field:   "numSamples",
			Message: fmt.Sprintf("must not exceed %d", limits.MaxSamples),
			Value:   strconv.Itoa(*p.NumSamples),
		})
	}
	if limits.MaxTrials > 0 && p.Trials != nil && *p.Trials > limits.MaxTrials {
		errors = append(errors, ValidationError{
			Field:   "trials",
			Message: fmt.Sprintf("must not exceed %d", limits.MaxTrials),
			Value:   strconv.Itoa(*p.Trials),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Done reports whether the status is final
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type JobProgress struct {
	Stage      string `json:"stage,omitempty"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// JobResult summarises a finished selection
type JobResult struct {
	Selected         SeedSet `json:"selected"`
	ExpectedSpread   float64 `json:"expectedSpread"`
	TotalCost        float64 `json:"totalCost"`
	ProcessingTimeMS int64   `json:"processingTimeMs"`
}

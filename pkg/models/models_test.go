package models

import (
	"errors"
	"testing"
)

func TestNewSeedSet(t *testing.T) {
	input := []int64{5, 1, 3, 1, 5}
	set := NewSeedSet(input)

	if set.Key() != "1,3,5" {
		t.Errorf("expected canonical key 1,3,5, got %s", set.Key())
	}
	if input[0] != 5 || len(input) != 5 {
		t.Errorf("input was modified: %v", input)
	}
	if NewSeedSet(nil) != nil {
		t.Error("expected nil set for nil input")
	}

	for _, id := range []int64{1, 3, 5} {
		if !set.Contains(id) {
			t.Errorf("expected set to contain %d", id)
		}
	}
	if set.Contains(2) || set.Contains(6) {
		t.Error("set contains a non-member")
	}

	costs := CostMap{1: 10, 3: 2.5}
	if got := set.TotalCost(costs); got != 12.5 {
		t.Errorf("expected total cost 12.5, got %v", got)
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{"empty", "  ", nil, false},
		{"single", "7", []int64{7}, false},
		{"spaces", " 1, 2 ,3", []int64{1, 2, 3}, false},
		{"negative", "-4", []int64{-4}, false},
		{"garbage", "1,x", nil, true},
		{"trailing comma", "1,", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDs(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestDatasetSummary(t *testing.T) {
	var missing *Dataset
	if missing.Complete() {
		t.Error("nil dataset reported complete")
	}
	if missing.Summary() != (DatasetSummary{}) {
		t.Error("expected zero summary for nil dataset")
	}

	partial := &Dataset{Haters: HaterMap{1: 0.5}}
	if partial.Complete() {
		t.Error("dataset without graph reported complete")
	}
	if s := partial.Summary(); s.NumHaters != 1 || s.NumNodes != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestJobParametersValidate(t *testing.T) {
	neg := -1.0
	half := 0.5
	tooLarge := 1.5
	zero := 0
	ten := 10

	if err := (JobParameters{}).Validate(JobLimits{}); err != nil {
		t.Errorf("empty parameters should be valid, got %v", err)
	}
	if err := (JobParameters{PBase: &half, Trials: &ten}).Validate(JobLimits{MaxTrials: 10}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := JobParameters{Budget: &neg, PBase: &tooLarge, Trials: &zero}.Validate(JobLimits{})
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(ve) != 3 {
		t.Errorf("expected 3 validation errors, got %d: %v", len(ve), ve)
	}

	huge := 1 << 62
	limits := JobLimits{MaxSamples: 1000, MaxTrials: 1000}
	err = JobParameters{NumSamples: &huge, Trials: &huge}.Validate(limits)
	if !errors.As(err, &ve) || len(ve) != 2 {
		t.Fatalf("expected both oversized sizes rejected, got %v", err)
	}
	if ve[0].Field != "numSamples" || ve[1].Field != "trials" {
		t.Errorf("unexpected fields %v", ve)
	}
	if err := (JobParameters{NumSamples: &huge}).Validate(JobLimits{}); err != nil {
		t.Errorf("zero limits must not bound sizes, got %v", err)
	}
}

func TestJobStatusDone(t *testing.T) {
	done := map[JobStatus]bool{
		JobStatusQueued:    false,
		JobStatusRunning:   false,
		JobStatusCompleted: true,
		JobStatusFailed:    true,
		JobStatusCancelled: true,
	}
	for status, want := range done {
		if status.Done() != want {
			t.Errorf("%s: expected Done() = %v", status, want)
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/influence-spread-service/pkg/metrics"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/pipeline"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrResultNotReady = errors.New("job result not available")
)

// JobOptions tune the job service
type JobOptions struct {
	MaxWorkers      int
	JobTimeout      time.Duration
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

func DefaultJobOptions() JobOptions {
	return JobOptions{
		MaxWorkers:      2,
		JobTimeout:      30 * time.Minute,
		ResultTTL:       time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// jobEntry is the internal record of a job
type jobEntry struct {
	job     *models.Job
	dataset *models.Dataset
	result  *pipeline.Result
	cancel  context.CancelFunc
	done    chan struct{}
}

// JobService runs seed selection jobs in the background
type JobService struct {
	jobs           map[string]*jobEntry
	workers        chan struct{}
	datasetService *DatasetService
	config         *pipeline.Config
	metrics        *metrics.Metrics
	options        JobOptions
	mutex          sync.RWMutex
	ctx            context.Context
	stop           context.CancelFunc
	wg             sync.WaitGroup
}

// NewJobService creates a job service. config holds the search defaults
// that job parameters override.
func NewJobService(datasetService *DatasetService, config *pipeline.Config, m *metrics.Metrics, opts JobOptions) *JobService {
	if config == nil {
		config = pipeline.NewConfig()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}

	ctx, stop := context.WithCancel(context.Background())
	service := &JobService{
		jobs:           make(map[string]*jobEntry),
		workers:        make(chan struct{}, opts.MaxWorkers),
		datasetService: datasetService,
		config:         config,
		metrics:        m,
		options:        opts,
		ctx:            ctx,
		stop:           stop,
	}

	if opts.CleanupInterval > 0 {
		service.wg.Add(1)
		go service.cleanupLoop()
	}

	return service
}

// Submit creates and queues a new selection job against the current dataset
func (s *JobService) Submit(params models.JobParameters) (*models.Job, error) {
	limits := models.JobLimits{
		MaxSamples: s.config.MaxSamples(),
		MaxTrials:  s.config.MaxTrials(),
	}
	if err := params.Validate(limits); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	dataset, datasetID, err := s.datasetService.Get()
	if err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	now := time.Now()
	job := &models.Job{
		ID:         jobID,
		DatasetID:  datasetID,
		Parameters: params,
		Status:     models.JobStatusQueued,
		Progress: models.JobProgress{
			Percentage: 0,
			Message:    "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	timeout := s.options.JobTimeout
	if timeout <= 0 {
		timeout = DefaultJobOptions().JobTimeout
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)

	entry := &jobEntry{
		job:     job,
		dataset: dataset,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	s.mutex.Lock()
	s.jobs[jobID] = entry
	snapshot := *job
	s.mutex.Unlock()

	log.Info().
		Str("job_id", jobID).
		Str("dataset_id", datasetID).
		Msg("Job submitted")

	s.wg.Add(1)
	go s.processJob(ctx, entry)

	return &snapshot, nil
}

// Get returns a snapshot of a job
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	job := *entry.job
	return &job, nil
}

// GetResult returns the full pipeline result of a completed job and the
// dataset it ran against
func (s *JobService) GetResult(jobID string) (*pipeline.Result, *models.Dataset, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if entry.result == nil {
		return nil, nil, fmt.Errorf("%w: job %s is %s", ErrResultNotReady, jobID, entry.job.Status)
	}
	return entry.result, entry.dataset, nil
}

// List returns snapshots of all jobs, newest first
func (s *JobService) List() []*models.Job {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, entry := range s.jobs {
		job := *entry.job
		jobs = append(jobs, &job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

// Cancel stops a queued or running job. Finished jobs are left untouched.
func (s *JobService) Cancel(jobID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if !entry.job.Status.Done() {
		entry.cancel()
		s.finish(entry, models.JobStatusCancelled, "Cancelled")

		log.Info().
			Str("job_id", jobID).
			Msg("Job cancelled")
	}

	return nil
}

// Wait blocks until the job finishes or ctx is done
func (s *JobService) Wait(ctx context.Context, jobID string) (*models.Job, error) {
	s.mutex.RLock()
	entry, exists := s.jobs[jobID]
	s.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	select {
	case <-entry.done:
		return s.Get(jobID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close cancels every unfinished job and stops the cleanup loop
func (s *JobService) Close() {
	s.stop()
	s.wg.Wait()
}

// processJob runs one job in the background
func (s *JobService) processJob(ctx context.Context, entry *jobEntry) {
	defer s.wg.Done()
	defer entry.cancel()

	jobID := entry.job.ID

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("job_id", jobID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Job panicked")

			s.mutex.Lock()
			entry.job.Error = fmt.Sprintf("internal error: %v", r)
			s.finish(entry, models.JobStatusFailed, "Failed")
			s.mutex.Unlock()
		}
	}()

	// Acquire worker slot
	select {
	case s.workers <- struct{}{}:
		defer func() { <-s.workers }()
	case <-ctx.Done():
		s.mutex.Lock()
		s.finish(entry, models.JobStatusCancelled, "Cancelled before start")
		s.mutex.Unlock()
		return
	}

	startTime := time.Now()
	s.mutex.Lock()
	if entry.job.Status.Done() {
		s.mutex.Unlock()
		return
	}
	entry.job.Status = models.JobStatusRunning
	entry.job.StartedAt = &startTime
	entry.job.UpdatedAt = startTime
	entry.job.Progress = models.JobProgress{Message: "Starting..."}
	params := entry.job.Parameters
	s.mutex.Unlock()

	s.metrics.JobStarted()
	defer s.metrics.JobFinished()

	log.Info().
		Str("job_id", jobID).
		Str("dataset_id", entry.job.DatasetID).
		Msg("Job processing started")

	p := pipeline.New(s.configForJob(params),
		pipeline.WithLogger(log.Logger.With().Str("job_id", jobID).Logger()),
		pipeline.WithMetrics(s.metrics),
		pipeline.WithProgress(func(stage string, percent int, message string) {
			s.updateProgress(entry, stage, percent, message)
		}),
	)

	result, err := p.Run(ctx, entry.dataset)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch {
	case err == nil:
		entry.result = result
		entry.job.Result = &models.JobResult{
			Selected:         result.Selected,
			ExpectedSpread:   result.ExpectedSpread,
			TotalCost:        result.Selected.TotalCost(entry.dataset.Costs),
			ProcessingTimeMS: result.RuntimeMS,
		}
		s.finish(entry, models.JobStatusCompleted, "Complete")
		entry.job.Progress.Percentage = 100

		log.Info().
			Str("job_id", jobID).
			Int("selected", len(result.Selected)).
			Float64("expected_spread", result.ExpectedSpread).
			Int64("processing_time_ms", result.RuntimeMS).
			Msg("Job completed successfully")

	case errors.Is(err, context.Canceled):
		s.finish(entry, models.JobStatusCancelled, "Cancelled")

	default:
		entry.job.Error = err.Error()
		s.finish(entry, models.JobStatusFailed, "Failed")

		log.Error().
			Str("job_id", jobID).
			Err(err).
			Msg("Job failed")
	}
}

// finish moves a job into a final status once. Callers hold the lock.
func (s *JobService) finish(entry *jobEntry, status models.JobStatus, message string) {
	if entry.job.Status.Done() {
		return
	}
	now := time.Now()
	entry.job.Status = status
	entry.job.Progress.Message = message
	entry.job.CompletedAt = &now
	entry.job.UpdatedAt = now
	close(entry.done)
}

// updateProgress records pipeline progress
func (s *JobService) updateProgress(entry *jobEntry, stage string, percent int, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entry.job.Status != models.JobStatusRunning {
		return
	}
	entry.job.Progress = models.JobProgress{
		Stage:      stage,
		Percentage: percent,
		Message:    message,
	}
	entry.job.UpdatedAt = time.Now()

	log.Debug().
		Str("job_id", entry.job.ID).
		Str("stage", stage).
		Int("percentage", percent).
		Str("message", message).
		Msg("Job progress updated")
}

// configForJob applies job parameters on top of the service defaults
func (s *JobService) configForJob(params models.JobParameters) *pipeline.Config {
	c := s.config.Clone()
	if params.Budget != nil {
		c.Set("budget", *params.Budget)
	}
	if params.PBase != nil {
		c.Set("cascade.p_base", *params.PBase)
	}
	if params.Rounds != nil {
		c.Set("cascade.rounds", *params.Rounds)
	}
	if params.TopInfluencers != nil {
		c.Set("search.top_influencers", *params.TopInfluencers)
	}
	if params.NumSamples != nil {
		c.Set("search.num_samples", *params.NumSamples)
	}
	if params.TopSpreadness != nil {
		c.Set("search.top_spreadness", *params.TopSpreadness)
	}
	if params.TopSumInfluence != nil {
		c.Set("search.top_sum_influence", *params.TopSumInfluence)
	}
	if params.Trials != nil {
		c.Set("search.trials", *params.Trials)
	}
	if params.RandomSeed != nil {
		c.Set("algorithm.random_seed", *params.RandomSeed)
	}
	return c
}

// cleanupLoop periodically removes expired jobs
func (s *JobService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.options.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.ctx.Done():
			return
		}
	}
}

// cleanup removes finished jobs not updated within the result TTL
func (s *JobService) cleanup() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-s.options.ResultTTL)
	cleaned := 0

	for jobID, entry := range s.jobs {
		if entry.job.Status.Done() && entry.job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
}

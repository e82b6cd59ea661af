package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "influence"

// Metrics holds the collectors of the search service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Simulations     prometheus.Counter
	PipelineRuns    *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	StageCandidates *prometheus.GaugeVec
	JobsInFlight    prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Simulations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Counts cascade simulations run by Monte-Carlo estimates",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Counts seed selection runs by outcome",
		}, []string{"status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each seed selection stage",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		StageCandidates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_candidates",
			Help:      "Number of candidates left after the last run of each stage",
		}, []string{"stage"}),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_in_flight",
			Help:      "Number of selection jobs currently running",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Simulations, m.PipelineRuns, m.StageDuration, m.StageCandidates, m.JobsInFlight,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveSimulations adds n finished simulations
func (m *Metrics) ObserveSimulations(n int) {
	if m == nil {
		return
	}
	m.Simulations.Add(float64(n))
}

// ObserveStage records the duration and output size of a stage
func (m *Metrics) ObserveStage(stage string, d time.Duration, candidates int) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.StageCandidates.WithLabelValues(stage).Set(float64(candidates))
}

// ObserveRun counts a finished pipeline run with the given status
func (m *Metrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsInFlight.Inc()
}

func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.JobsInFlight.Dec()
}

package devindex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus instruments the pipeline records into. A nil
// *Metrics disables instrumentation.
type Metrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	eventsRelayed *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devindex_pipeline_runs_total",
			Help: "Pipeline runs by terminal state.",
		}, []string{"pipeline", "state"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devindex_stage_duration_seconds",
			Help:    "Wall-clock duration of each stage execution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline", "stage"}),
		eventsRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devindex_events_relayed_total",
			Help: "Events relayed from stages to the sink.",
		}, []string{"pipeline", "stage"}),
	}

	if reg != nil {
		reg.MustRegister(m.runs, m.stageDuration, m.eventsRelayed)
	}

	return m
}

func (m *Metrics) observeRun(pipeline string, state State) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(pipeline, string(state)).Inc()
}

func (m *Metrics) observeStage(pipeline, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

func (m *Metrics) observeEvents(pipeline, stage string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.eventsRelayed.WithLabelValues(pipeline, stage).Add(float64(n))
}

// Package metrics records run outcomes as Prometheus metrics and writes
// them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "okd4prov"

// Recorder implements ports.RunRecorder on a private registry.
type Recorder struct {
	registry     *prometheus.Registry
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runSuccess   prometheus.Gauge
	runDuration  prometheus.Gauge
	lastRun      prometheus.Gauge
	now          func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Steps run, by stage and outcome.",
		}, []string{"stage", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent checking and applying a step.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}, []string{"stage"}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run converged the host, 0 if it failed.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		now: time.Now,
	}
	r.registry.MustRegister(r.steps, r.stepDuration, r.runSuccess, r.runDuration, r.lastRun)
	return r
}

// ObserveStep records one step outcome.
func (r *Recorder) ObserveStep(stage, status string, d time.Duration) {
	r.steps.WithLabelValues(stage, status).Inc()
	r.stepDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records the outcome of the run.
func (r *Recorder) ObserveRun(success bool, d time.Duration) {
	if success {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
	r.runDuration.Set(d.Seconds())
	r.lastRun.Set(float64(r.now().Unix()))
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes the metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

var _ ports.RunRecorder = (*Recorder)(nil)

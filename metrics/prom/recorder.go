package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pwnedgod/seglock/metrics"
)

type Recorder struct {
	acquire *prometheus.CounterVec
	release *prometheus.CounterVec
	extend  *prometheus.CounterVec
	held    prometheus.Histogram
}

var _ metrics.Recorder = (*Recorder)(nil)

// NewRecorder creates the lock collectors under namespace and registers them on reg.
func NewRecorder(reg prometheus.Registerer, namespace string) (*Recorder, error) {
	r := &Recorder{
		acquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_acquire_total",
			Help:      "Lock acquisition attempts by result.",
		}, []string{"result"}),
		release: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_release_total",
			Help:      "Lock releases by result.",
		}, []string{"result"}),
		extend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_extend_total",
			Help:      "Lease extensions by result.",
		}, []string{"result"}),
		held: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_held_seconds",
			Help:      "Time a lease was held before release or loss.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{r.acquire, r.release, r.extend, r.held} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Recorder) Acquire(result string) {
	r.acquire.WithLabelValues(result).Inc()
}

func (r *Recorder) Release(result string) {
	r.release.WithLabelValues(result).Inc()
}

func (r *Recorder) Extend(result string) {
	r.extend.WithLabelValues(result).Inc()
}

func (r *Recorder) Held(d time.Duration) {
	r.held.Observe(d.Seconds())
}

package metrics

import (
	"errors"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/backend"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vigil"

// Recorder exports poller telemetry. It satisfies livestatus.Recorder.
type Recorder struct {
	fetches   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	skipped   prometheus.Counter
	replaced  prometheus.Counter
	size      prometheus.Gauge
	discarded *prometheus.CounterVec
}

// NewRecorder registers the poller metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_skipped_total",
			Help:      "Poll ticks skipped because a fetch was still in flight.",
		}),
		replaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_replacements_total",
			Help:      "Times the camera snapshot was replaced with different content.",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_cameras",
			Help:      "Cameras in the last accepted snapshot.",
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_discarded_total",
			Help:      "Backend results dropped because polling stopped while they were in flight.",
		}, []string{"endpoint"}),
	}
	reg.MustRegister(r.fetches, r.latency, r.skipped, r.replaced, r.size, r.discarded)
	return r
}

func (r *Recorder) FetchCompleted(endpoint string, took time.Duration, err error) {
	r.fetches.WithLabelValues(endpoint, outcome(err)).Inc()
	r.latency.WithLabelValues(endpoint).Observe(took.Seconds())
}

func (r *Recorder) TickSkipped() { r.skipped.Inc() }

func (r *Recorder) SnapshotReplaced(size int) {
	r.replaced.Inc()
	r.size.Set(float64(size))
}

func (r *Recorder) ResultDiscarded(endpoint string) { r.discarded.WithLabelValues(endpoint).Inc() }

// outcome buckets an error into a low-cardinality label.
func outcome(err error) string {
	var se *backend.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "http_error"
	case errors.Is(err, backend.ErrMalformedResponse):
		return "malformed"
	default:
		return "network"
	}
}

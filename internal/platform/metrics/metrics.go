package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds all Prometheus metrics for the registrar.
type Metrics struct {
	VotersCreated     prometheus.Counter
	VotersUpdated     prometheus.Counter
	VotersDeleted     prometheus.Counter
	OperationDuration *prometheus.HistogramVec
	RequestDuration   *prometheus.HistogramVec
}

// New creates the registrar metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VotersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_voters_created_total",
			Help: "Total number of voters registered",
		}),
		VotersUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_voters_updated_total",
			Help: "Total number of voter updates",
		}),
		VotersDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_voters_deleted_total",
			Help: "Total number of voters deleted",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_voter_operation_duration_seconds",
			Help:    "Duration of voter workflow operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: durationBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementVotersCreated() {
	m.VotersCreated.Inc()
}

func (m *Metrics) IncrementVotersUpdated() {
	m.VotersUpdated.Inc()
}

func (m *Metrics) IncrementVotersDeleted() {
	m.VotersDeleted.Inc()
}

// ObserveOperation records the duration of a workflow operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveRequest records the duration of an HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobscheduling"

// Calendar sync outcomes
const (
	SyncOK      = "ok"
	SyncSkipped = "skipped"
	SyncFailed  = "failed"
	SyncPanic   = "panic"
	SyncQueued  = "queued"
)

// Worker delivery outcomes
const (
	DeliveryAck     = "ack"
	DeliveryRequeue = "requeue"
	DeliveryDrop    = "drop"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	jobsCreated      prometheus.Counter
	jobTransitions   *prometheus.CounterVec
	calendarSyncs    *prometheus.CounterVec
	workerDeliveries *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Jobs created.",
		}),
		jobTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_transitions_total",
			Help:      "Job status transition attempts by from, to and result.",
		}, []string{"from", "to", "result"}),
		calendarSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_syncs_total",
			Help:      "Calendar sync attempts by result.",
		}, []string{"result"}),
		workerDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_deliveries_total",
			Help:      "Calendar sync messages handled by the worker, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.jobsCreated,
		m.jobTransitions,
		m.calendarSyncs,
		m.workerDeliveries,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) JobCreated() {
	if m == nil {
		return
	}
	m.jobsCreated.Inc()
}

// Transition records a status change attempt; result is "ok" or the error kind
func (m *Metrics) Transition(from, to, result string) {
	if m == nil {
		return
	}
	m.jobTransitions.WithLabelValues(from, to, result).Inc()
}

func (m *Metrics) CalendarSync(result string) {
	if m == nil {
		return
	}
	m.calendarSyncs.WithLabelValues(result).Inc()
}

// Delivery records what the worker did with one message: ack, requeue or drop
func (m *Metrics) Delivery(outcome string) {
	if m == nil {
		return
	}
	m.workerDeliveries.WithLabelValues(outcome).Inc()
}

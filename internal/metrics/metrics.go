package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for RecordBid.
const (
	OutcomeAccepted       = "accepted"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeItemNotFound   = "item_not_found"
	OutcomeBidTooLow      = "bid_too_low"
	OutcomeAuctionClosed  = "auction_closed"
)

const (
	outcomeLabel = "outcome"
	eventLabel   = "event"
)

// Recorder is the metrics surface used by the admission controller, the
// gateway and the feed. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordBid(outcome string)
	RecordAdmissionWait(wait time.Duration)
	RecordSubscribers(count int)
	RecordEventSent(event string)
	RecordSubscriberEvicted()
	RecordFeedError()
}

// Metrics is the Prometheus-backed Recorder.
type Metrics struct {
	Registry *prometheus.Registry

	bids               *prometheus.CounterVec
	admissionWait      prometheus.Histogram
	subscribers        prometheus.Gauge
	eventsSent         *prometheus.CounterVec
	subscribersEvicted prometheus.Counter
	feedErrors         prometheus.Counter
}

// NewMetrics registers all auction metrics on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	waitBuckets := []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}

	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.bids = newCounter(m.Registry, namespace,
		"bids_total",
		"Count of bid attempts labeled by admission outcome.",
		[]string{outcomeLabel})

	m.admissionWait = newHistogram(m.Registry, namespace,
		"admission_wait_seconds",
		"Time a bid waited to enter its item's critical section.",
		waitBuckets)

	m.subscribers = newGauge(m.Registry, namespace,
		"subscribers",
		"Number of connected broadcast subscribers.")

	m.eventsSent = newCounter(m.Registry, namespace,
		"events_sent_total",
		"Count of events queued to subscribers labeled by event name.",
		[]string{eventLabel})

	m.subscribersEvicted = newCounterWithoutLabels(m.Registry, namespace,
		"subscribers_evicted_total",
		"Count of subscribers dropped because their outbound queue was full.")

	m.feedErrors = newCounterWithoutLabels(m.Registry, namespace,
		"feed_errors_total",
		"Count of bid feed publish failures.")

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func newCounter(registry *prometheus.Registry, namespace, name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(counter)
	return counter
}

func newCounterWithoutLabels(registry *prometheus.Registry, namespace, name, help string) prometheus.Counter {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(counter)
	return counter
}

func newGauge(registry *prometheus.Registry, namespace, name, help string) prometheus.Gauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(gauge)
	return gauge
}

func newHistogram(registry *prometheus.Registry, namespace, name, help string, buckets []float64) prometheus.Histogram {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	registry.MustRegister(histogram)
	return histogram
}

func (m *Metrics) RecordBid(outcome string) {
	m.bids.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func (m *Metrics) RecordAdmissionWait(wait time.Duration) {
	m.admissionWait.Observe(wait.Seconds())
}

func (m *Metrics) RecordSubscribers(count int) {
	m.subscribers.Set(float64(count))
}

func (m *Metrics) RecordEventSent(event string) {
	m.eventsSent.With(prometheus.Labels{eventLabel: event}).Inc()
}

func (m *Metrics) RecordSubscriberEvicted() {
	m.subscribersEvicted.Inc()
}

func (m *Metrics) RecordFeedError() {
	m.feedErrors.Inc()
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) RecordBid(string)                  {}
func (NoopRecorder) RecordAdmissionWait(time.Duration) {}
func (NoopRecorder) RecordSubscribers(int)             {}
func (NoopRecorder) RecordEventSent(string)            {}
func (NoopRecorder) RecordSubscriberEvicted()          {}
func (NoopRecorder) RecordFeedError()                  {}

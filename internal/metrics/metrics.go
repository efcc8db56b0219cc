// Package metrics holds the Prometheus collectors for the discovery and
// engagement pipeline. All methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nearby"

// Metrics groups the service's collectors.
type Metrics struct {
	feedRequests     *prometheus.CounterVec
	feedPosts        prometheus.Histogram
	reactionChanges  *prometheus.CounterVec
	reactionRetries  prometheus.Counter
	geocoderLookups  *prometheus.CounterVec
	locationWrites   *prometheus.CounterVec
	reindexQueued    prometheus.Gauge
	reindexProcessed *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Nearby feed requests by outcome.",
		}, []string{"outcome"}),
		feedPosts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_posts",
			Help:      "Number of posts returned per feed request.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		reactionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaction_transitions_total",
			Help:      "Reaction state transitions by from and to state.",
		}, []string{"from", "to"}),
		reactionRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaction_transition_retries_total",
			Help:      "Reaction transitions retried after a concurrent write.",
		}),
		geocoderLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocoder_lookups_total",
			Help:      "Reverse geocoder lookups by outcome.",
		}, []string{"outcome"}),
		locationWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_updates_total",
			Help:      "Location update gate decisions.",
		}, []string{"decision"}),
		reindexQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reindex_queue_depth",
			Help:      "Posts waiting to be written to the geo index.",
		}),
		reindexProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_processed_total",
			Help:      "Deferred geo index writes by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.feedRequests,
			m.feedPosts,
			m.reactionChanges,
			m.reactionRetries,
			m.geocoderLookups,
			m.locationWrites,
			m.reindexQueued,
			m.reindexProcessed,
		)
	}
	return m
}

func (m *Metrics) FeedServed(outcome string, posts int) {
	if m == nil {
		return
	}
	m.feedRequests.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.feedPosts.Observe(float64(posts))
	}
}

func (m *Metrics) ReactionTransition(from, to string) {
	if m == nil {
		return
	}
	m.reactionChanges.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ReactionRetry() {
	if m == nil {
		return
	}
	m.reactionRetries.Inc()
}

func (m *Metrics) GeocoderLookup(outcome string) {
	if m == nil {
		return
	}
	m.geocoderLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LocationDecision(decision string) {
	if m == nil {
		return
	}
	m.locationWrites.WithLabelValues(decision).Inc()
}

func (m *Metrics) ReindexDepth(n int) {
	if m == nil {
		return
	}
	m.reindexQueued.Set(float64(n))
}

func (m *Metrics) Reindexed(outcome string) {
	if m == nil {
		return
	}
	m.reindexProcessed.WithLabelValues(outcome).Inc()
}

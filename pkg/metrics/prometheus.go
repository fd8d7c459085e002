package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FareSearches     *prometheus.CounterVec
	CacheHits        prometheus.Counter
	DealsEmitted     prometheus.Counter
	DealsSuppressed  prometheus.Counter
	BurstActivations prometheus.Counter
	MessagesSent     prometheus.Counter
	MessagesDropped  *prometheus.CounterVec
	TickDuration     prometheus.Histogram
	RoutesWatched    prometheus.Gauge
	StateDegraded    prometheus.Gauge
	ErrorsCount      *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg.
// A nil reg registers on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FareSearches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fare_searches_total",
			Help:      "The total number of outbound fare-search calls",
		}, []string{"provider", "outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_hits_total",
			Help:      "The total number of fare searches skipped by the price cache",
		}),
		DealsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deals_emitted_total",
			Help:      "The total number of deal alerts emitted",
		}),
		DealsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deals_suppressed_total",
			Help:      "The total number of eligible offers suppressed as already seen",
		}),
		BurstActivations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "burst_activations_total",
			Help:      "The total number of routes promoted to burst polling",
		}),
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "The total number of chat messages delivered",
		}),
		MessagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "The total number of chat messages dropped",
		}, []string{"reason"}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Time taken by one scheduler tick",
			Buckets:   prometheus.DefBuckets,
		}),
		RoutesWatched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes_watched",
			Help:      "The number of routes in the registry",
		}),
		StateDegraded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_degraded",
			Help:      "1 when a persistence write failed and in-memory state is ahead of the store",
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}

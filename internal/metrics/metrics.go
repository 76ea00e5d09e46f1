package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CollectionLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_loads_total",
			Help: "Collection loads by provider and result",
		},
		[]string{"provider", "result"},
	)

	CollectionLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collection_load_duration_seconds",
			Help:    "Backing store query duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CollectionStaleDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_stale_results_discarded_total",
			Help: "Load results dropped because a later load was issued",
		},
		[]string{"provider"},
	)

	ChangeObservers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "collection_change_observers",
			Help: "Registered change observers",
		},
		[]string{"provider"},
	)

	ActiveViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detail_viewers_active",
			Help: "Open detail pager sessions",
		},
	)
)

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MongoQueryLatency records Mongo query latency by operation and collection.
	MongoQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wanderlust_mongo_query_latency_seconds",
		Help:    "Mongo query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// GeocodeLookups counts geocoding lookups by outcome (ok, empty, error).
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_geocode_lookups_total",
		Help: "Total number of geocoding lookups by outcome",
	}, []string{"outcome"})

	// ImageUploads counts image host operations by operation and outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_image_host_requests_total",
		Help: "Total number of image host requests by operation and outcome",
	}, []string{"operation", "outcome"})

	// LoginFailures counts rejected credential checks.
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wanderlust_login_failures_total",
		Help: "Total number of failed login attempts",
	})

	// CascadeDeletes counts campground cascade deletions by outcome.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_campground_cascade_deletes_total",
		Help: "Total number of campground cascade deletions by outcome",
	}, []string{"outcome"})
)

// QueryMetrics records query latency for repository operations.
type QueryMetrics struct{}

// NewQueryMetrics returns a new QueryMetrics instance.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{}
}

// ObserveQuery records the latency of a repository query.
func (m *QueryMetrics) ObserveQuery(operation, collection string, start time.Time) {
	latency := time.Since(start).Seconds()
	MongoQueryLatency.WithLabelValues(operation, collection).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *QueryMetrics) TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, collection, start)
	}
}

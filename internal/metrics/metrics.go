package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artwork_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artwork_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Engagement metrics
	LikeTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artwork_like_transitions_total",
			Help: "Total number of like and unlike requests by outcome",
		},
		[]string{"action", "changed"},
	)

	FavoriteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artwork_favorite_operations_total",
			Help: "Total number of favorite operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Cache metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artwork_cache_lookups_total",
			Help: "Total number of stats cache lookups",
		},
		[]string{"key", "result"},
	)

	// Event publishing errors
	EventPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artwork_event_publish_errors_total",
			Help: "Total number of artwork events that could not be published",
		},
		[]string{"event_type"},
	)

	StoreReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artwork_store_ready",
			Help: "1 once the document store answered and indexes exist",
		},
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordLike records a like toggle
func RecordLike(action string, changed bool) {
	LikeTransitionsTotal.WithLabelValues(action, boolLabel(changed)).Inc()
}

// RecordFavorite records a favorite operation
func RecordFavorite(operation, outcome string) {
	FavoriteOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(key, result).Inc()
}

func RecordEventPublishError(eventType string) {
	EventPublishErrorsTotal.WithLabelValues(eventType).Inc()
}

func SetStoreReady(ready bool) {
	if ready {
		StoreReady.Set(1)
		return
	}
	StoreReady.Set(0)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

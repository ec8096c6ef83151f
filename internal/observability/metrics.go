// Package observability holds the process-wide Prometheus collectors and tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_redis_errors_total",
		Help: "Total number of Redis command errors by command",
	}, []string{"command"})

	// MediaUploads counts upload lifecycle transitions by scope and stage
	// (begun, confirmed, not_uploaded).
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_media_uploads_total",
		Help: "Media upload lifecycle events by scope and stage",
	}, []string{"scope", "stage"})

	// ObjectStoreLatency records object store call latency by operation.
	ObjectStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "encore_object_store_latency_seconds",
		Help:    "Object store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	// MessagesPosted counts direct messages appended.
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "encore_messages_posted_total",
		Help: "Total number of direct messages posted",
	})

	// PageItems observes how many items each listing page returned.
	PageItems = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "encore_page_items",
		Help:    "Items returned per listing page",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	}, []string{"listing"})

	// EventsPublished counts domain events handed to the bus by subject and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_events_published_total",
		Help: "Domain events published by subject and outcome",
	}, []string{"subject", "outcome"})
)

// ObserveStoreCall returns a func that records the latency of an object store call.
func ObserveStoreCall(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		ObjectStoreLatency.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
	}
}

// Package metrics exposes Prometheus instrumentation for the background service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdsBlocked counts network requests matched by the block rules.
	// Labels:
	//   - resource_type: "image", "sub_frame", "script"
	AdsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemate_ads_blocked_total",
			Help: "Total number of blocked ad requests",
		},
		[]string{"resource_type"},
	)

	// AdsReplaced counts ad elements swapped for a recommendation widget.
	AdsReplaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviemate_ads_replaced_total",
			Help: "Total number of ad elements replaced with a recommendation",
		},
	)

	// RecommendationFetches counts movie API fetches by genre and outcome.
	// Labels:
	//   - outcome: "success", "empty", "error"
	RecommendationFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemate_recommendation_fetches_total",
			Help: "Total number of recommendation fetches from the movie API",
		},
		[]string{"genre", "outcome"},
	)

	// RecommendationFetchDuration measures movie API fetch latency.
	RecommendationFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviemate_recommendation_fetch_duration_seconds",
			Help:    "Duration of recommendation fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"genre"},
	)

	// MessagesHandled counts router requests by type and outcome.
	// Labels:
	//   - outcome: "sync", "async", "error"
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemate_messages_total",
			Help: "Total number of messaging requests handled",
		},
		[]string{"type", "outcome"},
	)

	// PushSubscribers tracks connected push subscribers.
	PushSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviemate_push_subscribers",
			Help: "Number of connected push event subscribers",
		},
	)
)

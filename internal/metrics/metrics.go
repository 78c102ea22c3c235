// Package metrics holds the Prometheus collectors for batch jobs, search,
// tagging, and notification delivery. Collectors register on the default
// registry and are served by promhttp at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch jobs
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courselens_job_runs_total",
			Help: "Batch job runs by outcome (success, error, skipped)",
		},
		[]string{"job", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courselens_job_duration_seconds",
			Help:    "Duration of batch job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"job"},
	)

	JobLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courselens_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run of each job",
		},
		[]string{"job"},
	)

	// Enrichment
	ReviewsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courselens_reviews_scored_total",
			Help: "Reviews assigned a sentiment score",
		},
	)

	CoursesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courselens_course_metrics_updated_total",
			Help: "Course metric rows changed by aggregation",
		},
	)

	GlobalMeanSentiment = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courselens_global_mean_sentiment",
			Help: "Corpus-wide mean review sentiment from the last aggregation",
		},
	)

	// Search
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courselens_searches_total",
			Help: "Searches by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courselens_search_duration_seconds",
			Help:    "Search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Tagging
	CategoriesTagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courselens_categories_tagged_total",
			Help: "Category tagging passes by outcome (tagged, cleared, skipped, failed)",
		},
		[]string{"outcome"},
	)

	// Demand and delivery
	DemandRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courselens_demand_recorded_total",
			Help: "Zero-result searches recorded as demand",
		},
	)

	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courselens_notifications_created_total",
			Help: "Notifications created for satisfied demand",
		},
	)

	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courselens_deliveries_total",
			Help: "Notification delivery attempts by outcome (sent, failed)",
		},
		[]string{"outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courselens_delivery_breaker_state",
			Help: "Delivery circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordJobRun records one batch job run.
func RecordJobRun(job string, duration time.Duration, err error) {
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		JobRuns.WithLabelValues(job, "error").Inc()
		return
	}
	JobRuns.WithLabelValues(job, "success").Inc()
	JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// RecordJobSkipped records a run that did not start because another
// instance held the job.
func RecordJobSkipped(job string) {
	JobRuns.WithLabelValues(job, "skipped").Inc()
}

// RecordSearch records a search and its latency.
func RecordSearch(hits int, duration time.Duration, err error) {
	SearchDuration.Observe(duration.Seconds())
	switch {
	case err != nil:
		Searches.WithLabelValues("error").Inc()
	case hits == 0:
		Searches.WithLabelValues("miss").Inc()
	default:
		Searches.WithLabelValues("hit").Inc()
	}
}

// RecordTagging records the outcome of tagging one category.
func RecordTagging(outcome string) {
	CategoriesTagged.WithLabelValues(outcome).Inc()
}

// RecordDelivery records one notification delivery attempt.
func RecordDelivery(err error) {
	if err != nil {
		Deliveries.WithLabelValues("failed").Inc()
		return
	}
	Deliveries.WithLabelValues("sent").Inc()
}

// Package metrics provides Prometheus metrics for the comparison service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pricelens/backend/internal/domain"
)

var (
	// GroupsTotal tracks emitted match groups by tier and basis
	GroupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricelens",
			Subsystem: "engine",
			Name:      "groups_total",
			Help:      "Total number of match groups emitted by tier and basis",
		},
		[]string{"tier", "basis"},
	)

	// CategoryDuration tracks how long one category comparison takes
	CategoryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pricelens",
			Subsystem: "engine",
			Name:      "category_duration_seconds",
			Help:      "Duration of a single category comparison in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	// CategoriesSkippedTotal tracks categories that never reached matching
	CategoriesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pricelens",
			Subsystem: "engine",
			Name:      "categories_skipped_total",
			Help:      "Total number of categories skipped for lack of retailer coverage",
		},
	)

	// SourcesRejectedTotal tracks rejected retailer tables
	SourcesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricelens",
			Subsystem: "engine",
			Name:      "sources_rejected_total",
			Help:      "Total number of retailer tables rejected by retailer",
		},
		[]string{"retailer"},
	)

	// HTTPRequestsTotal tracks inbound API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricelens",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricelens",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// Recorder feeds engine statistics into the package metrics
type Recorder struct{}

// NewRecorder creates a metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveCategory records the groups and duration of one category
func (Recorder) ObserveCategory(result *domain.CategoryResult, elapsed time.Duration) {
	CategoryDuration.Observe(elapsed.Seconds())
	for _, tier := range domain.Tiers {
		for _, g := range result.Groups(tier) {
			GroupsTotal.WithLabelValues(string(tier), string(g.Basis)).Inc()
		}
	}
}

// CategorySkipped records a skipped category
func (Recorder) CategorySkipped(domain.SkippedCategory) {
	CategoriesSkippedTotal.Inc()
}

// SourceRejected records a rejected retailer table
func (Recorder) SourceRejected(rejected domain.RejectedSource) {
	SourcesRejectedTotal.WithLabelValues(string(rejected.Retailer)).Inc()
}

// ObserveHTTP records one served request
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

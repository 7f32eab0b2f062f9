package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushq/scheduling-api/internal/models"
)

// Commit outcomes recorded by the scheduling metrics.
const (
	CommitOutcomeCommitted  = "committed"
	CommitOutcomeRejected   = "rejected"
	CommitOutcomeRolledBack = "rolled_back"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the scheduling engine. A nil receiver is safe everywhere so metrics
// stay optional in tests.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	commitTotal        *prometheus.CounterVec
	violationTotal     *prometheus.CounterVec
	validationDuration prometheus.Observer
}

// NewMetricsService registers the core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	commitTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_commits_total",
		Help: "Schedule commit attempts by outcome",
	}, []string{"outcome"})

	violationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_violations_total",
		Help: "Validation violations by kind",
	}, []string{"kind"})

	validationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_validation_duration_seconds",
		Help:    "Duration of schedule validation runs",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(requestDuration, requestTotal, commitTotal, violationTotal, validationDuration)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		commitTotal:        commitTotal,
		violationTotal:     violationTotal,
		validationDuration: validationDuration,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveCommit records the outcome of one commit attempt.
func (s *MetricsService) ObserveCommit(outcome string) {
	if s == nil {
		return
	}
	s.commitTotal.WithLabelValues(outcome).Inc()
}

// ObserveViolations counts the violations of a rejected validation result.
func (s *MetricsService) ObserveViolations(violations []models.Violation) {
	if s == nil {
		return
	}
	for _, violation := range violations {
		s.violationTotal.WithLabelValues(string(violation.Kind)).Inc()
	}
}

// ObserveValidationDuration records how long one validation run took.
func (s *MetricsService) ObserveValidationDuration(duration time.Duration) {
	if s == nil {
		return
	}
	s.validationDuration.Observe(duration.Seconds())
}

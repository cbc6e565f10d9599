package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of leads submitted through the public form",
		},
	)

	leadReviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_reviews_total",
			Help: "Total number of staff review decisions",
		},
		[]string{"decision"},
	)

	onboardingCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_completed_total",
			Help: "Total number of leads converted through onboarding",
		},
	)

	onboardingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_failures_total",
			Help: "Total number of failed onboarding attempts",
		},
		[]string{"reason"},
	)

	notificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_errors_total",
			Help: "Total number of failed lead notifications",
		},
		[]string{"channel"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics labels requests by chi route pattern. Raw paths carry onboarding
// tokens and lead ids and must never become label values.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		route := RoutePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// RoutePattern returns the matched chi pattern, or "unmatched".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadCaptured() {
	leadsCaptured.Inc()
}

// RecordLeadReview counts a review decision: "review", "approved" or "rejected".
func RecordLeadReview(decision string) {
	leadReviews.WithLabelValues(decision).Inc()
}

func RecordOnboardingCompleted() {
	onboardingCompleted.Inc()
}

func RecordOnboardingFailure(reason string) {
	onboardingFailures.WithLabelValues(reason).Inc()
}

func RecordNotificationError(channel string) {
	notificationErrors.WithLabelValues(channel).Inc()
}
